package models

import "time"

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type RolePatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
	IsActive    *bool     `json:"isActive"`
}

func (p RolePatch) Changes() []Change {
	var out []Change
	out = setText(out, "name", p.Name)
	out = setText(out, "description", p.Description)
	if p.Permissions != nil {
		out = append(out, Change{"permissions", *p.Permissions})
	}
	out = setValue(out, "is_active", p.IsActive)
	return out
}
