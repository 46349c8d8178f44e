package models

import (
	"time"

	"abetcrm/internal/customfields"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         string `json:"role"`
	IsActive     bool   `json:"isActive"`

	CustomFields customfields.Values `json:"customFields"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	DeletedAt    *time.Time          `json:"deletedAt,omitempty"`

	// opaque refresh token, rotated on every refresh
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// CreateUserRequest is the admin form; Role defaults to "user".
type CreateUserRequest struct {
	RegisterRequest
	Role         string              `json:"role" binding:"omitempty,oneof=admin user"`
	CustomFields customfields.Values `json:"customFields"`
}

type UserPatch struct {
	Email        *string             `json:"email" binding:"omitempty,email"`
	Password     *string             `json:"password" binding:"omitempty,min=6"`
	FirstName    *string             `json:"firstName"`
	LastName     *string             `json:"lastName"`
	Role         *string             `json:"role"`
	IsActive     *bool               `json:"isActive"`
	CustomFields customfields.Values `json:"customFields"`
}

// Changes excludes the password, which the service hashes first.
func (p UserPatch) Changes() []Change {
	var out []Change
	out = setText(out, "email", p.Email)
	out = setText(out, "first_name", p.FirstName)
	out = setText(out, "last_name", p.LastName)
	out = setText(out, "role", p.Role)
	out = setValue(out, "is_active", p.IsActive)
	return out
}
