package models

import "time"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Change is one column assignment of a partial update.
type Change struct {
	Column string
	Value  any
}

// Condition is one equality filter on a whitelisted column.
type Condition struct {
	Column string
	Value  any
}

// ListQuery is the shared list/search/filter request of every entity.
type ListQuery struct {
	Page       int
	Limit      int
	Search     string
	Conditions []Condition
	From, To   *time.Time
	// VisibleTo restricts rows to owner_id = id OR assigned_to = id.
	VisibleTo string
}

func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewPage[T any](items []T, total int, q ListQuery) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return Page[T]{Items: items, Total: total, Page: q.Page, Limit: q.Limit, TotalPages: pages}
}

// Ownership is carried by every mutable entity.
type Ownership struct {
	OwnerID    string `json:"ownerId"`
	AssignedTo string `json:"assignedTo"`
}

func (o Ownership) Owner() string { return o.OwnerID }
func (o Ownership) Assignee() string { return o.AssignedTo }

// PostalAddress is shared by leads, contacts and accounts.
type PostalAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// PostalAddressPatch is the optional-field form of PostalAddress.
type PostalAddressPatch struct {
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	ZipCode *string `json:"zipCode"`
	Country *string `json:"country"`
}

func (p PostalAddressPatch) changes() []Change {
	var out []Change
	out = setText(out, "address", p.Address)
	out = setText(out, "city", p.City)
	out = setText(out, "state", p.State)
	out = setText(out, "zip_code", p.ZipCode)
	out = setText(out, "country", p.Country)
	return out
}

// OwnershipPatch carries the fields guarded by ownership rules.
type OwnershipPatch struct {
	OwnerID    *string `json:"ownerId"`
	AssignedTo *string `json:"assignedTo"`
}

func (p OwnershipPatch) changes() []Change {
	var out []Change
	if p.OwnerID != nil && *p.OwnerID != "" {
		out = append(out, Change{"owner_id", *p.OwnerID})
	}
	if p.AssignedTo != nil && *p.AssignedTo != "" {
		out = append(out, Change{"assigned_to", *p.AssignedTo})
	}
	return out
}

func setText(out []Change, col string, v *string) []Change {
	if v == nil {
		return out
	}
	return append(out, Change{col, *v})
}

// setRef writes a nullable reference; an empty string clears it.
func setRef(out []Change, col string, v *string) []Change {
	if v == nil {
		return out
	}
	if *v == "" {
		return append(out, Change{col, nil})
	}
	return append(out, Change{col, *v})
}

func setValue[T any](out []Change, col string, v *T) []Change {
	if v == nil {
		return out
	}
	return append(out, Change{col, *v})
}
