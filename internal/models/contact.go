package models

import (
	"time"

	"abetcrm/internal/customfields"
)

type Contact struct {
	ID         string  `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	JobTitle   string  `json:"jobTitle"`
	Department string  `json:"department"`
	AccountID  *string `json:"accountId"`
	Ownership
	Status      string `json:"status"`
	LeadSource  string `json:"leadSource"`
	Description string `json:"description"`
	PostalAddress

	CustomFields customfields.Values `json:"customFields"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	DeletedAt    *time.Time          `json:"deletedAt,omitempty"`
}

func (c Contact) CustomValues() customfields.Values { return c.CustomFields }

type ContactPatch struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	JobTitle    *string `json:"jobTitle"`
	Department  *string `json:"department"`
	AccountID   *string `json:"accountId"`
	Status      *string `json:"status"`
	LeadSource  *string `json:"leadSource"`
	Description *string `json:"description"`
	OwnershipPatch
	PostalAddressPatch
	CustomFields customfields.Values `json:"customFields"`
}

func (p ContactPatch) Changes() []Change {
	var out []Change
	out = setText(out, "first_name", p.FirstName)
	out = setText(out, "last_name", p.LastName)
	out = setText(out, "email", p.Email)
	out = setText(out, "phone", p.Phone)
	out = setText(out, "job_title", p.JobTitle)
	out = setText(out, "department", p.Department)
	out = setRef(out, "account_id", p.AccountID)
	out = setText(out, "status", p.Status)
	out = setText(out, "lead_source", p.LeadSource)
	out = setText(out, "description", p.Description)
	out = append(out, p.OwnershipPatch.changes()...)
	out = append(out, p.PostalAddressPatch.changes()...)
	return out
}

func (p ContactPatch) Ownership() OwnershipPatch { return p.OwnershipPatch }
func (p ContactPatch) Custom() customfields.Values { return p.CustomFields }
