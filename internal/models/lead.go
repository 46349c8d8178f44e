package models

import (
	"time"

	"abetcrm/internal/customfields"
)

const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusUnqualified = "unqualified"
	LeadStatusConverted   = "converted"
)

type Lead struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	JobTitle   string `json:"jobTitle"`
	LeadSource string `json:"leadSource"`
	Status     string `json:"status"`
	LeadScore  int    `json:"leadScore"`
	Ownership
	Description string `json:"description"`
	PostalAddress

	ConvertedToContact   bool       `json:"convertedToContact"`
	ConvertedToContactID *string    `json:"convertedToContactId"`
	ConvertedToAccount   bool       `json:"convertedToAccount"`
	ConvertedToAccountID *string    `json:"convertedToAccountId"`
	ConvertedDate        *time.Time `json:"convertedDate"`

	CustomFields customfields.Values `json:"customFields"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	DeletedAt    *time.Time          `json:"deletedAt,omitempty"`
}

func (l Lead) CustomValues() customfields.Values { return l.CustomFields }

// LeadPatch: nil means "leave unchanged". Identity, timestamps and the
// conversion markers are not patchable.
type LeadPatch struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Company     *string `json:"company"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	JobTitle    *string `json:"jobTitle"`
	LeadSource  *string `json:"leadSource"`
	Status      *string `json:"status"`
	LeadScore   *int    `json:"leadScore"`
	Description *string `json:"description"`
	OwnershipPatch
	PostalAddressPatch
	CustomFields customfields.Values `json:"customFields"`
}

func (p LeadPatch) Changes() []Change {
	var out []Change
	out = setText(out, "first_name", p.FirstName)
	out = setText(out, "last_name", p.LastName)
	out = setText(out, "company", p.Company)
	out = setText(out, "email", p.Email)
	out = setText(out, "phone", p.Phone)
	out = setText(out, "job_title", p.JobTitle)
	out = setText(out, "lead_source", p.LeadSource)
	out = setText(out, "status", p.Status)
	out = setValue(out, "lead_score", p.LeadScore)
	out = setText(out, "description", p.Description)
	out = append(out, p.OwnershipPatch.changes()...)
	out = append(out, p.PostalAddressPatch.changes()...)
	return out
}

func (p LeadPatch) Ownership() OwnershipPatch { return p.OwnershipPatch }
func (p LeadPatch) Custom() customfields.Values { return p.CustomFields }

type LeadStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
	BySource map[string]int `json:"bySource"`
}
