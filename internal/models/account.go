package models

import (
	"time"

	"abetcrm/internal/customfields"
)

type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Website     string `json:"website"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	PostalAddress
	Size          string   `json:"size"`
	AnnualRevenue *float64 `json:"annualRevenue"`
	Ownership
	Status string `json:"status"`

	CustomFields customfields.Values `json:"customFields"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	DeletedAt    *time.Time          `json:"deletedAt,omitempty"`
}

func (a Account) CustomValues() customfields.Values { return a.CustomFields }

type AccountPatch struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Industry      *string  `json:"industry"`
	Website       *string  `json:"website"`
	Phone         *string  `json:"phone"`
	Email         *string  `json:"email"`
	Size          *string  `json:"size"`
	AnnualRevenue *float64 `json:"annualRevenue"`
	Status        *string  `json:"status"`
	OwnershipPatch
	PostalAddressPatch
	CustomFields customfields.Values `json:"customFields"`
}

func (p AccountPatch) Changes() []Change {
	var out []Change
	out = setText(out, "name", p.Name)
	out = setText(out, "description", p.Description)
	out = setText(out, "industry", p.Industry)
	out = setText(out, "website", p.Website)
	out = setText(out, "phone", p.Phone)
	out = setText(out, "email", p.Email)
	out = setText(out, "size", p.Size)
	out = setValue(out, "annual_revenue", p.AnnualRevenue)
	out = setText(out, "status", p.Status)
	out = append(out, p.OwnershipPatch.changes()...)
	out = append(out, p.PostalAddressPatch.changes()...)
	return out
}

func (p AccountPatch) Ownership() OwnershipPatch { return p.OwnershipPatch }
func (p AccountPatch) Custom() customfields.Values { return p.CustomFields }
