package models

import (
	"time"

	"abetcrm/internal/customfields"
)

type Opportunity struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	AccountID   *string    `json:"accountId"`
	ContactID   *string    `json:"contactId"`
	Stage       string     `json:"stage"`
	Probability int        `json:"probability"`
	Amount      *float64   `json:"amount"`
	Currency    string     `json:"currency"`
	CloseDate   *time.Time `json:"closeDate"`
	Ownership
	LeadSource       string `json:"leadSource"`
	Type             string `json:"type"`
	Priority         string `json:"priority"`
	ForecastCategory string `json:"forecastCategory"`
	NextStep         string `json:"nextStep"`
	Status           string `json:"status"`

	CustomFields customfields.Values `json:"customFields"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	DeletedAt    *time.Time          `json:"deletedAt,omitempty"`
}

func (o Opportunity) CustomValues() customfields.Values { return o.CustomFields }

type OpportunityPatch struct {
	Name             *string    `json:"name"`
	Description      *string    `json:"description"`
	AccountID        *string    `json:"accountId"`
	ContactID        *string    `json:"contactId"`
	Stage            *string    `json:"stage"`
	Probability      *int       `json:"probability"`
	Amount           *float64   `json:"amount"`
	Currency         *string    `json:"currency"`
	CloseDate        *time.Time `json:"closeDate"`
	LeadSource       *string    `json:"leadSource"`
	Type             *string    `json:"type"`
	Priority         *string    `json:"priority"`
	ForecastCategory *string    `json:"forecastCategory"`
	NextStep         *string    `json:"nextStep"`
	Status           *string    `json:"status"`
	OwnershipPatch
	CustomFields customfields.Values `json:"customFields"`
}

func (p OpportunityPatch) Changes() []Change {
	var out []Change
	out = setText(out, "name", p.Name)
	out = setText(out, "description", p.Description)
	out = setRef(out, "account_id", p.AccountID)
	out = setRef(out, "contact_id", p.ContactID)
	out = setText(out, "stage", p.Stage)
	out = setValue(out, "probability", p.Probability)
	out = setValue(out, "amount", p.Amount)
	out = setText(out, "currency", p.Currency)
	out = setValue(out, "close_date", p.CloseDate)
	out = setText(out, "lead_source", p.LeadSource)
	out = setText(out, "type", p.Type)
	out = setText(out, "priority", p.Priority)
	out = setText(out, "forecast_category", p.ForecastCategory)
	out = setText(out, "next_step", p.NextStep)
	out = setText(out, "status", p.Status)
	out = append(out, p.OwnershipPatch.changes()...)
	return out
}

func (p OpportunityPatch) Ownership() OwnershipPatch { return p.OwnershipPatch }
func (p OpportunityPatch) Custom() customfields.Values { return p.CustomFields }

// StageSummary is one row of the pipeline view.
type StageSummary struct {
	Stage       string  `json:"stage"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// ForecastMonth is one close-month bucket, weighted by probability.
type ForecastMonth struct {
	Month          string  `json:"month"`
	WeightedAmount float64 `json:"weightedAmount"`
	Count          int     `json:"count"`
}
