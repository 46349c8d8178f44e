package models

import (
	"time"

	"abetcrm/internal/customfields"
)

type Activity struct {
	ID          string     `json:"id"`
	Subject     string     `json:"subject"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Duration    *int       `json:"duration"`
	Ownership
	AccountID     *string `json:"accountId"`
	ContactID     *string `json:"contactId"`
	OpportunityID *string `json:"opportunityId"`
	RelatedToType string  `json:"relatedToType"`
	RelatedToID   *string `json:"relatedToId"`
	IsAllDay      bool    `json:"isAllDay"`
	Location      string  `json:"location"`
	Reminder      *int    `json:"reminder"`

	CustomFields customfields.Values `json:"customFields"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	DeletedAt    *time.Time          `json:"deletedAt,omitempty"`
}

func (a Activity) CustomValues() customfields.Values { return a.CustomFields }

type ActivityPatch struct {
	Subject       *string    `json:"subject"`
	Type          *string    `json:"type"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	Duration      *int       `json:"duration"`
	AccountID     *string    `json:"accountId"`
	ContactID     *string    `json:"contactId"`
	OpportunityID *string    `json:"opportunityId"`
	RelatedToType *string    `json:"relatedToType"`
	RelatedToID   *string    `json:"relatedToId"`
	IsAllDay      *bool      `json:"isAllDay"`
	Location      *string    `json:"location"`
	Reminder      *int       `json:"reminder"`
	OwnershipPatch
	CustomFields customfields.Values `json:"customFields"`
}

func (p ActivityPatch) Changes() []Change {
	var out []Change
	out = setText(out, "subject", p.Subject)
	out = setText(out, "type", p.Type)
	out = setText(out, "description", p.Description)
	out = setText(out, "status", p.Status)
	out = setText(out, "priority", p.Priority)
	out = setValue(out, "start_date", p.StartDate)
	out = setValue(out, "end_date", p.EndDate)
	out = setValue(out, "duration", p.Duration)
	out = setRef(out, "account_id", p.AccountID)
	out = setRef(out, "contact_id", p.ContactID)
	out = setRef(out, "opportunity_id", p.OpportunityID)
	out = setText(out, "related_to_type", p.RelatedToType)
	out = setRef(out, "related_to_id", p.RelatedToID)
	out = setValue(out, "is_all_day", p.IsAllDay)
	out = setText(out, "location", p.Location)
	out = setValue(out, "reminder", p.Reminder)
	out = append(out, p.OwnershipPatch.changes()...)
	return out
}

func (p ActivityPatch) Ownership() OwnershipPatch { return p.OwnershipPatch }
func (p ActivityPatch) Custom() customfields.Values { return p.CustomFields }
