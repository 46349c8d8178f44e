package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"abetcrm/internal/apperr"
	"abetcrm/internal/audit"
	"abetcrm/internal/authz"
	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
	"abetcrm/internal/obs"
	"abetcrm/internal/repositories"
)

type LeadService struct {
	*Records[models.Lead]
	Repo *repositories.LeadRepository
}

func NewLeadService(db *sql.DB, v *customfields.Validator, rec *audit.Recorder) *LeadService {
	bind := func(q database.DBTX) recordRepo[models.Lead] { return repositories.NewLeadRepository(q) }
	return &LeadService{
		Records: newRecords(db, bind, v, rec, audit.EntityLead),
		Repo:    repositories.NewLeadRepository(db),
	}
}

func (s *LeadService) Create(ctx context.Context, p authz.Principal, l models.Lead) (*models.Lead, error) {
	if strings.TrimSpace(l.FirstName) == "" || strings.TrimSpace(l.LastName) == "" {
		return nil, apperr.Invalid("firstName and lastName are required")
	}
	if l.Email != "" {
		taken, err := s.Repo.EmailTaken(ctx, l.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("Lead with this email already exists")
		}
	}
	custom, err := s.validateNew(ctx, l.CustomFields)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	l.ID = uuid.NewString()
	l.OwnerID = ownerFor(p, l.OwnerID)
	if l.AssignedTo == "" {
		l.AssignedTo = l.OwnerID
	}
	if l.Status == "" {
		l.Status = models.LeadStatusNew
	}
	if l.LeadSource == "" {
		l.LeadSource = "web"
	}
	l.ConvertedToContact, l.ConvertedToContactID = false, nil
	l.ConvertedToAccount, l.ConvertedToAccountID = false, nil
	l.ConvertedDate = nil
	l.CustomFields = custom
	l.CreatedAt, l.UpdatedAt, l.DeletedAt = now, now, nil

	if err := s.insert(ctx, l.ID, &l); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	return &l, nil
}

func (s *LeadService) Stats(ctx context.Context, p authz.Principal) (*models.LeadStats, error) {
	return s.Repo.Stats(ctx, p.VisibleTo())
}

type ConversionResult struct {
	Contact *models.Contact `json:"contact"`
	Account *models.Account `json:"account"`
}

// Convert creates a Contact and an Account from the lead and marks the lead
// converted. All writes and their audit entries share one transaction and
// the lead row stays locked until commit. Converting again creates a new
// pair and repoints the lead.
func (s *LeadService) Convert(ctx context.Context, p authz.Principal, id string) (*ConversionResult, error) {
	var res ConversionResult
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		leads := s.Repo.WithTx(tx)
		lead, err := leads.GetForUpdate(ctx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound("Lead not found")
		}
		if err != nil {
			return err
		}
		if !authz.CanUpdate(p, *lead) {
			return apperr.ErrForbidden
		}
		now := s.now().UTC()

		contact := contactFromLead(lead)
		contact.CreatedAt, contact.UpdatedAt = now, now
		if err := repositories.NewContactRepository(tx).Create(ctx, contact); err != nil {
			return err
		}
		if _, err := s.recorder.Record(ctx, tx, audit.ActionCreate, audit.EntityContact, contact.ID, nil, contact); err != nil {
			return err
		}

		account := accountFromLead(lead)
		account.CreatedAt, account.UpdatedAt = now, now
		if err := repositories.NewAccountRepository(tx).Create(ctx, account); err != nil {
			return err
		}
		if _, err := s.recorder.Record(ctx, tx, audit.ActionCreate, audit.EntityAccount, account.ID, nil, account); err != nil {
			return err
		}

		converted, err := leads.MarkConverted(ctx, id, contact.ID, account.ID, now)
		if err != nil {
			return err
		}
		if _, err := s.recorder.Record(ctx, tx, audit.ActionConvert, audit.EntityLead, id, lead, converted); err != nil {
			return err
		}
		res = ConversionResult{Contact: contact, Account: account}
		return nil
	})
	if err != nil {
		obs.ObserveConversion("failed")
		log.Printf("[lead][convert] lead=%s failed: %v", id, err)
		return nil, fmt.Errorf("convert lead: %w", err)
	}
	obs.ObserveConversion("converted")
	log.Printf("[lead][convert] lead=%s contact=%s account=%s", id, res.Contact.ID, res.Account.ID)
	return &res, nil
}

// contactFromLead copies the person fields; custom fields are carried over
// as stored, without checking them against the contact registry.
func contactFromLead(l *models.Lead) *models.Contact {
	return &models.Contact{
		ID:            uuid.NewString(),
		FirstName:     l.FirstName,
		LastName:      l.LastName,
		Email:         l.Email,
		Phone:         l.Phone,
		JobTitle:      l.JobTitle,
		Ownership:     l.Ownership,
		Status:        "active",
		Description:   l.Description,
		PostalAddress: l.PostalAddress,
		CustomFields:  l.CustomFields.Merge(nil),
	}
}

func accountFromLead(l *models.Lead) *models.Account {
	return &models.Account{
		ID:            uuid.NewString(),
		Name:          l.Company,
		Description:   l.Description,
		PostalAddress: l.PostalAddress,
		Ownership:     l.Ownership,
		Status:        "active",
		CustomFields:  l.CustomFields.Merge(nil),
	}
}
