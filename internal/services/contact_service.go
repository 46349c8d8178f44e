package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"abetcrm/internal/apperr"
	"abetcrm/internal/audit"
	"abetcrm/internal/authz"
	"abetcrm/internal/customfields"
	"abetcrm/internal/database"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
)

type ContactService struct {
	*Records[models.Contact]
}

func NewContactService(db *sql.DB, v *customfields.Validator, rec *audit.Recorder) *ContactService {
	bind := func(q database.DBTX) recordRepo[models.Contact] { return repositories.NewContactRepository(q) }
	r := newRecords(db, bind, v, rec, audit.EntityContact)
	r.assigneeReassigns = true
	return &ContactService{Records: r}
}

func (s *ContactService) Create(ctx context.Context, p authz.Principal, c models.Contact) (*models.Contact, error) {
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return nil, apperr.Invalid("firstName and lastName are required")
	}
	custom, err := s.validateNew(ctx, c.CustomFields)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c.ID = uuid.NewString()
	c.OwnerID = ownerFor(p, c.OwnerID)
	if c.AssignedTo == "" {
		c.AssignedTo = c.OwnerID
	}
	if c.Status == "" {
		c.Status = "active"
	}
	c.CustomFields = custom
	c.CreatedAt, c.UpdatedAt, c.DeletedAt = now, now, nil

	if err := s.insert(ctx, c.ID, &c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &c, nil
}
