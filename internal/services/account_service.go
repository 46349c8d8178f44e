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

type AccountService struct {
	*Records[models.Account]
}

func NewAccountService(db *sql.DB, v *customfields.Validator, rec *audit.Recorder) *AccountService {
	bind := func(q database.DBTX) recordRepo[models.Account] { return repositories.NewAccountRepository(q) }
	return &AccountService{Records: newRecords(db, bind, v, rec, audit.EntityAccount)}
}

func (s *AccountService) Create(ctx context.Context, p authz.Principal, a models.Account) (*models.Account, error) {
	if strings.TrimSpace(a.Name) == "" {
		return nil, apperr.Invalid("name is required")
	}
	custom, err := s.validateNew(ctx, a.CustomFields)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	a.ID = uuid.NewString()
	a.OwnerID = ownerFor(p, a.OwnerID)
	if a.AssignedTo == "" {
		a.AssignedTo = a.OwnerID
	}
	if a.Status == "" {
		a.Status = "active"
	}
	a.CustomFields = custom
	a.CreatedAt, a.UpdatedAt, a.DeletedAt = now, now, nil

	if err := s.insert(ctx, a.ID, &a); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &a, nil
}
