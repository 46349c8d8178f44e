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

type ActivityService struct {
	*Records[models.Activity]
}

func NewActivityService(db *sql.DB, v *customfields.Validator, rec *audit.Recorder) *ActivityService {
	bind := func(q database.DBTX) recordRepo[models.Activity] { return repositories.NewActivityRepository(q) }
	r := newRecords(db, bind, v, rec, audit.EntityActivity)
	r.assigneeReassigns = true
	return &ActivityService{Records: r}
}

func (s *ActivityService) Create(ctx context.Context, p authz.Principal, a models.Activity) (*models.Activity, error) {
	if strings.TrimSpace(a.Subject) == "" {
		return nil, apperr.Invalid("subject is required")
	}
	if a.StartDate != nil && a.EndDate != nil && a.EndDate.Before(*a.StartDate) {
		return nil, apperr.Invalid("endDate must not be before startDate")
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
	if a.Type == "" {
		a.Type = "task"
	}
	if a.Status == "" {
		a.Status = "Planned"
	}
	if a.Priority == "" {
		a.Priority = "Medium"
	}
	a.CustomFields = custom
	a.CreatedAt, a.UpdatedAt, a.DeletedAt = now, now, nil

	if err := s.insert(ctx, a.ID, &a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	return &a, nil
}
