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

const (
	DefaultForecastMonths = 6
	MaxForecastMonths     = 24
)

type OpportunityService struct {
	*Records[models.Opportunity]
	Repo *repositories.OpportunityRepository
}

func NewOpportunityService(db *sql.DB, v *customfields.Validator, rec *audit.Recorder) *OpportunityService {
	bind := func(q database.DBTX) recordRepo[models.Opportunity] { return repositories.NewOpportunityRepository(q) }
	return &OpportunityService{
		Records: newRecords(db, bind, v, rec, audit.EntityOpportunity),
		Repo:    repositories.NewOpportunityRepository(db),
	}
}

func (s *OpportunityService) Create(ctx context.Context, p authz.Principal, o models.Opportunity) (*models.Opportunity, error) {
	if strings.TrimSpace(o.Name) == "" {
		return nil, apperr.Invalid("name is required")
	}
	if err := checkProbability(o.Probability); err != nil {
		return nil, err
	}
	custom, err := s.validateNew(ctx, o.CustomFields)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	o.ID = uuid.NewString()
	o.OwnerID = ownerFor(p, o.OwnerID)
	if o.AssignedTo == "" {
		o.AssignedTo = o.OwnerID
	}
	if o.Stage == "" {
		o.Stage = "prospecting"
	}
	if o.Probability == 0 {
		o.Probability = 10
	}
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.Type == "" {
		o.Type = "New Business"
	}
	if o.Priority == "" {
		o.Priority = "Medium"
	}
	if o.ForecastCategory == "" {
		o.ForecastCategory = "Pipeline"
	}
	if o.Status == "" {
		o.Status = "open"
	}
	o.CustomFields = custom
	o.CreatedAt, o.UpdatedAt, o.DeletedAt = now, now, nil

	if err := s.insert(ctx, o.ID, &o); err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}
	return &o, nil
}

func (s *OpportunityService) Update(ctx context.Context, p authz.Principal, id string, patch models.OpportunityPatch) (*models.Opportunity, error) {
	if patch.Probability != nil {
		if err := checkProbability(*patch.Probability); err != nil {
			return nil, err
		}
	}
	return s.Records.Update(ctx, p, id, patch)
}

// Pipeline counts and sums visible opportunities per stage.
func (s *OpportunityService) Pipeline(ctx context.Context, p authz.Principal) ([]models.StageSummary, error) {
	return s.Repo.Pipeline(ctx, p.VisibleTo())
}

// Forecast buckets expected revenue by close month over the next months.
func (s *OpportunityService) Forecast(ctx context.Context, p authz.Principal, months int) ([]models.ForecastMonth, error) {
	if months == 0 {
		months = DefaultForecastMonths
	}
	if months < 1 || months > MaxForecastMonths {
		return nil, apperr.Invalid(fmt.Sprintf("months must be between 1 and %d", MaxForecastMonths))
	}
	return s.Repo.Forecast(ctx, months, p.VisibleTo())
}

func checkProbability(v int) error {
	if v < 0 || v > 100 {
		return apperr.Invalid("probability must be between 0 and 100")
	}
	return nil
}
