package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"abetcrm/internal/apperr"
	"abetcrm/internal/customfields"
	"abetcrm/internal/repositories"
)

// CustomFieldService is the registry of custom field definitions.
type CustomFieldService struct {
	Repo *repositories.CustomFieldRepository
	now  func() time.Time
}

func NewCustomFieldService(repo *repositories.CustomFieldRepository) *CustomFieldService {
	return &CustomFieldService{Repo: repo, now: time.Now}
}

func (s *CustomFieldService) Create(ctx context.Context, d customfields.Definition) (*customfields.Definition, error) {
	d.FieldName = strings.TrimSpace(d.FieldName)
	if err := d.Check(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt, d.UpdatedAt = now, now
	if d.Options == nil && d.FieldType.NeedsOptions() {
		d.Options = []string{}
	}
	if err := s.Repo.Create(ctx, &d); err != nil {
		return nil, fmt.Errorf("create custom field: %w", err)
	}
	return &d, nil
}

// ListByEntity returns the definitions of entity, newest first.
func (s *CustomFieldService) ListByEntity(ctx context.Context, entity string) ([]customfields.Definition, error) {
	if !customfields.ValidEntity(entity) {
		return nil, apperr.Invalid(fmt.Sprintf("Invalid entity type: %s. Valid types are: %s",
			entity, strings.Join(customfields.Entities, ", ")))
	}
	return s.Repo.ListByEntity(ctx, entity)
}

func (s *CustomFieldService) Get(ctx context.Context, id string) (*customfields.Definition, error) {
	d, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound("Custom field not found")
	}
	return d, nil
}

// Update patches the mutable attributes; the result must still be a
// valid definition.
func (s *CustomFieldService) Update(ctx context.Context, id string, patch customfields.DefinitionPatch) (*customfields.Definition, error) {
	if patch.Empty() {
		return nil, apperr.Invalid("no fields to update")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)
	if err := updated.Check(); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now().UTC()
	if err := s.Repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update custom field: %w", err)
	}
	return &updated, nil
}

func (s *CustomFieldService) Delete(ctx context.Context, id string) error {
	ok, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("Custom field not found")
	}
	return nil
}
