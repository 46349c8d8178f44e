package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"abetcrm/internal/apperr"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
)

type RoleService struct {
	Repo *repositories.RoleRepository
	now  func() time.Time
}

func NewRoleService(repo *repositories.RoleRepository) *RoleService {
	return &RoleService{Repo: repo, now: time.Now}
}

func (s *RoleService) Create(ctx context.Context, r models.Role) (*models.Role, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	now := s.now().UTC()
	r.ID = uuid.NewString()
	r.IsActive = true
	r.CreatedAt, r.UpdatedAt = now, now
	if err := s.Repo.Create(ctx, &r); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return &r, nil
}

func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.Repo.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, id string) (*models.Role, error) {
	r, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("Role not found")
	}
	return r, nil
}

func (s *RoleService) Update(ctx context.Context, id string, patch models.RolePatch) (*models.Role, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.Invalid("name must not be empty")
	}
	changes := patch.Changes()
	if len(changes) == 0 {
		return nil, apperr.Invalid("no fields to update")
	}
	r, err := s.Repo.Update(ctx, id, changes, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("Role not found")
	}
	return r, nil
}

func (s *RoleService) Delete(ctx context.Context, id string) error {
	ok, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("Role not found")
	}
	return nil
}
