package services

import (
	"context"

	"abetcrm/internal/audit"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
)

type AuditService struct {
	Repo *repositories.AuditLogRepository
}

func NewAuditService(repo *repositories.AuditLogRepository) *AuditService {
	return &AuditService{Repo: repo}
}

func (s *AuditService) List(ctx context.Context, q audit.Query) (models.Page[audit.Entry], error) {
	if err := q.Check(); err != nil {
		return models.Page[audit.Entry]{}, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > models.MaxLimit {
		q.Limit = models.DefaultLimit
	}
	items, total, err := s.Repo.List(ctx, q)
	if err != nil {
		return models.Page[audit.Entry]{}, err
	}
	return models.NewPage(items, total, models.ListQuery{Page: q.Page, Limit: q.Limit}), nil
}
