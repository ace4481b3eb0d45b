package service

import (
	"context"

	"overcooked-admin/admin-svc/internal/domain"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type AuditServiceInterface interface {
	Recent(ctx context.Context, resource string, limit int) ([]domain.AuditEntry, error)
}

type AuditService struct {
	repo AuditLister
}

func NewAuditService(repo AuditLister) *AuditService {
	return &AuditService{repo: repo}
}

// Recent returns the latest mutations, newest first. An empty resource
// matches every resource.
func (s *AuditService) Recent(ctx context.Context, resource string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	limit = min(limit, maxAuditLimit)
	entries, err := s.repo.List(ctx, resource, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}

var _ AuditServiceInterface = (*AuditService)(nil)
