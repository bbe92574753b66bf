package service

import (
	"context"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/repository"
)

type AdminService struct {
	repo    repository.Repository
	nowFunc func() time.Time
}

func NewAdminService(repo repository.Repository) *AdminService {
	return &AdminService{repo: repo, nowFunc: time.Now}
}

// Stats returns dashboard counters. Today starts at midnight UTC.
func (s *AdminService) Stats(ctx context.Context) (model.AdminStats, error) {
	now := s.nowFunc().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.Stats(ctx, startOfDay)
}
