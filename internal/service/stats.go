package service

import (
	"context"
	"time"

	"cronwatch/internal/repository"
	"cronwatch/pkg/logger"
)

type StatsService interface {
	GetFailureStat(ctx context.Context, projectID uint, date time.Time) (int64, error)
}

type statsService struct {
	log         *logger.Logger
	projectRepo repository.ProjectRepository
	statRepo    repository.FailureStatRepository
}

func NewStatsService(log *logger.Logger, projectRepo repository.ProjectRepository, statRepo repository.FailureStatRepository) StatsService {
	return &statsService{
		log:         log,
		projectRepo: projectRepo,
		statRepo:    statRepo,
	}
}

func (s *statsService) GetFailureStat(ctx context.Context, projectID uint, date time.Time) (int64, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return 0, err
	}
	return s.statRepo.GetFailureStat(ctx, projectID, date)
}
