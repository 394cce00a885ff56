package service

import (
	"cronwatch/config"
	"cronwatch/internal/event"
	"cronwatch/internal/repository"
	"cronwatch/internal/schedule"
	"cronwatch/pkg/cache"
	"cronwatch/pkg/logger"
)

type Service struct {
	ExecutionService ExecutionService
	TaskService      TaskService
	StatsService     StatsService
	Watchdog         *Watchdog
	Aggregator       *Aggregator
	Roller           *Roller
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	bus *event.Bus,
	inmemoryCache cache.Cache,
) *Service {
	evaluator := schedule.NewEvaluator()

	return &Service{
		ExecutionService: NewExecutionService(cfg, log, repo.TaskRepo, repo.ExecutionRepo, bus),
		TaskService:      NewTaskService(cfg, log, evaluator, repo.TaskRepo),
		StatsService:     NewStatsService(log, repo.ProjectRepo, repo.FailureStatRepo),
		Watchdog:         NewWatchdog(cfg, log, evaluator, repo.TaskRepo, repo.ExecutionRepo, bus, inmemoryCache),
		Aggregator:       NewAggregator(log, repo.FailureStatRepo, bus),
		Roller:           NewRoller(cfg, log, repo.ProjectRepo, repo.ExecutionRepo, repo.FailureStatRepo),
	}
}
