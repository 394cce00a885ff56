package service

import (
	"context"
	"time"

	"cronwatch/config"
	"cronwatch/internal/repository"
	"cronwatch/pkg/logger"
	"cronwatch/pkg/utils"
)

// Roller is the reconciliation pass that recomputes failure counters from the
// execution history and overwrites the incremental values. It makes the stats
// pipeline self-healing: whatever the bus dropped, the next roll converges the
// counters back to the ground truth.
type Roller struct {
	cfg         *config.Config
	log         *logger.Logger
	projectRepo repository.ProjectRepository
	execRepo    repository.ExecutionRepository
	statRepo    repository.FailureStatRepository
	now         func() time.Time
}

func NewRoller(
	cfg *config.Config,
	log *logger.Logger,
	projectRepo repository.ProjectRepository,
	execRepo repository.ExecutionRepository,
	statRepo repository.FailureStatRepository,
) *Roller {
	return &Roller{
		cfg:         cfg,
		log:         log,
		projectRepo: projectRepo,
		execRepo:    execRepo,
		statRepo:    statRepo,
		now:         time.Now,
	}
}

func (r *Roller) Name() string {
	return "reconciliation-roller"
}

// Run reconciles once at start, then on the configured interval until the
// context is cancelled.
func (r *Roller) Run(ctx context.Context) error {
	r.log.Info("Reconciliation roller started", logger.Field("interval", r.cfg.Roller.Interval))

	r.reconcile(ctx)

	ticker := time.NewTicker(r.cfg.Roller.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Reconciliation roller stopped")
			return nil
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile recomputes today and yesterday for every project. Yesterday is
// included to catch failures attributed across the UTC midnight boundary.
// Keys are isolated: one failing project/date is logged and skipped, the rest
// of the batch proceeds.
func (r *Roller) reconcile(ctx context.Context) {
	projects, err := r.projectRepo.ListAll(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to list projects for reconciliation", logger.ErrorField(err))
		return
	}

	today := utils.DateUTC(r.now())
	dates := []time.Time{today, today.AddDate(0, 0, -1)}

	var failedKeys int
	for _, project := range projects {
		for _, date := range dates {
			if !utils.ShouldContinue(ctx, r.log) {
				return
			}
			if err := r.reconcileKey(ctx, project.ID, date); err != nil {
				failedKeys++
				r.log.ErrorContext(ctx, "Failed to reconcile failure stat",
					logger.ErrorField(err),
					logger.IntField("project_id", int(project.ID)),
					logger.TimeField("stat_date", date),
				)
			}
		}
	}

	r.log.InfoContext(ctx, "Reconciliation pass completed",
		logger.IntField("projects", len(projects)),
		logger.IntField("failed_keys", failedKeys),
	)
}

func (r *Roller) reconcileKey(ctx context.Context, projectID uint, date time.Time) error {
	count, err := r.execRepo.CountFailuresForProjectOnDate(ctx, projectID, date)
	if err != nil {
		return err
	}
	return r.statRepo.UpsertFailureStat(ctx, projectID, date, count)
}
