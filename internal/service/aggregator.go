package service

import (
	"context"

	"cronwatch/internal/event"
	"cronwatch/internal/repository"
	"cronwatch/pkg/logger"
)

// Aggregator consumes failure events and maintains the incremental per-project
// per-day counters. Increments are commutative counter adds, so concurrent
// deliveries for the same key never lose an update.
type Aggregator struct {
	log      *logger.Logger
	statRepo repository.FailureStatRepository

	failed <-chan event.Event
	missed <-chan event.Event
}

// NewAggregator subscribes immediately so no event published after
// construction is lost before the loop starts draining.
func NewAggregator(log *logger.Logger, statRepo repository.FailureStatRepository, bus *event.Bus) *Aggregator {
	return &Aggregator{
		log:      log,
		statRepo: statRepo,
		failed:   bus.Subscribe(event.KindExecutionFailed),
		missed:   bus.Subscribe(event.KindExecutionMissed),
	}
}

func (a *Aggregator) Name() string {
	return "failure-aggregator"
}

// Run drains both subscriptions until the context is cancelled or the bus
// closes the channels.
func (a *Aggregator) Run(ctx context.Context) error {
	a.log.Info("Failure aggregator started")

	failed, missed := a.failed, a.missed
	for {
		select {
		case <-ctx.Done():
			a.log.Info("Failure aggregator stopped")
			return nil
		case ev, ok := <-failed:
			if !ok {
				failed = nil
				break
			}
			a.apply(ctx, ev)
		case ev, ok := <-missed:
			if !ok {
				missed = nil
				break
			}
			a.apply(ctx, ev)
		}
		if failed == nil && missed == nil {
			a.log.Info("Failure aggregator stopped, bus closed")
			return nil
		}
	}
}

func (a *Aggregator) apply(ctx context.Context, ev event.Event) {
	if !ev.IsFailure() || ev.Task.ProjectID == 0 || ev.Execution.ID == 0 {
		a.log.WarnContext(ctx, "Discarding malformed failure event",
			logger.StringField("kind", string(ev.Kind)),
			logger.IntField("task_id", int(ev.Task.ID)),
		)
		return
	}

	date := ev.Execution.FailureDate()
	if err := a.statRepo.IncrementFailureStat(ctx, ev.Task.ProjectID, date); err != nil {
		// Lost increments are healed by the reconciliation roller.
		a.log.ErrorContext(ctx, "Failed to increment failure stat",
			logger.ErrorField(err),
			logger.IntField("project_id", int(ev.Task.ProjectID)),
			logger.TimeField("stat_date", date),
		)
	}
}
