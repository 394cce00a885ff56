package service

import (
	"context"

	"cronwatch/internal/event"
	"cronwatch/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Runner is a long-lived loop owned by the supervisor: it blocks until the
// context is cancelled and returns only after finishing its current iteration
// and releasing whatever it holds.
type Runner interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervisor owns every background loop and the shared cancellation signal.
// Shutdown is complete only when all loops have exited, after which the event
// bus is closed so any external subscribers terminate too.
type Supervisor struct {
	log     *logger.Logger
	bus     *event.Bus
	runners []Runner
}

func NewSupervisor(log *logger.Logger, bus *event.Bus, runners ...Runner) *Supervisor {
	return &Supervisor{
		log:     log,
		bus:     bus,
		runners: runners,
	}
}

// Run starts all loops and blocks until they have all stopped.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, runner := range s.runners {
		runner := runner
		g.Go(func() error {
			s.log.Info("Starting loop", logger.StringField("loop", runner.Name()))
			runErr := runner.Run(gctx)
			if runErr != nil {
				s.log.Error("Loop exited with error",
					logger.StringField("loop", runner.Name()),
					logger.ErrorField(runErr),
				)
			}
			return runErr
		})
	}

	err := g.Wait()
	s.bus.Close()
	s.log.Info("All loops stopped, event bus closed")
	return err
}
