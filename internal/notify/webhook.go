package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cronwatch/config"
	"cronwatch/internal/event"
	"cronwatch/internal/repository"
	"cronwatch/pkg/httpclient"
	"cronwatch/pkg/logger"
	"cronwatch/pkg/ratelimit"

	"golang.org/x/time/rate"
)

// WebhookNotifier forwards failure events to webhooks: the owning project's
// configured URL when set, the global fallback otherwise. Delivery is
// best-effort with per-project rate limiting; it carries no retry state, the
// receiving end owns its own semantics.
type WebhookNotifier struct {
	cfg         *config.Config
	log         *logger.Logger
	client      httpclient.HTTPClient
	projectRepo repository.ProjectRepository
	limiters    *ratelimit.LimiterStore

	failed <-chan event.Event
	missed <-chan event.Event
}

type webhookPayload struct {
	Kind        string     `json:"kind"`
	ProjectID   uint       `json:"project_id"`
	TaskID      uint       `json:"task_id"`
	TaskName    string     `json:"task_name"`
	ExecutionID uint       `json:"execution_id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	At          time.Time  `json:"at"`
}

func NewWebhookNotifier(
	cfg *config.Config,
	log *logger.Logger,
	bus *event.Bus,
	projectRepo repository.ProjectRepository,
) *WebhookNotifier {
	perMinute := cfg.Notify.MaxRequestPerMin
	if perMinute <= 0 {
		perMinute = 60
	}

	return &WebhookNotifier{
		cfg:         cfg,
		log:         log,
		client:      httpclient.New("", cfg.Notify.Timeout),
		projectRepo: projectRepo,
		limiters:    ratelimit.NewLimiterStore(rate.Limit(float64(perMinute)/60.0), perMinute),
		failed:      bus.Subscribe(event.KindExecutionFailed),
		missed:      bus.Subscribe(event.KindExecutionMissed),
	}
}

func (n *WebhookNotifier) Name() string {
	return "webhook-notifier"
}

func (n *WebhookNotifier) Run(ctx context.Context) error {
	n.log.Info("Webhook notifier started")

	failed, missed := n.failed, n.missed
	for {
		select {
		case <-ctx.Done():
			n.log.Info("Webhook notifier stopped")
			return nil
		case ev, ok := <-failed:
			if !ok {
				failed = nil
				break
			}
			n.dispatch(ctx, ev)
		case ev, ok := <-missed:
			if !ok {
				missed = nil
				break
			}
			n.dispatch(ctx, ev)
		}
		if failed == nil && missed == nil {
			n.log.Info("Webhook notifier stopped, bus closed")
			return nil
		}
	}
}

func (n *WebhookNotifier) dispatch(ctx context.Context, ev event.Event) {
	url := n.webhookURL(ctx, ev.Task.ProjectID)
	if url == "" {
		return
	}

	limiter := n.limiters.GetLimiter(fmt.Sprintf("project:%d", ev.Task.ProjectID))
	if err := limiter.Wait(ctx); err != nil {
		return
	}

	payload := webhookPayload{
		Kind:        string(ev.Kind),
		ProjectID:   ev.Task.ProjectID,
		TaskID:      ev.Task.ID,
		TaskName:    ev.Task.Name,
		ExecutionID: ev.Execution.ID,
		StartedAt:   ev.Execution.StartedAt,
		At:          ev.At,
	}
	if ev.Execution.EndedAt.Valid {
		payload.EndedAt = &ev.Execution.EndedAt.Time
	}
	if ev.Execution.WindowStart.Valid {
		payload.WindowStart = &ev.Execution.WindowStart.Time
	}

	resp, err := n.client.Post(ctx, url, payload, nil, nil)
	if err != nil {
		n.log.WarnContext(ctx, "Failed to deliver webhook notification",
			logger.ErrorField(err),
			logger.IntField("project_id", int(ev.Task.ProjectID)),
			logger.StringField("kind", string(ev.Kind)),
		)
		return
	}
	if resp.StatusCode >= 300 {
		n.log.WarnContext(ctx, "Webhook endpoint rejected notification",
			logger.IntField("status_code", resp.StatusCode),
			logger.IntField("project_id", int(ev.Task.ProjectID)),
		)
	}
}

func (n *WebhookNotifier) webhookURL(ctx context.Context, projectID uint) string {
	project, err := n.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if !errors.Is(err, repository.ErrProjectNotFound) {
			n.log.WarnContext(ctx, "Failed to resolve project webhook",
				logger.ErrorField(err),
				logger.IntField("project_id", int(projectID)),
			)
		}
		return n.cfg.Notify.WebhookURL
	}
	if project.WebhookURL.Valid && project.WebhookURL.String != "" {
		return project.WebhookURL.String
	}
	return n.cfg.Notify.WebhookURL
}
