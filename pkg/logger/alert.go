package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cronwatch/config"
	"cronwatch/pkg/common"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AlertCore forwards marked error entries to the configured alert webhook.
type AlertCore struct {
	cfg      *config.Config
	core     zapcore.Core
	minLevel zapcore.Level
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		cfg:      a.cfg,
		core:     a.core.With(fields),
		minLevel: a.minLevel,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return a.core.Check(entry, checkedEntry).AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	shouldSend := false
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			shouldSend = true
			break
		}
	}
	if entry.Level >= a.minLevel && shouldSend {
		go a.sendWebhookAlert(entry, fields)
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

func (a *AlertCore) sendWebhookAlert(entry zapcore.Entry, fields []zapcore.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	payload := map[string]interface{}{
		"level":   entry.Level.CapitalString(),
		"message": entry.Message,
		"fields":  enc.Fields,
		"time":    entry.Time.Format("2006-01-02 15:04:05"),
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return
	}
	resp, err := http.Post(a.cfg.Alert.WebhookURL, "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		fmt.Printf("failed to send alert webhook: %v\n", err)
		return
	}
	defer resp.Body.Close()
}

// ErrorContextWithAlert logs an error and marks the entry for webhook forwarding.
func (l *Logger) ErrorContextWithAlert(ctx context.Context, msg string, fields ...zap.Field) {
	fields = append(fields, zap.Bool(common.KEY_LOG_HOOK_SEND_ALERT, true))
	l.FromContext(ctx).Error(msg, fields...)
}
