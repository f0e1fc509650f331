package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/crmlite/internal/port/messagequeue"
)

// publish sends an event. Failures are logged and never fail the caller.
func publish(ctx context.Context, pub messagequeue.Publisher, subject string, payload any) {
	if pub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}
	if err := pub.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish event failed", "subject", subject, "error", err)
	}
}
