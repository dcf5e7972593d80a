package usecase

import (
	"context"
	"errors"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	applogger "TradeForge/pkg/logger"
)

// notifier publishes events for steps that already committed. A failed
// publish is logged and counted; the step stays committed.
type notifier struct {
	pub     drepo.EventPublisher
	metrics drepo.Metrics
	l       *applogger.Logger
}

func (n notifier) notify(ctx context.Context, typ, key string, payload map[string]interface{}) {
	if n.pub == nil {
		return
	}
	e := models.MarketEvent{Type: typ, Key: key, Payload: payload, OccurredAt: time.Now().UTC()}
	if err := n.pub.Publish(ctx, e); err != nil {
		n.metrics.RecordError("publish")
		n.l.Error("publish market event failed",
			applogger.String("type", typ),
			applogger.String("key", key),
			applogger.Error(err),
		)
	}
}

// errorKind labels err for metrics and batch results.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, models.ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, models.ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func stepResult(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}
