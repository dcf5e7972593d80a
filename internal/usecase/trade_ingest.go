package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	pkgkafka "TradeForge/pkg/kafka"
	applogger "TradeForge/pkg/logger"

	"github.com/google/uuid"
)

// TradeIngestHandler consumes executed trades from Kafka and appends
// them to the trade log.
type TradeIngestHandler struct {
	topic   string
	log     *TradeLog
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewTradeIngestHandler(topic string, log *TradeLog, metrics drepo.Metrics, l *applogger.Logger) *TradeIngestHandler {
	return &TradeIngestHandler{topic: topic, log: log, metrics: metrics, l: l}
}

func (h *TradeIngestHandler) Topic() string { return h.topic }

// Handle decodes one TradeHistory JSON document. A missing id is filled
// in. Malformed or invalid trades are reported as poison so they are not
// retried.
func (h *TradeIngestHandler) Handle(ctx context.Context, b []byte) error {
	var t models.TradeHistory
	if err := json.Unmarshal(b, &t); err != nil {
		h.metrics.RecordError("ingest_decode")
		return fmt.Errorf("%w: decode trade: %v", pkgkafka.ErrPoison, err)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	err := h.log.Record(ctx, &t)
	if errors.Is(err, models.ErrInvalidArgument) {
		return fmt.Errorf("%w: %w", pkgkafka.ErrPoison, err)
	}
	if err != nil {
		return err
	}

	h.metrics.RecordLatency("trade_ingest_lag", time.Since(t.ExecutedAt).Seconds())
	h.l.Debug("trade ingested",
		applogger.String("trade_id", t.ID.String()),
		applogger.String("trace_id", pkgkafka.TraceID(ctx)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*TradeIngestHandler)(nil)
