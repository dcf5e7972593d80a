package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	applogger "TradeForge/pkg/logger"
)

const (
	defaultTradeLimit = 100
	maxTradeLimit     = 5000
)

// TradeLog appends executed trades to the journal and reads them back.
// It records history only; no matching or pricing happens here.
type TradeLog struct {
	journal drepo.TradeJournal
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewTradeLog(journal drepo.TradeJournal, metrics drepo.Metrics, l *applogger.Logger) *TradeLog {
	return &TradeLog{journal: journal, metrics: metrics, l: l}
}

// Record validates t and appends it.
func (uc *TradeLog) Record(ctx context.Context, t *models.TradeHistory) error {
	start := time.Now()
	if t == nil {
		return models.InvalidArgument("trades.record", "trade is nil")
	}
	if err := t.Validate(); err != nil {
		uc.metrics.RecordStep("record_trade", "failed")
		return err
	}
	if err := uc.journal.Record(ctx, t); err != nil {
		uc.metrics.RecordStep("record_trade", "failed")
		uc.metrics.RecordError(errorKind(err))
		return fmt.Errorf("record trade: %w", err)
	}
	uc.metrics.RecordStep("record_trade", "ok")
	uc.metrics.RecordLatency("record_trade", time.Since(start).Seconds())
	uc.l.Debug("trade recorded",
		applogger.String("trade_id", t.ID.String()),
		applogger.String("symbol", t.AssetSymbol),
		applogger.Decimal("price", t.Price),
		applogger.Int64("quantity", t.Quantity),
	)
	return nil
}

type TradeQuery struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

// Query returns trades for a symbol in [From, To], newest first.
func (uc *TradeLog) Query(ctx context.Context, q TradeQuery) ([]*models.TradeHistory, error) {
	if q.Symbol == "" {
		return nil, models.InvalidArgument("trades.query", "symbol required")
	}
	if q.From.After(q.To) {
		return nil, models.InvalidArgument("trades.query", "from must be <= to")
	}
	if q.Limit <= 0 {
		q.Limit = defaultTradeLimit
	}
	if q.Limit > maxTradeLimit {
		q.Limit = maxTradeLimit
	}
	trades, err := uc.journal.Query(ctx, q.Symbol, q.From, q.To, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	return trades, nil
}
