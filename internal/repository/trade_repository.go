package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"
	pkgch "TradeForge/pkg/clickhouse"
	applogger "TradeForge/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeSchema returns the DDL for the trade history table.
func TradeSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    id UUID,
    buyer_id UUID,
    seller_id UUID,
    asset_symbol LowCardinality(String),
    price Decimal(38, 8),
    quantity Int64,
    executed_at DateTime64(3, 'UTC')
) ENGINE = ReplacingMergeTree
ORDER BY (asset_symbol, executed_at, id)`, database, table),
	}
}

// ClickHouseJournal implements TradeJournal on a ClickHouse table.
type ClickHouseJournal struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewClickHouseJournal creates the trade journal. table is fully qualified.
func NewClickHouseJournal(ch *pkgch.Client, table string, l *applogger.Logger) *ClickHouseJournal {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseJournal{db: ch.DB(), table: table, l: l}
}

var _ repository.TradeJournal = (*ClickHouseJournal)(nil)

func (j *ClickHouseJournal) Record(ctx context.Context, t *models.TradeHistory) error {
	return j.RecordBatch(ctx, []*models.TradeHistory{t})
}

func (j *ClickHouseJournal) RecordBatch(ctx context.Context, trades []*models.TradeHistory) error {
	if len(trades) == 0 {
		return nil
	}
	// Multi-row VALUES, chunked to bound statement size.
	const chunkSize = 2000
	for start := 0; start < len(trades); start += chunkSize {
		end := start + chunkSize
		if end > len(trades) {
			end = len(trades)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, t := range trades[start:end] {
			if t == nil {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				t.ID.String(),
				t.BuyerID.String(),
				t.SellerID.String(),
				t.AssetSymbol,
				t.Price.String(),
				t.Quantity,
				t.ExecutedAt.UTC(),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (id, buyer_id, seller_id, asset_symbol, price, quantity, executed_at) VALUES %s",
			j.table, strings.Join(values, ","))
		if _, err := j.db.ExecContext(ctx, q, args...); err != nil {
			j.l.Error("clickhouse record_trades error",
				applogger.String("table", j.table),
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
			return models.SourceUnavailable("journal.record", err)
		}
	}
	return nil
}

func (j *ClickHouseJournal) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeHistory, error) {
	q := fmt.Sprintf(`SELECT toString(id), toString(buyer_id), toString(seller_id), asset_symbol, toString(price), quantity, executed_at
        FROM %s
        WHERE asset_symbol = ? AND executed_at >= ? AND executed_at <= ?
        ORDER BY executed_at DESC
        LIMIT ?`, j.table)
	rows, err := j.db.QueryContext(ctx, q, symbol, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, models.SourceUnavailable("journal.query", err)
	}
	defer rows.Close()

	var out []*models.TradeHistory
	for rows.Next() {
		var (
			t                    models.TradeHistory
			id, buyer, seller, p string
		)
		if err := rows.Scan(&id, &buyer, &seller, &t.AssetSymbol, &p, &t.Quantity, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if t.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse trade id: %w", err)
		}
		if t.BuyerID, err = uuid.Parse(buyer); err != nil {
			return nil, fmt.Errorf("parse buyer id: %w", err)
		}
		if t.SellerID, err = uuid.Parse(seller); err != nil {
			return nil, fmt.Errorf("parse seller id: %w", err)
		}
		if t.Price, err = decimal.NewFromString(p); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, models.SourceUnavailable("journal.query", err)
	}
	return out, nil
}

func (j *ClickHouseJournal) Health(ctx context.Context) error {
	if err := j.db.PingContext(ctx); err != nil {
		return models.SourceUnavailable("journal.health", err)
	}
	return nil
}

func (j *ClickHouseJournal) Close() error {
	return nil // Managed by pkg
}

// MemoryJournal keeps trades in process. Used when ClickHouse is disabled.
type MemoryJournal struct {
	mu     sync.RWMutex
	trades []models.TradeHistory
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

var _ repository.TradeJournal = (*MemoryJournal)(nil)

func (j *MemoryJournal) Record(ctx context.Context, t *models.TradeHistory) error {
	return j.RecordBatch(ctx, []*models.TradeHistory{t})
}

func (j *MemoryJournal) RecordBatch(ctx context.Context, trades []*models.TradeHistory) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, t := range trades {
		if t != nil {
			j.trades = append(j.trades, *t)
		}
	}
	return nil
}

// Query returns matching trades newest first.
func (j *MemoryJournal) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeHistory, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []*models.TradeHistory
	for i := range j.trades {
		t := j.trades[i]
		if t.AssetSymbol != symbol || t.ExecutedAt.Before(from) || t.ExecutedAt.After(to) {
			continue
		}
		out = append(out, &t)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].ExecutedAt.After(out[b].ExecutedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (j *MemoryJournal) Health(ctx context.Context) error { return nil }

func (j *MemoryJournal) Close() error { return nil }
