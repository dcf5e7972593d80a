package repository

import (
	"context"
	"time"

	"TradeForge/internal/domain/models"

	"github.com/google/uuid"
)

// Store is the persistence collaborator. Writes go through a UnitOfWork;
// nothing staged in a unit is visible until Commit succeeds.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	QueryAllSectors(ctx context.Context) ([]*models.Sector, error)
	GetSector(ctx context.Context, id uuid.UUID) (*models.Sector, error)
	GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error)
	ListAgents(ctx context.Context) ([]*models.Agent, error)
	GetLedger(ctx context.Context, ownerID uuid.UUID) (*models.Ledger, error)
	GetStockRecord(ctx context.Context, id uuid.UUID) (*models.StockRecord, error)
	ListStockRecords(ctx context.Context, ownerID uuid.UUID) ([]*models.StockRecord, error)
	Reset(ctx context.Context) error // wipe all market data
	Health(ctx context.Context) error
	Close() error
}

// UnitOfWork stages writes and applies them all-or-nothing on Commit.
// Entities are snapshotted when staged.
type UnitOfWork interface {
	AddSector(s *models.Sector)
	AddAgent(a *models.Agent)
	AddLedger(l *models.Ledger)
	AddStockRecord(r *models.StockRecord)
	UpdateLedger(l *models.Ledger)
	UpdateStockRecord(r *models.StockRecord)
	Commit(ctx context.Context) error
	Rollback()
}

// SectorSource supplies sector descriptors from a declarative resource.
type SectorSource interface {
	LoadSectorDescriptors(ctx context.Context) ([]models.SectorDescriptor, error)
}

// EventPublisher announces committed market changes.
type EventPublisher interface {
	Publish(ctx context.Context, e models.MarketEvent) error
	Close() error
}

// TradeJournal is the append-only trade history log.
type TradeJournal interface {
	Record(ctx context.Context, t *models.TradeHistory) error
	RecordBatch(ctx context.Context, trades []*models.TradeHistory) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeHistory, error)
	Health(ctx context.Context) error
	Close() error
}

// Locker serializes batch writers.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type Metrics interface {
	RecordStep(step, result string)
	RecordDecline(kind string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSectors(n int)
}

// ReportCache holds rendered read models. A miss or failure falls back
// to the store.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}
