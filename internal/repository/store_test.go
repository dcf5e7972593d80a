package repository

import (
	"context"
	"testing"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	applogger "TradeForge/pkg/logger"
	pkgsqlite "TradeForge/pkg/sqlite"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeFactories() map[string]func(t *testing.T) drepo.Store {
	return map[string]func(t *testing.T) drepo.Store{
		"memory": func(t *testing.T) drepo.Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) drepo.Store {
			client, err := pkgsqlite.NewClient(pkgsqlite.WithPath(pkgsqlite.MemoryPath))
			require.NoError(t, err)
			t.Cleanup(func() { _ = client.Close() })
			s, err := NewSQLiteStore(context.Background(), client, applogger.Nop())
			require.NoError(t, err)
			return s
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, s drepo.Store)) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func commit(t *testing.T, s drepo.Store, stage func(u drepo.UnitOfWork)) error {
	t.Helper()
	u, err := s.Begin(context.Background())
	require.NoError(t, err)
	stage(u)
	return u.Commit(context.Background())
}

type seeded struct {
	sector *models.Sector
	agent  *models.Agent
	ledger *models.Ledger
	stock  *models.StockRecord
}

func seed(t *testing.T, s drepo.Store) seeded {
	t.Helper()
	sector, err := models.NewSector("Tech", "Technology", 1.5)
	require.NoError(t, err)
	agent, err := models.NewAgent("Acme", "Inc", sector)
	require.NoError(t, err)
	ledger, err := models.NewLedger(agent.ID(), decimal.RequireFromString("1000.25"))
	require.NoError(t, err)
	stock, err := models.NewStockRecord(agent.ID(), "GOLD", 12)
	require.NoError(t, err)

	require.NoError(t, commit(t, s, func(u drepo.UnitOfWork) {
		u.AddSector(sector)
		u.AddAgent(agent)
		u.AddLedger(ledger)
		u.AddStockRecord(stock)
	}))
	return seeded{sector: sector, agent: agent, ledger: ledger, stock: stock}
}

func TestStore_RoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		ctx := context.Background()
		want := seed(t, s)

		sectors, err := s.QueryAllSectors(ctx)
		require.NoError(t, err)
		require.Len(t, sectors, 1)
		assert.Equal(t, "Tech", sectors[0].Name())
		assert.Equal(t, 1.5, sectors[0].ValuationGrade())

		a, err := s.GetAgent(ctx, want.agent.ID())
		require.NoError(t, err)
		assert.Equal(t, "Acme", a.Name())
		assert.Equal(t, want.sector.ID(), a.SectorID())
		assert.True(t, a.CreatedAt().Equal(want.agent.CreatedAt()))
		assert.Equal(t, models.AgentStocked, a.State())
		assert.Equal(t, []uuid.UUID{want.stock.ID()}, a.StockRecordIDs())

		l, err := s.GetLedger(ctx, want.agent.ID())
		require.NoError(t, err)
		assert.Equal(t, "1000.25", l.Balance().String())

		recs, err := s.ListStockRecords(ctx, want.agent.ID())
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, int64(12), recs[0].Quantity())

		agents, err := s.ListAgents(ctx)
		require.NoError(t, err)
		assert.Len(t, agents, 1)
	})
}

func TestStore_Updates(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		ctx := context.Background()
		want := seed(t, s)

		require.NoError(t, want.ledger.Credit(decimal.NewFromInt(500)))
		require.NoError(t, want.stock.AddStock(8))
		require.NoError(t, commit(t, s, func(u drepo.UnitOfWork) {
			u.UpdateLedger(want.ledger)
			u.UpdateStockRecord(want.stock)
		}))

		l, err := s.GetLedger(ctx, want.agent.ID())
		require.NoError(t, err)
		assert.Equal(t, "1500.25", l.Balance().String())
		recs, err := s.ListStockRecords(ctx, want.agent.ID())
		require.NoError(t, err)
		assert.Equal(t, int64(20), recs[0].Quantity())
	})
}

func TestStore_FailedCommitLeavesNothing(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		ctx := context.Background()
		want := seed(t, s)

		other, err := models.NewAgent("Globex", "LLC", want.sector)
		require.NoError(t, err)
		orphan, err := models.NewLedger(uuid.New(), decimal.NewFromInt(1))
		require.NoError(t, err)

		err = commit(t, s, func(u drepo.UnitOfWork) {
			u.AddAgent(other)
			u.AddLedger(orphan) // owner does not exist
		})
		require.ErrorIs(t, err, models.ErrPreconditionFailed)

		_, err = s.GetAgent(ctx, other.ID())
		assert.ErrorIs(t, err, models.ErrNotFound)
		agents, err := s.ListAgents(ctx)
		require.NoError(t, err)
		assert.Len(t, agents, 1)
	})
}

func TestStore_UpdateMissingRow(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		ghost, err := models.NewLedger(uuid.New(), decimal.NewFromInt(1))
		require.NoError(t, err)
		err = commit(t, s, func(u drepo.UnitOfWork) { u.UpdateLedger(ghost) })
		assert.ErrorIs(t, err, models.ErrPreconditionFailed)
	})
}

func TestStore_DuplicateSectorName(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		seed(t, s)
		dup, err := models.NewSector("Tech", "Other", 1)
		require.NoError(t, err)
		err = commit(t, s, func(u drepo.UnitOfWork) { u.AddSector(dup) })
		assert.ErrorIs(t, err, models.ErrPreconditionFailed)
	})
}

func TestStore_RollbackAndReuse(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		ctx := context.Background()
		sector, err := models.NewSector("Energy", "Energy", 1)
		require.NoError(t, err)

		u, err := s.Begin(ctx)
		require.NoError(t, err)
		u.AddSector(sector)
		u.Rollback()
		assert.Error(t, u.Commit(ctx), "finished unit cannot commit")

		sectors, err := s.QueryAllSectors(ctx)
		require.NoError(t, err)
		assert.Empty(t, sectors)
	})
}

func TestStore_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		ctx := context.Background()
		_, err := s.GetAgent(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = s.GetSector(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = s.GetLedger(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = s.GetStockRecord(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestStore_GetStockRecord(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		ctx := context.Background()
		want := seed(t, s)
		require.NoError(t, want.stock.AddStock(3))
		require.NoError(t, commit(t, s, func(u drepo.UnitOfWork) { u.UpdateStockRecord(want.stock) }))

		got, err := s.GetStockRecord(ctx, want.stock.ID())
		require.NoError(t, err)
		assert.Equal(t, want.stock.ID(), got.ID())
		assert.Equal(t, want.agent.ID(), got.OwnerID())
		assert.Equal(t, "GOLD", got.Symbol())
		assert.Equal(t, int64(15), got.Quantity())
	})
}

func TestStore_Reset(t *testing.T) {
	forEachStore(t, func(t *testing.T, s drepo.Store) {
		ctx := context.Background()
		seed(t, s)
		require.NoError(t, s.Reset(ctx))

		sectors, err := s.QueryAllSectors(ctx)
		require.NoError(t, err)
		assert.Empty(t, sectors)
		agents, err := s.ListAgents(ctx)
		require.NoError(t, err)
		assert.Empty(t, agents)

		seed(t, s)
	})
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())

	_, err := s.Begin(context.Background())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
	assert.ErrorIs(t, s.Health(context.Background()), models.ErrSourceUnavailable)
}
