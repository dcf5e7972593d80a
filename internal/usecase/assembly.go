package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	applogger "TradeForge/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Assembler builds agents step by step: identity, ledger, stock records.
// Every step commits on its own; in-process entities are kept in an
// arena keyed by id and only updated after a successful commit.
type Assembler struct {
	store   drepo.Store
	metrics drepo.Metrics
	l       *applogger.Logger
	events  notifier

	rngMu sync.Mutex
	rng   *rand.Rand

	// writes are serialized so the arena and the store move together
	writeMu sync.Mutex

	arenaMu sync.RWMutex
	agents  map[uuid.UUID]*models.Agent
	ledgers map[uuid.UUID]*models.Ledger
	stocks  map[uuid.UUID]*models.StockRecord
}

// NewAssembler creates an assembler drawing sectors with rng.
func NewAssembler(
	store drepo.Store,
	pub drepo.EventPublisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
	rng *rand.Rand,
) *Assembler {
	return &Assembler{
		store:   store,
		metrics: metrics,
		l:       l,
		events:  notifier{pub: pub, metrics: metrics, l: l},
		rng:     rng,
		agents:  make(map[uuid.UUID]*models.Agent),
		ledgers: make(map[uuid.UUID]*models.Ledger),
		stocks:  make(map[uuid.UUID]*models.StockRecord),
	}
}

// SelectSector draws uniformly from the current registry snapshot.
func (a *Assembler) SelectSector(ctx context.Context) (*models.Sector, error) {
	sectors, err := a.store.QueryAllSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("select sector: %w", err)
	}
	if len(sectors) == 0 {
		return nil, models.PreconditionFailed("assembly.select_sector", "no sector available")
	}
	return sectors[a.intn(len(sectors))], nil
}

func (a *Assembler) intn(n int) int {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Intn(n)
}

// BuildIdentity creates and persists an agent bound to a random sector.
func (a *Assembler) BuildIdentity(ctx context.Context, name, suffix string) (*models.Agent, error) {
	start := time.Now()
	agent, sector, err := a.buildIdentity(ctx, name, suffix)
	a.observe("build_identity", start, err)
	if err != nil {
		return nil, err
	}

	a.l.Info("agent identified",
		applogger.String("agent_id", agent.ID().String()),
		applogger.String("name", agent.Name()),
		applogger.String("sector", sector.Name()),
	)
	a.events.notify(ctx, models.EventAgentIdentified, agent.ID().String(), map[string]interface{}{
		"name":      agent.Name(),
		"suffix":    agent.Suffix(),
		"sector_id": sector.ID().String(),
		"sector":    sector.Name(),
	})
	return agent, nil
}

func (a *Assembler) buildIdentity(ctx context.Context, name, suffix string) (*models.Agent, *models.Sector, error) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	sector, err := a.SelectSector(ctx)
	if err != nil {
		return nil, nil, err
	}
	agent, err := models.NewAgent(name, suffix, sector)
	if err != nil {
		return nil, nil, err
	}
	uow, err := a.store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("build identity: %w", err)
	}
	uow.AddAgent(agent)
	if err := uow.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("build identity: %w", err)
	}

	a.arenaMu.Lock()
	a.agents[agent.ID()] = agent
	a.arenaMu.Unlock()
	return agent, sector, nil
}

// FundAgent creates the agent's ledger with initial and attaches it.
func (a *Assembler) FundAgent(ctx context.Context, agentID uuid.UUID, initial decimal.Decimal) (*models.Ledger, error) {
	start := time.Now()
	ledger, err := a.fundAgent(ctx, agentID, initial)
	a.observe("fund_agent", start, err)
	if err != nil {
		return nil, err
	}

	a.l.Info("agent funded",
		applogger.String("agent_id", agentID.String()),
		applogger.Decimal("balance", ledger.Balance()),
	)
	a.events.notify(ctx, models.EventAgentFunded, agentID.String(), map[string]interface{}{
		"balance": ledger.Balance().String(),
	})
	return ledger, nil
}

func (a *Assembler) fundAgent(ctx context.Context, agentID uuid.UUID, initial decimal.Decimal) (*models.Ledger, error) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	agent, err := a.Agent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.HasLedger() {
		return nil, models.PreconditionFailed("assembly.fund_agent", "agent %s already has a ledger", agentID)
	}
	ledger, err := models.NewLedger(agentID, initial)
	if err != nil {
		return nil, err
	}
	uow, err := a.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("fund agent: %w", err)
	}
	uow.AddLedger(ledger)
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("fund agent: %w", err)
	}
	if err := agent.AttachLedger(ledger); err != nil {
		return nil, err
	}

	a.arenaMu.Lock()
	a.ledgers[agentID] = ledger
	a.arenaMu.Unlock()
	return ledger, nil
}

// StockAgent creates a stock record for a funded agent.
func (a *Assembler) StockAgent(ctx context.Context, agentID uuid.UUID, symbol string, quantity int64) (*models.StockRecord, error) {
	start := time.Now()
	rec, err := a.stockAgent(ctx, agentID, symbol, quantity)
	a.observe("stock_agent", start, err)
	if err != nil {
		return nil, err
	}

	a.l.Debug("agent stocked",
		applogger.String("agent_id", agentID.String()),
		applogger.String("symbol", rec.Symbol()),
		applogger.Int64("quantity", rec.Quantity()),
	)
	a.events.notify(ctx, models.EventAgentStocked, agentID.String(), map[string]interface{}{
		"stock_record_id": rec.ID().String(),
		"symbol":          rec.Symbol(),
		"quantity":        rec.Quantity(),
	})
	return rec, nil
}

func (a *Assembler) stockAgent(ctx context.Context, agentID uuid.UUID, symbol string, quantity int64) (*models.StockRecord, error) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	agent, err := a.Agent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.HasLedger() {
		return nil, models.PreconditionFailed("assembly.stock_agent", "agent %s is not funded", agentID)
	}
	rec, err := models.NewStockRecord(agentID, symbol, quantity)
	if err != nil {
		return nil, err
	}
	uow, err := a.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock agent: %w", err)
	}
	uow.AddStockRecord(rec)
	if err := uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("stock agent: %w", err)
	}
	if _, err := agent.AddStockRecord(rec); err != nil {
		return nil, err
	}

	a.arenaMu.Lock()
	a.stocks[rec.ID()] = rec
	a.arenaMu.Unlock()
	return rec, nil
}

// Credit adds amount to the agent's ledger and persists the new balance.
func (a *Assembler) Credit(ctx context.Context, agentID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	bal, _, err := a.adjustLedger(ctx, agentID, "credit", amount, func(l *models.Ledger) (bool, error) {
		return true, l.Credit(amount)
	})
	return bal, err
}

// Debit withdraws amount. A debit larger than the balance is declined:
// it returns false, nil and nothing is persisted.
func (a *Assembler) Debit(ctx context.Context, agentID uuid.UUID, amount decimal.Decimal) (bool, decimal.Decimal, error) {
	bal, ok, err := a.adjustLedger(ctx, agentID, "debit", amount, func(l *models.Ledger) (bool, error) {
		return l.Debit(amount)
	})
	return ok, bal, err
}

// adjustLedger applies fn to a copy of the ledger and commits the copy.
// Only then is the committed balance synced into the arena ledger, so
// handles returned earlier by FundAgent or Ledger stay current.
func (a *Assembler) adjustLedger(
	ctx context.Context,
	agentID uuid.UUID,
	op string,
	amount decimal.Decimal,
	fn func(*models.Ledger) (bool, error),
) (decimal.Decimal, bool, error) {
	start := time.Now()
	bal, applied, err := func() (decimal.Decimal, bool, error) {
		a.writeMu.Lock()
		defer a.writeMu.Unlock()

		current, err := a.Ledger(ctx, agentID)
		if err != nil {
			return decimal.Zero, false, err
		}
		next, err := models.NewLedger(agentID, current.Balance())
		if err != nil {
			return decimal.Zero, false, err
		}
		applied, err := fn(next)
		if err != nil {
			return current.Balance(), false, err
		}
		if !applied {
			return current.Balance(), false, nil
		}
		uow, err := a.store.Begin(ctx)
		if err != nil {
			return current.Balance(), false, fmt.Errorf("%s ledger: %w", op, err)
		}
		uow.UpdateLedger(next)
		if err := uow.Commit(ctx); err != nil {
			return current.Balance(), false, fmt.Errorf("%s ledger: %w", op, err)
		}
		if err := current.SyncBalance(next.Balance()); err != nil {
			return current.Balance(), false, err
		}
		return next.Balance(), true, nil
	}()
	a.observe(op, start, err)
	if err != nil {
		return bal, false, err
	}

	if !applied {
		a.metrics.RecordDecline(op)
		a.l.Warn("ledger adjustment declined",
			applogger.String("agent_id", agentID.String()),
			applogger.String("op", op),
			applogger.Decimal("amount", amount),
			applogger.Decimal("balance", bal),
		)
		return bal, false, nil
	}
	a.events.notify(ctx, models.EventLedgerAdjusted, agentID.String(), map[string]interface{}{
		"op":      op,
		"amount":  amount.String(),
		"balance": bal.String(),
	})
	return bal, true, nil
}

// AddStock increases the quantity of a stock record and persists it.
func (a *Assembler) AddStock(ctx context.Context, recordID uuid.UUID, amount int64) (int64, error) {
	qty, _, err := a.adjustStock(ctx, recordID, "add_stock", func(r *models.StockRecord) (bool, error) {
		return true, r.AddStock(amount)
	})
	return qty, err
}

// RemoveStock decreases a stock record's quantity. Removing more than is
// held is declined and nothing is persisted.
func (a *Assembler) RemoveStock(ctx context.Context, recordID uuid.UUID, amount int64) (bool, int64, error) {
	qty, ok, err := a.adjustStock(ctx, recordID, "remove_stock", func(r *models.StockRecord) (bool, error) {
		return r.RemoveStock(amount)
	})
	return ok, qty, err
}

func (a *Assembler) adjustStock(
	ctx context.Context,
	recordID uuid.UUID,
	op string,
	fn func(*models.StockRecord) (bool, error),
) (int64, bool, error) {
	start := time.Now()
	qty, applied, err := func() (int64, bool, error) {
		a.writeMu.Lock()
		defer a.writeMu.Unlock()

		current, err := a.StockRecord(ctx, recordID)
		if err != nil {
			return 0, false, err
		}
		next, err := models.RestoreStockRecord(current.ID(), current.OwnerID(), current.Symbol(), current.Quantity())
		if err != nil {
			return 0, false, err
		}
		applied, err := fn(next)
		if err != nil || !applied {
			return current.Quantity(), false, err
		}
		uow, err := a.store.Begin(ctx)
		if err != nil {
			return current.Quantity(), false, fmt.Errorf("%s: %w", op, err)
		}
		uow.UpdateStockRecord(next)
		if err := uow.Commit(ctx); err != nil {
			return current.Quantity(), false, fmt.Errorf("%s: %w", op, err)
		}
		if err := current.SyncQuantity(next.Quantity()); err != nil {
			return current.Quantity(), false, err
		}
		return next.Quantity(), true, nil
	}()
	a.observe(op, start, err)
	if err == nil && !applied {
		a.metrics.RecordDecline(op)
	}
	return qty, applied, err
}

// Agent returns the agent from the arena, loading it from the store if
// this process has not seen it yet.
func (a *Assembler) Agent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	a.arenaMu.RLock()
	agent, ok := a.agents[id]
	a.arenaMu.RUnlock()
	if ok {
		return agent, nil
	}
	agent, err := a.store.GetAgent(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.PreconditionFailed("assembly.agent", "agent %s does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	a.arenaMu.Lock()
	a.agents[id] = agent
	a.arenaMu.Unlock()
	return agent, nil
}

// Ledger returns the agent's ledger from the arena or the store.
func (a *Assembler) Ledger(ctx context.Context, agentID uuid.UUID) (*models.Ledger, error) {
	a.arenaMu.RLock()
	l, ok := a.ledgers[agentID]
	a.arenaMu.RUnlock()
	if ok {
		return l, nil
	}
	l, err := a.store.GetLedger(ctx, agentID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.PreconditionFailed("assembly.ledger", "agent %s is not funded", agentID)
	}
	if err != nil {
		return nil, err
	}
	a.arenaMu.Lock()
	a.ledgers[agentID] = l
	a.arenaMu.Unlock()
	return l, nil
}

// StockRecord returns a stock record from the arena or the store.
func (a *Assembler) StockRecord(ctx context.Context, id uuid.UUID) (*models.StockRecord, error) {
	a.arenaMu.RLock()
	r, ok := a.stocks[id]
	a.arenaMu.RUnlock()
	if ok {
		return r, nil
	}
	r, err := a.store.GetStockRecord(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.PreconditionFailed("assembly.stock_record", "stock record %s does not exist", id)
	}
	if err != nil {
		return nil, err
	}
	a.arenaMu.Lock()
	a.stocks[id] = r
	a.arenaMu.Unlock()
	return r, nil
}

// Forget drops every cached entity, e.g. after a store reset.
func (a *Assembler) Forget() {
	a.arenaMu.Lock()
	a.agents = make(map[uuid.UUID]*models.Agent)
	a.ledgers = make(map[uuid.UUID]*models.Ledger)
	a.stocks = make(map[uuid.UUID]*models.StockRecord)
	a.arenaMu.Unlock()
}

func (a *Assembler) observe(step string, start time.Time, err error) {
	a.metrics.RecordLatency(step, time.Since(start).Seconds())
	a.metrics.RecordStep(step, stepResult(err))
	if err != nil {
		a.metrics.RecordError(errorKind(err))
		a.l.Debug("assembly step failed", applogger.String("step", step), applogger.Error(err))
	}
}
