package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	applogger "TradeForge/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger adjustment operations applied after funding.
const (
	AdjustCredit = "credit"
	AdjustDebit  = "debit"
)

// AgentPlan describes one agent to onboard.
type AgentPlan struct {
	Name           string
	Suffix         string
	InitialBalance decimal.Decimal
	Stocks         []StockPlan
	Adjustments    []LedgerAdjustment
}

type StockPlan struct {
	Symbol   string
	Quantity int64
}

type LedgerAdjustment struct {
	Op     string // credit or debit
	Amount decimal.Decimal
}

// AgentOutcome reports how far one plan got.
type AgentOutcome struct {
	Name     string
	AgentID  uuid.UUID
	State    models.AgentState
	Balance  decimal.Decimal
	Declined int
	Err      error
}

// BatchResult summarizes a pipeline run.
type BatchResult struct {
	SectorsAdded int
	Agents       []AgentOutcome
	Started      time.Time
	Finished     time.Time
}

// Failed counts plans that stopped before completing.
func (r *BatchResult) Failed() int {
	n := 0
	for _, a := range r.Agents {
		if a.Err != nil {
			n++
		}
	}
	return n
}

// Pipeline runs the onboarding flow: seed sectors once, then for each
// plan identity, funding, stock records and adjustments. A failing step
// stops that plan only; an unavailable collaborator stops the batch.
type Pipeline struct {
	registry  *SectorRegistry
	assembler *Assembler
	store     drepo.Store
	locker    drepo.Locker
	lockKey   string
	lockTTL   time.Duration
	l         *applogger.Logger
}

// NewPipeline creates the onboarding pipeline. locker may be nil when a
// single process owns the store.
func NewPipeline(
	registry *SectorRegistry,
	assembler *Assembler,
	store drepo.Store,
	locker drepo.Locker,
	lockKey string,
	lockTTL time.Duration,
	l *applogger.Logger,
) *Pipeline {
	return &Pipeline{
		registry:  registry,
		assembler: assembler,
		store:     store,
		locker:    locker,
		lockKey:   lockKey,
		lockTTL:   lockTTL,
		l:         l,
	}
}

// Reset wipes the store and the assembler's cached entities.
func (p *Pipeline) Reset(ctx context.Context) error {
	if err := p.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	p.assembler.Forget()
	return nil
}

// Run executes plans in order under the writer lock.
func (p *Pipeline) Run(ctx context.Context, plans []AgentPlan) (*BatchResult, error) {
	release, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	res := &BatchResult{Started: time.Now().UTC()}
	added, err := p.registry.Bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed sectors: %w", err)
	}
	res.SectorsAdded = added

	for i, plan := range plans {
		if err := ctx.Err(); err != nil {
			return res, models.SourceUnavailable("onboarding.run", err)
		}
		out := p.onboard(ctx, plan)
		res.Agents = append(res.Agents, out)
		if out.Err == nil {
			continue
		}
		if errors.Is(out.Err, models.ErrSourceUnavailable) {
			p.l.Error("onboarding batch aborted",
				applogger.Int("plan", i),
				applogger.String("agent", plan.Name),
				applogger.Error(out.Err),
			)
			res.Finished = time.Now().UTC()
			return res, fmt.Errorf("onboard %q: %w", plan.Name, out.Err)
		}
		p.l.Warn("agent onboarding stopped",
			applogger.String("agent", plan.Name),
			applogger.String("state", string(out.State)),
			applogger.Error(out.Err),
		)
	}

	res.Finished = time.Now().UTC()
	p.l.Info("onboarding batch finished",
		applogger.Int("agents", len(res.Agents)),
		applogger.Int("failed", res.Failed()),
		applogger.Int("sectors_added", res.SectorsAdded),
		applogger.Duration("took_ms", res.Finished.Sub(res.Started)),
	)
	return res, nil
}

func (p *Pipeline) onboard(ctx context.Context, plan AgentPlan) AgentOutcome {
	out := AgentOutcome{Name: plan.Name}

	agent, err := p.assembler.BuildIdentity(ctx, plan.Name, plan.Suffix)
	if err != nil {
		out.Err = err
		return out
	}
	out.AgentID = agent.ID()
	out.State = agent.State()

	ledger, err := p.assembler.FundAgent(ctx, agent.ID(), plan.InitialBalance)
	if err != nil {
		out.Err = err
		return out
	}
	out.State = agent.State()
	out.Balance = ledger.Balance()

	for _, s := range plan.Stocks {
		if _, err := p.assembler.StockAgent(ctx, agent.ID(), s.Symbol, s.Quantity); err != nil {
			out.Err = err
			out.State = agent.State()
			return out
		}
	}
	out.State = agent.State()

	for _, adj := range plan.Adjustments {
		var (
			ok  = true
			bal decimal.Decimal
		)
		switch adj.Op {
		case AdjustCredit:
			bal, err = p.assembler.Credit(ctx, agent.ID(), adj.Amount)
		case AdjustDebit:
			ok, bal, err = p.assembler.Debit(ctx, agent.ID(), adj.Amount)
		default:
			err = models.InvalidArgument("onboarding.adjust", "unknown adjustment %q", adj.Op)
		}
		if err != nil {
			out.Err = err
			return out
		}
		if !ok {
			out.Declined++
		}
		out.Balance = bal
	}
	return out
}

func (p *Pipeline) acquire(ctx context.Context) (func(), error) {
	if p.locker == nil {
		return func() {}, nil
	}
	ok, err := p.locker.TryLock(ctx, p.lockKey, p.lockTTL)
	if err != nil {
		return nil, models.SourceUnavailable("onboarding.lock", err)
	}
	if !ok {
		return nil, models.PreconditionFailed("onboarding.lock", "another onboarding batch holds %s", p.lockKey)
	}
	return func() {
		// the caller's context may already be done
		uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.locker.Unlock(uctx, p.lockKey); err != nil {
			p.l.Warn("release onboarding lock failed",
				applogger.String("key", p.lockKey),
				applogger.Error(err),
			)
		}
	}, nil
}
