package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	pkgcache "TradeForge/pkg/cache"
	applogger "TradeForge/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const reportNamespace = "report"

type SectorView struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	ValuationGrade float64 `json:"valuation_grade"`
}

type StockView struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

// AgentView joins an agent with its sector, ledger and stock records.
type AgentView struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Suffix    string           `json:"suffix"`
	CreatedAt time.Time        `json:"created_at"`
	SectorID  string           `json:"sector_id"`
	Sector    string           `json:"sector"`
	State     string           `json:"state"`
	Balance   *decimal.Decimal `json:"balance,omitempty"`
	Stocks    []StockView      `json:"stocks"`
}

// MarketReport builds read models over the store. Results are cached
// when a cache is configured; Invalidate drops them after writes.
type MarketReport struct {
	store drepo.Store
	cache drepo.ReportCache
	ttl   time.Duration
	l     *applogger.Logger
}

// NewMarketReport creates the report. cache may be nil.
func NewMarketReport(store drepo.Store, cache drepo.ReportCache, ttl time.Duration, l *applogger.Logger) *MarketReport {
	return &MarketReport{store: store, cache: cache, ttl: ttl, l: l}
}

// Sectors lists every registered sector.
func (r *MarketReport) Sectors(ctx context.Context) ([]SectorView, error) {
	var out []SectorView
	if r.cached(ctx, "sectors", &out) {
		return out, nil
	}
	sectors, err := r.store.QueryAllSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	out = make([]SectorView, 0, len(sectors))
	for _, s := range sectors {
		out = append(out, sectorView(s))
	}
	r.remember(ctx, "sectors", out)
	return out, nil
}

// Agents lists agents in creation order, optionally filtered by sector.
func (r *MarketReport) Agents(ctx context.Context, sectorID uuid.UUID, limit int) ([]AgentView, error) {
	key := pkgcache.Key("agents", sectorID, limit)
	var out []AgentView
	if r.cached(ctx, key, &out) {
		return out, nil
	}

	agents, err := r.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	sectors, err := r.sectorIndex(ctx)
	if err != nil {
		return nil, err
	}
	out = make([]AgentView, 0, len(agents))
	for _, a := range agents {
		if sectorID != uuid.Nil && a.SectorID() != sectorID {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		v, err := r.agentView(ctx, a, sectors)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	r.remember(ctx, key, out)
	return out, nil
}

// Agent returns one agent; ErrNotFound when it does not exist.
func (r *MarketReport) Agent(ctx context.Context, id uuid.UUID) (*AgentView, error) {
	a, err := r.store.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	sectors, err := r.sectorIndex(ctx)
	if err != nil {
		return nil, err
	}
	return r.agentView(ctx, a, sectors)
}

// Lines renders the relational check: one "agent | sector | balance" row
// per agent, read back from the store.
func (r *MarketReport) Lines(ctx context.Context) ([]string, error) {
	views, err := r.Agents(ctx, uuid.Nil, 0)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(views)+1)
	lines = append(lines, fmt.Sprintf("%-24s | %-20s | %s", "AGENT", "SECTOR", "BALANCE"))
	for _, v := range views {
		bal := "-"
		if v.Balance != nil {
			bal = v.Balance.StringFixed(2)
		}
		lines = append(lines, fmt.Sprintf("%-24s | %-20s | %s", v.Name+" "+v.Suffix, v.Sector, bal))
	}
	return lines, nil
}

// Invalidate drops cached read models.
func (r *MarketReport) Invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeleteByPattern(ctx, pkgcache.Namespace(reportNamespace)); err != nil {
		r.l.Warn("report cache invalidation failed", applogger.Error(err))
	}
}

func (r *MarketReport) sectorIndex(ctx context.Context) (map[uuid.UUID]*models.Sector, error) {
	sectors, err := r.store.QueryAllSectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sectors: %w", err)
	}
	idx := make(map[uuid.UUID]*models.Sector, len(sectors))
	for _, s := range sectors {
		idx[s.ID()] = s
	}
	return idx, nil
}

func (r *MarketReport) agentView(ctx context.Context, a *models.Agent, sectors map[uuid.UUID]*models.Sector) (*AgentView, error) {
	v := &AgentView{
		ID:        a.ID().String(),
		Name:      a.Name(),
		Suffix:    a.Suffix(),
		CreatedAt: a.CreatedAt(),
		SectorID:  a.SectorID().String(),
		State:     string(a.State()),
		Stocks:    []StockView{},
	}
	if s, ok := sectors[a.SectorID()]; ok {
		v.Sector = s.Name()
	}
	if a.HasLedger() {
		l, err := r.store.GetLedger(ctx, a.ID())
		if err != nil {
			return nil, fmt.Errorf("ledger for %s: %w", a.ID(), err)
		}
		bal := l.Balance()
		v.Balance = &bal
	}
	recs, err := r.store.ListStockRecords(ctx, a.ID())
	if err != nil {
		return nil, fmt.Errorf("stock records for %s: %w", a.ID(), err)
	}
	for _, rec := range recs {
		v.Stocks = append(v.Stocks, StockView{ID: rec.ID().String(), Symbol: rec.Symbol(), Quantity: rec.Quantity()})
	}
	return v, nil
}

func sectorView(s *models.Sector) SectorView {
	return SectorView{
		ID:             s.ID().String(),
		Name:           s.Name(),
		Category:       s.Category(),
		ValuationGrade: s.ValuationGrade(),
	}
}

func (r *MarketReport) cached(ctx context.Context, key string, dest interface{}) bool {
	if r.cache == nil {
		return false
	}
	return r.cache.Get(ctx, pkgcache.Key(reportNamespace, key), dest) == nil
}

func (r *MarketReport) remember(ctx context.Context, key string, value interface{}) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, pkgcache.Key(reportNamespace, key), value, r.ttl); err != nil {
		r.l.Debug("report cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}
