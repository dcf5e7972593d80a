package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"

	"github.com/google/uuid"
)

// MemoryStore implements Store with in-process maps. Commits are applied
// to a copy of the state and swapped in, so a failed commit leaves
// nothing behind.
type MemoryStore struct {
	mu     sync.RWMutex
	state  *memState
	closed bool
}

type memState struct {
	sectors     map[uuid.UUID]sectorRow
	sectorOrder []uuid.UUID
	agents      map[uuid.UUID]agentRow
	agentOrder  []uuid.UUID
	ledgers     map[uuid.UUID]ledgerRow
	stocks      map[uuid.UUID]stockRow
	stockOrder  map[uuid.UUID][]uuid.UUID // owner -> insertion order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

var _ repository.Store = (*MemoryStore)(nil)

func newMemState() *memState {
	return &memState{
		sectors:    make(map[uuid.UUID]sectorRow),
		agents:     make(map[uuid.UUID]agentRow),
		ledgers:    make(map[uuid.UUID]ledgerRow),
		stocks:     make(map[uuid.UUID]stockRow),
		stockOrder: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *memState) clone() *memState {
	c := newMemState()
	for k, v := range m.sectors {
		c.sectors[k] = v
	}
	c.sectorOrder = append([]uuid.UUID(nil), m.sectorOrder...)
	for k, v := range m.agents {
		c.agents[k] = v
	}
	c.agentOrder = append([]uuid.UUID(nil), m.agentOrder...)
	for k, v := range m.ledgers {
		c.ledgers[k] = v
	}
	for k, v := range m.stocks {
		c.stocks[k] = v
	}
	for k, v := range m.stockOrder {
		c.stockOrder[k] = append([]uuid.UUID(nil), v...)
	}
	return c
}

func (m *memState) apply(op stagedOp) error {
	switch op.kind {
	case opAddSector:
		if _, ok := m.sectors[op.sector.ID]; ok {
			return models.PreconditionFailed("store.add_sector", "sector %s already exists", op.sector.ID)
		}
		for _, s := range m.sectors {
			if s.Name == op.sector.Name {
				return models.PreconditionFailed("store.add_sector", "sector name %q already exists", s.Name)
			}
		}
		m.sectors[op.sector.ID] = op.sector
		m.sectorOrder = append(m.sectorOrder, op.sector.ID)
	case opAddAgent:
		if _, ok := m.agents[op.agent.ID]; ok {
			return models.PreconditionFailed("store.add_agent", "agent %s already exists", op.agent.ID)
		}
		if _, ok := m.sectors[op.agent.SectorID]; !ok {
			return models.PreconditionFailed("store.add_agent", "sector %s does not exist", op.agent.SectorID)
		}
		m.agents[op.agent.ID] = op.agent
		m.agentOrder = append(m.agentOrder, op.agent.ID)
	case opAddLedger:
		if _, ok := m.agents[op.ledger.OwnerID]; !ok {
			return models.PreconditionFailed("store.add_ledger", "agent %s does not exist", op.ledger.OwnerID)
		}
		if _, ok := m.ledgers[op.ledger.OwnerID]; ok {
			return models.PreconditionFailed("store.add_ledger", "agent %s already has a ledger", op.ledger.OwnerID)
		}
		m.ledgers[op.ledger.OwnerID] = op.ledger
	case opUpdateLedger:
		if _, ok := m.ledgers[op.ledger.OwnerID]; !ok {
			return models.PreconditionFailed("store.update_ledger", "ledger %s does not exist", op.ledger.OwnerID)
		}
		m.ledgers[op.ledger.OwnerID] = op.ledger
	case opAddStock:
		if _, ok := m.agents[op.stock.OwnerID]; !ok {
			return models.PreconditionFailed("store.add_stock", "agent %s does not exist", op.stock.OwnerID)
		}
		if _, ok := m.stocks[op.stock.ID]; ok {
			return models.PreconditionFailed("store.add_stock", "stock record %s already exists", op.stock.ID)
		}
		m.stocks[op.stock.ID] = op.stock
		m.stockOrder[op.stock.OwnerID] = append(m.stockOrder[op.stock.OwnerID], op.stock.ID)
	case opUpdateStock:
		if _, ok := m.stocks[op.stock.ID]; !ok {
			return models.PreconditionFailed("store.update_stock", "stock record %s does not exist", op.stock.ID)
		}
		m.stocks[op.stock.ID] = op.stock
	default:
		return fmt.Errorf("unknown staged op %d", op.kind)
	}
	return nil
}

type memoryUnit struct {
	staging
	store *MemoryStore
}

func (s *MemoryStore) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	if err := s.Health(ctx); err != nil {
		return nil, err
	}
	return &memoryUnit{store: s}, nil
}

func (u *memoryUnit) Commit(ctx context.Context) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	u.done = true
	if err := ctx.Err(); err != nil {
		return models.SourceUnavailable("store.commit", err)
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.SourceUnavailable("store.commit", errStoreClosed)
	}
	next := s.state.clone()
	for _, op := range u.ops {
		if err := next.apply(op); err != nil {
			return err
		}
	}
	s.state = next
	return nil
}

var errStoreClosed = errors.New("store closed")

func (s *MemoryStore) read() (*memState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, models.SourceUnavailable("store.read", errStoreClosed)
	}
	// commits swap the pointer, so the current state is never mutated
	return s.state, nil
}

func (s *MemoryStore) QueryAllSectors(ctx context.Context) ([]*models.Sector, error) {
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Sector, 0, len(st.sectorOrder))
	for _, id := range st.sectorOrder {
		sec, err := st.sectors[id].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, nil
}

func (s *MemoryStore) GetSector(ctx context.Context, id uuid.UUID) (*models.Sector, error) {
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	row, ok := st.sectors[id]
	if !ok {
		return nil, models.NotFound("store.get_sector", "sector %s", id)
	}
	return row.toModel()
}

func (s *MemoryStore) GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	row, ok := st.agents[id]
	if !ok {
		return nil, models.NotFound("store.get_agent", "agent %s", id)
	}
	return st.agent(row)
}

func (s *MemoryStore) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]*models.Agent, 0, len(st.agentOrder))
	for _, id := range st.agentOrder {
		a, err := st.agent(st.agents[id])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memState) agent(row agentRow) (*models.Agent, error) {
	_, funded := m.ledgers[row.ID]
	return restoreAgent(row, funded, m.stockOrder[row.ID])
}

func (s *MemoryStore) GetLedger(ctx context.Context, ownerID uuid.UUID) (*models.Ledger, error) {
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	row, ok := st.ledgers[ownerID]
	if !ok {
		return nil, models.NotFound("store.get_ledger", "ledger %s", ownerID)
	}
	return row.toModel()
}

func (s *MemoryStore) GetStockRecord(ctx context.Context, id uuid.UUID) (*models.StockRecord, error) {
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	row, ok := st.stocks[id]
	if !ok {
		return nil, models.NotFound("store.get_stock", "stock record %s", id)
	}
	return row.toModel()
}

func (s *MemoryStore) ListStockRecords(ctx context.Context, ownerID uuid.UUID) ([]*models.StockRecord, error) {
	st, err := s.read()
	if err != nil {
		return nil, err
	}
	ids := st.stockOrder[ownerID]
	out := make([]*models.StockRecord, 0, len(ids))
	for _, id := range ids {
		r, err := st.stocks[id].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Counts returns the number of persisted sectors, agents, ledgers and stock records.
func (s *MemoryStore) Counts() (sectors, agents, ledgers, stocks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.sectors), len(s.state.agents), len(s.state.ledgers), len(s.state.stocks)
}

// SectorNames returns persisted sector names sorted.
func (s *MemoryStore) SectorNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.state.sectors))
	for _, r := range s.state.sectors {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.SourceUnavailable("store.reset", errStoreClosed)
	}
	s.state = newMemState()
	return nil
}

func (s *MemoryStore) Health(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return models.SourceUnavailable("store.health", errStoreClosed)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
