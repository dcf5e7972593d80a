package models

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AgentState is the onboarding stage an agent has reached.
type AgentState string

const (
	AgentIdentified AgentState = "identified"
	AgentFunded     AgentState = "funded"
	AgentStocked    AgentState = "stocked"
)

// Agent is a corporate market participant. It references its sector,
// ledger and stock records by id only.
type Agent struct {
	id        uuid.UUID
	name      string
	suffix    string
	createdAt time.Time
	sectorID  uuid.UUID

	mu       sync.RWMutex
	ledgerID uuid.UUID
	stockIDs []uuid.UUID
}

// NewAgent creates an agent bound to sector. A nil sector means no
// sector exists, which fails construction.
func NewAgent(name, suffix string, sector *Sector) (*Agent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, InvalidArgument("agent.create", "agent name cannot be empty")
	}
	if strings.TrimSpace(suffix) == "" {
		return nil, InvalidArgument("agent.create", "legal suffix must be specified")
	}
	if sector == nil || sector.ID() == uuid.Nil {
		return nil, PreconditionFailed("agent.create", "no sector available")
	}
	return &Agent{
		id:        uuid.New(),
		name:      name,
		suffix:    suffix,
		createdAt: time.Now().UTC(),
		sectorID:  sector.ID(),
	}, nil
}

// RestoreAgent rebuilds a persisted agent. funded marks an attached
// ledger; stockIDs keeps insertion order.
func RestoreAgent(id uuid.UUID, name, suffix string, createdAt time.Time, sectorID uuid.UUID, funded bool, stockIDs []uuid.UUID) (*Agent, error) {
	if id == uuid.Nil {
		return nil, InvalidArgument("agent.restore", "id cannot be nil")
	}
	if sectorID == uuid.Nil {
		return nil, PreconditionFailed("agent.restore", "agent %s has no sector", id)
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(suffix) == "" {
		return nil, InvalidArgument("agent.restore", "agent %s has empty name or suffix", id)
	}
	a := &Agent{id: id, name: name, suffix: suffix, createdAt: createdAt, sectorID: sectorID}
	if funded {
		a.ledgerID = id
	}
	for _, sid := range stockIDs {
		if !a.hasStock(sid) {
			a.stockIDs = append(a.stockIDs, sid)
		}
	}
	return a, nil
}

func (a *Agent) ID() uuid.UUID        { return a.id }
func (a *Agent) Name() string         { return a.name }
func (a *Agent) Suffix() string       { return a.suffix }
func (a *Agent) CreatedAt() time.Time { return a.createdAt }
func (a *Agent) SectorID() uuid.UUID  { return a.sectorID }

// LedgerID returns the attached ledger id, or uuid.Nil before funding.
func (a *Agent) LedgerID() uuid.UUID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ledgerID
}

// HasLedger reports whether a ledger is attached.
func (a *Agent) HasLedger() bool {
	return a.LedgerID() != uuid.Nil
}

// AttachLedger links the agent's ledger.
func (a *Agent) AttachLedger(l *Ledger) error {
	if l == nil {
		return InvalidArgument("agent.attach_ledger", "ledger is nil")
	}
	if l.OwnerID() != a.id {
		return InvalidArgument("agent.attach_ledger", "ledger owner %s does not match agent %s", l.OwnerID(), a.id)
	}
	a.mu.Lock()
	a.ledgerID = l.OwnerID()
	a.mu.Unlock()
	return nil
}

// AddStockRecord links a stock record. Adding the same record twice is a
// no-op; the return value reports whether it was newly added.
func (a *Agent) AddStockRecord(r *StockRecord) (bool, error) {
	if r == nil {
		return false, InvalidArgument("agent.add_stock", "stock record is nil")
	}
	if r.OwnerID() != a.id {
		return false, InvalidArgument("agent.add_stock", "stock owner %s does not match agent %s", r.OwnerID(), a.id)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hasStock(r.ID()) {
		return false, nil
	}
	a.stockIDs = append(a.stockIDs, r.ID())
	return true, nil
}

// StockRecordIDs returns the attached stock record ids in insertion order.
func (a *Agent) StockRecordIDs() []uuid.UUID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]uuid.UUID, len(a.stockIDs))
	copy(out, a.stockIDs)
	return out
}

// State reports the onboarding stage.
func (a *Agent) State() AgentState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	switch {
	case a.ledgerID == uuid.Nil:
		return AgentIdentified
	case len(a.stockIDs) == 0:
		return AgentFunded
	default:
		return AgentStocked
	}
}

// caller holds mu, or owns a not yet shared agent
func (a *Agent) hasStock(id uuid.UUID) bool {
	for _, s := range a.stockIDs {
		if s == id {
			return true
		}
	}
	return false
}
