package models

import "time"

// Event types published after a committed pipeline step.
const (
	EventSectorsSeeded   = "sectors.seeded"
	EventAgentIdentified = "agent.identified"
	EventAgentFunded     = "agent.funded"
	EventAgentStocked    = "agent.stocked"
	EventLedgerAdjusted  = "ledger.adjusted"
)

// MarketEvent is a notification about committed market state.
// Note: Key is the agent id (or "sectors") so per-agent ordering holds.
type MarketEvent struct {
	Type       string                 `json:"type"`
	Key        string                 `json:"key"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
