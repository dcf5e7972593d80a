package models

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StockRecord is the quantity of one asset symbol held by one agent.
type StockRecord struct {
	mu       sync.Mutex
	id       uuid.UUID
	ownerID  uuid.UUID
	symbol   string
	quantity int64
}

// NewStockRecord creates a stock record with a fresh id.
func NewStockRecord(ownerID uuid.UUID, symbol string, quantity int64) (*StockRecord, error) {
	if ownerID == uuid.Nil {
		return nil, InvalidArgument("stock.create", "stock record must belong to an agent")
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, InvalidArgument("stock.create", "asset symbol is required")
	}
	if quantity < 0 {
		return nil, InvalidArgument("stock.create", "initial quantity cannot be negative: %d", quantity)
	}
	return &StockRecord{id: uuid.New(), ownerID: ownerID, symbol: symbol, quantity: quantity}, nil
}

// RestoreStockRecord rebuilds a persisted stock record.
func RestoreStockRecord(id, ownerID uuid.UUID, symbol string, quantity int64) (*StockRecord, error) {
	if id == uuid.Nil {
		return nil, InvalidArgument("stock.restore", "id cannot be nil")
	}
	r, err := NewStockRecord(ownerID, symbol, quantity)
	if err != nil {
		return nil, err
	}
	r.id = id
	return r, nil
}

func (r *StockRecord) ID() uuid.UUID      { return r.id }
func (r *StockRecord) OwnerID() uuid.UUID { return r.ownerID }
func (r *StockRecord) Symbol() string     { return r.symbol }

// Quantity returns the units currently held.
func (r *StockRecord) Quantity() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quantity
}

// AddStock increases the quantity by a positive amount.
func (r *StockRecord) AddStock(amount int64) error {
	if amount <= 0 {
		return InvalidArgument("stock.add", "amount must be positive: %d", amount)
	}
	r.mu.Lock()
	r.quantity += amount
	r.mu.Unlock()
	return nil
}

// RemoveStock decreases the quantity by a positive amount. It reports
// false without mutating when the holding is too small.
func (r *StockRecord) RemoveStock(amount int64) (bool, error) {
	if amount <= 0 {
		return false, InvalidArgument("stock.remove", "amount must be positive: %d", amount)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quantity < amount {
		return false, nil
	}
	r.quantity -= amount
	return true, nil
}

// SyncQuantity overwrites the quantity with a committed value.
func (r *StockRecord) SyncQuantity(quantity int64) error {
	if quantity < 0 {
		return InvalidArgument("stock.sync", "quantity cannot be negative: %d", quantity)
	}
	r.mu.Lock()
	r.quantity = quantity
	r.mu.Unlock()
	return nil
}
