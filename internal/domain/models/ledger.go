package models

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is the cash balance of one agent. The owner id is the ledger's
// identity. Balance never goes below zero.
type Ledger struct {
	mu      sync.Mutex
	ownerID uuid.UUID
	balance decimal.Decimal
}

// NewLedger creates a ledger for ownerID with an initial balance.
func NewLedger(ownerID uuid.UUID, initialBalance decimal.Decimal) (*Ledger, error) {
	if ownerID == uuid.Nil {
		return nil, InvalidArgument("ledger.create", "ledger must be linked to an agent")
	}
	if initialBalance.IsNegative() {
		return nil, InvalidArgument("ledger.create", "initial balance cannot be negative: %s", initialBalance)
	}
	return &Ledger{ownerID: ownerID, balance: initialBalance}, nil
}

func (l *Ledger) OwnerID() uuid.UUID { return l.ownerID }

// Balance returns the current balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Credit adds a positive amount.
func (l *Ledger) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return InvalidArgument("ledger.credit", "amount must be positive: %s", amount)
	}
	l.mu.Lock()
	l.balance = l.balance.Add(amount)
	l.mu.Unlock()
	return nil
}

// Debit subtracts a positive amount. It reports false and leaves the
// balance untouched when funds are insufficient.
func (l *Ledger) Debit(amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, InvalidArgument("ledger.debit", "amount must be positive: %s", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance.LessThan(amount) {
		return false, nil
	}
	l.balance = l.balance.Sub(amount)
	return true, nil
}

// SyncBalance overwrites the balance with a value that has already been
// committed for this ledger.
func (l *Ledger) SyncBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return InvalidArgument("ledger.sync", "balance cannot be negative: %s", balance)
	}
	l.mu.Lock()
	l.balance = balance
	l.mu.Unlock()
	return nil
}
