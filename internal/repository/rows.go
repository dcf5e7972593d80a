package repository

import (
	"time"

	"TradeForge/internal/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Persisted record shapes.
type sectorRow struct {
	ID             uuid.UUID
	Name           string
	Category       string
	ValuationGrade float64
}

type agentRow struct {
	ID        uuid.UUID
	Name      string
	Suffix    string
	CreatedAt time.Time
	SectorID  uuid.UUID
}

type ledgerRow struct {
	OwnerID uuid.UUID
	Balance decimal.Decimal
}

type stockRow struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	AssetSymbol string
	Quantity    int64
}

func (r sectorRow) toModel() (*models.Sector, error) {
	return models.RestoreSector(r.ID, r.Name, r.Category, r.ValuationGrade)
}

func (r ledgerRow) toModel() (*models.Ledger, error) {
	return models.NewLedger(r.OwnerID, r.Balance)
}

func (r stockRow) toModel() (*models.StockRecord, error) {
	return models.RestoreStockRecord(r.ID, r.OwnerID, r.AssetSymbol, r.Quantity)
}

type opKind int

const (
	opAddSector opKind = iota
	opAddAgent
	opAddLedger
	opAddStock
	opUpdateLedger
	opUpdateStock
)

type stagedOp struct {
	kind   opKind
	sector sectorRow
	agent  agentRow
	ledger ledgerRow
	stock  stockRow
}

// staging buffers unit-of-work writes as value snapshots.
type staging struct {
	ops  []stagedOp
	done bool
}

func (s *staging) AddSector(sec *models.Sector) {
	s.ops = append(s.ops, stagedOp{kind: opAddSector, sector: sectorRow{
		ID:             sec.ID(),
		Name:           sec.Name(),
		Category:       sec.Category(),
		ValuationGrade: sec.ValuationGrade(),
	}})
}

func (s *staging) AddAgent(a *models.Agent) {
	s.ops = append(s.ops, stagedOp{kind: opAddAgent, agent: agentRow{
		ID:        a.ID(),
		Name:      a.Name(),
		Suffix:    a.Suffix(),
		CreatedAt: a.CreatedAt(),
		SectorID:  a.SectorID(),
	}})
}

func (s *staging) AddLedger(l *models.Ledger) {
	s.ops = append(s.ops, stagedOp{kind: opAddLedger, ledger: ledgerRow{OwnerID: l.OwnerID(), Balance: l.Balance()}})
}

func (s *staging) UpdateLedger(l *models.Ledger) {
	s.ops = append(s.ops, stagedOp{kind: opUpdateLedger, ledger: ledgerRow{OwnerID: l.OwnerID(), Balance: l.Balance()}})
}

func (s *staging) AddStockRecord(r *models.StockRecord) {
	s.ops = append(s.ops, stagedOp{kind: opAddStock, stock: stockRowOf(r)})
}

func (s *staging) UpdateStockRecord(r *models.StockRecord) {
	s.ops = append(s.ops, stagedOp{kind: opUpdateStock, stock: stockRowOf(r)})
}

func (s *staging) Rollback() {
	s.ops = nil
	s.done = true
}

func stockRowOf(r *models.StockRecord) stockRow {
	return stockRow{ID: r.ID(), OwnerID: r.OwnerID(), AssetSymbol: r.Symbol(), Quantity: r.Quantity()}
}

func restoreAgent(r agentRow, funded bool, stockIDs []uuid.UUID) (*models.Agent, error) {
	return models.RestoreAgent(r.ID, r.Name, r.Suffix, r.CreatedAt, r.SectorID, funded, stockIDs)
}
