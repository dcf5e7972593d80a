package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"
	"TradeForge/internal/repository/migrations"
	applogger "TradeForge/pkg/logger"
	pkgsqlite "TradeForge/pkg/sqlite"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SQLiteStore implements Store on a SQLite database. Each unit of work
// runs in one transaction at commit time.
type SQLiteStore struct {
	db *sql.DB
	l  *applogger.Logger
}

// NewSQLiteStore applies migrations and returns the store.
func NewSQLiteStore(ctx context.Context, client *pkgsqlite.Client, l *applogger.Logger) (*SQLiteStore, error) {
	if err := client.Migrate(ctx, migrations.FS, "."); err != nil {
		return nil, fmt.Errorf("migrate market schema: %w", err)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &SQLiteStore{db: client.DB(), l: l}, nil
}

var _ repository.Store = (*SQLiteStore)(nil)

type sqliteUnit struct {
	staging
	store *SQLiteStore
}

func (s *SQLiteStore) Begin(ctx context.Context) (repository.UnitOfWork, error) {
	return &sqliteUnit{store: s}, nil
}

func (u *sqliteUnit) Commit(ctx context.Context) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}
	u.done = true
	if len(u.ops) == 0 {
		return nil
	}

	start := time.Now()
	tx, err := u.store.db.BeginTx(ctx, nil)
	if err != nil {
		return models.SourceUnavailable("store.commit", err)
	}
	for _, op := range u.ops {
		if err := execOp(ctx, tx, op); err != nil {
			_ = tx.Rollback()
			u.store.l.Debug("sqlite commit rolled back",
				applogger.Int("ops", len(u.ops)),
				applogger.Error(err),
			)
			return classify(op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.SourceUnavailable("store.commit", err)
	}
	u.store.l.Debug("sqlite commit",
		applogger.Int("ops", len(u.ops)),
		applogger.Duration("took_ms", time.Since(start)),
	)
	return nil
}

func execOp(ctx context.Context, tx *sql.Tx, op stagedOp) error {
	var (
		res sql.Result
		err error
	)
	switch op.kind {
	case opAddSector:
		r := op.sector
		res, err = tx.ExecContext(ctx,
			`INSERT INTO sectors (id, name, category, valuation_grade) VALUES (?, ?, ?, ?)`,
			r.ID.String(), r.Name, r.Category, r.ValuationGrade)
	case opAddAgent:
		r := op.agent
		res, err = tx.ExecContext(ctx,
			`INSERT INTO agents (id, name, suffix, created_at, sector_id) VALUES (?, ?, ?, ?, ?)`,
			r.ID.String(), r.Name, r.Suffix, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.SectorID.String())
	case opAddLedger:
		r := op.ledger
		res, err = tx.ExecContext(ctx,
			`INSERT INTO ledgers (owner_id, balance) VALUES (?, ?)`,
			r.OwnerID.String(), r.Balance.String())
	case opUpdateLedger:
		r := op.ledger
		res, err = tx.ExecContext(ctx,
			`UPDATE ledgers SET balance = ? WHERE owner_id = ?`,
			r.Balance.String(), r.OwnerID.String())
	case opAddStock:
		r := op.stock
		res, err = tx.ExecContext(ctx,
			`INSERT INTO stock_records (id, owner_id, asset_symbol, quantity) VALUES (?, ?, ?, ?)`,
			r.ID.String(), r.OwnerID.String(), r.AssetSymbol, r.Quantity)
	case opUpdateStock:
		r := op.stock
		res, err = tx.ExecContext(ctx,
			`UPDATE stock_records SET quantity = ? WHERE id = ?`,
			r.Quantity, r.ID.String())
	default:
		return fmt.Errorf("unknown staged op %d", op.kind)
	}
	if err != nil {
		return err
	}
	if op.kind == opUpdateLedger || op.kind == opUpdateStock {
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errMissingRow
		}
	}
	return nil
}

var errMissingRow = errors.New("row does not exist")

var opNames = map[opKind]string{
	opAddSector:    "store.add_sector",
	opAddAgent:     "store.add_agent",
	opAddLedger:    "store.add_ledger",
	opAddStock:     "store.add_stock",
	opUpdateLedger: "store.update_ledger",
	opUpdateStock:  "store.update_stock",
}

// classify maps driver failures onto the domain taxonomy: constraint
// violations are broken relational preconditions, anything else means
// the store could not be used.
func classify(op stagedOp, err error) error {
	name := opNames[op.kind]
	switch {
	case errors.Is(err, errMissingRow):
		return models.PreconditionFailed(name, "target row does not exist")
	case pkgsqlite.IsConstraintError(err):
		return models.PreconditionFailed(name, "%v", err)
	default:
		return models.SourceUnavailable(name, err)
	}
}

func (s *SQLiteStore) QueryAllSectors(ctx context.Context) ([]*models.Sector, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, valuation_grade FROM sectors ORDER BY rowid`)
	if err != nil {
		return nil, models.SourceUnavailable("store.query_sectors", err)
	}
	defer rows.Close()

	var out []*models.Sector
	for rows.Next() {
		var r sectorRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.ValuationGrade); err != nil {
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		sec, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, models.SourceUnavailable("store.query_sectors", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetSector(ctx context.Context, id uuid.UUID) (*models.Sector, error) {
	var r sectorRow
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, valuation_grade FROM sectors WHERE id = ?`, id.String(),
	).Scan(&r.ID, &r.Name, &r.Category, &r.ValuationGrade)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("store.get_sector", "sector %s", id)
	}
	if err != nil {
		return nil, models.SourceUnavailable("store.get_sector", err)
	}
	return r.toModel()
}

const agentColumns = `a.id, a.name, a.suffix, a.created_at, a.sector_id, l.owner_id IS NOT NULL`

func (s *SQLiteStore) GetAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents a LEFT JOIN ledgers l ON l.owner_id = a.id WHERE a.id = ?`,
		id.String())
	r, funded, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("store.get_agent", "agent %s", id)
	}
	if err != nil {
		return nil, models.SourceUnavailable("store.get_agent", err)
	}
	ids, err := s.stockIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return restoreAgent(r, funded, ids)
}

func (s *SQLiteStore) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents a LEFT JOIN ledgers l ON l.owner_id = a.id ORDER BY a.rowid`)
	if err != nil {
		return nil, models.SourceUnavailable("store.list_agents", err)
	}
	type scanned struct {
		row    agentRow
		funded bool
	}
	var all []scanned
	for rows.Next() {
		r, funded, err := scanAgent(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		all = append(all, scanned{r, funded})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, models.SourceUnavailable("store.list_agents", err)
	}

	// the single connection is free again once rows are closed
	out := make([]*models.Agent, 0, len(all))
	for _, sc := range all {
		ids, err := s.stockIDs(ctx, sc.row.ID)
		if err != nil {
			return nil, err
		}
		a, err := restoreAgent(sc.row, sc.funded, ids)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAgent(sc scanner) (agentRow, bool, error) {
	var (
		r       agentRow
		created string
		funded  bool
	)
	if err := sc.Scan(&r.ID, &r.Name, &r.Suffix, &created, &r.SectorID, &funded); err != nil {
		return r, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return r, false, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	r.CreatedAt = ts
	return r, funded, nil
}

func (s *SQLiteStore) stockIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM stock_records WHERE owner_id = ? ORDER BY rowid`, ownerID.String())
	if err != nil {
		return nil, models.SourceUnavailable("store.stock_ids", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stock id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) GetLedger(ctx context.Context, ownerID uuid.UUID) (*models.Ledger, error) {
	var (
		r       ledgerRow
		balance string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id, balance FROM ledgers WHERE owner_id = ?`, ownerID.String(),
	).Scan(&r.OwnerID, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("store.get_ledger", "ledger %s", ownerID)
	}
	if err != nil {
		return nil, models.SourceUnavailable("store.get_ledger", err)
	}
	if r.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	return r.toModel()
}

func (s *SQLiteStore) GetStockRecord(ctx context.Context, id uuid.UUID) (*models.StockRecord, error) {
	var r stockRow
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, asset_symbol, quantity FROM stock_records WHERE id = ?`, id.String(),
	).Scan(&r.ID, &r.OwnerID, &r.AssetSymbol, &r.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFound("store.get_stock", "stock record %s", id)
	}
	if err != nil {
		return nil, models.SourceUnavailable("store.get_stock", err)
	}
	return r.toModel()
}

func (s *SQLiteStore) ListStockRecords(ctx context.Context, ownerID uuid.UUID) ([]*models.StockRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, asset_symbol, quantity FROM stock_records WHERE owner_id = ? ORDER BY rowid`,
		ownerID.String())
	if err != nil {
		return nil, models.SourceUnavailable("store.list_stock", err)
	}
	defer rows.Close()

	var out []*models.StockRecord
	for rows.Next() {
		var r stockRow
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.AssetSymbol, &r.Quantity); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		rec, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, models.SourceUnavailable("store.list_stock", err)
	}
	return out, nil
}

// Reset deletes all market data, children first.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.SourceUnavailable("store.reset", err)
	}
	for _, table := range []string{"stock_records", "ledgers", "agents", "sectors"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			_ = tx.Rollback()
			return models.SourceUnavailable("store.reset", fmt.Errorf("clear %s: %w", table, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return models.SourceUnavailable("store.reset", err)
	}
	s.l.Info("market store reset")
	return nil
}

func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return models.SourceUnavailable("store.health", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return nil // Managed by pkg
}
