package repositories

import (
	"context"
	"fmt"

	"garment-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type SettlementRepository struct {
	DB *pgxpool.Pool
}

func NewSettlementRepository(db *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{DB: db}
}

const settlementColumns = `s.id, s.settlement_number, s.employee_id, e.name, s.settlement_date,
    s.total_production_amount, s.advances_deducted, s.net_payable, s.payment_mode, s.remarks, s.created_at`

func scanSettlement(row interface{ Scan(dest ...any) error }) (*models.Settlement, error) {
	var s models.Settlement
	err := row.Scan(&s.ID, &s.SettlementNumber, &s.EmployeeID, &s.EmployeeName, &s.SettlementDate,
		&s.TotalProductionAmount, &s.AdvancesDeducted, &s.NetPayable, &s.PaymentMode, &s.Remarks, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RunInTx runs fn inside one database transaction and commits only if fn succeeds
func (r *SettlementRepository) RunInTx(ctx context.Context, fn func(tx SettlementTx) error) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgSettlementTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *SettlementRepository) GetSettlement(ctx context.Context, id int) (*models.Settlement, error) {
	s, err := scanSettlement(r.DB.QueryRow(ctx,
		`SELECT `+settlementColumns+`
         FROM settlements s JOIN employees e ON e.id = s.employee_id
         WHERE s.id=$1`, id))
	return s, mapPgError(err)
}

func (r *SettlementRepository) ListSettlementsByEmployee(ctx context.Context, employeeID int) ([]models.Settlement, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+settlementColumns+`
         FROM settlements s JOIN employees e ON e.id = s.employee_id
         WHERE s.employee_id=$1
         ORDER BY s.settlement_date DESC, s.id DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, *s)
	}
	return settlements, rows.Err()
}

func (r *SettlementRepository) ListEntriesBySettlement(ctx context.Context, settlementID int) ([]models.ProductionEntry, error) {
	return listEntries(ctx, r.DB, `pe.settlement_id=$1`, settlementID)
}

type pgSettlementTx struct {
	tx pgx.Tx
}

// LockBatches takes row locks in id order so concurrent settlements cannot deadlock
func (t *pgSettlementTx) LockBatches(ctx context.Context, ids []int) (map[int]*models.Batch, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := make(map[int]*models.Batch, len(ids))
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches[b.ID] = b
	}
	return batches, rows.Err()
}

func (t *pgSettlementTx) ProducedTotals(ctx context.Context, batchIDs []int) (map[int]int, error) {
	return producedTotals(ctx, t.tx, batchIDs)
}

func (t *pgSettlementTx) LockUnsettledAdvances(ctx context.Context, employeeID int) ([]models.Advance, error) {
	return queryAdvances(ctx, t.tx,
		`SELECT `+advanceColumns+` FROM advances
         WHERE employee_id=$1 AND is_settled=false
         ORDER BY advance_date, id
         FOR UPDATE`, employeeID)
}

func (t *pgSettlementTx) InsertSettlement(ctx context.Context, s *models.Settlement) error {
	var seq int64
	if err := t.tx.QueryRow(ctx, "SELECT nextval('settlement_number_sequence')").Scan(&seq); err != nil {
		return fmt.Errorf("failed to generate settlement number: %w", err)
	}
	s.SettlementNumber = FormatSettlementNumber(seq)

	err := t.tx.QueryRow(ctx,
		`INSERT INTO settlements(settlement_number, employee_id, settlement_date, total_production_amount,
             advances_deducted, net_payable, payment_mode, remarks)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id, created_at`,
		s.SettlementNumber, s.EmployeeID, s.SettlementDate, s.TotalProductionAmount,
		s.AdvancesDeducted, s.NetPayable, s.PaymentMode, s.Remarks,
	).Scan(&s.ID, &s.CreatedAt)
	return mapPgError(err)
}

func (t *pgSettlementTx) InsertEntries(ctx context.Context, entries []models.ProductionEntry) error {
	batch := &pgx.Batch{}
	for i := range entries {
		e := &entries[i]
		batch.Queue(
			`INSERT INTO production_entries(batch_id, employee_id, department, entry_date, quantity, rate, amount, settlement_id)
             VALUES($1, $2, $3, $4, $5, $6, $7, $8)
             RETURNING id, created_at`,
			e.BatchID, e.EmployeeID, e.Department, e.EntryDate, e.Quantity, e.Rate, e.Amount, e.SettlementID,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&e.ID, &e.CreatedAt)
		})
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (t *pgSettlementTx) MarkAdvancesSettled(ctx context.Context, ids []int, settlementID int) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE advances SET is_settled=true, settlement_id=$1
         WHERE id = ANY($2) AND is_settled=false`, settlementID, ids)
	if err != nil {
		return err
	}
	// The caller rolls back, so a partial update never survives
	if tag.RowsAffected() != int64(len(ids)) {
		return ErrAlreadySettled
	}
	return nil
}

func (t *pgSettlementTx) UpdateBatchProgress(ctx context.Context, id int, progress decimal.Decimal, status models.BatchStatus) error {
	return updateBatchProgress(ctx, t.tx, id, progress, status)
}

// CompleteCutting only succeeds once per batch. The UPDATE keeps the row locked,
// so settlements touching the batch wait for this transaction.
func (t *pgSettlementTx) CompleteCutting(ctx context.Context, id int, cutQuantity int) (*models.Batch, error) {
	b, err := scanBatch(t.tx.QueryRow(ctx,
		`UPDATE batches
         SET cut_quantity=$1, cutting_completed=true, status=$2, updated_at=CURRENT_TIMESTAMP
         WHERE id=$3 AND cutting_completed=false
         RETURNING `+batchColumns,
		cutQuantity, models.BatchStatusProduction, id))
	if err == nil {
		return b, nil
	}
	if err = mapPgError(err); err != ErrNotFound {
		return nil, err
	}
	// Distinguish a missing batch from one already frozen
	if _, err := scanBatch(t.tx.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id=$1`, id)); err != nil {
		return nil, mapPgError(err)
	}
	return nil, ErrCuttingFrozen
}

func (t *pgSettlementTx) LockSettlement(ctx context.Context, id int) (*models.Settlement, error) {
	s, err := scanSettlement(t.tx.QueryRow(ctx,
		`SELECT `+settlementColumns+`
         FROM settlements s JOIN employees e ON e.id = s.employee_id
         WHERE s.id=$1
         FOR UPDATE OF s`, id))
	return s, mapPgError(err)
}

func (t *pgSettlementTx) EntriesForSettlement(ctx context.Context, settlementID int) ([]models.ProductionEntry, error) {
	return listEntries(ctx, t.tx, `pe.settlement_id=$1`, settlementID)
}

func (t *pgSettlementTx) DeleteEntriesForSettlement(ctx context.Context, settlementID int) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM production_entries WHERE settlement_id=$1`, settlementID)
	return err
}

func (t *pgSettlementTx) UnsettleAdvances(ctx context.Context, settlementID int) (int, error) {
	tag, err := t.tx.Exec(ctx,
		`UPDATE advances SET is_settled=false, settlement_id=NULL WHERE settlement_id=$1`, settlementID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (t *pgSettlementTx) DeleteSettlement(ctx context.Context, id int) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM settlements WHERE id=$1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FormatSettlementNumber renders a sequence value as STL-000123
func FormatSettlementNumber(seq int64) string {
	return fmt.Sprintf("STL-%06d", seq)
}

// PostgresStore is the pgx-backed Store
type PostgresStore struct {
	*EmployeeRepository
	*BatchRepository
	*AdvanceRepository
	*SettlementRepository
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		EmployeeRepository:   NewEmployeeRepository(db),
		BatchRepository:      NewBatchRepository(db),
		AdvanceRepository:    NewAdvanceRepository(db),
		SettlementRepository: NewSettlementRepository(db),
	}
}

var _ Store = (*PostgresStore)(nil)
