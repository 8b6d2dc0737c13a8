package repositories

import (
	"context"

	"garment-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BatchRepository struct {
	DB *pgxpool.Pool
}

func NewBatchRepository(db *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{DB: db}
}

const batchColumns = `id, batch_number, style_name, colors, cut_quantity, cutting_completed,
    overall_progress, status, created_at, updated_at`

func scanBatch(row interface{ Scan(dest ...any) error }) (*models.Batch, error) {
	var b models.Batch
	err := row.Scan(&b.ID, &b.BatchNumber, &b.StyleName, &b.Colors, &b.CutQuantity,
		&b.CuttingCompleted, &b.OverallProgress, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepository) CreateBatch(ctx context.Context, b *models.Batch) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO batches(batch_number, style_name, colors, status)
         VALUES($1, $2, $3, $4)
         RETURNING id, cut_quantity, cutting_completed, overall_progress, created_at, updated_at`,
		b.BatchNumber, b.StyleName, b.Colors, models.BatchStatusCutting,
	).Scan(&b.ID, &b.CutQuantity, &b.CuttingCompleted, &b.OverallProgress, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}
	b.Status = models.BatchStatusCutting
	return nil
}

func (r *BatchRepository) GetBatch(ctx context.Context, id int) (*models.Batch, error) {
	b, err := scanBatch(r.DB.QueryRow(ctx, `SELECT `+batchColumns+` FROM batches WHERE id=$1`, id))
	return b, mapPgError(err)
}

func (r *BatchRepository) ListBatches(ctx context.Context) ([]*models.Batch, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+batchColumns+` FROM batches ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*models.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (r *BatchRepository) UpdateBatchProgress(ctx context.Context, id int, progress decimal.Decimal, status models.BatchStatus) error {
	return updateBatchProgress(ctx, r.DB, id, progress, status)
}

func (r *BatchRepository) ProducedTotals(ctx context.Context, batchIDs []int) (map[int]int, error) {
	return producedTotals(ctx, r.DB, batchIDs)
}

func (r *BatchRepository) ListEntriesByBatch(ctx context.Context, batchID int) ([]models.ProductionEntry, error) {
	return listEntries(ctx, r.DB, `pe.batch_id=$1`, batchID)
}

func updateBatchProgress(ctx context.Context, q querier, id int, progress decimal.Decimal, status models.BatchStatus) error {
	tag, err := q.Exec(ctx,
		`UPDATE batches SET overall_progress=$1, status=$2, updated_at=CURRENT_TIMESTAMP WHERE id=$3`,
		progress, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// producedTotals returns an entry for every requested id, zero when nothing is produced
func producedTotals(ctx context.Context, q querier, batchIDs []int) (map[int]int, error) {
	totals := make(map[int]int, len(batchIDs))
	for _, id := range batchIDs {
		totals[id] = 0
	}
	if len(batchIDs) == 0 {
		return totals, nil
	}

	rows, err := q.Query(ctx,
		`SELECT batch_id, COALESCE(SUM(quantity), 0)
         FROM production_entries
         WHERE batch_id = ANY($1)
         GROUP BY batch_id`, batchIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var sum int64
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		totals[id] = int(sum)
	}
	return totals, rows.Err()
}

func listEntries(ctx context.Context, q querier, where string, arg any) ([]models.ProductionEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT pe.id, pe.batch_id, b.batch_number, pe.employee_id, pe.department, pe.entry_date,
                pe.quantity, pe.rate, pe.amount, pe.settlement_id, pe.created_at
         FROM production_entries pe
         JOIN batches b ON b.id = pe.batch_id
         WHERE `+where+`
         ORDER BY pe.id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ProductionEntry
	for rows.Next() {
		var e models.ProductionEntry
		if err := rows.Scan(&e.ID, &e.BatchID, &e.BatchNumber, &e.EmployeeID, &e.Department, &e.EntryDate,
			&e.Quantity, &e.Rate, &e.Amount, &e.SettlementID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
