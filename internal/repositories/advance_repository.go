package repositories

import (
	"context"

	"garment-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdvanceRepository struct {
	DB *pgxpool.Pool
}

func NewAdvanceRepository(db *pgxpool.Pool) *AdvanceRepository {
	return &AdvanceRepository{DB: db}
}

const advanceColumns = `id, employee_id, advance_date, amount, payment_mode, batch_id, notes,
    is_settled, settlement_id, created_at`

func (r *AdvanceRepository) CreateAdvance(ctx context.Context, a *models.Advance) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO advances(employee_id, advance_date, amount, payment_mode, batch_id, notes)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, is_settled, created_at`,
		a.EmployeeID, a.AdvanceDate, a.Amount, a.PaymentMode, a.BatchID, a.Notes,
	).Scan(&a.ID, &a.IsSettled, &a.CreatedAt)
	return mapPgError(err)
}

func (r *AdvanceRepository) ListAdvancesByEmployee(ctx context.Context, employeeID int) ([]models.Advance, error) {
	return queryAdvances(ctx, r.DB,
		`SELECT `+advanceColumns+` FROM advances WHERE employee_id=$1
         ORDER BY advance_date DESC, id DESC`, employeeID)
}

func (r *AdvanceRepository) UnsettledAdvances(ctx context.Context, employeeID int) ([]models.Advance, error) {
	return queryAdvances(ctx, r.DB,
		`SELECT `+advanceColumns+` FROM advances WHERE employee_id=$1 AND is_settled=false
         ORDER BY advance_date, id`, employeeID)
}

func (r *AdvanceRepository) ListAdvancesBySettlement(ctx context.Context, settlementID int) ([]models.Advance, error) {
	return queryAdvances(ctx, r.DB,
		`SELECT `+advanceColumns+` FROM advances WHERE settlement_id=$1
         ORDER BY advance_date, id`, settlementID)
}

func queryAdvances(ctx context.Context, q querier, sql string, args ...any) ([]models.Advance, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var advances []models.Advance
	for rows.Next() {
		var a models.Advance
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.AdvanceDate, &a.Amount, &a.PaymentMode, &a.BatchID,
			&a.Notes, &a.IsSettled, &a.SettlementID, &a.CreatedAt); err != nil {
			return nil, err
		}
		advances = append(advances, a)
	}
	return advances, rows.Err()
}
