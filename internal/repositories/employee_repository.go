package repositories

import (
	"context"

	"garment-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type EmployeeRepository struct {
	DB *pgxpool.Pool
}

func NewEmployeeRepository(db *pgxpool.Pool) *EmployeeRepository {
	return &EmployeeRepository{DB: db}
}

const employeeColumns = `id, name, phone, employment_type, rate_type, department, is_active, created_at, updated_at`

func scanEmployee(row interface{ Scan(dest ...any) error }) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Phone, &e.EmploymentType, &e.RateType, &e.Department,
		&e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) CreateEmployee(ctx context.Context, e *models.Employee) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO employees(name, phone, employment_type, rate_type, department, is_active)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at, updated_at`,
		e.Name, e.Phone, e.EmploymentType, e.RateType, e.Department, e.IsActive,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EmployeeRepository) GetEmployee(ctx context.Context, id int) (*models.Employee, error) {
	e, err := scanEmployee(r.DB.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id=$1`, id))
	return e, mapPgError(err)
}

func (r *EmployeeRepository) ListEmployees(ctx context.Context) ([]*models.Employee, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE employees SET name=$1, phone=$2, employment_type=$3, rate_type=$4, department=$5,
             is_active=$6, updated_at=CURRENT_TIMESTAMP
         WHERE id=$7
         RETURNING created_at, updated_at`,
		e.Name, e.Phone, e.EmploymentType, e.RateType, e.Department, e.IsActive, e.ID,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	return mapPgError(err)
}

func (r *EmployeeRepository) DeleteEmployee(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
