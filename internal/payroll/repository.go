package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deristok/deristok/internal/shared"
)

// Repository persists employees and salary payments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) InsertEmployee(ctx context.Context, emp Employee) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO employees (name, position, salary, currency, phone, start_date, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id`,
		emp.Name, emp.Position, emp.Salary, string(emp.Currency), emp.Phone, emp.StartDate, emp.Active).Scan(&id)
	return id, err
}

func (r *Repository) UpdateEmployee(ctx context.Context, emp Employee) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees
SET name=$2, position=$3, salary=$4, currency=$5, phone=$6, start_date=$7, active=$8, updated_at=NOW() WHERE id=$1`,
		emp.ID, emp.Name, emp.Position, emp.Salary, string(emp.Currency), emp.Phone, emp.StartDate, emp.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", emp.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteEmployee(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	var emp Employee
	var currency string
	err := r.pool.QueryRow(ctx, `SELECT id, name, position, salary, currency, phone, start_date, active, created_at, updated_at
FROM employees WHERE id=$1`, id).
		Scan(&emp.ID, &emp.Name, &emp.Position, &emp.Salary, &currency, &emp.Phone, &emp.StartDate, &emp.Active, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, fmt.Errorf("employee %d: %w", id, shared.ErrNotFound)
		}
		return Employee{}, err
	}
	emp.Currency = shared.Currency(currency)
	return emp, nil
}

func (r *Repository) ListEmployees(ctx context.Context, page shared.PageRequest) ([]Employee, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, position, salary, currency, phone, start_date, active, created_at, updated_at
FROM employees ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	employees := []Employee{}
	for rows.Next() {
		var emp Employee
		var currency string
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Position, &emp.Salary, &currency, &emp.Phone, &emp.StartDate, &emp.Active, &emp.CreatedAt, &emp.UpdatedAt); err != nil {
			return nil, 0, err
		}
		emp.Currency = shared.Currency(currency)
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

func (r *Repository) InsertSalaryPayment(ctx context.Context, payment SalaryPayment) (int64, error) {
	createdAt := payment.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO salary_payments (employee_id, amount, currency, period, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		payment.EmployeeID, payment.Amount, string(payment.Currency), payment.Period, payment.Notes, createdAt).Scan(&id)
	return id, err
}

func (r *Repository) ListSalaryPayments(ctx context.Context, employeeID int64, page shared.PageRequest) ([]SalaryPayment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM salary_payments WHERE employee_id=$1`, employeeID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, employee_id, amount, currency, period, notes, created_at
FROM salary_payments WHERE employee_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, employeeID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	payments := []SalaryPayment{}
	for rows.Next() {
		var payment SalaryPayment
		var currency string
		if err := rows.Scan(&payment.ID, &payment.EmployeeID, &payment.Amount, &currency, &payment.Period, &payment.Notes, &payment.CreatedAt); err != nil {
			return nil, 0, err
		}
		payment.Currency = shared.Currency(currency)
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
