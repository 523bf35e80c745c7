package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/deristok/deristok/internal/cash"
	"github.com/deristok/deristok/internal/shared"
)

type memoryPayrollRepo struct {
	employees map[int64]Employee
	salaries  map[int64][]SalaryPayment
	nextID    int64
}

func newMemoryPayrollRepo() *memoryPayrollRepo {
	return &memoryPayrollRepo{
		employees: make(map[int64]Employee),
		salaries:  make(map[int64][]SalaryPayment),
	}
}

func (r *memoryPayrollRepo) InsertEmployee(ctx context.Context, emp Employee) (int64, error) {
	r.nextID++
	emp.ID = r.nextID
	emp.CreatedAt = time.Now()
	r.employees[emp.ID] = emp
	return emp.ID, nil
}

func (r *memoryPayrollRepo) UpdateEmployee(ctx context.Context, emp Employee) error {
	if _, ok := r.employees[emp.ID]; !ok {
		return fmt.Errorf("employee %d: %w", emp.ID, shared.ErrNotFound)
	}
	r.employees[emp.ID] = emp
	return nil
}

func (r *memoryPayrollRepo) DeleteEmployee(ctx context.Context, id int64) error {
	if _, ok := r.employees[id]; !ok {
		return fmt.Errorf("employee %d: %w", id, shared.ErrNotFound)
	}
	delete(r.employees, id)
	return nil
}

func (r *memoryPayrollRepo) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	emp, ok := r.employees[id]
	if !ok {
		return Employee{}, fmt.Errorf("employee %d: %w", id, shared.ErrNotFound)
	}
	return emp, nil
}

func (r *memoryPayrollRepo) ListEmployees(ctx context.Context, page shared.PageRequest) ([]Employee, int, error) {
	employees := make([]Employee, 0, len(r.employees))
	for _, emp := range r.employees {
		employees = append(employees, emp)
	}
	return employees, len(employees), nil
}

func (r *memoryPayrollRepo) InsertSalaryPayment(ctx context.Context, payment SalaryPayment) (int64, error) {
	r.nextID++
	payment.ID = r.nextID
	r.salaries[payment.EmployeeID] = append(r.salaries[payment.EmployeeID], payment)
	return payment.ID, nil
}

func (r *memoryPayrollRepo) ListSalaryPayments(ctx context.Context, employeeID int64, page shared.PageRequest) ([]SalaryPayment, int, error) {
	payments := append([]SalaryPayment(nil), r.salaries[employeeID]...)
	return payments, len(payments), nil
}

type fakeCash struct {
	inserted []cash.Transaction
	fail     bool
}

func (f *fakeCash) InsertTransaction(ctx context.Context, txn cash.Transaction) (int64, error) {
	if f.fail {
		return 0, errors.New("cash store refused")
	}
	f.inserted = append(f.inserted, txn)
	return int64(len(f.inserted)), nil
}

func salary(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newPayrollFixture() (*Service, *memoryPayrollRepo, *fakeCash) {
	repo := newMemoryPayrollRepo()
	cashStore := &fakeCash{}
	return NewService(slog.New(slog.DiscardHandler), repo, cashStore, nil), repo, cashStore
}

func TestCreateEmployee(t *testing.T) {
	svc, _, _ := newPayrollFixture()

	emp, err := svc.CreateEmployee(context.Background(), Employee{Name: "Ayse", Salary: salary("25000")}, "tester")
	require.NoError(t, err)
	require.True(t, emp.Active)
	require.Equal(t, shared.CurrencyTRY, emp.Currency)

	_, err = svc.CreateEmployee(context.Background(), Employee{Salary: salary("1")}, "tester")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateEmployee(context.Background(), Employee{Name: "x", Salary: salary("-1")}, "tester")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPaySalaryDefaultsToStoredSalary(t *testing.T) {
	svc, repo, cashStore := newPayrollFixture()

	emp, err := svc.CreateEmployee(context.Background(), Employee{Name: "Ayse", Salary: salary("25000")}, "tester")
	require.NoError(t, err)

	payment, err := svc.PaySalary(context.Background(), PaySalaryInput{EmployeeID: emp.ID, Period: "2026-08", Actor: "tester"})
	require.NoError(t, err)
	require.Equal(t, "25000", payment.Amount.String())
	require.Equal(t, "2026-08", payment.Period)
	require.Len(t, repo.salaries[emp.ID], 1)

	require.Len(t, cashStore.inserted, 1)
	txn := cashStore.inserted[0]
	require.Equal(t, cash.DirectionOut, txn.Direction)
	require.Equal(t, "salary", txn.Category)
	require.Equal(t, cash.RefSalaryPayment, txn.ReferenceType)
	require.NotNil(t, txn.ReferenceID)
	require.Equal(t, payment.ID, *txn.ReferenceID)
}

func TestPaySalaryExplicitAmount(t *testing.T) {
	svc, _, _ := newPayrollFixture()

	emp, err := svc.CreateEmployee(context.Background(), Employee{Name: "Ayse", Salary: salary("25000")}, "tester")
	require.NoError(t, err)

	payment, err := svc.PaySalary(context.Background(), PaySalaryInput{
		EmployeeID: emp.ID,
		Amount:     salary("12500.505"),
		Period:     "2026-08",
	})
	require.NoError(t, err)
	require.Equal(t, "12500.51", payment.Amount.String())
}

func TestPaySalaryValidation(t *testing.T) {
	svc, _, _ := newPayrollFixture()

	emp, err := svc.CreateEmployee(context.Background(), Employee{Name: "Ayse"}, "tester")
	require.NoError(t, err)

	_, err = svc.PaySalary(context.Background(), PaySalaryInput{EmployeeID: emp.ID})
	require.ErrorIs(t, err, shared.ErrValidation)

	// No stored salary and no explicit amount.
	_, err = svc.PaySalary(context.Background(), PaySalaryInput{EmployeeID: emp.ID, Period: "2026-08"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.PaySalary(context.Background(), PaySalaryInput{EmployeeID: 42, Period: "2026-08"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

// A failed cash write is logged; the salary payment itself stands.
func TestPaySalarySurvivesCashFailure(t *testing.T) {
	svc, repo, cashStore := newPayrollFixture()
	cashStore.fail = true

	emp, err := svc.CreateEmployee(context.Background(), Employee{Name: "Ayse", Salary: salary("25000")}, "tester")
	require.NoError(t, err)

	payment, err := svc.PaySalary(context.Background(), PaySalaryInput{EmployeeID: emp.ID, Period: "2026-08"})
	require.NoError(t, err)
	require.NotZero(t, payment.ID)
	require.Len(t, repo.salaries[emp.ID], 1)
}

func TestDeleteEmployeeKeepsSalaryHistory(t *testing.T) {
	svc, repo, _ := newPayrollFixture()

	emp, err := svc.CreateEmployee(context.Background(), Employee{Name: "Ayse", Salary: salary("25000")}, "tester")
	require.NoError(t, err)
	_, err = svc.PaySalary(context.Background(), PaySalaryInput{EmployeeID: emp.ID, Period: "2026-08"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEmployee(context.Background(), emp.ID, "tester"))
	require.Empty(t, repo.employees)
	require.Len(t, repo.salaries[emp.ID], 1)
}
