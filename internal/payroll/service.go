package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/cash"
	"github.com/deristok/deristok/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	InsertEmployee(ctx context.Context, emp Employee) (int64, error)
	UpdateEmployee(ctx context.Context, emp Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	ListEmployees(ctx context.Context, page shared.PageRequest) ([]Employee, int, error)
	InsertSalaryPayment(ctx context.Context, payment SalaryPayment) (int64, error)
	ListSalaryPayments(ctx context.Context, employeeID int64, page shared.PageRequest) ([]SalaryPayment, int, error)
}

// CashPort writes the cash record for a paid salary.
type CashPort interface {
	InsertTransaction(ctx context.Context, txn cash.Transaction) (int64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages employees and salary payments.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	cash   CashPort
	audit  AuditPort
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort, cashPort CashPort, audit AuditPort) *Service {
	return &Service{logger: logger, repo: repo, cash: cashPort, audit: audit}
}

// CreateEmployee inserts an employee.
func (s *Service) CreateEmployee(ctx context.Context, emp Employee, actor string) (Employee, error) {
	if emp.Name == "" {
		return Employee{}, fmt.Errorf("employee name required: %w", shared.ErrValidation)
	}
	if emp.Salary.Sign() < 0 {
		return Employee{}, fmt.Errorf("salary must not be negative: %w", shared.ErrValidation)
	}
	if emp.Currency == "" {
		emp.Currency = shared.CurrencyTRY
	}
	emp.Active = true
	id, err := s.repo.InsertEmployee(ctx, emp)
	if err != nil {
		return Employee{}, err
	}
	s.recordAudit(ctx, actor, "employee:create", id, map[string]any{"name": emp.Name})
	return s.repo.GetEmployee(ctx, id)
}

// UpdateEmployee edits an employee.
func (s *Service) UpdateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	if emp.Name == "" {
		return Employee{}, fmt.Errorf("employee name required: %w", shared.ErrValidation)
	}
	if err := s.repo.UpdateEmployee(ctx, emp); err != nil {
		return Employee{}, err
	}
	return s.repo.GetEmployee(ctx, emp.ID)
}

// DeleteEmployee removes an employee. Paid salary history stays in place.
func (s *Service) DeleteEmployee(ctx context.Context, id int64, actor string) error {
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "employee:delete", id, nil)
	return nil
}

// GetEmployee fetches one employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// ListEmployees returns a page of employees.
func (s *Service) ListEmployees(ctx context.Context, page shared.PageRequest) ([]Employee, int, error) {
	return s.repo.ListEmployees(ctx, page)
}

// PaySalaryInput describes one salary payment.
type PaySalaryInput struct {
	EmployeeID int64
	Amount     decimal.Decimal
	Period     string
	Notes      string
	Actor      string
}

// PaySalary records a salary payment and its cash 'out' record. An omitted
// amount defaults to the employee's stored salary. The cash write is best
// effort: a failure there is logged, not returned.
func (s *Service) PaySalary(ctx context.Context, input PaySalaryInput) (SalaryPayment, error) {
	if input.Period == "" {
		return SalaryPayment{}, fmt.Errorf("period required: %w", shared.ErrValidation)
	}
	emp, err := s.repo.GetEmployee(ctx, input.EmployeeID)
	if err != nil {
		return SalaryPayment{}, err
	}
	amount := input.Amount
	if amount.IsZero() {
		amount = emp.Salary
	}
	if amount.Sign() <= 0 {
		return SalaryPayment{}, fmt.Errorf("amount must be positive: %w", shared.ErrValidation)
	}
	payment := SalaryPayment{
		EmployeeID: emp.ID,
		Amount:     amount.Round(2),
		Currency:   emp.Currency,
		Period:     input.Period,
		Notes:      input.Notes,
	}
	id, err := s.repo.InsertSalaryPayment(ctx, payment)
	if err != nil {
		return SalaryPayment{}, err
	}
	payment.ID = id

	if s.cash != nil {
		paymentID := payment.ID
		_, cashErr := s.cash.InsertTransaction(ctx, cash.Transaction{
			Direction:     cash.DirectionOut,
			Amount:        payment.Amount,
			Currency:      payment.Currency,
			Category:      "salary",
			Description:   fmt.Sprintf("salary %s for %s", input.Period, emp.Name),
			ReferenceType: cash.RefSalaryPayment,
			ReferenceID:   &paymentID,
			Actor:         input.Actor,
		})
		if cashErr != nil {
			s.logger.Error("cash record for salary payment failed",
				slog.Int64("salary_payment_id", payment.ID), slog.Any("error", cashErr))
		}
	}
	s.recordAudit(ctx, input.Actor, "salary:pay", payment.ID, map[string]any{
		"employee_id": emp.ID,
		"amount":      payment.Amount.String(),
		"period":      input.Period,
	})
	return payment, nil
}

// ListSalaryPayments returns a page of one employee's paid salaries.
func (s *Service) ListSalaryPayments(ctx context.Context, employeeID int64, page shared.PageRequest) ([]SalaryPayment, int, error) {
	return s.repo.ListSalaryPayments(ctx, employeeID, page)
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "employee", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
