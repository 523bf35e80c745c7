package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetCounterparty(ctx context.Context, id int64) (Counterparty, error)
	ListCounterparties(ctx context.Context, cpType CounterpartyType, page shared.PageRequest) ([]Counterparty, int, error)
	InsertCounterparty(ctx context.Context, cp Counterparty) (int64, error)
	UpdateCounterparty(ctx context.Context, cp Counterparty) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages counterparties and their cached currency balances.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CounterpartyInput carries the editable counterparty fields.
type CounterpartyInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Type    CounterpartyType
	Actor   string
}

// CreateCounterparty inserts a customer or supplier with zero balances.
func (s *Service) CreateCounterparty(ctx context.Context, input CounterpartyInput) (Counterparty, error) {
	if input.Name == "" {
		return Counterparty{}, fmt.Errorf("counterparty name required: %w", shared.ErrValidation)
	}
	if input.Type != TypeCustomer && input.Type != TypeSupplier {
		return Counterparty{}, fmt.Errorf("counterparty type must be customer or supplier: %w", shared.ErrValidation)
	}
	cp := Counterparty{Name: input.Name, Phone: input.Phone, Email: input.Email, Address: input.Address, Type: input.Type}
	id, err := s.repo.InsertCounterparty(ctx, cp)
	if err != nil {
		return Counterparty{}, err
	}
	s.recordAudit(ctx, input.Actor, fmt.Sprintf("%s:create", input.Type), id, map[string]any{"name": input.Name})
	return s.repo.GetCounterparty(ctx, id)
}

// UpdateCounterparty edits contact fields. Balances and type are immutable
// through this path.
func (s *Service) UpdateCounterparty(ctx context.Context, id int64, input CounterpartyInput) (Counterparty, error) {
	if input.Name == "" {
		return Counterparty{}, fmt.Errorf("counterparty name required: %w", shared.ErrValidation)
	}
	cp, err := s.repo.GetCounterparty(ctx, id)
	if err != nil {
		return Counterparty{}, err
	}
	cp.Name = input.Name
	cp.Phone = input.Phone
	cp.Email = input.Email
	cp.Address = input.Address
	if err := s.repo.UpdateCounterparty(ctx, cp); err != nil {
		return Counterparty{}, err
	}
	return s.repo.GetCounterparty(ctx, id)
}

// DeleteCounterparty removes the counterparty and cascades dependents.
func (s *Service) DeleteCounterparty(ctx context.Context, id int64, actor string) error {
	cp, err := s.repo.GetCounterparty(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteCounterpartyCascade(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, fmt.Sprintf("%s:delete", cp.Type), id, map[string]any{"name": cp.Name})
	return nil
}

// GetCounterparty fetches one counterparty.
func (s *Service) GetCounterparty(ctx context.Context, id int64) (Counterparty, error) {
	return s.repo.GetCounterparty(ctx, id)
}

// ListCounterparties returns a page, optionally filtered by type.
func (s *Service) ListCounterparties(ctx context.Context, cpType CounterpartyType, page shared.PageRequest) ([]Counterparty, int, error) {
	return s.repo.ListCounterparties(ctx, cpType, page)
}

// Credit adds amount to one currency bucket (receivable/payable grows).
func (s *Service) Credit(ctx context.Context, id int64, currency shared.Currency, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive: %w", shared.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.AdjustBalance(ctx, id, currency, amount)
	})
}

// Debit subtracts amount from one currency bucket.
func (s *Service) Debit(ctx context.Context, id int64, currency shared.Currency, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive: %w", shared.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.AdjustBalance(ctx, id, currency, amount.Neg())
	})
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "counterparty", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
