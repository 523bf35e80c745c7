package cash

import (
	"context"
	"fmt"

	"github.com/deristok/deristok/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	InsertTransaction(ctx context.Context, txn Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, txn Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	DeleteByReference(ctx context.Context, referenceType string, referenceID int64) error
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Transaction, int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages the standalone cash ledger.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateTransaction records one cash movement.
func (s *Service) CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	if err := validate(txn); err != nil {
		return Transaction{}, err
	}
	id, err := s.repo.InsertTransaction(ctx, txn)
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, txn.Actor, "cash:create", id, map[string]any{
		"type":   string(txn.Direction),
		"amount": txn.Amount.String(),
	})
	return s.repo.GetTransaction(ctx, id)
}

// UpdateTransaction edits a cash movement in place. Reference tags written by
// other workflows are immutable through this path.
func (s *Service) UpdateTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	if err := validate(txn); err != nil {
		return Transaction{}, err
	}
	if _, err := s.repo.GetTransaction(ctx, txn.ID); err != nil {
		return Transaction{}, err
	}
	if err := s.repo.UpdateTransaction(ctx, txn); err != nil {
		return Transaction{}, err
	}
	return s.repo.GetTransaction(ctx, txn.ID)
}

// DeleteTransaction removes one cash movement.
func (s *Service) DeleteTransaction(ctx context.Context, id int64, actor string) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "cash:delete", id, nil)
	return nil
}

// ListTransactions returns a filtered page, newest first.
func (s *Service) ListTransactions(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Transaction, int, error) {
	return s.repo.ListTransactions(ctx, filter, page)
}

func validate(txn Transaction) error {
	if txn.Direction != DirectionIn && txn.Direction != DirectionOut {
		return fmt.Errorf("cash type must be in or out: %w", shared.ErrValidation)
	}
	if txn.Amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive: %w", shared.ErrValidation)
	}
	if !txn.Currency.Valid() {
		return fmt.Errorf("unknown currency %q: %w", txn.Currency, shared.ErrValidation)
	}
	if txn.Category == "" {
		return fmt.Errorf("category required: %w", shared.ErrValidation)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "cash_transaction", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
