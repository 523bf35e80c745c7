package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/cash"
	"github.com/deristok/deristok/internal/ledger"
	"github.com/deristok/deristok/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPayment(ctx context.Context, id int64) (Payment, error)
	ListPayments(ctx context.Context, page shared.PageRequest) ([]Payment, int, error)
	ListByCounterparty(ctx context.Context, counterpartyID int64, page shared.PageRequest) ([]Payment, int, error)
}

// LedgerPort resolves the counterparty a payment settles against.
type LedgerPort interface {
	GetCounterparty(ctx context.Context, id int64) (ledger.Counterparty, error)
}

// CashPort writes and cleans up the paired cash record for supplier payments.
type CashPort interface {
	InsertTransaction(ctx context.Context, txn cash.Transaction) (int64, error)
	DeleteByReference(ctx context.Context, referenceType string, referenceID int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service runs the payment workflow: ledger debit and payment row in one
// transaction, plus a best-effort cash record for supplier payments.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	ledger LedgerPort
	cash   CashPort
	audit  AuditPort
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort, ledgerPort LedgerPort, cashPort CashPort, audit AuditPort) *Service {
	return &Service{logger: logger, repo: repo, ledger: ledgerPort, cash: cashPort, audit: audit}
}

// CreatePaymentInput describes a payment request.
type CreatePaymentInput struct {
	CounterpartyID int64
	Amount         decimal.Decimal
	Currency       shared.Currency
	PaymentType    string
	PaymentDate    time.Time
	Notes          string
	Actor          string
}

// CreatePayment debits the counterparty's balance and records the payment in
// one transaction. For suppliers a cash 'out' record is written after commit,
// best effort: a failure there is logged, not returned, and never rolls the
// payment back. Customer payments write no cash record.
// NOTE: asymmetric vs. the supplier payment path, unconfirmed intent.
func (s *Service) CreatePayment(ctx context.Context, input CreatePaymentInput) (Payment, error) {
	if input.CounterpartyID == 0 {
		return Payment{}, fmt.Errorf("counterparty required: %w", shared.ErrValidation)
	}
	if input.Amount.Sign() <= 0 {
		return Payment{}, fmt.Errorf("amount must be positive: %w", shared.ErrValidation)
	}
	if !input.Currency.Valid() {
		return Payment{}, fmt.Errorf("unknown currency %q: %w", input.Currency, shared.ErrValidation)
	}
	if input.PaymentType == "" {
		input.PaymentType = TypeCash
	}
	if input.PaymentDate.IsZero() {
		input.PaymentDate = time.Now()
	}
	cp, err := s.ledger.GetCounterparty(ctx, input.CounterpartyID)
	if err != nil {
		return Payment{}, err
	}

	payment := Payment{
		CounterpartyID: input.CounterpartyID,
		Amount:         input.Amount.Round(2),
		Currency:       input.Currency,
		PaymentType:    input.PaymentType,
		PaymentDate:    input.PaymentDate,
		Notes:          input.Notes,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertPayment(ctx, payment)
		if err != nil {
			return err
		}
		payment.ID = id
		return tx.AdjustBalance(ctx, input.CounterpartyID, input.Currency, payment.Amount.Neg())
	})
	if err != nil {
		return Payment{}, err
	}

	if cp.Type == ledger.TypeSupplier && s.cash != nil {
		paymentID := payment.ID
		_, cashErr := s.cash.InsertTransaction(ctx, cash.Transaction{
			Direction:      cash.DirectionOut,
			Amount:         payment.Amount,
			Currency:       payment.Currency,
			Category:       "supplier_payment",
			Description:    fmt.Sprintf("payment to %s", cp.Name),
			ReferenceType:  cash.RefSupplierPayment,
			ReferenceID:    &paymentID,
			CounterpartyID: &input.CounterpartyID,
			Actor:          input.Actor,
		})
		if cashErr != nil {
			s.logger.Error("cash record for supplier payment failed",
				slog.Int64("payment_id", payment.ID), slog.Any("error", cashErr))
		}
	}

	s.recordAudit(ctx, input.Actor, "payment:create", payment.ID, map[string]any{
		"counterparty_id": input.CounterpartyID,
		"amount":          payment.Amount.String(),
		"currency":        string(input.Currency),
	})
	return payment, nil
}

// DeletePayment reverses the payment. The paired cash record is cleaned up
// first, best effort: a failure there is logged and the deletion proceeds.
// The ledger credit and the row deletion are atomic.
func (s *Service) DeletePayment(ctx context.Context, id int64, actor string) error {
	payment, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	if s.cash != nil {
		if cashErr := s.cash.DeleteByReference(ctx, cash.RefSupplierPayment, id); cashErr != nil {
			s.logger.Error("cash cleanup for payment deletion failed",
				slog.Int64("payment_id", id), slog.Any("error", cashErr))
		}
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.AdjustBalance(ctx, payment.CounterpartyID, payment.Currency, payment.Amount); err != nil {
			return err
		}
		return tx.DeletePayment(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "payment:delete", id, map[string]any{
		"counterparty_id": payment.CounterpartyID,
		"amount":          payment.Amount.String(),
	})
	return nil
}

// GetPayment fetches one payment.
func (s *Service) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPayments returns a page of payments, newest first.
func (s *Service) ListPayments(ctx context.Context, page shared.PageRequest) ([]Payment, int, error) {
	return s.repo.ListPayments(ctx, page)
}

// ListByCounterparty returns a page of one counterparty's payments.
func (s *Service) ListByCounterparty(ctx context.Context, counterpartyID int64, page shared.PageRequest) ([]Payment, int, error) {
	return s.repo.ListByCounterparty(ctx, counterpartyID, page)
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "payment", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
