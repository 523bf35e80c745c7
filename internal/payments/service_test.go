package payments

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
	"github.com/deristok/deristok/internal/ledger"
	"github.com/deristok/deristok/internal/shared"
)

type memoryPaymentsRepo struct {
	payments map[int64]Payment
	balances map[int64]map[shared.Currency]decimal.Decimal
	nextID   int64
}

type memoryPaymentsTx struct {
	repo *memoryPaymentsRepo
}

func newMemoryPaymentsRepo() *memoryPaymentsRepo {
	return &memoryPaymentsRepo{
		payments: make(map[int64]Payment),
		balances: make(map[int64]map[shared.Currency]decimal.Decimal),
	}
}

func (r *memoryPaymentsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryPaymentsTx{repo: r})
}

func (r *memoryPaymentsRepo) GetPayment(ctx context.Context, id int64) (Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return Payment{}, fmt.Errorf("payment %d: %w", id, shared.ErrNotFound)
	}
	return payment, nil
}

func (r *memoryPaymentsRepo) ListPayments(ctx context.Context, page shared.PageRequest) ([]Payment, int, error) {
	payments := make([]Payment, 0, len(r.payments))
	for _, payment := range r.payments {
		payments = append(payments, payment)
	}
	return payments, len(payments), nil
}

func (r *memoryPaymentsRepo) ListByCounterparty(ctx context.Context, counterpartyID int64, page shared.PageRequest) ([]Payment, int, error) {
	payments := []Payment{}
	for _, payment := range r.payments {
		if payment.CounterpartyID == counterpartyID {
			payments = append(payments, payment)
		}
	}
	return payments, len(payments), nil
}

func (t *memoryPaymentsTx) InsertPayment(ctx context.Context, payment Payment) (int64, error) {
	t.repo.nextID++
	payment.ID = t.repo.nextID
	payment.CreatedAt = time.Now()
	t.repo.payments[payment.ID] = payment
	return payment.ID, nil
}

func (t *memoryPaymentsTx) DeletePayment(ctx context.Context, id int64) error {
	if _, ok := t.repo.payments[id]; !ok {
		return fmt.Errorf("payment %d: %w", id, shared.ErrNotFound)
	}
	delete(t.repo.payments, id)
	return nil
}

func (t *memoryPaymentsTx) AdjustBalance(ctx context.Context, counterpartyID int64, currency shared.Currency, delta decimal.Decimal) error {
	buckets, ok := t.repo.balances[counterpartyID]
	if !ok {
		buckets = map[shared.Currency]decimal.Decimal{}
		t.repo.balances[counterpartyID] = buckets
	}
	buckets[currency] = buckets[currency].Add(delta)
	return nil
}

type fakeLedger struct {
	counterparties map[int64]ledger.Counterparty
}

func (f *fakeLedger) GetCounterparty(ctx context.Context, id int64) (ledger.Counterparty, error) {
	cp, ok := f.counterparties[id]
	if !ok {
		return ledger.Counterparty{}, fmt.Errorf("counterparty %d: %w", id, shared.ErrNotFound)
	}
	return cp, nil
}

type fakeCash struct {
	inserted   []cash.Transaction
	deleted    [][2]any
	failInsert bool
	failDelete bool
}

func (f *fakeCash) InsertTransaction(ctx context.Context, txn cash.Transaction) (int64, error) {
	if f.failInsert {
		return 0, errors.New("cash store refused")
	}
	f.inserted = append(f.inserted, txn)
	return int64(len(f.inserted)), nil
}

func (f *fakeCash) DeleteByReference(ctx context.Context, referenceType string, referenceID int64) error {
	if f.failDelete {
		return errors.New("cash store refused")
	}
	f.deleted = append(f.deleted, [2]any{referenceType, referenceID})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func amount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newFixture(cpType ledger.CounterpartyType) (*Service, *memoryPaymentsRepo, *fakeCash) {
	repo := newMemoryPaymentsRepo()
	cashStore := &fakeCash{}
	ledgerPort := &fakeLedger{counterparties: map[int64]ledger.Counterparty{
		5: {ID: 5, Name: "Taner", Type: cpType},
	}}
	return NewService(testLogger(), repo, ledgerPort, cashStore, nil), repo, cashStore
}

func TestCreateSupplierPaymentWritesCashRecord(t *testing.T) {
	svc, repo, cashStore := newFixture(ledger.TypeSupplier)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		CounterpartyID: 5,
		Amount:         amount("200"),
		Currency:       shared.CurrencyTRY,
	})
	require.NoError(t, err)

	require.Equal(t, "-200", repo.balances[5][shared.CurrencyTRY].String())
	require.Len(t, cashStore.inserted, 1)
	txn := cashStore.inserted[0]
	require.Equal(t, cash.DirectionOut, txn.Direction)
	require.Equal(t, "200", txn.Amount.String())
	require.Equal(t, cash.RefSupplierPayment, txn.ReferenceType)
	require.NotNil(t, txn.ReferenceID)
	require.Equal(t, payment.ID, *txn.ReferenceID)
}

func TestCreateCustomerPaymentWritesNoCashRecord(t *testing.T) {
	svc, repo, cashStore := newFixture(ledger.TypeCustomer)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		CounterpartyID: 5,
		Amount:         amount("150"),
		Currency:       shared.CurrencyUSD,
	})
	require.NoError(t, err)
	require.Equal(t, "-150", repo.balances[5][shared.CurrencyUSD].String())
	require.Empty(t, cashStore.inserted)
}

func TestCreateSupplierPaymentSurvivesCashFailure(t *testing.T) {
	svc, repo, cashStore := newFixture(ledger.TypeSupplier)
	cashStore.failInsert = true

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		CounterpartyID: 5,
		Amount:         amount("75"),
		Currency:       shared.CurrencyTRY,
	})
	require.NoError(t, err)
	require.NotZero(t, payment.ID)
	require.Equal(t, "-75", repo.balances[5][shared.CurrencyTRY].String())
}

func TestCreatePaymentValidation(t *testing.T) {
	svc, _, _ := newFixture(ledger.TypeCustomer)

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{Amount: amount("10"), Currency: shared.CurrencyTRY})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePayment(context.Background(), CreatePaymentInput{CounterpartyID: 5, Amount: amount("0"), Currency: shared.CurrencyTRY})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreatePayment(context.Background(), CreatePaymentInput{CounterpartyID: 5, Amount: amount("10"), Currency: "GBP"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreatePaymentUnknownCounterparty(t *testing.T) {
	svc, _, _ := newFixture(ledger.TypeCustomer)
	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		CounterpartyID: 99,
		Amount:         amount("10"),
		Currency:       shared.CurrencyTRY,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeletePaymentReversesLedgerAndCleansCash(t *testing.T) {
	svc, repo, cashStore := newFixture(ledger.TypeSupplier)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		CounterpartyID: 5,
		Amount:         amount("200"),
		Currency:       shared.CurrencyTRY,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePayment(context.Background(), payment.ID, "tester"))

	require.Empty(t, repo.payments)
	require.True(t, repo.balances[5][shared.CurrencyTRY].IsZero())
	require.Len(t, cashStore.deleted, 1)
	require.Equal(t, cash.RefSupplierPayment, cashStore.deleted[0][0])
	require.Equal(t, payment.ID, cashStore.deleted[0][1])
}

// Cash cleanup failures are logged and the deletion still goes through.
func TestDeletePaymentProceedsWhenCashCleanupFails(t *testing.T) {
	svc, repo, cashStore := newFixture(ledger.TypeSupplier)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		CounterpartyID: 5,
		Amount:         amount("50"),
		Currency:       shared.CurrencyEUR,
	})
	require.NoError(t, err)
	cashStore.failDelete = true

	require.NoError(t, svc.DeletePayment(context.Background(), payment.ID, "tester"))
	require.Empty(t, repo.payments)
	require.True(t, repo.balances[5][shared.CurrencyEUR].IsZero())
}

func TestDeletePaymentNotFound(t *testing.T) {
	svc, _, _ := newFixture(ledger.TypeCustomer)
	require.ErrorIs(t, svc.DeletePayment(context.Background(), 42, "tester"), shared.ErrNotFound)
}
