package cash

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/deristok/deristok/internal/shared"
)

type memoryCashRepo struct {
	transactions map[int64]Transaction
	nextID       int64
}

func newMemoryCashRepo() *memoryCashRepo {
	return &memoryCashRepo{transactions: make(map[int64]Transaction)}
}

func (r *memoryCashRepo) InsertTransaction(ctx context.Context, txn Transaction) (int64, error) {
	r.nextID++
	txn.ID = r.nextID
	txn.CreatedAt = time.Now()
	r.transactions[txn.ID] = txn
	return txn.ID, nil
}

func (r *memoryCashRepo) UpdateTransaction(ctx context.Context, txn Transaction) error {
	if _, ok := r.transactions[txn.ID]; !ok {
		return fmt.Errorf("cash transaction %d: %w", txn.ID, shared.ErrNotFound)
	}
	r.transactions[txn.ID] = txn
	return nil
}

func (r *memoryCashRepo) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := r.transactions[id]; !ok {
		return fmt.Errorf("cash transaction %d: %w", id, shared.ErrNotFound)
	}
	delete(r.transactions, id)
	return nil
}

func (r *memoryCashRepo) DeleteByReference(ctx context.Context, referenceType string, referenceID int64) error {
	for id, txn := range r.transactions {
		if txn.ReferenceType == referenceType && txn.ReferenceID != nil && *txn.ReferenceID == referenceID {
			delete(r.transactions, id)
		}
	}
	return nil
}

func (r *memoryCashRepo) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	txn, ok := r.transactions[id]
	if !ok {
		return Transaction{}, fmt.Errorf("cash transaction %d: %w", id, shared.ErrNotFound)
	}
	return txn, nil
}

func (r *memoryCashRepo) ListTransactions(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Transaction, int, error) {
	transactions := []Transaction{}
	for _, txn := range r.transactions {
		if filter.Direction != "" && txn.Direction != filter.Direction {
			continue
		}
		if filter.Category != "" && txn.Category != filter.Category {
			continue
		}
		transactions = append(transactions, txn)
	}
	return transactions, len(transactions), nil
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCreateTransaction(t *testing.T) {
	repo := newMemoryCashRepo()
	svc := NewService(repo, nil)

	txn, err := svc.CreateTransaction(context.Background(), Transaction{
		Direction: DirectionIn,
		Amount:    money("320.50"),
		Currency:  shared.CurrencyTRY,
		Category:  "elden tahsilat",
	})
	require.NoError(t, err)
	require.NotZero(t, txn.ID)
	require.Equal(t, "320.5", txn.Amount.String())
}

func TestCreateTransactionValidation(t *testing.T) {
	repo := newMemoryCashRepo()
	svc := NewService(repo, nil)

	cases := []Transaction{
		{Direction: "sideways", Amount: money("10"), Currency: shared.CurrencyTRY, Category: "x"},
		{Direction: DirectionIn, Amount: money("0"), Currency: shared.CurrencyTRY, Category: "x"},
		{Direction: DirectionIn, Amount: money("-10"), Currency: shared.CurrencyTRY, Category: "x"},
		{Direction: DirectionIn, Amount: money("10"), Currency: "GBP", Category: "x"},
		{Direction: DirectionIn, Amount: money("10"), Currency: shared.CurrencyTRY},
	}
	for _, txn := range cases {
		_, err := svc.CreateTransaction(context.Background(), txn)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
	require.Empty(t, repo.transactions)
}

func TestUpdateTransaction(t *testing.T) {
	repo := newMemoryCashRepo()
	svc := NewService(repo, nil)

	txn, err := svc.CreateTransaction(context.Background(), Transaction{
		Direction: DirectionOut,
		Amount:    money("100"),
		Currency:  shared.CurrencyTRY,
		Category:  "kira",
	})
	require.NoError(t, err)

	txn.Amount = money("120")
	txn.Description = "agustos kirasi"
	updated, err := svc.UpdateTransaction(context.Background(), txn)
	require.NoError(t, err)
	require.Equal(t, "120", updated.Amount.String())
	require.Equal(t, "agustos kirasi", updated.Description)

	txn.ID = 99
	_, err = svc.UpdateTransaction(context.Background(), txn)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	repo := newMemoryCashRepo()
	svc := NewService(repo, nil)

	txn, err := svc.CreateTransaction(context.Background(), Transaction{
		Direction: DirectionOut,
		Amount:    money("40"),
		Currency:  shared.CurrencyEUR,
		Category:  "nakliye",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTransaction(context.Background(), txn.ID, "tester"))
	require.Empty(t, repo.transactions)
	require.ErrorIs(t, svc.DeleteTransaction(context.Background(), txn.ID, "tester"), shared.ErrNotFound)
}

func TestListTransactionsFilters(t *testing.T) {
	repo := newMemoryCashRepo()
	svc := NewService(repo, nil)

	for _, txn := range []Transaction{
		{Direction: DirectionIn, Amount: money("10"), Currency: shared.CurrencyTRY, Category: "tahsilat"},
		{Direction: DirectionOut, Amount: money("20"), Currency: shared.CurrencyTRY, Category: "kira"},
		{Direction: DirectionOut, Amount: money("30"), Currency: shared.CurrencyTRY, Category: "nakliye"},
	} {
		_, err := svc.CreateTransaction(context.Background(), txn)
		require.NoError(t, err)
	}

	out, total, err := svc.ListTransactions(context.Background(), ListFilter{Direction: DirectionOut}, shared.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, out, 2)

	rent, total, err := svc.ListTransactions(context.Background(), ListFilter{Category: "kira"}, shared.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "kira", rent[0].Category)
}
