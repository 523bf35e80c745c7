package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/deristok/deristok/internal/shared"
)

type memoryLedgerRepo struct {
	counterparties map[int64]Counterparty
	cascaded       []int64
	nextID         int64
}

type memoryLedgerTx struct {
	repo *memoryLedgerRepo
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{counterparties: make(map[int64]Counterparty)}
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryLedgerTx{repo: r})
}

func (r *memoryLedgerRepo) GetCounterparty(ctx context.Context, id int64) (Counterparty, error) {
	cp, ok := r.counterparties[id]
	if !ok {
		return Counterparty{}, ErrCounterpartyNotFound
	}
	return cp, nil
}

func (r *memoryLedgerRepo) ListCounterparties(ctx context.Context, cpType CounterpartyType, page shared.PageRequest) ([]Counterparty, int, error) {
	parties := []Counterparty{}
	for _, cp := range r.counterparties {
		if cpType == "" || cp.Type == cpType {
			parties = append(parties, cp)
		}
	}
	return parties, len(parties), nil
}

func (r *memoryLedgerRepo) InsertCounterparty(ctx context.Context, cp Counterparty) (int64, error) {
	r.nextID++
	cp.ID = r.nextID
	r.counterparties[cp.ID] = cp
	return cp.ID, nil
}

func (r *memoryLedgerRepo) UpdateCounterparty(ctx context.Context, cp Counterparty) error {
	if _, ok := r.counterparties[cp.ID]; !ok {
		return ErrCounterpartyNotFound
	}
	r.counterparties[cp.ID] = cp
	return nil
}

func (t *memoryLedgerTx) AdjustBalance(ctx context.Context, id int64, currency shared.Currency, delta decimal.Decimal) error {
	cp, ok := t.repo.counterparties[id]
	if !ok {
		return ErrCounterpartyNotFound
	}
	switch currency {
	case shared.CurrencyUSD:
		cp.BalanceUSD = cp.BalanceUSD.Add(delta)
	case shared.CurrencyEUR:
		cp.BalanceEUR = cp.BalanceEUR.Add(delta)
	default:
		cp.Balance = cp.Balance.Add(delta)
	}
	t.repo.counterparties[id] = cp
	return nil
}

func (t *memoryLedgerTx) DeleteCounterpartyCascade(ctx context.Context, id int64) error {
	if _, ok := t.repo.counterparties[id]; !ok {
		return ErrCounterpartyNotFound
	}
	delete(t.repo.counterparties, id)
	t.repo.cascaded = append(t.repo.cascaded, id)
	return nil
}

func TestCreateCounterparty(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, nil)

	cp, err := svc.CreateCounterparty(context.Background(), CounterpartyInput{Name: "Taner", Type: TypeCustomer})
	require.NoError(t, err)
	require.Equal(t, TypeCustomer, cp.Type)
	require.True(t, cp.Balance.IsZero())

	_, err = svc.CreateCounterparty(context.Background(), CounterpartyInput{Type: TypeCustomer})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateCounterparty(context.Background(), CounterpartyInput{Name: "x", Type: "partner"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateCounterpartyKeepsBalanceAndType(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, nil)

	cp, err := svc.CreateCounterparty(context.Background(), CounterpartyInput{Name: "Taner", Type: TypeSupplier})
	require.NoError(t, err)
	require.NoError(t, svc.Credit(context.Background(), cp.ID, shared.CurrencyTRY, decimal.NewFromInt(100)))

	updated, err := svc.UpdateCounterparty(context.Background(), cp.ID, CounterpartyInput{Name: "Taner Deri", Phone: "0212"})
	require.NoError(t, err)
	require.Equal(t, "Taner Deri", updated.Name)
	require.Equal(t, TypeSupplier, updated.Type)
	require.Equal(t, "100", updated.Balance.String())
}

func TestCreditAndDebitPerCurrency(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, nil)

	cp, err := svc.CreateCounterparty(context.Background(), CounterpartyInput{Name: "Taner", Type: TypeCustomer})
	require.NoError(t, err)

	require.NoError(t, svc.Credit(context.Background(), cp.ID, shared.CurrencyUSD, decimal.NewFromInt(50)))
	require.NoError(t, svc.Debit(context.Background(), cp.ID, shared.CurrencyUSD, decimal.NewFromInt(20)))

	got, err := svc.GetCounterparty(context.Background(), cp.ID)
	require.NoError(t, err)
	require.Equal(t, "30", got.BalanceUSD.String())
	require.True(t, got.Balance.IsZero())
	require.True(t, got.BalanceEUR.IsZero())

	require.ErrorIs(t, svc.Credit(context.Background(), cp.ID, shared.CurrencyUSD, decimal.Zero), shared.ErrValidation)
	require.ErrorIs(t, svc.Debit(context.Background(), cp.ID, shared.CurrencyUSD, decimal.NewFromInt(-5)), shared.ErrValidation)
}

func TestDeleteCounterpartyCascades(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo, nil)

	cp, err := svc.CreateCounterparty(context.Background(), CounterpartyInput{Name: "Taner", Type: TypeCustomer})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCounterparty(context.Background(), cp.ID, "tester"))
	require.Empty(t, repo.counterparties)
	require.Equal(t, []int64{cp.ID}, repo.cascaded)

	require.ErrorIs(t, svc.DeleteCounterparty(context.Background(), cp.ID, "tester"), shared.ErrNotFound)
}

func TestBalanceFor(t *testing.T) {
	cp := Counterparty{
		Balance:    decimal.NewFromInt(1),
		BalanceUSD: decimal.NewFromInt(2),
		BalanceEUR: decimal.NewFromInt(3),
	}
	require.Equal(t, "1", cp.BalanceFor(shared.CurrencyTRY).String())
	require.Equal(t, "2", cp.BalanceFor(shared.CurrencyUSD).String())
	require.Equal(t, "3", cp.BalanceFor(shared.CurrencyEUR).String())
}
