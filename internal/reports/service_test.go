package reports

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/deristok/deristok/internal/shared"
)

type countingRepo struct {
	builds  int
	summary Summary
}

func (r *countingRepo) BuildSummary(ctx context.Context) (Summary, error) {
	r.builds++
	return r.summary, nil
}

func testSummary() Summary {
	return Summary{
		Currencies: map[shared.Currency]CurrencyTotals{
			shared.CurrencyTRY: {
				Receivable: decimal.NewFromInt(1500),
				Payable:    decimal.NewFromInt(200),
			},
		},
		Products:    StockTotals{Items: 3, TotalQuantity: 42, Movements: 7},
		Display:     map[string]string{},
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func newCachedService(t *testing.T, repo RepositoryPort) (*Service, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(slog.New(slog.DiscardHandler), repo, client, time.Minute), srv
}

func TestSummaryCachesResult(t *testing.T) {
	repo := &countingRepo{summary: testSummary()}
	svc, _ := newCachedService(t, repo)

	first, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.builds)
	require.Equal(t, 3, first.Products.Items)

	second, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, repo.builds)
	require.Equal(t, "1500", second.Currencies[shared.CurrencyTRY].Receivable.String())
}

func TestSummaryRebuildsAfterExpiry(t *testing.T) {
	repo := &countingRepo{summary: testSummary()}
	svc, srv := newCachedService(t, repo)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	srv.FastForward(2 * time.Minute)

	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.builds)
}

func TestInvalidateDropsCache(t *testing.T) {
	repo := &countingRepo{summary: testSummary()}
	svc, _ := newCachedService(t, repo)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)

	svc.Invalidate(context.Background())

	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.builds)
}

func TestSummaryWithoutCache(t *testing.T) {
	repo := &countingRepo{summary: testSummary()}
	svc := NewService(slog.New(slog.DiscardHandler), repo, nil, time.Minute)

	_, err := svc.Summary(context.Background())
	require.NoError(t, err)
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.builds)
}

func TestFormatAmountTurkishGrouping(t *testing.T) {
	got := FormatAmount(decimal.NewFromFloat(1234.5), shared.CurrencyTRY)
	require.Equal(t, "1.234,50 ₺", got)

	got = FormatAmount(decimal.NewFromInt(20), shared.CurrencyUSD)
	require.Equal(t, "20,00 $", got)
}
