package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// Repository aggregates report figures from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BuildSummary computes the snapshot in one pass over the aggregate tables.
func (r *Repository) BuildSummary(ctx context.Context) (Summary, error) {
	summary := Summary{
		Currencies:  map[shared.Currency]CurrencyTotals{},
		Display:     map[string]string{},
		GeneratedAt: time.Now(),
	}

	for _, currency := range []shared.Currency{shared.CurrencyTRY, shared.CurrencyUSD, shared.CurrencyEUR} {
		var totals CurrencyTotals
		column := currency.BalanceColumn()
		err := r.pool.QueryRow(ctx, `SELECT
COALESCE(SUM(CASE WHEN type='customer' AND `+column+` > 0 THEN `+column+` ELSE 0 END), 0),
COALESCE(SUM(CASE WHEN type='supplier' AND `+column+` > 0 THEN `+column+` ELSE 0 END), 0)
FROM counterparties`).Scan(&totals.Receivable, &totals.Payable)
		if err != nil {
			return Summary{}, err
		}
		err = r.pool.QueryRow(ctx, `SELECT
COALESCE(SUM(CASE WHEN type='in' THEN amount ELSE 0 END), 0),
COALESCE(SUM(CASE WHEN type='out' THEN amount ELSE 0 END), 0)
FROM cash_transactions WHERE currency=$1`, string(currency)).Scan(&totals.CashIn, &totals.CashOut)
		if err != nil {
			return Summary{}, err
		}
		summary.Currencies[currency] = totals
	}

	var err error
	summary.Products, err = r.stockTotals(ctx, "products", "product_movements")
	if err != nil {
		return Summary{}, err
	}
	summary.Materials, err = r.stockTotals(ctx, "materials", "material_movements")
	if err != nil {
		return Summary{}, err
	}

	for currency, totals := range summary.Currencies {
		summary.Display["receivable_"+string(currency)] = FormatAmount(totals.Receivable, currency)
		summary.Display["payable_"+string(currency)] = FormatAmount(totals.Payable, currency)
		summary.Display["cash_net_"+string(currency)] = FormatAmount(totals.CashIn.Sub(totals.CashOut), currency)
	}
	return summary, nil
}

func (r *Repository) stockTotals(ctx context.Context, itemTable, movementTable string) (StockTotals, error) {
	var totals StockTotals
	var quantity decimal.Decimal
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(stock_quantity), 0) FROM `+itemTable).Scan(&totals.Items, &quantity); err != nil {
		return StockTotals{}, err
	}
	totals.TotalQuantity, _ = quantity.Float64()
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+movementTable).Scan(&totals.Movements); err != nil {
		return StockTotals{}, err
	}
	return totals, nil
}
