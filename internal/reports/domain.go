package reports

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/deristok/deristok/internal/shared"
)

// CurrencyTotals aggregates one currency bucket across all counterparties.
type CurrencyTotals struct {
	Receivable decimal.Decimal `json:"receivable"`
	Payable    decimal.Decimal `json:"payable"`
	CashIn     decimal.Decimal `json:"cash_in"`
	CashOut    decimal.Decimal `json:"cash_out"`
}

// StockTotals aggregates one item family.
type StockTotals struct {
	Items         int     `json:"items"`
	TotalQuantity float64 `json:"total_quantity"`
	Movements     int     `json:"movements"`
}

// Summary is the dashboard snapshot.
type Summary struct {
	Currencies  map[shared.Currency]CurrencyTotals `json:"currencies"`
	Products    StockTotals                        `json:"products"`
	Materials   StockTotals                        `json:"materials"`
	Display     map[string]string                  `json:"display"`
	GeneratedAt time.Time                          `json:"generated_at"`
}

var trPrinter = message.NewPrinter(language.Turkish)

var currencySymbols = map[shared.Currency]string{
	shared.CurrencyTRY: "₺",
	shared.CurrencyUSD: "$",
	shared.CurrencyEUR: "€",
}

// FormatAmount renders an amount with Turkish digit grouping, e.g. 1.234,56 ₺.
func FormatAmount(amount decimal.Decimal, currency shared.Currency) string {
	value, _ := amount.Round(2).Float64()
	return trPrinter.Sprintf("%v %s", number.Decimal(value, number.MinFractionDigits(2), number.MaxFractionDigits(2)), currencySymbols[currency])
}
