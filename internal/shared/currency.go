package shared

// Currency is one of the three ledger currencies. TRY is the base currency.
type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// ParseCurrency normalises a wire value. Unknown or empty values fall back to
// TRY; the legacy application treated every unrecognised currency as base and
// callers depend on that.
func ParseCurrency(value string) Currency {
	switch Currency(value) {
	case CurrencyUSD:
		return CurrencyUSD
	case CurrencyEUR:
		return CurrencyEUR
	default:
		return CurrencyTRY
	}
}

// BalanceColumn returns the counterparty balance column holding this
// currency's running total.
func (c Currency) BalanceColumn() string {
	switch c {
	case CurrencyUSD:
		return "balance_usd"
	case CurrencyEUR:
		return "balance_eur"
	default:
		return "balance"
	}
}

// Valid reports whether the value is one of the three known currencies.
func (c Currency) Valid() bool {
	return c == CurrencyTRY || c == CurrencyUSD || c == CurrencyEUR
}
