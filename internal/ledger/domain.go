package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// CounterpartyType discriminates customers from suppliers. Both share the
// same shape and the same balance columns; only the sign interpretation
// differs (customer balance is receivable, supplier balance is payable).
type CounterpartyType string

const (
	TypeCustomer CounterpartyType = "customer"
	TypeSupplier CounterpartyType = "supplier"
)

// Counterparty is a customer or supplier with cached running balances held
// separately per currency. Balances are maintained by the sale, purchase and
// payment workflows, never derived on read.
type Counterparty struct {
	ID         int64            `json:"id"`
	Name       string           `json:"name"`
	Phone      string           `json:"phone,omitempty"`
	Email      string           `json:"email,omitempty"`
	Address    string           `json:"address,omitempty"`
	Type       CounterpartyType `json:"type"`
	Balance    decimal.Decimal  `json:"balance"`
	BalanceUSD decimal.Decimal  `json:"balance_usd"`
	BalanceEUR decimal.Decimal  `json:"balance_eur"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// BalanceFor returns the cached balance for one currency bucket.
func (c Counterparty) BalanceFor(currency shared.Currency) decimal.Decimal {
	switch currency {
	case shared.CurrencyUSD:
		return c.BalanceUSD
	case shared.CurrencyEUR:
		return c.BalanceEUR
	default:
		return c.Balance
	}
}

// ErrCounterpartyNotFound indicates the id did not resolve.
var ErrCounterpartyNotFound = fmt.Errorf("counterparty: %w", shared.ErrNotFound)
