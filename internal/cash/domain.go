package cash

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// Direction tags the flow of a cash transaction.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Reference types written by other workflows.
const (
	RefSupplierPayment = "supplier_payment"
	RefSalaryPayment   = "salary_payment"
)

// Transaction is one physical cash or bank movement. It is an independent
// ledger: counterparty balances never read it, and only some workflows write
// to it.
type Transaction struct {
	ID             int64           `json:"id"`
	Direction      Direction       `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       shared.Currency `json:"currency"`
	Category       string          `json:"category"`
	Description    string          `json:"description,omitempty"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    *int64          `json:"reference_id,omitempty"`
	CounterpartyID *int64          `json:"counterparty_id,omitempty"`
	Actor          string          `json:"actor,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
