package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// Payment is one amount received from or paid to a counterparty. The ledger
// debit is identical for both directions; the counterparty's type decides
// whether it reduces a receivable or a payable.
type Payment struct {
	ID             int64           `json:"id"`
	CounterpartyID int64           `json:"counterparty_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       shared.Currency `json:"currency"`
	PaymentType    string          `json:"payment_type"`
	PaymentDate    time.Time       `json:"payment_date"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Payment types.
const (
	TypeCash     = "cash"
	TypeTransfer = "transfer"
	TypeCheque   = "cheque"
)
