package procurement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// Purchase is the header of one purchase from a supplier.
type Purchase struct {
	ID           int64           `json:"id"`
	SupplierID   int64           `json:"supplier_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Currency     shared.Currency `json:"currency"`
	Status       string          `json:"status"`
	PurchaseDate time.Time       `json:"purchase_date"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PurchaseItem is one received line. ItemID may point at a material or a
// legacy product; the kind is resolved at receipt time, materials first.
type PurchaseItem struct {
	ID         int64           `json:"id"`
	PurchaseID int64           `json:"purchase_id"`
	ItemID     int64           `json:"item_id"`
	ItemName   string          `json:"item_name"`
	Brand      string          `json:"brand,omitempty"`
	Quantity   float64         `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Purchase statuses.
const (
	StatusReceived  = "received"
	StatusCancelled = "cancelled"
)

// LineTotal computes the price of one line, rounded at the storage boundary.
func LineTotal(quantity float64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromFloat(quantity)).Round(2)
}
