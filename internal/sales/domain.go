package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// Sale is the header of one sale to a customer.
type Sale struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      shared.Currency `json:"currency"`
	PaymentStatus string          `json:"payment_status"`
	SaleDate      time.Time       `json:"sale_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SaleItem is one sold line. Leather goods are priced per desi (a surface
// unit); quantity_pieces is what leaves the shelf, quantity_desi times the
// desi price is what the customer pays.
type SaleItem struct {
	ID               int64           `json:"id"`
	SaleID           int64           `json:"sale_id"`
	ProductID        int64           `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Color            string          `json:"color,omitempty"`
	QuantityPieces   int             `json:"quantity_pieces"`
	QuantityDesi     float64         `json:"quantity_desi"`
	UnitPricePerDesi decimal.Decimal `json:"unit_price_per_desi"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Unit             string          `json:"unit,omitempty"`
}

// LineTotal computes the price of one line, rounded at the storage boundary.
func LineTotal(quantityDesi float64, unitPricePerDesi decimal.Decimal) decimal.Decimal {
	return unitPricePerDesi.Mul(decimal.NewFromFloat(quantityDesi)).Round(2)
}

// Payment statuses carried on the sale header.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)
