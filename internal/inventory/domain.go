package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// ItemKind discriminates the two stock-keeping item families. Products are
// sold to customers, materials are bought from suppliers and consumed in
// production. Each kind has its own item table and its own movement log.
type ItemKind string

const (
	KindProduct  ItemKind = "product"
	KindMaterial ItemKind = "material"
)

// ItemRef identifies a stock-bearing item. Workflows resolve the kind once at
// the start and thread the ref through subsequent calls instead of re-probing
// table membership.
type ItemRef struct {
	Kind ItemKind
	ID   int64
}

// Item is the shared shape of products and materials. SupplierID and
// SupplierName are populated for materials only: the purchase workflow
// overwrites them on every receipt (last purchase wins).
type Item struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Color         string    `json:"color,omitempty"`
	Brand         string    `json:"brand,omitempty"`
	StockQuantity float64   `json:"stock_quantity"`
	Unit          string    `json:"unit"`
	Description   string    `json:"description,omitempty"`
	SupplierID    *int64    `json:"supplier_id,omitempty"`
	SupplierName  string    `json:"supplier_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MovementKind tags the direction of a stock movement.
type MovementKind string

const (
	MovementIn  MovementKind = "in"
	MovementOut MovementKind = "out"
)

// Movement reference types.
const (
	RefSale             = "sale"
	RefPurchase         = "purchase"
	RefInitialStock     = "initial_stock"
	RefAdjustment       = "adjustment"
	RefManualAdjustment = "manual_adjustment"
)

// Movement is one append-only record of a stock quantity change and its cause.
// Quantity is stored uniformly positive; Kind is the sole sign indicator.
// Legacy callers that submit signed quantities are normalised at the handler
// boundary before the record is written.
type Movement struct {
	ID             int64           `json:"id"`
	ItemID         int64           `json:"item_id"`
	Kind           MovementKind    `json:"kind"`
	Quantity       float64         `json:"quantity"`
	PreviousStock  float64         `json:"previous_stock"`
	NewStock       float64         `json:"new_stock"`
	ReferenceType  string          `json:"reference_type"`
	ReferenceID    *int64          `json:"reference_id,omitempty"`
	CounterpartyID *int64          `json:"counterparty_id,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       shared.Currency `json:"currency"`
	Notes          string          `json:"notes,omitempty"`
	Actor          string          `json:"actor,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SignedQuantity returns the quantity with the direction applied.
func (m Movement) SignedQuantity() float64 {
	if m.Kind == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}

// ErrInsufficientStock is returned on the sale path in strict stock mode when
// an out movement would drive the balance negative.
var ErrInsufficientStock = fmt.Errorf("insufficient stock: %w", shared.ErrConflict)

// ErrMissingParentStock is returned when a sold sub-category has no parent
// pool item to draw stock from.
var ErrMissingParentStock = fmt.Errorf("parent stock item missing: %w", shared.ErrConflict)

// stockParentCategory maps sub-categories onto the parent category whose pool
// item physically holds their stock. Several catalog entries share one pool.
var stockParentCategory = map[string]string{
	"erkek cuzdan": "cuzdan",
	"bayan cuzdan": "cuzdan",
	"kartlik":      "cuzdan",
	"klasik kemer": "kemer",
	"spor kemer":   "kemer",
}

// ParentCategory reports the parent stock category for a sub-category, if any.
func ParentCategory(category string) (string, bool) {
	parent, ok := stockParentCategory[strings.ToLower(strings.TrimSpace(category))]
	return parent, ok
}
