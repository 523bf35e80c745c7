package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/shared"
)

// Employee is one person on the payroll.
type Employee struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Position  string          `json:"position,omitempty"`
	Salary    decimal.Decimal `json:"salary"`
	Currency  shared.Currency `json:"currency"`
	Phone     string          `json:"phone,omitempty"`
	StartDate time.Time       `json:"start_date"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SalaryPayment is one paid salary, linked to its cash record by reference.
type SalaryPayment struct {
	ID         int64           `json:"id"`
	EmployeeID int64           `json:"employee_id"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   shared.Currency `json:"currency"`
	Period     string          `json:"period"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
