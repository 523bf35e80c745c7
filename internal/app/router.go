package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deristok/deristok/internal/auth"
	"github.com/deristok/deristok/internal/cash"
	"github.com/deristok/deristok/internal/inventory"
	"github.com/deristok/deristok/internal/ledger"
	"github.com/deristok/deristok/internal/payments"
	"github.com/deristok/deristok/internal/payroll"
	"github.com/deristok/deristok/internal/platform/httpx"
	"github.com/deristok/deristok/internal/procurement"
	"github.com/deristok/deristok/internal/reports"
	"github.com/deristok/deristok/internal/sales"
	"github.com/deristok/deristok/jobs"
)

// RouterParams aggregates handler dependencies for the router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	AuthHandler        *auth.Handler
	InventoryHandler   *inventory.Handler
	LedgerHandler      *ledger.Handler
	SalesHandler       *sales.Handler
	ProcurementHandler *procurement.Handler
	PaymentsHandler    *payments.Handler
	CashHandler        *cash.Handler
	PayrollHandler     *payroll.Handler
	ReportsHandler     *reports.Handler
	JobsHandler        *jobs.Handler
}

// NewRouter assembles the HTTP surface. Everything except login and health
// sits behind the auth middleware.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: params.Logger, Config: params.Config}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.OK(w, map[string]string{"status": "ok"})
	})
	params.AuthHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthHandler.RequireAuth)
		params.InventoryHandler.MountRoutes(r)
		params.LedgerHandler.MountRoutes(r)
		params.SalesHandler.MountRoutes(r)
		params.ProcurementHandler.MountRoutes(r)
		params.PaymentsHandler.MountRoutes(r)
		params.CashHandler.MountRoutes(r)
		params.PayrollHandler.MountRoutes(r)
		params.ReportsHandler.MountRoutes(r)
		if params.JobsHandler != nil {
			params.JobsHandler.MountRoutes(r)
		}
	})

	return r
}
