package sales

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/deristok/deristok/internal/auth"
	"github.com/deristok/deristok/internal/platform/httpx"
	"github.com/deristok/deristok/internal/shared"
)

// Handler wires HTTP endpoints for sales.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
	})
}

type saleLinePayload struct {
	ProductID        int64   `json:"product_id" validate:"required"`
	QuantityPieces   int     `json:"quantity_pieces" validate:"required,gt=0"`
	QuantityDesi     float64 `json:"quantity_desi" validate:"gte=0"`
	UnitPricePerDesi string  `json:"unit_price_per_desi" validate:"required"`
	Unit             string  `json:"unit"`
}

type salePayload struct {
	CustomerID    int64             `json:"customer_id" validate:"required"`
	Currency      string            `json:"currency"`
	PaymentStatus string            `json:"payment_status" validate:"omitempty,oneof=pending partial paid"`
	SaleDate      string            `json:"sale_date"`
	Notes         string            `json:"notes"`
	Items         []saleLinePayload `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload salePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	input := CreateSaleInput{
		CustomerID:     payload.CustomerID,
		Currency:       shared.ParseCurrency(payload.Currency),
		PaymentStatus:  payload.PaymentStatus,
		Notes:          payload.Notes,
		Actor:          auth.ActorFromContext(r.Context()),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	if payload.SaleDate != "" {
		date, err := time.Parse("2006-01-02", payload.SaleDate)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "sale_date must be YYYY-MM-DD")
			return
		}
		input.SaleDate = date
	}
	for _, line := range payload.Items {
		price, err := decimal.NewFromString(line.UnitPricePerDesi)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "unit_price_per_desi must be numeric")
			return
		}
		input.Lines = append(input.Lines, SaleLineInput{
			ProductID:        line.ProductID,
			QuantityPieces:   line.QuantityPieces,
			QuantityDesi:     line.QuantityDesi,
			UnitPricePerDesi: price,
			Unit:             line.Unit,
		})
	}
	sale, err := h.service.CreateSale(r.Context(), input)
	if err != nil {
		h.logger.Error("create sale failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, sale)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	sales, total, err := h.service.ListSales(r.Context(), page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Paged(w, sales, total, page.Page, page.Limit)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	sale, items, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"sale": sale, "items": items})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeleteSale(r.Context(), id, auth.ActorFromContext(r.Context())); err != nil {
		h.logger.Error("delete sale failed", slog.Int64("sale_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}
