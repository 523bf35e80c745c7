package procurement

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

// Handler wires HTTP endpoints for purchases.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs procurement handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/purchases", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
	})
}

type purchaseLinePayload struct {
	ItemID    int64   `json:"item_id" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice string  `json:"unit_price" validate:"required"`
	Brand     string  `json:"brand"`
}

type purchasePayload struct {
	SupplierID   int64                 `json:"supplier_id" validate:"required"`
	Currency     string                `json:"currency"`
	PurchaseDate string                `json:"purchase_date"`
	Notes        string                `json:"notes"`
	Items        []purchaseLinePayload `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload purchasePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	input := CreatePurchaseInput{
		SupplierID:     payload.SupplierID,
		Currency:       shared.ParseCurrency(payload.Currency),
		Notes:          payload.Notes,
		Actor:          auth.ActorFromContext(r.Context()),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	if payload.PurchaseDate != "" {
		date, err := time.Parse("2006-01-02", payload.PurchaseDate)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "purchase_date must be YYYY-MM-DD")
			return
		}
		input.PurchaseDate = date
	}
	for _, line := range payload.Items {
		price, err := decimal.NewFromString(line.UnitPrice)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "unit_price must be numeric")
			return
		}
		input.Lines = append(input.Lines, PurchaseLineInput{
			ItemID:    line.ItemID,
			Quantity:  line.Quantity,
			UnitPrice: price,
			Brand:     line.Brand,
		})
	}
	purchase, err := h.service.CreatePurchase(r.Context(), input)
	if err != nil {
		h.logger.Error("create purchase failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, purchase)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	purchases, total, err := h.service.ListPurchases(r.Context(), page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Paged(w, purchases, total, page.Page, page.Limit)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	purchase, items, err := h.service.GetPurchase(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"purchase": purchase, "items": items})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeletePurchase(r.Context(), id, auth.ActorFromContext(r.Context())); err != nil {
		h.logger.Error("delete purchase failed", slog.Int64("purchase_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}
