package cash

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

// Handler wires HTTP endpoints for the cash ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs cash handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers cash routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/cash", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

type transactionPayload struct {
	Type        string `json:"type" validate:"required,oneof=in out"`
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) decodeTransaction(r *http.Request) (Transaction, string, bool) {
	var payload transactionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		return Transaction{}, "invalid payload", false
	}
	if err := h.validate.Struct(payload); err != nil {
		return Transaction{}, err.Error(), false
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		return Transaction{}, "amount must be numeric", false
	}
	return Transaction{
		Direction:   Direction(payload.Type),
		Amount:      amount.Round(2),
		Currency:    shared.ParseCurrency(payload.Currency),
		Category:    payload.Category,
		Description: payload.Description,
		Actor:       auth.ActorFromContext(r.Context()),
	}, "", true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	txn, msg, ok := h.decodeTransaction(r)
	if !ok {
		httpx.Fail(w, http.StatusBadRequest, msg)
		return
	}
	created, err := h.service.CreateTransaction(r.Context(), txn)
	if err != nil {
		h.logger.Error("create cash transaction failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	txn, msg, ok := h.decodeTransaction(r)
	if !ok {
		httpx.Fail(w, http.StatusBadRequest, msg)
		return
	}
	txn.ID = id
	updated, err := h.service.UpdateTransaction(r.Context(), txn)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), id, auth.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	filter := ListFilter{
		Direction: Direction(r.URL.Query().Get("type")),
		Category:  r.URL.Query().Get("category"),
	}
	if raw := r.URL.Query().Get("currency"); raw != "" {
		filter.Currency = shared.ParseCurrency(raw)
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		filter.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		filter.To = to
	}
	txns, total, err := h.service.ListTransactions(r.Context(), filter, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Paged(w, txns, total, page.Page, page.Limit)
}
