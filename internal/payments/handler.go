package payments

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

// Handler wires HTTP endpoints for payments.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs payments handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Get("/counterparty/{id}", h.handleListByCounterparty)
		r.Delete("/{id}", h.handleDelete)
	})
}

type paymentPayload struct {
	CounterpartyID int64  `json:"counterparty_id" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Currency       string `json:"currency"`
	PaymentType    string `json:"payment_type" validate:"omitempty,oneof=cash transfer cheque"`
	PaymentDate    string `json:"payment_date"`
	Notes          string `json:"notes"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload paymentPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "amount must be numeric")
		return
	}
	input := CreatePaymentInput{
		CounterpartyID: payload.CounterpartyID,
		Amount:         amount,
		Currency:       shared.ParseCurrency(payload.Currency),
		PaymentType:    payload.PaymentType,
		Notes:          payload.Notes,
		Actor:          auth.ActorFromContext(r.Context()),
	}
	if payload.PaymentDate != "" {
		date, err := time.Parse("2006-01-02", payload.PaymentDate)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "payment_date must be YYYY-MM-DD")
			return
		}
		input.PaymentDate = date
	}
	payment, err := h.service.CreatePayment(r.Context(), input)
	if err != nil {
		h.logger.Error("create payment failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, payment)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	payments, total, err := h.service.ListPayments(r.Context(), page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Paged(w, payments, total, page.Page, page.Limit)
}

func (h *Handler) handleListByCounterparty(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	page := shared.ParsePageRequest(r)
	payments, total, err := h.service.ListByCounterparty(r.Context(), id, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Paged(w, payments, total, page.Page, page.Limit)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, payment)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeletePayment(r.Context(), id, auth.ActorFromContext(r.Context())); err != nil {
		h.logger.Error("delete payment failed", slog.Int64("payment_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}
