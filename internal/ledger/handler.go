package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/deristok/deristok/internal/auth"
	"github.com/deristok/deristok/internal/platform/httpx"
	"github.com/deristok/deristok/internal/shared"
)

// Handler wires HTTP endpoints for customers and suppliers.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers counterparty routes. Customers and suppliers share
// the entity; the route fixes the type.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.handleCreate(TypeCustomer))
		r.Get("/", h.handleList(TypeCustomer))
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
	r.Route("/suppliers", func(r chi.Router) {
		r.Post("/", h.handleCreate(TypeSupplier))
		r.Get("/", h.handleList(TypeSupplier))
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

type counterpartyPayload struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

func (h *Handler) handleCreate(cpType CounterpartyType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload counterpartyPayload
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if err := h.validate.Struct(payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		cp, err := h.service.CreateCounterparty(r.Context(), CounterpartyInput{
			Name:    payload.Name,
			Phone:   payload.Phone,
			Email:   payload.Email,
			Address: payload.Address,
			Type:    cpType,
			Actor:   auth.ActorFromContext(r.Context()),
		})
		if err != nil {
			h.logger.Error("create counterparty failed", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.Created(w, cp)
	}
}

func (h *Handler) handleList(cpType CounterpartyType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := shared.ParsePageRequest(r)
		parties, total, err := h.service.ListCounterparties(r.Context(), cpType, page)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.Paged(w, parties, total, page.Page, page.Limit)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	cp, err := h.service.GetCounterparty(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, cp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var payload counterpartyPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	cp, err := h.service.UpdateCounterparty(r.Context(), id, CounterpartyInput{
		Name:    payload.Name,
		Phone:   payload.Phone,
		Email:   payload.Email,
		Address: payload.Address,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, cp)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.service.DeleteCounterparty(r.Context(), id, auth.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}
