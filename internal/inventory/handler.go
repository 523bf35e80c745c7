package inventory

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

// Handler wires HTTP endpoints for products, materials and both movement logs.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.handleCreateItem(KindProduct))
		r.Get("/", h.handleListItems(KindProduct))
		r.Get("/{id}", h.handleGetItem(KindProduct))
		r.Put("/{id}", h.handleUpdateItem(KindProduct))
		r.Delete("/{id}", h.handleDeleteItem(KindProduct))
		r.Post("/{id}/stock", h.handleUpdateStock(KindProduct))
	})
	r.Route("/materials", func(r chi.Router) {
		r.Post("/", h.handleCreateItem(KindMaterial))
		r.Get("/", h.handleListItems(KindMaterial))
		r.Get("/{id}", h.handleGetItem(KindMaterial))
		r.Put("/{id}", h.handleUpdateItem(KindMaterial))
		r.Delete("/{id}", h.handleDeleteItem(KindMaterial))
		r.Post("/{id}/stock", h.handleUpdateStock(KindMaterial))
	})
	r.Route("/stock-movements", func(r chi.Router) {
		r.Post("/", h.handleCreateMovement(KindProduct))
		r.Get("/", h.handleListMovements(KindProduct))
		r.Get("/product/{id}", h.handleListMovementsByItem(KindProduct))
	})
	r.Route("/material-movements", func(r chi.Router) {
		r.Post("/", h.handleCreateMovement(KindMaterial))
		r.Get("/", h.handleListMovements(KindMaterial))
		r.Get("/material/{id}", h.handleListMovementsByItem(KindMaterial))
	})
}

type itemPayload struct {
	Name          string  `json:"name" validate:"required"`
	Category      string  `json:"category"`
	Color         string  `json:"color"`
	Brand         string  `json:"brand"`
	StockQuantity float64 `json:"stock_quantity" validate:"gte=0"`
	Unit          string  `json:"unit"`
	Description   string  `json:"description"`
	SupplierID    *int64  `json:"supplier_id"`
	SupplierName  string  `json:"supplier_name"`
}

type stockPayload struct {
	StockQuantity float64 `json:"stock_quantity"`
	Notes         string  `json:"notes"`
}

type movementPayload struct {
	ItemID        int64   `json:"item_id" validate:"required,gt=0"`
	Kind          string  `json:"kind" validate:"omitempty,oneof=in out"`
	Quantity      float64 `json:"quantity" validate:"required"`
	ReferenceType string  `json:"reference_type"`
	Notes         string  `json:"notes"`
}

func (h *Handler) handleCreateItem(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload itemPayload
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if err := h.validate.Struct(payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		item, err := h.service.CreateItem(r.Context(), kind, CreateItemInput{
			Name:          payload.Name,
			Category:      payload.Category,
			Color:         payload.Color,
			Brand:         payload.Brand,
			StockQuantity: payload.StockQuantity,
			Unit:          payload.Unit,
			Description:   payload.Description,
			SupplierID:    payload.SupplierID,
			SupplierName:  payload.SupplierName,
			Actor:         auth.ActorFromContext(r.Context()),
		})
		if err != nil {
			h.logger.Error("create item failed", slog.String("kind", string(kind)), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.Created(w, item)
	}
}

func (h *Handler) handleListItems(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := shared.ParsePageRequest(r)
		items, total, err := h.service.ListItems(r.Context(), kind, page)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.Paged(w, items, total, page.Page, page.Limit)
	}
}

func (h *Handler) handleGetItem(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid id")
			return
		}
		item, err := h.service.GetItem(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, item)
	}
}

func (h *Handler) handleUpdateItem(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var payload itemPayload
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if err := h.validate.Struct(payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		item, err := h.service.UpdateItem(r.Context(), kind, id, UpdateItemInput{
			Name:        payload.Name,
			Category:    payload.Category,
			Color:       payload.Color,
			Brand:       payload.Brand,
			Unit:        payload.Unit,
			Description: payload.Description,
		})
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, item)
	}
}

func (h *Handler) handleDeleteItem(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := h.service.DeleteItem(r.Context(), kind, id, auth.ActorFromContext(r.Context())); err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, nil)
	}
}

func (h *Handler) handleUpdateStock(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid id")
			return
		}
		var payload stockPayload
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid payload")
			return
		}
		movement, err := h.service.UpdateStock(r.Context(), kind, id, payload.StockQuantity, payload.Notes, auth.ActorFromContext(r.Context()))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, movement)
	}
}

func (h *Handler) handleCreateMovement(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload movementPayload
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if err := h.validate.Struct(payload); err != nil {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		movement, err := h.service.RecordMovement(r.Context(), kind, MovementInput{
			ItemID:        payload.ItemID,
			Kind:          MovementKind(payload.Kind),
			Quantity:      payload.Quantity,
			ReferenceType: payload.ReferenceType,
			Notes:         payload.Notes,
			Actor:         auth.ActorFromContext(r.Context()),
		})
		if err != nil {
			h.logger.Error("record movement failed", slog.String("kind", string(kind)), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.Created(w, movement)
	}
}

func (h *Handler) handleListMovements(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := shared.ParsePageRequest(r)
		movements, total, err := h.service.ListMovements(r.Context(), kind, page)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.Paged(w, movements, total, page.Page, page.Limit)
	}
}

func (h *Handler) handleListMovementsByItem(kind ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid id")
			return
		}
		movements, err := h.service.ListMovementsByItem(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.OK(w, movements)
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
