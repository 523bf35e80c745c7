package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/deristok/deristok/internal/platform/httpx"
)

// Handler wires the login endpoint and the auth middleware.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs auth handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResult struct {
	Token    string   `json:"token"`
	Operator Operator `json:"operator"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	token, op, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.String("username", payload.Username))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, loginResult{Token: token, Operator: op})
}

// RequireAuth verifies the bearer token and stores the actor in context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.Fail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		actor, err := h.service.VerifyToken(token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}
