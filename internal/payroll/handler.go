package payroll

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

// Handler wires HTTP endpoints for employees and salary payments.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs payroll handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/salary", h.handlePaySalary)
		r.Get("/{id}/salary", h.handleListSalaries)
	})
}

type employeePayload struct {
	Name      string `json:"name" validate:"required"`
	Position  string `json:"position"`
	Salary    string `json:"salary" validate:"required"`
	Currency  string `json:"currency"`
	Phone     string `json:"phone"`
	StartDate string `json:"start_date"`
	Active    *bool  `json:"active"`
}

func (h *Handler) decodeEmployee(r *http.Request) (Employee, string, bool) {
	var payload employeePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		return Employee{}, "invalid payload", false
	}
	if err := h.validate.Struct(payload); err != nil {
		return Employee{}, err.Error(), false
	}
	salary, err := decimal.NewFromString(payload.Salary)
	if err != nil {
		return Employee{}, "salary must be numeric", false
	}
	emp := Employee{
		Name:     payload.Name,
		Position: payload.Position,
		Salary:   salary.Round(2),
		Currency: shared.ParseCurrency(payload.Currency),
		Phone:    payload.Phone,
		Active:   true,
	}
	if payload.Active != nil {
		emp.Active = *payload.Active
	}
	if payload.StartDate != "" {
		start, err := time.Parse("2006-01-02", payload.StartDate)
		if err != nil {
			return Employee{}, "start_date must be YYYY-MM-DD", false
		}
		emp.StartDate = start
	} else {
		emp.StartDate = time.Now()
	}
	return emp, "", true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	emp, msg, ok := h.decodeEmployee(r)
	if !ok {
		httpx.Fail(w, http.StatusBadRequest, msg)
		return
	}
	created, err := h.service.CreateEmployee(r.Context(), emp, auth.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("create employee failed", slog.Any("error", err))
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
	emp, msg, ok := h.decodeEmployee(r)
	if !ok {
		httpx.Fail(w, http.StatusBadRequest, msg)
		return
	}
	emp.ID = id
	updated, err := h.service.UpdateEmployee(r.Context(), emp)
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
	if err := h.service.DeleteEmployee(r.Context(), id, auth.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	emp, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, emp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	employees, total, err := h.service.ListEmployees(r.Context(), page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Paged(w, employees, total, page.Page, page.Limit)
}

type salaryPayload struct {
	Amount string `json:"amount"`
	Period string `json:"period" validate:"required"`
	Notes  string `json:"notes"`
}

func (h *Handler) handlePaySalary(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var payload salaryPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	input := PaySalaryInput{
		EmployeeID: id,
		Period:     payload.Period,
		Notes:      payload.Notes,
		Actor:      auth.ActorFromContext(r.Context()),
	}
	if payload.Amount != "" {
		amount, err := decimal.NewFromString(payload.Amount)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "amount must be numeric")
			return
		}
		input.Amount = amount
	}
	payment, err := h.service.PaySalary(r.Context(), input)
	if err != nil {
		h.logger.Error("pay salary failed", slog.Int64("employee_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, payment)
}

func (h *Handler) handleListSalaries(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	page := shared.ParsePageRequest(r)
	payments, total, err := h.service.ListSalaryPayments(r.Context(), id, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Paged(w, payments, total, page.Page, page.Limit)
}
