package expenseshttp

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/amsilks/amsilks-erp/internal/expenses"
	"github.com/amsilks/amsilks-erp/internal/platform/httpx"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

// ExpenseService defines the expense operations used by the handler.
type ExpenseService interface {
	Record(ctx context.Context, in expenses.Input, actor expenses.Actor) (expenses.Expense, error)
	List(ctx context.Context, filter expenses.Filter) ([]expenses.Expense, error)
}

// Handler serves the expense endpoints.
type Handler struct {
	logger   *slog.Logger
	service  ExpenseService
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler constructs the expense HTTP handler.
func NewHandler(logger *slog.Logger, service ExpenseService, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator(), rbac: guard}
}

type expenseRequest struct {
	Date     string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Category string          `json:"category" validate:"required,max=40"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note" validate:"max=500"`
	Project  string          `json:"project" validate:"max=120"`
}

type listResponse struct {
	Expenses []expenses.Expense `json:"expenses"`
	Total    decimal.Decimal    `json:"total"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}
	id, name, _ := shared.CurrentUser(r.Context())
	saved, err := h.service.Record(r.Context(), expenses.Input{
		Date:     date,
		Category: req.Category,
		Amount:   req.Amount,
		Note:     req.Note,
		Project:  req.Project,
	}, expenses.Actor{ID: id, Name: name})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Location", "/expenses?project="+url.QueryEscape(saved.Project))
	httpx.JSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := listResponse{Expenses: items, Total: decimal.Zero}
	if resp.Expenses == nil {
		resp.Expenses = []expenses.Expense{}
	}
	for _, e := range items {
		resp.Total = resp.Total.Add(e.Amount)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (expenses.Filter, error) {
	var (
		f   expenses.Filter
		err error
	)
	if f.From, err = httpx.QueryDate(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = httpx.QueryDate(r, "to"); err != nil {
		return f, err
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		if f.Category, err = expenses.ParseCategory(raw); err != nil {
			return f, err
		}
	}
	f.Project = r.URL.Query().Get("project")
	return f, nil
}
