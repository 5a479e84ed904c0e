package reportshttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/amsilks/amsilks-erp/internal/platform/httpx"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/reports"
)

// ReportService defines the report operations used by the handler.
type ReportService interface {
	ProfitAndLoss(ctx context.Context, period reports.Period) (reports.ProfitAndLoss, error)
	ProjectProfits(ctx context.Context, period reports.Period) ([]reports.ProjectProfit, error)
}

// Handler serves the owner reports.
type Handler struct {
	logger  *slog.Logger
	service ReportService
	rbac    rbac.Middleware
}

// NewHandler constructs the reports HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: guard}
}

type projectsResponse struct {
	Period   reports.Period          `json:"period"`
	Projects []reports.ProjectProfit `json:"projects"`
}

func (h *Handler) handleProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pl, err := h.service.ProfitAndLoss(r.Context(), period)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pl)
}

func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	projects, err := h.service.ProjectProfits(r.Context(), period)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projectsResponse{Period: period, Projects: projects})
}

func parsePeriod(r *http.Request) (reports.Period, error) {
	from, err := httpx.QueryDate(r, "from")
	if err != nil {
		return reports.Period{}, err
	}
	to, err := httpx.QueryDate(r, "to")
	if err != nil {
		return reports.Period{}, err
	}
	return reports.Period{From: from, To: to}, nil
}
