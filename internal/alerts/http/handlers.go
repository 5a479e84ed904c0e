package alertshttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amsilks/amsilks-erp/internal/alerts"
	"github.com/amsilks/amsilks-erp/internal/platform/httpx"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

// Scanner builds the current alert digest.
type Scanner interface {
	Scan(ctx context.Context) (alerts.Digest, error)
}

// Handler serves GET /alerts.
type Handler struct {
	logger  *slog.Logger
	scanner Scanner
	rbac    rbac.Middleware
}

// NewHandler constructs the alerts handler.
func NewHandler(logger *slog.Logger, scanner Scanner, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, scanner: scanner, rbac: guard}
}

// MountRoutes registers the alerts endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.With(h.rbac.RequireAny(shared.PermAlertsView)).Get("/alerts", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	digest, err := h.scanner.Scan(r.Context())
	if err != nil {
		h.logger.Error("scan alerts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, digest)
}
