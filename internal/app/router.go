package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	alertshttp "github.com/amsilks/amsilks-erp/internal/alerts/http"
	audithttp "github.com/amsilks/amsilks-erp/internal/audit/http"
	"github.com/amsilks/amsilks-erp/internal/auth"
	expenseshttp "github.com/amsilks/amsilks-erp/internal/expenses/http"
	ledgerhttp "github.com/amsilks/amsilks-erp/internal/ledger/http"
	"github.com/amsilks/amsilks-erp/internal/observability"
	ordershttp "github.com/amsilks/amsilks-erp/internal/orders/http"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	reportshttp "github.com/amsilks/amsilks-erp/internal/reports/http"
	"github.com/amsilks/amsilks-erp/internal/shared"
	"github.com/amsilks/amsilks-erp/jobs"
	"github.com/amsilks/amsilks-erp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler        *auth.Handler
	OrdersHandler      *ordershttp.Handler
	LedgerHandler      *ledgerhttp.Handler
	ExpensesHandler    *expenseshttp.Handler
	ReportsHandler     *reportshttp.Handler
	AlertsHandler      *alertshttp.Handler
	PermissionsHandler *rbac.PermissionsHandler
	AuditHandler       *audithttp.Handler
	ReportHandler      *report.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the shop's defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}
	if params.OrdersHandler != nil {
		params.OrdersHandler.MountRoutes(r)
	}
	if params.LedgerHandler != nil {
		params.LedgerHandler.MountRoutes(r)
	}
	if params.ExpensesHandler != nil {
		params.ExpensesHandler.MountRoutes(r)
	}
	if params.ReportsHandler != nil {
		params.ReportsHandler.MountRoutes(r)
	}
	if params.AlertsHandler != nil {
		params.AlertsHandler.MountRoutes(r)
	}
	if params.PermissionsHandler != nil {
		params.PermissionsHandler.MountRoutes(r)
	}
	if params.AuditHandler != nil {
		params.AuditHandler.MountRoutes(r)
	}

	// Operational endpoints are for whoever may read the books.
	r.Group(func(r chi.Router) {
		r.Use(params.RBACMiddleware.RequireAny(shared.PermReportsView))
		if params.ReportHandler != nil {
			params.ReportHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			params.JobHandler.MountRoutes(r)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
