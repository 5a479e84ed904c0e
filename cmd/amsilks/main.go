package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/amsilks/amsilks-erp/cmd/amsilks/cli"
	"github.com/amsilks/amsilks-erp/internal/alerts"
	alertshttp "github.com/amsilks/amsilks-erp/internal/alerts/http"
	"github.com/amsilks/amsilks-erp/internal/app"
	"github.com/amsilks/amsilks-erp/internal/audit"
	audithttp "github.com/amsilks/amsilks-erp/internal/audit/http"
	"github.com/amsilks/amsilks-erp/internal/auth"
	"github.com/amsilks/amsilks-erp/internal/documents"
	"github.com/amsilks/amsilks-erp/internal/expenses"
	expenseshttp "github.com/amsilks/amsilks-erp/internal/expenses/http"
	"github.com/amsilks/amsilks-erp/internal/ledger"
	ledgerhttp "github.com/amsilks/amsilks-erp/internal/ledger/http"
	"github.com/amsilks/amsilks-erp/internal/observability"
	"github.com/amsilks/amsilks-erp/internal/orders"
	ordershttp "github.com/amsilks/amsilks-erp/internal/orders/http"
	"github.com/amsilks/amsilks-erp/internal/platform/cache"
	"github.com/amsilks/amsilks-erp/internal/platform/db"
	"github.com/amsilks/amsilks-erp/internal/platform/migration"
	"github.com/amsilks/amsilks-erp/internal/rbac"
	"github.com/amsilks/amsilks-erp/internal/reports"
	reportshttp "github.com/amsilks/amsilks-erp/internal/reports/http"
	"github.com/amsilks/amsilks-erp/internal/shared"
	"github.com/amsilks/amsilks-erp/jobs"
	"github.com/amsilks/amsilks-erp/report"
)

// services holds everything both the server and the maintenance commands use.
type services struct {
	auth      *auth.Service
	ledger    *ledger.Service
	orders    *orders.Service
	expenses  *expenses.Service
	reports   *reports.Service
	alerts    *alerts.Service
	documents *documents.Renderer
	pdf       *report.Client
}

func buildServices(cfg *app.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) (*services, error) {
	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore()

	pdfClient := report.NewClient(cfg.GotenbergURL)
	renderer, err := documents.NewRenderer(documents.Business{
		Name:     cfg.BusinessName,
		Contact:  cfg.BusinessContact,
		Currency: cfg.Currency,
	}, pdfClient)
	if err != nil {
		return nil, err
	}

	ledgerService := ledger.NewService(ledger.NewRepository(pool), auditLogger, logger)
	ordersService := orders.NewService(
		orders.NewRepository(pool, idempotency),
		orders.NewRedisCartStore(redisClient, cfg.CartTTL),
		auditLogger,
		logger,
	)
	expensesService := expenses.NewService(expenses.NewRepository(pool), auditLogger, logger)
	return &services{
		auth:      auth.NewService(auth.NewRepository(pool)),
		ledger:    ledgerService,
		orders:    ordersService,
		expenses:  expensesService,
		reports:   reports.NewService(ordersService, expensesService, logger),
		alerts:    alerts.NewService(ledgerService, renderer.Money(), logger),
		documents: renderer,
		pdf:       pdfClient,
	}, nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := migration.Run(pool); err != nil {
			logger.Error("migrate schema", slog.Any("error", err))
			return 1
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	svc, err := buildServices(cfg, pool, redisClient, logger)
	if err != nil {
		logger.Error("build services", slog.Any("error", err))
		return 1
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	if len(os.Args) > 1 && cli.IsCommand(os.Args[1]) {
		jobClient := jobs.NewClient(redisOpts)
		defer func() { _ = jobClient.Close() }()
		code := cli.Run(ctx, os.Args[1:], cli.Deps{
			Importer:   svc.ledger,
			Statements: svc.ledger,
			Writer:     svc.documents,
			Jobs:       cli.NewJobsCLI(jobClient, inspector),
			Users:      svc.auth,
			Actor:      ledger.Actor{Name: "import"},
		})
		return code
	}

	sessionManager := shared.NewSessionManager(redisClient, "amsilks_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	rbacService := rbac.NewService(svc.auth)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        auth.NewHandler(logger, svc.auth, sessionManager, csrfManager),
		OrdersHandler:      ordershttp.NewHandler(logger, svc.orders, svc.documents, rbacMiddleware),
		LedgerHandler:      ledgerhttp.NewHandler(logger, svc.ledger, svc.documents, rbacMiddleware),
		ExpensesHandler:    expenseshttp.NewHandler(logger, svc.expenses, rbacMiddleware),
		ReportsHandler:     reportshttp.NewHandler(logger, svc.reports, rbacMiddleware),
		AlertsHandler:      alertshttp.NewHandler(logger, svc.alerts, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware),
		AuditHandler:       audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(pool)), rbacMiddleware),
		ReportHandler:      report.NewHandler(svc.pdf, logger),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("currency", cfg.Currency))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}
