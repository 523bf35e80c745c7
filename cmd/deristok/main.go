package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/deristok/deristok/internal/app"
	"github.com/deristok/deristok/internal/auth"
	"github.com/deristok/deristok/internal/cash"
	"github.com/deristok/deristok/internal/inventory"
	"github.com/deristok/deristok/internal/ledger"
	"github.com/deristok/deristok/internal/payments"
	"github.com/deristok/deristok/internal/payroll"
	"github.com/deristok/deristok/internal/platform/cache"
	"github.com/deristok/deristok/internal/platform/db"
	"github.com/deristok/deristok/internal/procurement"
	"github.com/deristok/deristok/internal/reports"
	"github.com/deristok/deristok/internal/sales"
	"github.com/deristok/deristok/internal/shared"
	"github.com/deristok/deristok/jobs"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.Connect(ctx, cfg.PGDSN, db.ConnectOptions{
		Attempts: cfg.DBConnectAttempts,
		Backoff:  cfg.DBConnectBackoff,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, cfg.JWTSecret, cfg.JWTTTL)
	if err := authService.EnsureDefaultOperator(ctx, "admin", "admin", "Yönetici"); err != nil {
		logger.Error("seed default operator", slog.Any("error", err))
		os.Exit(1)
	}
	authHandler := auth.NewHandler(logger, authService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, auditLogger, idempotencyStore, sales.ServiceConfig{
		StrictStockMode: cfg.StrictStockMode,
	})
	salesHandler := sales.NewHandler(logger, salesService)

	procurementRepo := procurement.NewRepository(dbpool)
	procurementService := procurement.NewService(procurementRepo, auditLogger, idempotencyStore)
	procurementHandler := procurement.NewHandler(logger, procurementService)

	cashRepo := cash.NewRepository(dbpool)
	cashService := cash.NewService(cashRepo, auditLogger)
	cashHandler := cash.NewHandler(logger, cashService)

	paymentsRepo := payments.NewRepository(dbpool)
	paymentsService := payments.NewService(logger, paymentsRepo, ledgerService, cashRepo, auditLogger)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	payrollRepo := payroll.NewRepository(dbpool)
	payrollService := payroll.NewService(logger, payrollRepo, cashRepo, auditLogger)
	payrollHandler := payroll.NewHandler(logger, payrollService)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(logger, reportsRepo, redisClient, cfg.ReportCacheTTL)
	reportsHandler := reports.NewHandler(logger, reportsService)

	var jobsHandler *jobs.Handler
	if redisClient != nil {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := asynqClient.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		jobsHandler = jobs.NewHandler(logger, asynqClient)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		InventoryHandler:   inventoryHandler,
		LedgerHandler:      ledgerHandler,
		SalesHandler:       salesHandler,
		ProcurementHandler: procurementHandler,
		PaymentsHandler:    paymentsHandler,
		CashHandler:        cashHandler,
		PayrollHandler:     payrollHandler,
		ReportsHandler:     reportsHandler,
		JobsHandler:        jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
	}
}
