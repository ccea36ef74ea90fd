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

	"github.com/go-playground/validator/v10"

	"github.com/tallyforge/tallyforge/internal/app"
	"github.com/tallyforge/tallyforge/internal/billing/invoices"
	"github.com/tallyforge/tallyforge/internal/billing/settlements"
	"github.com/tallyforge/tallyforge/internal/catalog/products"
	"github.com/tallyforge/tallyforge/internal/delivery/challans"
	"github.com/tallyforge/tallyforge/internal/masterdata/companies"
	"github.com/tallyforge/tallyforge/internal/platform/cache"
	"github.com/tallyforge/tallyforge/internal/platform/db"
	"github.com/tallyforge/tallyforge/internal/procurement/purchaseorders"
	"github.com/tallyforge/tallyforge/internal/sales/customers"
	"github.com/tallyforge/tallyforge/internal/sales/quotations"
	"github.com/tallyforge/tallyforge/internal/shared"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, summaries uncached", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	validate := validator.New()

	companyRepo := companies.NewRepository(pool)
	companyService := companies.NewService(companyRepo)
	companyHandler := companies.NewHandler(logger, companyService, validate)

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo)
	customerHandler := customers.NewHandler(logger, customerService, validate)

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo)
	productHandler := products.NewHandler(logger, productService, validate)

	quotationRepo := quotations.NewRepository(pool)
	quotationService := quotations.NewService(logger, quotationRepo, companyRepo, customerRepo, quotations.NewCatalogChecker(productRepo))
	quotationHandler := quotations.NewHandler(logger, quotationService, validate)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(logger, invoiceRepo, companyRepo, customerRepo, quotationRepo)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, validate)

	settlementRepo := settlements.NewRepository(pool)
	settlementService := settlements.NewService(logger, settlementRepo)
	if redisClient != nil {
		settlementService.WithCache(settlements.NewSummaryCache(redisClient, time.Minute))
	}
	settlementHandler := settlements.NewHandler(logger, settlementService, validate, shared.NewIdempotencyStore(pool))

	orderRepo := purchaseorders.NewRepository(pool)
	orderService := purchaseorders.NewService(logger, orderRepo, companyRepo)
	orderHandler := purchaseorders.NewHandler(logger, orderService, validate)

	challanRepo := challans.NewRepository(pool)
	challanService := challans.NewService(logger, challanRepo, companyRepo, customerRepo, invoiceRepo)
	challanHandler := challans.NewHandler(logger, challanService, validate)

	router := app.NewRouter(app.RouterConfig{
		Middleware: app.MiddlewareStack(app.MiddlewareConfig{Logger: logger, Config: cfg}),
		Handlers: []app.RouteMounter{
			companyHandler,
			customerHandler,
			productHandler,
			quotationHandler,
			invoiceHandler,
			settlementHandler,
			orderHandler,
			challanHandler,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      http.TimeoutHandler(router, cfg.AppRequestTimeout, "request timed out"),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", slog.Any("error", err))
			os.Exit(1)
		}
	}
	logger.Info("server stopped")
}
