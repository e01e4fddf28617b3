package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/app"
	"github.com/ledgerdesk/ledgerdesk/internal/approval"
	"github.com/ledgerdesk/ledgerdesk/internal/balance"
	"github.com/ledgerdesk/ledgerdesk/internal/gate"
	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/cache"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/db"
	"github.com/ledgerdesk/ledgerdesk/internal/trash"
)

func main() {
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

	var reserver ledger.Reserver = ledger.NopReserver{}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reuse-window check runs without reservations", slog.Any("error", err))
	} else {
		reserver = ledger.NewRedisReserver(redisClient)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	ledgerRepo := ledger.NewRepository(pool)
	referralRepo := balance.NewReferralRepository(pool)
	balanceService := balance.NewService(ledgerRepo, accountsRepo, referralRepo, metrics)
	balanceHandler := balance.NewHandler(balanceService, accountsRepo)

	ledgerService := ledger.NewService(ledgerRepo, accountsRepo, balanceService, reserver, cfg.TxIDReuseWindow, metrics, logger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	trashRepo := trash.NewRepository(pool)
	trashService := trash.NewService(trashRepo, metrics, logger)
	trashHandler := trash.NewHandler(logger, trashService)

	approvalRepo := approval.NewRepository(pool)
	approvalService := approval.NewService(approvalRepo, accountsRepo, metrics, logger)
	approvalHandler := approval.NewHandler(logger, approvalService)

	g := gate.New([]byte(cfg.JWTSecret), logger)

	router := app.NewRouter(app.MiddlewareConfig{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
	}, g, pool, app.Handlers{
		Accounts: accountsHandler,
		Ledger:   ledgerHandler,
		Balance:  balanceHandler,
		Approval: approvalHandler,
		Trash:    trashHandler,
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
