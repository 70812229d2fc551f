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

	"github.com/luamAP/btc-project/internal/collector"
	"github.com/luamAP/btc-project/internal/compare"
	"github.com/luamAP/btc-project/internal/config"
	"github.com/luamAP/btc-project/internal/platform/sqlite"
	"github.com/luamAP/btc-project/internal/rate"
	marketrepo "github.com/luamAP/btc-project/internal/repository/market"
	"github.com/luamAP/btc-project/internal/scheduler"
	"github.com/luamAP/btc-project/internal/scraper/coinmarketcap"
	"github.com/luamAP/btc-project/internal/scraper/yahoo"
	"github.com/luamAP/btc-project/internal/server"
)

func main() {
	cfg := config.Load()

	// Root context: cancelled on SIGINT/SIGTERM so the scheduler and any
	// in-flight collection stop promptly during graceful shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Open database
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	repo := marketrepo.NewRepository(db.DB)

	// Upstream sources
	charts := yahoo.New()
	backup := coinmarketcap.New()
	rates := rate.NewService()

	// Services
	collectorSvc := collector.NewService(repo, charts, backup, rates,
		collector.WithThrottle(cfg.Throttle),
	)
	compareSvc := compare.NewService(repo)

	// Scheduler: keeps the store fresh in the background.
	sched := scheduler.New(func(ctx context.Context, days int) {
		collectorSvc.UpdateAll(ctx, days)
	})
	sched.RegisterDefaults()

	schedDone := make(chan struct{})
	go func() {
		sched.Run(rootCtx)
		close(schedDone)
	}()

	// HTTP server — rootCtx is used as BaseContext so every request context
	// inherits from it and is cancelled on shutdown.
	srv := server.New(rootCtx, cfg.Port, repo, compareSvc, collectorSvc, cfg.LookbackDays)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	<-done

	// Cancel root context first so the scheduler and in-flight requests
	// begin winding down immediately.
	rootCancel()
	<-schedDone

	// Then drain connections with a deadline.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
