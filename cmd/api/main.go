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

	"campaign-dialer/internal/campaign"
	"campaign-dialer/internal/config"
	"campaign-dialer/internal/telephony"
	"campaign-dialer/pkg/logger"
	"campaign-dialer/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// History mirror is optional; without Postgres the in-memory store is the
	// only history.
	var recorder campaign.Recorder
	if cfg.DB.Enabled() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		recorder, err = campaign.NewPostgresRecorder(rootCtx, db)
		if err != nil {
			log.Error("history recorder init failed", "err", err)
			os.Exit(1)
		}
	}

	// Dispatch lease is optional; without Redis this process assumes it is the
	// only dispatcher.
	var lease campaign.Lease
	if cfg.Redis.Enabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		lease, err = utils.NewDispatchLease(rdb, "campaign-dialer:dispatch-lease", 0)
		if err != nil {
			log.Error("dispatch lease init failed", "err", err)
			os.Exit(1)
		}
	}

	dialer := telephony.NewTwilioDialer(cfg.Twilio, cfg.App.PublicBaseURL, cfg.Dialer.ProviderTimeout)

	manager := campaign.NewManager(campaign.Options{
		PacingInterval:     cfg.Dialer.PacingInterval,
		ProviderTimeout:    cfg.Dialer.ProviderTimeout,
		DefaultCountryCode: cfg.Dialer.DefaultCountryCode,
		HistoryLimit:       cfg.Dialer.HistoryLimit,
	}, dialer, recorder, lease, log)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, manager)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	// Stop the dispatch loop only after the listener is drained so in-flight
	// webhooks still reconcile.
	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.Error("dispatcher shutdown failed", "err", err)
	}
}
