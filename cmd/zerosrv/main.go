// Package main provides the zerosrv match coordinator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/raphaelgruber/zerosrv/internal/champion"
	"github.com/raphaelgruber/zerosrv/internal/config"
	"github.com/raphaelgruber/zerosrv/internal/db"
	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/notify"
	"github.com/raphaelgruber/zerosrv/internal/server"
	"github.com/raphaelgruber/zerosrv/internal/service"
	"github.com/raphaelgruber/zerosrv/internal/sprt"
	"github.com/raphaelgruber/zerosrv/internal/verify"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	if err := run(cfg, logger, *wipeDB); err != nil {
		logger.Error("zerosrv stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger, wipe bool) error {
	logger.Info("starting zerosrv", "port", cfg.Port)

	if cfg.VerificationSecret == "" {
		logger.Warn("no verification secret configured, match results are only checked against public data")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := db.NewClient(connectCtx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := store.InitSchema(connectCtx); err != nil {
		cancel()
		return fmt.Errorf("initialize schema: %w", err)
	}
	if wipe || os.Getenv("ZEROSRV_WIPE_DB") == "true" {
		if err := store.WipeData(connectCtx); err != nil {
			cancel()
			return fmt.Errorf("wipe database: %w", err)
		}
		logger.Warn("database wiped")
	}
	cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	collector := metrics.NewCollector()

	best := champion.NewCache(cfg.BestNetworkPath, cfg.NetworkDir, logger)
	best.OnRecompute = m.ObserveRecompute

	verifier := verify.New(cfg.VerificationSecret)
	throttle := sprt.Throttle{PessimisticRate: cfg.PessimisticRate, Buffer: cfg.QueueBuffer}
	queue := service.NewMatchQueue(throttle, cfg.RequestExpiry, logger)
	fast := service.NewFastClientTracker(store, service.FastClientConfig{
		Window:     cfg.FastClientWindow,
		MinSamples: cfg.FastClientSamples,
	}, logger)
	listing := service.NewMatchListing(store, cfg.ListingLimit, cfg.ListingTTL)

	var notifier service.Notifier
	if discord := notify.NewDiscord(cfg.DiscordWebhookURL); discord.Enabled() {
		notifier = discord
	}

	dispatcher := service.NewDispatcher(queue, fast, best, verifier, store, listing, m, service.DispatchConfig{
		ClientVersion:       cfg.ClientVersion,
		LeelazVersion:       cfg.LeelazVersion,
		SelfPlay:            cfg.SelfPlay,
		NoResignProbability: cfg.NoResignProbability,
	}, logger)
	results := service.NewResultIngester(store, queue, best, verifier, listing, notifier, m, logger)
	selfPlay := service.NewSelfPlayIngester(store, m, logger)

	defaults := service.DefaultMatchDefaults()
	defaults.Visits = cfg.Match.Visits
	defaults.ResignationPercent = cfg.Match.ResignationPercent
	defaults.NumberToPlay = cfg.Match.NumberToPlay
	matches := service.NewMatchService(store, queue, listing, defaults, logger)

	scheduler := service.NewScheduler(queue, store, fast, best, m, collector, service.SchedulerConfig{
		FastClientInterval: cfg.FastClientInterval,
		QueueCheckInterval: cfg.QueueCheckInterval,
		EmptyQueueCooldown: cfg.EmptyQueueCooldown,
	}, logger)
	scheduler.Start(ctx)

	bgCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()
	go scheduler.Run(bgCtx)
	go func() {
		if err := best.Watch(bgCtx); err != nil {
			logger.Error("champion watcher stopped", "error", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Deps{
		Dispatcher: dispatcher,
		Results:    results,
		SelfPlay:   selfPlay,
		Matches:    matches,
		Listing:    listing,
		Champion:   best,
		Store:      store,
		Metrics:    m,
		Collector:  collector,
		Gatherer:   reg,
		AdminKey:   cfg.AdminKey,
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	cancelBg()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	dispatcher.Wait()
	results.Wait()
	logger.Info("server stopped")
	return nil
}
