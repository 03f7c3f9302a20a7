package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kislikjeka/wizmoney/internal/infra/bolt"
	"github.com/kislikjeka/wizmoney/internal/infra/postgres"
	infraRedis "github.com/kislikjeka/wizmoney/internal/infra/redis"
	"github.com/kislikjeka/wizmoney/internal/ledger"
	"github.com/kislikjeka/wizmoney/internal/module/report"
	"github.com/kislikjeka/wizmoney/internal/platform/currency"
	"github.com/kislikjeka/wizmoney/internal/platform/sync"
	"github.com/kislikjeka/wizmoney/internal/platform/workspace"
	"github.com/kislikjeka/wizmoney/internal/transport/httpapi"
	"github.com/kislikjeka/wizmoney/internal/transport/httpapi/handler"
	"github.com/kislikjeka/wizmoney/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/wizmoney/pkg/config"
	"github.com/kislikjeka/wizmoney/pkg/logger"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithFormat(cfg.Env, cfg.LogFormat, os.Stdout)
	log.Info("Starting wizmoney API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	settings, err := defaultSettings(cfg)
	if err != nil {
		log.Error("Invalid currency configuration", "error", err)
		os.Exit(1)
	}
	log.Info("Currency settings loaded",
		"display_currency", settings.Display(),
		"base_currency", settings.Rates.Base(),
		"rates", len(settings.Rates.Codes()))

	// Local store (always on)
	local, err := bolt.Open(cfg.DataDir)
	if err != nil {
		log.Error("Failed to open local store", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}
	defer local.Close()
	log.Info("Local store opened", "data_dir", cfg.DataDir)

	checks := map[string]handler.Pinger{"local": local}

	// Remote document store (optional)
	var remote ledger.SnapshotStore
	if cfg.RemoteEnabled() {
		db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db.Pool); err != nil {
			log.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
		remote = postgres.NewBookRepository(db.Pool)
		checks["database"] = handler.PingerFunc(db.Health)
		log.Info("Database connection established")
	} else {
		log.Warn("DATABASE_URL not configured, remote store disabled")
	}

	// Push channel (optional)
	var push *infraRedis.Channel
	if cfg.PushEnabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()

		push = infraRedis.NewChannel(redisClient, log)
		if err := push.Ping(ctx); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		checks["redis"] = push
		log.Info("Redis connection established")
	} else {
		log.Warn("REDIS_URL not configured, push channel disabled")
	}

	// Replication and open books
	syncCfg := &sync.Config{
		Timeout:    cfg.SyncTimeout,
		Listen:     push != nil,
		InstanceID: cfg.InstanceID,
	}
	var publisher sync.Publisher
	if push != nil {
		publisher = push
	}
	replicator := sync.NewReplicator(syncCfg, local, remote, publisher, log)
	log.Info("Replication configured", "instance_id", replicator.InstanceID())

	if remote != nil {
		uploaded, err := replicator.Reconcile(ctx)
		if err != nil {
			log.Warn("Failed to reconcile local snapshots", "error", err)
		}
		if uploaded > 0 {
			log.Info("Uploaded local snapshots to remote store", "count", uploaded)
		}
	}

	books := workspace.NewManager(
		workspace.WithLoader(replicator),
		workspace.WithPersister(replicator),
		workspace.WithDefaultSettings(settings),
		workspace.WithLogger(log),
	)

	var listener *sync.Listener
	if push != nil {
		listener = sync.NewListener(syncCfg, push, replicator, books, log)
	}

	// Initialize HTTP handlers
	jwtSvc := middleware.NewJWTService(cfg.JWTSecret)
	r := httpapi.NewRouter(httpapi.Config{
		Logger:             log,
		AllowedOrigins:     cfg.AllowedOrigins,
		BookHandler:        handler.NewBookHandler(books, log),
		AccountHandler:     handler.NewAccountHandler(books),
		TransactionHandler: handler.NewTransactionHandler(books, log),
		TemplateHandler:    handler.NewTemplateHandler(books),
		SettingsHandler:    handler.NewSettingsHandler(books),
		ReportHandler:      handler.NewReportHandler(books, report.NewService()),
		HealthHandler:      handler.NewHealthHandler(checks),
		JWTMiddleware:      middleware.JWTMiddleware(jwtSvc),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start push listener (if configured)
	if listener != nil {
		go listener.Run(ctx)
		log.Info("Push listener started")
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutdown signal received")

	if listener != nil {
		listener.Stop()
		log.Info("Push listener stopped")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}

	if err := books.Close(shutdownCtx); err != nil {
		log.Warn("Failed to flush open books", "error", err)
	}
	if err := replicator.Drain(shutdownCtx); err != nil {
		log.Warn("Pending snapshots were not replicated", "error", err)
	}

	log.Info("Server stopped gracefully")
}

// defaultSettings builds the settings new books start with: the rates file
// when configured, otherwise the built-in table for the base currency
func defaultSettings(cfg *config.Config) (currency.Settings, error) {
	var rates currency.Rates
	switch {
	case cfg.RatesFile != "":
		file, err := config.LoadRatesConfig(cfg.RatesFile)
		if err != nil {
			return currency.Settings{}, err
		}
		rates, err = currency.NewRates(file.Base, file.Rates)
		if err != nil {
			return currency.Settings{}, fmt.Errorf("invalid rates file: %w", err)
		}
	case cfg.BaseCurrency == currency.DefaultBase:
		rates = currency.DefaultRates()
	default:
		var err error
		rates, err = currency.NewRates(cfg.BaseCurrency, nil)
		if err != nil {
			return currency.Settings{}, err
		}
	}
	return currency.NewSettings(cfg.DisplayCurrency, rates)
}
