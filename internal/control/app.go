package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/txsubmit/internal/core/config"
	"github.com/vietddude/txsubmit/internal/core/worker"
	redisclient "github.com/vietddude/txsubmit/internal/infra/redis"
	"github.com/vietddude/txsubmit/internal/infra/rpc"
	"github.com/vietddude/txsubmit/internal/infra/storage"
	"github.com/vietddude/txsubmit/internal/infra/storage/memory"
	"github.com/vietddude/txsubmit/internal/infra/storage/postgres"
	"github.com/vietddude/txsubmit/internal/server"
	"github.com/vietddude/txsubmit/internal/submit"
)

// App wires configuration into the ledger client, submitter, storage and
// HTTP server.
type App struct {
	cfg         *config.AppConfig
	Service     *Service
	server      *server.Server
	pruner      *worker.Pruner
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log := slog.Default().With("component", "app")

	if len(cfg.Ledger.Providers) == 0 {
		return nil, errors.New("no ledger providers configured")
	}

	// 1. Ledger client
	clients := make([]*rpc.Client, 0, len(cfg.Ledger.Providers))
	for _, p := range cfg.Ledger.Providers {
		clients = append(clients, rpc.NewClient(p.Name, p.URL, cfg.Ledger.Timeout))
	}
	ledger := rpc.NewLedger(clients, cfg.Ledger.PollInterval, rpc.DefaultRetryConfig)

	// 2. Submitter
	observer := submit.Observers{
		submit.LogObserver{Logger: slog.Default().With("component", "submitter"), Verbose: cfg.Submit.Verbose},
		submit.MetricsObserver{},
	}
	submitter := submit.New(ledger, submit.Config{
		Commitment:     cfg.Ledger.Commitment,
		ConfirmTimeout: cfg.Submit.ConfirmTimeout,
		SettleDelay:    *cfg.Submit.SettleDelay,
		ResendDelay:    *cfg.Submit.ResendDelay,
		MaxJitter:      *cfg.Submit.MaxJitter,
	}, submit.WithObserver(observer))

	app := &App{cfg: cfg, log: log}

	// 3. Storage
	var outcomes storage.OutcomeRepository
	var failed storage.FailedQueue
	store := memory.NewMemoryStorage()

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		outcomes = postgres.NewOutcomeRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		outcomes = memory.NewOutcomeRepo(store)
		log.Info("Using Memory storage")
	}

	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			app.closeStores()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		app.redisClient = rc
		failed = redisclient.NewFailedQueue(rc, cfg.Redis.Namespace)
		log.Info("Using Redis review queue", "namespace", cfg.Redis.Namespace)
	} else {
		failed = memory.NewFailedQueue(store)
	}

	app.Service = NewService(submitter, ledger, outcomes, failed, cfg.Submit.Options())
	app.pruner = worker.NewPruner(cfg.Submit.RetentionPeriod, outcomes)
	if app.db != nil {
		app.Service.AddHealthCheck("postgres", app.db.Health)
	}
	if app.redisClient != nil {
		app.Service.AddHealthCheck("redis", app.redisClient.Health)
	}
	app.server = server.New(app.Service, cfg.Server.Port)

	return app, nil
}

// Start starts the HTTP server and background collectors.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}
	go a.pruner.Start(ctx)

	a.log.Info("HTTP server listening", "port", a.cfg.Server.Port)
	return nil
}

// Stop shuts the server down and closes stores.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")
	err := a.server.Stop(ctx)
	a.closeStores()
	return err
}

// Close releases stores without touching the server, for one-shot commands.
func (a *App) Close() {
	a.closeStores()
}

func (a *App) closeStores() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}
