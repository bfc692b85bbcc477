package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ContentCurator/internal/clock"
	"ContentCurator/internal/config"
	"ContentCurator/internal/infrastructure/feeds"
	"ContentCurator/internal/infrastructure/scheduler"
	"ContentCurator/internal/infrastructure/storage"
	"ContentCurator/internal/infrastructure/telegram"
	"ContentCurator/internal/logging"
	"ContentCurator/internal/ports"
	"ContentCurator/internal/scoring"
	"ContentCurator/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB

	Refresh   *usecase.Refresh
	Curation  *usecase.Curation
	Retrieval *usecase.Retrieval
	Scheduler *usecase.Scheduler
}

// New opens the store, applies the schema and builds every use case.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.NewWithFormat(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	}

	dialect, err := storage.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(ctx, dialect, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	repository := storage.NewSQLRepository(db, dialect)

	clk := clock.System{}
	registry := feeds.NewRegistry(nil, clk.Now)
	adapters, err := registry.Build(cfg.SourceSpecs())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build adapters: %w", err)
	}

	var notifier ports.Notifier
	tg := cfg.Notifications.Telegram
	if tgNotifier := telegram.NewNotifier(tg.BotToken, tg.ChatID, telegram.Options{Endpoint: tg.Endpoint, Timeout: tg.Timeout}); tgNotifier.Configured() {
		notifier = tgNotifier
	} else {
		baseLogger.Info("telegram notifications disabled")
	}

	refresh, err := usecase.NewRefresh(usecase.RefreshDeps{
		Adapters:       adapters,
		Normalizer:     scoring.NewNormalizer(cfg.Scoring),
		Repository:     repository,
		Notifier:       notifier,
		Clock:          clk,
		Logger:         baseLogger.With("component", "refresh"),
		AdapterTimeout: cfg.Scheduler.AdapterTimeout,
		Lookback:       cfg.Scheduler.Lookback,
		NotifyTimeout:  tg.Timeout,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	driver := scheduler.NewIntervalScheduler(clk, cfg.Scheduler.Interval, cfg.Scheduler.ShouldRunOnStart())
	if bh := cfg.Scheduler.BusinessHours; bh.Enabled {
		driver.WithGate(&scheduler.BusinessHours{
			StartHour:    bh.StartHour,
			EndHour:      bh.EndHour,
			WeekendEvery: bh.WeekendEvery,
			Location:     bh.Location(),
		})
	}

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		Refresh:   refresh,
		Curation:  usecase.NewCuration(repository, clk, baseLogger.With("component", "curation")),
		Retrieval: usecase.NewRetrieval(repository, clk, cfg.Retrieval.DefaultLimit),
		Scheduler: usecase.NewScheduler(driver, refresh, baseLogger.With("component", "scheduler")),
	}, nil
}

// Run starts the periodic refresh and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("scheduler starting",
		"interval", a.cfg.Scheduler.Interval,
		"run_on_start", a.cfg.Scheduler.ShouldRunOnStart(),
		"sources", len(a.cfg.Sources),
		"business_hours", a.cfg.Scheduler.BusinessHours.Enabled)

	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("scheduler stopped")
	return nil
}

// Close releases the database.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
