// Package app assembles the assistant's components from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/healthdesk/assistant/internal/cache"
	"github.com/healthdesk/assistant/internal/chat"
	"github.com/healthdesk/assistant/internal/config"
	"github.com/healthdesk/assistant/internal/knowledge"
	"github.com/healthdesk/assistant/internal/locator"
	"github.com/healthdesk/assistant/internal/observability"
	"github.com/healthdesk/assistant/internal/retrieval"
	"github.com/healthdesk/assistant/internal/storage"
)

// Options selects optional components.
type Options struct {
	// History opens the database and records conversation turns.
	History bool
	// Migrate applies pending migrations after opening the database.
	Migrate bool
}

// App holds the wired components. Fields for disabled components are nil.
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	Base     *knowledge.Base
	Resolver *retrieval.Resolver
	Answerer retrieval.Answerer
	Cache    cache.Client
	DB       *sql.DB
	History  *storage.HistoryRepository
	Exporter *storage.Exporter
	Chat     *chat.Service
	Locator  *locator.Locator
}

// New builds an App. Call Close to release the cache and database.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	metrics, err := observability.NewMetrics(nil)
	if err != nil {
		return nil, err
	}

	base, err := LoadKnowledgeBase(cfg.Resolver.KnowledgeBasePath)
	if err != nil {
		return nil, err
	}

	dir, err := LoadDirectory(cfg.Locator.DirectoryPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Base:    base,
		Resolver: retrieval.NewResolver(base, logger, metrics, retrieval.Config{
			HedgeThreshold:     cfg.Resolver.HedgeThreshold,
			MinMatchConfidence: cfg.Resolver.MinMatchConfidence,
		}),
		Locator: locator.New(dir, logger, locator.Config{
			Delay:        cfg.Locator.Delay,
			Timeout:      cfg.Locator.Timeout,
			DefaultLimit: cfg.Locator.DefaultLimit,
		}),
	}

	a.Cache, err = cache.New(cache.Options{
		Backend:    cache.Backend(cfg.Cache.Driver),
		RedisURL:   cfg.Cache.RedisURL,
		Prefix:     cfg.Cache.Prefix,
		MaxEntries: cfg.Cache.MaxEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	a.Answerer = a.Resolver
	if a.Cache != nil {
		a.Answerer = retrieval.NewCachedAnswerer(a.Resolver, a.Cache, logger, metrics, retrieval.CachedAnswererConfig{
			TTL: cfg.Cache.TTL,
		})
	}

	if opts.History {
		a.DB, err = OpenDatabase(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if opts.Migrate {
			applied, err := storage.NewMigrator(a.DB, cfg.Database.Driver).Up(ctx)
			if err != nil {
				_ = a.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
			if len(applied) > 0 {
				logger.Info().Strs("migrations", applied).Msg("Applied database migrations")
			}
		}
		a.History = storage.NewHistoryRepository(a.DB)
		a.Exporter = storage.NewExporter(a.History)
	}

	a.Chat = chat.NewService(a.Answerer, a.History, logger)

	logger.Info().
		Int("knowledge_entries", base.Len()).
		Str("cache", cfg.Cache.Driver).
		Bool("history", opts.History).
		Msg("Assistant components initialized")

	return a, nil
}

// Close releases the cache and database.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LoadKnowledgeBase loads the knowledge base at path, or the built-in one when path is empty.
func LoadKnowledgeBase(path string) (*knowledge.Base, error) {
	if path == "" {
		return knowledge.Default()
	}
	return knowledge.LoadFile(path)
}

// LoadDirectory loads the pharmacy directory at path, or the built-in one when path is empty.
func LoadDirectory(path string) (*locator.Directory, error) {
	if path == "" {
		return locator.DefaultDirectory()
	}
	return locator.LoadDirectoryFile(path)
}

// OpenDatabase opens the configured history database.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	opts := storage.Options{
		Driver: cfg.Database.Driver,
		DSN:    cfg.DatabaseDSN(),
	}
	switch cfg.Database.Driver {
	case storage.DriverSQLite:
		opts.MaxOpenConns = cfg.Database.SQLite.MaxOpenConns
		opts.JournalMode = cfg.Database.SQLite.JournalMode
	case storage.DriverPostgres:
		opts.MaxOpenConns = cfg.Database.Postgres.MaxOpenConns
		opts.MaxIdleConns = cfg.Database.Postgres.MaxIdleConns
		opts.ConnMaxLifetime = cfg.Database.Postgres.ConnMaxLifetime
	}

	db, err := storage.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Database.Driver, err)
	}
	return db, nil
}
