package container

import (
	"context"
	"fmt"

	"gosdt/adapters/memory"
	"gosdt/adapters/postgres"
	"gosdt/internal"
	"gosdt/internal/analysis"
	"gosdt/internal/api"
	"gosdt/internal/config"
	"gosdt/internal/migration"
	"gosdt/ports"
	"gosdt/ui"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; nil when running on the in-memory store
	DB *sqlx.DB

	BlockRepo  ports.BlockRepository
	Summarizer *analysis.Summarizer
	APIHandler *api.Handler
	UI         *ui.App
}

// New creates a new dependency injection container backed by the in-memory store
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(cfg.LogLevel)
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		BlockRepo:  memory.NewBlockRepository(),
		Summarizer: analysis.NewSummarizer(cfg.Analysis.Workers, logger),
	}
	if err := c.initHandlers(); err != nil {
		return nil, err
	}
	return c, nil
}

// InitWithDatabase switches block storage to PostgreSQL after running migrations.
// The container owns db from here on; it is closed if initialization fails.
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) (err error) {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	defer func() {
		if err != nil {
			if cerr := db.Close(); cerr != nil {
				c.Logger.Warn("failed to close database after init error: %v", cerr)
			}
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	c.Logger.Info("database schema at version %s", migrator.Version())

	c.DB = db
	c.BlockRepo = postgres.NewBlockRepository(db)
	return c.initHandlers()
}

func (c *Container) initHandlers() error {
	c.APIHandler = api.NewHandler(c.BlockRepo, c.Summarizer, api.DensityDefaults{
		Points: c.Config.Analysis.DensityPoints,
		Span:   c.Config.Analysis.DensitySpan,
	}, c.Logger)

	app, err := ui.NewApp(c.BlockRepo, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize UI: %w", err)
	}
	c.UI = app
	return nil
}

// Shutdown releases resources held by the container
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
