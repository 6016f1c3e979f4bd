package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/dataprocessing"
	"github.com/CyprienPascal/PIP/internal/files"
	"github.com/CyprienPascal/PIP/internal/infrastructure"
	"github.com/CyprienPascal/PIP/internal/services"
	"github.com/CyprienPascal/PIP/internal/storage"
)

// Engine wires the analysis stack shared by the web server and the CLI
type Engine struct {
	Paths    *config.Paths
	Catalog  *config.SourceCatalog
	DB       *storage.DB
	Loader   *dataprocessing.Loader
	Maps     *files.MapSelector
	Analysis *services.AnalysisService

	logger *slog.Logger
}

// NewEngine builds the loader, cache and analysis service for cfg.
// meter may be nil; the engine then records into a no-op meter.
func NewEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, meter metric.Meter) (*Engine, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	paths := cfg.ResolvedPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	catalog := config.DefaultSourceCatalog()
	var db *storage.DB
	if cfg.Storage.Enabled() {
		catalog = catalog.WithTables(cfg.Storage.Tables)
		var err error
		db, err = storage.Open(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
	}
	if err := catalog.Validate(); err != nil {
		closeDB(db, logger)
		return nil, fmt.Errorf("invalid source catalog: %w", err)
	}

	metrics, err := infrastructure.NewEngineMetrics(meter)
	if err != nil {
		closeDB(db, logger)
		return nil, fmt.Errorf("failed to create engine metrics: %w", err)
	}

	opts := []dataprocessing.LoaderOption{
		dataprocessing.WithLoaderLogger(logger),
		dataprocessing.WithLoaderMetrics(metrics),
	}
	if db != nil {
		opts = append(opts, dataprocessing.WithDatabase(db))
	}
	loader := dataprocessing.NewLoader(catalog, paths.DataDir, opts...)
	maps := files.NewMapSelector(paths.MapsDir)

	e := &Engine{
		Paths:    paths,
		Catalog:  catalog,
		DB:       db,
		Loader:   loader,
		Maps:     maps,
		Analysis: services.NewAnalysisService(loader, maps, cfg.Analysis, logger, metrics),
		logger:   logger,
	}

	if cfg.Analysis.PreloadSources {
		// Unavailable sources are reported as diagnostics, not errors
		if _, err := e.Analysis.Preload(ctx); err != nil {
			closeDB(db, logger)
			return nil, fmt.Errorf("failed to preload sources: %w", err)
		}
	}

	return e, nil
}

// Close releases the SQL backend, if any
func (e *Engine) Close() error {
	if e.DB == nil {
		return nil
	}
	return e.DB.Close()
}

func closeDB(db *storage.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("Failed to close storage", slog.String("error", err.Error()))
	}
}
