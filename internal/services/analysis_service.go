package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/dataprocessing"
	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/internal/files"
	"github.com/CyprienPascal/PIP/internal/infrastructure"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// AnalysisService computes the analytical views over the cached sources
type AnalysisService struct {
	loader  *dataprocessing.Loader
	cache   *dataprocessing.DatasetCache
	maps    *files.MapSelector
	cfg     config.AnalysisConfig
	metrics *infrastructure.EngineMetrics
	logger  *slog.Logger
}

// NewAnalysisService creates the service. logger and metrics may be nil.
func NewAnalysisService(
	loader *dataprocessing.Loader,
	maps *files.MapSelector,
	cfg config.AnalysisConfig,
	logger *slog.Logger,
	metrics *infrastructure.EngineMetrics,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "analysis"))

	logger.Info("AnalysisService initialized",
		slog.Int("sources", len(loader.Catalog().IDs())),
		slog.Any("election_order", cfg.ElectionOrder))

	return &AnalysisService{
		loader:  loader,
		cache:   dataprocessing.NewDatasetCache(loader, logger, metrics),
		maps:    maps,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Preload warms the dataset cache with every catalog source
func (s *AnalysisService) Preload(ctx context.Context) (map[string]domain.Diagnostics, error) {
	report, err := s.cache.Preload(ctx, s.loader.Catalog().IDs()...)
	for id, diags := range report {
		for _, d := range diags {
			s.logger.WarnContext(ctx, "Source not preloaded",
				slog.String("source", id),
				slog.String("diagnostic", d.String()))
		}
	}
	return report, err
}

// startView opens the span of a view and returns the function closing it
func (s *AnalysisService) startView(ctx context.Context, view string) (context.Context, func(*domain.Diagnostics)) {
	ctx, span := infrastructure.StartSpan(ctx, "view."+view, attribute.String("view", view))
	start := time.Now()

	return ctx, func(diags *domain.Diagnostics) {
		n := 0
		if diags != nil {
			n = len(*diags)
			for _, d := range *diags {
				s.metrics.RecordDiagnostic(ctx, string(d.Kind))
			}
		}
		span.SetAttributes(attribute.Int("diagnostics", n))
		span.End()

		duration := time.Since(start)
		s.metrics.RecordView(ctx, view, duration)
		s.logger.InfoContext(ctx, "View computed",
			slog.String("view", view),
			slog.Int("diagnostics", n),
			slog.Duration("duration", duration))
	}
}

// load returns a cached source and appends its diagnostics to sink
func (s *AnalysisService) load(ctx context.Context, id string, sink *domain.Diagnostics) *domain.Dataset {
	return s.cache.Get(ctx, id).Unwrap(sink)
}

// join runs the join hops with the service logger and metrics
func (s *AnalysisService) join(ctx context.Context, base *domain.Dataset, series []*domain.IndicatorSeries, opts dataprocessing.JoinOptions, sink *domain.Diagnostics) *domain.JoinedTable {
	opts.Logger = s.logger
	opts.Metrics = s.metrics
	return dataprocessing.JoinAll(ctx, base, series, opts).Unwrap(sink)
}

// normalizeKeys rewrites column as normalized department keys so that "1" and
// "01" fall into the same group. Rows whose code cannot be normalized are dropped
// and counted in one KEY_FORMAT_ERROR diagnostic.
func normalizeKeys(ds *domain.Dataset, column string, width int, sink *domain.Diagnostics) *domain.Dataset {
	if !ds.Has(column) {
		return ds
	}
	invalid := 0
	out := ds.Map(domain.TextColumn(column), func(r domain.Record) domain.Value {
		key, err := dataprocessing.NormalizeKey(r.Get(column), width)
		if err != nil {
			invalid++
			return domain.Missing()
		}
		return domain.Text(string(key))
	})
	if invalid == 0 {
		return out
	}
	*sink = append(*sink, domain.NewDiagnostic(domain.DiagKeyFormat, ds.Name(),
		"%d rows with an invalid %q excluded", invalid, column).WithCount(invalid))
	return out.Filter(func(r domain.Record) bool {
		return !r.Get(column).IsMissing()
	})
}

// firstRound keeps the rows of first-round elections
func (s *AnalysisService) firstRound(r domain.Record) bool {
	return strings.HasSuffix(r.Get(domain.ColElectionID).String(), s.cfg.FirstRoundMarker)
}

// electionContains keeps the rows whose election id contains marker
func electionContains(marker string) func(domain.Record) bool {
	return func(r domain.Record) bool {
		return strings.Contains(r.Get(domain.ColElectionID).String(), marker)
	}
}

func topN(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

func textAt(ds *domain.Dataset, i int, column string) string {
	return ds.Value(i, column).String()
}

// Sources lists the catalog with the availability of each source
func (s *AnalysisService) Sources(ctx context.Context) []domain.SourceInfo {
	catalog := s.loader.Catalog()
	out := make([]domain.SourceInfo, 0, len(catalog.IDs()))
	for _, spec := range catalog.Specs() {
		info := domain.SourceInfo{
			ID:        spec.ID,
			Format:    string(spec.Format),
			KeyColumn: spec.KeyColumn,
			Available: s.cache.Cached(spec.ID) || s.loader.Available(spec.ID),
		}
		if spec.Format == config.FormatSQL {
			info.File = spec.Table
		} else {
			info.File = spec.File
		}
		out = append(out, info)
	}
	return out
}

// SourceTable returns the first limit rows of a raw source. limit <= 0 uses the default.
func (s *AnalysisService) SourceTable(ctx context.Context, id string, limit int) (domain.Result[*domain.Dataset], error) {
	if limit <= 0 {
		limit = config.DefaultSourceRowLimit
	}
	if limit > config.MaxSourceRowLimit {
		limit = config.MaxSourceRowLimit
	}

	res, err := s.fullSource(ctx, id)
	if err != nil {
		return res, err
	}
	res.Value = res.Value.Head(limit)
	return res, nil
}

// fullSource returns every row of a raw source
func (s *AnalysisService) fullSource(ctx context.Context, id string) (domain.Result[*domain.Dataset], error) {
	if _, ok := s.loader.Catalog().Get(id); !ok {
		return domain.Result[*domain.Dataset]{}, fmt.Errorf("%w: %s", apierrors.ErrUnknownSource, id)
	}

	ctx, end := s.startView(ctx, "source")
	var diags domain.Diagnostics
	defer end(&diags)

	ds := s.load(ctx, id, &diags)
	return domain.Degraded(ds, diags...), nil
}

// Map resolves the pre-rendered map of a year, round and level
func (s *AnalysisService) Map(ctx context.Context, year, round int, level string) (domain.MapSelection, error) {
	sel, err := s.maps.Select(year, round, level)
	if err != nil {
		return domain.MapSelection{}, err
	}
	s.logger.DebugContext(ctx, "Map selected",
		slog.String("file", sel.File),
		slog.Bool("exists", sel.Exists))
	return sel, nil
}

// AvailableMaps lists the map fragments present on disk
func (s *AnalysisService) AvailableMaps(ctx context.Context) []files.FileInfo {
	return s.maps.Available()
}
