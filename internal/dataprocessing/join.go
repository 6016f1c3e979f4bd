package dataprocessing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/CyprienPascal/PIP/internal/infrastructure"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// JoinOptions parameterizes a join of a base table with an indicator series
type JoinOptions struct {
	// KeyColumn holds the department code in the base table
	KeyColumn string
	// Width is the normalization width; 0 uses the series width
	Width int
	// Filter restricts the base rows before the join
	Filter func(domain.Record) bool
	// PeriodColumn and PeriodOf give the period of a base row for periodic series.
	// PeriodOf defaults to the text form of the cell.
	PeriodColumn string
	PeriodOf     func(domain.Value) string

	Logger *slog.Logger
	// Metrics counts the joined rows per series; diagnostics are counted by the caller
	Metrics *infrastructure.EngineMetrics
}

// rightSuffix disambiguates series columns that collide with base columns
const rightSuffix = "_y"

// Join inner-joins base with series on normalized department keys.
//
// Output columns are the base columns (key replaced by its normalized form), the
// series value named after the series, then the carried columns. Base order is
// kept and duplicated base keys fan out. Rows whose key cannot be normalized are
// excluded and counted.
func Join(ctx context.Context, base *domain.Dataset, series *domain.IndicatorSeries, opts JoinOptions) domain.Result[*domain.JoinedTable] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "join"))

	name := ""
	if series != nil {
		name = series.Name
	}
	ctx, span := infrastructure.StartSpan(ctx, "engine.join",
		attribute.String("series", name),
		attribute.String("base", base.Name()))
	defer span.End()

	width := opts.Width
	if width == 0 && series != nil {
		width = series.Width
	}

	stats := domain.JoinStats{Series: name, BaseRows: base.Len()}
	var diags domain.Diagnostics
	report := func(d domain.Diagnostic) {
		diags = append(diags, d)
		logger.WarnContext(ctx, "Join degraded", slog.String("diagnostic", d.String()))
	}

	keyIdx, ok := base.Schema().Index(opts.KeyColumn)
	if !ok {
		report(domain.NewDiagnostic(domain.DiagMissingColumn, base.Name(), "key column %q not found", opts.KeyColumn))
		return domain.Degraded(&domain.JoinedTable{Table: domain.EmptyDataset(base.Name(), base.Schema()), Stats: []domain.JoinStats{stats}}, diags...)
	}
	periodic := series != nil && series.Periodic
	if periodic && opts.PeriodColumn == "" {
		report(domain.NewDiagnostic(domain.DiagMissingColumn, base.Name(), "series %s is periodic but no period column was given", name))
		return domain.Degraded(&domain.JoinedTable{Table: domain.EmptyDataset(base.Name(), base.Schema()), Stats: []domain.JoinStats{stats}}, diags...)
	}
	periodOf := opts.PeriodOf
	if periodOf == nil {
		periodOf = domain.Value.String
	}

	filtered := base
	if opts.Filter != nil {
		filtered = base.Filter(opts.Filter)
	}
	stats.FilteredRows = filtered.Len()

	schema := joinedSchema(base.Schema(), keyIdx, series)

	if filtered.Len() == 0 || series.Len() == 0 {
		report(domain.NewDiagnostic(domain.DiagEmptyJoin, name,
			"nothing to join: %d base rows after filtering, %d series keys", filtered.Len(), series.Len()))
		return domain.Degraded(&domain.JoinedTable{Table: domain.EmptyDataset(base.Name(), schema), Stats: []domain.JoinStats{stats}}, diags...)
	}

	rows := make([]domain.Row, 0, filtered.Len())
	baseWidth := base.Schema().Len()
	for i := 0; i < filtered.Len(); i++ {
		row := filtered.Row(i)
		key, err := NormalizeKey(row[keyIdx], width)
		if err != nil {
			stats.UnjoinableRows++
			logger.DebugContext(ctx, "Row excluded from join", slog.Int("row", i), slog.String("error", err.Error()))
			continue
		}
		sk := domain.SeriesKey{Department: key}
		if periodic {
			sk.Period = periodOf(filtered.Value(i, opts.PeriodColumn))
		}
		entry, found := series.Lookup(sk)
		if !found {
			continue
		}

		out := make(domain.Row, schema.Len())
		copy(out, row)
		out[keyIdx] = domain.Text(string(key))
		out[baseWidth] = entry.Value
		for j, attr := range entry.Attrs {
			out[baseWidth+1+j] = attr
		}
		rows = append(rows, out)
	}
	stats.MatchedRows = len(rows)

	if stats.UnjoinableRows > 0 {
		report(domain.NewDiagnostic(domain.DiagKeyFormat, base.Name(),
			"%d rows with an invalid %q excluded from the join with %s", stats.UnjoinableRows, opts.KeyColumn, name).WithCount(stats.UnjoinableRows))
	}
	if len(rows) == 0 {
		report(domain.NewDiagnostic(domain.DiagEmptyJoin, name, "no base key matched the series"))
	}

	opts.Metrics.RecordJoin(ctx, name, len(rows))
	span.SetAttributes(attribute.Int("matched_rows", stats.MatchedRows))

	logger.InfoContext(ctx, "Join completed",
		slog.String("series", name),
		slog.Int("base_rows", stats.BaseRows),
		slog.Int("filtered_rows", stats.FilteredRows),
		slog.Int("unjoinable_rows", stats.UnjoinableRows),
		slog.Int("matched_rows", stats.MatchedRows),
		slog.String("match_ratio", stats.MatchRatio().Format(3, "n/a")))

	table := domain.NewDataset(base.Name(), schema, rows)
	return domain.Degraded(&domain.JoinedTable{Table: table, Stats: []domain.JoinStats{stats}}, diags...)
}

// joinedSchema appends the series value and carried columns to the base schema.
// Series columns colliding with an existing name get "_y".
func joinedSchema(base domain.Schema, keyIdx int, series *domain.IndicatorSeries) domain.Schema {
	cols := base.Columns()
	cols[keyIdx].Type = domain.ColumnText
	if series == nil {
		return domain.NewSchema(cols...)
	}

	taken := make(map[string]bool, len(cols))
	for _, c := range cols {
		taken[c.Name] = true
	}
	claim := func(name string) string {
		for taken[name] {
			name += rightSuffix
		}
		taken[name] = true
		return name
	}

	cols = append(cols, domain.NumericColumn(claim(series.Name)))
	for _, c := range series.Carry() {
		c.Name = claim(c.Name)
		cols = append(cols, c)
	}
	return domain.NewSchema(cols...)
}

// JoinAll chains joins of base with several series. The filter only applies to
// the first hop; stats are reported per hop. Chaining stops at the first empty result.
func JoinAll(ctx context.Context, base *domain.Dataset, series []*domain.IndicatorSeries, opts JoinOptions) domain.Result[*domain.JoinedTable] {
	current := &domain.JoinedTable{Table: base}
	var diags domain.Diagnostics

	for i, s := range series {
		hop := opts
		if i > 0 {
			hop.Filter = nil
		}
		res := Join(ctx, current.Table, s, hop)
		joined := res.Unwrap(&diags)
		current = &domain.JoinedTable{
			Table: joined.Table,
			Stats: append(current.Stats, joined.Stats...),
		}
		if joined.Table.IsEmpty() {
			break
		}
	}
	return domain.Degraded(current, diags...)
}
