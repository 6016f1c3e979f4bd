package dataprocessing

import (
	"log/slog"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// IndicatorSpec describes how to read an indicator series out of a dataset
type IndicatorSpec struct {
	// Name of the value column in joined tables; defaults to ValueColumn
	Name         string
	KeyColumn    string
	Width        int
	ValueColumn  string
	PeriodColumn string
	// Carry lists extra columns copied next to the value in joined rows
	Carry []string
}

func (s IndicatorSpec) name() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ValueColumn
}

// BuildIndicatorSeries indexes ds by normalized department key (and period when
// PeriodColumn is set). Rows with unusable keys are excluded and counted in one
// KEY_FORMAT_ERROR; duplicate keys keep their first occurrence.
func BuildIndicatorSeries(ds *domain.Dataset, spec IndicatorSpec) domain.Result[*domain.IndicatorSeries] {
	required := append([]string{spec.KeyColumn, spec.ValueColumn}, spec.Carry...)
	if spec.PeriodColumn != "" {
		required = append(required, spec.PeriodColumn)
	}
	return buildSeries(ds, spec, required, spec.PeriodColumn != "", func(rec domain.Record, emit func(period string, v domain.Value)) {
		period := ""
		if spec.PeriodColumn != "" {
			period = rec.Get(spec.PeriodColumn).String()
		}
		emit(period, rec.Get(spec.ValueColumn))
	})
}

// BuildWideIndicatorSeries melts a table with one column per period (for example
// one unemployment rate per year) into a periodic series. spec.ValueColumn and
// spec.PeriodColumn are ignored; each period column name becomes the period.
func BuildWideIndicatorSeries(ds *domain.Dataset, spec IndicatorSpec, periodColumns []string) domain.Result[*domain.IndicatorSeries] {
	spec.ValueColumn = ""
	required := append([]string{spec.KeyColumn}, spec.Carry...)
	required = append(required, periodColumns...)
	return buildSeries(ds, spec, required, true, func(rec domain.Record, emit func(period string, v domain.Value)) {
		for _, p := range periodColumns {
			emit(p, rec.Get(p))
		}
	})
}

func buildSeries(
	ds *domain.Dataset,
	spec IndicatorSpec,
	required []string,
	periodic bool,
	each func(rec domain.Record, emit func(period string, v domain.Value)),
) domain.Result[*domain.IndicatorSeries] {
	name := spec.name()
	if name == "" {
		name = ds.Name()
	}

	var diags domain.Diagnostics
	for _, col := range required {
		if !ds.Has(col) {
			diags = append(diags, domain.NewDiagnostic(domain.DiagMissingColumn, ds.Name(), "column %q not found", col))
		}
	}
	carry := make([]domain.Column, 0, len(spec.Carry))
	for _, c := range spec.Carry {
		if col, ok := ds.Schema().Column(c); ok {
			carry = append(carry, col)
		}
	}
	series := domain.NewIndicatorSeries(name, spec.Width, periodic, carry)
	if len(diags) > 0 {
		return domain.Degraded(series, diags...)
	}

	logger := slog.Default().With(slog.String("component", "indicator_series"), slog.String("series", name))

	rejected, duplicates := 0, 0
	for i := 0; i < ds.Len(); i++ {
		rec := ds.Record(i)
		key, err := NormalizeKey(rec.Get(spec.KeyColumn), spec.Width)
		if err != nil {
			rejected++
			logger.Debug("Row excluded from series", slog.Int("row", i), slog.String("error", err.Error()))
			continue
		}
		attrs := make([]domain.Value, len(carry))
		for j, c := range carry {
			attrs[j] = rec.Get(c.Name)
		}
		each(rec, func(period string, v domain.Value) {
			sk := domain.SeriesKey{Department: key, Period: period}
			if !series.Put(sk, domain.IndicatorEntry{Value: v, Attrs: attrs}) {
				duplicates++
				logger.Debug("Duplicate key ignored",
					slog.String("department", string(key)),
					slog.String("period", period),
					slog.Int("row", i))
			}
		})
	}

	if duplicates > 0 {
		logger.Warn("Duplicate keys ignored, first occurrence kept", slog.Int("duplicates", duplicates))
	}
	if rejected > 0 {
		diags = append(diags, domain.NewDiagnostic(domain.DiagKeyFormat, ds.Name(),
			"%d rows with an invalid %q excluded", rejected, spec.KeyColumn).WithCount(rejected))
	}
	return domain.Degraded(series, diags...)
}
