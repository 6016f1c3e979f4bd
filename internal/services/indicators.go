package services

import (
	"context"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/dataprocessing"
	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// povertyIndicator maps an indicator year to its column and to the marker of
// the elections it is compared with
var povertyIndicator = map[string]struct {
	column   string
	election string
}{
	"2017": {column: config.Poverty2017Column, election: "2017"},
	"2021": {column: config.Poverty2021Column, election: "2022"},
}

// Poverty crosses the poverty rate of a year with the abstention of the matching elections
func (s *AnalysisService) Poverty(ctx context.Context, year string) (*domain.PovertyReport, error) {
	indicator, ok := povertyIndicator[year]
	if !ok {
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("poverty year %q is not available", year)).
			WithContext("years", config.PovertyYears)
	}

	ctx, end := s.startView(ctx, "poverty")
	report := &domain.PovertyReport{
		Year:         year,
		ElectionYear: indicator.election,
		Indicator:    indicator.column,
		Rows:         []domain.PovertyRow{},
		Best:         []domain.PovertyRow{},
		Worst:        []domain.PovertyRow{},
		Join:         []domain.JoinStats{},
	}
	defer func() { end(&report.Diagnostics) }()

	elections := s.load(ctx, config.SourceElections, &report.Diagnostics)
	poverty := s.load(ctx, config.SourcePoverty, &report.Diagnostics)

	series := dataprocessing.BuildIndicatorSeries(poverty, dataprocessing.IndicatorSpec{
		KeyColumn:   config.PovertyKeyColumn,
		Width:       s.cfg.PovertyKeyWidth,
		ValueColumn: indicator.column,
	}).Unwrap(&report.Diagnostics)

	joined := s.join(ctx, elections, []*domain.IndicatorSeries{series}, dataprocessing.JoinOptions{
		KeyColumn: domain.ColDepartmentCode,
		Filter:    electionContains(indicator.election),
	}, &report.Diagnostics)
	report.Join = joined.Stats

	means := dataprocessing.GroupMean(joined.Table, dataprocessing.GroupSpec{
		By:     []string{domain.ColDepartmentLabel},
		Values: []string{indicator.column, domain.ColAbstentionPct},
	}).Unwrap(&report.Diagnostics)
	sorted := dataprocessing.SortBy(means, domain.ColAbstentionPct, dataprocessing.Ascending)

	report.Rows = povertyRows(sorted, indicator.column)
	report.Best = povertyRows(sorted.Head(s.cfg.PovertyTopN), indicator.column)
	report.Worst = povertyRows(sorted.Tail(s.cfg.PovertyTopN), indicator.column)

	povertyValues, _ := sorted.Column(indicator.column)
	abstentionValues, _ := sorted.Column(domain.ColAbstentionPct)
	report.MedianPoverty = dataprocessing.Median(povertyValues)
	report.MedianAbstention = dataprocessing.Median(abstentionValues)

	if sorted.Len() > 0 {
		report.Correlation = dataprocessing.CorrelateColumns(sorted, indicator.column, domain.ColAbstentionPct).
			Unwrap(&report.Diagnostics)
	} else {
		report.Correlation = domain.Correlation{Value: domain.Missing()}
	}

	return report, nil
}

func povertyRows(ds *domain.Dataset, column string) []domain.PovertyRow {
	out := make([]domain.PovertyRow, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		out = append(out, domain.PovertyRow{
			Department: textAt(ds, i, domain.ColDepartmentLabel),
			Poverty:    ds.Value(i, column),
			Abstention: ds.Value(i, domain.ColAbstentionPct),
		})
	}
	return out
}

// unemploymentColumn names the joined unemployment rate
const unemploymentColumn = "taux_chomage"

// Unemployment crosses the yearly unemployment rate with first-round abstention.
// No years means every available year.
func (s *AnalysisService) Unemployment(ctx context.Context, years []string) (*domain.UnemploymentReport, error) {
	if len(years) == 0 {
		years = config.UnemploymentYears
	}
	for _, y := range years {
		if !slices.Contains(config.UnemploymentYears, y) {
			return nil, apierrors.NewAppValidationError(fmt.Sprintf("unemployment year %q is not available", y)).
				WithContext("years", config.UnemploymentYears)
		}
	}

	ctx, end := s.startView(ctx, "unemployment")
	report := &domain.UnemploymentReport{
		Years:  []domain.UnemploymentYear{},
		Merged: []domain.UnemploymentRow{},
		Join:   []domain.JoinStats{},
	}
	defer func() { end(&report.Diagnostics) }()

	elections := s.load(ctx, config.SourceElections, &report.Diagnostics)
	unemployment := s.load(ctx, config.SourceUnemployment, &report.Diagnostics)

	firstRounds := normalizeKeys(elections.Filter(s.firstRound), domain.ColDepartmentCode, s.cfg.UnemploymentWidth, &report.Diagnostics)
	means := dataprocessing.GroupMean(firstRounds, dataprocessing.GroupSpec{
		By:     []string{domain.ColDepartmentCode, domain.ColElectionID},
		Values: []string{domain.ColAbstentionPct},
	}).Unwrap(&report.Diagnostics)

	series := dataprocessing.BuildWideIndicatorSeries(unemployment, dataprocessing.IndicatorSpec{
		Name:      unemploymentColumn,
		KeyColumn: config.UnemploymentKeyColumn,
		Width:     s.cfg.UnemploymentWidth,
		Carry:     []string{config.UnemploymentLabelColumn},
	}, years).Unwrap(&report.Diagnostics)

	joined := s.join(ctx, means, []*domain.IndicatorSeries{series}, dataprocessing.JoinOptions{
		KeyColumn:    domain.ColDepartmentCode,
		PeriodColumn: domain.ColElectionID,
		PeriodOf:     domain.ElectionYear,
	}, &report.Diagnostics)
	report.Join = joined.Stats
	report.Merged = unemploymentRows(joined.Table)

	for _, year := range years {
		rows := joined.Table.Filter(func(r domain.Record) bool {
			return domain.ElectionYear(r.Get(domain.ColElectionID)) == year
		})
		report.Years = append(report.Years, s.unemploymentYear(year, rows, &report.Diagnostics))
	}

	return report, nil
}

func (s *AnalysisService) unemploymentYear(year string, rows *domain.Dataset, sink *domain.Diagnostics) domain.UnemploymentYear {
	out := domain.UnemploymentYear{
		Year:             year,
		Rows:             rows.Len(),
		MeanUnemployment: domain.Missing(),
		MeanAbstention:   domain.Missing(),
		Highest:          []domain.UnemploymentRow{},
		Lowest:           []domain.UnemploymentRow{},
		Correlation:      domain.Correlation{Value: domain.Missing()},
	}
	if rows.Len() == 0 {
		*sink = append(*sink, domain.NewDiagnostic(domain.DiagEmptyJoin, config.SourceUnemployment,
			"no first-round department matched an unemployment rate for %s", year))
		return out
	}

	rates, _ := rows.Column(unemploymentColumn)
	abstention, _ := rows.Column(domain.ColAbstentionPct)
	out.MeanUnemployment = dataprocessing.MeanOf(rates)
	out.MeanAbstention = dataprocessing.MeanOf(abstention)

	n := s.cfg.UnemploymentTopN
	out.Highest = unemploymentRows(dataprocessing.TopN(rows, unemploymentColumn, n, dataprocessing.Descending))
	out.Lowest = unemploymentRows(dataprocessing.TopN(rows, unemploymentColumn, n, dataprocessing.Ascending))
	out.Correlation = dataprocessing.CorrelateColumns(rows, unemploymentColumn, domain.ColAbstentionPct).Unwrap(sink)
	return out
}

func unemploymentRows(ds *domain.Dataset) []domain.UnemploymentRow {
	out := make([]domain.UnemploymentRow, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		id := ds.Value(i, domain.ColElectionID)
		out = append(out, domain.UnemploymentRow{
			DepartmentCode: textAt(ds, i, domain.ColDepartmentCode),
			DepartmentName: textAt(ds, i, config.UnemploymentLabelColumn),
			ElectionID:     id.String(),
			Year:           domain.ElectionYear(id),
			Unemployment:   ds.Value(i, unemploymentColumn),
			Abstention:     ds.Value(i, domain.ColAbstentionPct),
		})
	}
	return out
}

// ageBracket is one population share column family of the age source
type ageBracket struct {
	label  string
	prefix string
}

var ageBrackets = []ageBracket{
	{label: "% Population 15-39 ans", prefix: "prop1539"},
	{label: "% Population 40-59 ans", prefix: "prop4059"},
	{label: "% Population 60+ ans", prefix: "prop60p"},
}

// AgeColumn names the proportion column of a bracket prefix and year
func AgeColumn(prefix, year string) string {
	return prefix + year
}

// scaleShares returns a copy of ds where each listed column whose maximum is
// at most 1 is turned from a share into a percentage
func scaleShares(ds *domain.Dataset, columns []string) *domain.Dataset {
	out := ds
	for _, col := range columns {
		values, ok := out.Column(col)
		if !ok {
			continue
		}
		fs := domain.Floats(values)
		if len(fs) == 0 || floats.Max(fs) > 1 {
			continue
		}
		scaled := make([]domain.Value, len(values))
		for i, v := range values {
			if f, ok := v.Float(); ok {
				scaled[i] = domain.Number(f * 100)
			}
		}
		column, _ := out.Schema().Column(col)
		out, _ = out.WithColumn(column, scaled)
	}
	return out
}

// Age compares first-round abstention where each age bracket is most and
// least represented. n <= 0 uses the configured default.
func (s *AnalysisService) Age(ctx context.Context, year string, n int) (*domain.AgeReport, error) {
	if !slices.Contains(config.AgeYears, year) {
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("age structure year %q is not available", year)).
			WithContext("years", config.AgeYears)
	}
	n = topN(n, s.cfg.AgeTopN)

	ctx, end := s.startView(ctx, "age")
	report := &domain.AgeReport{
		Year:     year,
		N:        n,
		Brackets: []domain.AgeBracketReport{},
		Join:     []domain.JoinStats{},
	}
	defer func() { end(&report.Diagnostics) }()

	elections := s.load(ctx, config.SourceElections, &report.Diagnostics)
	age := s.load(ctx, config.SourceAge, &report.Diagnostics)

	columns := make([]string, len(ageBrackets))
	for i, b := range ageBrackets {
		columns[i] = AgeColumn(b.prefix, year)
	}
	age = scaleShares(age, columns)

	series := make([]*domain.IndicatorSeries, 0, len(columns))
	for i, col := range columns {
		spec := dataprocessing.IndicatorSpec{
			KeyColumn:   config.AgeKeyColumn,
			Width:       s.cfg.AgeKeyWidth,
			ValueColumn: col,
		}
		if i == 0 {
			spec.Carry = []string{config.AgeLabelColumn}
		}
		series = append(series, dataprocessing.BuildIndicatorSeries(age, spec).Unwrap(&report.Diagnostics))
	}

	joined := s.join(ctx, elections, series, dataprocessing.JoinOptions{
		KeyColumn: domain.ColDepartmentCode,
		Filter:    s.firstRound,
	}, &report.Diagnostics)
	report.Join = joined.Stats

	for i, b := range ageBrackets {
		col := columns[i]
		if !joined.Table.Has(col) {
			continue
		}
		report.Brackets = append(report.Brackets, domain.AgeBracketReport{
			Bracket:  b.label,
			Column:   col,
			Majority: ageSummary(b.label, col, dataprocessing.TopN(joined.Table, col, n, dataprocessing.Descending)),
			Minority: ageSummary(b.label, col, dataprocessing.TopN(joined.Table, col, n, dataprocessing.Ascending)),
		})
	}

	return report, nil
}

func ageSummary(bracket, column string, ds *domain.Dataset) domain.AgeGroupSummary {
	rows := ageRows(bracket, column, ds)
	proportions, _ := ds.Column(column)
	abstention, _ := ds.Column(domain.ColAbstentionPct)
	return domain.AgeGroupSummary{
		Rows:           rows,
		MeanAbstention: dataprocessing.MeanOf(abstention),
		MeanProportion: dataprocessing.MeanOf(proportions),
	}
}

func ageRows(bracket, column string, ds *domain.Dataset) []domain.AgeRow {
	out := make([]domain.AgeRow, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		out = append(out, domain.AgeRow{
			Bracket:         bracket,
			DepartmentCode:  textAt(ds, i, domain.ColDepartmentCode),
			DepartmentLabel: textAt(ds, i, config.AgeLabelColumn),
			ElectionID:      textAt(ds, i, domain.ColElectionID),
			CommuneLabel:    textAt(ds, i, domain.ColCommuneLabel),
			Proportion:      ds.Value(i, column),
			Abstention:      ds.Value(i, domain.ColAbstentionPct),
		})
	}
	return out
}
