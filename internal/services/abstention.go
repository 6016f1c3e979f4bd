package services

import (
	"context"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/dataprocessing"
	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Trend computes the mean abstention of every election in chronological order
func (s *AnalysisService) Trend(ctx context.Context) (*domain.TrendReport, error) {
	ctx, end := s.startView(ctx, "trend")
	report := &domain.TrendReport{Points: []domain.TrendPoint{}}
	defer func() { end(&report.Diagnostics) }()

	elections := s.load(ctx, config.SourceElections, &report.Diagnostics)
	means := dataprocessing.GroupMean(elections, dataprocessing.GroupSpec{
		By:     []string{domain.ColElectionID},
		Values: []string{domain.ColAbstentionPct},
		Order:  s.cfg.ElectionOrder,
	}).Unwrap(&report.Diagnostics)

	values := make([]domain.Value, means.Len())
	for i := range values {
		values[i] = means.Value(i, domain.ColAbstentionPct)
	}
	variations := dataprocessing.DiffSequence(values)

	for i := 0; i < means.Len(); i++ {
		id := textAt(means, i, domain.ColElectionID)
		rows, _ := means.Value(i, domain.ColGroupCount).Float()
		report.Points = append(report.Points, domain.TrendPoint{
			ElectionID:     id,
			Label:          domain.ElectionLabel(id),
			MeanAbstention: values[i],
			Variation:      variations[i],
			Rows:           int(rows),
		})
	}

	var maxUp, maxDown float64
	for i := range report.Points {
		v, ok := report.Points[i].Variation.Float()
		if !ok {
			continue
		}
		switch {
		case v > 0:
			report.Increases++
			if report.LargestIncrease == nil || v > maxUp {
				maxUp = v
				report.LargestIncrease = &report.Points[i]
			}
		case v < 0:
			report.Decreases++
			if report.LargestDecrease == nil || v < maxDown {
				maxDown = v
				report.LargestDecrease = &report.Points[i]
			}
		}
	}

	return report, nil
}

// overviewRows filters the electoral table down to one election and an optional area
func overviewRows(elections *domain.Dataset, filter domain.OverviewFilter) *domain.Dataset {
	departments := make(map[string]bool, len(filter.Departments))
	for _, d := range filter.Departments {
		departments[strings.ToLower(strings.TrimSpace(d))] = true
	}
	commune := strings.ToLower(strings.TrimSpace(filter.Commune))

	return elections.Filter(func(r domain.Record) bool {
		if r.Get(domain.ColElectionID).String() != filter.Election {
			return false
		}
		if len(departments) > 0 && !departments[strings.ToLower(r.Get(domain.ColDepartmentLabel).String())] {
			return false
		}
		if commune != "" && !strings.Contains(strings.ToLower(r.Get(domain.ColCommuneLabel).String()), commune) {
			return false
		}
		return true
	})
}

// Overview summarizes abstention for one election, optionally narrowed to
// departments and a commune name fragment
func (s *AnalysisService) Overview(ctx context.Context, filter domain.OverviewFilter) (*domain.OverviewReport, error) {
	if strings.TrimSpace(filter.Election) == "" {
		return nil, apierrors.NewAppValidationError("election is required")
	}

	ctx, end := s.startView(ctx, "overview")
	report := &domain.OverviewReport{
		Filter:      filter,
		Label:       domain.ElectionLabel(filter.Election),
		Departments: []domain.DepartmentScore{},
		Highest:     []domain.DepartmentScore{},
		Lowest:      []domain.DepartmentScore{},
	}
	defer func() { end(&report.Diagnostics) }()

	elections := s.load(ctx, config.SourceElections, &report.Diagnostics)
	rows := overviewRows(elections, filter)
	report.Rows = rows.Len()

	registered, _ := rows.Column(domain.ColRegistered)
	abstentions, _ := rows.Column(domain.ColAbstentions)
	report.TotalRegistered = sumOf(registered)
	report.TotalAbstentions = sumOf(abstentions)

	rate, diag := dataprocessing.Rate(report.TotalAbstentions, report.TotalRegistered)
	if diag != nil {
		diag.Source = config.SourceElections
		report.Diagnostics = append(report.Diagnostics, *diag)
	}
	report.AbstentionRate = rate

	means := dataprocessing.GroupMean(rows, dataprocessing.GroupSpec{
		By:     []string{domain.ColDepartmentLabel},
		Values: []string{domain.ColAbstentionPct},
	}).Unwrap(&report.Diagnostics)
	ranked := dataprocessing.SortBy(means, domain.ColAbstentionPct, dataprocessing.Descending)

	report.Departments = departmentScores(ranked, domain.ColDepartmentLabel, "", domain.ColAbstentionPct)
	report.Highest = departmentScores(ranked.Head(s.cfg.DepartmentExtremes), domain.ColDepartmentLabel, "", domain.ColAbstentionPct)
	report.Lowest = departmentScores(ranked.Tail(s.cfg.DepartmentExtremes), domain.ColDepartmentLabel, "", domain.ColAbstentionPct)

	report.Records = make([]domain.ElectionRecord, rows.Len())
	for i := range report.Records {
		report.Records[i] = domain.ElectionRecordAt(rows, i)
	}

	return report, nil
}

// Recurrence ranks departments per election and counts how often each one is
// among the n best and n worst voters. n <= 0 uses the configured default.
func (s *AnalysisService) Recurrence(ctx context.Context, n int) (*domain.RecurrenceReport, error) {
	n = topN(n, s.cfg.RecurrenceTopN)

	ctx, end := s.startView(ctx, "recurrence")
	report := &domain.RecurrenceReport{
		N:              n,
		Elections:      []domain.ElectionRanking{},
		BestFrequency:  []domain.Frequency{},
		WorstFrequency: []domain.Frequency{},
	}
	defer func() { end(&report.Diagnostics) }()

	elections := s.load(ctx, config.SourceElections, &report.Diagnostics)
	means := dataprocessing.GroupMean(elections, dataprocessing.GroupSpec{
		By:     []string{domain.ColElectionID, domain.ColDepartmentLabel},
		Values: []string{domain.ColAbstentionPct},
		Order:  s.cfg.ElectionOrder,
	}).Unwrap(&report.Diagnostics)

	var bestLists, worstLists [][]string
	for _, id := range electionIDs(means) {
		rows := means.Filter(func(r domain.Record) bool {
			return r.Get(domain.ColElectionID).String() == id
		})
		best := dataprocessing.TopN(rows, domain.ColAbstentionPct, n, dataprocessing.Ascending)
		worst := dataprocessing.TopN(rows, domain.ColAbstentionPct, n, dataprocessing.Descending)

		ranking := domain.ElectionRanking{
			ElectionID: id,
			Label:      domain.ElectionLabel(id),
			Best:       departmentScores(best, domain.ColDepartmentLabel, "", domain.ColAbstentionPct),
			Worst:      departmentScores(worst, domain.ColDepartmentLabel, "", domain.ColAbstentionPct),
		}
		report.Elections = append(report.Elections, ranking)
		bestLists = append(bestLists, scoreNames(ranking.Best))
		worstLists = append(worstLists, scoreNames(ranking.Worst))
	}

	report.BestFrequency = dataprocessing.FrequencyAcrossGroups(bestLists)
	report.WorstFrequency = dataprocessing.FrequencyAcrossGroups(worstLists)
	return report, nil
}

// BlankNull compares per-election means of blank votes, null votes and abstention
func (s *AnalysisService) BlankNull(ctx context.Context) (*domain.BlankNullReport, error) {
	ctx, end := s.startView(ctx, "blank_null")
	report := &domain.BlankNullReport{Points: []domain.BlankNullPoint{}}
	defer func() { end(&report.Diagnostics) }()

	columns := []string{domain.ColBlankPct, domain.ColNullPct, domain.ColAbstentionPct}

	elections := s.load(ctx, config.SourceElections, &report.Diagnostics)
	means := dataprocessing.GroupMean(elections, dataprocessing.GroupSpec{
		By:     []string{domain.ColElectionID},
		Values: columns,
		Order:  s.cfg.ElectionOrder,
	}).Unwrap(&report.Diagnostics)

	for i := 0; i < means.Len(); i++ {
		id := textAt(means, i, domain.ColElectionID)
		report.Points = append(report.Points, domain.BlankNullPoint{
			ElectionID: id,
			Label:      domain.ElectionLabel(id),
			Blank:      means.Value(i, domain.ColBlankPct),
			Null:       means.Value(i, domain.ColNullPct),
			Abstention: means.Value(i, domain.ColAbstentionPct),
		})
	}

	report.Correlations = dataprocessing.CorrelationMatrix(means, columns).Unwrap(&report.Diagnostics)
	return report, nil
}

// electionIDs lists the distinct election ids of ds in row order
func electionIDs(ds *domain.Dataset) []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < ds.Len(); i++ {
		id := textAt(ds, i, domain.ColElectionID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// departmentScores reads one DepartmentScore per row. codeCol may be empty.
func departmentScores(ds *domain.Dataset, labelCol, codeCol, valueCol string) []domain.DepartmentScore {
	out := make([]domain.DepartmentScore, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		score := domain.DepartmentScore{
			Department: textAt(ds, i, labelCol),
			Value:      ds.Value(i, valueCol),
		}
		if codeCol != "" {
			score.Code = textAt(ds, i, codeCol)
		}
		out = append(out, score)
	}
	return out
}

func scoreNames(scores []domain.DepartmentScore) []string {
	out := make([]string, len(scores))
	for i, sc := range scores {
		out[i] = sc.Department
	}
	return out
}

// sumOf adds the numeric values, Missing when there are none
func sumOf(values []domain.Value) domain.Value {
	fs := domain.Floats(values)
	if len(fs) == 0 {
		return domain.Missing()
	}
	return domain.Number(floats.Sum(fs))
}
