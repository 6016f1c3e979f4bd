package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/dataprocessing"
	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Nuances sums votes and seats per political nuance for one year, optionally
// restricted to candidates of the given sexes
func (s *AnalysisService) Nuances(ctx context.Context, year int, sexes []string) (*domain.NuanceReport, error) {
	if !slices.Contains(config.NuanceYears, year) {
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("nuance year %d is not available", year)).
			WithContext("years", config.NuanceYears)
	}

	ctx, end := s.startView(ctx, "nuances")
	report := &domain.NuanceReport{Year: year, Sexes: sexes, Nuances: []domain.NuanceVotes{}}
	defer func() { end(&report.Diagnostics) }()

	candidates := s.load(ctx, config.SourceNuances, &report.Diagnostics)
	rows := candidates.Filter(func(r domain.Record) bool {
		y, ok := r.Get(config.NuanceYearColumn).Float()
		if !ok || int(y) != year {
			return false
		}
		if len(sexes) == 0 {
			return true
		}
		sex := r.Get(config.NuanceSexColumn).String()
		return slices.ContainsFunc(sexes, func(want string) bool {
			return strings.EqualFold(strings.TrimSpace(want), sex)
		})
	})

	totals := dataprocessing.GroupSum(rows, dataprocessing.GroupSpec{
		By:     []string{config.NuanceColumn},
		Values: []string{config.NuanceVotesColumn, config.NuanceSeatsColumn},
	}).Unwrap(&report.Diagnostics)
	sorted := dataprocessing.SortBy(totals, config.NuanceVotesColumn, dataprocessing.Descending)

	for i := 0; i < sorted.Len(); i++ {
		report.Nuances = append(report.Nuances, domain.NuanceVotes{
			Nuance: textAt(sorted, i, config.NuanceColumn),
			Votes:  sorted.Value(i, config.NuanceVotesColumn),
			Seats:  sorted.Value(i, config.NuanceSeatsColumn),
		})
	}
	return report, nil
}

// decileName is the display name of an income decile
func decileName(d string) string {
	return "D" + d
}

// Income returns the yearly priority neighbourhood count and income deciles of one department
func (s *AnalysisService) Income(ctx context.Context, department string) (*domain.IncomeReport, error) {
	key, err := dataprocessing.NormalizeKey(domain.Text(department), s.cfg.IncomeKeyWidth)
	if err != nil {
		return nil, apierrors.NewAppValidationError(err.Error()).WithContext("department", department)
	}

	ctx, end := s.startView(ctx, "income")
	report := &domain.IncomeReport{
		Department: key,
		Points:     []domain.IncomePoint{},
	}
	for _, d := range config.IncomeDeciles {
		report.Deciles = append(report.Deciles, decileName(d))
	}
	defer func() { end(&report.Diagnostics) }()

	profiles := s.load(ctx, config.SourceIncome, &report.Diagnostics)
	if profiles.IsEmpty() && report.Diagnostics.Has(domain.DiagSourceNotFound) {
		return report, nil
	}

	row := -1
	for i := 0; i < profiles.Len(); i++ {
		k, err := dataprocessing.NormalizeKey(profiles.Value(i, config.IncomeKeyColumn), s.cfg.IncomeKeyWidth)
		if err == nil && k == key {
			row = i
			break
		}
	}
	if row < 0 {
		return nil, fmt.Errorf("%w: %s", apierrors.ErrDepartmentUnknown, key)
	}
	report.Label = textAt(profiles, row, config.IncomeLabelColumn)

	missing := 0
	for _, year := range config.IncomeYears {
		point := domain.IncomePoint{
			Year:          year,
			PriorityAreas: profiles.Value(row, config.PriorityAreasColumn(year)),
			Deciles:       make(map[string]domain.Value, len(config.IncomeDeciles)),
		}
		if !profiles.Has(config.PriorityAreasColumn(year)) {
			missing++
		}
		for _, d := range config.IncomeDeciles {
			col := config.IncomeDecileColumn(d, year)
			if !profiles.Has(col) {
				missing++
			}
			point.Deciles[decileName(d)] = profiles.Value(row, col)
		}
		report.Points = append(report.Points, point)
	}
	if missing > 0 {
		report.Diagnostics = append(report.Diagnostics, domain.NewDiagnostic(domain.DiagMissingColumn, config.SourceIncome,
			"%d income columns not found", missing).WithCount(missing))
	}

	return report, nil
}
