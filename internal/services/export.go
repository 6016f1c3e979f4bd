package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/CyprienPascal/PIP/internal/config"
	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Exportable views
const (
	ExportTrend        = "trend"
	ExportOverview     = "overview"
	ExportPoverty      = "poverty"
	ExportUnemployment = "unemployment"
	ExportAge          = "age"
	ExportNuances      = "nuances"
	ExportSource       = "source"
)

// ExportParams selects the view to flatten and its parameters
type ExportParams struct {
	View     string
	Source   string
	Overview domain.OverviewFilter
	Year     string
	Years    []string
	N        int
	Sexes    []string
}

// ExportTable flattens a view into one table ready for CSV or XLSX output
func (s *AnalysisService) ExportTable(ctx context.Context, p ExportParams) (*domain.Dataset, domain.Diagnostics, error) {
	switch p.View {
	case ExportTrend:
		r, err := s.Trend(ctx)
		if err != nil {
			return nil, nil, err
		}
		return trendTable(r), r.Diagnostics, nil

	case ExportOverview:
		r, err := s.Overview(ctx, p.Overview)
		if err != nil {
			return nil, nil, err
		}
		return overviewTable(r), r.Diagnostics, nil

	case ExportPoverty:
		r, err := s.Poverty(ctx, p.Year)
		if err != nil {
			return nil, nil, err
		}
		return povertyTable(r), r.Diagnostics, nil

	case ExportUnemployment:
		r, err := s.Unemployment(ctx, p.Years)
		if err != nil {
			return nil, nil, err
		}
		return unemploymentTable(r.Merged), r.Diagnostics, nil

	case ExportAge:
		r, err := s.Age(ctx, p.Year, p.N)
		if err != nil {
			return nil, nil, err
		}
		return ageTable(r), r.Diagnostics, nil

	case ExportNuances:
		year, err := strconv.Atoi(p.Year)
		if err != nil {
			return nil, nil, apierrors.NewAppValidationError(fmt.Sprintf("invalid nuance year %q", p.Year))
		}
		r, err := s.Nuances(ctx, year, p.Sexes)
		if err != nil {
			return nil, nil, err
		}
		return nuanceTable(r), r.Diagnostics, nil

	case ExportSource:
		// Downloads are never capped by the browsing limit
		res, err := s.fullSource(ctx, p.Source)
		if err != nil {
			return nil, nil, err
		}
		return res.Value, res.Diagnostics, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", apierrors.ErrUnknownView, p.View)
}

func trendTable(r *domain.TrendReport) *domain.Dataset {
	schema := domain.NewSchema(
		domain.TextColumn(domain.ColElectionID),
		domain.TextColumn("label"),
		domain.NumericColumn("mean_abstention"),
		domain.NumericColumn("variation"),
		domain.NumericColumn("rows"),
	)
	rows := make([]domain.Row, 0, len(r.Points))
	for _, p := range r.Points {
		rows = append(rows, domain.Row{
			domain.Text(p.ElectionID), domain.Text(p.Label),
			p.MeanAbstention, p.Variation, domain.Number(float64(p.Rows)),
		})
	}
	return domain.NewDataset("abstention_trend", schema, rows)
}

func overviewTable(r *domain.OverviewReport) *domain.Dataset {
	schema := domain.NewSchema(
		domain.TextColumn(domain.ColElectionID),
		domain.TextColumn(domain.ColDepartmentCode),
		domain.TextColumn(domain.ColDepartmentLabel),
		domain.TextColumn(domain.ColCommuneLabel),
		domain.NumericColumn(domain.ColRegistered),
		domain.NumericColumn(domain.ColAbstentions),
		domain.NumericColumn(domain.ColAbstentionPct),
		domain.NumericColumn(domain.ColBlankPct),
		domain.NumericColumn(domain.ColNullPct),
	)
	rows := make([]domain.Row, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, domain.Row{
			domain.Text(rec.ElectionID), domain.Text(rec.DepartmentCode),
			domain.Text(rec.DepartmentLabel), domain.Text(rec.CommuneLabel),
			rec.Registered, rec.Abstentions, rec.AbstentionPct, rec.BlankPct, rec.NullPct,
		})
	}
	return domain.NewDataset("abstention_"+r.Filter.Election, schema, rows)
}

func povertyTable(r *domain.PovertyReport) *domain.Dataset {
	schema := domain.NewSchema(
		domain.TextColumn(domain.ColDepartmentLabel),
		domain.NumericColumn("Taux de Pauvreté"),
		domain.NumericColumn(domain.ColAbstentionPct),
	)
	rows := make([]domain.Row, 0, len(r.Rows))
	for _, p := range r.Rows {
		rows = append(rows, domain.Row{domain.Text(p.Department), p.Poverty, p.Abstention})
	}
	return domain.NewDataset("pauvrete_absenteisme_"+r.Year, schema, rows)
}

func unemploymentTable(merged []domain.UnemploymentRow) *domain.Dataset {
	schema := domain.NewSchema(
		domain.TextColumn(config.UnemploymentKeyColumn),
		domain.TextColumn(config.UnemploymentLabelColumn),
		domain.TextColumn(domain.ColElectionID),
		domain.TextColumn("year"),
		domain.NumericColumn(unemploymentColumn),
		domain.NumericColumn(domain.ColAbstentionPct),
	)
	rows := make([]domain.Row, 0, len(merged))
	for _, m := range merged {
		rows = append(rows, domain.Row{
			domain.Text(m.DepartmentCode), domain.Text(m.DepartmentName),
			domain.Text(m.ElectionID), domain.Text(m.Year),
			m.Unemployment, m.Abstention,
		})
	}
	return domain.NewDataset("chomage_absenteisme", schema, rows)
}

func ageTable(r *domain.AgeReport) *domain.Dataset {
	schema := domain.NewSchema(
		domain.TextColumn("bracket"),
		domain.TextColumn("group"),
		domain.TextColumn(config.AgeKeyColumn),
		domain.TextColumn(config.AgeLabelColumn),
		domain.TextColumn(domain.ColElectionID),
		domain.TextColumn(domain.ColCommuneLabel),
		domain.NumericColumn("proportion"),
		domain.NumericColumn(domain.ColAbstentionPct),
	)
	var rows []domain.Row
	add := func(group string, summary domain.AgeGroupSummary) {
		for _, a := range summary.Rows {
			rows = append(rows, domain.Row{
				domain.Text(a.Bracket), domain.Text(group),
				domain.Text(a.DepartmentCode), domain.Text(a.DepartmentLabel),
				domain.Text(a.ElectionID), domain.Text(a.CommuneLabel),
				a.Proportion, a.Abstention,
			})
		}
	}
	for _, b := range r.Brackets {
		add("majority", b.Majority)
		add("minority", b.Minority)
	}
	return domain.NewDataset("age_absenteisme_"+r.Year, schema, rows)
}

func nuanceTable(r *domain.NuanceReport) *domain.Dataset {
	schema := domain.NewSchema(
		domain.TextColumn(config.NuanceColumn),
		domain.NumericColumn(config.NuanceVotesColumn),
		domain.NumericColumn(config.NuanceSeatsColumn),
	)
	rows := make([]domain.Row, 0, len(r.Nuances))
	for _, n := range r.Nuances {
		rows = append(rows, domain.Row{domain.Text(n.Nuance), n.Votes, n.Seats})
	}
	return domain.NewDataset(fmt.Sprintf("nuances_%d", r.Year), schema, rows)
}
