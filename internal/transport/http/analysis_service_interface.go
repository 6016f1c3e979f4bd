package http

import (
	"context"

	"github.com/CyprienPascal/PIP/internal/files"
	"github.com/CyprienPascal/PIP/internal/services"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the views served over HTTP
type AnalysisServiceInterface interface {
	Sources(ctx context.Context) []domain.SourceInfo
	SourceTable(ctx context.Context, id string, limit int) (domain.Result[*domain.Dataset], error)

	Trend(ctx context.Context) (*domain.TrendReport, error)
	Overview(ctx context.Context, filter domain.OverviewFilter) (*domain.OverviewReport, error)
	Recurrence(ctx context.Context, n int) (*domain.RecurrenceReport, error)
	BlankNull(ctx context.Context) (*domain.BlankNullReport, error)

	Poverty(ctx context.Context, year string) (*domain.PovertyReport, error)
	Unemployment(ctx context.Context, years []string) (*domain.UnemploymentReport, error)
	Age(ctx context.Context, year string, n int) (*domain.AgeReport, error)
	Nuances(ctx context.Context, year int, sexes []string) (*domain.NuanceReport, error)
	Income(ctx context.Context, department string) (*domain.IncomeReport, error)

	Map(ctx context.Context, year, round int, level string) (domain.MapSelection, error)
	AvailableMaps(ctx context.Context) []files.FileInfo

	ExportTable(ctx context.Context, p services.ExportParams) (*domain.Dataset, domain.Diagnostics, error)
}

var _ AnalysisServiceInterface = (*services.AnalysisService)(nil)
