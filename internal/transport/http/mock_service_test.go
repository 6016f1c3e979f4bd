package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/CyprienPascal/PIP/internal/files"
	"github.com/CyprienPascal/PIP/internal/services"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// MockAnalysisService is a testify mock of AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Sources(ctx context.Context) []domain.SourceInfo {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SourceInfo)
}

func (m *MockAnalysisService) SourceTable(ctx context.Context, id string, limit int) (domain.Result[*domain.Dataset], error) {
	args := m.Called(ctx, id, limit)
	return args.Get(0).(domain.Result[*domain.Dataset]), args.Error(1)
}

func (m *MockAnalysisService) Trend(ctx context.Context) (*domain.TrendReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*domain.TrendReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) Overview(ctx context.Context, filter domain.OverviewFilter) (*domain.OverviewReport, error) {
	args := m.Called(ctx, filter)
	r, _ := args.Get(0).(*domain.OverviewReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) Recurrence(ctx context.Context, n int) (*domain.RecurrenceReport, error) {
	args := m.Called(ctx, n)
	r, _ := args.Get(0).(*domain.RecurrenceReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) BlankNull(ctx context.Context) (*domain.BlankNullReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*domain.BlankNullReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) Poverty(ctx context.Context, year string) (*domain.PovertyReport, error) {
	args := m.Called(ctx, year)
	r, _ := args.Get(0).(*domain.PovertyReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) Unemployment(ctx context.Context, years []string) (*domain.UnemploymentReport, error) {
	args := m.Called(ctx, years)
	r, _ := args.Get(0).(*domain.UnemploymentReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) Age(ctx context.Context, year string, n int) (*domain.AgeReport, error) {
	args := m.Called(ctx, year, n)
	r, _ := args.Get(0).(*domain.AgeReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) Nuances(ctx context.Context, year int, sexes []string) (*domain.NuanceReport, error) {
	args := m.Called(ctx, year, sexes)
	r, _ := args.Get(0).(*domain.NuanceReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) Income(ctx context.Context, department string) (*domain.IncomeReport, error) {
	args := m.Called(ctx, department)
	r, _ := args.Get(0).(*domain.IncomeReport)
	return r, args.Error(1)
}

func (m *MockAnalysisService) Map(ctx context.Context, year, round int, level string) (domain.MapSelection, error) {
	args := m.Called(ctx, year, round, level)
	return args.Get(0).(domain.MapSelection), args.Error(1)
}

func (m *MockAnalysisService) AvailableMaps(ctx context.Context) []files.FileInfo {
	args := m.Called(ctx)
	return args.Get(0).([]files.FileInfo)
}

func (m *MockAnalysisService) ExportTable(ctx context.Context, p services.ExportParams) (*domain.Dataset, domain.Diagnostics, error) {
	args := m.Called(ctx, p)
	ds, _ := args.Get(0).(*domain.Dataset)
	diags, _ := args.Get(1).(domain.Diagnostics)
	return ds, diags, args.Error(2)
}
