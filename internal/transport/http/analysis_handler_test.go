package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/internal/files"
	"github.com/CyprienPascal/PIP/internal/infrastructure"
	"github.com/CyprienPascal/PIP/internal/services"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

func newTestRouter(t *testing.T, svc AnalysisServiceInterface) chi.Router {
	t.Helper()
	logger := infrastructure.DiscardLogger()
	h := NewAnalysisHandler(svc, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func serve(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

type envelope struct {
	Status      string             `json:"status"`
	Data        json.RawMessage    `json:"data"`
	Count       int                `json:"count"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.Equal(t, "success", env.Status)
	return env
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestAnalysisHandler_GetSources(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Sources", mock.Anything).Return([]domain.SourceInfo{
		{ID: "elections", Format: "csv", Available: true},
		{ID: "poverty", Format: "csv"},
	})

	w := serve(newTestRouter(t, svc), "/api/sources")

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 2, env.Count)
	assert.NotNil(t, env.Diagnostics)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_GetSourceTable(t *testing.T) {
	ds := domain.NewDataset("poverty", domain.NewSchema(domain.TextColumn("departement")), []domain.Row{{domain.Text("01")}})

	tests := []struct {
		name      string
		target    string
		setup     func(*MockAnalysisService)
		wantCode  int
		wantDiags int
	}{
		{
			name:   "default limit",
			target: "/api/sources/poverty",
			setup: func(m *MockAnalysisService) {
				m.On("SourceTable", mock.Anything, "poverty", 1000).Return(domain.OK(ds), nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:   "degraded",
			target: "/api/sources/poverty?limit=5",
			setup: func(m *MockAnalysisService) {
				m.On("SourceTable", mock.Anything, "poverty", 5).Return(
					domain.Degraded(ds, domain.NewDiagnostic(domain.DiagSourceNotFound, "poverty", "missing file")), nil)
			},
			wantCode:  http.StatusOK,
			wantDiags: 1,
		},
		{
			name:   "unknown source",
			target: "/api/sources/nope",
			setup: func(m *MockAnalysisService) {
				m.On("SourceTable", mock.Anything, "nope", 1000).Return(
					domain.Result[*domain.Dataset]{}, fmt.Errorf("%w: nope", apierrors.ErrUnknownSource))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "invalid limit",
			target:   "/api/sources/poverty?limit=abc",
			setup:    func(m *MockAnalysisService) {},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setup(svc)

			w := serve(newTestRouter(t, svc), tt.target)

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusOK {
				env := decodeEnvelope(t, w)
				assert.Len(t, env.Diagnostics, tt.wantDiags)
				assert.Contains(t, string(env.Data), `"count":1`)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_Validation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"overview without election", "/api/analysis/abstention/overview"},
		{"overview malformed election", "/api/analysis/abstention/overview?election=2017"},
		{"recurrence n too large", "/api/analysis/abstention/recurrence?n=500"},
		{"poverty unsupported year", "/api/analysis/poverty?year=2019"},
		{"unemployment unsupported year", "/api/analysis/unemployment?year=2017&year=1999"},
		{"age without year", "/api/analysis/age"},
		{"nuances unsupported year", "/api/analysis/nuances?year=2019"},
		{"income bad code", "/api/analysis/income/%3F%3F"},
		{"map unknown level", "/api/maps?year=2022&round=1&level=region"},
		{"export unknown view", "/api/export/liquidity"},
		{"export source without id", "/api/export/source"},
		{"export unsupported format", "/api/export/trend?format=pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			w := serve(newTestRouter(t, svc), tt.target)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, float64(http.StatusBadRequest), decodeProblem(t, w)["status"])
			svc.AssertNotCalled(t, "ExportTable", mock.Anything, mock.Anything)
		})
	}
}

func TestAnalysisHandler_Views(t *testing.T) {
	tests := []struct {
		name   string
		target string
		setup  func(*MockAnalysisService)
	}{
		{
			name:   "trend",
			target: "/api/analysis/abstention/trend",
			setup: func(m *MockAnalysisService) {
				m.On("Trend", mock.Anything).Return(&domain.TrendReport{}, nil)
			},
		},
		{
			name:   "overview",
			target: "/api/analysis/abstention/overview?election=2017_legi_t1&department=Ain&department=Aisne&commune=Bourg",
			setup: func(m *MockAnalysisService) {
				m.On("Overview", mock.Anything, domain.OverviewFilter{
					Election:    "2017_legi_t1",
					Departments: []string{"Ain", "Aisne"},
					Commune:     "Bourg",
				}).Return(&domain.OverviewReport{}, nil)
			},
		},
		{
			name:   "recurrence default n",
			target: "/api/analysis/abstention/recurrence",
			setup: func(m *MockAnalysisService) {
				m.On("Recurrence", mock.Anything, 0).Return(&domain.RecurrenceReport{}, nil)
			},
		},
		{
			name:   "blank null",
			target: "/api/analysis/abstention/blank-null",
			setup: func(m *MockAnalysisService) {
				m.On("BlankNull", mock.Anything).Return(&domain.BlankNullReport{}, nil)
			},
		},
		{
			name:   "poverty",
			target: "/api/analysis/poverty?year=2021",
			setup: func(m *MockAnalysisService) {
				m.On("Poverty", mock.Anything, "2021").Return(&domain.PovertyReport{Year: "2021"}, nil)
			},
		},
		{
			name:   "unemployment repeated years",
			target: "/api/analysis/unemployment?year=2017&year=2024",
			setup: func(m *MockAnalysisService) {
				m.On("Unemployment", mock.Anything, []string{"2017", "2024"}).Return(&domain.UnemploymentReport{}, nil)
			},
		},
		{
			name:   "age",
			target: "/api/analysis/age?year=2022&n=3",
			setup: func(m *MockAnalysisService) {
				m.On("Age", mock.Anything, "2022", 3).Return(&domain.AgeReport{}, nil)
			},
		},
		{
			name:   "nuances",
			target: "/api/analysis/nuances?year=2022&sex=F",
			setup: func(m *MockAnalysisService) {
				m.On("Nuances", mock.Anything, 2022, []string{"F"}).Return(&domain.NuanceReport{}, nil)
			},
		},
		{
			name:   "income",
			target: "/api/analysis/income/2A",
			setup: func(m *MockAnalysisService) {
				m.On("Income", mock.Anything, "2A").Return(&domain.IncomeReport{Department: "02A"}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setup(svc)

			w := serve(newTestRouter(t, svc), tt.target)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			decodeEnvelope(t, w)
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_DiagnosticsInEnvelope(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Poverty", mock.Anything, "2017").Return(&domain.PovertyReport{
		Year: "2017",
		Diagnostics: domain.Diagnostics{
			domain.NewDiagnostic(domain.DiagSourceNotFound, "poverty", "file not found"),
		},
	}, nil)

	w := serve(newTestRouter(t, svc), "/api/analysis/poverty?year=2017")

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.Len(t, env.Diagnostics, 1)
	assert.Equal(t, domain.DiagSourceNotFound, env.Diagnostics[0].Kind)
}

func TestAnalysisHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		setup    func(*MockAnalysisService)
		wantCode int
	}{
		{
			name:   "unknown department",
			target: "/api/analysis/income/99",
			setup: func(m *MockAnalysisService) {
				m.On("Income", mock.Anything, "99").Return(nil, fmt.Errorf("%w: 99", apierrors.ErrDepartmentUnknown))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:   "map not available",
			target: "/api/maps?year=2019&level=poverty",
			setup: func(m *MockAnalysisService) {
				m.On("Map", mock.Anything, 2019, 0, "poverty").Return(domain.MapSelection{}, fmt.Errorf("%w: 2019", apierrors.ErrMapNotAvailable))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:   "validation from service",
			target: "/api/analysis/age?year=2017&n=2",
			setup: func(m *MockAnalysisService) {
				m.On("Age", mock.Anything, "2017", 2).Return(nil, apierrors.NewAppValidationError("bad year"))
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setup(svc)

			w := serve(newTestRouter(t, svc), tt.target)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, float64(tt.wantCode), decodeProblem(t, w)["status"])
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_Maps(t *testing.T) {
	dir := t.TempDir()
	fragment := filepath.Join(dir, "res_2022_T1_dept.html")
	require.NoError(t, os.WriteFile(fragment, []byte("<div>map</div>"), 0644))

	svc := new(MockAnalysisService)
	svc.On("Map", mock.Anything, 2022, 1, "dept").Return(domain.MapSelection{
		Year: 2022, Round: 1, Level: "dept", File: "res_2022_T1_dept.html", Path: fragment, Exists: true,
	}, nil)
	svc.On("Map", mock.Anything, 2024, 2, "dept").Return(domain.MapSelection{
		Year: 2024, Round: 2, Level: "dept", File: "res_2024_T2_dept.html", Path: filepath.Join(dir, "res_2024_T2_dept.html"),
	}, nil)
	svc.On("AvailableMaps", mock.Anything).Return([]files.FileInfo{{Name: "res_2022_T1_dept.html", Path: fragment}})
	r := newTestRouter(t, svc)

	t.Run("selection hides the server path", func(t *testing.T) {
		w := serve(r, "/api/maps?year=2022&round=1&level=dept")
		require.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.NotContains(t, string(env.Data), dir)
		assert.Contains(t, string(env.Data), `"exists":true`)
	})

	t.Run("missing fragment is reported not failed", func(t *testing.T) {
		w := serve(r, "/api/maps?year=2024&round=2&level=dept")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(decodeEnvelope(t, w).Data), `"exists":false`)
	})

	t.Run("fragment content", func(t *testing.T) {
		w := serve(r, "/api/maps/fragment?year=2022&round=1&level=dept")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "<div>map</div>", w.Body.String())
		assert.Equal(t, mapFragmentCSP, w.Header().Get("Content-Security-Policy"))
	})

	t.Run("missing fragment content", func(t *testing.T) {
		w := serve(r, "/api/maps/fragment?year=2024&round=2&level=dept")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("available", func(t *testing.T) {
		w := serve(r, "/api/maps/available")
		require.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.Equal(t, 1, env.Count)
		assert.NotContains(t, string(env.Data), dir)
	})
}

func TestAnalysisHandler_Export(t *testing.T) {
	table := domain.NewDataset("pauvrete_absenteisme_2017",
		domain.NewSchema(domain.TextColumn("department"), domain.NumericColumn("poverty")),
		[]domain.Row{{domain.Text("Ain"), domain.Number(12)}})

	isPoverty := mock.MatchedBy(func(p services.ExportParams) bool {
		return p.View == services.ExportPoverty && p.Year == "2017"
	})

	t.Run("csv", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ExportTable", mock.Anything, isPoverty).Return(table, domain.Diagnostics{
			domain.NewDiagnostic(domain.DiagEmptyJoin, "poverty", "no rows"),
		}, nil)

		w := serve(newTestRouter(t, svc), "/api/export/poverty?year=2017")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "pauvrete_absenteisme_2017.csv")
		assert.Equal(t, "1", w.Header().Get(DiagnosticsHeader))
		assert.Contains(t, w.Body.String(), "department,poverty")
		assert.Contains(t, w.Body.String(), "Ain,12")
	})

	t.Run("xlsx", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ExportTable", mock.Anything, isPoverty).Return(table, domain.Diagnostics(nil), nil)

		w := serve(newTestRouter(t, svc), "/api/export/poverty?year=2017&format=xlsx")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		assert.Equal(t, "PK", w.Body.String()[:2])
	})

	t.Run("source", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ExportTable", mock.Anything, mock.MatchedBy(func(p services.ExportParams) bool {
			return p.View == services.ExportSource && p.Source == "age"
		})).Return(table.WithName("age"), domain.Diagnostics(nil), nil)

		w := serve(newTestRouter(t, svc), "/api/export/source?source=age")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "age.csv")
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(MockAnalysisService)
		svc.On("ExportTable", mock.Anything, isPoverty).Return(nil, domain.Diagnostics(nil), apierrors.NewAppValidationError("bad year"))

		w := serve(newTestRouter(t, svc), "/api/export/poverty?year=2017")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
