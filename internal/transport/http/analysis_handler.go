package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/CyprienPascal/PIP/internal/config"
	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/internal/exporter"
	"github.com/CyprienPascal/PIP/internal/middleware"
	"github.com/CyprienPascal/PIP/internal/services"
	api "github.com/CyprienPascal/PIP/pkg/contracts/api/v1"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// DiagnosticsHeader reports the number of diagnostics of a download
const DiagnosticsHeader = "X-Diagnostics"

// mapFragmentCSP lets the pre-rendered maps load their tiles and scripts
const mapFragmentCSP = "default-src 'self'; script-src 'self' 'unsafe-inline' https:; style-src 'self' 'unsafe-inline' https:; img-src 'self' data: https:; frame-ancestors 'self'"

// AnalysisHandler serves the catalog, the analytical views, the maps and the exports
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validator    *middleware.Validator
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler with RFC 7807 error handling
func NewAnalysisHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		validator:    middleware.NewValidator(logger),
		query:        middleware.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes mounts the routes on r, which is expected to be the /api router
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/sources", h.GetSources)
		r.Get("/sources/{id}", h.GetSourceTable)

		r.Route("/analysis", func(r chi.Router) {
			r.Route("/abstention", func(r chi.Router) {
				r.Get("/trend", h.GetTrend)
				r.Get("/overview", h.GetOverview)
				r.Get("/recurrence", h.GetRecurrence)
				r.Get("/blank-null", h.GetBlankNull)
			})
			r.Get("/poverty", h.GetPoverty)
			r.Get("/unemployment", h.GetUnemployment)
			r.Get("/age", h.GetAge)
			r.Get("/nuances", h.GetNuances)
			r.Get("/income/{dept}", h.GetIncome)
		})

		r.Get("/maps", h.GetMap)
		r.Get("/maps/available", h.GetAvailableMaps)
	})

	r.Get("/maps/fragment", h.GetMapFragment)
	r.With(middleware.ExportAudit(h.logger)).Get("/export/{view}", h.Export)
}

// respond renders the success envelope
func (h *AnalysisHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}, diags domain.Diagnostics) {
	if len(diags) > 0 {
		h.logger.DebugContext(r.Context(), "view degraded",
			slog.String("path", r.URL.Path),
			slog.Int("diagnostics", len(diags)),
			slog.String("request_id", middleware.GetRequestID(r.Context())))
	}
	render.JSON(w, r, api.NewResponse(data, diags))
}

// validate checks req and writes the error response when it is rejected
func (h *AnalysisHandler) validate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// GetSources handles GET /api/sources
func (h *AnalysisHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	sources := h.service.Sources(r.Context())
	render.JSON(w, r, api.NewResponse(sources, nil).WithCount(len(sources)))
}

// GetSourceTable handles GET /api/sources/{id}
func (h *AnalysisHandler) GetSourceTable(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, config.MaxSourceRowLimit, config.DefaultSourceRowLimit)
	if !ok {
		return
	}
	req := api.SourceTableRequest{ID: chi.URLParam(r, "id"), Limit: limit}
	if !h.validate(w, r, req) {
		return
	}

	res, err := h.service.SourceTable(r.Context(), req.ID, req.Limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, res.Value, res.Diagnostics)
}

// GetTrend handles GET /api/analysis/abstention/trend
func (h *AnalysisHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Trend(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// GetOverview handles GET /api/analysis/abstention/overview
func (h *AnalysisHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.OverviewRequest{
		Election:    q.Get("election"),
		Departments: q["department"],
		Commune:     q.Get("commune"),
	}
	if !h.validate(w, r, req) {
		return
	}

	report, err := h.service.Overview(r.Context(), domain.OverviewFilter{
		Election:    req.Election,
		Departments: req.Departments,
		Commune:     req.Commune,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// GetRecurrence handles GET /api/analysis/abstention/recurrence
func (h *AnalysisHandler) GetRecurrence(w http.ResponseWriter, r *http.Request) {
	n, ok := h.query.ValidateInt(w, r, "n", 1, 100, 0)
	if !ok {
		return
	}
	req := api.RecurrenceRequest{N: n}
	if !h.validate(w, r, req) {
		return
	}

	report, err := h.service.Recurrence(r.Context(), req.N)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// GetBlankNull handles GET /api/analysis/abstention/blank-null
func (h *AnalysisHandler) GetBlankNull(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.BlankNull(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// GetPoverty handles GET /api/analysis/poverty
func (h *AnalysisHandler) GetPoverty(w http.ResponseWriter, r *http.Request) {
	req := api.PovertyRequest{Year: r.URL.Query().Get("year")}
	if !h.validate(w, r, req) {
		return
	}

	report, err := h.service.Poverty(r.Context(), req.Year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// GetUnemployment handles GET /api/analysis/unemployment. The year parameter
// repeats; none selects every year.
func (h *AnalysisHandler) GetUnemployment(w http.ResponseWriter, r *http.Request) {
	req := api.UnemploymentRequest{Years: r.URL.Query()["year"]}
	if !h.validate(w, r, req) {
		return
	}

	report, err := h.service.Unemployment(r.Context(), req.Years)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// GetAge handles GET /api/analysis/age
func (h *AnalysisHandler) GetAge(w http.ResponseWriter, r *http.Request) {
	n, ok := h.query.ValidateInt(w, r, "n", 1, 50, 0)
	if !ok {
		return
	}
	req := api.AgeRequest{Year: r.URL.Query().Get("year"), N: n}
	if !h.validate(w, r, req) {
		return
	}

	report, err := h.service.Age(r.Context(), req.Year, req.N)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// GetNuances handles GET /api/analysis/nuances
func (h *AnalysisHandler) GetNuances(w http.ResponseWriter, r *http.Request) {
	year, ok := h.query.ValidateInt(w, r, "year", 1900, 2100, 0)
	if !ok {
		return
	}
	req := api.NuanceRequest{Year: year, Sexes: r.URL.Query()["sex"]}
	if !h.validate(w, r, req) {
		return
	}

	report, err := h.service.Nuances(r.Context(), req.Year, req.Sexes)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// GetIncome handles GET /api/analysis/income/{dept}
func (h *AnalysisHandler) GetIncome(w http.ResponseWriter, r *http.Request) {
	req := api.IncomeRequest{Department: chi.URLParam(r, "dept")}
	if !h.validate(w, r, req) {
		return
	}

	report, err := h.service.Income(r.Context(), req.Department)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, report, report.Diagnostics)
}

// mapRequest reads and validates the map selection parameters
func (h *AnalysisHandler) mapRequest(w http.ResponseWriter, r *http.Request) (api.MapRequest, bool) {
	year, ok := h.query.ValidateInt(w, r, "year", 2000, 2100, 0)
	if !ok {
		return api.MapRequest{}, false
	}
	round, ok := h.query.ValidateInt(w, r, "round", 1, 2, 0)
	if !ok {
		return api.MapRequest{}, false
	}
	req := api.MapRequest{Year: year, Round: round, Level: r.URL.Query().Get("level")}
	return req, h.validate(w, r, req)
}

// GetMap handles GET /api/maps. A fragment missing on disk is reported with
// exists=false rather than as an error.
func (h *AnalysisHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	req, ok := h.mapRequest(w, r)
	if !ok {
		return
	}

	sel, err := h.service.Map(r.Context(), req.Year, req.Round, req.Level)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	sel.Path = ""
	h.respond(w, r, sel, nil)
}

// GetAvailableMaps handles GET /api/maps/available
func (h *AnalysisHandler) GetAvailableMaps(w http.ResponseWriter, r *http.Request) {
	maps := h.service.AvailableMaps(r.Context())
	names := make([]string, 0, len(maps))
	for _, m := range maps {
		names = append(names, m.Name)
	}
	render.JSON(w, r, api.NewResponse(names, nil).WithCount(len(names)))
}

// GetMapFragment handles GET /api/maps/fragment and serves the HTML itself
func (h *AnalysisHandler) GetMapFragment(w http.ResponseWriter, r *http.Request) {
	req, ok := h.mapRequest(w, r)
	if !ok {
		return
	}

	sel, err := h.service.Map(r.Context(), req.Year, req.Round, req.Level)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !sel.Exists {
		h.errorHandler.HandleError(w, r, fmt.Errorf("%w: %s", apierrors.ErrMapNotAvailable, sel.File))
		return
	}

	w.Header().Set("Content-Security-Policy", mapFragmentCSP)
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")
	http.ServeFile(w, r, sel.Path)
}

// Export handles GET /api/export/{view}. The table is rendered in memory so a
// failing view still gets an RFC 7807 response.
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := api.ExportRequest{
		View:   chi.URLParam(r, "view"),
		Format: q.Get("format"),
		Source: q.Get("source"),
	}
	if !h.validate(w, r, req) {
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	n, _ := strconv.Atoi(q.Get("n"))
	table, diags, err := h.service.ExportTable(r.Context(), services.ExportParams{
		View:   req.View,
		Source: req.Source,
		Overview: domain.OverviewFilter{
			Election:    q.Get("election"),
			Departments: q["department"],
			Commune:     q.Get("commune"),
		},
		Year:  q.Get("year"),
		Years: q["year"],
		N:     n,
		Sexes: q["sex"],
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.Write(&buf, table, format); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ExportError(req.View, err))
		return
	}

	h.logger.InfoContext(r.Context(), "export ready",
		slog.String("view", req.View),
		slog.String("format", string(format)),
		slog.Int("rows", table.Len()),
		slog.Int("diagnostics", len(diags)))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(table.Name())))
	w.Header().Set(DiagnosticsHeader, strconv.Itoa(len(diags)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
