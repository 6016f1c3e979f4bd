package dataprocessing

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/infrastructure"
	"github.com/CyprienPascal/PIP/internal/storage"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SourceReader loads datasets by source id
type SourceReader interface {
	Load(ctx context.Context, id string) domain.Result[*domain.Dataset]
}

// Loader reads catalog sources from the data directory or the SQL backend
type Loader struct {
	catalog *config.SourceCatalog
	dataDir string
	db      *storage.DB
	logger  *slog.Logger
	metrics *infrastructure.EngineMetrics
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithDatabase serves SQL-format sources from db
func WithDatabase(db *storage.DB) LoaderOption {
	return func(l *Loader) { l.db = db }
}

// WithLoaderLogger sets the logger
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLoaderMetrics records load counters
func WithLoaderMetrics(m *infrastructure.EngineMetrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a loader over a catalog. File sources resolve under dataDir.
func NewLoader(catalog *config.SourceCatalog, dataDir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		catalog: catalog,
		dataDir: dataDir,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(slog.String("component", "loader"))
	return l
}

// Catalog returns the source catalog
func (l *Loader) Catalog() *config.SourceCatalog {
	return l.catalog
}

// Path returns the file path of a file-backed source
func (l *Loader) Path(spec config.SourceSpec) string {
	return filepath.Join(l.dataDir, spec.File)
}

// Available reports whether a source can be read without loading it
func (l *Loader) Available(id string) bool {
	spec, ok := l.catalog.Get(id)
	if !ok {
		return false
	}
	if spec.Format == config.FormatSQL {
		return l.db != nil
	}
	return config.FileExists(l.Path(spec))
}

// Load reads a whole source. On any failure it returns an empty dataset and a
// SOURCE_NOT_FOUND diagnostic; a source is never partially loaded.
func (l *Loader) Load(ctx context.Context, id string) domain.Result[*domain.Dataset] {
	spec, ok := l.catalog.Get(id)
	if !ok {
		l.metrics.RecordLoad(ctx, id, false)
		return domain.Degraded(domain.EmptyDataset(id, domain.NewSchema()),
			domain.NewDiagnostic(domain.DiagSourceNotFound, id, "unknown source %q", id))
	}

	ctx, span := infrastructure.StartSpan(ctx, "engine.load",
		attribute.String("source", id),
		attribute.String("format", string(spec.Format)))
	defer span.End()

	start := time.Now()
	header, records, err := l.read(ctx, spec)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		l.metrics.RecordLoad(ctx, id, false)
		l.logger.WarnContext(ctx, "Source unavailable",
			slog.String("source", id),
			slog.String("error", err.Error()))
		return domain.Degraded(domain.EmptyDataset(id, domain.NewSchema()), sourceDiagnostic(id, err))
	}

	ds, rejected := buildDataset(spec, header, records)
	l.metrics.RecordLoad(ctx, id, true)
	span.SetAttributes(attribute.Int("rows", ds.Len()))

	l.logger.InfoContext(ctx, "Source loaded",
		slog.String("source", id),
		slog.Int("rows", ds.Len()),
		slog.Int("columns", ds.Schema().Len()),
		slog.Int("out_of_range_percentages", rejected),
		slog.Duration("duration", time.Since(start)))

	return domain.OK(ds)
}

func sourceDiagnostic(id string, err error) domain.Diagnostic {
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewDiagnostic(domain.DiagSourceNotFound, id, "source file not found: %v", err)
	}
	return domain.NewDiagnostic(domain.DiagSourceNotFound, id, "source unreadable: %v", err)
}

func (l *Loader) read(ctx context.Context, spec config.SourceSpec) ([]string, [][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	switch spec.Format {
	case config.FormatCSV:
		return readCSV(l.Path(spec), spec.Comma())
	case config.FormatXLSX:
		return readXLSX(l.Path(spec), spec.Sheet)
	case config.FormatSQL:
		return l.readSQL(ctx, spec.Table)
	default:
		return nil, nil, fmt.Errorf("unsupported format %q", spec.Format)
	}
}

func readCSV(path string, comma rune) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = 0

	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("parse %s: no header row", filepath.Base(path))
	}
	return all[0], all[1:], nil
}

func readXLSX(path, sheet string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("workbook %s has no sheet", filepath.Base(path))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	header := rows[0]
	// excelize trims trailing empty cells; anything wider than the header is malformed
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, nil, fmt.Errorf("sheet %q row %d has %d cells, header has %d", sheet, i+2, len(row), len(header))
		}
	}
	return header, rows[1:], nil
}

func (l *Loader) readSQL(ctx context.Context, table string) ([]string, [][]string, error) {
	if l.db == nil {
		return nil, nil, fmt.Errorf("no database configured for table %s", table)
	}
	if !config.ValidTableName(table) {
		return nil, nil, fmt.Errorf("invalid table name %q", table)
	}

	rows, err := l.db.QueryContext(ctx, "SELECT * FROM "+l.db.QuoteIdent(table))
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	cells := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range cells {
		dest[i] = &cells[i]
	}

	var records [][]string
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", table, err)
		}
		record := make([]string, len(header))
		for i, c := range cells {
			if c.Valid {
				record[i] = c.String
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", table, err)
	}
	return header, records, nil
}

// buildDataset types the raw cells. It returns the number of percentages
// rejected for being outside [0,100].
func buildDataset(spec config.SourceSpec, header []string, records [][]string) (*domain.Dataset, int) {
	names := uniqueHeader(header)
	cols := make([]domain.Column, len(names))
	for i, name := range names {
		cols[i] = domain.Column{Name: name, Type: spec.ColumnType(name)}
	}
	schema := domain.NewSchema(cols...)

	rejected := 0
	rows := make([]domain.Row, len(records))
	for r, record := range records {
		row := make(domain.Row, len(cols))
		for i, col := range cols {
			if i >= len(record) {
				continue
			}
			if col.Type != domain.ColumnNumeric {
				row[i] = domain.Text(record[i])
				continue
			}
			v := domain.ParseNumber(record[i])
			if spec.IsPercent(col.Name) {
				if f, ok := v.Float(); ok && (f < 0 || f > 100) {
					v = domain.Missing()
					rejected++
				}
			}
			row[i] = v
		}
		rows[r] = row
	}
	return domain.NewDataset(spec.ID, schema, rows), rejected
}

// uniqueHeader trims names and suffixes repeated ones (".1", ".2") so that
// every cell keeps a distinct column.
func uniqueHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			out[i] = fmt.Sprintf("%s.%d", name, n+1)
			continue
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
