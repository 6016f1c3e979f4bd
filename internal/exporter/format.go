package exporter

import (
	"fmt"
	"io"
	"strings"

	apierrors "github.com/CyprienPascal/PIP/internal/errors"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Format is a download file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat reads a format name. The empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", apierrors.ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName returns base with the extension of the format
func (f Format) FileName(base string) string {
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + "." + string(f)
}

// Write serializes ds in the given format
func Write(w io.Writer, ds *domain.Dataset, f Format) error {
	switch f {
	case FormatCSV, "":
		return WriteDatasetCSV(w, ds, false)
	case FormatXLSX:
		return WriteXLSX(w, ds, "")
	default:
		return fmt.Errorf("%w: %q", apierrors.ErrUnsupportedFormat, f)
	}
}

// formatValue renders a cell: shortest round-trip number, raw text, empty for missing
func formatValue(v domain.Value) string {
	return v.String()
}

// DatasetRecords flattens ds into a header and string records
func DatasetRecords(ds *domain.Dataset) ([]string, [][]string) {
	header := ds.Schema().Names()
	records := make([][]string, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = formatValue(v)
		}
		records[i] = record
	}
	return header, records
}
