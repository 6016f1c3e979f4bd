package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

func sampleDataset() *domain.Dataset {
	schema := domain.NewSchema(
		domain.TextColumn("DEP_CODE"),
		domain.TextColumn("DEP_NOM"),
		domain.NumericColumn("taux_chomage"),
		domain.NumericColumn("% Abs/Ins"),
	)
	return domain.NewDataset("chomage", schema, []domain.Row{
		{domain.Text("01"), domain.Text("Ain"), domain.Number(6.2), domain.Number(48.123456789)},
		{domain.Text("2A"), domain.Text("Corse-du-Sud, île"), domain.Missing(), domain.Number(51)},
	})
}

func TestDatasetRecords(t *testing.T) {
	header, records := DatasetRecords(sampleDataset())
	assert.Equal(t, []string{"DEP_CODE", "DEP_NOM", "taux_chomage", "% Abs/Ins"}, header)
	assert.Equal(t, [][]string{
		{"01", "Ain", "6.2", "48.123456789"},
		{"2A", "Corse-du-Sud, île", "", "51"},
	}, records)
}

func TestWriteDatasetCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDatasetCSV(&buf, sampleDataset(), false))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Corse-du-Sud, île", rows[2][1])

	buf.Reset()
	require.NoError(t, WriteDatasetCSV(&buf, sampleDataset(), true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
}

func TestCSVWriterWriteDataset(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	writer := NewCSVWriter(paths)

	path, err := writer.WriteDataset("chomage_absenteisme.csv", sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, paths.GetReportPath("chomage_absenteisme.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"DEP_CODE", "DEP_NOM", "taux_chomage", "% Abs/Ins"}, rows[0])
	assert.Len(t, rows, 3)
}

func TestCSVWriterWriteCSV(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	writer := NewCSVWriter(paths)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		want     string
	}{
		{
			name:     "relative path with headers",
			filePath: "nested/out.csv",
			options:  WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "2"}}},
			want:     "a,b\n1,2\n",
		},
		{
			name:     "semicolon delimiter",
			filePath: "semi.csv",
			options:  WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "2"}}, Comma: ';'},
			want:     "a;b\n1;2\n",
		},
		{
			name:     "absolute path without header",
			filePath: filepath.Join(t.TempDir(), "abs.csv"),
			options:  WriteOptions{Records: [][]string{{"x"}}},
			want:     "x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := writer.WriteCSV(tt.filePath, tt.options)
			require.NoError(t, err)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}
