package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// DataDir is a temporary data directory populated with source files
type DataDir struct {
	t    *testing.T
	Root string
}

// NewDataDir creates an empty data directory removed at test cleanup
func NewDataDir(t *testing.T) *DataDir {
	t.Helper()
	return &DataDir{t: t, Root: t.TempDir()}
}

// Path returns the absolute path of a file in the directory
func (d *DataDir) Path(name string) string {
	return filepath.Join(d.Root, name)
}

// Write stores raw content and returns its path
func (d *DataDir) Write(name, content string) string {
	d.t.Helper()
	path := d.Path(name)
	require.NoError(d.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(d.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteCSV stores a delimited table and returns its path
func (d *DataDir) WriteCSV(name string, comma rune, header []string, rows ...[]string) string {
	d.t.Helper()
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = comma
	require.NoError(d.t, w.Write(header))
	for _, row := range rows {
		require.NoError(d.t, w.Write(row))
	}
	w.Flush()
	require.NoError(d.t, w.Error())
	return d.Write(name, b.String())
}

// ElectionRow is one commune line of the electoral table
type ElectionRow struct {
	ID           string
	Dept         string
	DeptLabel    string
	Commune      string
	CommuneLabel string
	Registered   float64
	Abstentions  float64
	Blank        float64
	Null         float64
}

// ElectionHeader is the column order written by WriteElections
var ElectionHeader = []string{
	domain.ColElectionID,
	domain.ColDepartmentCode,
	domain.ColDepartmentLabel,
	domain.ColCommuneCode,
	domain.ColCommuneLabel,
	domain.ColRegistered,
	domain.ColAbstentions,
	domain.ColAbstentionPct,
	domain.ColVoters,
	domain.ColVotersPct,
	domain.ColBlank,
	domain.ColBlankPct,
	domain.ColNull,
	domain.ColNullPct,
	domain.ColCast,
	domain.ColCastPct,
}

// WriteElections writes data_elections.csv. Counts derive the percentages.
func (d *DataDir) WriteElections(rows ...ElectionRow) string {
	d.t.Helper()
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		voters := r.Registered - r.Abstentions
		cast := voters - r.Blank - r.Null
		records = append(records, []string{
			r.ID,
			r.Dept,
			r.DeptLabel,
			r.Commune,
			r.CommuneLabel,
			num(r.Registered),
			num(r.Abstentions),
			pct(r.Abstentions, r.Registered),
			num(voters),
			pct(voters, r.Registered),
			num(r.Blank),
			pct(r.Blank, r.Registered),
			num(r.Null),
			pct(r.Null, r.Registered),
			num(cast),
			pct(cast, r.Registered),
		})
	}
	return d.WriteCSV("data_elections.csv", ',', ElectionHeader, records...)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func pct(part, whole float64) string {
	if whole == 0 {
		return ""
	}
	return num(part * 100 / whole)
}
