package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/shared/testutil"
	"github.com/CyprienPascal/PIP/internal/storage"
)

type run struct {
	out    *bytes.Buffer
	errOut *bytes.Buffer
	err    error
}

// execute runs the CLI against a temporary tree whose data directory is data
func execute(t *testing.T, data *testutil.DataDir, args ...string) run {
	t.Helper()
	return executeWith(t, config.StorageConfig{}, data, args...)
}

func executeWith(t *testing.T, store config.StorageConfig, data *testutil.DataDir, args ...string) run {
	t.Helper()
	root := t.TempDir()

	var out, errOut bytes.Buffer
	c := &cli{
		out:    &out,
		errOut: &errOut,
		loadConfig: func() (*config.Config, error) {
			cfg := config.Default()
			cfg.Paths.ExecutableDir = root
			if store.Enabled() {
				cfg.Storage.Driver = store.Driver
				cfg.Storage.DSN = store.DSN
			}
			return cfg, nil
		},
	}

	cmd := c.rootCommand()
	cmd.SetArgs(append([]string{"--data-dir", data.Root}, args...))
	err := cmd.ExecuteContext(context.Background())
	return run{out: &out, errOut: &errOut, err: err}
}

func electionsDir(t *testing.T) *testutil.DataDir {
	data := testutil.NewDataDir(t)
	data.WriteElections(
		testutil.ElectionRow{ID: "2017_legi_t1", Dept: "01", DeptLabel: "Ain", Commune: "01053", CommuneLabel: "Bourg-en-Bresse", Registered: 100, Abstentions: 40, Blank: 2, Null: 1},
		testutil.ElectionRow{ID: "2017_legi_t1", Dept: "02", DeptLabel: "Aisne", Commune: "02408", CommuneLabel: "Laon", Registered: 100, Abstentions: 50, Blank: 2, Null: 1},
		testutil.ElectionRow{ID: "2022_legi_t1", Dept: "01", DeptLabel: "Ain", Commune: "01053", CommuneLabel: "Bourg-en-Bresse", Registered: 100, Abstentions: 30, Blank: 1, Null: 3},
	)
	return data
}

func TestTrendCommand(t *testing.T) {
	r := execute(t, electionsDir(t), "trend")
	require.NoError(t, r.err, r.errOut.String())

	out := r.out.String()
	assert.Contains(t, out, "2017_legi_t1")
	assert.Contains(t, out, "2022_legi_t1")
	assert.Contains(t, out, "45.00")
	assert.NotContains(t, r.errOut.String(), "warning:")
}

func TestTrendCommand_MissingSource(t *testing.T) {
	r := execute(t, testutil.NewDataDir(t), "trend")
	require.NoError(t, r.err)

	assert.Contains(t, r.errOut.String(), "warning: [SOURCE_NOT_FOUND] elections")
}

func TestOverviewCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    []string
	}{
		{
			name: "whole election",
			args: []string{"overview", "--election", "2017_legi_t1"},
			want: []string{"2 rows", "rate 45.00%", "Ain", "Aisne"},
		},
		{
			name: "one department",
			args: []string{"overview", "--election", "2017_legi_t1", "--dept", "Aisne"},
			want: []string{"1 rows", "rate 50.00%"},
		},
		{
			name:    "election is required",
			args:    []string{"overview"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, electionsDir(t), tt.args...)
			if tt.wantErr {
				require.Error(t, r.err)
				return
			}
			require.NoError(t, r.err, r.errOut.String())
			for _, w := range tt.want {
				assert.Contains(t, r.out.String(), w)
			}
		})
	}
}

func TestCommands_RejectUnavailableYears(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "poverty", args: []string{"poverty", "--year", "1999"}},
		{name: "unemployment", args: []string{"unemployment", "--year", "2019"}},
		{name: "age", args: []string{"age", "--year", "2020"}},
		{name: "nuances", args: []string{"nuances", "--year", "2019"}},
		{name: "income without department", args: []string{"income"}},
		{name: "map level", args: []string{"map", "--level", "region"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, testutil.NewDataDir(t), tt.args...)
			assert.Error(t, r.err)
		})
	}
}

func TestSourcesCommand(t *testing.T) {
	r := execute(t, electionsDir(t), "sources")
	require.NoError(t, r.err)

	out := r.out.String()
	for _, id := range config.DefaultSourceCatalog().IDs() {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "data_elections.csv")
	assert.Contains(t, out, "true")
}

func TestExportFlag(t *testing.T) {
	data := electionsDir(t)
	target := filepath.Join(t.TempDir(), "trend.csv")

	r := execute(t, data, "--export", target, "trend")
	require.NoError(t, r.err, r.errOut.String())
	assert.Contains(t, r.errOut.String(), "exported 2 rows")

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id_election,label,mean_abstention,variation,rows", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2017_legi_t1,"))
}

func TestMapCommand(t *testing.T) {
	r := execute(t, testutil.NewDataDir(t), "map", "--year", "2022", "--round", "2", "--level", "dept")
	require.NoError(t, r.err)

	assert.Contains(t, r.out.String(), "res_2022_T2_dept.html")
	assert.Contains(t, r.out.String(), "false")
}

func TestImportCommand(t *testing.T) {
	store := config.StorageConfig{Driver: storage.DriverSQLite, DSN: filepath.Join(t.TempDir(), "pip.db")}

	r := executeWith(t, store, electionsDir(t), "import", "elections", "--table", "elections_legi")
	require.NoError(t, r.err, r.errOut.String())
	assert.Contains(t, r.out.String(), "imported 3 rows of elections into table elections_legi")

	db, err := storage.Open(context.Background(), store, nil)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM "elections_legi"`).Scan(&count))
	assert.Equal(t, 3, count)
}

func TestImportCommand_Failures(t *testing.T) {
	store := config.StorageConfig{Driver: storage.DriverSQLite, DSN: filepath.Join(t.TempDir(), "pip.db")}

	tests := []struct {
		name  string
		store config.StorageConfig
		args  []string
	}{
		{name: "no backend", args: []string{"import", "elections"}},
		{name: "missing file", store: store, args: []string{"import", "poverty"}},
		{name: "unknown source", store: store, args: []string{"import", "bogus"}},
		{name: "invalid table", store: store, args: []string{"import", "elections", "--table", "drop table;"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := executeWith(t, tt.store, electionsDir(t), tt.args...)
			assert.Error(t, r.err)
		})
	}
}
