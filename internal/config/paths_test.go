package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)
	require.NotNil(t, paths)

	assert.True(t, filepath.IsAbs(paths.ExecutableDir), "ExecutableDir should be absolute")
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data", "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "maps"), paths.MapsDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
}

func TestNewPathsHelpers(t *testing.T) {
	root := t.TempDir()
	p := NewPaths(root)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"data", p.GetDataPath("data_elections.csv"), filepath.Join(root, "data", "data_elections.csv")},
		{"report", p.GetReportPath("out.csv"), filepath.Join(root, "data", "reports", "out.csv")},
		{"map", p.GetMapPath("res_2017_T1_dept.html"), filepath.Join(root, "maps", "res_2017_T1_dept.html")},
		{"log", p.GetLogPath("app.log"), filepath.Join(root, "logs", "app.log")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.ReportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Inputs are never created
	_, err := os.Stat(p.MapsDir)
	assert.True(t, os.IsNotExist(err))

	// Idempotent
	require.NoError(t, p.EnsureDirectories())
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.csv")))
	assert.False(t, FileExists(dir), "directories are not files")
}
