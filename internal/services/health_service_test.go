package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/shared/testutil"
	"github.com/CyprienPascal/PIP/pkg/contracts"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

func newHealthPaths(t *testing.T) *config.Paths {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.DataDir, 0755))
	require.NoError(t, os.MkdirAll(paths.MapsDir, 0755))
	return paths
}

func TestHealthService_HealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(newHealthPaths(t), nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, contracts.Version, status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name     string
		sources  []domain.SourceInfo
		dropMaps bool
		status   string
		failing  string
	}{
		{
			name:    "ready",
			sources: []domain.SourceInfo{{ID: "elections", Available: true}, {ID: "poverty"}},
			status:  statusReady,
		},
		{
			name:    "no source available",
			sources: []domain.SourceInfo{{ID: "elections"}},
			status:  statusNotReady,
			failing: "sources",
		},
		{
			name:     "maps directory missing",
			sources:  []domain.SourceInfo{{ID: "elections", Available: true}},
			dropMaps: true,
			status:   statusNotReady,
			failing:  "maps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := newHealthPaths(t)
			if tt.dropMaps {
				require.NoError(t, os.RemoveAll(paths.MapsDir))
			}
			lister := new(MockSourceLister)
			lister.On("Sources", mock.Anything).Return(tt.sources)

			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService(paths, lister, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.status, status.Status)
			assert.Contains(t, status.Services, "data")
			assert.Contains(t, status.Services, "maps")
			assert.Contains(t, status.Services, "sources")
			if tt.failing != "" {
				assert.Equal(t, statusNotReady, status.Services[tt.failing].Status)
			}
			lister.AssertExpectations(t)
		})
	}
}

func TestHealthService_ReadinessWithoutCatalog(t *testing.T) {
	hs := NewHealthService(newHealthPaths(t), nil, nil)

	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, statusReady, status.Status)
	assert.NotContains(t, status.Services, "sources")
}

func TestHealthService_LivenessCheck(t *testing.T) {
	hs := NewHealthService(newHealthPaths(t), nil, nil)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	require.NotNil(t, status.Runtime)
	assert.Positive(t, status.Runtime.Goroutines)
	assert.NotEmpty(t, status.Runtime.GoVersion)
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService(newHealthPaths(t), nil, nil)

	info := hs.Version()
	assert.Equal(t, contracts.Version, info["version"])
	assert.Equal(t, contracts.APIVersion, info["api_version"])
	for _, key := range []string{"go_version", "os", "arch", "uptime", "start_time", "current_time"} {
		assert.Contains(t, info, key)
	}
}

func TestHealthService_SystemStats(t *testing.T) {
	paths := newHealthPaths(t)
	require.NoError(t, os.WriteFile(paths.GetDataPath("data_elections.csv"), []byte("id_election\n"), 0644))

	lister := new(MockSourceLister)
	lister.On("Sources", mock.Anything).Return([]domain.SourceInfo{
		{ID: "elections", Available: true},
		{ID: "poverty"},
	})
	hs := NewHealthService(paths, lister, nil)

	stats := hs.SystemStats(context.Background())
	assert.Equal(t, 1, stats.DataFiles)
	assert.Equal(t, int64(len("id_election\n")), stats.DataSizeBytes)
	assert.Equal(t, 1, stats.SourcesAvailable)
	assert.Equal(t, 2, stats.SourcesTotal)

	detailed := hs.GetDetailedHealth(context.Background())
	for _, key := range []string{"health", "readiness", "liveness", "stats"} {
		assert.Contains(t, detailed, key)
	}
}
