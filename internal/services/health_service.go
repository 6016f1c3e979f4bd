package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/CyprienPascal/PIP/internal/config"
	"github.com/CyprienPascal/PIP/internal/infrastructure"
	"github.com/CyprienPascal/PIP/pkg/contracts"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// SourceLister reports the catalog sources and whether they can be loaded
type SourceLister interface {
	Sources(ctx context.Context) []domain.SourceInfo
}

// HealthService provides health check functionality
type HealthService struct {
	version   contracts.VersionInfo
	paths     *config.Paths
	sources   SourceLister
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual component health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemStats summarizes the data directory and the runtime
type SystemStats struct {
	DataFiles        int                         `json:"data_files"`
	DataSizeBytes    int64                       `json:"data_size_bytes"`
	SourcesAvailable int                         `json:"sources_available"`
	SourcesTotal     int                         `json:"sources_total"`
	Runtime          infrastructure.RuntimeStats `json:"runtime"`
}

const (
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// NewHealthService creates a health service. sources may be nil, in which
// case readiness does not check the catalog.
func NewHealthService(paths *config.Paths, sources SourceLister, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	version := contracts.GetVersionInfo()

	logger.Info("HealthService initialized",
		slog.String("version", version.Version),
		slog.String("git_commit", version.GitCommit),
		slog.String("data_dir", paths.DataDir))

	return &HealthService{
		version:   version,
		paths:     paths,
		sources:   sources,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)))

	return status
}

// ReadinessCheck reports whether the data and map directories are usable and
// at least one catalog source can be loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    statusReady,
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services: map[string]ServiceHealth{
			"data": checkDirectory("Data", hs.paths.DataDir),
			"maps": checkDirectory("Maps", hs.paths.MapsDir),
		},
	}
	if hs.sources != nil {
		status.Services["sources"] = hs.checkSources(ctx)
	}

	for name, service := range status.Services {
		if service.Status != statusReady {
			status.Status = statusNotReady
			hs.logger.WarnContext(ctx, "ReadinessCheck: component not ready",
				slog.String("component", name),
				slog.String("message", service.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Runtime:   &stats,
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version.Version,
		"build_time":   hs.version.BuildTime,
		"git_commit":   hs.version.GitCommit,
		"api_version":  hs.version.APIVersion,
		"data_format":  hs.version.DataFormat,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// SystemStats returns data directory and runtime statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{Runtime: infrastructure.CollectRuntimeStats(hs.startTime)}

	filepath.Walk(hs.paths.DataDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			stats.DataFiles++
			stats.DataSizeBytes += info.Size()
		}
		return nil
	})

	if hs.sources != nil {
		for _, s := range hs.sources.Sources(ctx) {
			stats.SourcesTotal++
			if s.Available {
				stats.SourcesAvailable++
			}
		}
	}
	return stats
}

func (hs *HealthService) checkSources(ctx context.Context) ServiceHealth {
	sources := hs.sources.Sources(ctx)
	available := 0
	for _, s := range sources {
		if s.Available {
			available++
		}
	}
	if available == 0 {
		return ServiceHealth{
			Status:  statusNotReady,
			Message: fmt.Sprintf("none of the %d sources can be loaded", len(sources)),
		}
	}
	return ServiceHealth{
		Status:  statusReady,
		Message: fmt.Sprintf("%d of %d sources available", available, len(sources)),
	}
}

func checkDirectory(name, dir string) ServiceHealth {
	info, err := os.Stat(dir)
	if err != nil {
		return ServiceHealth{
			Status:  statusNotReady,
			Message: fmt.Sprintf("%s directory not found: %s", name, dir),
		}
	}
	if !info.IsDir() {
		return ServiceHealth{
			Status:  statusNotReady,
			Message: fmt.Sprintf("%s path is not a directory: %s", name, dir),
		}
	}
	return ServiceHealth{
		Status:  statusReady,
		Message: fmt.Sprintf("%s directory is accessible", name),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     hs.SystemStats(ctx),
	}
}
