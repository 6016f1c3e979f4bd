package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	ReportsDir    string
	MapsDir       string
	LogsDir       string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, err
	}

	slog.Default().Debug("Resolved executable directory",
		slog.String("exe_dir", exeDir))

	return NewPaths(exeDir), nil
}

// NewPaths builds the directory tree under an explicit root:
//
//	root/
//	  ├── data/          (tabular sources)
//	  │   └── reports/   (exports)
//	  ├── maps/          (pre-rendered map fragments)
//	  └── logs/
func NewPaths(root string) *Paths {
	dataDir := filepath.Join(root, DefaultDataDir)
	return &Paths{
		ExecutableDir: root,
		DataDir:       dataDir,
		ReportsDir:    filepath.Join(dataDir, "reports"),
		MapsDir:       filepath.Join(root, DefaultMapsDir),
		LogsDir:       filepath.Join(root, DefaultLogsDir),
	}
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// EnsureDirectories creates the writable directories if they don't exist.
// Sources and maps are read-only inputs and are never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ReportsDir,
		p.LogsDir,
	}

	logger := slog.Default()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetDataPath returns the path of a source file
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// GetReportPath returns the path for an export file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetMapPath returns the path of a map fragment
func (p *Paths) GetMapPath(filename string) string {
	return filepath.Join(p.MapsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("reports", p.ReportsDir),
			slog.String("maps", p.MapsDir),
			slog.String("logs", p.LogsDir),
		))
}
