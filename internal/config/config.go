package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration.
// Relative directories are resolved against the executable directory.
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	MapsDir       string `yaml:"maps_dir" envconfig:"MAPS_DIR" default:"maps"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// StorageConfig configures the optional SQL backend for tabular sources.
// Tables maps a source id to the table holding it, e.g. "elections:elections_2024".
type StorageConfig struct {
	Driver          string            `yaml:"driver" envconfig:"DRIVER"`
	DSN             string            `yaml:"dsn" envconfig:"DSN"`
	Tables          map[string]string `yaml:"tables" envconfig:"TABLES"`
	MaxOpenConns    int               `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int               `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration     `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME" default:"30m"`
}

// Enabled reports whether a SQL backend is configured
func (s StorageConfig) Enabled() bool {
	return s.Driver != "" && s.DSN != ""
}

// AnalysisConfig holds the analytical defaults
type AnalysisConfig struct {
	ElectionOrder      []string `yaml:"election_order" envconfig:"ELECTION_ORDER" default:"2017_legi_t1,2017_legi_t2,2022_legi_t1,2022_legi_t2,2024_legi_t1,2024_legi_t2"`
	FirstRoundMarker   string   `yaml:"first_round_marker" envconfig:"FIRST_ROUND_MARKER" default:"_t1"`
	RecurrenceTopN     int      `yaml:"recurrence_top_n" envconfig:"RECURRENCE_TOP_N" default:"10"`
	DepartmentExtremes int      `yaml:"department_extremes" envconfig:"DEPARTMENT_EXTREMES" default:"5"`
	UnemploymentTopN   int      `yaml:"unemployment_top_n" envconfig:"UNEMPLOYMENT_TOP_N" default:"10"`
	PovertyTopN        int      `yaml:"poverty_top_n" envconfig:"POVERTY_TOP_N" default:"10"`
	AgeTopN            int      `yaml:"age_top_n" envconfig:"AGE_TOP_N" default:"5"`
	PovertyKeyWidth    int      `yaml:"poverty_key_width" envconfig:"POVERTY_KEY_WIDTH" default:"3"`
	UnemploymentWidth  int      `yaml:"unemployment_key_width" envconfig:"UNEMPLOYMENT_KEY_WIDTH" default:"2"`
	AgeKeyWidth        int      `yaml:"age_key_width" envconfig:"AGE_KEY_WIDTH" default:"3"`
	IncomeKeyWidth     int      `yaml:"income_key_width" envconfig:"INCOME_KEY_WIDTH" default:"2"`
	PreloadSources     bool     `yaml:"preload_sources" envconfig:"PRELOAD_SOURCES" default:"true"`
}

// TelemetryConfig configures tracing and metrics export
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" default:"pip-analysis"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PIP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs overlays the file config on the env config. Values set explicitly
// in the environment win; values still at their env default are taken from the file.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if fileConfig.Server.Port != 0 && !envSet("PIP_SERVER_PORT") {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if fileConfig.Server.ReadTimeout != 0 && !envSet("PIP_SERVER_READ_TIMEOUT") {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if fileConfig.Server.WriteTimeout != 0 && !envSet("PIP_SERVER_WRITE_TIMEOUT") {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if fileConfig.Server.RequestTimeout != 0 && !envSet("PIP_SERVER_REQUEST_TIMEOUT") {
		envConfig.Server.RequestTimeout = fileConfig.Server.RequestTimeout
	}
	if len(fileConfig.Security.AllowedOrigins) > 0 && !envSet("PIP_SECURITY_ALLOWED_ORIGINS") {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if fileConfig.Logging.Level != "" && !envSet("PIP_LOGGING_LEVEL") {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Output != "" && !envSet("PIP_LOGGING_OUTPUT") {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Paths.DataDir != "" && !envSet("PIP_PATHS_DATA_DIR") {
		envConfig.Paths.DataDir = fileConfig.Paths.DataDir
	}
	if fileConfig.Paths.MapsDir != "" && !envSet("PIP_PATHS_MAPS_DIR") {
		envConfig.Paths.MapsDir = fileConfig.Paths.MapsDir
	}
	if fileConfig.Storage.Driver != "" && !envSet("PIP_STORAGE_DRIVER") {
		envConfig.Storage.Driver = fileConfig.Storage.Driver
		envConfig.Storage.DSN = fileConfig.Storage.DSN
	}
	if len(fileConfig.Storage.Tables) > 0 && !envSet("PIP_STORAGE_TABLES") {
		envConfig.Storage.Tables = fileConfig.Storage.Tables
	}
	if len(fileConfig.Analysis.ElectionOrder) > 0 && !envSet("PIP_ANALYSIS_ELECTION_ORDER") {
		envConfig.Analysis.ElectionOrder = fileConfig.Analysis.ElectionOrder
	}
	if fileConfig.Telemetry.TraceExporter != "" && !envSet("PIP_TELEMETRY_TRACE_EXPORTER") {
		envConfig.Telemetry.TraceExporter = fileConfig.Telemetry.TraceExporter
	}
	if fileConfig.Telemetry.MetricExporter != "" && !envSet("PIP_TELEMETRY_METRIC_EXPORTER") {
		envConfig.Telemetry.MetricExporter = fileConfig.Telemetry.MetricExporter
	}

	return envConfig
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

// resolvePaths records the executable directory when none is configured
func (c *Config) resolvePaths() error {
	if c.Paths.ExecutableDir != "" {
		return nil
	}
	exeDir, err := executableDir()
	if err != nil {
		return err
	}
	c.Paths.ExecutableDir = exeDir
	return nil
}

// ResolvedPaths builds the directory tree for this configuration
func (c *Config) ResolvedPaths() *Paths {
	base := c.Paths.ExecutableDir
	p := NewPaths(base)
	p.DataDir = c.resolve(c.Paths.DataDir, p.DataDir)
	p.ReportsDir = c.resolve(c.Paths.ReportsDir, p.ReportsDir)
	p.MapsDir = c.resolve(c.Paths.MapsDir, p.MapsDir)
	p.LogsDir = c.resolve(c.Paths.LogsDir, p.LogsDir)
	return p
}

func (c *Config) resolve(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(c.Paths.ExecutableDir, configured)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive when enabled")
	}

	// Structured logs only
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	if c.Storage.Driver != "" {
		switch c.Storage.Driver {
		case "sqlite", "postgres", "mysql":
		default:
			return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
		}
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage dsn is required when a driver is set")
		}
	}

	if len(c.Analysis.ElectionOrder) == 0 {
		return fmt.Errorf("analysis election order must not be empty")
	}
	seen := make(map[string]bool, len(c.Analysis.ElectionOrder))
	for i, id := range c.Analysis.ElectionOrder {
		id = strings.TrimSpace(id)
		if seen[id] {
			return fmt.Errorf("duplicate election in order: %s", id)
		}
		seen[id] = true
		c.Analysis.ElectionOrder[i] = id
	}

	for name, width := range map[string]int{
		"poverty":      c.Analysis.PovertyKeyWidth,
		"unemployment": c.Analysis.UnemploymentWidth,
		"age":          c.Analysis.AgeKeyWidth,
		"income":       c.Analysis.IncomeKeyWidth,
	} {
		if width < 1 || width > 5 {
			return fmt.Errorf("invalid %s key width: %d", name, width)
		}
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0,1]")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv("PIP_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "data/reports",
			MapsDir:    "maps",
			LogsDir:    "logs",
		},
		Storage: StorageConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Analysis: AnalysisConfig{
			ElectionOrder:      append([]string(nil), DefaultElectionOrder...),
			FirstRoundMarker:   "_t1",
			RecurrenceTopN:     10,
			DepartmentExtremes: 5,
			UnemploymentTopN:   10,
			PovertyTopN:        10,
			AgeTopN:            5,
			PovertyKeyWidth:    3,
			UnemploymentWidth:  2,
			AgeKeyWidth:        3,
			IncomeKeyWidth:     2,
			PreloadSources:     true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "pip-analysis",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
