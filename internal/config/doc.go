// Package config provides centralized configuration management for the analysis
// server and CLI. It handles loading configuration from multiple sources, validation,
// path resolution and the catalog of tabular sources.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PIP_* for namespacing:
//
//	PIP_SERVER_PORT=8080
//	PIP_LOGGING_LEVEL=debug
//	PIP_STORAGE_DRIVER=postgres
//	PIP_STORAGE_DSN=postgres://...
//	PIP_STORAGE_TABLES=elections:elections_results
//	PIP_ANALYSIS_ELECTION_ORDER=2017_legi_t1,2017_legi_t2,2022_legi_t1
//
// # Path Management
//
// Paths are resolved relative to the executable location, never the working
// directory:
//
//	paths, _ := config.GetPaths()
//	source := paths.GetDataPath("data_elections.csv")
//	export := paths.GetReportPath("chomage_absenteisme.csv")
//
// # Sources
//
// SourceCatalog declares every tabular source with its format, key column and
// numeric columns. Sources listed in Storage.Tables are read from SQL instead
// of files.
package config
