package config

import "time"

// Application constants
const (
	AppName = "PIP Electoral Analysis"

	// Default directories (relative to executable)
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultMapsDir    = "maps"
	DefaultLogsDir    = "logs"

	// HTTP
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultSourceRowLimit = 1000
	MaxSourceRowLimit     = 100000

	// Export formats
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"

	// File extensions
	CSVExtension  = ".csv"
	XLSXExtension = ".xlsx"
	HTMLExtension = ".html"
)

// DefaultElectionOrder is the chronological order of the legislative rounds
var DefaultElectionOrder = []string{
	"2017_legi_t1",
	"2017_legi_t2",
	"2022_legi_t1",
	"2022_legi_t2",
	"2024_legi_t1",
	"2024_legi_t2",
}

// Years offered by the analytical views
var (
	PovertyYears      = []string{"2017", "2021"}
	UnemploymentYears = []string{"2017", "2022", "2024"}
	AgeYears          = []string{"2017", "2022"}
	IncomeYears       = []string{"2017", "2018", "2019", "2020", "2021"}
	IncomeDeciles     = []string{"1", "2", "3", "7", "8", "9"}
	NuanceYears       = []int{2002, 2007, 2012, 2017, 2022, 2024}
)
