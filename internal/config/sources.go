package config

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// SourceFormat is the storage format of a tabular source
type SourceFormat string

const (
	FormatCSV  SourceFormat = "csv"
	FormatXLSX SourceFormat = "xlsx"
	FormatSQL  SourceFormat = "sql"
)

// Source identifiers
const (
	SourceElections    = "elections"
	SourcePoverty      = "poverty"
	SourceUnemployment = "unemployment"
	SourceAge          = "age"
	SourceNuances      = "nuances"
	SourceIncome       = "income"
	SourceHauteGaronne = "haute_garonne_parties"
)

// Column names of the indicator sources
const (
	PovertyKeyColumn        = "departement"
	Poverty2017Column       = "tp60_a17"
	Poverty2021Column       = "DISP_TP60_A21"
	UnemploymentKeyColumn   = "DEP_CODE"
	UnemploymentLabelColumn = "DEP_NOM"
	AgeKeyColumn            = "dep"
	AgeLabelColumn          = "nomdep"
	IncomeKeyColumn         = "dept"
	IncomeLabelColumn       = "lib_dept"
	NuanceColumn            = "Nuance"
	NuanceYearColumn        = "Annee"
	NuanceSexColumn         = "Sexe"
	NuanceVotesColumn       = "Voix"
	NuanceSeatsColumn       = "Elu"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SourceSpec declares how to read one tabular source
type SourceSpec struct {
	ID          string       `yaml:"id" json:"id"`
	File        string       `yaml:"file" json:"file,omitempty"`
	Format      SourceFormat `yaml:"format" json:"format"`
	Delimiter   string       `yaml:"delimiter" json:"delimiter,omitempty"`
	Sheet       string       `yaml:"sheet" json:"sheet,omitempty"`
	Table       string       `yaml:"table" json:"table,omitempty"`
	KeyColumn   string       `yaml:"key_column" json:"key_column,omitempty"`
	Numeric     []string     `yaml:"numeric" json:"numeric,omitempty"`
	Percent     []string     `yaml:"percent" json:"percent,omitempty"`
	Description string       `yaml:"description" json:"description,omitempty"`
}

// Comma returns the field delimiter, ',' by default
func (s SourceSpec) Comma() rune {
	if s.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// IsNumeric reports whether a column is declared numeric. Percent columns are numeric.
func (s SourceSpec) IsNumeric(column string) bool {
	return contains(s.Numeric, column) || contains(s.Percent, column)
}

// IsPercent reports whether a column is bounded to [0,100]
func (s SourceSpec) IsPercent(column string) bool {
	return contains(s.Percent, column)
}

// ColumnType returns the declared type of a column
func (s SourceSpec) ColumnType(column string) domain.ColumnType {
	if s.IsNumeric(column) {
		return domain.ColumnNumeric
	}
	return domain.ColumnText
}

// Validate checks the spec is readable
func (s SourceSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source id is required")
	}
	switch s.Format {
	case FormatCSV, FormatXLSX:
		if s.File == "" {
			return fmt.Errorf("source %s: file is required for format %s", s.ID, s.Format)
		}
	case FormatSQL:
		if !tableNamePattern.MatchString(s.Table) {
			return fmt.Errorf("source %s: invalid table name %q", s.ID, s.Table)
		}
	default:
		return fmt.Errorf("source %s: unsupported format %q", s.ID, s.Format)
	}
	if utf8.RuneCountInString(s.Delimiter) > 1 {
		return fmt.Errorf("source %s: delimiter must be a single character", s.ID)
	}
	return nil
}

// ValidTableName reports whether name is a safe SQL identifier
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SourceCatalog is the ordered set of known sources
type SourceCatalog struct {
	specs map[string]SourceSpec
	order []string
}

// NewSourceCatalog builds a catalog. A later spec with the same id replaces an earlier one.
func NewSourceCatalog(specs ...SourceSpec) *SourceCatalog {
	c := &SourceCatalog{specs: make(map[string]SourceSpec, len(specs))}
	for _, s := range specs {
		c.put(s)
	}
	return c
}

func (c *SourceCatalog) put(s SourceSpec) {
	if _, exists := c.specs[s.ID]; !exists {
		c.order = append(c.order, s.ID)
	}
	c.specs[s.ID] = s
}

// Get returns the spec of a source
func (c *SourceCatalog) Get(id string) (SourceSpec, bool) {
	s, ok := c.specs[id]
	return s, ok
}

// IDs returns the source ids in declaration order
func (c *SourceCatalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Specs returns the specs in declaration order
func (c *SourceCatalog) Specs() []SourceSpec {
	out := make([]SourceSpec, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.specs[id])
	}
	return out
}

// WithTables returns a copy where the listed sources are read from SQL tables
func (c *SourceCatalog) WithTables(tables map[string]string) *SourceCatalog {
	out := NewSourceCatalog(c.Specs()...)
	for id, table := range tables {
		s, ok := out.specs[id]
		if !ok {
			s = SourceSpec{ID: id}
		}
		s.Format = FormatSQL
		s.Table = table
		out.put(s)
	}
	return out
}

// Validate checks every spec
func (c *SourceCatalog) Validate() error {
	for _, id := range c.order {
		if err := c.specs[id].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSourceCatalog declares the sources of the electoral dashboard
func DefaultSourceCatalog() *SourceCatalog {
	return NewSourceCatalog(
		SourceSpec{
			ID:          SourceElections,
			File:        "data_elections.csv",
			Format:      FormatCSV,
			KeyColumn:   domain.ColDepartmentCode,
			Numeric:     domain.ElectoralCountColumns,
			Percent:     domain.ElectoralPercentColumns,
			Description: "Commune-level legislative results per round",
		},
		SourceSpec{
			ID:          SourcePoverty,
			File:        "moyenne_pauvrete_par_departement.csv",
			Format:      FormatCSV,
			KeyColumn:   PovertyKeyColumn,
			Percent:     []string{Poverty2017Column, Poverty2021Column},
			Description: "Poverty rate at 60% of the median income per department",
		},
		SourceSpec{
			ID:          SourceUnemployment,
			File:        "taux_chomage_par_departement.csv",
			Format:      FormatCSV,
			KeyColumn:   UnemploymentKeyColumn,
			Percent:     []string{"2015", "2016", "2017", "2018", "2019", "2020", "2021", "2022", "2023", "2024"},
			Description: "Unemployment rate per department, one column per year",
		},
		SourceSpec{
			ID:        SourceAge,
			File:      "donnees_2017_2022.csv",
			Format:    FormatCSV,
			KeyColumn: AgeKeyColumn,
			Numeric: []string{
				"prop0142017", "prop15392017", "prop40592017", "prop60p2017",
				"prop0142022", "prop15392022", "prop40592022", "prop60p2022",
			},
			Description: "Population share per age bracket and department",
		},
		SourceSpec{
			ID:          SourceNuances,
			File:        "df_all_export.csv",
			Format:      FormatCSV,
			Delimiter:   ";",
			Numeric:     []string{NuanceYearColumn, NuanceVotesColumn, NuanceSeatsColumn},
			Description: "Legislative candidates with votes and seats per political nuance",
		},
		SourceSpec{
			ID:          SourceIncome,
			File:        "departements_pauvrete.csv",
			Format:      FormatCSV,
			KeyColumn:   IncomeKeyColumn,
			Numeric:     incomeColumns(),
			Description: "Priority neighbourhoods and disposable income deciles per department",
		},
		SourceSpec{
			ID:          SourceHauteGaronne,
			File:        "resultats_graphiques_partis.csv",
			Format:      FormatCSV,
			Percent:     []string{"extr_gauche", "gauche", "centre", "droite", "extr_droite", "divers"},
			Description: "Haute-Garonne vote share per political family and poverty class",
		},
	)
}

// IncomeDecileColumn names the income column of a decile and year
func IncomeDecileColumn(decile, year string) string {
	return fmt.Sprintf("revenu_disp_d%s_%s", decile, year)
}

// PriorityAreasColumn names the priority neighbourhood count column of a year
func PriorityAreasColumn(year string) string {
	return "nb_qpv_" + year
}

func incomeColumns() []string {
	cols := make([]string, 0, len(IncomeYears)*(len(IncomeDeciles)+1))
	for _, year := range IncomeYears {
		cols = append(cols, PriorityAreasColumn(year))
		for _, d := range IncomeDeciles {
			cols = append(cols, IncomeDecileColumn(d, year))
		}
	}
	return cols
}
