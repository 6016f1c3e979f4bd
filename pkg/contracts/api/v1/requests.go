// Package api contains the HTTP request contracts of the analysis API.
// Version v1 represents the current stable API version.
package api

// Source API Requests

// SourceTableRequest represents a request for a raw catalog table
type SourceTableRequest struct {
	ID    string `json:"id" param:"id" validate:"required,max=64"`
	Limit int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=100000"`
}

// Analysis API Requests

// OverviewRequest represents the abstention overview filters
type OverviewRequest struct {
	Election    string   `json:"election" query:"election" validate:"required,election_id"`
	Departments []string `json:"departments,omitempty" query:"department" validate:"omitempty,dive,min=1,max=100"`
	Commune     string   `json:"commune,omitempty" query:"commune" validate:"omitempty,max=100"`
}

// RecurrenceRequest represents the department recurrence parameters
type RecurrenceRequest struct {
	N int `json:"n" query:"n" validate:"omitempty,min=1,max=100"`
}

// PovertyRequest selects the poverty indicator year
type PovertyRequest struct {
	Year string `json:"year" query:"year" validate:"required,oneof=2017 2021"`
}

// UnemploymentRequest selects the unemployment years
type UnemploymentRequest struct {
	Years []string `json:"years" query:"year" validate:"omitempty,dive,oneof=2017 2022 2024"`
}

// AgeRequest selects the age structure year and group size
type AgeRequest struct {
	Year string `json:"year" query:"year" validate:"required,oneof=2017 2022"`
	N    int    `json:"n" query:"n" validate:"omitempty,min=1,max=50"`
}

// NuanceRequest filters votes by political nuance
type NuanceRequest struct {
	Year  int      `json:"year" query:"year" validate:"required,oneof=2002 2007 2012 2017 2022 2024"`
	Sexes []string `json:"sexes,omitempty" query:"sex" validate:"omitempty,dive,min=1,max=10"`
}

// IncomeRequest selects one department income profile
type IncomeRequest struct {
	Department string `json:"department" param:"dept" validate:"required,dept_code"`
}

// Map API Requests

// MapRequest selects a pre-rendered map fragment
type MapRequest struct {
	Year  int    `json:"year" query:"year" validate:"required,min=2000,max=2100"`
	Round int    `json:"round" query:"round" validate:"omitempty,oneof=1 2"`
	Level string `json:"level" query:"level" validate:"required,oneof=circo dept commune poverty income haute_garonne"`
}

// Export API Requests

// ExportRequest represents a download of a flattened view
type ExportRequest struct {
	View   string `json:"view" param:"view" validate:"required,oneof=overview poverty unemployment age nuances trend source"`
	Format string `json:"format" query:"format" validate:"omitempty,oneof=csv xlsx"`
	Source string `json:"source,omitempty" query:"source" validate:"required_if=View source,max=64"`
}
