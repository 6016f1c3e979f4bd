// Package services implements the analytical views of the electoral
// dashboard on top of the dataprocessing engine.
//
// # Architecture
//
// AnalysisService owns a DatasetCache in front of the Loader. Every view
// method loads the sources it needs from the cache, joins them with indicator
// series and aggregates the result into a typed report from
// pkg/contracts/domain:
//
//	Trend         mean abstention per election in chronological order
//	Overview      totals and department ranking for one election
//	Recurrence    best and worst voting departments across elections
//	BlankNull     blank, null and abstention means and their correlations
//	Poverty       poverty rate against abstention
//	Unemployment  yearly unemployment rate against first-round abstention
//	Age           age structure against first-round abstention
//	Nuances       votes and seats per political nuance
//	Income        yearly income deciles of one department
//
// # Diagnostics
//
// Missing sources, unusable keys, empty joins and undefined correlations do
// not fail a view. They are collected in the Diagnostics field of the report,
// which always holds a usable, possibly empty, value. Only invalid parameters
// and unknown resources are returned as errors.
//
// # Observability
//
// Each view runs under a "view.<name>" span and records its duration and the
// kind of every diagnostic it raised in the engine metrics.
package services
