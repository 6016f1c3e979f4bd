// Package shared hosts helpers used by several packages of the analysis
// engine without belonging to any of them.
//
// The testutil subpackage provides:
//
//   - a capturing slog handler for asserting on log output
//   - fixture writers for the tabular sources (elections, poverty,
//     unemployment, age, nuances, income) under a temporary data directory
//
// Example usage:
//
//	func TestPovertyView(t *testing.T) {
//	    dir := testutil.NewDataDir(t)
//	    dir.WriteElections(testutil.ElectionRow{...})
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "duplicate key")
//	}
//
// Nothing here is imported by production code.
package shared
