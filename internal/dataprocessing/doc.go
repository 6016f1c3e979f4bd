// Package dataprocessing is the correlation engine behind every analytical view.
// It loads the tabular sources, reconciles their department codes, joins them
// and computes the aggregates, correlations and rankings the views display.
//
// # Components
//
// Leaves first:
//
//  1. Loader: reads a catalog source (csv, xlsx or SQL table) into a typed Dataset
//  2. DatasetCache: memoizes successful loads for the life of the process
//  3. NormalizeKey: canonical, zero-padded department keys at a join-time width
//  4. Join / JoinAll: inner hash joins of a base table with indicator series
//  5. GroupMean / GroupSum / DiffSequence: grouped aggregates in an explicit order
//  6. Correlate / TopN / FrequencyAcrossGroups: correlation and ranking
//
// # Diagnostics
//
// Nothing in this package fails a caller for a data problem. Missing sources,
// malformed keys, empty joins, undefined correlations and zero denominators are
// reported as domain.Diagnostic values inside a domain.Result, next to a usable
// (possibly empty) value:
//
//	res := loader.Load(ctx, config.SourcePoverty)
//	poverty := res.Unwrap(&diags)
//	if poverty.IsEmpty() {
//	    // render a placeholder, diags says why
//	}
//
// # Concurrency
//
// Datasets are immutable once loaded, so cached tables are shared between
// concurrent requests without locking. Every derived table is owned by the
// request that computed it.
package dataprocessing
