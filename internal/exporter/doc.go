// Package exporter writes datasets and typed report rows as downloadable files.
//
// Column order follows the dataset schema (or the struct field order for typed
// rows) and numbers use their shortest round-trip form, so an exported CSV can
// be loaded back by the engine without loss. Missing values are empty cells.
//
//	// Write a dataset to the reports directory
//	writer := exporter.NewCSVWriter(paths)
//	path, err := writer.WriteDataset("chomage_absenteisme.csv", ds)
//
//	// Stream a download
//	err = exporter.Write(w, ds, exporter.FormatXLSX)
package exporter
