// Package files locates the inputs the analysis reads from disk.
//
// Discovery lists tabular sources in the data directory and pre-rendered map
// fragments in the maps directory. MapSelector resolves the fragment that
// matches a year, round and geographic level.
//
//	selector := files.NewMapSelector(paths.MapsDir)
//	sel, err := selector.Select(2022, 1, files.LevelDept)
//	// sel.File == "res_2022_T1_dept.html", sel.Exists reports whether it is on disk
package files
