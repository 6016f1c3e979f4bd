package dataprocessing

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// GroupSpec describes a grouped aggregation
type GroupSpec struct {
	By     []string
	Values []string
	// Order lists values of the first By column in the order groups must come out.
	// Groups it does not list follow in first-seen order.
	Order []string
}

type reducer func(values []float64) domain.Value

// GroupMean averages each value column per group, ignoring missing values.
// An all-missing group averages to Missing.
func GroupMean(ds *domain.Dataset, spec GroupSpec) domain.Result[*domain.Dataset] {
	return group(ds, spec, func(values []float64) domain.Value {
		if len(values) == 0 {
			return domain.Missing()
		}
		return domain.Number(stat.Mean(values, nil))
	})
}

// GroupSum sums each value column per group, ignoring missing values.
// An all-missing group sums to Missing.
func GroupSum(ds *domain.Dataset, spec GroupSpec) domain.Result[*domain.Dataset] {
	return group(ds, spec, func(values []float64) domain.Value {
		if len(values) == 0 {
			return domain.Missing()
		}
		return domain.Number(floats.Sum(values))
	})
}

type groupAcc struct {
	key    domain.Row
	values [][]float64
	rows   int
}

func group(ds *domain.Dataset, spec GroupSpec, reduce reducer) domain.Result[*domain.Dataset] {
	var diags domain.Diagnostics

	byCols := make([]domain.Column, 0, len(spec.By))
	byIdx := make([]int, 0, len(spec.By))
	for _, name := range spec.By {
		col, ok := ds.Schema().Column(name)
		if !ok {
			diags = append(diags, domain.NewDiagnostic(domain.DiagMissingColumn, ds.Name(), "group column %q not found", name))
			continue
		}
		idx, _ := ds.Schema().Index(name)
		byCols = append(byCols, col)
		byIdx = append(byIdx, idx)
	}

	valueNames := make([]string, 0, len(spec.Values))
	valueIdx := make([]int, 0, len(spec.Values))
	for _, name := range spec.Values {
		idx, ok := ds.Schema().Index(name)
		if !ok {
			diags = append(diags, domain.NewDiagnostic(domain.DiagMissingColumn, ds.Name(), "value column %q not found", name))
			continue
		}
		valueNames = append(valueNames, name)
		valueIdx = append(valueIdx, idx)
	}

	cols := append([]domain.Column{}, byCols...)
	for _, name := range valueNames {
		cols = append(cols, domain.NumericColumn(name))
	}
	cols = append(cols, domain.NumericColumn(domain.ColGroupCount))
	schema := domain.NewSchema(cols...)

	if len(byIdx) != len(spec.By) || len(spec.By) == 0 {
		return domain.Degraded(domain.EmptyDataset(ds.Name(), schema), diags...)
	}

	groups := make(map[string]*groupAcc)
	var order []*groupAcc
	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		key := make(domain.Row, len(byIdx))
		parts := make([]string, len(byIdx))
		skip := false
		for j, idx := range byIdx {
			if row[idx].IsMissing() {
				skip = true
				break
			}
			key[j] = row[idx]
			parts[j] = row[idx].String()
		}
		if skip {
			continue
		}

		id := strings.Join(parts, "\x1f")
		acc, ok := groups[id]
		if !ok {
			acc = &groupAcc{key: key, values: make([][]float64, len(valueIdx))}
			groups[id] = acc
			order = append(order, acc)
		}
		acc.rows++
		for j, idx := range valueIdx {
			if f, ok := row[idx].Float(); ok {
				acc.values[j] = append(acc.values[j], f)
			}
		}
	}

	if len(spec.Order) > 0 {
		rank := make(map[string]int, len(spec.Order))
		for i, v := range spec.Order {
			if _, dup := rank[v]; !dup {
				rank[v] = i
			}
		}
		pos := func(a *groupAcc) int {
			if r, ok := rank[a.key[0].String()]; ok {
				return r
			}
			return len(spec.Order)
		}
		sort.SliceStable(order, func(i, j int) bool {
			return pos(order[i]) < pos(order[j])
		})
	}

	rows := make([]domain.Row, 0, len(order))
	for _, acc := range order {
		out := make(domain.Row, 0, schema.Len())
		out = append(out, acc.key...)
		for _, values := range acc.values {
			out = append(out, reduce(values))
		}
		out = append(out, domain.Number(float64(acc.rows)))
		rows = append(rows, out)
	}
	return domain.Degraded(domain.NewDataset(ds.Name(), schema, rows), diags...)
}

// DiffSequence returns the successive differences of values. The first element
// is Missing, as is any difference involving a missing value.
func DiffSequence(values []domain.Value) []domain.Value {
	out := make([]domain.Value, len(values))
	for i := 1; i < len(values); i++ {
		cur, ok1 := values[i].Float()
		prev, ok2 := values[i-1].Float()
		if ok1 && ok2 {
			out[i] = domain.Number(cur - prev)
		}
	}
	return out
}

// MeanOf averages the numeric values, Missing when there are none
func MeanOf(values []domain.Value) domain.Value {
	fs := domain.Floats(values)
	if len(fs) == 0 {
		return domain.Missing()
	}
	return domain.Number(stat.Mean(fs, nil))
}

// Median returns the middle of the numeric values, averaging the two middle
// ones for an even count. Missing when there are none.
func Median(values []domain.Value) domain.Value {
	fs := domain.Floats(values)
	n := len(fs)
	if n == 0 {
		return domain.Missing()
	}
	sort.Float64s(fs)
	if n%2 == 1 {
		return domain.Number(fs[n/2])
	}
	return domain.Number((fs[n/2-1] + fs[n/2]) / 2)
}
