package dataprocessing

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Correlate computes the Pearson coefficient of a and b paired by position.
// Only pairs where both values are numeric count. With fewer than two pairs or a
// constant side the coefficient is undefined: Missing plus an
// INSUFFICIENT_DATA_FOR_CORRELATION diagnostic, never 0.
func Correlate(a, b []domain.Value) domain.Result[domain.Correlation] {
	n := min(len(a), len(b))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x, okx := a[i].Float()
		y, oky := b[i].Float()
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}

	corr := domain.Correlation{Value: domain.Missing(), Pairs: len(xs)}
	if len(xs) < 2 {
		return domain.Degraded(corr, domain.NewDiagnostic(domain.DiagInsufficientData, "",
			"%d paired observations, at least 2 are needed", len(xs)))
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return domain.Degraded(corr, domain.NewDiagnostic(domain.DiagInsufficientData, "",
			"one series is constant over %d pairs", len(xs)))
	}

	r := stat.Correlation(xs, ys, nil)
	corr.Value = domain.Number(math.Max(-1, math.Min(1, r)))
	return domain.OK(corr)
}

// CorrelateColumns correlates two columns of a dataset row by row
func CorrelateColumns(ds *domain.Dataset, colA, colB string) domain.Result[domain.Correlation] {
	a, okA := ds.Column(colA)
	b, okB := ds.Column(colB)
	var diags domain.Diagnostics
	if !okA {
		diags = append(diags, domain.NewDiagnostic(domain.DiagMissingColumn, ds.Name(), "column %q not found", colA))
	}
	if !okB {
		diags = append(diags, domain.NewDiagnostic(domain.DiagMissingColumn, ds.Name(), "column %q not found", colB))
	}
	res := Correlate(a, b)
	for i := range res.Diagnostics {
		if res.Diagnostics[i].Source == "" {
			res.Diagnostics[i].Source = ds.Name()
		}
	}
	return res.With(diags...)
}

// CorrelationMatrix correlates every pair of columns. The diagonal is 1 when the
// column has a defined correlation with itself, Missing otherwise.
func CorrelationMatrix(ds *domain.Dataset, columns []string) domain.Result[domain.CorrelationMatrix] {
	m := domain.CorrelationMatrix{
		Columns: append([]string{}, columns...),
		Values:  make([][]domain.Value, len(columns)),
	}
	for i := range m.Values {
		m.Values[i] = make([]domain.Value, len(columns))
	}

	var diags domain.Diagnostics
	for i := range columns {
		for j := i; j < len(columns); j++ {
			res := CorrelateColumns(ds, columns[i], columns[j])
			if i != j || !res.Value.Defined() {
				diags = appendUnique(diags, res.Diagnostics...)
			}
			v := res.Value.Value
			if i == j && res.Value.Defined() {
				v = domain.Number(1)
			}
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return domain.Degraded(m, diags...)
}

func appendUnique(diags domain.Diagnostics, more ...domain.Diagnostic) domain.Diagnostics {
	for _, d := range more {
		dup := false
		for _, e := range diags {
			if e == d {
				dup = true
				break
			}
		}
		if !dup {
			diags = append(diags, d)
		}
	}
	return diags
}
