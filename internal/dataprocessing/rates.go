package dataprocessing

import (
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// Rate returns numerator/denominator*100. A zero denominator is undefined:
// Missing plus a DIVISION_BY_ZERO diagnostic. Missing inputs give Missing silently.
func Rate(numerator, denominator domain.Value) (domain.Value, *domain.Diagnostic) {
	num, ok1 := numerator.Float()
	den, ok2 := denominator.Float()
	if !ok1 || !ok2 {
		return domain.Missing(), nil
	}
	if den == 0 {
		d := domain.NewDiagnostic(domain.DiagDivisionByZero, "", "rate of %s over a zero denominator", numerator.String())
		return domain.Missing(), &d
	}
	return domain.Number(num / den * 100), nil
}

// DeriveRate appends out = num/den*100 to ds. Rows with a zero denominator get
// Missing and are reported in one diagnostic.
func DeriveRate(ds *domain.Dataset, num, den, out string) domain.Result[*domain.Dataset] {
	var diags domain.Diagnostics
	for _, col := range []string{num, den} {
		if !ds.Has(col) {
			diags = append(diags, domain.NewDiagnostic(domain.DiagMissingColumn, ds.Name(), "column %q not found", col))
		}
	}
	if len(diags) > 0 {
		return domain.Degraded(ds, diags...)
	}

	zero := 0
	derived := ds.Map(domain.NumericColumn(out), func(r domain.Record) domain.Value {
		v, diag := Rate(r.Get(num), r.Get(den))
		if diag != nil {
			zero++
		}
		return v
	})
	if zero > 0 {
		diags = append(diags, domain.NewDiagnostic(domain.DiagDivisionByZero, ds.Name(),
			"%d rows with %s = 0, %s left undefined", zero, den, out).WithCount(zero))
	}
	return domain.Degraded(derived, diags...)
}
