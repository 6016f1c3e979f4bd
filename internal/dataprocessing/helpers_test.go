package dataprocessing

import (
	"testing"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// table builds a dataset from columns and positional rows
func table(name string, cols []domain.Column, rows ...[]domain.Value) *domain.Dataset {
	out := make([]domain.Row, len(rows))
	for i, r := range rows {
		out[i] = domain.Row(r)
	}
	return domain.NewDataset(name, domain.NewSchema(cols...), out)
}

func num(f float64) domain.Value { return domain.Number(f) }

func txt(s string) domain.Value { return domain.Text(s) }

var missing = domain.Missing()

// floatOf returns the numeric content of v, failing when it is not a number
func floatOf(t *testing.T, v domain.Value) float64 {
	t.Helper()
	f, ok := v.Float()
	if !ok {
		t.Fatalf("expected a number, got %s %q", v.Kind(), v.String())
	}
	return f
}
