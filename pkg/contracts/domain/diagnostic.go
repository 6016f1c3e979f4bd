package domain

import "fmt"

// DiagnosticKind classifies a recoverable engine condition
type DiagnosticKind string

const (
	DiagSourceNotFound   DiagnosticKind = "SOURCE_NOT_FOUND"
	DiagKeyFormat        DiagnosticKind = "KEY_FORMAT_ERROR"
	DiagEmptyJoin        DiagnosticKind = "EMPTY_JOIN_WARNING"
	DiagInsufficientData DiagnosticKind = "INSUFFICIENT_DATA_FOR_CORRELATION"
	DiagDivisionByZero   DiagnosticKind = "DIVISION_BY_ZERO"
	DiagMissingColumn    DiagnosticKind = "MISSING_COLUMN"
)

// Diagnostic is a non-fatal condition reported alongside a result
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Source  string         `json:"source,omitempty"`
	Count   int            `json:"count,omitempty"`
}

// NewDiagnostic formats a diagnostic message
func NewDiagnostic(kind DiagnosticKind, source string, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:    kind,
		Source:  source,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithCount sets the number of rows the diagnostic covers
func (d Diagnostic) WithCount(n int) Diagnostic {
	d.Count = n
	return d
}

// String renders the diagnostic for logs and terminals
func (d Diagnostic) String() string {
	if d.Source != "" {
		return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Source, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
}

// Diagnostics is an ordered list of diagnostics
type Diagnostics []Diagnostic

// Has reports whether a diagnostic of the given kind is present
func (ds Diagnostics) Has(kind DiagnosticKind) bool {
	for _, d := range ds {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Of returns the diagnostics of one kind
func (ds Diagnostics) Of(kind DiagnosticKind) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Result carries a value together with the non-fatal diagnostics raised while computing it.
// The value is always usable: on failure it is the empty form of its type.
type Result[T any] struct {
	Value       T           `json:"value"`
	Diagnostics Diagnostics `json:"diagnostics,omitempty"`
}

// OK wraps a value without diagnostics
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degraded wraps a fallback value with the diagnostics explaining it
func Degraded[T any](v T, diags ...Diagnostic) Result[T] {
	return Result[T]{Value: v, Diagnostics: diags}
}

// With returns a copy of r with extra diagnostics appended
func (r Result[T]) With(diags ...Diagnostic) Result[T] {
	out := make(Diagnostics, 0, len(r.Diagnostics)+len(diags))
	out = append(out, r.Diagnostics...)
	out = append(out, diags...)
	r.Diagnostics = out
	return r
}

// Clean reports whether no diagnostic was raised
func (r Result[T]) Clean() bool {
	return len(r.Diagnostics) == 0
}

// Unwrap appends the diagnostics to sink and returns the value
func (r Result[T]) Unwrap(sink *Diagnostics) T {
	if sink != nil {
		*sink = append(*sink, r.Diagnostics...)
	}
	return r.Value
}
