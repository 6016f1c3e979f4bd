package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies what a Value holds
type ValueKind uint8

const (
	KindMissing ValueKind = iota
	KindNumber
	KindText
)

// String returns the kind name
func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single cell of a Dataset: a number, a text or an explicit missing marker.
// The zero Value is missing. NaN and infinities are never stored as numbers.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Missing returns the missing marker
func Missing() Value {
	return Value{}
}

// Number wraps a float64. NaN and ±Inf become Missing.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Text wraps a string. The empty string becomes Missing.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// ParseNumber coerces a raw token into a number, or Missing when it is not numeric
func ParseNumber(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}
	}
	return Number(f)
}

// Kind returns the kind of the value
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsMissing reports whether v is the missing marker
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// IsNumber reports whether v holds a number
func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

// Float returns the numeric content. ok is false for text and missing values.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// String returns the text form: shortest round-trip representation for numbers,
// the raw string for text and "" for missing.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Format renders the value for humans with the given number of decimals.
// Missing renders as placeholder.
func (v Value) Format(decimals int, placeholder string) string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', decimals, 64)
	case KindText:
		return v.text
	default:
		return placeholder
	}
}

// Equal reports whether both values have the same kind and content
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.num == o.num && v.text == o.text
}

// MarshalText implements encoding.TextMarshaler
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Numeric tokens become numbers,
// other non-empty tokens become text.
func (v *Value) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*v = Value{}
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*v = Number(f)
		return nil
	}
	*v = Text(s)
	return nil
}

// MarshalJSON encodes numbers as JSON numbers, text as strings and missing as null
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(strconv.FormatFloat(v.num, 'g', -1, 64)), nil
	case KindText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		*v = Value{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*v = Text(text)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid value %s: %w", s, err)
	}
	*v = Number(f)
	return nil
}

// Floats extracts the numeric content of values, skipping missing and text
func Floats(values []Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Numbers wraps a float slice into values
func Numbers(fs ...float64) []Value {
	out := make([]Value, len(fs))
	for i, f := range fs {
		out[i] = Number(f)
	}
	return out
}
