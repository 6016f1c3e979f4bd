package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// KeyFormatError reports a raw department code that cannot become a key
type KeyFormatError struct {
	Raw    string
	Width  int
	Reason string
}

func (e *KeyFormatError) Error() string {
	return fmt.Sprintf("invalid department code %q (width %d): %s", e.Raw, e.Width, e.Reason)
}

// NormalizeKey canonicalizes a department code at the given width.
//
// Integral numbers lose their fractional part, strings are trimmed, and codes
// shorter than width are left-padded with '0' ("1" -> "001", "2A" -> "02A" at
// width 3). Longer codes are kept as they are ("971" at width 2). Signed or
// fractional codes are rejected whether they arrive as numbers or as text.
func NormalizeKey(raw domain.Value, width int) (domain.DepartmentKey, error) {
	if width < 1 {
		return "", &KeyFormatError{Raw: raw.String(), Width: width, Reason: "width must be at least 1"}
	}

	var s string
	switch raw.Kind() {
	case domain.KindMissing:
		return "", &KeyFormatError{Width: width, Reason: "missing value"}
	case domain.KindNumber:
		f, _ := raw.Float()
		if f != math.Trunc(f) || f < 0 {
			return "", &KeyFormatError{Raw: raw.String(), Width: width, Reason: "not a non-negative integer"}
		}
		s = strconv.FormatFloat(f, 'f', 0, 64)
	default:
		s = strings.TrimSpace(raw.String())
		if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
			return "", &KeyFormatError{Raw: s, Width: width, Reason: "signed code"}
		}
		// Numeric text ("1.0", "1e2") denotes the same integer as the number would
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && strings.ContainsAny(s, ".eE") {
			if f != math.Trunc(f) {
				return "", &KeyFormatError{Raw: s, Width: width, Reason: "not a non-negative integer"}
			}
			s = strconv.FormatFloat(f, 'f', 0, 64)
		}
	}

	if s == "" {
		return "", &KeyFormatError{Raw: raw.String(), Width: width, Reason: "empty code"}
	}
	if strings.IndexFunc(s, isAlphanumeric) < 0 {
		return "", &KeyFormatError{Raw: s, Width: width, Reason: "no alphanumeric character"}
	}

	s = strings.ToUpper(s)
	if n := utf8.RuneCountInString(s); n < width {
		s = strings.Repeat("0", width-n) + s
	}
	return domain.DepartmentKey(s), nil
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
