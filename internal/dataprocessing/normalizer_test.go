package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name  string
		raw   domain.Value
		width int
		want  domain.DepartmentKey
	}{
		{"text padded to two", txt("1"), 2, "01"},
		{"text padded to three", txt("1"), 3, "001"},
		{"number padded", num(1), 3, "001"},
		{"float text", txt("1.0"), 2, "01"},
		{"already wide enough", txt("75"), 2, "75"},
		{"corsica", txt("2A"), 2, "2A"},
		{"corsica padded", txt("2a"), 3, "02A"},
		{"overseas kept at width two", txt("971"), 2, "971"},
		{"overseas number", num(971), 3, "971"},
		{"surrounding spaces", txt("  5 "), 2, "05"},
		{"leading zeros kept", txt("001"), 2, "001"},
		{"exponent text", txt("1e2"), 2, "100"},
		{"exponent text matches number", txt("9.71E2"), 3, "971"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKey(tt.raw, tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeKeyErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    domain.Value
		width  int
		reason string
	}{
		{"missing", missing, 2, "missing value"},
		{"blank text", txt("   "), 2, "empty code"},
		{"punctuation only", txt(".."), 2, "no alphanumeric character"},
		{"negative number", num(-3), 2, "not a non-negative integer"},
		{"fractional number", num(1.5), 2, "not a non-negative integer"},
		{"negative text", txt("-1"), 2, "signed code"},
		{"plus sign text", txt(" +1"), 2, "signed code"},
		{"fractional text", txt("1.5"), 2, "not a non-negative integer"},
		{"zero width", txt("01"), 0, "width must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeKey(tt.raw, tt.width)
			require.Error(t, err)
			var kerr *KeyFormatError
			require.ErrorAs(t, err, &kerr)
			assert.Equal(t, tt.reason, kerr.Reason)
			assert.Equal(t, tt.width, kerr.Width)
		})
	}
}

func TestNormalizeKeyIsStableAcrossRepresentations(t *testing.T) {
	reprs := map[int][]domain.Value{
		2: {txt("1"), txt("01"), num(1), txt("1.0"), txt(" 01 "), txt("1e0")},
		3: {txt("1"), txt("01"), txt("001"), num(1), txt("1.0")},
	}
	for width, raws := range reprs {
		want, err := NormalizeKey(raws[0], width)
		require.NoError(t, err)
		for _, raw := range raws[1:] {
			got, err := NormalizeKey(raw, width)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%q at width %d", raw.String(), width)
		}
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	for _, raw := range []string{"1", "2A", "971", "13"} {
		first, err := NormalizeKey(txt(raw), 3)
		require.NoError(t, err)
		second, err := NormalizeKey(txt(string(first)), 3)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}
