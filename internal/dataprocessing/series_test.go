package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

func povertySample() *domain.Dataset {
	return table("poverty",
		[]domain.Column{
			domain.TextColumn("departement"),
			domain.TextColumn("libelle"),
			domain.NumericColumn("tp60_a17"),
		},
		[]domain.Value{txt("001"), txt("Ain"), num(12)},
		[]domain.Value{txt("2"), txt("Aisne"), num(18)},
		[]domain.Value{txt("01"), txt("Ain bis"), num(99)},
		[]domain.Value{missing, txt("Nowhere"), num(5)},
		[]domain.Value{txt("??"), txt("Broken"), num(7)},
	)
}

func TestBuildIndicatorSeries(t *testing.T) {
	res := BuildIndicatorSeries(povertySample(), IndicatorSpec{
		Name:        "poverty",
		KeyColumn:   "departement",
		Width:       3,
		ValueColumn: "tp60_a17",
		Carry:       []string{"libelle"},
	})

	series := res.Value
	assert.Equal(t, "poverty", series.Name)
	assert.False(t, series.Periodic)
	assert.Equal(t, 2, series.Len())
	assert.Equal(t, []domain.SeriesKey{{Department: "001"}, {Department: "002"}}, series.Keys())

	// the duplicate "01" keeps the first occurrence
	entry, ok := series.Lookup(domain.SeriesKey{Department: "001"})
	require.True(t, ok)
	assert.Equal(t, 12.0, floatOf(t, entry.Value))
	require.Len(t, entry.Attrs, 1)
	assert.Equal(t, "Ain", entry.Attrs[0].String())

	keyErrors := res.Diagnostics.Of(domain.DiagKeyFormat)
	require.Len(t, keyErrors, 1)
	assert.Equal(t, 2, keyErrors[0].Count)
}

func TestBuildIndicatorSeriesDefaultsName(t *testing.T) {
	res := BuildIndicatorSeries(povertySample(), IndicatorSpec{KeyColumn: "departement", Width: 2, ValueColumn: "tp60_a17"})
	assert.Equal(t, "tp60_a17", res.Value.Name)
}

func TestBuildIndicatorSeriesMissingColumn(t *testing.T) {
	res := BuildIndicatorSeries(povertySample(), IndicatorSpec{KeyColumn: "departement", Width: 3, ValueColumn: "DISP_TP60_A21"})
	assert.True(t, res.Diagnostics.Has(domain.DiagMissingColumn))
	assert.Equal(t, 0, res.Value.Len())
}

func TestBuildIndicatorSeriesPeriodic(t *testing.T) {
	ds := table("long",
		[]domain.Column{domain.TextColumn("dep"), domain.TextColumn("year"), domain.NumericColumn("rate")},
		[]domain.Value{txt("1"), txt("2017"), num(8)},
		[]domain.Value{txt("1"), txt("2022"), num(7)},
	)
	res := BuildIndicatorSeries(ds, IndicatorSpec{KeyColumn: "dep", Width: 2, ValueColumn: "rate", PeriodColumn: "year"})
	require.True(t, res.Clean())
	assert.True(t, res.Value.Periodic)

	entry, ok := res.Value.Lookup(domain.SeriesKey{Department: "01", Period: "2022"})
	require.True(t, ok)
	assert.Equal(t, 7.0, floatOf(t, entry.Value))
}

func TestBuildWideIndicatorSeries(t *testing.T) {
	ds := table("unemployment",
		[]domain.Column{
			domain.TextColumn("DEP_CODE"),
			domain.TextColumn("DEP_NOM"),
			domain.NumericColumn("2017"),
			domain.NumericColumn("2022"),
		},
		[]domain.Value{txt("1"), txt("Ain"), num(7.1), num(6.2)},
		[]domain.Value{txt("2A"), txt("Corse-du-Sud"), num(9.4), missing},
	)

	res := BuildWideIndicatorSeries(ds, IndicatorSpec{
		Name:      "taux_chomage",
		KeyColumn: "DEP_CODE",
		Width:     2,
		Carry:     []string{"DEP_NOM"},
	}, []string{"2017", "2022"})
	require.True(t, res.Clean())

	series := res.Value
	assert.True(t, series.Periodic)
	assert.Equal(t, 4, series.Len())

	entry, ok := series.Lookup(domain.SeriesKey{Department: "2A", Period: "2017"})
	require.True(t, ok)
	assert.Equal(t, 9.4, floatOf(t, entry.Value))
	assert.Equal(t, "Corse-du-Sud", entry.Attrs[0].String())

	entry, ok = series.Lookup(domain.SeriesKey{Department: "2A", Period: "2022"})
	require.True(t, ok)
	assert.True(t, entry.Value.IsMissing())
}
