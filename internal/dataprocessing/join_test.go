package dataprocessing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyprienPascal/PIP/internal/shared/testutil"
	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

func povertySeries(t *testing.T, width int) *domain.IndicatorSeries {
	t.Helper()
	res := BuildIndicatorSeries(povertySample(), IndicatorSpec{
		Name:        "poverty",
		KeyColumn:   "departement",
		Width:       width,
		ValueColumn: "tp60_a17",
		Carry:       []string{"libelle"},
	})
	return res.Value
}

func TestJoin(t *testing.T) {
	base := electionsSample()
	res := Join(context.Background(), base, povertySeries(t, 3), JoinOptions{KeyColumn: domain.ColDepartmentCode})

	joined := res.Value
	assert.Equal(t, []string{
		domain.ColElectionID, domain.ColDepartmentCode, domain.ColAbstentionPct, "poverty", "libelle",
	}, joined.Table.Schema().Names())

	// "03" has no poverty entry; every other row fans out on its key
	require.Equal(t, 5, joined.Len())
	assert.Equal(t, "001", joined.Table.Value(0, domain.ColDepartmentCode).String())
	assert.Equal(t, 12.0, floatOf(t, joined.Table.Value(0, "poverty")))
	assert.Equal(t, "Aisne", joined.Table.Value(2, "libelle").String())

	require.Len(t, joined.Stats, 1)
	assert.Equal(t, domain.JoinStats{Series: "poverty", BaseRows: 6, FilteredRows: 6, MatchedRows: 5}, joined.Stats[0])
	assert.True(t, res.Clean())
}

func TestJoinFilterAppliesBeforeJoin(t *testing.T) {
	res := Join(context.Background(), electionsSample(), povertySeries(t, 3), JoinOptions{
		KeyColumn: domain.ColDepartmentCode,
		Filter: func(r domain.Record) bool {
			return strings.Contains(r.Get(domain.ColElectionID).String(), "2017")
		},
	})
	assert.Equal(t, 2, res.Value.Len())
	assert.Equal(t, 2, res.Value.Stats[0].FilteredRows)
}

func TestJoinSelfKeepsRowCount(t *testing.T) {
	base := povertySample()
	series := BuildIndicatorSeries(base, IndicatorSpec{KeyColumn: "departement", Width: 3, ValueColumn: "tp60_a17"}).Value

	valid := base.Filter(func(r domain.Record) bool {
		_, err := NormalizeKey(r.Get("departement"), 3)
		return err == nil
	})
	res := Join(context.Background(), valid, series, JoinOptions{KeyColumn: "departement"})
	assert.Equal(t, valid.Len(), res.Value.Len())
	// the colliding value column is suffixed
	assert.True(t, res.Value.Table.Has("tp60_a17_y"))
}

func TestJoinUnjoinableRows(t *testing.T) {
	base := table("elections",
		[]domain.Column{domain.TextColumn(domain.ColDepartmentCode), domain.NumericColumn(domain.ColAbstentionPct)},
		[]domain.Value{txt("1"), num(40)},
		[]domain.Value{missing, num(50)},
		[]domain.Value{txt("*"), num(60)},
	)
	res := Join(context.Background(), base, povertySeries(t, 3), JoinOptions{KeyColumn: domain.ColDepartmentCode})
	assert.Equal(t, 1, res.Value.Len())
	assert.Equal(t, 2, res.Value.Stats[0].UnjoinableRows)

	keyErrors := res.Diagnostics.Of(domain.DiagKeyFormat)
	require.Len(t, keyErrors, 1)
	assert.Equal(t, 2, keyErrors[0].Count)
}

func TestJoinEmpty(t *testing.T) {
	t.Run("filter removes everything", func(t *testing.T) {
		res := Join(context.Background(), electionsSample(), povertySeries(t, 3), JoinOptions{
			KeyColumn: domain.ColDepartmentCode,
			Filter:    func(domain.Record) bool { return false },
		})
		assert.True(t, res.Value.Table.IsEmpty())
		assert.True(t, res.Diagnostics.Has(domain.DiagEmptyJoin))
		assert.True(t, res.Value.Table.Has("poverty"))
	})

	t.Run("no key matches", func(t *testing.T) {
		base := table("elections",
			[]domain.Column{domain.TextColumn(domain.ColDepartmentCode)},
			[]domain.Value{txt("75")},
		)
		res := Join(context.Background(), base, povertySeries(t, 3), JoinOptions{KeyColumn: domain.ColDepartmentCode})
		assert.Equal(t, 0, res.Value.Len())
		assert.True(t, res.Diagnostics.Has(domain.DiagEmptyJoin))
	})

	t.Run("missing key column", func(t *testing.T) {
		res := Join(context.Background(), electionsSample(), povertySeries(t, 3), JoinOptions{KeyColumn: "dep"})
		assert.True(t, res.Diagnostics.Has(domain.DiagMissingColumn))
		assert.Equal(t, 0, res.Value.Len())
	})
}

func TestJoinPeriodic(t *testing.T) {
	wide := table("unemployment",
		[]domain.Column{domain.TextColumn("DEP_CODE"), domain.NumericColumn("2017"), domain.NumericColumn("2022")},
		[]domain.Value{txt("1"), num(7), num(6)},
		[]domain.Value{txt("2"), num(11), num(10)},
	)
	series := BuildWideIndicatorSeries(wide, IndicatorSpec{Name: "taux_chomage", KeyColumn: "DEP_CODE", Width: 2},
		[]string{"2017", "2022"}).Value

	res := Join(context.Background(), electionsSample(), series, JoinOptions{
		KeyColumn:    domain.ColDepartmentCode,
		PeriodColumn: domain.ColElectionID,
		PeriodOf:     domain.ElectionYear,
	})
	joined := res.Value.Table
	// 2024 has no unemployment column and the missing election id has no period
	require.Equal(t, 4, joined.Len())
	assert.Equal(t, "2022_legi_t1", joined.Value(0, domain.ColElectionID).String())
	assert.Equal(t, 6.0, floatOf(t, joined.Value(0, "taux_chomage")))
	assert.Equal(t, 7.0, floatOf(t, joined.Value(1, "taux_chomage")))

	noPeriod := Join(context.Background(), electionsSample(), series, JoinOptions{KeyColumn: domain.ColDepartmentCode})
	assert.True(t, noPeriod.Diagnostics.Has(domain.DiagMissingColumn))
}

func TestJoinAll(t *testing.T) {
	bracket := func(name string, values ...float64) *domain.IndicatorSeries {
		ds := table("age",
			[]domain.Column{domain.TextColumn("dep"), domain.NumericColumn(name)},
			[]domain.Value{txt("1"), num(values[0])},
			[]domain.Value{txt("2"), num(values[1])},
		)
		return BuildIndicatorSeries(ds, IndicatorSpec{KeyColumn: "dep", Width: 3, ValueColumn: name}).Value
	}

	filterCalls := 0
	res := JoinAll(context.Background(), electionsSample(),
		[]*domain.IndicatorSeries{bracket("young", 30, 25), bracket("middle", 40, 45), bracket("old", 30, 30)},
		JoinOptions{
			KeyColumn: domain.ColDepartmentCode,
			Filter: func(r domain.Record) bool {
				filterCalls++
				return strings.HasSuffix(r.Get(domain.ColElectionID).String(), "_t1")
			},
		})

	joined := res.Value
	require.Len(t, joined.Stats, 3)
	assert.Equal(t, 6, filterCalls, "the filter only runs on the first hop")
	assert.Equal(t, 5, joined.Len())
	for _, col := range []string{"young", "middle", "old"} {
		assert.True(t, joined.Table.Has(col))
	}
	assert.Equal(t, 45.0, floatOf(t, joined.Table.Value(2, "middle")))
}

func TestPovertyEndToEnd(t *testing.T) {
	dir := testutil.NewDataDir(t)
	dir.WriteElections(
		testutil.ElectionRow{ID: "2017_legi_t1", Dept: "01", DeptLabel: "Ain", Commune: "01001", CommuneLabel: "A", Registered: 100, Abstentions: 40},
		testutil.ElectionRow{ID: "2017_legi_t1", Dept: "02", DeptLabel: "Aisne", Commune: "02001", CommuneLabel: "B", Registered: 100, Abstentions: 50},
	)
	dir.WriteCSV("moyenne_pauvrete_par_departement.csv", ',',
		[]string{"departement", "tp60_a17"},
		[]string{"001", "12"},
		[]string{"002", "18"},
	)

	loader := NewLoader(testCatalog(), dir.Root)
	ctx := context.Background()

	elections := loader.Load(ctx, "elections")
	require.True(t, elections.Clean(), elections.Diagnostics)
	poverty := loader.Load(ctx, "poverty")
	require.True(t, poverty.Clean(), poverty.Diagnostics)

	series := BuildIndicatorSeries(poverty.Value, IndicatorSpec{KeyColumn: "departement", Width: 3, ValueColumn: "tp60_a17"})
	require.True(t, series.Clean())

	res := Join(ctx, elections.Value, series.Value, JoinOptions{
		KeyColumn: domain.ColDepartmentCode,
		Filter: func(r domain.Record) bool {
			return strings.Contains(r.Get(domain.ColElectionID).String(), "2017")
		},
	})
	require.Equal(t, 2, res.Value.Len())

	corr := CorrelateColumns(res.Value.Table, "tp60_a17", domain.ColAbstentionPct)
	require.True(t, corr.Clean())
	assert.InDelta(t, 1.0, floatOf(t, corr.Value.Value), 1e-9)
}
