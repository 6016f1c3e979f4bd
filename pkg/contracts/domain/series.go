package domain

// DepartmentKey is a normalized department code ("01", "001", "2A", "971")
type DepartmentKey string

// SeriesKey identifies one indicator observation. Period is empty for
// series that are not periodic.
type SeriesKey struct {
	Department DepartmentKey `json:"department"`
	Period     string        `json:"period,omitempty"`
}

// IndicatorEntry is the value of an indicator for one key plus the carried attributes
type IndicatorEntry struct {
	Value Value   `json:"value"`
	Attrs []Value `json:"attrs,omitempty"`
}

// IndicatorSeries is a socio-economic measure keyed by department (and period).
// Keys are unique; insertion order is kept for listing.
type IndicatorSeries struct {
	Name     string
	Width    int
	Periodic bool

	carry   []Column
	entries map[SeriesKey]IndicatorEntry
	order   []SeriesKey
}

// NewIndicatorSeries creates an empty series. carry lists the extra columns
// copied into joined rows.
func NewIndicatorSeries(name string, width int, periodic bool, carry []Column) *IndicatorSeries {
	return &IndicatorSeries{
		Name:     name,
		Width:    width,
		Periodic: periodic,
		carry:    carry,
		entries:  make(map[SeriesKey]IndicatorEntry),
	}
}

// Put stores an entry. It returns false and keeps the existing entry when the key is taken.
func (s *IndicatorSeries) Put(key SeriesKey, e IndicatorEntry) bool {
	if _, exists := s.entries[key]; exists {
		return false
	}
	if len(e.Attrs) != len(s.carry) {
		attrs := make([]Value, len(s.carry))
		copy(attrs, e.Attrs)
		e.Attrs = attrs
	}
	s.entries[key] = e
	s.order = append(s.order, key)
	return true
}

// Lookup returns the entry for key
func (s *IndicatorSeries) Lookup(key SeriesKey) (IndicatorEntry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Len returns the number of keys
func (s *IndicatorSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Keys returns the keys in insertion order
func (s *IndicatorSeries) Keys() []SeriesKey {
	out := make([]SeriesKey, len(s.order))
	copy(out, s.order)
	return out
}

// Carry returns the carried columns
func (s *IndicatorSeries) Carry() []Column {
	out := make([]Column, len(s.carry))
	copy(out, s.carry)
	return out
}

// JoinStats counts what happened to the base rows during one join hop
type JoinStats struct {
	Series         string `json:"series"`
	BaseRows       int    `json:"base_rows"`
	FilteredRows   int    `json:"filtered_rows"`
	UnjoinableRows int    `json:"unjoinable_rows"`
	MatchedRows    int    `json:"matched_rows"`
}

// MatchRatio is MatchedRows over FilteredRows, Missing when nothing was left to join
func (s JoinStats) MatchRatio() Value {
	if s.FilteredRows == 0 {
		return Missing()
	}
	return Number(float64(s.MatchedRows) / float64(s.FilteredRows))
}

// JoinedTable is the outcome of joining a base dataset with indicator series
type JoinedTable struct {
	Table *Dataset    `json:"table"`
	Stats []JoinStats `json:"stats"`
}

// Len returns the number of joined rows
func (j *JoinedTable) Len() int {
	if j == nil {
		return 0
	}
	return j.Table.Len()
}
