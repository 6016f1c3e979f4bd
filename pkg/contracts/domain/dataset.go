package domain

import (
	"encoding/json"
	"fmt"
)

// ColumnType is the declared type of a column
type ColumnType string

const (
	ColumnText    ColumnType = "text"
	ColumnNumeric ColumnType = "numeric"
)

// Column describes one column of a Dataset
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// NumericColumn is a shorthand for a numeric column
func NumericColumn(name string) Column {
	return Column{Name: name, Type: ColumnNumeric}
}

// TextColumn is a shorthand for a text column
func TextColumn(name string) Column {
	return Column{Name: name, Type: ColumnText}
}

// Schema is the ordered set of columns of a Dataset
type Schema struct {
	columns []Column
	index   map[string]int
}

// NewSchema builds a schema. A repeated name keeps its first position.
func NewSchema(columns ...Column) Schema {
	s := Schema{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, dup := s.index[c.Name]; dup {
			continue
		}
		s.index[c.Name] = len(s.columns)
		s.columns = append(s.columns, c)
	}
	return s
}

// Len returns the number of columns
func (s Schema) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the columns in order
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in order
func (s Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of a column
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Column returns the column with the given name
func (s Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Row is a sequence of values aligned with a Schema
type Row []Value

// Dataset is an ordered, immutable table. Operations that change the shape
// or the content return a new Dataset; rows are shared, never mutated.
type Dataset struct {
	name   string
	schema Schema
	rows   []Row
}

// NewDataset builds a dataset. Short rows are padded with Missing and long rows truncated.
func NewDataset(name string, schema Schema, rows []Row) *Dataset {
	width := schema.Len()
	for i, r := range rows {
		switch {
		case len(r) < width:
			padded := make(Row, width)
			copy(padded, r)
			rows[i] = padded
		case len(r) > width:
			rows[i] = r[:width]
		}
	}
	return &Dataset{name: name, schema: schema, rows: rows}
}

// EmptyDataset returns a dataset with a schema and no rows
func EmptyDataset(name string, schema Schema) *Dataset {
	return &Dataset{name: name, schema: schema}
}

// Name returns the dataset name (usually the source id)
func (d *Dataset) Name() string {
	return d.name
}

// Schema returns the dataset schema
func (d *Dataset) Schema() Schema {
	return d.schema
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// IsEmpty reports whether the dataset has no rows
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0
}

// Has reports whether the dataset has a column
func (d *Dataset) Has(column string) bool {
	_, ok := d.schema.Index(column)
	return ok
}

// Row returns the i-th row. Callers must not modify it.
func (d *Dataset) Row(i int) Row {
	return d.rows[i]
}

// Record returns a named view over the i-th row
func (d *Dataset) Record(i int) Record {
	return Record{ds: d, i: i}
}

// Value returns the cell at row i, column name. Unknown columns yield Missing.
func (d *Dataset) Value(i int, column string) Value {
	idx, ok := d.schema.Index(column)
	if !ok {
		return Missing()
	}
	return d.rows[i][idx]
}

// Column returns a copy of all values of a column
func (d *Dataset) Column(name string) ([]Value, bool) {
	idx, ok := d.schema.Index(name)
	if !ok {
		return nil, false
	}
	out := make([]Value, len(d.rows))
	for i, r := range d.rows {
		out[i] = r[idx]
	}
	return out, true
}

// Filter returns the rows for which keep returns true, in order
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	rows := make([]Row, 0, len(d.rows))
	for i, r := range d.rows {
		if keep(Record{ds: d, i: i}) {
			rows = append(rows, r)
		}
	}
	return &Dataset{name: d.name, schema: d.schema, rows: rows}
}

// Take returns the rows at the given indices, in the given order
func (d *Dataset) Take(indices []int) *Dataset {
	rows := make([]Row, 0, len(indices))
	for _, i := range indices {
		rows = append(rows, d.rows[i])
	}
	return &Dataset{name: d.name, schema: d.schema, rows: rows}
}

// Head returns at most the first n rows
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 || n >= len(d.rows) {
		return d
	}
	return &Dataset{name: d.name, schema: d.schema, rows: d.rows[:n]}
}

// Tail returns at most the last n rows
func (d *Dataset) Tail(n int) *Dataset {
	if n < 0 || n >= len(d.rows) {
		return d
	}
	return &Dataset{name: d.name, schema: d.schema, rows: d.rows[len(d.rows)-n:]}
}

// Select projects the dataset onto the given columns
func (d *Dataset) Select(columns ...string) (*Dataset, error) {
	cols := make([]Column, 0, len(columns))
	idx := make([]int, 0, len(columns))
	for _, name := range columns {
		i, ok := d.schema.Index(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found in %s", name, d.name)
		}
		cols = append(cols, d.schema.columns[i])
		idx = append(idx, i)
	}
	rows := make([]Row, len(d.rows))
	for r, row := range d.rows {
		out := make(Row, len(idx))
		for j, i := range idx {
			out[j] = row[i]
		}
		rows[r] = out
	}
	return &Dataset{name: d.name, schema: NewSchema(cols...), rows: rows}, nil
}

// WithColumn returns a copy with col set to values. An existing column of the
// same name is replaced in place, otherwise the column is appended.
func (d *Dataset) WithColumn(col Column, values []Value) (*Dataset, error) {
	if len(values) != len(d.rows) {
		return nil, fmt.Errorf("column %q has %d values, dataset %s has %d rows", col.Name, len(values), d.name, len(d.rows))
	}
	columns := d.schema.Columns()
	pos, exists := d.schema.Index(col.Name)
	if exists {
		columns[pos] = col
	} else {
		pos = len(columns)
		columns = append(columns, col)
	}
	rows := make([]Row, len(d.rows))
	for i, r := range d.rows {
		out := make(Row, len(columns))
		copy(out, r)
		out[pos] = values[i]
		rows[i] = out
	}
	return &Dataset{name: d.name, schema: NewSchema(columns...), rows: rows}, nil
}

// Map computes col for every row and sets it like WithColumn
func (d *Dataset) Map(col Column, fn func(Record) Value) *Dataset {
	values := make([]Value, len(d.rows))
	for i := range d.rows {
		values[i] = fn(Record{ds: d, i: i})
	}
	out, _ := d.WithColumn(col, values)
	return out
}

// Rename returns a copy with columns renamed according to names (old -> new)
func (d *Dataset) Rename(names map[string]string) *Dataset {
	columns := d.schema.Columns()
	for i, c := range columns {
		if n, ok := names[c.Name]; ok {
			columns[i].Name = n
		}
	}
	return &Dataset{name: d.name, schema: NewSchema(columns...), rows: d.rows}
}

// WithName returns the same table under another name
func (d *Dataset) WithName(name string) *Dataset {
	return &Dataset{name: name, schema: d.schema, rows: d.rows}
}

type datasetJSON struct {
	Name    string    `json:"name"`
	Columns []Column  `json:"columns"`
	Rows    [][]Value `json:"rows"`
	Count   int       `json:"count"`
}

// MarshalJSON encodes the dataset as columns plus positional rows
func (d *Dataset) MarshalJSON() ([]byte, error) {
	rows := make([][]Value, len(d.rows))
	for i, r := range d.rows {
		rows[i] = r
	}
	return json.Marshal(datasetJSON{
		Name:    d.name,
		Columns: d.schema.Columns(),
		Rows:    rows,
		Count:   len(d.rows),
	})
}

// Record is a read-only view over one dataset row
type Record struct {
	ds *Dataset
	i  int
}

// Get returns the value of a column, Missing when the column does not exist
func (r Record) Get(column string) Value {
	return r.ds.Value(r.i, column)
}

// Index returns the row position in its dataset
func (r Record) Index() int {
	return r.i
}
