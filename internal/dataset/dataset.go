// Package dataset provides the column-major tabular container shared by the
// scoring pipeline stages. Columns are either numeric (float64, NaN marks a
// missing value) or categorical (string, "" marks a missing value). Column
// names are unique within a table; column order is preserved as inserted.
package dataset

import (
	"fmt"
	"math"
)

// Kind identifies the value type a column holds.
type Kind int

const (
	// Numeric columns hold float64 values.
	Numeric Kind = iota
	// Categorical columns hold string labels.
	Categorical
)

// Column is one named column of a table.
type Column struct {
	Name   string
	Kind   Kind
	Floats []float64 // set when Kind == Numeric
	Labels []string  // set when Kind == Categorical
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Labels)
}

// IsMissing reports whether the value at row i is missing.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Labels[i] == ""
}

// clone returns a deep copy of the column.
func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Floats != nil {
		out.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Labels != nil {
		out.Labels = append([]string(nil), c.Labels...)
	}
	return out
}

// Table is an ordered collection of uniquely named columns with equal row
// counts.
type Table struct {
	columns []*Column
	index   map[string]int
}

// New returns an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// NumRows returns the row count (0 for an empty table).
func (t *Table) NumRows() int {
	if len(t.columns) == 0 {
		return 0
	}
	return t.columns[0].Len()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column with the given name exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or false when absent.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

func (t *Table) add(c *Column) error {
	if _, exists := t.index[c.Name]; exists {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if len(t.columns) > 0 && c.Len() != t.NumRows() {
		return fmt.Errorf("column %q has %d rows, table has %d", c.Name, c.Len(), t.NumRows())
	}
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// AddNumeric appends a numeric column. The slice is used directly, not
// copied. Returns an error on a duplicate name or row-count mismatch.
func (t *Table) AddNumeric(name string, values []float64) error {
	return t.add(&Column{Name: name, Kind: Numeric, Floats: values})
}

// AddCategorical appends a categorical column. The slice is used directly,
// not copied. Returns an error on a duplicate name or row-count mismatch.
func (t *Table) AddCategorical(name string, values []string) error {
	return t.add(&Column{Name: name, Kind: Categorical, Labels: values})
}

// Clone returns an independent deep copy of the table.
func (t *Table) Clone() *Table {
	out := New()
	for _, c := range t.columns {
		// add cannot fail: names and lengths were already consistent.
		_ = out.add(c.clone())
	}
	return out
}

// Select returns a new table containing deep copies of the named columns in
// the requested order. Unknown names are an error.
func (t *Table) Select(names []string) (*Table, error) {
	out := New()
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		if err := out.add(c.clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Rows returns a new table containing the given rows, in order. Row
// indices out of range are an error.
func (t *Table) Rows(idx []int) (*Table, error) {
	n := t.NumRows()
	for _, i := range idx {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("row index %d out of range (%d rows)", i, n)
		}
	}
	out := New()
	for _, c := range t.columns {
		sub := &Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == Numeric {
			sub.Floats = make([]float64, len(idx))
			for k, i := range idx {
				sub.Floats[k] = c.Floats[i]
			}
		} else {
			sub.Labels = make([]string, len(idx))
			for k, i := range idx {
				sub.Labels[k] = c.Labels[i]
			}
		}
		_ = out.add(sub)
	}
	return out, nil
}

// Matrix extracts the named numeric columns as row-major vectors. Missing
// values pass through as NaN; a categorical column in the order is an error.
func (t *Table) Matrix(order []string) ([][]float64, error) {
	cols := make([]*Column, len(order))
	for j, name := range order {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		if c.Kind != Numeric {
			return nil, fmt.Errorf("column %q is not numeric", name)
		}
		cols[j] = c
	}
	rows := make([][]float64, t.NumRows())
	for i := range rows {
		row := make([]float64, len(order))
		for j, c := range cols {
			row[j] = c.Floats[i]
		}
		rows[i] = row
	}
	return rows, nil
}

// Concat column-concatenates two tables with equal row counts. Column name
// collisions are an error. Either argument may be nil or empty, in which
// case a copy of the other is returned.
func Concat(a, b *Table) (*Table, error) {
	if a == nil || a.NumCols() == 0 {
		if b == nil {
			return New(), nil
		}
		return b.Clone(), nil
	}
	if b == nil || b.NumCols() == 0 {
		return a.Clone(), nil
	}
	if a.NumRows() != b.NumRows() {
		return nil, fmt.Errorf("row count mismatch: %d vs %d", a.NumRows(), b.NumRows())
	}
	out := a.Clone()
	for _, c := range b.columns {
		if err := out.add(c.clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}
