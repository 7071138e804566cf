package core

import "fmt"

// Table is an ordered set of equal-length columns.
// rows is tracked separately so a zero-column table keeps its row count.
type Table struct {
	Columns []Column
	rows    int
}

// NewTable builds a table from columns, checking that all lengths match.
func NewTable(cols []Column) (*Table, error) {
	t := &Table{Columns: cols}
	if len(cols) == 0 {
		return t, nil
	}
	t.rows = len(cols[0].Values)
	for _, c := range cols[1:] {
		if len(c.Values) != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), t.rows)
		}
	}
	return t, nil
}

// MustTable is NewTable that panics on mismatched lengths. For tests and literals.
func MustTable(cols ...Column) *Table {
	t, err := NewTable(cols)
	if err != nil {
		panic(err)
	}
	return t
}

// EmptyTable returns a zero-column table with the given row count.
func EmptyTable(rows int) *Table {
	return &Table{rows: rows}
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.Columns) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnInfos returns name and type of every column.
func (t *Table) ColumnInfos() []ColumnInfo {
	infos := make([]ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		infos[i] = ColumnInfo{Name: c.Name, Type: c.Type}
	}
	return infos
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return &t.Columns[i], true
}

// Row returns the cells of row i across all columns.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.Columns))
	for j := range t.Columns {
		row[j] = t.Columns[j].Values[i]
	}
	return row
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		cols[i] = Column{Name: c.Name, Type: c.Type, Values: vals}
	}
	return &Table{Columns: cols, rows: t.rows}
}

// Head returns a copy of the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		vals := make([]Value, n)
		copy(vals, c.Values[:n])
		cols[i] = Column{Name: c.Name, Type: c.Type, Values: vals}
	}
	return &Table{Columns: cols, rows: n}
}

// Preview returns the first n rows in display form.
func (t *Table) Preview(n int) *Preview {
	head := t.Head(n)
	p := &Preview{
		Columns: t.ColumnInfos(),
		Rows:    make([][]Value, head.rows),
		Total:   t.rows,
	}
	for i := 0; i < head.rows; i++ {
		p.Rows[i] = head.Row(i)
	}
	return p
}

// Equal reports whether both tables have the same columns, types and cells.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.Columns) != len(o.Columns) {
		return false
	}
	for i := range t.Columns {
		a, b := t.Columns[i], o.Columns[i]
		if a.Name != b.Name || a.Type != b.Type {
			return false
		}
		for r := range a.Values {
			if !a.Values[r].Equal(b.Values[r]) {
				return false
			}
		}
	}
	return true
}

// keepRows retains only the rows whose index is marked true, in place.
func (t *Table) keepRows(keep []bool) {
	kept := 0
	for _, k := range keep {
		if k {
			kept++
		}
	}
	for i := range t.Columns {
		vals := t.Columns[i].Values[:0]
		for r, v := range t.Columns[i].Values {
			if keep[r] {
				vals = append(vals, v)
			}
		}
		t.Columns[i].Values = vals
	}
	t.rows = kept
}
