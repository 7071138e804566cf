package core

// NormalizeColumnSet drops repeated names, keeping the first occurrence.
func NormalizeColumnSet(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Project returns a new table with only the named columns, in the given
// order, keeping every row. The source table is not modified. An unknown
// name fails with *UnknownColumnError.
func Project(t *Table, names []string) (*Table, error) {
	names = NormalizeColumnSet(names)
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		i := t.Index(n)
		if i < 0 {
			return nil, &UnknownColumnError{Column: n}
		}
		src := t.Columns[i]
		vals := make([]Value, len(src.Values))
		copy(vals, src.Values)
		cols = append(cols, Column{Name: src.Name, Type: src.Type, Values: vals})
	}
	return &Table{Columns: cols, rows: t.rows}, nil
}
