package core

import (
	"math"
	"testing"
)

func num(vs ...interface{}) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		switch x := v.(type) {
		case nil:
			out[i] = Null()
		case int:
			out[i] = Number(float64(x))
		case float64:
			out[i] = Number(x)
		}
	}
	return out
}

func txt(vs ...string) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		if v != "" {
			out[i] = Text(v)
		}
	}
	return out
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name        string
		table       *Table
		wantRemoved int
		want        *Table
	}{
		{
			name: "keeps first occurrence and order",
			table: MustTable(
				Column{Name: "k", Type: TypeText, Values: txt("b", "a", "b", "c", "a")},
				Column{Name: "v", Type: TypeNumeric, Values: num(2, 1, 2, 3, 1)},
			),
			wantRemoved: 2,
			want: MustTable(
				Column{Name: "k", Type: TypeText, Values: txt("b", "a", "c")},
				Column{Name: "v", Type: TypeNumeric, Values: num(2, 1, 3)},
			),
		},
		{
			name: "nulls compare equal",
			table: MustTable(
				Column{Name: "v", Type: TypeNumeric, Values: num(nil, 1, nil)},
			),
			wantRemoved: 1,
			want: MustTable(
				Column{Name: "v", Type: TypeNumeric, Values: num(nil, 1)},
			),
		},
		{
			name: "rows differing in one cell are kept",
			table: MustTable(
				Column{Name: "a", Type: TypeNumeric, Values: num(1, 1)},
				Column{Name: "b", Type: TypeNumeric, Values: num(1, nil)},
			),
			wantRemoved: 0,
			want: MustTable(
				Column{Name: "a", Type: TypeNumeric, Values: num(1, 1)},
				Column{Name: "b", Type: TypeNumeric, Values: num(1, nil)},
			),
		},
		{
			name: "cell boundaries are not confused",
			table: MustTable(
				Column{Name: "a", Type: TypeText, Values: txt("ab", "a")},
				Column{Name: "b", Type: TypeText, Values: txt("c", "bc")},
			),
			wantRemoved: 0,
			want: MustTable(
				Column{Name: "a", Type: TypeText, Values: txt("ab", "a")},
				Column{Name: "b", Type: TypeText, Values: txt("c", "bc")},
			),
		},
		{
			name: "negative zero equals zero",
			table: MustTable(
				Column{Name: "v", Type: TypeNumeric, Values: []Value{Number(0), Number(math.Copysign(0, -1))}},
			),
			wantRemoved: 1,
			want:        MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(0)}),
		},
		{
			name:        "empty table",
			table:       MustTable(Column{Name: "a", Type: TypeNumeric, Values: []Value{}}),
			wantRemoved: 0,
			want:        MustTable(Column{Name: "a", Type: TypeNumeric, Values: []Value{}}),
		},
		{
			name:        "zero columns collapse to one row",
			table:       EmptyTable(4),
			wantRemoved: 3,
			want:        EmptyTable(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removed := Deduplicate(tt.table)
			if removed != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", removed, tt.wantRemoved)
			}
			if !tt.table.Equal(tt.want) {
				t.Errorf("table = %+v, want %+v", tt.table.Columns, tt.want.Columns)
			}
		})
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	tbl := MustTable(
		Column{Name: "k", Type: TypeText, Values: txt("x", "y", "x", "", "")},
		Column{Name: "v", Type: TypeNumeric, Values: num(1, 2, 1, nil, nil)},
	)
	Deduplicate(tbl)
	once := tbl.Clone()

	if n := Deduplicate(tbl); n != 0 {
		t.Errorf("second pass removed %d rows, want 0", n)
	}
	if !tbl.Equal(once) {
		t.Error("second pass changed the table")
	}
}

func TestFillMissingWithMean(t *testing.T) {
	tests := []struct {
		name      string
		table     *Table
		wantCells int
		wantCols  []string
		want      *Table
	}{
		{
			name:      "fills gap with mean",
			table:     MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(1, nil, 3)}),
			wantCells: 1,
			wantCols:  []string{"v"},
			want:      MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(1, 2, 3)}),
		},
		{
			name:      "mean from values before substitution",
			table:     MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(nil, 4, nil, 8)}),
			wantCells: 2,
			wantCols:  []string{"v"},
			want:      MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(6, 4, 6, 8)}),
		},
		{
			name:      "all-null column stays null",
			table:     MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(nil, nil)}),
			wantCells: 0,
			want:      MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(nil, nil)}),
		},
		{
			name: "text columns untouched",
			table: MustTable(
				Column{Name: "t", Type: TypeText, Values: txt("a", "")},
				Column{Name: "v", Type: TypeNumeric, Values: num(nil, 0.5)},
			),
			wantCells: 1,
			wantCols:  []string{"v"},
			want: MustTable(
				Column{Name: "t", Type: TypeText, Values: txt("a", "")},
				Column{Name: "v", Type: TypeNumeric, Values: num(0.5, 0.5)},
			),
		},
		{
			name:      "decimal mean",
			table:     MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(0.1, 0.2, nil)}),
			wantCells: 1,
			wantCols:  []string{"v"},
			want:      MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(0.1, 0.2, 0.15)}),
		},
		{
			name:      "tiny magnitudes",
			table:     MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(1e-20, nil, 3e-20)}),
			wantCells: 1,
			wantCols:  []string{"v"},
			want:      MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(1e-20, 2e-20, 3e-20)}),
		},
		{
			name:      "small mean keeps its digits",
			table:     MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(1.23456789e-10, nil, 0)}),
			wantCells: 1,
			wantCols:  []string{"v"},
			want:      MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(1.23456789e-10, 6.17283945e-11, 0)}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FillMissingWithMean(tt.table)
			if res.CellsFilled != tt.wantCells {
				t.Errorf("CellsFilled = %d, want %d", res.CellsFilled, tt.wantCells)
			}
			if len(res.Columns) != len(tt.wantCols) {
				t.Errorf("Columns = %q, want %q", res.Columns, tt.wantCols)
			}
			if !tt.table.Equal(tt.want) {
				t.Errorf("table = %+v, want %+v", tt.table.Columns, tt.want.Columns)
			}
		})
	}
}

func TestCleaningOptions_Steps(t *testing.T) {
	tests := []struct {
		name string
		opts CleaningOptions
		want []CleanStep
	}{
		{"none", CleaningOptions{}, nil},
		{"dedupe only", CleaningOptions{RemoveDuplicates: true}, []CleanStep{StepDedupe}},
		{"both default order", CleaningOptions{RemoveDuplicates: true, FillMissing: true}, []CleanStep{StepDedupe, StepFill}},
		{
			"explicit order",
			CleaningOptions{RemoveDuplicates: true, FillMissing: true, Order: []CleanStep{StepFill, StepDedupe}},
			[]CleanStep{StepFill, StepDedupe},
		},
		{
			"order names a disabled step",
			CleaningOptions{FillMissing: true, Order: []CleanStep{StepDedupe, StepFill}},
			[]CleanStep{StepFill},
		},
		{
			"partial order",
			CleaningOptions{RemoveDuplicates: true, FillMissing: true, Order: []CleanStep{StepFill}},
			[]CleanStep{StepFill, StepDedupe},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.steps()
			if len(got) != len(tt.want) {
				t.Fatalf("steps() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("steps()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
