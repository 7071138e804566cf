package core

import (
	"reflect"
	"testing"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		// Valid
		{"positive integer", "123", 123, true},
		{"zero", "0", 0, true},
		{"negative integer", "-456", -456, true},
		{"explicit plus", "+7", 7, true},
		{"decimal", "123.45", 123.45, true},
		{"leading decimal point", ".5", 0.5, true},
		{"trailing decimal point", "99.", 99, true},
		{"surrounding whitespace", "  42  ", 42, true},
		{"scientific", "1.5e3", 1500, true},
		{"negative exponent", "2E-2", 0.02, true},

		// Invalid
		{"empty", "", 0, false},
		{"text", "abc", 0, false},
		{"thousands separator", "1,234", 0, false},
		{"currency symbol", "$12", 0, false},
		{"percent", "50%", 0, false},
		{"two points", "1.2.3", 0, false},
		{"lone sign", "-", 0, false},
		{"overflow", "1e400", 0, false},
		{"NaN literal", "NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input  string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"False", false, true},
		{" false ", false, true},
		{"1", false, false},
		{"yes", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		got, ok := ParseBool(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseBool(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIsNA(t *testing.T) {
	for _, s := range []string{"", "NA", "N/A", "#N/A", "#N/A N/A", "-1.#IND", "-1.#QNAN", "NaN", "null", "None"} {
		if !IsNA(s) {
			t.Errorf("IsNA(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "n.a.", "none of the above", "-", "  ", " NA "} {
		if IsNA(s) {
			t.Errorf("IsNA(%q) = true, want false", s)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{3, "3"},
		{2.5, "2.5"},
		{-0.25, "-0.25"},
		{1234567, "1234567"},
		{1e21, "1e+21"},
		{1e-7, "1e-07"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// Column inference Tests
// ----------------------------------------------------------------------------

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name     string
		cells    []string
		wantType ColumnType
		want     []Value
	}{
		{
			name:     "numbers with a gap",
			cells:    []string{"1", "", "3"},
			wantType: TypeNumeric,
			want:     []Value{Number(1), Null(), Number(3)},
		},
		{
			name:     "NA marker in numeric column",
			cells:    []string{"NA", "2.5"},
			wantType: TypeNumeric,
			want:     []Value{Null(), Number(2.5)},
		},
		{
			name:     "booleans any case",
			cells:    []string{"true", "FALSE", ""},
			wantType: TypeBool,
			want:     []Value{Bool(true), Bool(false), Null()},
		},
		{
			name:     "mixed numbers and text",
			cells:    []string{"1", "x"},
			wantType: TypeText,
			want:     []Value{Text("1"), Text("x")},
		},
		{
			name:     "booleans mixed with numbers are text",
			cells:    []string{"True", "1"},
			wantType: TypeText,
			want:     []Value{Text("True"), Text("1")},
		},
		{
			name:     "all null is numeric",
			cells:    []string{"", "null"},
			wantType: TypeNumeric,
			want:     []Value{Null(), Null()},
		},
		{
			name:     "no cells",
			cells:    []string{},
			wantType: TypeNumeric,
			want:     []Value{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := inferColumn("c", tt.cells)
			if col.Type != tt.wantType {
				t.Errorf("type = %v, want %v", col.Type, tt.wantType)
			}
			if len(col.Values) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(col.Values), len(tt.want))
			}
			for i := range tt.want {
				if !col.Values[i].Equal(tt.want[i]) {
					t.Errorf("value[%d] = %#v, want %#v", i, col.Values[i], tt.want[i])
				}
			}
		})
	}
}

func TestHeaderNames(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{"unique", []string{"a", "b"}, []string{"a", "b"}},
		{"trimmed", []string{" a ", "b"}, []string{"a", "b"}},
		{"duplicates", []string{"a", "a", "a"}, []string{"a", "a.1", "a.2"}},
		{"blank", []string{"a", "", "b"}, []string{"a", "Unnamed: 1", "b"}},
		{"suffix collides with existing", []string{"a.1", "a", "a"}, []string{"a.1", "a", "a.2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headerNames(tt.raw); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("headerNames(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestBuildTable_PadsShortRows(t *testing.T) {
	tbl := buildTable([]string{"a", "b"}, [][]string{{"1"}, {"2", "x"}})

	if tbl.NumRows() != 2 || tbl.NumColumns() != 2 {
		t.Fatalf("shape = %dx%d, want 2x2", tbl.NumRows(), tbl.NumColumns())
	}
	b := tbl.Columns[1]
	if b.Type != TypeText {
		t.Errorf("b type = %v, want text", b.Type)
	}
	if !b.Values[0].IsNull() {
		t.Errorf("padded cell = %#v, want null", b.Values[0])
	}
}
