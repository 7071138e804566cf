package core

// convert.go turns raw cell text into typed values.
//
// Column types are inferred from every non-null cell of the column:
//   - all cells true/false (any case) -> boolean
//   - all cells numeric (decimal or scientific) -> numeric
//   - no non-null cells at all -> numeric, all null
//   - anything else -> text
//
// Empty cells and the usual spreadsheet NA markers ("NA", "N/A", "NaN",
// "null", ...) are null in every column type.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a plain numeric literal.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// naValues are cell texts read as null.
var naValues = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// IsNA reports whether the raw cell text denotes a missing value. Markers
// must match exactly; padded text such as " NA " stays text.
func IsNA(s string) bool {
	return naValues[s]
}

// ParseNumber parses a plain numeric literal.
// Decimal literals go through pgtype.Numeric so arbitrary precision input is
// rounded once; scientific notation falls back to strconv.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}

	if !strings.ContainsAny(s, "eE") {
		var n pgtype.Numeric
		if err := n.Scan(s); err == nil {
			if f, err := n.Float64Value(); err == nil && f.Valid {
				return f.Float64, true
			}
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseBool accepts only true/false in any letter case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// FormatNumber renders a float in its shortest round-trip form, without
// exponent for ordinary magnitudes.
func FormatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// inferColumn builds a typed column from raw cell texts.
func inferColumn(name string, cells []string) Column {
	isBool, isNum := true, true
	for _, c := range cells {
		if IsNA(c) {
			continue
		}
		if isBool {
			if _, ok := ParseBool(c); !ok {
				isBool = false
			}
		}
		if isNum {
			if _, ok := ParseNumber(c); !ok {
				isNum = false
			}
		}
		if !isBool && !isNum {
			break
		}
	}

	allNull := true
	for _, c := range cells {
		if !IsNA(c) {
			allNull = false
			break
		}
	}

	col := Column{Name: name, Values: make([]Value, len(cells))}
	switch {
	case allNull || (isNum && !isBool):
		col.Type = TypeNumeric
		for i, c := range cells {
			if f, ok := ParseNumber(c); ok && !IsNA(c) {
				col.Values[i] = Number(f)
			}
		}
	case isBool:
		col.Type = TypeBool
		for i, c := range cells {
			if b, ok := ParseBool(c); ok {
				col.Values[i] = Bool(b)
			}
		}
	default:
		col.Type = TypeText
		for i, c := range cells {
			if !IsNA(c) {
				col.Values[i] = Text(c)
			}
		}
	}
	return col
}

// headerNames disambiguates raw header cells: blanks become "Unnamed: i",
// repeats get ".1", ".2" suffixes.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	counts := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for used[name] {
			counts[h]++
			name = h + "." + strconv.Itoa(counts[h])
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// buildTable infers a table from a header and ragged data rows.
// Short rows are padded with nulls. Callers reject long rows.
func buildTable(header []string, rows [][]string) *Table {
	names := headerNames(header)
	cols := make([]Column, len(names))
	cells := make([]string, len(rows))
	for j, name := range names {
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			} else {
				cells[i] = ""
			}
		}
		cols[j] = inferColumn(name, cells)
	}
	t := &Table{Columns: cols, rows: len(rows)}
	return t
}
