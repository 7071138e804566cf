package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Deduplicate removes rows identical to an earlier row, in place, keeping the
// first occurrence and the order of kept rows. Null cells compare equal.
// Returns the number of rows removed.
func Deduplicate(t *Table) int {
	if t.rows == 0 || len(t.Columns) == 0 {
		// A zero-column table has every row equal to the first.
		if len(t.Columns) == 0 && t.rows > 1 {
			removed := t.rows - 1
			t.rows = 1
			return removed
		}
		return 0
	}

	seen := make(map[string]struct{}, t.rows)
	keep := make([]bool, t.rows)
	removed := 0
	for r := 0; r < t.rows; r++ {
		k := rowKey(t, r)
		if _, dup := seen[k]; dup {
			removed++
			continue
		}
		seen[k] = struct{}{}
		keep[r] = true
	}
	if removed > 0 {
		t.keepRows(keep)
	}
	return removed
}

// rowKey encodes row r with length prefixes so no two distinct rows collide.
func rowKey(t *Table, r int) string {
	var b strings.Builder
	for _, c := range t.Columns {
		k := c.Values[r].key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// FillResult reports what FillMissingWithMean changed.
type FillResult struct {
	CellsFilled int
	Columns     []string
}

// FillMissingWithMean replaces nulls in every numeric column with the mean of
// that column's non-null values, in place. Means are computed from the values
// as they were before any substitution. All-null columns stay null.
func FillMissingWithMean(t *Table) FillResult {
	var res FillResult
	for i := range t.Columns {
		col := &t.Columns[i]
		if col.Type != TypeNumeric {
			continue
		}
		mean, ok := columnMean(col.Values)
		if !ok {
			continue
		}
		filled := 0
		for r, v := range col.Values {
			if v.IsNull() {
				col.Values[r] = Number(mean)
				filled++
			}
		}
		if filled > 0 {
			res.CellsFilled += filled
			res.Columns = append(res.Columns, col.Name)
		}
	}
	return res
}

// columnMean sums with decimal arithmetic so the result does not depend on
// float accumulation order. ok is false when there are no values.
func columnMean(vals []Value) (float64, bool) {
	sum := decimal.Zero
	n := int64(0)
	for _, v := range vals {
		if v.Kind != KindNumber {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(v.Num))
		n++
	}
	if n == 0 {
		return 0, false
	}
	mean, _ := sum.DivRound(decimal.NewFromInt(n), meanPlaces(sum)).Float64()
	return mean, true
}

// meanPlaces rounds meanDigits places past the last digit of sum, so means of
// small-magnitude columns are not truncated to zero.
func meanPlaces(sum decimal.Decimal) int32 {
	places := int32(meanDigits)
	if p := meanDigits - sum.Exponent(); p > places {
		places = p
	}
	return places
}

const meanDigits = 20
