package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValueKind identifies what a single cell holds.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindNumber
	KindText
	KindBool
)

// ColumnType is the inferred semantic type of a whole column.
type ColumnType uint8

const (
	TypeNumeric ColumnType = iota
	TypeText
	TypeBool
)

func (t ColumnType) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeText:
		return "text"
	case TypeBool:
		return "boolean"
	}
	return ""
}

func (t ColumnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Value is a single cell. The zero Value is null.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
	Bool bool
}

// Null returns a null cell.
func Null() Value { return Value{} }

// Number returns a numeric cell.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text returns a text cell.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal compares two cells. Null equals null.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindText:
		return v.Text == o.Text
	case KindBool:
		return v.Bool == o.Bool
	}
	return true
}

// String returns the text form used for CSV output. Null renders empty.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Num)
	case KindText:
		return v.Text
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindText:
		return json.Marshal(v.Text)
	case KindBool:
		return json.Marshal(v.Bool)
	}
	return []byte("null"), nil
}

// key returns a string that is identical for equal cells and distinct otherwise.
// Used to hash whole rows during deduplication.
func (v Value) key() string {
	switch v.Kind {
	case KindNumber:
		if v.Num == 0 {
			return "n0" // -0 equals 0
		}
		return "n" + FormatNumber(v.Num)
	case KindText:
		return "s" + v.Text
	case KindBool:
		if v.Bool {
			return "b1"
		}
		return "b0"
	}
	return "z"
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

// ColumnInfo describes a column without its values.
type ColumnInfo struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// MIMEType returns the content type label for the format.
func (f Format) MIMEType() string {
	if f == FormatXLSX {
		return mimeXLSX
	}
	return mimeCSV
}

// ParseFormat accepts "csv", "xlsx" or their dotted extensions, any case.
// "excel" is accepted as an alias for xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", &UnsupportedFormatError{Ext: s}
}

// CleanStep names a cleaning operation.
type CleanStep string

const (
	StepDedupe CleanStep = "dedupe"
	StepFill   CleanStep = "fill"
)

// DefaultCleanOrder applies deduplication before mean-imputation.
var DefaultCleanOrder = []CleanStep{StepDedupe, StepFill}

// CleaningOptions selects the cleaning steps to run.
// Order decides the sequence when both are enabled; empty means DefaultCleanOrder.
type CleaningOptions struct {
	RemoveDuplicates bool        `json:"remove_duplicates"`
	FillMissing      bool        `json:"fill_missing_numeric_with_mean"`
	Order            []CleanStep `json:"order,omitempty" validate:"omitempty,dive,oneof=dedupe fill"`
}

// steps returns the enabled steps in execution order. Unknown and repeated
// entries in Order are ignored; enabled steps missing from Order run last in
// default order.
func (o CleaningOptions) steps() []CleanStep {
	enabled := map[CleanStep]bool{
		StepDedupe: o.RemoveDuplicates,
		StepFill:   o.FillMissing,
	}
	var out []CleanStep
	seen := make(map[CleanStep]bool, 2)
	for _, list := range [][]CleanStep{o.Order, DefaultCleanOrder} {
		for _, s := range list {
			if enabled[s] && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Action is the set of user choices applied to one parsed file.
// Columns == nil keeps every column; an empty non-nil slice keeps none.
// Convert == "" skips encoding.
type Action struct {
	Cleaning CleaningOptions `json:"cleaning"`
	Columns  []string        `json:"columns"`
	Chart    bool            `json:"chart"`
	Convert  Format          `json:"convert,omitempty" validate:"omitempty,oneof=csv xlsx"`
}

// FileRequest carries everything one file's pipeline run needs.
type FileRequest struct {
	Name string
	Data []byte
	Action
}

// Preview is the head of a table for display.
type Preview struct {
	Columns []ColumnInfo `json:"columns"`
	Rows    [][]Value    `json:"rows"`
	Total   int          `json:"totalRows"`
}

// ConversionResult is a download artifact.
type ConversionResult struct {
	Data     []byte `json:"-"`
	FileName string `json:"fileName"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
}

// CleaningSummary reports what the cleaning steps changed.
type CleaningSummary struct {
	Steps             []CleanStep `json:"steps"`
	DuplicatesRemoved int         `json:"duplicatesRemoved"`
	CellsFilled       int         `json:"cellsFilled"`
	FilledColumns     []string    `json:"filledColumns,omitempty"`
}

// FileResult is the outcome of one file's pipeline run.
type FileResult struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name"`
	Format     Format            `json:"format,omitempty"`
	Messages   []string          `json:"messages,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
	Cleaning   *CleaningSummary  `json:"cleaning,omitempty"`
	Preview    *Preview          `json:"preview,omitempty"`
	Chart      *ChartConfig      `json:"chart,omitempty"`
	Conversion *ConversionResult `json:"conversion,omitempty"`
	Error      string            `json:"error,omitempty"`
	Detail     string            `json:"detail,omitempty"`
	Code       string            `json:"code,omitempty"`
	Err        error             `json:"-"`

	// Table is the final table state after cleaning and projection.
	Table *Table `json:"-"`
}

// Failed reports whether the file ended in a terminal failure.
func (r FileResult) Failed() bool { return r.Err != nil }

// BatchResult collects the results of every file in a batch.
type BatchResult struct {
	ID       string       `json:"id"`
	Files    []FileResult `json:"files"`
	Complete bool         `json:"complete"`
}

// Succeeded returns the number of files without a terminal failure.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, f := range b.Files {
		if !f.Failed() {
			n++
		}
	}
	return n
}

func (b BatchResult) String() string {
	return fmt.Sprintf("batch %s: %d/%d files succeeded", b.ID, b.Succeeded(), len(b.Files))
}
