package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/xuri/excelize/v2"
)

// FileExtension returns the lower-cased extension of name including the dot,
// or "" when the name has none.
func FileExtension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// DetectFormat maps a file name to a supported format.
func DetectFormat(name string) (Format, error) {
	switch ext := FileExtension(name); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
}

// Parse reads a CSV or XLSX file into a Table. The format comes from the
// file name's extension.
func Parse(ctx context.Context, name string, data []byte) (*Table, Format, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, "", err
	}

	var t *Table
	switch format {
	case FormatCSV:
		t, err = ParseCSV(data)
	case FormatXLSX:
		t, err = ParseXLSX(data)
	}
	if err != nil {
		return nil, format, err
	}

	logging.FromContext(ctx).Debug("parsed file",
		"file", name,
		"format", format,
		"rows", t.NumRows(),
		"columns", t.NumColumns(),
	)
	return t, format, nil
}

// ParseCSV parses comma-delimited text whose first record is the header.
func ParseCSV(data []byte) (*Table, error) {
	in := sanitizeInput(data)
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, malformed(FormatCSV, err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(FormatCSV, err)
		}
		if len(rec) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, malformed(FormatCSV,
				fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(rec)))
		}
		rows = append(rows, rec)
	}

	slog.Debug("csv read", "bytes", in.n, "records", len(rows)+1)
	return buildTable(header, rows), nil
}

// ParseXLSX reads the first sheet of a workbook. The first row is the header.
// Cells are read raw so number formats do not turn numbers into text.
func ParseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, malformed(FormatXLSX, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, malformed(FormatXLSX, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	if err := restoreBoolCells(f, sheet, rows); err != nil {
		return nil, malformed(FormatXLSX, err)
	}

	header := rows[0]
	body := rows[1:]

	// GetRows trims trailing empty cells per row, so a row can be longer
	// than the header only if it has data past the last header cell.
	width := len(header)
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}

	// Trailing blank rows inside the used range carry no data.
	for len(body) > 0 && isBlankRow(body[len(body)-1]) {
		body = body[:len(body)-1]
	}

	return buildTable(header, body), nil
}

// restoreBoolCells rewrites raw boolean cells ("1"/"0") as TRUE/FALSE so they
// infer as booleans instead of numbers.
func restoreBoolCells(f *excelize.File, sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, v := range row {
			if v != "0" && v != "1" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return err
			}
			if typ == excelize.CellTypeBool {
				if v == "1" {
					row[c] = "TRUE"
				} else {
					row[c] = "FALSE"
				}
			}
		}
	}
	return nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
