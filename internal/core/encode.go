package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// xlsxSheet is the sheet name written to exported workbooks.
const xlsxSheet = "Sheet1"

// ConvertedName replaces the extension of name with the target format's.
// Names without an extension get one appended.
func ConvertedName(name string, format Format) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)] + format.Extension()
}

// Convert encodes t in the target format and names the result after the
// source file.
func Convert(t *Table, sourceName string, format Format) (*ConversionResult, error) {
	data, err := Encode(t, format)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{
		Data:     data,
		FileName: ConvertedName(sourceName, format),
		MIMEType: format.MIMEType(),
		Size:     len(data),
	}, nil
}

// Reader returns the encoded bytes positioned at the start.
func (c *ConversionResult) Reader() io.ReadSeeker {
	return bytes.NewReader(c.Data)
}

// Encode serializes t with a header row and no index column.
func Encode(t *Table, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return EncodeCSV(t)
	case FormatXLSX:
		return EncodeXLSX(t)
	}
	return nil, &UnsupportedFormatError{Ext: format.Extension()}
}

// EncodeCSV writes comma-delimited UTF-8 with \n line endings. A table with
// no columns encodes as blank lines, which ParseCSV reads back as empty.
func EncodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.ColumnNames()); err != nil {
		return nil, fmt.Errorf("encode csv header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for r := 0; r < t.rows; r++ {
		for j := range t.Columns {
			record[j] = t.Columns[j].Values[r].String()
		}
		if len(record) == 1 && record[0] == "" {
			// csv.Writer would emit a blank line, which readers skip.
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("encode csv row %d: %w", r, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeXLSX writes a single-sheet workbook. Numbers and booleans keep their
// cell types; nulls are left empty.
func EncodeXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for j, c := range t.Columns {
		header[j] = c.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("encode xlsx header: %w", err)
	}

	for r := 0; r < t.rows; r++ {
		row := make([]interface{}, len(t.Columns))
		for j := range t.Columns {
			row[j] = cellValue(t.Columns[j].Values[r])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, fmt.Errorf("encode xlsx row %d: %w", r, err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("encode xlsx row %d: %w", r, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(v Value) interface{} {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindText:
		return v.Text
	case KindBool:
		return v.Bool
	}
	return nil
}
