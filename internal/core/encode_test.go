package core

import (
	"bytes"
	"errors"
	"testing"
)

func TestConvertedName(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   string
	}{
		{"report.xlsx", FormatCSV, "report.csv"},
		{"report.xlsx", FormatXLSX, "report.xlsx"},
		{"report.csv", FormatXLSX, "report.xlsx"},
		{"q1.sales.CSV", FormatXLSX, "q1.sales.xlsx"},
		{"noext", FormatCSV, "noext.csv"},
	}
	for _, tt := range tests {
		if got := ConvertedName(tt.name, tt.format); got != tt.want {
			t.Errorf("ConvertedName(%q, %s) = %q, want %q", tt.name, tt.format, got, tt.want)
		}
	}
}

func TestConvert_NameAndMIME(t *testing.T) {
	tbl := sampleTable()

	tests := []struct {
		source   string
		format   Format
		wantName string
		wantMIME string
	}{
		{"report.xlsx", FormatCSV, "report.csv", "text/csv"},
		{"report.xlsx", FormatXLSX, "report.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}
	for _, tt := range tests {
		res, err := Convert(tbl, tt.source, tt.format)
		if err != nil {
			t.Fatalf("Convert(%s): %v", tt.format, err)
		}
		if res.FileName != tt.wantName {
			t.Errorf("FileName = %q, want %q", res.FileName, tt.wantName)
		}
		if res.MIMEType != tt.wantMIME {
			t.Errorf("MIMEType = %q, want %q", res.MIMEType, tt.wantMIME)
		}
		if res.Size != len(res.Data) || res.Size == 0 {
			t.Errorf("Size = %d, data = %d bytes", res.Size, len(res.Data))
		}
	}
}

func TestEncodeCSV(t *testing.T) {
	tbl := MustTable(
		Column{Name: "name", Type: TypeText, Values: txt("a, b", "")},
		Column{Name: "v", Type: TypeNumeric, Values: num(1.5, nil)},
		Column{Name: "ok", Type: TypeBool, Values: []Value{Bool(true), Bool(false)}},
	)

	got, err := EncodeCSV(tbl)
	if err != nil {
		t.Fatalf("EncodeCSV: %v", err)
	}
	want := "name,v,ok\n\"a, b\",1.5,True\n,,False\n"
	if string(got) != want {
		t.Errorf("EncodeCSV = %q, want %q", got, want)
	}
}

func TestEncodeCSV_NoColumns(t *testing.T) {
	got, err := EncodeCSV(EmptyTable(3))
	if err != nil {
		t.Fatalf("EncodeCSV: %v", err)
	}
	if string(got) != "\n\n\n\n" {
		t.Errorf("EncodeCSV = %q, want four blank lines", got)
	}
	if _, err := ParseCSV(got); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("ParseCSV error = %v, want ErrEmptyFile", err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
	}{
		{"mixed types", sampleTable()},
		{
			"single column with nulls",
			MustTable(Column{Name: "v", Type: TypeNumeric, Values: num(1, nil, 3)}),
		},
		{
			"header only",
			MustTable(Column{Name: "v", Type: TypeNumeric, Values: []Value{}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeCSV(tt.table)
			if err != nil {
				t.Fatalf("EncodeCSV: %v", err)
			}
			back, err := ParseCSV(data)
			if err != nil {
				t.Fatalf("ParseCSV: %v", err)
			}
			if !back.Equal(tt.table) {
				t.Errorf("round trip changed the table\n got: %+v\nwant: %+v", back.Columns, tt.table.Columns)
			}
		})
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	src := sampleTable()

	data, err := EncodeXLSX(src)
	if err != nil {
		t.Fatalf("EncodeXLSX: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatal("EncodeXLSX output is not a zip archive")
	}

	back, err := ParseXLSX(data)
	if err != nil {
		t.Fatalf("ParseXLSX: %v", err)
	}
	if !back.Equal(src) {
		t.Errorf("round trip changed the table\n got: %+v\nwant: %+v", back.Columns, src.Columns)
	}
}

func TestEncode_Unsupported(t *testing.T) {
	if _, err := Encode(sampleTable(), Format("json")); err == nil {
		t.Error("Encode accepted an unknown format")
	}
}
