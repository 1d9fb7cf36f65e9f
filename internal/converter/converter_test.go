package converter

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nconklindev/datasweeper/internal/types"

	"github.com/xuri/excelize/v2"
)

func TestFormatFromFileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Format
		wantErr  bool
	}{
		{"CSV", "data.csv", FormatCSV, false},
		{"Upper case CSV", "DATA.CSV", FormatCSV, false},
		{"XLSX", "report.xlsx", FormatXLSX, false},
		{"Text file", "notes.txt", "", true},
		{"Legacy Excel", "old.xls", "", true},
		{"No extension", "README", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromFileName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromFileName(%q) error = %v; wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("FormatFromFileName(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"Excel", FormatXLSX, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v; wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.expected {
			t.Errorf("ParseFormat(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	_, err := Decode([]byte("a,b\n1,2\n"), "data.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Expected ErrUnsupportedFormat, got %v", err)
	}

	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) || ufe.Ext != ".txt" {
		t.Errorf("Expected error naming .txt, got %v", err)
	}
	if !strings.Contains(err.Error(), ".txt") {
		t.Errorf("Error message %q does not name the extension", err.Error())
	}
}

func TestDecodeCSVScenario(t *testing.T) {
	tbl, err := Decode([]byte("a,b\n1,2\n1,2\n3,\n"), "input.csv")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got := tbl.Names(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Names() = %v; want [a b]", got)
	}
	if tbl.NumRows() != 3 {
		t.Errorf("Expected 3 rows, got %d", tbl.NumRows())
	}

	b, _ := tbl.Column("b")
	if b.Type != types.ColumnNumeric {
		t.Errorf("Column b type = %s; want numeric", b.Type)
	}
	if !b.Cells[2].IsMissing() {
		t.Errorf("Expected missing value in row 3, got %v", b.Cells[2])
	}
	if b.Cells[0].Num != 2 {
		t.Errorf("Expected 2 in row 1, got %v", b.Cells[0])
	}
}

func TestDecodeCSVTyping(t *testing.T) {
	input := "Name,Hours,Code\nAlice, 8.5 ,007\nBob,NA,x1\nCarol,,\n"
	tbl, err := Decode([]byte(input), "input.csv")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	tests := []struct {
		column   string
		expected types.ColumnType
	}{
		{"Name", types.ColumnText},
		{"Hours", types.ColumnNumeric},
		{"Code", types.ColumnText},
	}

	for _, tt := range tests {
		col, ok := tbl.Column(tt.column)
		if !ok {
			t.Fatalf("Column %s not found", tt.column)
		}
		if col.Type != tt.expected {
			t.Errorf("Column %s type = %s; want %s", tt.column, col.Type, tt.expected)
		}
	}

	hours, _ := tbl.Column("Hours")
	if hours.Cells[0].Num != 8.5 {
		t.Errorf("Expected 8.5, got %v", hours.Cells[0])
	}
	if !hours.Cells[1].IsMissing() {
		t.Errorf("NA token should be missing, got %v", hours.Cells[1])
	}

	code, _ := tbl.Column("Code")
	if code.Cells[0].Text != "007" {
		t.Errorf("Text column should keep %q, got %v", "007", code.Cells[0])
	}
	if !code.Cells[2].IsMissing() {
		t.Errorf("Empty text cell should be missing, got %v", code.Cells[2])
	}
}

func TestDecodeCSVLatin1Fallback(t *testing.T) {
	input := []byte("name,city\ncaf\xe9,M\xfcnchen\n")
	tbl, err := Decode(input, "latin.csv")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	row := tbl.Row(0)
	if row[0].Text != "café" {
		t.Errorf("Expected café, got %q", row[0].Text)
	}
	if row[1].Text != "München" {
		t.Errorf("Expected München, got %q", row[1].Text)
	}
}

func TestDecodeCSVStripsBOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,value\n1,2\n")...)
	tbl, err := Decode(input, "bom.csv")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if _, ok := tbl.Column("id"); !ok {
		t.Errorf("BOM was not stripped from the first header: %v", tbl.Names())
	}
}

func TestDecodeCSVHeaders(t *testing.T) {
	tbl, err := Decode([]byte("a,a,,a.1\n1,2,3,4\n"), "dupes.csv")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	expected := []string{"a", "a.2", "Unnamed: 2", "a.1"}
	got := tbl.Names()
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Header %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
}

func TestDecodeCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty file", ""},
		{"Row wider than header", "a,b\n1,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input), "bad.csv")
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("Expected ErrDecode, got %v", err)
			}

			var de *DecodeError
			if !errors.As(err, &de) || de.File != "bad.csv" || de.Format != FormatCSV {
				t.Errorf("DecodeError does not carry file and format: %v", err)
			}
		})
	}
}

func TestDecodeCSVPadsShortRows(t *testing.T) {
	tbl, err := Decode([]byte("a,b,c\n1\n"), "short.csv")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	row := tbl.Row(0)
	if row[0].Num != 1 || !row[1].IsMissing() || !row[2].IsMissing() {
		t.Errorf("Short row not padded: %v", row)
	}
}

func TestDecodeXLSXTyping(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellStr(sheet, "A1", "Name")
	f.SetCellStr(sheet, "B1", "Hours")
	f.SetCellStr(sheet, "C1", "Zip")
	f.SetCellStr(sheet, "A2", "Alice")
	f.SetCellFloat(sheet, "B2", 7.5, -1, 64)
	f.SetCellStr(sheet, "C2", "02134")
	f.SetCellStr(sheet, "A3", "Bob")
	f.SetCellStr(sheet, "C3", "10001")

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	tbl, err := Decode(buf.Bytes(), "sheet.xlsx")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if tbl.NumRows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", tbl.NumRows())
	}

	hours, _ := tbl.Column("Hours")
	if hours.Type != types.ColumnNumeric || hours.Cells[0].Num != 7.5 || !hours.Cells[1].IsMissing() {
		t.Errorf("Hours column decoded wrong: %+v", hours)
	}

	zip, _ := tbl.Column("Zip")
	if zip.Type != types.ColumnText || zip.Cells[0].Text != "02134" {
		t.Errorf("String cells must stay text: %+v", zip)
	}
}

func TestDecodeXLSXSkipsLeadingBlankRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellStr(sheet, "A3", "id")
	f.SetCellFloat(sheet, "A4", 1, -1, 64)
	f.SetCellFloat(sheet, "B4", 2, -1, 64)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	tbl, err := Decode(buf.Bytes(), "offset.xlsx")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	expected := []string{"id", "Unnamed: 1"}
	got := tbl.Names()
	if len(got) != len(expected) || got[0] != expected[0] || got[1] != expected[1] {
		t.Errorf("Names() = %v; want %v", got, expected)
	}
	if tbl.NumRows() != 1 {
		t.Errorf("Expected 1 row, got %d", tbl.NumRows())
	}
}

func TestDecodeXLSXInvalid(t *testing.T) {
	_, err := Decode([]byte("definitely not a zip archive"), "broken.xlsx")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Expected ErrDecode, got %v", err)
	}
}

func sampleTable(t *testing.T) *types.Table {
	t.Helper()

	tbl, err := types.NewTable([]string{"Name", "Hours", "Note"}, [][]types.Cell{
		{types.Text("Alice"), types.Number(1.5), types.Text("first, with comma")},
		{types.Text("Bob"), types.Missing(), types.Missing()},
		{types.Text("Carol"), types.Number(-2), types.Text(`quoted "text"`)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestEncodeCSV(t *testing.T) {
	result, err := Encode(sampleTable(t), FormatCSV, "hours.xlsx")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	expected := "Name,Hours,Note\n" +
		"Alice,1.5,\"first, with comma\"\n" +
		"Bob,,\n" +
		"Carol,-2,\"quoted \"\"text\"\"\"\n"
	if string(result.Data) != expected {
		t.Errorf("CSV output:\n%s\nwant:\n%s", result.Data, expected)
	}
	if result.OutputFile != "hours.csv" {
		t.Errorf("Expected hours.csv, got %s", result.OutputFile)
	}
	if result.ContentType != "text/csv" {
		t.Errorf("Expected text/csv, got %s", result.ContentType)
	}
	if result.Rows != 3 {
		t.Errorf("Expected 3 rows, got %d", result.Rows)
	}
}

func TestEncodeUnsupportedTarget(t *testing.T) {
	_, err := Encode(sampleTable(t), Format("pdf"), "hours.csv")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func trailingMissingTable(t *testing.T) *types.Table {
	t.Helper()

	tbl, err := types.NewTable([]string{"a", "b"}, [][]types.Cell{
		{types.Number(1), types.Text("x")},
		{types.Missing(), types.Missing()},
		{types.Missing(), types.Missing()},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func allMissingTable(t *testing.T) *types.Table {
	t.Helper()

	tbl, err := types.NewTable([]string{"v"}, [][]types.Cell{
		{types.Missing()},
		{types.Missing()},
	})
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestRoundTrip(t *testing.T) {
	tables := []struct {
		name  string
		table func(*testing.T) *types.Table
	}{
		{"sample", sampleTable},
		{"trailing missing rows", trailingMissingTable},
		{"all missing", allMissingTable},
	}

	for _, tc := range tables {
		for _, format := range Formats {
			t.Run(tc.name+"/"+string(format), func(t *testing.T) {
				original := tc.table(t)

				result, err := Encode(original, format, "hours.csv")
				if err != nil {
					t.Fatalf("Encode failed: %v", err)
				}

				decoded, err := Decode(result.Data, result.OutputFile)
				if err != nil {
					t.Fatalf("Decode failed: %v", err)
				}

				if !decoded.Equal(original) {
					t.Errorf("Round trip mismatch:\n got %v\nwant %v", decoded.Records(), original.Records())
				}
			})
		}
	}
}

func TestCSVToXLSXKeepsEmptyLastRow(t *testing.T) {
	fromCSV, err := Decode([]byte("a,b\n1,2\n,\n"), "in.csv")
	if err != nil {
		t.Fatal(err)
	}

	result, err := Encode(fromCSV, FormatXLSX, "in.csv")
	if err != nil {
		t.Fatal(err)
	}

	fromXLSX, err := Decode(result.Data, result.OutputFile)
	if err != nil {
		t.Fatal(err)
	}

	if fromXLSX.NumRows() != 2 {
		t.Errorf("Expected 2 rows after conversion, got %d", fromXLSX.NumRows())
	}
	if !fromXLSX.Equal(fromCSV) {
		t.Errorf("Conversion mismatch:\n got %v\nwant %v", fromXLSX.Records(), fromCSV.Records())
	}
}

func TestDecodeXLSXBooleans(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellStr(sheet, "A1", "active")
	f.SetCellBool(sheet, "A2", true)
	f.SetCellBool(sheet, "A3", false)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	tbl, err := Decode(buf.Bytes(), "flags.xlsx")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	col, _ := tbl.Column("active")
	if col.Type != types.ColumnText {
		t.Errorf("Expected text column, got %s", col.Type)
	}
	if col.Cells[0].Text != "TRUE" || col.Cells[1].Text != "FALSE" {
		t.Errorf("Booleans decoded as %q, %q; want TRUE, FALSE", col.Cells[0].Text, col.Cells[1].Text)
	}
}

func TestEncodeXLSXInfinityAsText(t *testing.T) {
	tbl, err := types.NewTable([]string{"v"}, [][]types.Cell{
		{types.Number(math.Inf(1))},
		{types.Number(math.Inf(-1))},
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := Encode(tbl, FormatXLSX, "inf.csv")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	for cell, want := range map[string]string{"A2": "+Inf", "A3": "-Inf"} {
		cellType, err := f.GetCellType(sheet, cell)
		if err != nil {
			t.Fatal(err)
		}
		if cellType == excelize.CellTypeNumber || cellType == excelize.CellTypeUnset {
			t.Errorf("%s written as a numeric cell", cell)
		}
		if got, _ := f.GetCellValue(sheet, cell); got != want {
			t.Errorf("%s = %q; want %q", cell, got, want)
		}
	}
}

func TestRoundTripSingleColumnWithMissing(t *testing.T) {
	original, err := types.NewTable([]string{"v"}, [][]types.Cell{
		{types.Number(1)}, {types.Missing()}, {types.Number(3)},
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := Encode(original, FormatCSV, "v.csv")
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := Decode(result.Data, "v.csv")
	if err != nil {
		t.Fatal(err)
	}

	if decoded.NumRows() != 3 {
		t.Errorf("Expected 3 rows after round trip, got %d (%q)", decoded.NumRows(), result.Data)
	}
}

func TestSuggestedFileName(t *testing.T) {
	tests := []struct {
		input    string
		target   Format
		expected string
	}{
		{"report.csv", FormatXLSX, "report.xlsx"},
		{"report.xlsx", FormatCSV, "report.csv"},
		{"data.csv.csv", FormatXLSX, "data.csv.xlsx"},
		{"noext", FormatCSV, "noext.csv"},
	}

	for _, tt := range tests {
		if got := SuggestedFileName(tt.input, tt.target); got != tt.expected {
			t.Errorf("SuggestedFileName(%q, %s) = %s; want %s", tt.input, tt.target, got, tt.expected)
		}
	}
}

func TestReadFile(t *testing.T) {
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "input.csv")

	if err := os.WriteFile(inputFile, []byte("Name,Hours\nAlice,1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadFile(inputFile)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if tbl.NumRows() != 1 {
		t.Errorf("Expected 1 row, got %d", tbl.NumRows())
	}

	if _, err := ReadFile(filepath.Join(tmpDir, "missing.txt")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat before touching disk, got %v", err)
	}
}

func TestEncodeXLSXHeader(t *testing.T) {
	result, err := Encode(sampleTable(t), FormatXLSX, "hours.csv")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 {
		t.Errorf("Expected a single sheet, got %v", sheets)
	}

	header, err := f.GetCellValue("Sheet1", "B1")
	if err != nil {
		t.Fatal(err)
	}
	if header != "Hours" {
		t.Errorf("Expected Hours in B1, got %q", header)
	}

	if result.ContentType != ContentTypeXLSX {
		t.Errorf("Unexpected content type %s", result.ContentType)
	}
}
