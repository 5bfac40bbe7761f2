package formats

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

// TestExtractUnknownType surfaces the sentinel callers branch on.
func TestExtractUnknownType(t *testing.T) {
	if _, err := Extract("hpgl", []byte("x")); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("err = %v, want ErrUnsupportedSource", err)
	}
}

// TestExtractText strips BOM and carriage returns.
func TestExtractText(t *testing.T) {
	data := []byte("\xef\xbb\xbfLunes\r\nPress banca 3x8\r\n")
	ex, err := extractText(data)
	if err != nil {
		t.Fatalf("extractText: %v", err)
	}
	if len(ex.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(ex.Lines))
	}
	if ex.Lines[0].Text != "Lunes" || ex.Lines[1].Text != "Press banca 3x8" {
		t.Errorf("lines = %q, %q", ex.Lines[0].Text, ex.Lines[1].Text)
	}
	if ex.ConfidenceBase != 1.0 {
		t.Errorf("confidence base = %v, want 1.0", ex.ConfidenceBase)
	}
}

// TestExtractCSV maps aliased headers and synthesizes explicit structure
// forms, including the reps sub-grammar.
func TestExtractCSV(t *testing.T) {
	data := []byte("Día;Ejercicio;Series;Reps;Notas\n" +
		"Lunes;Press banca;3;8;tempo lento\n" +
		"Lunes;Dominadas;3;AMRAP;\n" +
		"Martes;Remo;3;8-10;\n" +
		"Martes;Curl biceps;3;8,8,8;\n")

	ex, err := extractCSV(data)
	if err != nil {
		t.Fatalf("extractCSV: %v", err)
	}
	want := []string{
		"Lunes",
		"Press banca 3x8 tempo lento",
		"Dominadas 3xAMRAP",
		"Martes",
		"Remo 3x8-10",
		"Curl biceps 3 series: 8,8,8",
	}
	if len(ex.Lines) != len(want) {
		t.Fatalf("lines = %d, want %d: %+v", len(ex.Lines), len(want), ex.Lines)
	}
	for i, w := range want {
		if ex.Lines[i].Text != w {
			t.Errorf("line %d = %q, want %q", i, ex.Lines[i].Text, w)
		}
	}
}

// TestExtractCSVNoExerciseColumn rejects a table whose header maps to
// nothing usable.
func TestExtractCSVNoExerciseColumn(t *testing.T) {
	if _, err := extractCSV([]byte("foo;bar\n1;2\n")); err == nil {
		t.Fatal("expected error for unrecognized header")
	}
}

// TestExtractXLSX round-trips a workbook through the tabular mapper.
func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Day", "Exercise", "Sets", "Reps", "Note"},
		{"Monday", "Press banca", 3, 8, ""},
		{"Monday", "Sentadilla", 4, "6-8", "profundo"},
	}
	for ri, row := range rows {
		for ci, v := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	ex, err := extractXLSX(buf.Bytes())
	if err != nil {
		t.Fatalf("extractXLSX: %v", err)
	}
	want := []string{"Monday", "Press banca 3x8", "Sentadilla 4x6-8 profundo"}
	if len(ex.Lines) != len(want) {
		t.Fatalf("lines = %+v, want %v", ex.Lines, want)
	}
	for i, w := range want {
		if ex.Lines[i].Text != w {
			t.Errorf("line %d = %q, want %q", i, ex.Lines[i].Text, w)
		}
	}
}

func docxBytes(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// TestExtractDOCX turns paragraphs and explicit breaks into lines.
func TestExtractDOCX(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Lunes</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Press banca 3x8</w:t></w:r><w:br/><w:r><w:t>Dominadas 3xAMRAP</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	ex, err := extractDOCX(docxBytes(t, doc))
	if err != nil {
		t.Fatalf("extractDOCX: %v", err)
	}
	want := []string{"Lunes", "Press banca 3x8", "Dominadas 3xAMRAP"}
	if len(ex.Lines) != len(want) {
		t.Fatalf("lines = %+v, want %v", ex.Lines, want)
	}
	for i, w := range want {
		if ex.Lines[i].Text != w {
			t.Errorf("line %d = %q, want %q", i, ex.Lines[i].Text, w)
		}
	}
}

// TestExtractPDF reassembles reading order from scattered glyph runs and
// keeps page numbers for provenance.
func TestExtractPDF(t *testing.T) {
	payload := []byte(`{"pages":2,"glyphs":[
		{"page":1,"str":"banca 3x8","x":60,"y":700.4},
		{"page":1,"str":"Lunes","x":10,"y":720},
		{"page":1,"str":"Press","x":10,"y":700},
		{"page":2,"str":"Martes","x":10,"y":720}
	]}`)

	ex, err := extractPDF(payload)
	if err != nil {
		t.Fatalf("extractPDF: %v", err)
	}
	want := []string{"Lunes", "Press banca 3x8", "Martes"}
	if len(ex.Lines) != len(want) {
		t.Fatalf("lines = %+v, want %v", ex.Lines, want)
	}
	for i, w := range want {
		if ex.Lines[i].Text != w {
			t.Errorf("line %d = %q, want %q", i, ex.Lines[i].Text, w)
		}
	}
	if ex.Lines[2].Page != 2 {
		t.Errorf("page = %d, want 2", ex.Lines[2].Page)
	}
	if ex.ConfidenceBase != 0.75 {
		t.Errorf("confidence base = %v, want 0.75", ex.ConfidenceBase)
	}
}

// TestExtractPDFPageCeiling rejects oversized documents up front.
func TestExtractPDFPageCeiling(t *testing.T) {
	if _, err := extractPDF([]byte(`{"pages":41,"glyphs":[]}`)); err == nil {
		t.Fatal("expected error past the page ceiling")
	}
}

// TestDetect sniffs by extension first, then content.
func TestDetect(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		data     []byte
		want     string
	}{
		{"csv extension", "rutina.CSV", nil, TypeCSV},
		{"xlsx extension", "rutina.xlsx", nil, TypeXLSX},
		{"docx extension", "rutina.docx", nil, TypeDOCX},
		{"pdf glyphs", "rutina.pdf.json", nil, TypePDF},
		{"pdf magic", "blob", []byte("%PDF-1.7"), TypePDF},
		{"zip with document part", "blob", docxZip(), TypeDOCX},
		{"delimited content", "blob", []byte("day;exercise;sets\nLunes;Press;3\n"), TypeCSV},
		{"plain text", "blob", []byte("Lunes\nPress banca 3x8\n"), TypeText},
	}
	for _, tc := range cases {
		if got := Detect(tc.filename, tc.data); got != tc.want {
			t.Errorf("%s: Detect = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func docxZip() []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte("<w:document/>"))
	zw.Close()
	return buf.Bytes()
}
