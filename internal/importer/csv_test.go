// ABOUTME: Tests for CSV parsing: RFC4180 quoting, BOM, delimiters.
// ABOUTME: Covers the locale Excel variant and blank-row handling.
package importer

import (
	"strings"
	"testing"
)

func TestParseCSVQuotedField(t *testing.T) {
	text := "name,notes\nP1,\"a,b\nc\"\"d\"\n"
	table, err := ParseCSV(text)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	got := table.Rows[0].Fields["notes"]
	want := "a,b\nc\"d"
	if got != want {
		t.Errorf("quoted field = %q, want %q", got, want)
	}
}

func TestParseCSVSemicolonBOMAndCRLF(t *testing.T) {
	text := "\ufeffpatientId;notes\r\nP1;hola\r\nP2;adios\r\n"
	table, err := ParseCSV(text)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(table.Headers) != 2 || table.Headers[0] != "patientId" {
		t.Errorf("BOM not stripped from header: %v", table.Headers)
	}
	if len(table.Rows) != 2 || table.Rows[0].Fields["notes"] != "hola" {
		t.Errorf("unexpected rows: %+v", table.Rows)
	}
}

func TestSniffDelimiterTieGoesToSemicolon(t *testing.T) {
	if got := sniffDelimiter("a;b,c"); got != ';' {
		t.Errorf("tie should pick semicolon, got %q", got)
	}
	if got := sniffDelimiter("a,b,c"); got != ',' {
		t.Errorf("comma header sniffed as %q", got)
	}
	// Quoted delimiters don't count.
	if got := sniffDelimiter(`"a;b;c",d`); got != ',' {
		t.Errorf("quoted semicolons should not count, got %q", got)
	}
}

func TestParseCSVDropsBlankRowsPadsShortOnes(t *testing.T) {
	text := "a,b,c\n1,2\n,,\n"
	table, err := ParseCSV(text)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("blank row should be dropped; got %d rows", len(table.Rows))
	}
	if table.Rows[0].Fields["c"] != "" {
		t.Errorf("missing trailing field should read empty, got %q", table.Rows[0].Fields["c"])
	}
	if table.Rows[0].Number != 2 {
		t.Errorf("first data row should be numbered 2, got %d", table.Rows[0].Number)
	}
}

func TestWriteCSVVariants(t *testing.T) {
	headers := []string{"a", "b"}
	rows := []map[string]string{{"a": "x,y", "b": "z"}}

	std := WriteCSV(headers, rows, false)
	if strings.Contains(std, "\ufeff") || strings.Contains(std, "\r\n") || strings.Contains(std, ";") {
		t.Errorf("standard variant should be comma/LF without BOM: %q", std)
	}
	if !strings.Contains(std, "\"x,y\"") {
		t.Errorf("embedded comma should be quoted: %q", std)
	}

	loc := WriteCSV(headers, rows, true)
	if !strings.HasPrefix(loc, "\ufeff") {
		t.Error("locale variant should start with BOM")
	}
	if !strings.Contains(loc, ";") || !strings.Contains(loc, "\r\n") {
		t.Errorf("locale variant should be semicolon/CRLF: %q", loc)
	}
}

func TestWriteThenParseRoundTrip(t *testing.T) {
	headers := []string{"a", "b"}
	rows := []map[string]string{{"a": "with \"quotes\"", "b": "line\nbreak"}}

	for _, locale := range []bool{false, true} {
		table, err := ParseCSV(WriteCSV(headers, rows, locale))
		if err != nil {
			t.Fatalf("ParseCSV(locale=%v) failed: %v", locale, err)
		}
		if table.Rows[0].Fields["a"] != rows[0]["a"] || table.Rows[0].Fields["b"] != rows[0]["b"] {
			t.Errorf("round trip mismatch (locale=%v): %+v", locale, table.Rows[0].Fields)
		}
	}
}
