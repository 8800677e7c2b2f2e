// ABOUTME: CSV reading and writing for registry import/export.
// ABOUTME: Handles BOM, delimiter sniffing, and the locale Excel variant.
package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// Table is a parsed CSV file: the header and one map per data row.
// Row numbers count the header as row 1, so the first data row is 2.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row is a single data row keyed by header name.
type Row struct {
	Number int
	Fields map[string]string
}

// ParseCSV parses untrusted CSV text. It strips a UTF-8 BOM, sniffs
// the delimiter from the header line (unquoted semicolon vs comma
// counts, semicolon winning ties, which accepts both standard exports
// and Spanish-locale Excel files), accepts CRLF or LF endings, and
// drops fully blank rows. Missing trailing fields read as "".
func ParseCSV(text string) (*Table, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty file")
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(headerLine(text))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	headers := records[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	table := &Table{Headers: headers}
	for idx, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				fields[h] = record[i]
			} else {
				fields[h] = ""
			}
		}
		table.Rows = append(table.Rows, Row{Number: idx + 2, Fields: fields})
	}
	return table, nil
}

// headerLine returns the first line of the file, respecting quoted
// newlines so a quoted header cell cannot truncate the sniff.
func headerLine(text string) string {
	inQuotes := false
	for i, r := range text {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes {
				return strings.TrimSuffix(text[:i], "\r")
			}
		}
	}
	return text
}

// sniffDelimiter counts unquoted semicolons and commas in the header
// line. Semicolon wins ties so a two-column locale export is still
// read correctly.
func sniffDelimiter(header string) rune {
	inQuotes := false
	semis, commas := 0, 0
	for _, r := range header {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ';':
			if !inQuotes {
				semis++
			}
		case ',':
			if !inQuotes {
				commas++
			}
		}
	}
	if semis >= commas && semis > 0 {
		return ';'
	}
	return ','
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// WriteCSV renders rows under the given ordered headers. The standard
// variant is comma-separated with LF endings; the locale variant for
// Spanish Excel is semicolon-separated with CRLF endings and a UTF-8
// BOM.
func WriteCSV(headers []string, rows []map[string]string, locale bool) string {
	var sb strings.Builder
	if locale {
		sb.WriteString("\ufeff")
	}

	w := csv.NewWriter(&sb)
	if locale {
		w.Comma = ';'
		w.UseCRLF = true
	}

	_ = w.Write(headers)
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = row[h]
		}
		_ = w.Write(record)
	}
	w.Flush()
	return sb.String()
}
