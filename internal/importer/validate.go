// ABOUTME: Field-level validation and locale-tolerant value parsing.
// ABOUTME: Numbers accept decimal comma; dates normalize to ISO.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseNumber parses a decimal that may use a comma or a dot as the
// decimal separator.
func ParseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return n, nil
}

// dateLayouts are the accepted input formats, tried in order. All
// normalize to ISO YYYY-MM-DD.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// ParseDate parses an ISO date or a common European variant and
// returns the ISO normalization.
func ParseDate(s string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("not a date: %q", s)
}

// ParseBool accepts exactly "true"/"false", case-insensitively.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// validateRow checks one row against the schema. It returns the
// normalized field values (dates rewritten to ISO) and the list of
// problems; a row with any problem is excluded from the batch. Empty
// optional fields skip type checking.
func validateRow(schema Schema, row Row) (map[string]string, []string) {
	var problems []string
	clean := make(map[string]string, len(schema.Fields))

	for _, f := range schema.Fields {
		raw := strings.TrimSpace(row.Fields[f.Key])

		if raw == "" {
			if f.Required {
				problems = append(problems, fmt.Sprintf("row %d: missing required field %s", row.Number, f.Key))
			}
			clean[f.Key] = ""
			continue
		}

		switch f.Type {
		case FieldNumber:
			if _, err := ParseNumber(raw); err != nil {
				problems = append(problems, fmt.Sprintf("row %d: field %s: %v", row.Number, f.Key, err))
				continue
			}
		case FieldDate:
			iso, err := ParseDate(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("row %d: field %s: %v", row.Number, f.Key, err))
				continue
			}
			raw = iso
		case FieldBoolean:
			if _, err := ParseBool(raw); err != nil {
				problems = append(problems, fmt.Sprintf("row %d: field %s: %v", row.Number, f.Key, err))
				continue
			}
		case FieldEnum:
			if !containsString(f.Enum, raw) {
				problems = append(problems, fmt.Sprintf("row %d: field %s: %q is not one of %s",
					row.Number, f.Key, raw, strings.Join(f.Enum, "|")))
				continue
			}
		}
		clean[f.Key] = raw
	}

	return clean, problems
}

// missingColumns returns required schema columns absent from the file
// header. Any hit is a structural error for the whole file.
func missingColumns(schema Schema, headers []string) []string {
	var missing []string
	for _, key := range schema.RequiredKeys() {
		if !containsString(headers, key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// extraColumns returns file columns the schema does not declare. They
// are reported for user feedback but never fail validation.
func extraColumns(schema Schema, headers []string) []string {
	var extra []string
	for _, h := range headers {
		if schema.Find(h) == nil {
			extra = append(extra, h)
		}
	}
	return extra
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
