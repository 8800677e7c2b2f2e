// ABOUTME: Scan/bind helpers for nullable columns and stratVars JSON.
// ABOUTME: Shared by the per-entity CRUD files.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// nullableString binds a *string as a SQL value.
func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// nullableFloat binds a *float64 as a SQL value.
func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// nullableInt binds a *int as a SQL value.
func nullableInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

// nullableBool binds a tri-state *bool as a SQL value (0/1/NULL).
func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	if *b {
		return 1
	}
	return 0
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func fromNullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func fromNullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

func fromNullBool(ni sql.NullInt64) *bool {
	if !ni.Valid {
		return nil
	}
	b := ni.Int64 != 0
	return &b
}

// marshalStratVars encodes a selections map for the strat_vars column.
func marshalStratVars(m map[string]string) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal strat vars: %w", err)
	}
	return string(data), nil
}

// unmarshalStratVars decodes the strat_vars column.
func unmarshalStratVars(s string) (map[string]string, error) {
	if s == "" {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("unmarshal strat vars: %w", err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}
