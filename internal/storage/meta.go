// ABOUTME: Meta key-value slots for SQLite storage.
// ABOUTME: Holds process-wide state such as lastBackupAt.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// MetaLastBackupAt is the timestamp of the most recent JSON backup.
const MetaLastBackupAt = "lastBackupAt"

// GetMeta returns the value for a meta key, or "" if the key is unset.
func (d *DB) GetMeta(key string) (string, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta stores a single-value meta slot, replacing any prior value.
func (d *DB) SetMeta(key, value string) error {
	query := `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := d.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}
