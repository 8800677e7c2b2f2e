// ABOUTME: Intervention CRUD operations for SQLite storage.
// ABOUTME: Leaf collection; no cascade of its own.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/farmahosp/cmoreg/internal/models"
)

// PutIntervention inserts or replaces an intervention by primary key.
func (d *DB) PutIntervention(i *models.Intervention) error {
	query := `
		INSERT INTO interventions (intervention_id, patient_id, visit_id, type,
			cmo_dimension, description, status, outcome_notes, created_at,
			schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(intervention_id) DO UPDATE SET
			patient_id = excluded.patient_id,
			visit_id = excluded.visit_id,
			type = excluded.type,
			cmo_dimension = excluded.cmo_dimension,
			description = excluded.description,
			status = excluded.status,
			outcome_notes = excluded.outcome_notes,
			created_at = excluded.created_at,
			schema_version = excluded.schema_version
	`
	_, err := d.db.Exec(query,
		i.InterventionID,
		i.PatientID,
		i.VisitID,
		i.Type,
		i.CMODimension,
		i.Description,
		i.Status,
		nullableString(i.OutcomeNotes),
		i.CreatedAt,
		i.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("put intervention: %w", err)
	}
	return nil
}

// GetAllInterventions returns every intervention, order unspecified.
func (d *DB) GetAllInterventions() ([]*models.Intervention, error) {
	query := `
		SELECT intervention_id, patient_id, visit_id, type, cmo_dimension,
			description, status, outcome_notes, created_at, schema_version
		FROM interventions
	`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("get all interventions: %w", err)
	}
	defer rows.Close()

	var interventions []*models.Intervention
	for rows.Next() {
		i, err := scanIntervention(rows)
		if err != nil {
			return nil, err
		}
		interventions = append(interventions, i)
	}
	return interventions, rows.Err()
}

// DeleteIntervention removes an intervention. Deleting a missing key
// is not an error.
func (d *DB) DeleteIntervention(interventionID string) error {
	if _, err := d.db.Exec("DELETE FROM interventions WHERE intervention_id = ?", interventionID); err != nil {
		return fmt.Errorf("delete intervention: %w", err)
	}
	return nil
}

func scanIntervention(rows *sql.Rows) (*models.Intervention, error) {
	var i models.Intervention
	var outcomeNotes sql.NullString

	err := rows.Scan(&i.InterventionID, &i.PatientID, &i.VisitID, &i.Type,
		&i.CMODimension, &i.Description, &i.Status, &outcomeNotes,
		&i.CreatedAt, &i.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("scan intervention: %w", err)
	}

	i.OutcomeNotes = fromNullString(outcomeNotes)
	return &i, nil
}
