// ABOUTME: Patient CRUD operations for SQLite storage.
// ABOUTME: DeletePatient cascades to visits and interventions.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/farmahosp/cmoreg/internal/models"
)

// PutPatient inserts or replaces a patient by primary key.
func (d *DB) PutPatient(p *models.Patient) error {
	stratVars, err := marshalStratVars(p.StratVars)
	if err != nil {
		return fmt.Errorf("put patient: %w", err)
	}

	query := `
		INSERT INTO patients (patient_id, prevalent_condition, sex, birth_year,
			comorbidities, notes, status, strat_vars, cmo_score, priority_level,
			created_at, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			prevalent_condition = excluded.prevalent_condition,
			sex = excluded.sex,
			birth_year = excluded.birth_year,
			comorbidities = excluded.comorbidities,
			notes = excluded.notes,
			status = excluded.status,
			strat_vars = excluded.strat_vars,
			cmo_score = excluded.cmo_score,
			priority_level = excluded.priority_level,
			created_at = excluded.created_at,
			schema_version = excluded.schema_version
	`
	_, err = d.db.Exec(query,
		p.PatientID,
		p.PrevalentCondition,
		emptyAsNull(p.Sex),
		nullableInt(p.BirthYear),
		nullableString(p.Comorbidities),
		nullableString(p.Notes),
		p.Status,
		stratVars,
		p.CMOScore,
		p.PriorityLevel,
		p.CreatedAt,
		p.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("put patient: %w", err)
	}
	return nil
}

// GetAllPatients returns every patient, order unspecified.
func (d *DB) GetAllPatients() ([]*models.Patient, error) {
	query := `
		SELECT patient_id, prevalent_condition, sex, birth_year, comorbidities,
			notes, status, strat_vars, cmo_score, priority_level, created_at,
			schema_version
		FROM patients
	`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("get all patients: %w", err)
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// DeletePatient removes a patient and every visit and intervention
// referencing it. Deleting a missing patient is not an error.
func (d *DB) DeletePatient(patientID string) error {
	if _, err := d.db.Exec("DELETE FROM interventions WHERE patient_id = ?", patientID); err != nil {
		return fmt.Errorf("delete patient interventions: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM visits WHERE patient_id = ?", patientID); err != nil {
		return fmt.Errorf("delete patient visits: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM patients WHERE patient_id = ?", patientID); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	return nil
}

func scanPatient(rows *sql.Rows) (*models.Patient, error) {
	var p models.Patient
	var sex, comorbidities, notes sql.NullString
	var birthYear sql.NullInt64
	var stratVars string

	err := rows.Scan(&p.PatientID, &p.PrevalentCondition, &sex, &birthYear,
		&comorbidities, &notes, &p.Status, &stratVars, &p.CMOScore,
		&p.PriorityLevel, &p.CreatedAt, &p.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("scan patient: %w", err)
	}

	if sex.Valid {
		p.Sex = sex.String
	}
	p.BirthYear = fromNullInt(birthYear)
	p.Comorbidities = fromNullString(comorbidities)
	p.Notes = fromNullString(notes)

	p.StratVars, err = unmarshalStratVars(stratVars)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// emptyAsNull stores "" as NULL so optional plain-string fields round
// trip the same way through both backends.
func emptyAsNull(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
