// ABOUTME: Visit CRUD operations for SQLite storage.
// ABOUTME: DeleteVisit cascades to the visit's interventions.
package storage

import (
	"database/sql"
	"fmt"

	"github.com/farmahosp/cmoreg/internal/models"
)

// PutVisit inserts or replaces a visit by primary key.
func (d *DB) PutVisit(v *models.Visit) error {
	stratVars, err := marshalStratVars(v.StratVars)
	if err != nil {
		return fmt.Errorf("put visit: %w", err)
	}

	query := `
		INSERT INTO visits (visit_id, patient_id, date, hospital_drug, ldl,
			ldl_target, ldl_goal_achieved, treatment, adherence, ram, strat_vars,
			cmo_score, priority_level, priority_justification, oft_objectives,
			follow_up_plan, created_at, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(visit_id) DO UPDATE SET
			patient_id = excluded.patient_id,
			date = excluded.date,
			hospital_drug = excluded.hospital_drug,
			ldl = excluded.ldl,
			ldl_target = excluded.ldl_target,
			ldl_goal_achieved = excluded.ldl_goal_achieved,
			treatment = excluded.treatment,
			adherence = excluded.adherence,
			ram = excluded.ram,
			strat_vars = excluded.strat_vars,
			cmo_score = excluded.cmo_score,
			priority_level = excluded.priority_level,
			priority_justification = excluded.priority_justification,
			oft_objectives = excluded.oft_objectives,
			follow_up_plan = excluded.follow_up_plan,
			created_at = excluded.created_at,
			schema_version = excluded.schema_version
	`
	_, err = d.db.Exec(query,
		v.VisitID,
		v.PatientID,
		v.Date,
		nullableString(v.HospitalDrug),
		nullableFloat(v.LDL),
		nullableFloat(v.LDLTarget),
		nullableBool(v.LDLGoalAchieved),
		nullableString(v.Treatment),
		nullableString(v.Adherence),
		nullableString(v.RAM),
		stratVars,
		v.CMOScore,
		v.PriorityLevel,
		nullableString(v.PriorityJustification),
		nullableString(v.OFTObjectives),
		nullableString(v.FollowUpPlan),
		v.CreatedAt,
		v.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("put visit: %w", err)
	}
	return nil
}

// GetAllVisits returns every visit, order unspecified.
func (d *DB) GetAllVisits() ([]*models.Visit, error) {
	query := `
		SELECT visit_id, patient_id, date, hospital_drug, ldl, ldl_target,
			ldl_goal_achieved, treatment, adherence, ram, strat_vars, cmo_score,
			priority_level, priority_justification, oft_objectives,
			follow_up_plan, created_at, schema_version
		FROM visits
	`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("get all visits: %w", err)
	}
	defer rows.Close()

	var visits []*models.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// DeleteVisit removes a visit and its interventions. Deleting a
// missing visit is not an error.
func (d *DB) DeleteVisit(visitID string) error {
	if _, err := d.db.Exec("DELETE FROM interventions WHERE visit_id = ?", visitID); err != nil {
		return fmt.Errorf("delete visit interventions: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM visits WHERE visit_id = ?", visitID); err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	return nil
}

func scanVisit(rows *sql.Rows) (*models.Visit, error) {
	var v models.Visit
	var hospitalDrug, treatment, adherence, ram sql.NullString
	var justification, oft, followUp sql.NullString
	var ldl, ldlTarget sql.NullFloat64
	var goalAchieved sql.NullInt64
	var stratVars string

	err := rows.Scan(&v.VisitID, &v.PatientID, &v.Date, &hospitalDrug, &ldl,
		&ldlTarget, &goalAchieved, &treatment, &adherence, &ram, &stratVars,
		&v.CMOScore, &v.PriorityLevel, &justification, &oft, &followUp,
		&v.CreatedAt, &v.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("scan visit: %w", err)
	}

	v.HospitalDrug = fromNullString(hospitalDrug)
	v.LDL = fromNullFloat(ldl)
	v.LDLTarget = fromNullFloat(ldlTarget)
	v.LDLGoalAchieved = fromNullBool(goalAchieved)
	v.Treatment = fromNullString(treatment)
	v.Adherence = fromNullString(adherence)
	v.RAM = fromNullString(ram)
	v.PriorityJustification = fromNullString(justification)
	v.OFTObjectives = fromNullString(oft)
	v.FollowUpPlan = fromNullString(followUp)

	v.StratVars, err = unmarshalStratVars(stratVars)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
