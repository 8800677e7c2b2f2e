// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for patients, visits, interventions, and meta.
package storage

// initSchema creates or updates the database schema.
//
// Referential integrity between the three collections is deliberately
// not declared here: the reconciliation engine enforces it at import
// time, and cascade deletes are explicit statements. This keeps the
// SQLite and Badger backends behaviourally identical.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS patients (
		patient_id TEXT PRIMARY KEY,
		prevalent_condition TEXT NOT NULL,
		sex TEXT,
		birth_year INTEGER,
		comorbidities TEXT,
		notes TEXT,
		status TEXT NOT NULL,
		strat_vars TEXT NOT NULL DEFAULT '{}',
		cmo_score INTEGER NOT NULL DEFAULT 0,
		priority_level INTEGER NOT NULL DEFAULT 3,
		created_at TEXT NOT NULL,
		schema_version TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS visits (
		visit_id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hospital_drug TEXT,
		ldl REAL,
		ldl_target REAL,
		ldl_goal_achieved INTEGER,
		treatment TEXT,
		adherence TEXT,
		ram TEXT,
		strat_vars TEXT NOT NULL DEFAULT '{}',
		cmo_score INTEGER NOT NULL DEFAULT 0,
		priority_level INTEGER NOT NULL DEFAULT 3,
		priority_justification TEXT,
		oft_objectives TEXT,
		follow_up_plan TEXT,
		created_at TEXT NOT NULL,
		schema_version TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interventions (
		intervention_id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		visit_id TEXT NOT NULL,
		type TEXT NOT NULL,
		cmo_dimension TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL,
		outcome_notes TEXT,
		created_at TEXT NOT NULL,
		schema_version TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_visits_patient ON visits(patient_id);
	CREATE INDEX IF NOT EXISTS idx_visits_date ON visits(date DESC);
	CREATE INDEX IF NOT EXISTS idx_interventions_patient ON interventions(patient_id);
	CREATE INDEX IF NOT EXISTS idx_interventions_visit ON interventions(visit_id);
	CREATE INDEX IF NOT EXISTS idx_patients_condition ON patients(prevalent_condition);
	`

	_, err := d.db.Exec(schema)
	return err
}
