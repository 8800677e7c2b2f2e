// ABOUTME: Whole-database JSON backup and restore (plus YAML export).
// ABOUTME: Restore is section-checked but trusts rows; it upserts all.
package importer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/farmahosp/cmoreg/internal/models"
	"github.com/farmahosp/cmoreg/internal/storage"
	"gopkg.in/yaml.v3"
)

// BackupDocument is the whole-database export shape. It is also the
// only accepted input for a full restore.
type BackupDocument struct {
	SchemaVersion string                 `json:"schemaVersion" yaml:"schemaVersion"`
	ExportedAt    string                 `json:"exportedAt" yaml:"exportedAt"`
	Patients      []*models.Patient      `json:"patients" yaml:"patients"`
	Visits        []*models.Visit        `json:"visits" yaml:"visits"`
	Interventions []*models.Intervention `json:"interventions" yaml:"interventions"`
}

// buildBackup assembles the document from the current view. Arrays are
// never nil so the exported JSON always carries all three sections.
func (e *Engine) buildBackup() *BackupDocument {
	doc := &BackupDocument{
		SchemaVersion: models.SchemaVersion,
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		Patients:      e.view.Patients(),
		Visits:        []*models.Visit{},
		Interventions: []*models.Intervention{},
	}
	if doc.Patients == nil {
		doc.Patients = []*models.Patient{}
	}
	for _, p := range e.view.Patients() {
		doc.Visits = append(doc.Visits, e.view.VisitsFor(p.PatientID)...)
		doc.Interventions = append(doc.Interventions, e.view.InterventionsForPatient(p.PatientID)...)
	}
	return doc
}

// BackupJSON exports the whole database as an indented JSON document
// and records the backup time in the meta table.
func (e *Engine) BackupJSON() ([]byte, error) {
	data, err := json.MarshalIndent(e.buildBackup(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	if err := e.repo.SetMeta(storage.MetaLastBackupAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return data, nil
}

// BackupYAML exports the whole database as YAML for human review. It
// does not count as a backup (lastBackupAt is untouched).
func (e *Engine) BackupYAML() ([]byte, error) {
	data, err := yaml.Marshal(e.buildBackup())
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return data, nil
}

// RestoreReport summarizes a completed restore.
type RestoreReport struct {
	Patients      int
	Visits        int
	Interventions int
	// Warning is set for a non-fatal schema-version mismatch.
	Warning string
}

// restoreEnvelope distinguishes absent sections from empty ones.
type restoreEnvelope struct {
	SchemaVersion string                  `json:"schemaVersion"`
	Patients      *[]*models.Patient      `json:"patients"`
	Visits        *[]*models.Visit        `json:"visits"`
	Interventions *[]*models.Intervention `json:"interventions"`
}

// Restore upserts every record of a JSON backup into the store. All
// three sections must be present or the whole restore is rejected with
// a structural error; individual rows are trusted (the document is
// self-produced). Writes are sequential, so a mid-restore failure
// leaves a committed prefix.
func (e *Engine) Restore(text []byte) (*RestoreReport, error) {
	var env restoreEnvelope
	if err := json.Unmarshal(text, &env); err != nil {
		return nil, &StructuralError{Msg: fmt.Sprintf("invalid backup: %v", err)}
	}
	if env.Patients == nil || env.Visits == nil || env.Interventions == nil {
		return nil, &StructuralError{Msg: "invalid backup: missing sections"}
	}

	report := &RestoreReport{}
	if env.SchemaVersion != "" && env.SchemaVersion != models.SchemaVersion {
		report.Warning = fmt.Sprintf("schema version %q differs from %q; importing anyway", env.SchemaVersion, models.SchemaVersion)
	}

	for _, p := range *env.Patients {
		if err := e.repo.PutPatient(p); err != nil {
			return report, fmt.Errorf("restore patients: %w", err)
		}
		e.view.ApplyPatient(p)
		report.Patients++
	}
	for _, v := range *env.Visits {
		if err := e.repo.PutVisit(v); err != nil {
			return report, fmt.Errorf("restore visits: %w", err)
		}
		e.view.ApplyVisit(v)
		report.Visits++
	}
	for _, i := range *env.Interventions {
		if err := e.repo.PutIntervention(i); err != nil {
			return report, fmt.Errorf("restore interventions: %w", err)
		}
		e.view.ApplyIntervention(i)
		report.Interventions++
	}
	return report, nil
}
