// ABOUTME: Tests for the Badger Repository implementation.
// ABOUTME: Mirrors the SQLite backend contract tests.
package kv

import (
	"path/filepath"
	"testing"

	"github.com/farmahosp/cmoreg/internal/models"
)

func TestDir(t *testing.T) {
	got := Dir("/var/lib/cmoreg")
	want := filepath.Join("/var/lib/cmoreg", "badger")
	if got != want {
		t.Errorf("Dir returned %q, want %q", got, want)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPatientRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	p := models.NewPatient("P001", "Diabetes")
	p.StratVars = map[string]string{"edad": "mayor75"}
	year := 1948
	p.BirthYear = &year

	if err := s.PutPatient(p); err != nil {
		t.Fatalf("PutPatient failed: %v", err)
	}

	all, err := s.GetAllPatients()
	if err != nil {
		t.Fatalf("GetAllPatients failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 patient, got %d", len(all))
	}
	got := all[0]
	if got.PatientID != "P001" || got.StratVars["edad"] != "mayor75" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.BirthYear == nil || *got.BirthYear != 1948 {
		t.Errorf("birth year mismatch: %v", got.BirthYear)
	}
}

func TestPutOverwritesByKey(t *testing.T) {
	s := setupTestStore(t)

	p := models.NewPatient("P001", "Diabetes")
	if err := s.PutPatient(p); err != nil {
		t.Fatalf("PutPatient failed: %v", err)
	}
	p.Status = models.StatusInactive
	if err := s.PutPatient(p); err != nil {
		t.Fatalf("second PutPatient failed: %v", err)
	}

	all, err := s.GetAllPatients()
	if err != nil {
		t.Fatalf("GetAllPatients failed: %v", err)
	}
	if len(all) != 1 || all[0].Status != models.StatusInactive {
		t.Errorf("overwrite not applied: %d records", len(all))
	}
}

func TestCascadeDeletePatient(t *testing.T) {
	s := setupTestStore(t)

	if err := s.PutPatient(models.NewPatient("P001", "Diabetes")); err != nil {
		t.Fatalf("PutPatient failed: %v", err)
	}
	v1 := models.NewVisit("P001", "2026-01-10")
	v2 := models.NewVisit("P001", "2026-02-10")
	for _, v := range []*models.Visit{v1, v2} {
		if err := s.PutVisit(v); err != nil {
			t.Fatalf("PutVisit failed: %v", err)
		}
	}
	for idx, visitID := range []string{v1.VisitID, v1.VisitID, v2.VisitID} {
		i := models.NewIntervention("P001", visitID, idx, "Capacidad", "Educación sobre enfermedad", models.InterventionPending)
		if err := s.PutIntervention(i); err != nil {
			t.Fatalf("PutIntervention failed: %v", err)
		}
	}

	// Unrelated patient survives the cascade.
	if err := s.PutPatient(models.NewPatient("P002", "Otros")); err != nil {
		t.Fatalf("PutPatient failed: %v", err)
	}
	other := models.NewVisit("P002", "2026-01-15")
	if err := s.PutVisit(other); err != nil {
		t.Fatalf("PutVisit failed: %v", err)
	}

	if err := s.DeletePatient("P001"); err != nil {
		t.Fatalf("DeletePatient failed: %v", err)
	}

	visits, _ := s.GetAllVisits()
	if len(visits) != 1 || visits[0].PatientID != "P002" {
		t.Errorf("cascade removed the wrong visits: %d left", len(visits))
	}
	interventions, _ := s.GetAllInterventions()
	if len(interventions) != 0 {
		t.Errorf("expected 0 interventions after cascade, got %d", len(interventions))
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := setupTestStore(t)
	if err := s.DeletePatient("nope"); err != nil {
		t.Errorf("deleting missing patient: %v", err)
	}
	if err := s.DeleteIntervention("nope"); err != nil {
		t.Errorf("deleting missing intervention: %v", err)
	}
}

func TestMeta(t *testing.T) {
	s := setupTestStore(t)

	got, err := s.GetMeta("lastBackupAt")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if got != "" {
		t.Errorf("unset key should be empty, got %q", got)
	}

	if err := s.SetMeta("lastBackupAt", "2026-09-01T12:00:00Z"); err != nil {
		t.Fatalf("SetMeta failed: %v", err)
	}
	got, err = s.GetMeta("lastBackupAt")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if got != "2026-09-01T12:00:00Z" {
		t.Errorf("meta value = %q", got)
	}
}
