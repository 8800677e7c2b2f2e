// ABOUTME: Tests for derived views: latest visit, filters, stats.
// ABOUTME: Covers the same-date tie-break and cascade mirroring.
package query

import (
	"testing"

	"github.com/farmahosp/cmoreg/internal/models"
)

func seedView() *View {
	w := NewView()
	w.ApplyPatient(models.NewPatient("P001", "Diabetes"))
	w.ApplyPatient(models.NewPatient("P002", "EPOC / Respiratorio"))
	return w
}

func TestMostRecentVisitPicksMaxDate(t *testing.T) {
	w := seedView()

	older := models.NewVisit("P001", "2026-01-10")
	newer := models.NewVisit("P001", "2026-03-05")
	w.ApplyVisit(older)
	w.ApplyVisit(newer)

	got := w.MostRecentVisit("P001")
	if got == nil || got.VisitID != newer.VisitID {
		t.Fatalf("expected the 2026-03-05 visit, got %+v", got)
	}
	if w.MostRecentVisit("P002") != nil {
		t.Error("patient without visits should yield nil")
	}
}

func TestMostRecentVisitSameDateTieBreak(t *testing.T) {
	w := seedView()

	first := models.NewVisit("P001", "2026-03-05")
	first.CreatedAt = "2026-03-05T09:00:00Z"
	second := models.NewVisit("P001", "2026-03-05")
	second.CreatedAt = "2026-03-05T15:30:00Z"

	// Insertion order must not matter.
	w.ApplyVisit(second)
	w.ApplyVisit(first)

	got := w.MostRecentVisit("P001")
	if got == nil || got.VisitID != second.VisitID {
		t.Errorf("later CreatedAt should win the tie, got %+v", got)
	}

	// Identical CreatedAt falls back to visit ID order.
	w2 := seedView()
	a := models.NewVisit("P001", "2026-03-05")
	a.VisitID = "V-P001-2026-03-05-aaaaaa"
	a.CreatedAt = "2026-03-05T09:00:00Z"
	b := models.NewVisit("P001", "2026-03-05")
	b.VisitID = "V-P001-2026-03-05-bbbbbb"
	b.CreatedAt = "2026-03-05T09:00:00Z"
	w2.ApplyVisit(a)
	w2.ApplyVisit(b)
	if got := w2.MostRecentVisit("P001"); got.VisitID != b.VisitID {
		t.Errorf("visit ID tie-break failed, got %s", got.VisitID)
	}
}

func TestApplyVisitUpserts(t *testing.T) {
	w := seedView()
	v := models.NewVisit("P001", "2026-03-05")
	w.ApplyVisit(v)

	updated := *v
	level := 1
	updated.PriorityLevel = level
	w.ApplyVisit(&updated)

	if len(w.VisitsFor("P001")) != 1 {
		t.Fatalf("upsert duplicated the visit")
	}
	if w.MostRecentVisit("P001").PriorityLevel != 1 {
		t.Error("upsert did not replace the record")
	}
}

func TestRemovePatientCascadesInView(t *testing.T) {
	w := seedView()
	v := models.NewVisit("P001", "2026-03-05")
	w.ApplyVisit(v)
	w.ApplyIntervention(models.NewIntervention("P001", v.VisitID, 0,
		"Capacidad", "Educación sobre enfermedad", models.InterventionAccepted))

	w.RemovePatient("P001")

	if w.FindPatient("P001") != nil {
		t.Error("patient still present after removal")
	}
	if len(w.VisitsFor("P001")) != 0 {
		t.Error("visits still present after removal")
	}
	if len(w.InterventionsForPatient("P001")) != 0 {
		t.Error("interventions still present after removal")
	}
	if w.FindPatient("P002") == nil {
		t.Error("unrelated patient lost")
	}
}

func TestInterventionsForVisit(t *testing.T) {
	w := seedView()
	v1 := models.NewVisit("P001", "2026-03-05")
	v2 := models.NewVisit("P001", "2026-04-05")
	w.ApplyVisit(v1)
	w.ApplyVisit(v2)
	w.ApplyIntervention(models.NewIntervention("P001", v1.VisitID, 0,
		"Capacidad", "Educación sobre enfermedad", models.InterventionAccepted))
	w.ApplyIntervention(models.NewIntervention("P001", v2.VisitID, 0,
		"Motivación", "Entrevista motivacional", models.InterventionPending))

	if got := len(w.InterventionsForVisit(v1.VisitID)); got != 1 {
		t.Errorf("expected 1 intervention for v1, got %d", got)
	}
	if got := len(w.InterventionsForPatient("P001")); got != 2 {
		t.Errorf("expected 2 interventions for patient, got %d", got)
	}
}

func TestStats(t *testing.T) {
	w := seedView()
	inactive := models.NewPatient("P003", "Otros")
	inactive.Status = models.StatusInactive
	w.ApplyPatient(inactive)
	w.ApplyVisit(models.NewVisit("P001", "2026-03-05"))

	s := w.Stats()
	if s.Patients != 3 || s.Active != 2 || s.WithVisits != 1 || s.Visits != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestSearchPatients(t *testing.T) {
	w := seedView()
	comorb := "insuficiencia renal"
	p := w.FindPatient("P001")
	p.Comorbidities = &comorb

	if got := len(w.SearchPatients("renal", "")); got != 1 {
		t.Errorf("comorbidity search: got %d", got)
	}
	if got := len(w.SearchPatients("", "Diabetes")); got != 1 {
		t.Errorf("condition filter: got %d", got)
	}
	if got := len(w.SearchPatients("", "")); got != 2 {
		t.Errorf("empty filters should match all: got %d", got)
	}
	if got := len(w.SearchPatients("p00", "")); got != 2 {
		t.Errorf("case-insensitive ID search: got %d", got)
	}
}
