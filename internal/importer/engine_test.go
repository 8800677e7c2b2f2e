// ABOUTME: Tests for the import staging engine: prepare/apply/cancel,
// ABOUTME: create-vs-update classification, and referential checks.
package importer

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/farmahosp/cmoreg/internal/models"
	"github.com/farmahosp/cmoreg/internal/query"
	"github.com/farmahosp/cmoreg/internal/scoring"
	"github.com/farmahosp/cmoreg/internal/storage"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	view, err := query.Load(db)
	if err != nil {
		t.Fatalf("failed to load view: %v", err)
	}
	return NewEngine(db, view, scoring.NewDefaultEngine())
}

func seedPatient(t *testing.T, e *Engine, id string) *models.Patient {
	t.Helper()
	p := models.NewPatient(id, "Dislipemia")
	if err := e.repo.PutPatient(p); err != nil {
		t.Fatalf("failed to seed patient: %v", err)
	}
	e.view.ApplyPatient(p)
	return p
}

func TestPrepareClassifiesCreatedAndUpdated(t *testing.T) {
	e := setupEngine(t)
	seedPatient(t, e, "P001")

	csv := "patientId,prevalentCondition\nP001,VIH\nP002,Dislipemia\n"
	report, err := e.PrepareCSV(KindPatients, csv)
	if err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	if report.Valid != 2 || report.Created != 1 || report.Updated != 1 {
		t.Errorf("valid/created/updated = %d/%d/%d, want 2/1/1", report.Valid, report.Created, report.Updated)
	}
	if len(report.Errors) != 0 {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
}

func TestPrepareDuplicateKeyInSameFile(t *testing.T) {
	e := setupEngine(t)

	// Store is empty: the second occurrence of P001 is still an update.
	csv := "patientId,prevalentCondition\nP001,VIH\nP001,Dislipemia\n"
	report, err := e.PrepareCSV(KindPatients, csv)
	if err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	if report.Created != 1 || report.Updated != 1 {
		t.Errorf("created/updated = %d/%d, want 1/1", report.Created, report.Updated)
	}
}

func TestPrepareRecomputesScoreFromStratVars(t *testing.T) {
	e := setupEngine(t)

	// Score columns in the file lose to the selections: embarazo=si
	// scores 4 points and forces priority level 1.
	csv := "patientId,prevalentCondition,stratVars,cmoScore,priorityLevel\n" +
		"P001,VIH,\"{\"\"embarazo\"\":\"\"si\"\"}\",99,3\n"
	if _, err := e.PrepareCSV(KindPatients, csv); err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	p := e.Pending(KindPatients).Patients[0]
	if p.CMOScore != 4 || p.PriorityLevel != 1 {
		t.Errorf("score/level = %d/%d, want 4/1", p.CMOScore, p.PriorityLevel)
	}
}

func TestPrepareRecomputesVisitScoreFromStratVars(t *testing.T) {
	e := setupEngine(t)
	seedPatient(t, e, "P001")

	csv := "visitId,patientId,date,stratVars,cmoScore,priorityLevel\n" +
		"V1,P001,2025-03-15,\"{\"\"embarazo\"\":\"\"si\"\"}\",99,3\n"
	if _, err := e.PrepareCSV(KindVisits, csv); err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	v := e.Pending(KindVisits).Visits[0]
	if v.CMOScore != 4 || v.PriorityLevel != 1 {
		t.Errorf("score/level = %d/%d, want 4/1", v.CMOScore, v.PriorityLevel)
	}
}

func TestPrepareTrustsScoreWithoutStratVars(t *testing.T) {
	e := setupEngine(t)

	csv := "patientId,prevalentCondition,cmoScore,priorityLevel\nP001,VIH,12,2\n"
	if _, err := e.PrepareCSV(KindPatients, csv); err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	p := e.Pending(KindPatients).Patients[0]
	if p.CMOScore != 12 || p.PriorityLevel != 2 {
		t.Errorf("score/level = %d/%d, want 12/2", p.CMOScore, p.PriorityLevel)
	}
}

func TestPrepareMissingRequiredColumnStagesNothing(t *testing.T) {
	e := setupEngine(t)

	_, err := e.PrepareCSV(KindPatients, "patientId,notes\nP001,hola\n")
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if !strings.Contains(structural.Msg, "prevalentCondition") {
		t.Errorf("error should name the missing column: %v", structural.Msg)
	}
	if e.Pending(KindPatients) != nil {
		t.Error("structural failure must not stage a batch")
	}
}

func TestPrepareRowErrorsSkipOnlyBadRows(t *testing.T) {
	e := setupEngine(t)

	csv := "patientId,prevalentCondition,birthYear\nP001,VIH,1980\nP002,Dislipemia,not-a-number\n,VIH,\n"
	report, err := e.PrepareCSV(KindPatients, csv)
	if err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	if report.Valid != 1 {
		t.Errorf("valid = %d, want 1", report.Valid)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", report.Errors)
	}
	if !strings.HasPrefix(report.Errors[0], "row 3:") {
		t.Errorf("row errors should carry 1-based row numbers counting the header: %q", report.Errors[0])
	}
	if e.Pending(KindPatients).Len() != 1 {
		t.Errorf("only the valid row should be staged")
	}
}

func TestPrepareReportsExtraColumns(t *testing.T) {
	e := setupEngine(t)

	csv := "patientId,prevalentCondition,favoriteColor\nP001,VIH,azul\n"
	report, err := e.PrepareCSV(KindPatients, csv)
	if err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	if report.Valid != 1 {
		t.Errorf("extra columns must not fail rows; valid = %d", report.Valid)
	}
	if len(report.ExtraColumns) != 1 || report.ExtraColumns[0] != "favoriteColor" {
		t.Errorf("extra columns = %v, want [favoriteColor]", report.ExtraColumns)
	}
}

func TestVisitImportRequiresResolvablePatient(t *testing.T) {
	e := setupEngine(t)

	csv := "visitId,patientId,date\nV1,P404,2025-03-01\n"
	report, err := e.PrepareCSV(KindVisits, csv)
	if err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	if report.Valid != 0 || len(report.Errors) != 1 {
		t.Fatalf("unknown patient should fail the row: %+v", report)
	}
	if !strings.Contains(report.Errors[0], "P404") {
		t.Errorf("error should name the missing patient: %q", report.Errors[0])
	}

	// After staging the patient, the same visit rows pass: references
	// resolve against the store or the pending batches.
	if _, err := e.PrepareCSV(KindPatients, "patientId,prevalentCondition\nP404,VIH\n"); err != nil {
		t.Fatalf("PrepareCSV patients failed: %v", err)
	}
	report, err = e.PrepareCSV(KindVisits, csv)
	if err != nil {
		t.Fatalf("PrepareCSV visits failed: %v", err)
	}
	if report.Valid != 1 {
		t.Errorf("staged patient should satisfy the reference: %+v", report)
	}
}

func TestInterventionImportChecksCatalogAndReferences(t *testing.T) {
	e := setupEngine(t)
	p := seedPatient(t, e, "P001")
	v := models.NewVisit(p.PatientID, "2025-03-01")
	if err := e.repo.PutVisit(v); err != nil {
		t.Fatalf("failed to seed visit: %v", err)
	}
	e.view.ApplyVisit(v)

	header := "interventionId,patientId,visitId,cmoDimension,description,status\n"
	good := "I1,P001," + v.VisitID + ",Capacidad,Educación sobre enfermedad,pending\n"
	badDesc := "I2,P001," + v.VisitID + ",Capacidad,Receta mágica,pending\n"
	badVisit := "I3,P001,V404,Capacidad,Educación sobre enfermedad,pending\n"

	report, err := e.PrepareCSV(KindInterventions, header+good+badDesc+badVisit)
	if err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	if report.Valid != 1 || len(report.Errors) != 2 {
		t.Fatalf("expected 1 valid and 2 errors, got %+v", report)
	}
}

func TestPrepareNormalizesDatesAndDecimalCommas(t *testing.T) {
	e := setupEngine(t)
	seedPatient(t, e, "P001")

	csv := "visitId,patientId,date,ldl\nV1,P001,15/03/2025,\"120,5\"\n"
	report, err := e.PrepareCSV(KindVisits, csv)
	if err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	if report.Valid != 1 {
		t.Fatalf("row should be valid: %+v", report)
	}
	batch := e.Pending(KindVisits)
	if batch.Visits[0].Date != "2025-03-15" {
		t.Errorf("date = %q, want 2025-03-15", batch.Visits[0].Date)
	}
	if batch.Visits[0].LDL == nil || *batch.Visits[0].LDL != 120.5 {
		t.Errorf("ldl = %v, want 120.5", batch.Visits[0].LDL)
	}
}

func TestApplyCommitsAndClearsBatch(t *testing.T) {
	e := setupEngine(t)

	csv := "patientId,prevalentCondition\nP001,VIH\nP002,Dislipemia\n"
	if _, err := e.PrepareCSV(KindPatients, csv); err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	n, err := e.Apply(KindPatients)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if n != 2 {
		t.Errorf("applied = %d, want 2", n)
	}
	if e.Pending(KindPatients) != nil {
		t.Error("apply should clear the pending slot")
	}

	// The store and the view both see the new rows.
	stored, err := e.repo.GetAllPatients()
	if err != nil {
		t.Fatalf("GetAllPatients failed: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("store has %d patients, want 2", len(stored))
	}
	if e.view.FindPatient("P002") == nil {
		t.Error("view should reflect applied rows")
	}
}

func TestApplyWithoutPrepare(t *testing.T) {
	e := setupEngine(t)
	if _, err := e.Apply(KindPatients); !errors.Is(err, ErrNoPendingBatch) {
		t.Errorf("expected ErrNoPendingBatch, got %v", err)
	}
}

func TestCancelDiscardsBatch(t *testing.T) {
	e := setupEngine(t)

	if _, err := e.PrepareCSV(KindPatients, "patientId,prevalentCondition\nP001,VIH\n"); err != nil {
		t.Fatalf("PrepareCSV failed: %v", err)
	}
	if !e.Cancel(KindPatients) {
		t.Error("cancel should report a discarded batch")
	}
	if e.Pending(KindPatients) != nil {
		t.Error("cancel should clear the pending slot")
	}
	if e.Cancel(KindPatients) {
		t.Error("second cancel should report nothing to discard")
	}
	stored, _ := e.repo.GetAllPatients()
	if len(stored) != 0 {
		t.Error("cancelled batch must not touch the store")
	}
}

func TestPrepareReplacesPriorBatch(t *testing.T) {
	e := setupEngine(t)

	if _, err := e.PrepareCSV(KindPatients, "patientId,prevalentCondition\nP001,VIH\n"); err != nil {
		t.Fatalf("first PrepareCSV failed: %v", err)
	}
	if _, err := e.PrepareCSV(KindPatients, "patientId,prevalentCondition\nP009,VIH\n"); err != nil {
		t.Fatalf("second PrepareCSV failed: %v", err)
	}
	batch := e.Pending(KindPatients)
	if batch.Len() != 1 || batch.Patients[0].PatientID != "P009" {
		t.Errorf("second prepare should replace the first batch: %+v", batch)
	}

	n, err := e.Apply(KindPatients)
	if err != nil || n != 1 {
		t.Fatalf("Apply = %d, %v", n, err)
	}
	if e.view.FindPatient("P001") != nil {
		t.Error("replaced batch must never reach the store")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	e := setupEngine(t)
	p := seedPatient(t, e, "P001")
	p.StratVars = map[string]string{"edad": "mayor75", "adherencia": "dudosa"}
	p.Notes = strPtr("línea 1\nlínea 2, con coma")
	if err := e.repo.PutPatient(p); err != nil {
		t.Fatalf("PutPatient failed: %v", err)
	}
	e.view.ApplyPatient(p)

	for _, locale := range []bool{false, true} {
		out := e.ExportCSV(KindPatients, locale)

		dest := setupEngine(t)
		report, err := dest.PrepareCSV(KindPatients, out)
		if err != nil {
			t.Fatalf("PrepareCSV(locale=%v) failed: %v", locale, err)
		}
		if report.Valid != 1 || len(report.Errors) != 0 {
			t.Fatalf("round trip report (locale=%v): %+v", locale, report)
		}
		if _, err := dest.Apply(KindPatients); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}

		got := dest.view.FindPatient("P001")
		if got == nil {
			t.Fatal("patient lost in round trip")
		}
		if got.StratVars["edad"] != "mayor75" || got.StratVars["adherencia"] != "dudosa" {
			t.Errorf("stratVars lost (locale=%v): %v", locale, got.StratVars)
		}
		if got.Notes == nil || *got.Notes != *p.Notes {
			t.Errorf("notes lost (locale=%v): %v", locale, got.Notes)
		}
		if got.PrevalentCondition != p.PrevalentCondition {
			t.Errorf("condition mismatch (locale=%v)", locale)
		}
	}
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	e := setupEngine(t)
	p := seedPatient(t, e, "P001")
	v := models.NewVisit(p.PatientID, "2025-03-01")
	if err := e.repo.PutVisit(v); err != nil {
		t.Fatalf("PutVisit failed: %v", err)
	}
	e.view.ApplyVisit(v)

	data, err := e.BackupJSON()
	if err != nil {
		t.Fatalf("BackupJSON failed: %v", err)
	}
	if stamp, _ := e.repo.GetMeta(storage.MetaLastBackupAt); stamp == "" {
		t.Error("backup should stamp lastBackupAt")
	}

	var doc BackupDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("backup is not valid JSON: %v", err)
	}
	if doc.SchemaVersion != models.SchemaVersion {
		t.Errorf("schemaVersion = %q", doc.SchemaVersion)
	}
	if doc.Interventions == nil {
		t.Error("empty sections should serialize as arrays, not null")
	}

	dest := setupEngine(t)
	report, err := dest.Restore(data)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if report.Patients != 1 || report.Visits != 1 || report.Interventions != 0 {
		t.Errorf("restore counts = %+v", report)
	}
	if report.Warning != "" {
		t.Errorf("unexpected warning: %q", report.Warning)
	}
	if dest.view.FindVisit(v.VisitID) == nil {
		t.Error("restored visit missing from view")
	}
}

func TestRestoreRejectsMissingSections(t *testing.T) {
	e := setupEngine(t)

	_, err := e.Restore([]byte(`{"schemaVersion":"CMO-REGISTRY-1.0","patients":[]}`))
	var structural *StructuralError
	if !errors.As(err, &structural) {
		t.Fatalf("expected structural error, got %v", err)
	}
	stored, _ := e.repo.GetAllPatients()
	if len(stored) != 0 {
		t.Error("rejected restore must not write anything")
	}
}

func TestRestoreVersionMismatchWarnsOnly(t *testing.T) {
	e := setupEngine(t)

	doc := `{"schemaVersion":"CMO-REGISTRY-0.9","patients":[{"patientId":"P001","prevalentCondition":"VIH"}],"visits":[],"interventions":[]}`
	report, err := e.Restore([]byte(doc))
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if report.Warning == "" {
		t.Error("version mismatch should set a warning")
	}
	if report.Patients != 1 {
		t.Errorf("mismatched version must still import: %+v", report)
	}
}

func strPtr(s string) *string { return &s }
