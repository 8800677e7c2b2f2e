// ABOUTME: Import reconciliation engine: prepare, apply, cancel.
// ABOUTME: Validates, classifies create-vs-update, and stages batches.
package importer

import (
	"fmt"

	"github.com/farmahosp/cmoreg/internal/models"
	"github.com/farmahosp/cmoreg/internal/query"
	"github.com/farmahosp/cmoreg/internal/scoring"
	"github.com/farmahosp/cmoreg/internal/storage"
)

// StructuralError marks whole-file failures (missing required columns,
// a backup without its sections). Nothing is staged when one occurs,
// and callers report it apart from row-level errors.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string {
	return e.Msg
}

// ErrNoPendingBatch is returned by Apply when nothing is staged for
// the requested kind.
var ErrNoPendingBatch = fmt.Errorf("no pending import batch")

// Batch is a validated set of rows staged for one entity kind.
type Batch struct {
	Kind          Kind
	Patients      []*models.Patient
	Visits        []*models.Visit
	Interventions []*models.Intervention
}

// Len returns the number of staged records.
func (b *Batch) Len() int {
	return len(b.Patients) + len(b.Visits) + len(b.Interventions)
}

// Report summarizes a prepare pass. Created and Updated are
// informational: both classes become a put at apply time.
type Report struct {
	Kind         Kind
	Valid        int
	Created      int
	Updated      int
	Errors       []string
	ExtraColumns []string
}

// Engine stages and commits CSV imports against the store. One batch
// is held per entity kind; preparing a new import for a kind discards
// the previous unapplied one.
type Engine struct {
	repo    storage.Repository
	view    *query.View
	scorer  *scoring.Engine
	pending map[Kind]*Batch
}

// NewEngine builds an import engine over the store and its view. The
// scorer recomputes score and priority for imported rows that carry
// stratification selections.
func NewEngine(repo storage.Repository, view *query.View, scorer *scoring.Engine) *Engine {
	return &Engine{
		repo:    repo,
		view:    view,
		scorer:  scorer,
		pending: make(map[Kind]*Batch),
	}
}

// Pending returns the staged batch for a kind, or nil.
func (e *Engine) Pending(kind Kind) *Batch {
	return e.pending[kind]
}

// PrepareCSV parses, validates, and classifies CSV text for the given
// kind, staging the valid rows. The store is not touched. A
// *StructuralError return means nothing was staged; row-level problems
// are collected in the report instead, and the rest of the file still
// stages.
func (e *Engine) PrepareCSV(kind Kind, text string) (*Report, error) {
	schema := SchemaFor(kind)

	table, err := ParseCSV(text)
	if err != nil {
		return nil, &StructuralError{Msg: err.Error()}
	}

	if missing := missingColumns(schema, table.Headers); len(missing) > 0 {
		return nil, &StructuralError{
			Msg: fmt.Sprintf("missing required columns: %v", missing),
		}
	}

	report := &Report{
		Kind:         kind,
		ExtraColumns: extraColumns(schema, table.Headers),
	}
	batch := &Batch{Kind: kind}
	seen := make(map[string]bool)

	for _, row := range table.Rows {
		clean, problems := validateRow(schema, row)
		if len(problems) == 0 {
			problems = e.checkReferences(kind, row.Number, clean)
		}
		if len(problems) > 0 {
			report.Errors = append(report.Errors, problems...)
			continue
		}

		key, err := e.stageRecord(batch, kind, clean)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", row.Number, err))
			continue
		}

		// A key already in the store, or already seen earlier in this
		// file, counts as an update: the later put overwrites.
		if e.keyExists(kind, key) || seen[key] {
			report.Updated++
		} else {
			report.Created++
		}
		seen[key] = true
		report.Valid++
	}

	// Replace any prior pending batch for this kind.
	e.pending[kind] = batch
	return report, nil
}

// Apply commits the staged batch for a kind: every record is written
// via put in order, each write awaited before the next, so a failure
// leaves a well-defined prefix committed. The view is updated record
// by record alongside the store. The slot is cleared on success.
func (e *Engine) Apply(kind Kind) (int, error) {
	batch := e.pending[kind]
	if batch == nil {
		return 0, ErrNoPendingBatch
	}

	applied := 0
	for _, p := range batch.Patients {
		if err := e.repo.PutPatient(p); err != nil {
			return applied, fmt.Errorf("apply patients: %w", err)
		}
		e.view.ApplyPatient(p)
		applied++
	}
	for _, v := range batch.Visits {
		if err := e.repo.PutVisit(v); err != nil {
			return applied, fmt.Errorf("apply visits: %w", err)
		}
		e.view.ApplyVisit(v)
		applied++
	}
	for _, i := range batch.Interventions {
		if err := e.repo.PutIntervention(i); err != nil {
			return applied, fmt.Errorf("apply interventions: %w", err)
		}
		e.view.ApplyIntervention(i)
		applied++
	}

	delete(e.pending, kind)
	return applied, nil
}

// Cancel discards the staged batch for a kind without touching the
// store. It reports whether a batch was pending.
func (e *Engine) Cancel(kind Kind) bool {
	if _, ok := e.pending[kind]; !ok {
		return false
	}
	delete(e.pending, kind)
	return true
}

// checkReferences enforces referential integrity for visits and
// interventions against the store plus any staged batches.
func (e *Engine) checkReferences(kind Kind, rowNum int, clean map[string]string) []string {
	var problems []string
	switch kind {
	case KindVisits:
		if !e.patientResolvable(clean["patientId"]) {
			problems = append(problems, fmt.Sprintf("row %d: patientId %q matches no existing or staged patient", rowNum, clean["patientId"]))
		}
	case KindInterventions:
		if !e.patientResolvable(clean["patientId"]) {
			problems = append(problems, fmt.Sprintf("row %d: patientId %q matches no existing or staged patient", rowNum, clean["patientId"]))
		}
		if !e.visitResolvable(clean["visitId"]) {
			problems = append(problems, fmt.Sprintf("row %d: visitId %q matches no existing or staged visit", rowNum, clean["visitId"]))
		}
		// Cross-field catalog check: the description must belong to the
		// row's dimension.
		if err := models.ValidateCatalogEntry(clean["cmoDimension"], clean["description"]); err != nil {
			problems = append(problems, fmt.Sprintf("row %d: %v", rowNum, err))
		}
	}
	return problems
}

func (e *Engine) patientResolvable(patientID string) bool {
	if e.view.FindPatient(patientID) != nil {
		return true
	}
	if staged := e.pending[KindPatients]; staged != nil {
		for _, p := range staged.Patients {
			if p.PatientID == patientID {
				return true
			}
		}
	}
	return false
}

func (e *Engine) visitResolvable(visitID string) bool {
	if e.view.FindVisit(visitID) != nil {
		return true
	}
	if staged := e.pending[KindVisits]; staged != nil {
		for _, v := range staged.Visits {
			if v.VisitID == visitID {
				return true
			}
		}
	}
	return false
}

func (e *Engine) keyExists(kind Kind, key string) bool {
	switch kind {
	case KindPatients:
		return e.view.FindPatient(key) != nil
	case KindVisits:
		return e.view.FindVisit(key) != nil
	default:
		return e.view.FindIntervention(key) != nil
	}
}

// stageRecord converts validated fields into the typed record and
// appends it to the batch, returning the record's primary key.
func (e *Engine) stageRecord(batch *Batch, kind Kind, clean map[string]string) (string, error) {
	switch kind {
	case KindPatients:
		p, err := buildPatient(clean)
		if err != nil {
			return "", err
		}
		// Selections are authoritative over any score columns in the
		// file; without them the file values stand.
		if len(p.StratVars) > 0 {
			p.CMOScore, p.PriorityLevel = e.scorer.Evaluate(p.StratVars)
		}
		batch.Patients = append(batch.Patients, p)
		return p.PatientID, nil
	case KindVisits:
		v, err := buildVisit(clean)
		if err != nil {
			return "", err
		}
		if len(v.StratVars) > 0 {
			v.CMOScore, v.PriorityLevel = e.scorer.Evaluate(v.StratVars)
		}
		batch.Visits = append(batch.Visits, v)
		return v.VisitID, nil
	default:
		i := buildIntervention(clean)
		batch.Interventions = append(batch.Interventions, i)
		return i.InterventionID, nil
	}
}
