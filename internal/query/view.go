// ABOUTME: In-memory derived views over the entity store.
// ABOUTME: Owns the cache the presentation layer reads; never ambient.
package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/farmahosp/cmoreg/internal/models"
	"github.com/farmahosp/cmoreg/internal/storage"
)

// View is an explicit in-memory mirror of the three collections. It is
// loaded once via Refresh and kept current by the Apply/Remove hooks
// callers invoke after each committed store write.
type View struct {
	patients      []*models.Patient
	visits        []*models.Visit
	interventions []*models.Intervention
}

// NewView returns an empty view.
func NewView() *View {
	return &View{}
}

// Load builds a view from the current store state.
func Load(repo storage.Repository) (*View, error) {
	v := NewView()
	if err := v.Refresh(repo); err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh reloads the whole view from the store.
func (w *View) Refresh(repo storage.Repository) error {
	patients, err := repo.GetAllPatients()
	if err != nil {
		return err
	}
	visits, err := repo.GetAllVisits()
	if err != nil {
		return err
	}
	interventions, err := repo.GetAllInterventions()
	if err != nil {
		return err
	}
	w.patients = patients
	w.visits = visits
	w.interventions = interventions
	return nil
}

// ApplyPatient upserts a patient into the view after a committed put.
func (w *View) ApplyPatient(p *models.Patient) {
	for i, existing := range w.patients {
		if existing.PatientID == p.PatientID {
			w.patients[i] = p
			return
		}
	}
	w.patients = append(w.patients, p)
}

// ApplyVisit upserts a visit into the view after a committed put.
func (w *View) ApplyVisit(v *models.Visit) {
	for i, existing := range w.visits {
		if existing.VisitID == v.VisitID {
			w.visits[i] = v
			return
		}
	}
	w.visits = append(w.visits, v)
}

// ApplyIntervention upserts an intervention after a committed put.
func (w *View) ApplyIntervention(iv *models.Intervention) {
	for i, existing := range w.interventions {
		if existing.InterventionID == iv.InterventionID {
			w.interventions[i] = iv
			return
		}
	}
	w.interventions = append(w.interventions, iv)
}

// RemovePatient drops a patient and its dependents from the view,
// mirroring the store cascade.
func (w *View) RemovePatient(patientID string) {
	w.patients = filterPatients(w.patients, func(p *models.Patient) bool {
		return p.PatientID != patientID
	})
	w.visits = filterVisits(w.visits, func(v *models.Visit) bool {
		return v.PatientID != patientID
	})
	w.interventions = filterInterventions(w.interventions, func(i *models.Intervention) bool {
		return i.PatientID != patientID
	})
}

// RemoveVisit drops a visit and its interventions from the view.
func (w *View) RemoveVisit(visitID string) {
	w.visits = filterVisits(w.visits, func(v *models.Visit) bool {
		return v.VisitID != visitID
	})
	w.interventions = filterInterventions(w.interventions, func(i *models.Intervention) bool {
		return i.VisitID != visitID
	})
}

// Patients returns every patient in the view.
func (w *View) Patients() []*models.Patient {
	return w.patients
}

// FindPatient returns the patient with the given ID, or nil.
func (w *View) FindPatient(patientID string) *models.Patient {
	for _, p := range w.patients {
		if p.PatientID == patientID {
			return p
		}
	}
	return nil
}

// FindVisit returns the visit with the given ID, or nil.
func (w *View) FindVisit(visitID string) *models.Visit {
	for _, v := range w.visits {
		if v.VisitID == visitID {
			return v
		}
	}
	return nil
}

// FindIntervention returns the intervention with the given ID, or nil.
func (w *View) FindIntervention(interventionID string) *models.Intervention {
	for _, i := range w.interventions {
		if i.InterventionID == interventionID {
			return i
		}
	}
	return nil
}

// VisitsFor returns a patient's visits sorted most recent first.
// Date strings are ISO, so lexicographic order is chronological. Equal
// dates break deterministically: later CreatedAt wins, then the
// lexicographically greater VisitID.
func (w *View) VisitsFor(patientID string) []*models.Visit {
	var visits []*models.Visit
	for _, v := range w.visits {
		if v.PatientID == patientID {
			visits = append(visits, v)
		}
	}
	sort.Slice(visits, func(i, j int) bool {
		if visits[i].Date != visits[j].Date {
			return visits[i].Date > visits[j].Date
		}
		if visits[i].CreatedAt != visits[j].CreatedAt {
			return visits[i].CreatedAt > visits[j].CreatedAt
		}
		return visits[i].VisitID > visits[j].VisitID
	})
	return visits
}

// MostRecentVisit returns the patient's latest visit, or nil.
func (w *View) MostRecentVisit(patientID string) *models.Visit {
	visits := w.VisitsFor(patientID)
	if len(visits) == 0 {
		return nil
	}
	return visits[0]
}

// InterventionsForPatient returns a patient's interventions, order
// unspecified.
func (w *View) InterventionsForPatient(patientID string) []*models.Intervention {
	var out []*models.Intervention
	for _, i := range w.interventions {
		if i.PatientID == patientID {
			out = append(out, i)
		}
	}
	return out
}

// InterventionsForVisit returns a visit's interventions, order
// unspecified.
func (w *View) InterventionsForVisit(visitID string) []*models.Intervention {
	var out []*models.Intervention
	for _, i := range w.interventions {
		if i.VisitID == visitID {
			out = append(out, i)
		}
	}
	return out
}

// Stats are the aggregate counts shown on the dashboard.
type Stats struct {
	Patients      int
	Active        int
	WithVisits    int
	Visits        int
	Interventions int
}

// Stats computes aggregate counts from the view.
func (w *View) Stats() Stats {
	s := Stats{
		Patients:      len(w.patients),
		Visits:        len(w.visits),
		Interventions: len(w.interventions),
	}
	for _, p := range w.patients {
		if p.IsActive() {
			s.Active++
		}
		if w.MostRecentVisit(p.PatientID) != nil {
			s.WithVisits++
		}
	}
	return s
}

// SearchPatients filters patients by a free-text query (matched
// case-insensitively against ID, condition, sex, comorbidities, notes,
// and the latest LDL) and an exact prevalent-condition filter. Empty
// arguments match everything.
func (w *View) SearchPatients(q, condition string) []*models.Patient {
	q = strings.ToLower(q)
	var out []*models.Patient
	for _, p := range w.patients {
		if condition != "" && p.PrevalentCondition != condition {
			continue
		}
		if q != "" && !w.matchesSearch(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (w *View) matchesSearch(p *models.Patient, q string) bool {
	fields := []string{p.PatientID, p.PrevalentCondition, p.Sex}
	if p.Comorbidities != nil {
		fields = append(fields, *p.Comorbidities)
	}
	if p.Notes != nil {
		fields = append(fields, *p.Notes)
	}
	if last := w.MostRecentVisit(p.PatientID); last != nil && last.LDL != nil {
		fields = append(fields, trimFloat(*last.LDL))
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func filterPatients(in []*models.Patient, keep func(*models.Patient) bool) []*models.Patient {
	out := in[:0]
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func filterVisits(in []*models.Visit, keep func(*models.Visit) bool) []*models.Visit {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func filterInterventions(in []*models.Intervention, keep func(*models.Intervention) bool) []*models.Intervention {
	out := in[:0]
	for _, i := range in {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}
