// ABOUTME: CSV export per collection in standard and locale variants.
// ABOUTME: Column orders come from the import schemas, so trips round.
package importer

import (
	"encoding/json"
	"strconv"

	"github.com/farmahosp/cmoreg/internal/models"
)

// ExportCSV renders the named collection as CSV. Standard variant is
// comma/LF; locale is semicolon/CRLF with a UTF-8 BOM for Spanish
// Excel.
func (e *Engine) ExportCSV(kind Kind, locale bool) string {
	schema := SchemaFor(kind)
	var rows []map[string]string

	switch kind {
	case KindPatients:
		for _, p := range e.view.Patients() {
			rows = append(rows, patientRow(p))
		}
	case KindVisits:
		for _, p := range e.view.Patients() {
			for _, v := range e.view.VisitsFor(p.PatientID) {
				rows = append(rows, visitRow(v))
			}
		}
	default:
		for _, p := range e.view.Patients() {
			for _, i := range e.view.InterventionsForPatient(p.PatientID) {
				rows = append(rows, interventionRow(i))
			}
		}
	}

	return WriteCSV(schema.Headers(), rows, locale)
}

func patientRow(p *models.Patient) map[string]string {
	return map[string]string{
		"patientId":          p.PatientID,
		"prevalentCondition": p.PrevalentCondition,
		"sex":                p.Sex,
		"birthYear":          intPtrField(p.BirthYear),
		"comorbidities":      strPtrField(p.Comorbidities),
		"notes":              strPtrField(p.Notes),
		"status":             p.Status,
		"stratVars":          stratVarsField(p.StratVars),
		"cmoScore":           strconv.Itoa(p.CMOScore),
		"priorityLevel":      strconv.Itoa(p.PriorityLevel),
		"createdAt":          p.CreatedAt,
		"schemaVersion":      p.SchemaVersion,
	}
}

func visitRow(v *models.Visit) map[string]string {
	return map[string]string{
		"visitId":               v.VisitID,
		"patientId":             v.PatientID,
		"date":                  v.Date,
		"hospitalDrug":          strPtrField(v.HospitalDrug),
		"ldl":                   floatPtrField(v.LDL),
		"ldlTarget":             floatPtrField(v.LDLTarget),
		"ldlGoalAchieved":       boolPtrField(v.LDLGoalAchieved),
		"treatment":             strPtrField(v.Treatment),
		"adherence":             strPtrField(v.Adherence),
		"ram":                   strPtrField(v.RAM),
		"stratVars":             stratVarsField(v.StratVars),
		"cmoScore":              strconv.Itoa(v.CMOScore),
		"priorityLevel":         strconv.Itoa(v.PriorityLevel),
		"priorityJustification": strPtrField(v.PriorityJustification),
		"oftObjectives":         strPtrField(v.OFTObjectives),
		"followUpPlan":          strPtrField(v.FollowUpPlan),
		"createdAt":             v.CreatedAt,
		"schemaVersion":         v.SchemaVersion,
	}
}

func interventionRow(i *models.Intervention) map[string]string {
	return map[string]string{
		"interventionId": i.InterventionID,
		"patientId":      i.PatientID,
		"visitId":        i.VisitID,
		"type":           i.Type,
		"cmoDimension":   i.CMODimension,
		"description":    i.Description,
		"status":         i.Status,
		"outcomeNotes":   strPtrField(i.OutcomeNotes),
		"createdAt":      i.CreatedAt,
		"schemaVersion":  i.SchemaVersion,
	}
}

func strPtrField(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intPtrField(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func floatPtrField(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func boolPtrField(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "true"
	}
	return "false"
}

func stratVarsField(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(data)
}
