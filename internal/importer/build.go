// ABOUTME: Converts validated CSV fields into typed entity records.
// ABOUTME: Fills defaults for createdAt and schemaVersion when absent.
package importer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/farmahosp/cmoreg/internal/models"
)

func buildPatient(clean map[string]string) (*models.Patient, error) {
	p := &models.Patient{
		PatientID:          clean["patientId"],
		PrevalentCondition: clean["prevalentCondition"],
		Sex:                clean["sex"],
		Comorbidities:      optString(clean["comorbidities"]),
		Notes:              optString(clean["notes"]),
		Status:             clean["status"],
		StratVars:          map[string]string{},
		CreatedAt:          clean["createdAt"],
		SchemaVersion:      clean["schemaVersion"],
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}
	fillStamps(&p.CreatedAt, &p.SchemaVersion)

	if s := clean["birthYear"]; s != "" {
		n, err := ParseNumber(s)
		if err != nil {
			return nil, err
		}
		year := int(n)
		p.BirthYear = &year
	}
	if s := clean["stratVars"]; s != "" {
		if err := json.Unmarshal([]byte(s), &p.StratVars); err != nil {
			return nil, fmt.Errorf("stratVars: invalid JSON")
		}
	}
	p.CMOScore = optInt(clean["cmoScore"])
	p.PriorityLevel = optInt(clean["priorityLevel"])
	if p.PriorityLevel == 0 {
		p.PriorityLevel = 3
	}
	return p, nil
}

func buildVisit(clean map[string]string) (*models.Visit, error) {
	v := &models.Visit{
		VisitID:               clean["visitId"],
		PatientID:             clean["patientId"],
		Date:                  clean["date"],
		HospitalDrug:          optString(clean["hospitalDrug"]),
		Treatment:             optString(clean["treatment"]),
		Adherence:             optString(clean["adherence"]),
		RAM:                   optString(clean["ram"]),
		StratVars:             map[string]string{},
		PriorityJustification: optString(clean["priorityJustification"]),
		OFTObjectives:         optString(clean["oftObjectives"]),
		FollowUpPlan:          optString(clean["followUpPlan"]),
		CreatedAt:             clean["createdAt"],
		SchemaVersion:         clean["schemaVersion"],
	}
	fillStamps(&v.CreatedAt, &v.SchemaVersion)

	for key, dst := range map[string]**float64{"ldl": &v.LDL, "ldlTarget": &v.LDLTarget} {
		if s := clean[key]; s != "" {
			n, err := ParseNumber(s)
			if err != nil {
				return nil, err
			}
			*dst = &n
		}
	}
	if s := clean["ldlGoalAchieved"]; s != "" {
		b, err := ParseBool(s)
		if err != nil {
			return nil, err
		}
		v.LDLGoalAchieved = &b
	}
	if s := clean["stratVars"]; s != "" {
		if err := json.Unmarshal([]byte(s), &v.StratVars); err != nil {
			return nil, fmt.Errorf("stratVars: invalid JSON")
		}
	}
	v.CMOScore = optInt(clean["cmoScore"])
	v.PriorityLevel = optInt(clean["priorityLevel"])
	if v.PriorityLevel == 0 {
		v.PriorityLevel = 3
	}
	return v, nil
}

func buildIntervention(clean map[string]string) *models.Intervention {
	i := &models.Intervention{
		InterventionID: clean["interventionId"],
		PatientID:      clean["patientId"],
		VisitID:        clean["visitId"],
		Type:           clean["type"],
		CMODimension:   clean["cmoDimension"],
		Description:    clean["description"],
		Status:         clean["status"],
		OutcomeNotes:   optString(clean["outcomeNotes"]),
		CreatedAt:      clean["createdAt"],
		SchemaVersion:  clean["schemaVersion"],
	}
	if i.Type == "" {
		i.Type = models.InterventionTypeCMO
	}
	fillStamps(&i.CreatedAt, &i.SchemaVersion)
	return i
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := ParseNumber(s)
	if err != nil {
		return 0
	}
	return int(n)
}

func fillStamps(createdAt, schemaVersion *string) {
	if *createdAt == "" {
		*createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	if *schemaVersion == "" {
		*schemaVersion = models.SchemaVersion
	}
}
