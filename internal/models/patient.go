// ABOUTME: Patient model and prevalent-condition catalog.
// ABOUTME: Patients are pseudonymized; the ID is chosen by the clinician.
package models

import (
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is stamped on every record so exports can be matched
// against the schema they were produced under.
const SchemaVersion = "CMO-REGISTRY-1.0"

// Patient statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ConditionList is the configurable catalog of prevalent conditions
// offered at patient creation. The condition is stored as a free
// string, so records with retired conditions stay readable.
var ConditionList = []string{
	"PCSK9 / Dislipemia",
	"Riesgo cardiovascular",
	"Cardiopatía isquémica",
	"Insuficiencia cardiaca",
	"Fibrilación auricular",
	"Hipertensión arterial",
	"EPOC / Respiratorio",
	"Diabetes",
	"Otros",
}

// Patient is a pseudonymized registry entry.
type Patient struct {
	PatientID          string            `json:"patientId"`
	PrevalentCondition string            `json:"prevalentCondition"`
	Sex                string            `json:"sex,omitempty"`
	BirthYear          *int              `json:"birthYear"`
	Comorbidities      *string           `json:"comorbidities"`
	Notes              *string           `json:"notes"`
	Status             string            `json:"status"`
	StratVars          map[string]string `json:"stratVars,omitempty"`
	CMOScore           int               `json:"cmoScore"`
	PriorityLevel      int               `json:"priorityLevel"`
	CreatedAt          string            `json:"createdAt"`
	SchemaVersion      string            `json:"schemaVersion"`
}

// NewPatient creates a patient with defaults and the current timestamp.
// Score and level are zero until the caller runs the score engine over
// the stratification selections.
func NewPatient(patientID, condition string) *Patient {
	return &Patient{
		PatientID:          patientID,
		PrevalentCondition: condition,
		Status:             StatusActive,
		StratVars:          map[string]string{},
		CreatedAt:          time.Now().UTC().Format(time.RFC3339),
		SchemaVersion:      SchemaVersion,
	}
}

// ValidatePatientID checks the pseudonymized ID rules: non-empty, no
// whitespace anywhere.
func ValidatePatientID(id string) error {
	if id == "" {
		return fmt.Errorf("patient ID is required")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		return fmt.Errorf("patient ID must not contain whitespace")
	}
	return nil
}

// ValidateBirthYear checks the 1900..current-year range. A nil year is
// allowed (birth year is optional).
func ValidateBirthYear(year *int) error {
	if year == nil {
		return nil
	}
	if *year < 1900 || *year > time.Now().Year() {
		return fmt.Errorf("birth year %d out of range 1900..%d", *year, time.Now().Year())
	}
	return nil
}

// IsActive reports whether the patient is under active follow-up.
// Anything other than an explicit "inactive" counts as active, matching
// how historical records without a status behave.
func (p *Patient) IsActive() bool {
	return p.Status != StatusInactive
}
