// ABOUTME: Visit model and visit ID generation.
// ABOUTME: Visit IDs embed patient and date so exports stay greppable.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Visit is one dated follow-up encounter for a patient.
//
// StratVars, CMOScore and PriorityLevel are snapshotted from the owning
// patient at save time; the level is always engine-derived, never
// edited by hand.
type Visit struct {
	VisitID               string            `json:"visitId"`
	PatientID             string            `json:"patientId"`
	Date                  string            `json:"date"`
	HospitalDrug          *string           `json:"hospitalDrug"`
	LDL                   *float64          `json:"ldl"`
	LDLTarget             *float64          `json:"ldlTarget"`
	LDLGoalAchieved       *bool             `json:"ldlGoalAchieved"`
	Treatment             *string           `json:"treatment"`
	Adherence             *string           `json:"adherence"`
	RAM                   *string           `json:"ram"`
	StratVars             map[string]string `json:"stratVars,omitempty"`
	CMOScore              int               `json:"cmoScore"`
	PriorityLevel         int               `json:"priorityLevel"`
	PriorityJustification *string           `json:"priorityJustification"`
	OFTObjectives         *string           `json:"oftObjectives"`
	FollowUpPlan          *string           `json:"followUpPlan"`
	CreatedAt             string            `json:"createdAt"`
	SchemaVersion         string            `json:"schemaVersion"`
}

// NewVisitID builds a visit primary key of the form
// V-{patientId}-{date}-{random}. The random suffix keeps same-day
// repeat visits unique.
func NewVisitID(patientID, dateISO string) string {
	return fmt.Sprintf("V-%s-%s-%s", patientID, dateISO, randomSuffix())
}

// NewVisit creates a visit for the given patient and ISO date with a
// generated ID and the current timestamp.
func NewVisit(patientID, dateISO string) *Visit {
	return &Visit{
		VisitID:       NewVisitID(patientID, dateISO),
		PatientID:     patientID,
		Date:          dateISO,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		SchemaVersion: SchemaVersion,
	}
}

// randomSuffix returns a short random hex slug for record IDs.
func randomSuffix() string {
	id := uuid.New()
	return id.String()[:6]
}
