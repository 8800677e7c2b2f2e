// ABOUTME: Intervention model and the fixed CMO catalog.
// ABOUTME: Dimensions and descriptions are data, not code.
package models

import (
	"fmt"
	"time"
)

// Intervention type constant. The registry only records CMO-model
// pharmacist interventions.
const InterventionTypeCMO = "CMO"

// Intervention statuses.
const (
	InterventionAccepted = "accepted"
	InterventionPending  = "pending"
	InterventionRejected = "rejected"
)

// InterventionStatuses lists every valid status value.
var InterventionStatuses = []string{
	InterventionAccepted, InterventionPending, InterventionRejected,
}

// CMODimensions lists the catalog dimensions in display order.
var CMODimensions = []string{"Capacidad", "Motivación", "Oportunidad"}

// InterventionCatalog maps each CMO dimension to its allowed
// intervention descriptions. A new dimension or description is a data
// change only; nothing dispatches on these strings.
var InterventionCatalog = map[string][]string{
	"Capacidad": {
		"Educación sobre enfermedad",
		"Educación sobre tratamiento",
		"Revisión técnica de administración",
		"Simplificación del régimen",
		"Material educativo entregado",
	},
	"Motivación": {
		"Entrevista motivacional",
		"Identificación de barreras",
		"Revisión de creencias/expectativas",
		"Reforzar objetivos terapéuticos",
		"Acuerdo de plan terapéutico",
	},
	"Oportunidad": {
		"Seguimiento telefarmacia",
		"Coordinación con médico",
		"Coordinación con enfermería",
		"Ajuste agenda / circuito",
		"Recordatorio / cita programada",
	},
}

// Intervention is one catalog entry recorded against a visit.
type Intervention struct {
	InterventionID string  `json:"interventionId"`
	PatientID      string  `json:"patientId"`
	VisitID        string  `json:"visitId"`
	Type           string  `json:"type"`
	CMODimension   string  `json:"cmoDimension"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	OutcomeNotes   *string `json:"outcomeNotes"`
	CreatedAt      string  `json:"createdAt"`
	SchemaVersion  string  `json:"schemaVersion"`
}

// NewInterventionID builds an intervention primary key of the form
// I-{visitId}-{index}-{random}.
func NewInterventionID(visitID string, index int) string {
	return fmt.Sprintf("I-%s-%d-%s", visitID, index, randomSuffix())
}

// NewIntervention creates an intervention row for the given visit.
func NewIntervention(patientID, visitID string, index int, dimension, description, status string) *Intervention {
	return &Intervention{
		InterventionID: NewInterventionID(visitID, index),
		PatientID:      patientID,
		VisitID:        visitID,
		Type:           InterventionTypeCMO,
		CMODimension:   dimension,
		Description:    description,
		Status:         status,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		SchemaVersion:  SchemaVersion,
	}
}

// IsValidInterventionStatus reports whether s is a recognised status.
func IsValidInterventionStatus(s string) bool {
	for _, st := range InterventionStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ValidateCatalogEntry checks that the dimension exists and the
// description belongs to that dimension's catalog.
func ValidateCatalogEntry(dimension, description string) error {
	descs, ok := InterventionCatalog[dimension]
	if !ok {
		return fmt.Errorf("unknown CMO dimension: %s", dimension)
	}
	for _, d := range descs {
		if d == description {
			return nil
		}
	}
	return fmt.Errorf("description %q is not in the %s catalog", description, dimension)
}
