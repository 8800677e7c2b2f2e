// ABOUTME: Tests for CLI helper functions.
// ABOUTME: Covers intervention flag parsing, clinical notes, padRight.
package main

import (
	"strings"
	"testing"

	"github.com/farmahosp/cmoreg/internal/models"
)

func TestParseInterventionFlags(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		wantErr bool
	}{
		{
			name: "valid without notes",
			flag: "Motivación:Entrevista motivacional:accepted",
		},
		{
			name: "valid with notes",
			flag: "Capacidad:Educación sobre enfermedad:pending:revisar en 3 meses",
		},
		{
			name:    "missing status",
			flag:    "Capacidad:Educación sobre enfermedad",
			wantErr: true,
		},
		{
			name:    "unknown dimension",
			flag:    "Velocidad:Educación sobre enfermedad:pending",
			wantErr: true,
		},
		{
			name:    "description not in catalog",
			flag:    "Capacidad:Receta mágica:pending",
			wantErr: true,
		},
		{
			name:    "bad status",
			flag:    "Capacidad:Educación sobre enfermedad:maybe",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := parseInterventionFlags("P001", "V-P001-2025-03-01-abc123", []string{tt.flag})
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.flag)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseInterventionFlags(%q) failed: %v", tt.flag, err)
			}
			if len(out) != 1 {
				t.Fatalf("expected 1 intervention, got %d", len(out))
			}
			if out[0].Type != models.InterventionTypeCMO {
				t.Errorf("type = %q", out[0].Type)
			}
			if out[0].PatientID != "P001" {
				t.Errorf("patientId = %q", out[0].PatientID)
			}
		})
	}
}

func TestParseInterventionFlagsNotesMayContainColons(t *testing.T) {
	out, err := parseInterventionFlags("P001", "V1", []string{
		"Oportunidad:Coordinación con médico:accepted:aviso: llamar antes de las 14:00",
	})
	if err != nil {
		t.Fatalf("parseInterventionFlags failed: %v", err)
	}
	if out[0].OutcomeNotes == nil || *out[0].OutcomeNotes != "aviso: llamar antes de las 14:00" {
		t.Errorf("notes = %v", out[0].OutcomeNotes)
	}
}

func TestClinicalNote(t *testing.T) {
	p := models.NewPatient("HUF-0042", "PCSK9 / Dislipemia")
	v := models.NewVisit(p.PatientID, "2025-03-15")
	ldl := 120.5
	achieved := false
	treatment := "Evolocumab 140 mg/14d"
	v.LDL = &ldl
	v.LDLGoalAchieved = &achieved
	v.Treatment = &treatment
	v.PriorityLevel = 2

	iv := models.NewIntervention(p.PatientID, v.VisitID, 0, "Motivación", "Entrevista motivacional", "accepted")

	note := clinicalNote(p, v, []*models.Intervention{iv})

	for _, want := range []string{
		"Paciente HUF-0042 · Patología prevalente: PCSK9 / Dislipemia",
		"Fecha visita: 2025-03-15",
		"LDL: 120.5 mg/dL · Objetivo: — mg/dL · Cumple: No",
		"Tratamiento: Evolocumab 140 mg/14d",
		"Nivel/Prioridad: 2",
		"- Motivación: Entrevista motivacional [accepted]",
	} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}
}

func TestClinicalNoteEmptyFieldsUseDashes(t *testing.T) {
	p := models.NewPatient("P001", "")
	v := models.NewVisit(p.PatientID, "2025-01-01")

	note := clinicalNote(p, v, nil)
	if !strings.Contains(note, "Patología prevalente: —") {
		t.Errorf("missing dash for absent condition:\n%s", note)
	}
	if !strings.Contains(note, "Intervenciones CMO: —") {
		t.Errorf("missing dash for no interventions:\n%s", note)
	}
	if !strings.Contains(note, "LDL: — mg/dL") {
		t.Errorf("missing dash for absent LDL:\n%s", note)
	}
}

func TestPatientAddHelpListsConditionCatalog(t *testing.T) {
	for _, cond := range models.ConditionList {
		if !strings.Contains(patientAddCmd.Long, cond) {
			t.Errorf("patient add help missing catalog condition %q", cond)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("abc", 6); got != "abc   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not truncate: %q", got)
	}
}
