// ABOUTME: MCP tool implementations for the CMO registry.
// ABOUTME: Provides patient, visit, scoring, and stats operations.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farmahosp/cmoreg/internal/importer"
	"github.com/farmahosp/cmoreg/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func todayISO() string {
	return time.Now().Format("2006-01-02")
}

func (s *Server) registerTools() {
	// add_patient
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_patient",
		Description: "Create or update a pseudonymized patient entry; the stratification score and priority level are recomputed on every save",
	}, s.handleAddPatient)

	// list_patients
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_patients",
		Description: "List patients, optionally filtered by prevalent condition or a free-text search",
	}, s.handleListPatients)

	// patient_summary
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "patient_summary",
		Description: "Get one patient with visits and interventions",
	}, s.handlePatientSummary)

	// record_visit
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_visit",
		Description: "Record a follow-up visit; snapshots the patient's stratification selections",
	}, s.handleRecordVisit)

	// compute_score
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compute_score",
		Description: "Run the CMO stratification engine on a set of selections without saving anything",
	}, s.handleComputeScore)

	// delete_patient
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_patient",
		Description: "Delete a patient and every visit and intervention hanging from it",
	}, s.handleDeletePatient)

	// registry_stats
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "registry_stats",
		Description: "Registry-wide counters: patients, visits, interventions",
	}, s.handleRegistryStats)
}

// Tool input/output types

type addPatientInput struct {
	PatientID          string            `json:"patient_id" jsonschema:"Pseudonymized patient code (no names)"`
	PrevalentCondition string            `json:"prevalent_condition,omitempty" jsonschema:"Prevalent condition (required for a new patient)"`
	Sex                string            `json:"sex,omitempty" jsonschema:"Sex (free text)"`
	BirthYear          int               `json:"birth_year,omitempty" jsonschema:"Birth year"`
	Comorbidities      string            `json:"comorbidities,omitempty" jsonschema:"Comorbidities"`
	Notes              string            `json:"notes,omitempty" jsonschema:"Free notes"`
	StratVars          map[string]string `json:"strat_vars,omitempty" jsonschema:"Stratification selections as variable-to-value pairs"`
}

type patientOutput struct {
	PatientID     string `json:"patient_id"`
	Score         int    `json:"score"`
	PriorityLevel int    `json:"priority_level"`
	Message       string `json:"message"`
}

type listPatientsInput struct {
	Condition string `json:"condition,omitempty" jsonschema:"Exact prevalent-condition filter"`
	Search    string `json:"search,omitempty" jsonschema:"Case-insensitive free-text search"`
}

type patientIDInput struct {
	PatientID string `json:"patient_id" jsonschema:"Patient ID"`
}

type recordVisitInput struct {
	PatientID       string  `json:"patient_id" jsonschema:"Patient ID"`
	Date            string  `json:"date,omitempty" jsonschema:"Visit date (ISO), defaults to today"`
	LDL             float64 `json:"ldl,omitempty" jsonschema:"LDL in mg/dL"`
	LDLTarget       float64 `json:"ldl_target,omitempty" jsonschema:"LDL target in mg/dL"`
	Treatment       string  `json:"treatment,omitempty" jsonschema:"Treatment summary"`
	Adherence       string  `json:"adherence,omitempty" jsonschema:"Adherence assessment"`
	RAM             string  `json:"ram,omitempty" jsonschema:"Adverse reactions"`
	FollowUpPlan    string  `json:"follow_up_plan,omitempty" jsonschema:"Follow-up plan"`
}

type visitOutput struct {
	VisitID       string `json:"visit_id"`
	Date          string `json:"date"`
	Score         int    `json:"score"`
	PriorityLevel int    `json:"priority_level"`
	Message       string `json:"message"`
}

type computeScoreInput struct {
	Selections map[string]string `json:"selections" jsonschema:"Stratification selections as variable-to-value pairs"`
}

type scoreOutput struct {
	Score         int    `json:"score"`
	PriorityLevel int    `json:"priority_level"`
	Message       string `json:"message"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type statsInput struct{}

// Tool handlers

func (s *Server) handleAddPatient(ctx context.Context, req *mcp.CallToolRequest, input addPatientInput) (*mcp.CallToolResult, patientOutput, error) {
	if err := models.ValidatePatientID(input.PatientID); err != nil {
		return nil, patientOutput{}, err
	}

	p := s.view.FindPatient(input.PatientID)
	created := p == nil
	if created {
		if input.PrevalentCondition == "" {
			return nil, patientOutput{}, fmt.Errorf("prevalent_condition is required for a new patient")
		}
		p = models.NewPatient(input.PatientID, input.PrevalentCondition)
	} else if input.PrevalentCondition != "" {
		p.PrevalentCondition = input.PrevalentCondition
	}

	if input.Sex != "" {
		p.Sex = input.Sex
	}
	if input.BirthYear != 0 {
		year := input.BirthYear
		if err := models.ValidateBirthYear(&year); err != nil {
			return nil, patientOutput{}, err
		}
		p.BirthYear = &year
	}
	if input.Comorbidities != "" {
		p.Comorbidities = &input.Comorbidities
	}
	if input.Notes != "" {
		p.Notes = &input.Notes
	}
	if len(input.StratVars) > 0 {
		if p.StratVars == nil {
			p.StratVars = map[string]string{}
		}
		for k, v := range input.StratVars {
			p.StratVars[k] = v
		}
		if problems := s.engine.ValidateSelections(p.StratVars); len(problems) > 0 {
			return nil, patientOutput{}, fmt.Errorf("invalid stratification: %s", strings.Join(problems, "; "))
		}
	}

	p.CMOScore, p.PriorityLevel = s.engine.Evaluate(p.StratVars)

	if err := s.repo.PutPatient(p); err != nil {
		return nil, patientOutput{}, fmt.Errorf("failed to save patient: %w", err)
	}
	s.view.ApplyPatient(p)

	verb := "Updated"
	if created {
		verb = "Added"
	}
	return nil, patientOutput{
		PatientID:     p.PatientID,
		Score:         p.CMOScore,
		PriorityLevel: p.PriorityLevel,
		Message:       fmt.Sprintf("%s patient %s (score %d, priority %d)", verb, p.PatientID, p.CMOScore, p.PriorityLevel),
	}, nil
}

func (s *Server) handleListPatients(ctx context.Context, req *mcp.CallToolRequest, input listPatientsInput) (*mcp.CallToolResult, any, error) {
	patients := s.view.SearchPatients(input.Search, input.Condition)
	if len(patients) == 0 {
		return nil, map[string]interface{}{"message": "No patients found."}, nil
	}
	return nil, patients, nil
}

func (s *Server) handlePatientSummary(ctx context.Context, req *mcp.CallToolRequest, input patientIDInput) (*mcp.CallToolResult, any, error) {
	p := s.view.FindPatient(input.PatientID)
	if p == nil {
		return nil, nil, fmt.Errorf("patient not found: %s", input.PatientID)
	}

	return nil, map[string]interface{}{
		"patient":       p,
		"visits":        s.view.VisitsFor(p.PatientID),
		"interventions": s.view.InterventionsForPatient(p.PatientID),
	}, nil
}

func (s *Server) handleRecordVisit(ctx context.Context, req *mcp.CallToolRequest, input recordVisitInput) (*mcp.CallToolResult, visitOutput, error) {
	p := s.view.FindPatient(input.PatientID)
	if p == nil {
		return nil, visitOutput{}, fmt.Errorf("patient not found: %s", input.PatientID)
	}

	date := todayISO()
	if input.Date != "" {
		var err error
		date, err = importer.ParseDate(input.Date)
		if err != nil {
			return nil, visitOutput{}, fmt.Errorf("invalid date: %w", err)
		}
	}

	v := models.NewVisit(p.PatientID, date)
	if input.LDL != 0 {
		ldl := input.LDL
		v.LDL = &ldl
	}
	if input.LDLTarget != 0 {
		target := input.LDLTarget
		v.LDLTarget = &target
	}
	if input.Treatment != "" {
		v.Treatment = &input.Treatment
	}
	if input.Adherence != "" {
		v.Adherence = &input.Adherence
	}
	if input.RAM != "" {
		v.RAM = &input.RAM
	}
	if input.FollowUpPlan != "" {
		v.FollowUpPlan = &input.FollowUpPlan
	}

	v.StratVars = make(map[string]string, len(p.StratVars))
	for k, val := range p.StratVars {
		v.StratVars[k] = val
	}
	v.CMOScore, v.PriorityLevel = s.engine.Evaluate(v.StratVars)

	if err := s.repo.PutVisit(v); err != nil {
		return nil, visitOutput{}, fmt.Errorf("failed to save visit: %w", err)
	}
	s.view.ApplyVisit(v)

	return nil, visitOutput{
		VisitID:       v.VisitID,
		Date:          v.Date,
		Score:         v.CMOScore,
		PriorityLevel: v.PriorityLevel,
		Message:       fmt.Sprintf("Recorded visit %s for %s", v.VisitID, p.PatientID),
	}, nil
}

func (s *Server) handleComputeScore(ctx context.Context, req *mcp.CallToolRequest, input computeScoreInput) (*mcp.CallToolResult, scoreOutput, error) {
	if problems := s.engine.ValidateSelections(input.Selections); len(problems) > 0 {
		return nil, scoreOutput{}, fmt.Errorf("invalid selections: %s", strings.Join(problems, "; "))
	}

	score, level := s.engine.Evaluate(input.Selections)
	return nil, scoreOutput{
		Score:         score,
		PriorityLevel: level,
		Message:       fmt.Sprintf("Score %d, priority level %d", score, level),
	}, nil
}

func (s *Server) handleDeletePatient(ctx context.Context, req *mcp.CallToolRequest, input patientIDInput) (*mcp.CallToolResult, simpleOutput, error) {
	if s.view.FindPatient(input.PatientID) == nil {
		return nil, simpleOutput{}, fmt.Errorf("patient not found: %s", input.PatientID)
	}

	if err := s.repo.DeletePatient(input.PatientID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete patient: %w", err)
	}
	s.view.RemovePatient(input.PatientID)

	return nil, simpleOutput{
		Message: fmt.Sprintf("Deleted patient %s and dependent records", input.PatientID),
	}, nil
}

func (s *Server) handleRegistryStats(ctx context.Context, req *mcp.CallToolRequest, input statsInput) (*mcp.CallToolResult, any, error) {
	return nil, s.view.Stats(), nil
}
