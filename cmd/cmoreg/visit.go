// ABOUTME: CLI commands for managing follow-up visits.
// ABOUTME: Supports add with inline interventions, list, show, note, delete.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmahosp/cmoreg/internal/importer"
	"github.com/farmahosp/cmoreg/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	visitDate          string
	visitDrug          string
	visitLDL           string
	visitLDLTarget     string
	visitLDLGoal       string
	visitTreatment     string
	visitAdherence     string
	visitRAM           string
	visitJustification string
	visitOFT           string
	visitPlan          string
	visitInterventions []string
)

var visitCmd = &cobra.Command{
	Use:     "visit",
	Aliases: []string{"v"},
	Short:   "Manage follow-up visits",
	Long: `Track dated follow-up visits for a patient.

A visit snapshots the patient's stratification selections at save
time and derives its score and priority level from them. Zero or more
CMO interventions can be recorded in the same save.

COMMANDS:

  add      Record a visit (with optional inline interventions)
  list     List a patient's visits, most recent first
  show     View one visit with its interventions
  note     Print the clinical-record text block for a visit
  delete   Delete a visit and its interventions`,
}

var visitAddCmd = &cobra.Command{
	Use:   "add <patientId>",
	Short: "Record a visit",
	Long: `Record a follow-up visit for an existing patient.

Decimal commas are accepted in LDL values. Interventions are repeated
--intervention flags of the form DIMENSION:DESCRIPTION:STATUS[:notes],
where the dimension and description must come from the CMO catalog
and the status is accepted, pending, or rejected.

Examples:
  cmoreg visit add HUF-0042 --ldl 120,5 --ldl-target 70 --ldl-goal false
  cmoreg visit add HUF-0042 --date 2025-03-15 --adherence "baja (test Morisky)"
  cmoreg visit add HUF-0042 --intervention "Motivación:Entrevista motivacional:accepted"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patient := view.FindPatient(args[0])
		if patient == nil {
			return fmt.Errorf("patient not found: %s", args[0])
		}

		date := time.Now().Format("2006-01-02")
		if visitDate != "" {
			var err error
			date, err = importer.ParseDate(visitDate)
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
		}

		v := models.NewVisit(patient.PatientID, date)
		if visitDrug != "" {
			v.HospitalDrug = &visitDrug
		}
		if visitLDL != "" {
			ldl, err := importer.ParseNumber(visitLDL)
			if err != nil {
				return fmt.Errorf("invalid --ldl %q", visitLDL)
			}
			v.LDL = &ldl
		}
		if visitLDLTarget != "" {
			target, err := importer.ParseNumber(visitLDLTarget)
			if err != nil {
				return fmt.Errorf("invalid --ldl-target %q", visitLDLTarget)
			}
			v.LDLTarget = &target
		}
		if visitLDLGoal != "" {
			goal, err := importer.ParseBool(visitLDLGoal)
			if err != nil {
				return fmt.Errorf("invalid --ldl-goal %q: use true or false", visitLDLGoal)
			}
			v.LDLGoalAchieved = &goal
		}
		if visitTreatment != "" {
			v.Treatment = &visitTreatment
		}
		if visitAdherence != "" {
			v.Adherence = &visitAdherence
		}
		if visitRAM != "" {
			v.RAM = &visitRAM
		}
		if visitJustification != "" {
			v.PriorityJustification = &visitJustification
		}
		if visitOFT != "" {
			v.OFTObjectives = &visitOFT
		}
		if visitPlan != "" {
			v.FollowUpPlan = &visitPlan
		}

		// Snapshot the patient's current selections; the visit score is
		// derived from them, not copied from the patient record.
		v.StratVars = make(map[string]string, len(patient.StratVars))
		for k, val := range patient.StratVars {
			v.StratVars[k] = val
		}
		v.CMOScore, v.PriorityLevel = engine.Evaluate(v.StratVars)

		interventions, err := parseInterventionFlags(patient.PatientID, v.VisitID, visitInterventions)
		if err != nil {
			return err
		}

		if err := repo.PutVisit(v); err != nil {
			return fmt.Errorf("failed to save visit: %w", err)
		}
		view.ApplyVisit(v)
		for _, iv := range interventions {
			if err := repo.PutIntervention(iv); err != nil {
				return fmt.Errorf("failed to save intervention: %w", err)
			}
			view.ApplyIntervention(iv)
		}

		color.Green("✓ Added visit for %s", patient.PatientID)
		fmt.Printf("  %s %s · score %d · priority %d", color.New(color.Faint).Sprint(v.VisitID), v.Date, v.CMOScore, v.PriorityLevel)
		if len(interventions) > 0 {
			fmt.Printf(" · %d interventions", len(interventions))
		}
		fmt.Println()
		return nil
	},
}

// parseInterventionFlags turns DIMENSION:DESCRIPTION:STATUS[:notes]
// values into intervention records attached to the given visit.
func parseInterventionFlags(patientID, visitID string, flags []string) ([]*models.Intervention, error) {
	var out []*models.Intervention
	for idx, raw := range flags {
		parts := strings.SplitN(raw, ":", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid --intervention %q: expected DIMENSION:DESCRIPTION:STATUS[:notes]", raw)
		}
		dimension, description, status := parts[0], parts[1], parts[2]

		if err := models.ValidateCatalogEntry(dimension, description); err != nil {
			return nil, fmt.Errorf("invalid --intervention %q: %w", raw, err)
		}
		if !models.IsValidInterventionStatus(status) {
			return nil, fmt.Errorf("invalid --intervention status %q: use accepted, pending, or rejected", status)
		}

		iv := models.NewIntervention(patientID, visitID, idx, dimension, description, status)
		if len(parts) == 4 && parts[3] != "" {
			notes := parts[3]
			iv.OutcomeNotes = &notes
		}
		out = append(out, iv)
	}
	return out, nil
}

var visitListCmd = &cobra.Command{
	Use:     "list <patientId>",
	Aliases: []string{"ls"},
	Short:   "List a patient's visits",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if view.FindPatient(args[0]) == nil {
			return fmt.Errorf("patient not found: %s", args[0])
		}
		visits := view.VisitsFor(args[0])
		if len(visits) == 0 {
			fmt.Println("No visits found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, v := range visits {
			ldl := ""
			if v.LDL != nil {
				ldl = fmt.Sprintf("LDL %.4g", *v.LDL)
			}
			fmt.Printf("%s %s score %2d · P%d · %d interventions %s\n",
				faint.Sprint(v.VisitID), v.Date, v.CMOScore, v.PriorityLevel,
				len(view.InterventionsForVisit(v.VisitID)), ldl)
		}
		return nil
	},
}

var visitShowCmd = &cobra.Command{
	Use:   "show <visitId>",
	Short: "Show one visit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := view.FindVisit(args[0])
		if v == nil {
			return fmt.Errorf("visit not found: %s", args[0])
		}

		fmt.Printf("%s  %s  patient %s\n", color.New(color.Bold).Sprint(v.VisitID), v.Date, v.PatientID)
		fmt.Printf("  Score: %d  Priority: %d\n", v.CMOScore, v.PriorityLevel)
		printOpt := func(label string, s *string) {
			if s != nil && *s != "" {
				fmt.Printf("  %s: %s\n", label, *s)
			}
		}
		printOpt("Hospital drug", v.HospitalDrug)
		if v.LDL != nil {
			fmt.Printf("  LDL: %.4g mg/dL\n", *v.LDL)
		}
		if v.LDLTarget != nil {
			fmt.Printf("  LDL target: %.4g mg/dL\n", *v.LDLTarget)
		}
		if v.LDLGoalAchieved != nil {
			fmt.Printf("  LDL goal achieved: %v\n", *v.LDLGoalAchieved)
		}
		printOpt("Treatment", v.Treatment)
		printOpt("Adherence", v.Adherence)
		printOpt("RAM", v.RAM)
		printOpt("Justification", v.PriorityJustification)
		printOpt("OFT objectives", v.OFTObjectives)
		printOpt("Follow-up plan", v.FollowUpPlan)

		interventions := view.InterventionsForVisit(v.VisitID)
		if len(interventions) > 0 {
			fmt.Printf("  Interventions (%d):\n", len(interventions))
			for _, iv := range interventions {
				notes := ""
				if iv.OutcomeNotes != nil && *iv.OutcomeNotes != "" {
					notes = " — " + *iv.OutcomeNotes
				}
				fmt.Printf("    [%s] %s (%s)%s\n", iv.CMODimension, iv.Description, iv.Status, notes)
			}
		}
		return nil
	},
}

var visitNoteCmd = &cobra.Command{
	Use:   "note <visitId>",
	Short: "Print the clinical-record text for a visit",
	Long: `Print the plain-text visit summary for pasting into the hospital
clinical record. The block carries no patient-identifying data beyond
the pseudonymized ID.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := view.FindVisit(args[0])
		if v == nil {
			return fmt.Errorf("visit not found: %s", args[0])
		}
		patient := view.FindPatient(v.PatientID)
		if patient == nil {
			return fmt.Errorf("patient not found: %s", v.PatientID)
		}

		fmt.Println(clinicalNote(patient, v, view.InterventionsForVisit(v.VisitID)))
		return nil
	},
}

// clinicalNote renders the visit as the registry's standard clinical
// record block. Absent values print as an em dash.
func clinicalNote(p *models.Patient, v *models.Visit, interventions []*models.Intervention) string {
	const dash = "—"
	opt := func(s *string) string {
		if s == nil || *s == "" {
			return dash
		}
		return *s
	}
	num := func(f *float64) string {
		if f == nil {
			return dash
		}
		return fmt.Sprintf("%.4g", *f)
	}
	goal := dash
	if v.LDLGoalAchieved != nil {
		if *v.LDLGoalAchieved {
			goal = "Sí"
		} else {
			goal = "No"
		}
	}

	var lines []string
	condition := p.PrevalentCondition
	if condition == "" {
		condition = dash
	}
	lines = append(lines, fmt.Sprintf("Paciente %s · Patología prevalente: %s", p.PatientID, condition))
	lines = append(lines, fmt.Sprintf("Fecha visita: %s", v.Date))
	lines = append(lines, fmt.Sprintf("LDL: %s mg/dL · Objetivo: %s mg/dL · Cumple: %s", num(v.LDL), num(v.LDLTarget), goal))
	lines = append(lines, fmt.Sprintf("Tratamiento: %s", opt(v.Treatment)))
	lines = append(lines, fmt.Sprintf("Adherencia: %s · RAM: %s", opt(v.Adherence), opt(v.RAM)))
	lines = append(lines, fmt.Sprintf("Nivel/Prioridad: %d · Justificación: %s", v.PriorityLevel, opt(v.PriorityJustification)))
	if v.OFTObjectives != nil && *v.OFTObjectives != "" {
		lines = append(lines, fmt.Sprintf("OFT: %s", *v.OFTObjectives))
	}
	if v.FollowUpPlan != nil && *v.FollowUpPlan != "" {
		lines = append(lines, fmt.Sprintf("Plan seguimiento: %s", *v.FollowUpPlan))
	}

	if len(interventions) > 0 {
		lines = append(lines, "Intervenciones CMO:")
		for _, iv := range interventions {
			notes := ""
			if iv.OutcomeNotes != nil && *iv.OutcomeNotes != "" {
				notes = " — " + *iv.OutcomeNotes
			}
			lines = append(lines, fmt.Sprintf("- %s: %s [%s]%s", iv.CMODimension, iv.Description, iv.Status, notes))
		}
	} else {
		lines = append(lines, "Intervenciones CMO: —")
	}
	return strings.Join(lines, "\n")
}

var visitDeleteCmd = &cobra.Command{
	Use:   "delete <visitId>",
	Short: "Delete a visit and its interventions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		visitID := args[0]
		if view.FindVisit(visitID) == nil {
			return fmt.Errorf("visit not found: %s", visitID)
		}
		interventions := len(view.InterventionsForVisit(visitID))

		if err := repo.DeleteVisit(visitID); err != nil {
			return fmt.Errorf("failed to delete visit: %w", err)
		}
		view.RemoveVisit(visitID)

		color.Green("✓ Deleted visit %s", visitID)
		if interventions > 0 {
			fmt.Printf("  removed %d interventions\n", interventions)
		}
		return nil
	},
}

func init() {
	visitAddCmd.Flags().StringVar(&visitDate, "date", "", "visit date (default today)")
	visitAddCmd.Flags().StringVar(&visitDrug, "drug", "", "hospital drug")
	visitAddCmd.Flags().StringVar(&visitLDL, "ldl", "", "LDL in mg/dL (decimal comma ok)")
	visitAddCmd.Flags().StringVar(&visitLDLTarget, "ldl-target", "", "LDL target in mg/dL")
	visitAddCmd.Flags().StringVar(&visitLDLGoal, "ldl-goal", "", "LDL goal achieved: true or false")
	visitAddCmd.Flags().StringVar(&visitTreatment, "treatment", "", "treatment summary")
	visitAddCmd.Flags().StringVar(&visitAdherence, "adherence", "", "adherence assessment")
	visitAddCmd.Flags().StringVar(&visitRAM, "ram", "", "adverse reactions")
	visitAddCmd.Flags().StringVar(&visitJustification, "justification", "", "priority justification")
	visitAddCmd.Flags().StringVar(&visitOFT, "oft", "", "pharmacotherapy objectives")
	visitAddCmd.Flags().StringVar(&visitPlan, "plan", "", "follow-up plan")
	visitAddCmd.Flags().StringArrayVar(&visitInterventions, "intervention", nil, "DIMENSION:DESCRIPTION:STATUS[:notes] (repeatable)")

	visitCmd.AddCommand(visitAddCmd)
	visitCmd.AddCommand(visitListCmd)
	visitCmd.AddCommand(visitShowCmd)
	visitCmd.AddCommand(visitNoteCmd)
	visitCmd.AddCommand(visitDeleteCmd)
	rootCmd.AddCommand(visitCmd)
}
