// ABOUTME: CLI commands for managing registry patients.
// ABOUTME: Supports add (upsert), list with filters, show, and delete.
package main

import (
	"fmt"
	"strings"

	"github.com/farmahosp/cmoreg/internal/models"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	patientCondition     string
	patientSex           string
	patientBirthYear     int
	patientComorbidities string
	patientNotes         string
	patientStatus        string
	patientStrat         []string
	patientListCond      string
	patientListSearch    string
)

var patientCmd = &cobra.Command{
	Use:     "patient",
	Aliases: []string{"p"},
	Short:   "Manage registry patients",
	Long: `Manage pseudonymized patient entries.

Patients are identified by a pseudonymized code (history number,
study code) - never a name. Each patient carries the CMO
stratification selections; the score and priority level are computed
by the engine on every save.

COMMANDS:

  add      Create or update a patient
  list     List patients with condition filter and free search
  show     View one patient with visits and interventions
  delete   Delete a patient and everything hanging from it`,
}

var patientAddCmd = &cobra.Command{
	Use:   "add <patientId>",
	Short: "Add or update a patient",
	Long: `Add a patient, or update an existing one in place.

Stratification selections are given as repeated --strat flags with
var=value pairs; run 'cmoreg score' with no flags to list the
variables and their values.

The condition is free text; the usual catalog entries are:

  ` + strings.Join(models.ConditionList, "\n  ") + `

Examples:
  cmoreg patient add HUF-0042 --condition "PCSK9 / Dislipemia"
  cmoreg patient add HUF-0042 --birth-year 1957 --sex F
  cmoreg patient add HUF-0042 --strat edad=mayor75 --strat adherencia=dudosa`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patientID := strings.TrimSpace(args[0])
		if err := models.ValidatePatientID(patientID); err != nil {
			return err
		}

		p := view.FindPatient(patientID)
		created := p == nil
		if created {
			if patientCondition == "" {
				return fmt.Errorf("--condition is required for a new patient")
			}
			p = models.NewPatient(patientID, patientCondition)
		}

		if cmd.Flags().Changed("condition") {
			p.PrevalentCondition = patientCondition
		}
		if cmd.Flags().Changed("sex") {
			p.Sex = patientSex
		}
		if cmd.Flags().Changed("birth-year") {
			year := patientBirthYear
			if err := models.ValidateBirthYear(&year); err != nil {
				return err
			}
			p.BirthYear = &year
		}
		if cmd.Flags().Changed("comorbidities") {
			p.Comorbidities = &patientComorbidities
		}
		if cmd.Flags().Changed("notes") {
			p.Notes = &patientNotes
		}
		if cmd.Flags().Changed("status") {
			if patientStatus != models.StatusActive && patientStatus != models.StatusInactive {
				return fmt.Errorf("status must be %q or %q", models.StatusActive, models.StatusInactive)
			}
			p.Status = patientStatus
		}

		if len(patientStrat) > 0 {
			if p.StratVars == nil {
				p.StratVars = map[string]string{}
			}
			for _, pair := range patientStrat {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --strat %q: expected var=value", pair)
				}
				p.StratVars[key] = value
			}
			if problems := engine.ValidateSelections(p.StratVars); len(problems) > 0 {
				return fmt.Errorf("invalid stratification: %s", strings.Join(problems, "; "))
			}
		}

		// The score and level are always engine-derived.
		p.CMOScore, p.PriorityLevel = engine.Evaluate(p.StratVars)

		if err := repo.PutPatient(p); err != nil {
			return fmt.Errorf("failed to save patient: %w", err)
		}
		view.ApplyPatient(p)

		if created {
			color.Green("✓ Added patient %s", p.PatientID)
		} else {
			color.Green("✓ Updated patient %s", p.PatientID)
		}
		fmt.Printf("  %s · score %d · priority %d\n", p.PrevalentCondition, p.CMOScore, p.PriorityLevel)
		return nil
	},
}

var patientListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List patients",
	Long: `List registry patients sorted by ID.

FILTERING:

  --condition   Exact prevalent-condition match
  --search      Case-insensitive substring over ID, condition,
                comorbidities, and notes

EXAMPLES:

  cmoreg patient list
  cmoreg patient list --condition Diabetes
  cmoreg patient list --search evolocumab`,
	RunE: func(cmd *cobra.Command, args []string) error {
		patients := view.SearchPatients(patientListSearch, patientListCond)
		if len(patients) == 0 {
			fmt.Println("No patients found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, p := range patients {
			visits := view.VisitsFor(p.PatientID)
			last := ""
			if len(visits) > 0 {
				last = faint.Sprintf(" last visit %s", visits[0].Date)
			}
			status := ""
			if !p.IsActive() {
				status = color.YellowString(" [inactive]")
			}
			fmt.Printf("%s %s score %2d · P%d · %d visits%s%s\n",
				padRight(p.PatientID, 14),
				padRight(p.PrevalentCondition, 24),
				p.CMOScore, p.PriorityLevel, len(visits), last, status)
		}
		return nil
	},
}

var patientShowCmd = &cobra.Command{
	Use:   "show <patientId>",
	Short: "Show one patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := view.FindPatient(args[0])
		if p == nil {
			return fmt.Errorf("patient not found: %s", args[0])
		}

		faint := color.New(color.Faint)
		fmt.Printf("%s  %s\n", color.New(color.Bold).Sprint(p.PatientID), p.PrevalentCondition)
		if p.Sex != "" {
			fmt.Printf("  Sex: %s\n", p.Sex)
		}
		if p.BirthYear != nil {
			fmt.Printf("  Birth year: %d\n", *p.BirthYear)
		}
		if p.Comorbidities != nil && *p.Comorbidities != "" {
			fmt.Printf("  Comorbidities: %s\n", *p.Comorbidities)
		}
		if p.Notes != nil && *p.Notes != "" {
			fmt.Printf("  Notes: %s\n", *p.Notes)
		}
		fmt.Printf("  Status: %s\n", p.Status)
		fmt.Printf("  Score: %d  Priority: %d\n", p.CMOScore, p.PriorityLevel)

		if len(p.StratVars) > 0 {
			fmt.Println("  Stratification:")
			for _, v := range engine.Registry() {
				if sel, ok := p.StratVars[v.ID]; ok {
					fmt.Printf("    %s %s\n", padRight(v.ID, 20), sel)
				}
			}
		}

		visits := view.VisitsFor(p.PatientID)
		if len(visits) > 0 {
			fmt.Printf("  Visits (%d):\n", len(visits))
			for _, v := range visits {
				ivs := view.InterventionsForVisit(v.VisitID)
				fmt.Printf("    %s %s score %d · P%d · %d interventions\n",
					faint.Sprint(v.VisitID), v.Date, v.CMOScore, v.PriorityLevel, len(ivs))
			}
		}
		return nil
	},
}

var patientDeleteCmd = &cobra.Command{
	Use:   "delete <patientId>",
	Short: "Delete a patient and all dependent records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patientID := args[0]
		if view.FindPatient(patientID) == nil {
			return fmt.Errorf("patient not found: %s", patientID)
		}

		visits := len(view.VisitsFor(patientID))
		interventions := len(view.InterventionsForPatient(patientID))

		if err := repo.DeletePatient(patientID); err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		view.RemovePatient(patientID)

		color.Green("✓ Deleted patient %s", patientID)
		fmt.Printf("  removed %d visits, %d interventions\n", visits, interventions)
		return nil
	},
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	patientAddCmd.Flags().StringVar(&patientCondition, "condition", "", "prevalent condition")
	patientAddCmd.Flags().StringVar(&patientSex, "sex", "", "sex (free text)")
	patientAddCmd.Flags().IntVar(&patientBirthYear, "birth-year", 0, "birth year")
	patientAddCmd.Flags().StringVar(&patientComorbidities, "comorbidities", "", "comorbidities")
	patientAddCmd.Flags().StringVar(&patientNotes, "notes", "", "free notes")
	patientAddCmd.Flags().StringVar(&patientStatus, "status", "", "active or inactive")
	patientAddCmd.Flags().StringArrayVar(&patientStrat, "strat", nil, "stratification selection var=value (repeatable)")

	patientListCmd.Flags().StringVar(&patientListCond, "condition", "", "filter by prevalent condition")
	patientListCmd.Flags().StringVarP(&patientListSearch, "search", "q", "", "free-text search")

	patientCmd.AddCommand(patientAddCmd)
	patientCmd.AddCommand(patientListCmd)
	patientCmd.AddCommand(patientShowCmd)
	patientCmd.AddCommand(patientDeleteCmd)
	rootCmd.AddCommand(patientCmd)
}
