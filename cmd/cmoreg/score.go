// ABOUTME: CLI command for running the stratification engine directly.
// ABOUTME: Prints the registry table or scores ad-hoc selections.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var scoreStrat []string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run the stratification engine",
	Long: `Run the CMO stratification engine without touching any record.

With no flags, prints the scoring model: every variable, its values
and points, and the override rules. With --strat flags, computes the
score and priority level for those selections.

Examples:
  cmoreg score                                      # show the model
  cmoreg score --strat edad=mayor75 --strat adherencia=dudosa
  cmoreg score --strat embarazo=si                  # override to priority 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(scoreStrat) == 0 {
			printRegistry()
			return nil
		}

		selections := map[string]string{}
		for _, pair := range scoreStrat {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --strat %q: expected var=value", pair)
			}
			selections[key] = value
		}
		if problems := engine.ValidateSelections(selections); len(problems) > 0 {
			return fmt.Errorf("invalid selections: %s", strings.Join(problems, "; "))
		}

		score, level := engine.Evaluate(selections)

		faint := color.New(color.Faint)
		for _, v := range engine.Registry() {
			sel, ok := selections[v.ID]
			if !ok {
				continue
			}
			points := 0
			for _, o := range v.Options {
				if o.Value == sel {
					points = o.Points
				}
			}
			fmt.Printf("  %s %s %s\n", padRight(v.ID, 20), padRight(sel, 14), faint.Sprintf("%d pts", points))
		}
		fmt.Printf("\nScore: %d\n", score)
		fmt.Printf("Priority level: %d\n", level)
		if level != engine.LevelFromScore(score) {
			color.Yellow("(forced by an override rule)")
		}
		return nil
	},
}

func printRegistry() {
	faint := color.New(color.Faint)
	for _, v := range engine.Registry() {
		fmt.Printf("%s %s\n", color.New(color.Bold).Sprint(padRight(v.ID, 20)), v.Label)
		for _, o := range v.Options {
			fmt.Printf("  %s %s\n", padRight(o.Value, 18), faint.Sprintf("%d pts · %s", o.Points, o.Label))
		}
		if v.Override != nil {
			color.Yellow("  %s=%s forces priority level %d", v.ID, v.Override.TriggerValue, v.Override.ForcedLevel)
		}
	}
}

func init() {
	scoreCmd.Flags().StringArrayVar(&scoreStrat, "strat", nil, "selection var=value (repeatable)")
	rootCmd.AddCommand(scoreCmd)
}
