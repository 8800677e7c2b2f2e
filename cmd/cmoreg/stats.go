// ABOUTME: CLI command for registry-wide counters.
// ABOUTME: Prints patient, visit, and intervention totals plus backup age.
package main

import (
	"fmt"

	"github.com/farmahosp/cmoreg/internal/storage"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := view.Stats()

		fmt.Printf("Patients:      %d (%d active, %d with visits)\n", s.Patients, s.Active, s.WithVisits)
		fmt.Printf("Visits:        %d\n", s.Visits)
		fmt.Printf("Interventions: %d\n", s.Interventions)

		lastBackup, err := repo.GetMeta(storage.MetaLastBackupAt)
		if err != nil {
			return fmt.Errorf("failed to read meta: %w", err)
		}
		if lastBackup == "" {
			color.Yellow("Last backup:   never")
		} else {
			fmt.Printf("Last backup:   %s\n", lastBackup)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
