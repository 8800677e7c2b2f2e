// ABOUTME: CLI command for migrating from the Badger backend to SQLite.
// ABOUTME: One-time copy for users switching storage backends.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/farmahosp/cmoreg/internal/kv"
	"github.com/farmahosp/cmoreg/internal/storage"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateDryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy Badger data into SQLite",
	Long: `Copy every record from the Badger backend into the SQLite backend.

This is a one-time tool for switching a registry from the Badger
key-value store to SQLite. Both stores live under the configured data
directory; existing SQLite records with the same IDs are overwritten.

USAGE:

  cmoreg migrate --dry-run   # count what would be copied
  cmoreg migrate             # copy, then switch config to sqlite

AFTER MIGRATION:

  Set "backend": "sqlite" in ~/.config/cmoreg/config.json (or remove
  the key; sqlite is the default), verify with 'cmoreg stats', and
  delete the old badger/ directory when satisfied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := cfg.GetDataDir()

		source, err := kv.Open(kv.Dir(dataDir))
		if err != nil {
			return fmt.Errorf("failed to open badger store: %w", err)
		}
		defer source.Close()

		patients, err := source.GetAllPatients()
		if err != nil {
			return fmt.Errorf("failed to read patients: %w", err)
		}
		visits, err := source.GetAllVisits()
		if err != nil {
			return fmt.Errorf("failed to read visits: %w", err)
		}
		interventions, err := source.GetAllInterventions()
		if err != nil {
			return fmt.Errorf("failed to read interventions: %w", err)
		}

		if migrateDryRun {
			color.Yellow("Dry run - no changes will be made")
			fmt.Printf("Would copy %d patients, %d visits, %d interventions\n",
				len(patients), len(visits), len(interventions))
			return nil
		}

		dest, err := storage.Open(filepath.Join(dataDir, "registry.db"))
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		defer dest.Close()

		for _, p := range patients {
			if err := dest.PutPatient(p); err != nil {
				return fmt.Errorf("failed to copy patient %s: %w", p.PatientID, err)
			}
		}
		for _, v := range visits {
			if err := dest.PutVisit(v); err != nil {
				return fmt.Errorf("failed to copy visit %s: %w", v.VisitID, err)
			}
		}
		for _, iv := range interventions {
			if err := dest.PutIntervention(iv); err != nil {
				return fmt.Errorf("failed to copy intervention %s: %w", iv.InterventionID, err)
			}
		}

		if stamp, err := source.GetMeta(storage.MetaLastBackupAt); err == nil && stamp != "" {
			if err := dest.SetMeta(storage.MetaLastBackupAt, stamp); err != nil {
				return fmt.Errorf("failed to copy meta: %w", err)
			}
		}

		color.Green("✓ Copied %d patients, %d visits, %d interventions",
			len(patients), len(visits), len(interventions))
		fmt.Println("Set \"backend\": \"sqlite\" in your config to finish the switch.")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "count records without copying")
	rootCmd.AddCommand(migrateCmd)
}
