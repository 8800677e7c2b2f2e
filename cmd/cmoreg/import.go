// ABOUTME: CLI commands for importing registry data.
// ABOUTME: CSV imports stage then apply; JSON restores a full backup.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/farmahosp/cmoreg/internal/importer"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <format> ...",
	Short: "Import registry data",
	Long: `Import registry data from CSV or a JSON backup.

CSV imports are staged: every row is validated (types, required
fields, referential integrity against the store and the staged
batches) and classified as create or update before anything is
written. With --dry-run the report is printed and nothing changes;
without it, a clean prepare is applied immediately. Rows with errors
are skipped either way.

JSON import restores a full backup produced by 'cmoreg export json'.
The document must carry all three sections; a schema-version mismatch
is reported but does not stop the restore.

EXAMPLES:

  cmoreg import csv patients pacientes.csv --dry-run
  cmoreg import csv visits visitas.csv
  cmoreg import json backup.json`,
}

var importCSVCmd = &cobra.Command{
	Use:   "csv <kind> <file>",
	Short: "Import one entity kind from CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, filename := args[0], args[1]
		if !importer.ValidKind(kind) {
			return fmt.Errorf("unknown kind: %s (use patients, visits, or interventions)", kind)
		}

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		report, err := imp.PrepareCSV(importer.Kind(kind), string(data))
		var structural *importer.StructuralError
		if errors.As(err, &structural) {
			return fmt.Errorf("import rejected: %s", structural.Msg)
		}
		if err != nil {
			return err
		}

		fmt.Printf("%d valid rows: %d to create, %d to update\n", report.Valid, report.Created, report.Updated)
		if len(report.ExtraColumns) > 0 {
			color.Yellow("⚠ Ignoring unknown columns: %v", report.ExtraColumns)
		}
		for _, e := range report.Errors {
			color.Red("✗ %s", e)
		}

		if importDryRun {
			imp.Cancel(importer.Kind(kind))
			color.Yellow("Dry run - nothing written")
			return nil
		}
		if report.Valid == 0 {
			imp.Cancel(importer.Kind(kind))
			return fmt.Errorf("no valid rows to import")
		}

		n, err := imp.Apply(importer.Kind(kind))
		if err != nil {
			return fmt.Errorf("import failed after %d records: %w", n, err)
		}
		color.Green("✓ Imported %d %s", n, kind)
		return nil
	},
}

var importJSONCmd = &cobra.Command{
	Use:   "json <file>",
	Short: "Restore a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		report, err := imp.Restore(data)
		var structural *importer.StructuralError
		if errors.As(err, &structural) {
			return fmt.Errorf("restore rejected: %s", structural.Msg)
		}
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		if report.Warning != "" {
			color.Yellow("⚠ %s", report.Warning)
		}
		color.Green("✓ Restored %d patients, %d visits, %d interventions",
			report.Patients, report.Visits, report.Interventions)
		return nil
	},
}

func init() {
	importCSVCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate and report without writing")

	importCmd.AddCommand(importCSVCmd)
	importCmd.AddCommand(importJSONCmd)
	rootCmd.AddCommand(importCmd)
}
