// ABOUTME: CLI commands for exporting registry data.
// ABOUTME: Supports per-entity CSV plus whole-database JSON and YAML.
package main

import (
	"fmt"
	"os"

	"github.com/farmahosp/cmoreg/internal/importer"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportLocale bool
)

var exportCmd = &cobra.Command{
	Use:   "export <format> [kind]",
	Short: "Export registry data",
	Long: `Export registry data in various formats.

FORMATS:

  csv    One entity kind per file: patients, visits, or interventions.
         Standard variant is comma-separated with LF endings; pass
         --locale for the Spanish Excel variant (semicolon, UTF-8 BOM,
         CRLF).
  json   Whole-database backup (suitable for 'cmoreg import json').
         Records the backup timestamp in the store.
  yaml   Whole-database dump, human-readable. Not a backup: the
         timestamp is not touched.

EXAMPLES:

  cmoreg export csv patients                  # to stdout
  cmoreg export csv visits --locale -o visitas.csv
  cmoreg export json -o backup.json
  cmoreg export yaml`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"csv", "json", "yaml"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		var data []byte
		var err error

		switch format {
		case "csv":
			if len(args) < 2 {
				return fmt.Errorf("csv export needs a kind: patients, visits, or interventions")
			}
			if !importer.ValidKind(args[1]) {
				return fmt.Errorf("unknown kind: %s (use patients, visits, or interventions)", args[1])
			}
			data = []byte(imp.ExportCSV(importer.Kind(args[1]), exportLocale))
		case "json":
			data, err = imp.BackupJSON()
		case "yaml":
			data, err = imp.BackupYAML()
		default:
			return fmt.Errorf("unknown format: %s (use csv, json, or yaml)", format)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Print(string(data))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportLocale, "locale", false, "Spanish Excel CSV variant (semicolon, BOM, CRLF)")
	rootCmd.AddCommand(exportCmd)
}
