// ABOUTME: Root Cobra command for cmoreg CLI.
// ABOUTME: Opens storage, the query view, and the engines per run.
package main

import (
	"fmt"

	"github.com/farmahosp/cmoreg/internal/config"
	"github.com/farmahosp/cmoreg/internal/importer"
	"github.com/farmahosp/cmoreg/internal/query"
	"github.com/farmahosp/cmoreg/internal/scoring"
	"github.com/farmahosp/cmoreg/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	repo   storage.Repository
	view   *query.View
	engine *scoring.Engine
	imp    *importer.Engine
)

var rootCmd = &cobra.Command{
	Use:   "cmoreg",
	Short: "CMO pharmaceutical care registry",
	Long: `Cmoreg is a CLI tool for a hospital pharmacy patient registry built
on the CMO pharmaceutical care model (Capacidad, Motivación,
Oportunidad).

WHAT IT TRACKS:

  Patients        pseudonymized entries with a prevalent condition and
                  stratification variables (no names, no identifiers)
  Visits          dated follow-up encounters: LDL values, adherence,
                  treatment changes, priority justification
  Interventions   CMO-catalog actions recorded per visit, with an
                  accepted/pending/rejected status

QUICK START:

  $ cmoreg patient add HUF-0042 --condition "PCSK9 / Dislipemia"
  $ cmoreg patient add HUF-0042 --strat edad=mayor75 --strat adherencia=dudosa
  $ cmoreg visit add HUF-0042 --ldl 120,5 --intervention "Motivación:Entrevista motivacional:accepted"
  $ cmoreg patient list --condition Diabetes
  $ cmoreg score --strat embarazo=si           # try the engine, no writes

STRATIFICATION:

  Each patient carries selections for the 10-variable CMO model. The
  score and priority level (1 = intensive follow-up, 3 = standard)
  are always computed by the engine, never entered by hand. Visits
  snapshot the patient's selections at save time.

IMPORT / EXPORT:

  $ cmoreg export csv patients               # comma/LF, for tooling
  $ cmoreg export csv patients --locale      # semicolon/BOM, for Excel ES
  $ cmoreg export json -o backup.json        # full backup
  $ cmoreg import csv visits visitas.csv --dry-run
  $ cmoreg import json backup.json

MCP INTEGRATION:

  Run 'cmoreg mcp' to start the Model Context Protocol server for use
  with MCP-compatible AI assistants:

  {
    "mcpServers": {
      "cmoreg": { "command": "cmoreg", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Records live in ~/.local/share/cmoreg (SQLite by default, Badger as
  an alternative backend via ~/.config/cmoreg/config.json).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that never touch the store.
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		// migrate opens both backends itself.
		if cmd.Name() == "migrate" {
			var err error
			cfg, err = config.Load()
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}

		view, err = query.Load(repo)
		if err != nil {
			return fmt.Errorf("failed to load registry view: %w", err)
		}

		engine = scoring.NewEngine(scoring.DefaultRegistry(), cfg.GetCutoffs())
		imp = importer.NewEngine(repo, view, engine)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo != nil {
			return repo.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
