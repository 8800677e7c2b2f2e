// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio-based MCP server over the registry.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/farmahosp/cmoreg/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant
integration. The server communicates via stdin/stdout.

CONFIGURATION:

  {
    "mcpServers": {
      "cmoreg": {
        "command": "cmoreg",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  add_patient        Create or update a pseudonymized patient
  list_patients      List patients with condition filter and search
  patient_summary    One patient with visits and interventions
  record_visit       Record a follow-up visit
  compute_score      Run the stratification engine on selections
  delete_patient     Delete a patient and dependent records
  registry_stats     Registry-wide counters`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(repo, view, engine)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
