package commands

import (
	"github.com/spf13/cobra"

	"github.com/cloudmasa/engine/cmd/masa-engine/handlers"
)

// Serve returns the command that runs the engine API server.
//
// Optional flags:
//
//	--config, -c: Path to the engine configuration YAML file
//
// Environment variables:
//
//	ENCRYPTION_KEY (or the variable named by encryption_key_env in the
//	config file): AES-256 key protecting stored AWS credentials
func Serve() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine API server",
		Long: `Run the engine API server.

The server exposes cluster lifecycle and GitOps deployment operations
over HTTP and keeps its records in an embedded database under data_dir.

Examples:
  # Run with the default configuration file
  masa-engine serve -c engine.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "engine.yaml", "Path to configuration file")

	return cmd
}
