/*
PURPOSE:
  Defines the 'models' subcommand.
  Helps debug connectivity and model discovery before a run.

REQUIREMENTS:
  User-specified:
  - List available models on the target server.

  Implementation-discovered:
  - Useful validation step before committing to a long session.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Client.Models()

ERROR HANDLING:
  - Prints error if URL incorrect.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  stratum-runner models --url http://localhost:11434

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/client.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docstratum/stratum-runner/internal/config"
	"github.com/docstratum/stratum-runner/internal/engine"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models on the target server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if urlOverride != "" {
			cfg.URL = urlOverride
		}

		c := engine.NewClient(cfg)
		fmt.Printf("Querying %s...\n", cfg.URL)
		models, err := c.Models(context.Background())
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Printf("- %s\n", m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&urlOverride, "url", "", "Server URL")
}
