/*
PURPOSE:
  Defines the 'sessions' subcommand.
  Lists persisted sessions, or summarizes one.

REQUIREMENTS:
  User-specified:
  - List saved session ids.

  Implementation-discovered:
  - Showing a quick summary for a given id saves a round trip through jq.

ARCHITECTURE INTEGRATION:
  - Calls: internal/output.Store

ERROR HANDLING:
  - Unknown id surfaces the store's not-found error.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  stratum-runner sessions
  stratum-runner sessions <id>

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/output/store.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docstratum/stratum-runner/internal/config"
	"github.com/docstratum/stratum-runner/internal/output"
)

var sessionsDir string

var sessionsCmd = &cobra.Command{
	Use:   "sessions [id]",
	Short: "List saved sessions, or summarize one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			ids, err := store.ListSessions()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No sessions found in", store.Dir())
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		}

		sess, err := store.LoadSession(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Session:      %s\n", sess.SessionID)
		fmt.Printf("Control:      %s\n", sess.ControlModel)
		fmt.Printf("Variant:      %s\n", sess.VariantModel)
		if sess.ContextSource != "" {
			fmt.Printf("Context:      %s\n", sess.ContextSource)
		}
		fmt.Printf("Tests:        %d\n", sess.TestCount())
		fmt.Printf("Success rate: %.1f%%\n", sess.SuccessRate()*100)
		fmt.Printf("Duration:     %s\n", sess.Duration().Round(0))
		return nil
	},
}

func openStore() (*output.Store, error) {
	dir := sessionsDir
	if dir == "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		dir = cfg.OutputDir
	}
	return output.NewStore(dir)
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().StringVarP(&sessionsDir, "output-dir", "o", "", "Results directory to scan")
}
