/*
PURPOSE:
  Defines the 'export' subcommand.
  Reloads a saved session and writes its CSV export.

REQUIREMENTS:
  User-specified:
  - CSV with the fixed comparison columns for spreadsheet analysis.

  Implementation-discovered:
  - Export works off the persisted session file, so it can run long after
    the original process exited.

ARCHITECTURE INTEGRATION:
  - Calls: internal/output.Store (LoadSession, SaveSessionCSV)

ERROR HANDLING:
  - Unknown id surfaces the store's not-found error.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  stratum-runner export <session-id>

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/output/csv.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a saved session to CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		sess, err := store.LoadSession(args[0])
		if err != nil {
			return err
		}

		loc, err := store.SaveSessionCSV(sess)
		if err != nil {
			return err
		}
		fmt.Println(loc)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&sessionsDir, "output-dir", "o", "", "Results directory to scan")
}
