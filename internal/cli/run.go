/*
PURPOSE:
  Defines the 'run' subcommand.
  Executes a full A/B comparison session.

REQUIREMENTS:
  User-specified:
  - Run the session.
  - Specific flags for overrides.

  Implementation-discovered:
  - Need to load config first, then apply flag overrides.
  - Questions can come from a file (one per line) instead of config.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails or the run fails.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> engine.Run.

USAGE:
  stratum-runner run --control llama3.1:8b --variant llama3.1:8b --questions-file q.txt

SELF-HEALING INSTRUCTIONS:
  - Check flag names match Config struct fields generally.

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docstratum/stratum-runner/internal/config"
	"github.com/docstratum/stratum-runner/internal/engine"
)

var (
	urlOverride     string
	controlOverride string
	variantOverride string
	questionsFile   string
	outputOverride  string
	sessionOverride string
	modeOverride    string
	parallelFlag    int
	randomizeFlag   bool
	settleMSFlag    int
	ctxTokensFlag   int
	notesOverride   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the A/B comparison session",
	Long: `Executes every configured question as one baseline-vs-variant comparison.
Each comparison is timed, token-counted, retried on transient failures, and
persisted to its own result file before the next one starts. The complete
session is saved at the end.

Sequential mode (default) waits a settle delay between the two calls of a
comparison; concurrent mode issues both in parallel. With --parallel > 1
whole questions run at once and session order becomes completion order.`,
	Example: `  # Run with defaults (uses stratum_runner.yaml)
  stratum-runner run

  # Compare two models on a question file
  stratum-runner run --control llama3.1:8b --variant qwen2.5:7b -q questions.txt

  # Concurrent pair calls, four questions in flight
  stratum-runner run --mode concurrent --parallel 4

  # Cancel first-call bias across a sequential batch
  stratum-runner run --randomize-order`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// 2. Overrides
		if urlOverride != "" {
			cfg.URL = urlOverride
		}
		if controlOverride != "" {
			cfg.ControlModel = controlOverride
		}
		if variantOverride != "" {
			cfg.VariantModel = variantOverride
		}
		if questionsFile != "" {
			questions, err := readQuestions(questionsFile)
			if err != nil {
				return err
			}
			cfg.Questions = questions
		}
		if outputOverride != "" {
			cfg.OutputDir = outputOverride
		}
		if sessionOverride != "" {
			cfg.SessionID = sessionOverride
		}
		if modeOverride != "" {
			cfg.Mode = modeOverride
		}
		if cmd.Flags().Changed("parallel") {
			cfg.Parallel = parallelFlag
		}
		if cmd.Flags().Changed("randomize-order") {
			cfg.RandomizeOrder = randomizeFlag
		}
		if cmd.Flags().Changed("settle-delay-ms") {
			cfg.SettleDelayMS = settleMSFlag
		}
		if cmd.Flags().Changed("context-tokens") {
			cfg.ContextTokens = ctxTokensFlag
		}
		if notesOverride != "" {
			cfg.Notes = notesOverride
		}

		if len(cfg.Questions) == 0 {
			return fmt.Errorf("no questions configured; set questions in the config or pass --questions-file")
		}

		// 3. Execution
		return engine.Run(cfg)
	},
}

// readQuestions loads one question per non-empty line.
func readQuestions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	var questions []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			questions = append(questions, line)
		}
	}
	return questions, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&urlOverride, "url", "", "Server URL (e.g. http://localhost:11434)")
	runCmd.Flags().StringVar(&controlOverride, "control", "", "Control (baseline) model identifier")
	runCmd.Flags().StringVar(&variantOverride, "variant", "", "Variant (DocStratum) model identifier")
	runCmd.Flags().StringVarP(&questionsFile, "questions-file", "q", "", "Path to a text file with one question per line (overrides config)")
	runCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Output directory for results")
	runCmd.Flags().StringVar(&sessionOverride, "session", "", "Session identifier (generated when empty)")
	runCmd.Flags().StringVar(&modeOverride, "mode", "", "Pair execution mode: sequential or concurrent")
	runCmd.Flags().IntVar(&parallelFlag, "parallel", 1, "Number of questions to run at once")
	runCmd.Flags().BoolVar(&randomizeFlag, "randomize-order", false, "Shuffle control/variant call order per question (sequential mode)")
	runCmd.Flags().IntVar(&settleMSFlag, "settle-delay-ms", 100, "Pause between sequential control/variant calls")
	runCmd.Flags().IntVar(&ctxTokensFlag, "context-tokens", 0, "Fixed token count of the variant's background context")
	runCmd.Flags().StringVar(&notesOverride, "notes", "", "Free-text notes recorded on the session")
}
