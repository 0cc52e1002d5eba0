/*
PURPOSE:
  Exports a session's results to a CSV file for spreadsheet analysis.

REQUIREMENTS:
  User-specified:
  - Fixed column set: truncated question, both token totals, token
    overhead, both latencies, latency diff, response-length ratio.

  Implementation-discovered:
  - Float metrics at two decimal places; token counts stay integral
    (a count rendered "150.00" is noise for spreadsheet consumers).
  - Questions are truncated by runes, not bytes, to keep UTF-8 intact.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (export)
  - Consumes: internal/model

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush and check writer.Error() before returning.

USAGE:
  loc, err := store.SaveSessionCSV(sess)

SELF-HEALING INSTRUCTIONS:
  - If the column set changes, update header and row mapping together.

RELATED FILES:
  - internal/model/metrics.go

MAINTENANCE:
  - Update row mapping when derived metrics change.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docstratum/stratum-runner/internal/model"
)

// questionColumnLimit bounds the question column so one verbose prompt
// doesn't wreck spreadsheet layouts.
const questionColumnLimit = 80

var csvHeader = []string{
	"question",
	"control_tokens",
	"variant_tokens",
	"token_overhead",
	"control_latency_ms",
	"variant_latency_ms",
	"latency_diff_ms",
	"response_length_ratio",
}

// SaveSessionCSV writes the session's results as CSV and returns the file
// path. One row per result, in session (completion) order.
func (s *Store) SaveSessionCSV(sess *model.TestSession) (string, error) {
	path := filepath.Join(s.dir, sessionPrefix+sess.SessionID+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}

	for _, r := range sess.Results {
		record := []string{
			truncate(r.Question, questionColumnLimit),
			fmt.Sprintf("%d", r.Control.TotalTokens()),
			fmt.Sprintf("%d", r.Variant.TotalTokens()),
			fmt.Sprintf("%d", r.TokenOverhead()),
			fmt.Sprintf("%.2f", r.Control.LatencyMS),
			fmt.Sprintf("%.2f", r.Variant.LatencyMS),
			fmt.Sprintf("%.2f", r.LatencyDiffMS()),
			fmt.Sprintf("%.2f", r.ResponseLengthRatio()),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
