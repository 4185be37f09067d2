package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pegdyn/pegsim/internal/logger"
	"github.com/pegdyn/pegsim/internal/types"
)

var reportLogger = logger.GetForComponent("reporting")

// WriteRunFiles writes a run's series (and diagnostics, when collected) as
// CSV files under dir, named by run ID. Returns the paths written.
func WriteRunFiles(dir string, result *types.RunResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}

	var written []string

	seriesPath := filepath.Join(dir, fmt.Sprintf("run-%s-series.csv", result.RunID))
	if err := os.WriteFile(seriesPath, []byte(RenderSeriesCSV(result.Points)), 0644); err != nil {
		return nil, fmt.Errorf("writing series CSV: %w", err)
	}
	written = append(written, seriesPath)

	if len(result.Diagnostics) > 0 {
		diagPath := filepath.Join(dir, fmt.Sprintf("run-%s-agents.csv", result.RunID))
		if err := os.WriteFile(diagPath, []byte(RenderDiagnosticsCSV(result.Diagnostics)), 0644); err != nil {
			return nil, fmt.Errorf("writing diagnostics CSV: %w", err)
		}
		written = append(written, diagPath)
	}

	reportLogger.Info().
		Str("runID", result.RunID.String()).
		Strs("files", written).
		Msg("Run results written")
	return written, nil
}
