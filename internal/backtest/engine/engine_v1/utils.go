package engine

import (
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-backtest/internal/report"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// getResultFolder returns <resultsFolder>/<symbol>_<strategy>_<runID>.
func getResultFolder(resultsFolder string, symbol string, strategyName string, runID string) string {
	name := report.ResultFolderName(sanitize(symbol), sanitize(strategyName), runID)

	return filepath.Join(resultsFolder, name)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		default:
			return r
		}
	}, name)
}

// validateBars checks every bar and that timestamps strictly increase.
// The error names the offending bar index and field.
func validateBars(bars []types.Bar) error {
	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidBarSequence, err, "bar %d at %s", i, bar.Time.Format("2006-01-02T15:04:05Z07:00"))
		}

		if i > 0 && !bar.Time.After(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidBarSequence,
				"bar %d: field time %s is not after bar %d at %s",
				i, bar.Time.Format("2006-01-02T15:04:05Z07:00"), i-1, bars[i-1].Time.Format("2006-01-02T15:04:05Z07:00"))
		}
	}

	return nil
}
