package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/aggregator"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/reporter"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/storage"
)

var (
	// Show command flags
	showOutput string
	showTests  bool
	showPolicy string
)

// showCmd renders one stored result
var showCmd = &cobra.Command{
	Use:   "show [ref]",
	Short: "Show a stored result with its group counters",
	Long: `Show a stored result: summary counters, the group tree with the counters
of every group, required actions ordered by risk and the trend against the
result stored before it.

When a policy file is given, or .preupg-policy.yaml is found in the current
directory or a parent, the result is checked against it and the command
exits with code 1 on violations.

Example:
  preupg-results show
  preupg-results show 3f2a9c1e --tests
  preupg-results show latest --format json -o result.json
  preupg-results show --policy ci-policy.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "",
		"output file path (default: stdout)")
	showCmd.Flags().BoolVar(&showTests, "tests", false,
		"list every test under its group")
	showCmd.Flags().StringVar(&showPolicy, "policy", "",
		"policy file (default: nearest .preupg-policy.yaml)")
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := checkFormat(cfg.Format, "text", "json", "both"); err != nil {
		return err
	}

	ref := storage.RefLatest
	if len(args) == 1 {
		ref = args[0]
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	result, err := store.LoadResult(ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("No stored result found. Run 'preupg-results import <report>' first.")
		}
		return err
	}

	view := reporter.ResultView{
		Result:       result,
		Remediations: aggregator.NewRemediationPlanner().Plan(result),
		ShowTests:    showTests,
	}

	previous, err := previousOf(store, result.ID)
	if err != nil {
		return err
	}
	if previous != nil {
		logVerbose("Comparing with previous result %s", previous.ID)
		view.Trend = aggregator.NewTrendAnalyzer().CalculateTrend(result, previous)
	}

	pol, err := loadPolicy(showPolicy)
	if err != nil {
		return err
	}
	if pol != nil {
		view.Policy = pol.Evaluate(result)
	}

	if err := writeResult(view, cfg.Format, showOutput); err != nil {
		return err
	}

	if view.Policy != nil && !view.Policy.Pass {
		return &PolicyError{Violations: view.Policy.Violations}
	}
	return nil
}

// previousOf loads the result stored just before id, or nil if there is none
func previousOf(store *storage.LocalStorage, id string) (*models.Result, error) {
	entries, err := store.ListResults()
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		if e.ID != id {
			continue
		}
		if i == 0 {
			return nil, nil
		}
		return store.LoadResult(entries[i-1].ID)
	}
	return nil, nil
}

func writeResult(view reporter.ResultView, format, outputPath string) error {
	writer, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "text":
		return reporter.NewTextReporter(writer).GenerateResult(view)
	case "json":
		return reporter.NewJSONReporter(writer, true).GenerateResult(view)
	case "both":
		if err := reporter.NewTextReporter(writer).GenerateResult(view); err != nil {
			return err
		}
		if outputPath == "" {
			fmt.Fprintln(writer)
			fmt.Fprintln(writer, "--- JSON Output ---")
		}
		return reporter.NewJSONReporter(writer, true).GenerateResult(view)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
