package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/policy"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/reporter"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/storage"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/tui"
)

var (
	compareOutput      string
	comparePolicy      string
	compareFailOnDiff  bool
	compareInteractive bool
	compareKind        string
)

var compareCmd = &cobra.Command{
	Use:   "compare [left] [right]",
	Short: "Show test-by-test differences between two results",
	Long: `Compare two results test by test. Tests are matched by their identifier,
so results of different hosts or content versions can be compared.

Each side is a stored result reference (an id, a unique id prefix, "latest"
or "previous") or the path of a report file, which is imported without
being stored. Without arguments the previous stored result is compared with
the latest one.

Differences are reported as:
  left only    test present only in the left result
  right only   test present only in the right result
  mismatch     test present in both with different states

Exit codes:
  0  Comparison done (or no differences with --fail-on-diff)
  1  Differences found with --fail-on-diff, or policy violated
  2  One of the results is corrupt, comparison unavailable

Example:
  preupg-results compare
  preupg-results compare 3f2a9c1e latest --fail-on-diff
  preupg-results compare before.xml after.xml --format json
  preupg-results compare previous latest --interactive`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "",
		"write output to file instead of stdout")
	compareCmd.Flags().StringVar(&comparePolicy, "policy", "",
		"policy file (default: nearest .preupg-policy.yaml)")
	compareCmd.Flags().BoolVar(&compareFailOnDiff, "fail-on-diff", false,
		"exit 1 if any difference is found (for CI gating)")
	compareCmd.Flags().BoolVarP(&compareInteractive, "interactive", "i", false,
		"browse differences in an interactive table (requires a terminal)")
	compareCmd.Flags().StringVar(&compareKind, "kind", "",
		"only report one kind: left_only, right_only or mismatch")
}

func runCompare(cmd *cobra.Command, args []string) error {
	if err := checkFormat(cfg.Format, "text", "json", "both"); err != nil {
		return err
	}
	if err := checkKind(compareKind); err != nil {
		return err
	}

	leftRef, rightRef := storage.RefPrevious, storage.RefLatest
	switch len(args) {
	case 1:
		leftRef = args[0]
	case 2:
		leftRef, rightRef = args[0], args[1]
	}

	left, right, err := loadSides(commandContext(cmd), leftRef, rightRef)
	if err != nil {
		logError("Failed to load results: %v", err)
		return err
	}

	logVerbose("Comparing %s (%s) with %s (%s)", left.ID, left.Hostname, right.ID, right.Hostname)

	report, err := compare.NewReport(left, right)
	if err != nil {
		return fmt.Errorf("comparison unavailable: %w", err)
	}
	if compareKind != "" {
		report.Discrepancies = compare.FilterKind(report.Discrepancies, compare.Kind(compareKind))
	}

	for _, id := range report.Summary.LeftDuplicates {
		logVerbose("Left result has duplicate test %s, first right occurrence used", id)
	}
	for _, id := range report.Summary.RightDuplicates {
		logVerbose("Right result has duplicate test %s, first occurrence used", id)
	}

	pol, err := loadPolicy(comparePolicy)
	if err != nil {
		return err
	}
	var verdict *policy.Result
	if pol != nil {
		verdict = pol.EvaluateComparison(report)
	}

	if compareInteractive {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if err := tui.Run(report); err != nil {
				return fmt.Errorf("interactive view failed: %w", err)
			}
		} else {
			logVerbose("Standard output is not a terminal, printing the report instead")
			compareInteractive = false
		}
	}
	if !compareInteractive {
		if err := writeComparison(report, verdict, cfg.Format, compareOutput); err != nil {
			return err
		}
	}

	if verdict != nil && !verdict.Pass {
		return &PolicyError{Violations: verdict.Violations}
	}
	if compareFailOnDiff && !report.Identical() {
		return &DifferencesFoundError{Count: len(report.Discrepancies)}
	}
	return nil
}

// loadSides loads both results. Stored results are read concurrently;
// report files are imported on the fly.
func loadSides(ctx context.Context, leftRef, rightRef string) (*models.Result, *models.Result, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	if !isFile(leftRef) && !isFile(rightRef) {
		return store.LoadPair(ctx, leftRef, rightRef)
	}

	left, err := loadSide(ctx, store, leftRef)
	if err != nil {
		return nil, nil, fmt.Errorf("left %s: %w", leftRef, err)
	}
	right, err := loadSide(ctx, store, rightRef)
	if err != nil {
		return nil, nil, fmt.Errorf("right %s: %w", rightRef, err)
	}
	return left, right, nil
}

func loadSide(ctx context.Context, store *storage.LocalStorage, ref string) (*models.Result, error) {
	if !isFile(ref) {
		return store.LoadResult(ref)
	}

	c, err := newCollector()
	if err != nil {
		return nil, err
	}
	batch, err := c.CollectFromPaths(ctx, []string{ref})
	if err != nil {
		return nil, err
	}
	if len(batch.Imported) != 1 {
		return nil, &ValidationError{Message: fmt.Sprintf("%s holds %d results, expected 1", ref, len(batch.Imported))}
	}
	return batch.Imported[0].Result, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func checkKind(kind string) error {
	switch compare.Kind(kind) {
	case "", compare.LeftOnly, compare.RightOnly, compare.Mismatch:
		return nil
	}
	return &ValidationError{Message: fmt.Sprintf("unsupported kind: %s (use left_only, right_only or mismatch)", kind)}
}

func writeComparison(report *compare.Report, verdict *policy.Result, format, outputPath string) error {
	writer, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "text":
		return reporter.NewTextReporter(writer).GenerateComparison(report, verdict)
	case "json":
		return reporter.NewJSONReporter(writer, true).GenerateComparison(report, verdict)
	case "both":
		if err := reporter.NewTextReporter(writer).GenerateComparison(report, verdict); err != nil {
			return err
		}
		if outputPath == "" {
			fmt.Fprintln(writer)
			fmt.Fprintln(writer, "--- JSON Output ---")
		}
		return reporter.NewJSONReporter(writer, true).GenerateComparison(report, verdict)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
