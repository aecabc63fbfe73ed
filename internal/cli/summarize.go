package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/aggregator"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/reporter"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/storage"
)

const topActions = 5

var (
	// Summarize command flags
	summarizeLastN   int
	summarizeCompare bool
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Show summary and trends from stored results",
	Long: `Analyze stored results and show how the number of failed tests changes
over time.

This command displays:
- Latest result summary
- Failed test sparkline across the last N results
- Per-host trend comparison
- Top required actions of the latest result

Example:
  preupg-results summarize
  preupg-results summarize --last 7
  preupg-results summarize --compare --format json`,
	Args: cobra.NoArgs,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().IntVarP(&summarizeLastN, "last", "n", 0,
		"number of results to analyze (default from config)")
	summarizeCmd.Flags().BoolVarP(&summarizeCompare, "compare", "c", false,
		"compare latest result with previous")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if err := checkFormat(cfg.Format, "text", "json"); err != nil {
		return err
	}

	lastN := summarizeLastN
	if lastN == 0 {
		lastN = cfg.LastRuns
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	entries, err := store.ListResults()
	if err != nil {
		logError("Failed to list results: %v", err)
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No stored results found.")
		fmt.Println("Run 'preupg-results import <report>' to store your first result.")
		return nil
	}

	logVerbose("Found %d stored results", len(entries))

	if summarizeCompare {
		return runComparisonSummary(store)
	}
	return runTrendSummary(store, lastN)
}

// runComparisonSummary compares the counters of the latest and previous results
func runComparisonSummary(store *storage.LocalStorage) error {
	results, err := store.GetLastN(2)
	if err != nil {
		logError("Failed to load results: %v", err)
		return err
	}

	if len(results) < 2 {
		fmt.Println("Need at least 2 results for comparison.")
		fmt.Println("Run 'preupg-results import <report>' to store more results.")
		return nil
	}

	previous, current := results[0], results[1]
	logVerbose("Comparing %s vs %s", current.ID, previous.ID)

	analyzer := aggregator.NewTrendAnalyzer()
	if cfg.Format == "json" {
		return reporter.NewJSONReporter(os.Stdout, true).Generate(analyzer.CalculateTrend(current, previous))
	}

	fmt.Print(analyzer.GenerateComparisonReport(current, previous))
	return nil
}

// runTrendSummary renders trends across the last N results
func runTrendSummary(store *storage.LocalStorage, lastN int) error {
	results, err := store.GetLastN(lastN)
	if err != nil {
		logError("Failed to load results: %v", err)
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	logVerbose("Analyzing trends across %d results", len(results))

	analyzer := aggregator.NewTrendAnalyzer()
	summary := analyzer.AnalyzeLastNRuns(results)
	if summary == nil {
		fmt.Println("Unable to generate trend summary.")
		return nil
	}

	latest := results[len(results)-1]
	var previous *models.Result
	if len(results) >= 2 {
		previous = results[len(results)-2]
	}

	switch cfg.Format {
	case "json":
		var trend *models.Trend
		if previous != nil {
			trend = analyzer.CalculateTrend(latest, previous)
		}
		return reporter.NewJSONReporter(os.Stdout, true).GenerateTrend(summary, latest, trend)
	default:
		planner := aggregator.NewRemediationPlanner()
		top := planner.Top(planner.Plan(latest), topActions)
		return reporter.NewTextReporter(os.Stdout).GenerateTrend(summary, latest, previous, top)
	}
}
