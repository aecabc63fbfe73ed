package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/reporter"
)

// listCmd lists the stored results
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results",
	Long: `List stored results, oldest first, with their counters.

Any unique prefix of an id can be used wherever a result reference is
expected, as can "latest" and "previous".

Example:
  preupg-results list
  preupg-results list --format json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// deleteCmd removes a stored result
var deleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a stored result",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

// ListItem is one stored result in list output
type ListItem struct {
	ID       string          `json:"id"`
	Hostname string          `json:"hostname"`
	Finished string          `json:"finished"`
	Codec    string          `json:"codec"`
	Counters models.Counters `json:"counters"`
}

func runList(cmd *cobra.Command, args []string) error {
	if err := checkFormat(cfg.Format, "text", "json", "both"); err != nil {
		return err
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

	items := make([]ListItem, 0, len(entries))
	for _, e := range entries {
		item := ListItem{ID: e.ID, Finished: e.Finished.Format("2006-01-02 15:04:05"), Codec: e.Codec}
		r, err := store.LoadResult(e.ID)
		if err != nil {
			logVerbose("Skipping unreadable result %s: %v", e.ID, err)
		} else {
			item.Hostname = r.Hostname
			item.Counters = r.Counters
		}
		items = append(items, item)
	}

	if cfg.Format == "json" {
		return reporter.NewJSONReporter(os.Stdout, true).Generate(items)
	}

	printList(items)
	return nil
}

func printList(items []ListItem) {
	if len(items) == 0 {
		fmt.Println("No stored results found.")
		fmt.Println("Run 'preupg-results import <report>' to store your first result.")
		return
	}

	fmt.Printf("%-36s  %-19s  %-24s  %5s  %6s  %3s  %3s\n", "ID", "FINISHED", "HOST", "TESTS", "FAILED", "NI", "NA")
	for _, it := range items {
		c := it.Counters
		fmt.Printf("%-36s  %-19s  %-24s  %5d  %6d  %3d  %3d\n",
			it.ID, it.Finished, truncateText(it.Hostname, 24), c.Tests, c.Failed, c.NeedsInspection, c.NotApplicable)
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	entry, err := store.Delete(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %s (%s)\n", entry.ID, entry.Path)
	return nil
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
