package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/collector"
)

var (
	// Import command flags
	importStore bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <path>...",
	Short: "Import assessment reports and store the aggregated results",
	Long: `Import XCCDF result documents produced by the preupgrade assessment, or
results previously exported by this tool, and store them for comparison.

The command will:
1. Scan the path(s) for .xml, .json and .cbor files
2. Detect and parse each report
3. Validate the group tree and aggregate the counters of every group
4. Store each result under a new identifier

Tests with a state outside the known set fail the import unless
unknown_state_policy is set to quarantine. Real preupgrade output may
carry notchecked or fixed rule results; set unknown_state_policy:
quarantine in the config to import such reports.

Example:
  preupg-results import ./result.xml
  preupg-results import ./reports/
  preupg-results import ./result.xml --store=false --verbose`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importStore, "store", true,
		"store aggregated results")
}

func runImport(cmd *cobra.Command, args []string) error {
	logVerbose("Importing reports from: %s", strings.Join(args, ", "))

	c, err := newCollector()
	if err != nil {
		return err
	}

	batch, err := c.CollectFromPaths(commandContext(cmd), args)
	if batch != nil {
		for _, f := range batch.Failed {
			logError("Failed to import %s: %v", f.Source, f.Err)
		}
	}
	if err != nil {
		return err
	}

	logVerbose("Imported %d of %d files", len(batch.Imported), len(batch.Imported)+len(batch.Failed))

	if importStore {
		store, err := openStore()
		if err != nil {
			return err
		}
		for _, imp := range batch.Imported {
			entry, err := store.SaveResult(imp.Result)
			if err != nil {
				logError("Failed to store %s: %v", imp.Source, err)
				return err
			}
			logDebug("Stored %s at %s", entry.ID, entry.Path)
		}
	}

	printImported(batch.Imported)

	if len(batch.Failed) > 0 {
		return &ValidationError{
			Message: fmt.Sprintf("%d of %d files failed to import", len(batch.Failed), len(batch.Imported)+len(batch.Failed)),
		}
	}
	return nil
}

func printImported(imported []collector.Imported) {
	for _, imp := range imported {
		r := imp.Result
		c := r.Counters
		fmt.Printf("%s  %s  tests=%d failed=%d needs_inspection=%d not_applicable=%d  (%s)\n",
			r.ID, r.Hostname, c.Tests, c.Failed, c.NeedsInspection, c.NotApplicable, imp.Source)
		if len(r.Quarantined) > 0 {
			fmt.Printf("  quarantined: %s\n", strings.Join(r.Quarantined, ", "))
		}
	}
}

// commandContext returns the command context, or a background context when
// the command is invoked directly
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
