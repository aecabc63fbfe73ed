package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/config"
)

var (
	initPath  string
	initForce bool
)

// initCmd writes a sample configuration file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write a commented sample configuration file.

The file goes to $XDG_CONFIG_HOME/preupg-results/preupg-results.yaml when
XDG_CONFIG_HOME is set, otherwise to ~/preupg-results.yaml.

Example:
  preupg-results init
  preupg-results init --path ./preupg-results.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", "",
		"where to write the config file")
	initCmd.Flags().BoolVar(&initForce, "force", false,
		"overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initPath
	if path == "" {
		path = config.ConfigPath()
	}

	if err := config.WriteSampleConfig(path, initForce); err != nil {
		logError("Failed to write config: %v", err)
		return err
	}

	fmt.Printf("Wrote sample configuration to %s\n", path)
	return nil
}
