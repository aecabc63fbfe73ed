package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/config"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/logging"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/policy"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/validator"
)

const (
	ExitOK           = 0 // Success
	ExitPolicyFail   = 1 // Policy violated or differences found with --fail-on-diff
	ExitInvalidInput = 2 // Unparsable report, broken tree or unknown state
	ExitRuntimeError = 3 // I/O, permissions, or runtime error
)

var (
	// Global config instance
	cfg *config.Config

	// Shared logger, rebuilt from the logging config before every command
	logger = logging.New(config.DefaultConfig().Logging)

	// buildVersion is set from main via SetVersion
	buildVersion = "dev"

	// Global flags
	configFile     string
	storageDirFlag string
	formatFlag     string
	verbose        bool
	debug          bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "preupg-results",
	Short: "Aggregate and compare preupgrade assessment results",
	Long: `preupg-results imports preupgrade assessment reports, rolls test outcomes
up the group tree and compares results of two scans.

It provides:
- Per-group counters of tests, failures, inspections and non-applicable tests
- Test-by-test comparison of two results
- Required actions ordered by risk
- Trends across stored results and policy gates for CI

Quick start:
  preupg-results init
  preupg-results import ./result.xml
  preupg-results show
  preupg-results compare previous latest

Other commands:
  preupg-results list
  preupg-results summarize --last 7
  preupg-results export --format csv -o tests.csv`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := applyOverrides(cfg); err != nil {
			return err
		}

		logger = logging.New(cfg.Logging)
		logging.Apply(logger, cfg.Verbose, cfg.Debug)

		logDebug("Config: storage_dir=%s codec=%s format=%s unknown_state_policy=%s",
			cfg.StorageDir, cfg.StorageCodec, cfg.Format, cfg.UnknownStatePolicy)
		return nil
	},
}

// Execute runs the root command and exits with the mapped exit code
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := HandleError(rootCmd.ExecuteContext(ctx))
	stop()
	os.Exit(code)
}

// SetVersion records the version reported by the version command
func SetVersion(v string) {
	buildVersion = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./preupg-results.yaml, ~/preupg-results.yaml or $XDG_CONFIG_HOME/preupg-results/preupg-results.yaml)")
	rootCmd.PersistentFlags().StringVar(&storageDirFlag, "storage-dir", "",
		"storage directory (default from config)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "",
		"output format: text, json, or both (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"debug mode (very verbose)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// applyOverrides layers command line flags over the loaded configuration.
// Flags win over PREUPG_* variables, which win over the config file.
func applyOverrides(c *config.Config) error {
	file := configSource(c)
	env := config.EnvSource{Prefix: config.EnvPrefix}

	c.StorageDir = config.Resolve("storage_dir", config.Value(storageDirFlag), env, file)
	c.Format = config.Resolve("format", config.Value(formatFlag), env, file)

	if v := config.Resolve("verbose", boolFlag(verbose), env, file); v != "" {
		c.Verbose, _ = strconv.ParseBool(v)
	}
	if v := config.Resolve("debug", boolFlag(debug), env, file); v != "" {
		c.Debug, _ = strconv.ParseBool(v)
	}

	if err := c.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// configSource exposes the loaded config values to config.Resolve
func configSource(c *config.Config) config.Source {
	return config.MapSource{
		"storage_dir": c.StorageDir,
		"format":      c.Format,
		"verbose":     strconv.FormatBool(c.Verbose),
		"debug":       strconv.FormatBool(c.Debug),
	}
}

// boolFlag only yields a value when the flag is set, so an unset flag falls
// through to the next source
func boolFlag(set bool) config.Source {
	if !set {
		return config.Value("")
	}
	return config.Value("true")
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("preupg-results %s\n", buildVersion)
		fmt.Println("Preupgrade assessment result aggregator")
	},
}

// HandleError determines the appropriate exit code for an error
func HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		validationErr *ValidationError
		reportErr     *validator.ValidationError
		policyErr     *PolicyError
		diffErr       *DifferencesFoundError
	)
	switch {
	case errors.As(err, &policyErr), errors.As(err, &diffErr):
		return ExitPolicyFail
	case errors.As(err, &validationErr),
		errors.As(err, &reportErr),
		errors.Is(err, models.ErrStructuralIntegrity),
		errors.Is(err, models.ErrUnknownState):
		return ExitInvalidInput
	default:
		return ExitRuntimeError
	}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PolicyError is returned when a result or comparison violates the policy
type PolicyError struct {
	Violations []policy.Violation
}

func (e *PolicyError) Error() string {
	if len(e.Violations) == 1 {
		return "policy check failed: " + e.Violations[0].Message
	}
	return fmt.Sprintf("policy check failed: %d violations", len(e.Violations))
}

// DifferencesFoundError is returned by compare --fail-on-diff
type DifferencesFoundError struct {
	Count int
}

func (e *DifferencesFoundError) Error() string {
	return fmt.Sprintf("%d discrepancies found", e.Count)
}

// logVerbose logs at info level, shown with --verbose
func logVerbose(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// logDebug logs at debug level, shown with --debug
func logDebug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// logError logs an error
func logError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// fieldLogger hands the shared logger to packages taking a logrus.FieldLogger
func fieldLogger(fields logrus.Fields) logrus.FieldLogger {
	return logger.WithFields(fields)
}
