package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/config"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/policy"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/validator"
)

// --- Test helpers ---

// captureStdout runs fn and returns whatever it printed to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	fn()

	_ = w.Close()
	os.Stdout = old
	return string(<-done)
}

// withTestConfig sets the global cfg for the duration of the test.
func withTestConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

// withTestLogger routes the shared logger into a buffer.
func withTestLogger(t *testing.T, level logrus.Level) *bytes.Buffer {
	t.Helper()
	old := logger
	var buf bytes.Buffer
	logger = logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	t.Cleanup(func() { logger = old })
	return &buf
}

// testConfig returns the default config storing into dir.
func testConfig(dir string) *config.Config {
	c := config.DefaultConfig()
	c.StorageDir = dir
	return c
}

// --- HandleError tests ---

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"validation", &ValidationError{Message: "bad input"}, ExitInvalidInput},
		{"report validation", fmt.Errorf("a.xml: %w", &validator.ValidationError{Source: "a.xml"}), ExitInvalidInput},
		{"structural", fmt.Errorf("comparison unavailable: %w", &models.StructuralIntegrityError{ResultID: "r", Reason: "x"}), ExitInvalidInput},
		{"unknown state", &models.UnknownStateError{IDRef: "t", State: "weird"}, ExitInvalidInput},
		{"policy", &PolicyError{}, ExitPolicyFail},
		{"differences", &DifferencesFoundError{Count: 2}, ExitPolicyFail},
		{"not exist", os.ErrNotExist, ExitRuntimeError},
		{"permission", os.ErrPermission, ExitRuntimeError},
		{"generic", errors.New("something went wrong"), ExitRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := HandleError(tt.err); code != tt.want {
				t.Errorf("HandleError(%v) = %d, want %d", tt.err, code, tt.want)
			}
		})
	}
}

// --- Error type tests ---

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Message: "invalid schema"}
	if err.Error() != "invalid schema" {
		t.Errorf("ValidationError.Error() = %q, want %q", err.Error(), "invalid schema")
	}
}

func TestPolicyErrorMessage(t *testing.T) {
	one := &PolicyError{Violations: []policy.Violation{{Rule: "max_failed", Message: "failed 3 exceeds limit 0"}}}
	if want := "policy check failed: failed 3 exceeds limit 0"; one.Error() != want {
		t.Errorf("PolicyError.Error() = %q, want %q", one.Error(), want)
	}

	two := &PolicyError{Violations: []policy.Violation{{Rule: "a"}, {Rule: "b"}}}
	if want := "policy check failed: 2 violations"; two.Error() != want {
		t.Errorf("PolicyError.Error() = %q, want %q", two.Error(), want)
	}
}

func TestDifferencesFoundErrorMessage(t *testing.T) {
	err := &DifferencesFoundError{Count: 3}
	if want := "3 discrepancies found"; err.Error() != want {
		t.Errorf("DifferencesFoundError.Error() = %q, want %q", err.Error(), want)
	}
}

// --- SetVersion tests ---

func TestSetVersion(t *testing.T) {
	old := buildVersion
	t.Cleanup(func() { buildVersion = old })

	SetVersion("1.2.3")
	if buildVersion != "1.2.3" {
		t.Errorf("buildVersion = %q, want %q", buildVersion, "1.2.3")
	}

	output := captureStdout(t, func() {
		versionCmd.Run(versionCmd, nil)
	})
	if !strings.Contains(output, "preupg-results 1.2.3") {
		t.Errorf("version output = %q", output)
	}
}

// --- Override tests ---

func withFlags(t *testing.T, storageDir, format string, verboseSet bool) {
	t.Helper()
	oldDir, oldFormat, oldVerbose, oldDebug := storageDirFlag, formatFlag, verbose, debug
	t.Cleanup(func() {
		storageDirFlag, formatFlag, verbose, debug = oldDir, oldFormat, oldVerbose, oldDebug
	})
	storageDirFlag, formatFlag, verbose, debug = storageDir, format, verboseSet, false
}

func TestApplyOverridesFlagsWin(t *testing.T) {
	t.Setenv("PREUPG_FORMAT", "json")
	withFlags(t, "/from/flag", "both", true)

	c := config.DefaultConfig()
	if err := applyOverrides(c); err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}
	if c.StorageDir != "/from/flag" {
		t.Errorf("StorageDir = %q, want /from/flag", c.StorageDir)
	}
	if c.Format != "both" {
		t.Errorf("Format = %q, want both", c.Format)
	}
	if !c.Verbose {
		t.Error("expected verbose from flag")
	}
}

func TestApplyOverridesFallThrough(t *testing.T) {
	t.Setenv("PREUPG_FORMAT", "json")
	t.Setenv("PREUPG_STORAGE_DIR", "")
	withFlags(t, "", "", false)

	c := config.DefaultConfig()
	c.StorageDir = "/from/file"
	c.Debug = true
	if err := applyOverrides(c); err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}
	if c.StorageDir != "/from/file" {
		t.Errorf("StorageDir = %q, want /from/file", c.StorageDir)
	}
	if c.Format != "json" {
		t.Errorf("Format = %q, want json from env", c.Format)
	}
	if c.Verbose || !c.Debug {
		t.Errorf("unexpected verbose=%v debug=%v", c.Verbose, c.Debug)
	}
}

func TestApplyOverridesInvalid(t *testing.T) {
	withFlags(t, "", "yaml", false)

	err := applyOverrides(config.DefaultConfig())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// --- Logging tests ---

func TestLogVerboseEnabled(t *testing.T) {
	buf := withTestLogger(t, logrus.InfoLevel)

	logVerbose("test %s", "message")

	if !strings.Contains(buf.String(), "level=info") || !strings.Contains(buf.String(), "test message") {
		t.Errorf("logVerbose output = %q, want info entry with 'test message'", buf.String())
	}
}

func TestLogVerboseDisabled(t *testing.T) {
	buf := withTestLogger(t, logrus.WarnLevel)

	logVerbose("should not appear")

	if buf.Len() > 0 {
		t.Errorf("logVerbose at warn level should produce no output, got %q", buf.String())
	}
}

func TestLogDebugEnabled(t *testing.T) {
	buf := withTestLogger(t, logrus.DebugLevel)

	logDebug("debug %d", 42)

	if !strings.Contains(buf.String(), "level=debug") || !strings.Contains(buf.String(), "debug 42") {
		t.Errorf("logDebug output = %q, want debug entry", buf.String())
	}
}

func TestLogErrorAlwaysPrints(t *testing.T) {
	buf := withTestLogger(t, logrus.WarnLevel)

	logError("fail %s", "now")

	if !strings.Contains(buf.String(), "level=error") || !strings.Contains(buf.String(), "fail now") {
		t.Errorf("logError output = %q, want error entry", buf.String())
	}
}

func TestFieldLoggerCarriesFields(t *testing.T) {
	buf := withTestLogger(t, logrus.InfoLevel)

	fieldLogger(logrus.Fields{"component": "collector"}).Info("hello")

	if !strings.Contains(buf.String(), "component=collector") {
		t.Errorf("expected component field, got %q", buf.String())
	}
}
