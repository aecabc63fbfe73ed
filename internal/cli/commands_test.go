package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/aggregator"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/compare"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/storage"
)

const xccdfFixture = "../ingest/testdata/result.xml"

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type leaf struct {
	id    string
	state models.State
}

// storedResult builds an aggregated two-level result finished at baseTime+offset
func storedResult(t *testing.T, id string, offset time.Duration, leaves ...leaf) *models.Result {
	t.Helper()
	finished := baseTime.Add(offset)
	b := models.NewBuilder(models.Result{ID: id, Hostname: "host-" + id, Finished: finished})
	system := b.AddGroup(models.TestGroup{XCCDFID: "system", Title: "System"}, models.NoParent)
	kernel := b.AddGroup(models.TestGroup{XCCDFID: "kernel", Title: "Kernel"}, system)
	for _, l := range leaves {
		b.AddTest(kernel, models.Test{IDRef: l.id, Title: "Check " + l.id, FixText: "fix " + l.id}, l.state, finished)
	}
	r, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	agg, err := aggregator.New(aggregator.Options{}).Aggregate(r)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	return agg
}

// setupTestStorage creates a temp dir holding the given results and points
// the global config at it.
func setupTestStorage(t *testing.T, results ...*models.Result) string {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewLocal(dir)
	for _, r := range results {
		if _, err := store.SaveResult(r); err != nil {
			t.Fatalf("SaveResult: %v", err)
		}
	}
	withTestConfig(t, testConfig(dir))
	withTestLogger(t, logrus.WarnLevel)
	return dir
}

func twoResults(t *testing.T) (*models.Result, *models.Result) {
	left := storedResult(t, "aaaa1111", 0,
		leaf{"t1", models.StatePass},
		leaf{"t2", models.StateFail},
		leaf{"t3", models.StatePass},
	)
	right := storedResult(t, "bbbb2222", time.Hour,
		leaf{"t1", models.StateFail},
		leaf{"t2", models.StateFail},
		leaf{"t4", models.StateNeedsInspection},
	)
	return left, right
}

func resetCompareFlags(t *testing.T) {
	t.Helper()
	o, p, f, i, k := compareOutput, comparePolicy, compareFailOnDiff, compareInteractive, compareKind
	t.Cleanup(func() {
		compareOutput, comparePolicy, compareFailOnDiff, compareInteractive, compareKind = o, p, f, i, k
	})
	compareOutput, comparePolicy, compareFailOnDiff, compareInteractive, compareKind = "", "", false, false, ""
}

func resetShowFlags(t *testing.T) {
	t.Helper()
	o, s, p := showOutput, showTests, showPolicy
	t.Cleanup(func() { showOutput, showTests, showPolicy = o, s, p })
	showOutput, showTests, showPolicy = "", false, ""
}

// chdirTemp isolates policy file discovery from the repository tree.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- import ---

func TestRunImportXCCDF(t *testing.T) {
	fixture, err := filepath.Abs(xccdfFixture)
	if err != nil {
		t.Fatal(err)
	}
	dir := setupTestStorage(t)
	oldStore := importStore
	t.Cleanup(func() { importStore = oldStore })
	importStore = true

	output := captureStdout(t, func() {
		if err := runImport(nil, []string{fixture}); err != nil {
			t.Fatalf("runImport: %v", err)
		}
	})

	if !strings.Contains(output, "host1.example.com") {
		t.Errorf("expected hostname in output, got %q", output)
	}
	if !strings.Contains(output, "tests=4 failed=1 needs_inspection=1 not_applicable=1") {
		t.Errorf("expected counters in output, got %q", output)
	}

	entries, err := storage.NewLocal(dir).ListResults()
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stored result, got %d", len(entries))
	}
}

func TestRunImportNoStore(t *testing.T) {
	dir := setupTestStorage(t)
	oldStore := importStore
	t.Cleanup(func() { importStore = oldStore })
	importStore = false

	captureStdout(t, func() {
		if err := runImport(nil, []string{xccdfFixture}); err != nil {
			t.Fatalf("runImport: %v", err)
		}
	})

	entries, _ := storage.NewLocal(dir).ListResults()
	if len(entries) != 0 {
		t.Errorf("expected nothing stored, got %d", len(entries))
	}
}

func TestRunImportInvalidReport(t *testing.T) {
	setupTestStorage(t)
	bad := filepath.Join(t.TempDir(), "bad.xml")
	if err := os.WriteFile(bad, []byte("<Benchmark><oops"), 0644); err != nil {
		t.Fatal(err)
	}

	var err error
	captureStdout(t, func() {
		err = runImport(nil, []string{bad})
	})
	if err == nil {
		t.Fatal("expected error for unparsable report")
	}
	if code := HandleError(err); code != ExitInvalidInput {
		t.Errorf("exit code = %d, want %d (err: %v)", code, ExitInvalidInput, err)
	}
}

func TestRunImportPartialFailure(t *testing.T) {
	setupTestStorage(t)
	dir := t.TempDir()
	data, err := os.ReadFile(xccdfFixture)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "good.xml"), data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.xml"), []byte("<Benchmark><oops"), 0644); err != nil {
		t.Fatal(err)
	}

	output := captureStdout(t, func() {
		err = runImport(nil, []string{dir})
	})
	var ve *ValidationError
	if !errors.As(err, &ve) || !strings.Contains(ve.Message, "1 of 2 files failed") {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if !strings.Contains(output, "host1.example.com") {
		t.Errorf("good file should still be imported, got %q", output)
	}
}

// --- list / delete ---

func TestRunListEmpty(t *testing.T) {
	setupTestStorage(t)

	output := captureStdout(t, func() {
		if err := runList(nil, nil); err != nil {
			t.Fatalf("runList: %v", err)
		}
	})
	if !strings.Contains(output, "No stored results found.") {
		t.Errorf("unexpected output %q", output)
	}
}

func TestRunList(t *testing.T) {
	left, right := twoResults(t)
	setupTestStorage(t, right, left)

	output := captureStdout(t, func() {
		if err := runList(nil, nil); err != nil {
			t.Fatalf("runList: %v", err)
		}
	})
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", output)
	}
	if !strings.HasPrefix(lines[1], "aaaa1111") || !strings.HasPrefix(lines[2], "bbbb2222") {
		t.Errorf("expected chronological order, got %q", output)
	}
}

func TestRunListJSON(t *testing.T) {
	left, _ := twoResults(t)
	setupTestStorage(t, left)
	cfg.Format = "json"

	output := captureStdout(t, func() {
		if err := runList(nil, nil); err != nil {
			t.Fatalf("runList: %v", err)
		}
	})

	var items []ListItem
	if err := json.Unmarshal([]byte(output), &items); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, output)
	}
	if len(items) != 1 || items[0].Hostname != "host-aaaa1111" || items[0].Counters.Failed != 1 {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestRunDelete(t *testing.T) {
	left, right := twoResults(t)
	dir := setupTestStorage(t, left, right)

	output := captureStdout(t, func() {
		if err := runDelete(nil, []string{"aaaa"}); err != nil {
			t.Fatalf("runDelete: %v", err)
		}
	})
	if !strings.Contains(output, "Deleted aaaa1111") {
		t.Errorf("unexpected output %q", output)
	}

	entries, _ := storage.NewLocal(dir).ListResults()
	if len(entries) != 1 || entries[0].ID != "bbbb2222" {
		t.Errorf("unexpected remaining entries: %+v", entries)
	}
}

// --- show ---

func TestRunShowLatest(t *testing.T) {
	chdirTemp(t)
	left, right := twoResults(t)
	setupTestStorage(t, left, right)
	resetShowFlags(t)

	output := captureStdout(t, func() {
		if err := runShow(nil, nil); err != nil {
			t.Fatalf("runShow: %v", err)
		}
	})

	for _, frag := range []string{"Preupgrade Result", "host-bbbb2222", "Kernel", "Required Actions:", "Trend Analysis"} {
		if !strings.Contains(output, frag) {
			t.Errorf("show output missing %q:\n%s", frag, output)
		}
	}
}

func TestRunShowJSONToFile(t *testing.T) {
	chdirTemp(t)
	left, _ := twoResults(t)
	setupTestStorage(t, left)
	resetShowFlags(t)
	cfg.Format = "json"
	showOutput = filepath.Join(t.TempDir(), "result.json")

	if err := runShow(nil, []string{"aaaa"}); err != nil {
		t.Fatalf("runShow: %v", err)
	}

	data, err := os.ReadFile(showOutput)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc struct {
		Result struct {
			ID string `json:"id"`
		} `json:"result"`
		Remediations []models.Remediation `json:"remediations"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Result.ID != "aaaa1111" {
		t.Errorf("unexpected result id %q", doc.Result.ID)
	}
	if len(doc.Remediations) != 1 || doc.Remediations[0].IDRef != "t2" {
		t.Errorf("unexpected remediations: %+v", doc.Remediations)
	}
}

func TestRunShowPolicyViolation(t *testing.T) {
	chdirTemp(t)
	left, _ := twoResults(t)
	setupTestStorage(t, left)
	resetShowFlags(t)
	showPolicy = writePolicy(t, "version: \"1\"\nrules:\n  max_failed: 0\n")

	var err error
	output := captureStdout(t, func() {
		err = runShow(nil, nil)
	})
	if code := HandleError(err); code != ExitPolicyFail {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, ExitPolicyFail, err)
	}
	if !strings.Contains(output, "FAIL") {
		t.Errorf("expected policy section in output:\n%s", output)
	}
}

func TestRunShowMissingPolicyFile(t *testing.T) {
	chdirTemp(t)
	left, _ := twoResults(t)
	setupTestStorage(t, left)
	resetShowFlags(t)
	showPolicy = filepath.Join(t.TempDir(), "nope.yaml")

	err := runShow(nil, nil)
	if code := HandleError(err); code != ExitInvalidInput {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, ExitInvalidInput, err)
	}
}

func TestRunShowNotFound(t *testing.T) {
	chdirTemp(t)
	setupTestStorage(t)
	resetShowFlags(t)

	var err error
	output := captureStdout(t, func() {
		err = runShow(nil, nil)
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(output, "No stored result found.") {
		t.Errorf("unexpected output %q", output)
	}
}

// --- compare ---

func TestRunCompareDefaults(t *testing.T) {
	chdirTemp(t)
	left, right := twoResults(t)
	setupTestStorage(t, left, right)
	resetCompareFlags(t)

	output := captureStdout(t, func() {
		if err := runCompare(nil, nil); err != nil {
			t.Fatalf("runCompare: %v", err)
		}
	})

	for _, frag := range []string{
		"Result Comparison",
		"Discrepancies: 3   Left only: 1   Right only: 1   Mismatches: 1",
		"t1",
		"- t3",
		"+ t4",
	} {
		if !strings.Contains(output, frag) {
			t.Errorf("compare output missing %q:\n%s", frag, output)
		}
	}
}

func TestRunCompareJSON(t *testing.T) {
	chdirTemp(t)
	left, right := twoResults(t)
	setupTestStorage(t, left, right)
	resetCompareFlags(t)
	cfg.Format = "json"

	output := captureStdout(t, func() {
		if err := runCompare(nil, []string{"bbbb", "aaaa"}); err != nil {
			t.Fatalf("runCompare: %v", err)
		}
	})

	var report compare.Report
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, output)
	}
	if report.Left.ID != "bbbb2222" || report.Right.ID != "aaaa1111" {
		t.Errorf("unexpected sides %s / %s", report.Left.ID, report.Right.ID)
	}
	if report.Summary.Transitions["fail→pass"] != 1 {
		t.Errorf("unexpected transitions %v", report.Summary.Transitions)
	}
}

func TestRunCompareKindFilter(t *testing.T) {
	chdirTemp(t)
	left, right := twoResults(t)
	setupTestStorage(t, left, right)
	resetCompareFlags(t)
	cfg.Format = "json"
	compareKind = string(compare.RightOnly)

	output := captureStdout(t, func() {
		if err := runCompare(nil, nil); err != nil {
			t.Fatalf("runCompare: %v", err)
		}
	})

	var report compare.Report
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(report.Discrepancies) != 1 || report.Discrepancies[0].IDRef != "t4" {
		t.Errorf("expected only t4, got %+v", report.Discrepancies)
	}
}

func TestRunCompareInvalidKind(t *testing.T) {
	setupTestStorage(t)
	resetCompareFlags(t)
	compareKind = "sideways"

	if code := HandleError(runCompare(nil, nil)); code != ExitInvalidInput {
		t.Errorf("exit code = %d, want %d", code, ExitInvalidInput)
	}
}

func TestRunCompareFailOnDiff(t *testing.T) {
	chdirTemp(t)
	left, right := twoResults(t)
	setupTestStorage(t, left, right)
	resetCompareFlags(t)
	compareFailOnDiff = true

	var err error
	captureStdout(t, func() {
		err = runCompare(nil, nil)
	})
	var diffErr *DifferencesFoundError
	if !errors.As(err, &diffErr) || diffErr.Count != 3 {
		t.Fatalf("expected 3 differences, got %v", err)
	}
	if HandleError(err) != ExitPolicyFail {
		t.Errorf("expected exit %d", ExitPolicyFail)
	}
}

func TestRunCompareIdenticalPasses(t *testing.T) {
	chdirTemp(t)
	left, _ := twoResults(t)
	setupTestStorage(t, left)
	resetCompareFlags(t)
	compareFailOnDiff = true

	output := captureStdout(t, func() {
		if err := runCompare(nil, []string{"aaaa", "aaaa"}); err != nil {
			t.Fatalf("runCompare: %v", err)
		}
	})
	if !strings.Contains(output, "No differences found.") {
		t.Errorf("expected no differences:\n%s", output)
	}
}

func TestRunComparePolicy(t *testing.T) {
	chdirTemp(t)
	left, right := twoResults(t)
	setupTestStorage(t, left, right)
	resetCompareFlags(t)
	comparePolicy = writePolicy(t, "version: \"1\"\nrules:\n  max_mismatches: 0\n")

	var err error
	captureStdout(t, func() {
		err = runCompare(nil, nil)
	})
	var pe *PolicyError
	if !errors.As(err, &pe) || len(pe.Violations) != 1 || pe.Violations[0].Rule != "max_mismatches" {
		t.Fatalf("expected max_mismatches violation, got %v", err)
	}
}

func TestRunCompareCorruptResult(t *testing.T) {
	chdirTemp(t)
	left, right := twoResults(t)
	right.Groups[1].Parent = 7
	setupTestStorage(t, left, right)
	resetCompareFlags(t)

	var err error
	captureStdout(t, func() {
		err = runCompare(nil, nil)
	})
	if !errors.Is(err, models.ErrStructuralIntegrity) {
		t.Fatalf("expected structural integrity error, got %v", err)
	}
	if !strings.Contains(err.Error(), "comparison unavailable") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if HandleError(err) != ExitInvalidInput {
		t.Errorf("expected exit %d", ExitInvalidInput)
	}
}

func TestRunCompareNotEnoughResults(t *testing.T) {
	left, _ := twoResults(t)
	setupTestStorage(t, left)
	resetCompareFlags(t)

	err := runCompare(nil, nil)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunCompareReportFiles(t *testing.T) {
	// resolve before chdir, the fixture path is relative to the package
	fixture, err := filepath.Abs(xccdfFixture)
	if err != nil {
		t.Fatal(err)
	}
	chdirTemp(t)
	setupTestStorage(t)
	resetCompareFlags(t)

	output := captureStdout(t, func() {
		if err := runCompare(nil, []string{fixture, fixture}); err != nil {
			t.Fatalf("runCompare: %v", err)
		}
	})
	if !strings.Contains(output, "No differences found.") {
		t.Errorf("same report should not differ:\n%s", output)
	}
}

func TestRunCompareInteractiveWithoutTerminal(t *testing.T) {
	chdirTemp(t)
	left, right := twoResults(t)
	setupTestStorage(t, left, right)
	resetCompareFlags(t)
	compareInteractive = true

	// captureStdout replaces os.Stdout with a pipe, which is NOT a TTY
	// so term.IsTerminal returns false and the TUI is not launched
	output := captureStdout(t, func() {
		if err := runCompare(nil, nil); err != nil {
			t.Fatalf("runCompare: %v", err)
		}
	})
	if !strings.Contains(output, "Result Comparison") {
		t.Errorf("expected text report fallback:\n%s", output)
	}
}

// --- init ---

func TestRunInit(t *testing.T) {
	withTestLogger(t, logrus.PanicLevel)
	oldPath, oldForce := initPath, initForce
	t.Cleanup(func() { initPath, initForce = oldPath, oldForce })
	initPath = filepath.Join(t.TempDir(), "conf", "preupg-results.yaml")
	initForce = false

	output := captureStdout(t, func() {
		if err := runInit(nil, nil); err != nil {
			t.Fatalf("runInit: %v", err)
		}
	})
	if !strings.Contains(output, initPath) {
		t.Errorf("unexpected output %q", output)
	}
	if _, err := os.Stat(initPath); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	if err := runInit(nil, nil); err == nil {
		t.Error("expected error when config exists")
	}
	initForce = true
	captureStdout(t, func() {
		if err := runInit(nil, nil); err != nil {
			t.Errorf("forced runInit: %v", err)
		}
	})
}
