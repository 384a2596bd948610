package cli

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/slipstream/internal/harness"
)

// Golden comparison outcomes reported per scenario.
const (
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenMissing  = "missing"
	GoldenUpdated  = "updated"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden file directory (default: sibling "golden" dir)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run layout scenarios",
		Long: `Run layout scenarios from YAML files against a fresh in-memory store.

Each scenario's expectations and assertions are checked, and its trace is
compared with <golden-dir>/<name>.golden when that file exists. The golden
directory defaults to "golden" next to the scenarios directory, so
testdata/scenarios pairs with testdata/golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)

Examples:
  slipstream test ./testdata/scenarios
  slipstream test ./testdata/scenarios --filter "bootstrap*"
  slipstream test ./testdata/scenarios --update
  slipstream test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default: <scenarios-dir>/../golden)")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	info, err := os.Stat(scenariosDir)
	if err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden")
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	if len(scenarioFiles) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	ctx := commandContext(cmd)
	for _, file := range scenarioFiles {
		formatter.VerboseLog("running %s", file)

		sr := runScenario(ctx, file, goldenDir, opts.Update)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}

		if formatter.Format != "json" {
			writeScenarioText(formatter, sr)
		}
	}

	return reportTestResult(formatter, result)
}

// findScenarioFiles finds all YAML scenario files under dir, in lexical order.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario executes a single scenario and checks it against its golden
// file. Assertion failures and golden mismatches both fail the scenario.
func runScenario(ctx context.Context, file, goldenDir string, update bool) ScenarioResult {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return failedScenario(name, fmt.Sprintf("failed to load scenario: %v", err))
	}
	name = scenario.Name

	result, err := harness.Run(ctx, scenario)
	if err != nil {
		return failedScenario(name, fmt.Sprintf("execution failed: %v", err))
	}

	sr := ScenarioResult{Name: name, Pass: result.Pass, Errors: result.Errors}

	trace, err := harness.MarshalTrace(scenario.Name, result)
	if err != nil {
		return failedScenario(name, err.Error())
	}

	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")
	if update {
		if err := writeGoldenFile(goldenPath, trace); err != nil {
			return failedScenario(name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		sr.Golden = GoldenUpdated
		return sr
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		sr.Golden = GoldenMissing
	case err != nil:
		return failedScenario(name, fmt.Sprintf("failed to read golden file: %v", err))
	case bytes.Equal(want, trace):
		sr.Golden = GoldenMatch
	default:
		sr.Golden = GoldenMismatch
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("trace does not match %s (run with --update to regenerate)", goldenPath))
	}
	return sr
}

func failedScenario(name, message string) ScenarioResult {
	return ScenarioResult{Name: name, Pass: false, Errors: []string{message}}
}

// writeGoldenFile writes trace to path, creating the golden directory.
func writeGoldenFile(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(path, trace, 0o644)
}

func writeScenarioText(f *OutputFormatter, sr ScenarioResult) {
	switch {
	case !sr.Pass:
		fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
	case sr.Golden == GoldenUpdated:
		fmt.Fprintf(f.Writer, "✓ %s (golden updated)\n", sr.Name)
	default:
		fmt.Fprintf(f.Writer, "✓ %s\n", sr.Name)
	}
}

// reportTestResult writes the summary. Any failed scenario is exit code 1.
func reportTestResult(f *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		if f.Format == "json" {
			return f.Success(result)
		}
		fmt.Fprintln(f.Writer)
		fmt.Fprintf(f.Writer, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		fmt.Fprintln(f.Writer, "✓ All scenarios passed")
		return nil
	}

	message := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if f.Format != "json" {
		fmt.Fprintln(f.Writer)
		fmt.Fprintf(f.Writer, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}
	if err := f.Failure(CodeTestFailed, message, result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, message)
}
