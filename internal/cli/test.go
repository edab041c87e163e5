package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/harness"
)

// ScenarioOutcome is the per-scenario entry in the test report.
type ScenarioOutcome struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestReport is the machine-readable test output.
type TestReport struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml> [more scenarios...]",
		Short: "Run conformance scenarios",
		Long: `Execute declarative scenarios against the table engine.

Each scenario builds a fresh table, drives it through its action steps
with a deterministic clock, and checks the expectation clause. The
command fails when any scenario's expectations do not hold.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runTest(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	report := TestReport{}
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "scenario load failed", err)
		}
		formatter.VerboseLog("Running scenario %s (%d steps)", scenario.Name, len(scenario.Steps))

		result, err := harness.Run(scenario)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "scenario execution failed", err)
		}

		outcome := ScenarioOutcome{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
		report.Scenarios = append(report.Scenarios, outcome)
		if result.Pass {
			report.Passed++
		} else {
			report.Failed++
		}

		if formatter.Format != "json" {
			printOutcome(formatter, outcome)
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed\n", report.Passed, report.Failed)
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

func printOutcome(formatter *OutputFormatter, outcome ScenarioOutcome) {
	if outcome.Pass {
		fmt.Fprintln(formatter.Writer, color.GreenString("✓ %s", outcome.Name))
		return
	}
	fmt.Fprintln(formatter.Writer, color.RedString("✗ %s", outcome.Name))
	for _, msg := range outcome.Errors {
		fmt.Fprintf(formatter.Writer, "    %s\n", msg)
	}
}
