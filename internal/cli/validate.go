package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/table"
)

// ValidationReport is the machine-readable validate output.
type ValidationReport struct {
	TableID  string        `json:"tableId"`
	Valid    bool          `json:"valid"`
	Errors   []table.Issue `json:"errors,omitempty"`
	Warnings []table.Issue `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var dataPath string

	cmd := &cobra.Command{
		Use:   "validate <definition.yaml>",
		Short: "Validate a table definition, optionally with a data snapshot",
		Long: `Validate a table definition against the field-type defaults.

Checks that every column resolves to a known type, that calculated
columns carry a formula, that list columns carry options, and that the
row limits are coherent. With --data, the snapshot is loaded into the
table and cell validation runs too: required-empty cells and custom rule
violations are errors, format mismatches are warnings. Warnings never
fail the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], dataPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "snapshot JSON to validate against the definition")
	return cmd
}

func runValidate(opts *RootOptions, defPath, dataPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	def, err := LoadDefinition(defPath)
	if err != nil {
		_ = formatter.Error(ErrCodeDefinition, err.Error(), nil)
		return WrapExitError(ExitCommandError, "definition load failed", err)
	}
	defaults, err := loadDefaults(def, opts.Schema)
	if err != nil {
		_ = formatter.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitCommandError, "schema load failed", err)
	}

	// Construction runs the full normalization; a bad definition fails
	// here with the offending column in the error.
	tbl, _, err := buildTable(def, defaults, nil)
	if err != nil {
		_ = formatter.Error(ErrCodeDefinition, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid definition", err)
	}
	formatter.VerboseLog("Definition %s: %d column(s) normalized", def.TableID, len(tbl.Columns()))

	report := ValidationReport{TableID: def.TableID, Valid: true}
	if dataPath != "" {
		if err := importSnapshotFile(tbl, dataPath); err != nil {
			_ = formatter.Error(ErrCodeSnapshot, err.Error(), nil)
			return WrapExitError(ExitCommandError, "snapshot load failed", err)
		}
		res := tbl.Validate()
		report.Valid = res.Valid
		report.Errors = res.Errors
		report.Warnings = res.Warnings
	}

	return outputValidation(formatter, report)
}

func outputValidation(formatter *OutputFormatter, report ValidationReport) error {
	if formatter.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
		if !report.Valid {
			return NewExitError(ExitFailure,
				fmt.Sprintf("validation failed with %d error(s)", len(report.Errors)))
		}
		return nil
	}

	if report.Valid {
		fmt.Fprintln(formatter.Writer, color.GreenString("✓ %s is valid", report.TableID))
	} else {
		fmt.Fprintln(formatter.Writer, color.RedString("✗ %s failed validation", report.TableID))
	}
	for _, issue := range report.Errors {
		fmt.Fprintf(formatter.Writer, "  %s linha %d, %s: %s\n",
			color.RedString("erro"), issue.RowIndex+1, issue.ColumnName, issue.Message)
	}
	for _, issue := range report.Warnings {
		fmt.Fprintf(formatter.Writer, "  %s linha %d, %s: %s\n",
			color.YellowString("aviso"), issue.RowIndex+1, issue.ColumnName, issue.Message)
	}

	if !report.Valid {
		return NewExitError(ExitFailure,
			fmt.Sprintf("validation failed with %d error(s)", len(report.Errors)))
	}
	return nil
}
