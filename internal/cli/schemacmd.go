package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/schema"
)

// SchemaSummary is the machine-readable schema output.
type SchemaSummary struct {
	FieldTypes []string            `json:"fieldTypes"`
	Options    schema.TableOptions `json:"tableOptions"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <defaults.json>",
		Short: "Validate a field-type defaults file",
		Long: `Parse and validate a field-type defaults file.

The file is checked against the embedded schema constraints: known
total types, well-formed currency codes, sane row limits. On success
the available field types and table-wide option defaults are listed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSchema(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	defaults, err := schema.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitFailure, "schema invalid", err)
	}

	names := make([]string, 0, len(defaults.FieldTypes))
	for name := range defaults.FieldTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	summary := SchemaSummary{FieldTypes: names, Options: defaults.TableOptions}
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintln(formatter.Writer, color.GreenString("✓ schema valid"))
	fmt.Fprintf(formatter.Writer, "field types (%d):\n", len(names))
	for _, name := range names {
		ft := defaults.FieldTypes[name]
		fmt.Fprintf(formatter.Writer, "  %-12s html=%s", name, ft.HTMLType)
		if ft.Locale != "" {
			fmt.Fprintf(formatter.Writer, " locale=%s", ft.Locale)
		}
		if ft.Currency != "" {
			fmt.Fprintf(formatter.Writer, " currency=%s", ft.Currency)
		}
		fmt.Fprintln(formatter.Writer)
	}
	fmt.Fprintf(formatter.Writer, "defaults: saveDelay=%dms maxRows=%d totalType=%s\n",
		summary.Options.SaveDelayMS, summary.Options.MaxRows, summary.Options.TotalType)
	return nil
}
