package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dataPath string
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "render <definition.yaml>",
		Short: "Render a table definition to HTML",
		Long: `Render the table structure as HTML.

Without --data the output is the empty skeleton: header, body, add
button and, when enabled, the totals footer. With --data the snapshot's
rows are rendered in place with calculated columns and totals filled in.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, args[0], dataPath, outPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "snapshot JSON to render into the table")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write HTML to a file instead of stdout")
	return cmd
}

func runRender(opts *RootOptions, defPath, dataPath, outPath string, cmd *cobra.Command) error {
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

	tbl, mount, err := buildTable(def, defaults, nil)
	if err != nil {
		_ = formatter.Error(ErrCodeDefinition, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid definition", err)
	}
	if dataPath != "" {
		if err := importSnapshotFile(tbl, dataPath); err != nil {
			_ = formatter.Error(ErrCodeSnapshot, err.Error(), nil)
			return WrapExitError(ExitCommandError, "snapshot load failed", err)
		}
	}
	formatter.VerboseLog("Rendering %s with %d row(s)", def.TableID, tbl.RowCount())

	html := mount.HTML()
	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(html), 0o644); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write failed", err)
		}
		return nil
	}
	_, err = formatter.Writer.Write([]byte(html))
	return err
}
