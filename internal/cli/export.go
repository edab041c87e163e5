package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath  string
		dirPath string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export <definition.yaml>",
		Short: "Export a table's stored snapshot as JSON",
		Long: `Read the table's snapshot from the storage backend and print it.

The snapshot is re-exported through the table engine, so calculated
columns and totals are recomputed from the stored cells rather than
trusted from the stored payload.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, args[0], dbPath, dirPath, outPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file")
	cmd.Flags().StringVar(&dirPath, "dir", "", "snapshot directory")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write JSON to a file instead of stdout")
	return cmd
}

func runExport(opts *RootOptions, defPath, dbPath, dirPath, outPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if dbPath == "" && dirPath == "" {
		err := fmt.Errorf("export needs a storage backend: pass --db or --dir")
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "no storage backend", err)
	}

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

	adapter, closeAdapter, err := openAdapter(dbPath, dirPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "storage open failed", err)
	}
	defer closeAdapter()

	snap, err := adapter.Load(context.Background(), def.TableID)
	if err != nil {
		_ = formatter.Error(ErrCodeStorage, err.Error(), nil)
		return WrapExitError(ExitCommandError, "storage read failed", err)
	}
	if snap == nil {
		err := fmt.Errorf("no snapshot stored for table %q", def.TableID)
		_ = formatter.Error(ErrCodeSnapshot, err.Error(), nil)
		return WrapExitError(ExitFailure, "nothing to export", err)
	}

	// Rehydrate into a detached table so the export recomputes formulas
	// and totals without touching the backend.
	tbl, _, err := buildTable(def, defaults, nil)
	if err != nil {
		_ = formatter.Error(ErrCodeDefinition, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid definition", err)
	}
	stored, err := snap.Marshal()
	if err != nil {
		_ = formatter.Error(ErrCodeSnapshot, err.Error(), nil)
		return WrapExitError(ExitCommandError, "snapshot decode failed", err)
	}
	if err := tbl.ImportJSON(stored); err != nil {
		_ = formatter.Error(ErrCodeSnapshot, err.Error(), nil)
		return WrapExitError(ExitFailure, "snapshot incompatible with definition", err)
	}
	formatter.VerboseLog("Exporting %s: %d row(s)", def.TableID, tbl.RowCount())

	data, err := tbl.ExportJSON()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "export failed", err)
	}
	data = append(data, '\n')

	if outPath != "" {
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write failed", err)
		}
		return nil
	}
	_, err = formatter.Writer.Write(data)
	return err
}
