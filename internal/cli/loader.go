package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/persist"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/render"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/schema"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/table"
)

// Definition is the YAML table definition consumed by every command: the
// table identity, its columns and options, and the field-type defaults
// file they normalize against.
type Definition struct {
	TableID string `yaml:"tableId"`

	// Schema is the path to the field-type defaults JSON, resolved
	// relative to the definition file. The --schema flag overrides it.
	Schema string `yaml:"schema,omitempty"`

	Columns []column.Def      `yaml:"columns"`
	Options column.OptionsDef `yaml:"options,omitempty"`
}

// LoadDefinition reads and parses a table definition file. Unknown YAML
// fields are rejected so typos fail loudly.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var def Definition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if def.TableID == "" {
		return nil, fmt.Errorf("invalid definition: tableId is required")
	}
	if len(def.Columns) == 0 {
		return nil, fmt.Errorf("invalid definition: columns is required and must be non-empty")
	}
	if def.Schema != "" && !filepath.IsAbs(def.Schema) {
		def.Schema = filepath.Join(filepath.Dir(path), def.Schema)
	}
	return &def, nil
}

// loadDefaults resolves the field-type defaults for a definition. The
// --schema flag wins over the definition's own schema path.
func loadDefaults(def *Definition, schemaFlag string) (*schema.Defaults, error) {
	path := def.Schema
	if schemaFlag != "" {
		path = schemaFlag
	}
	if path == "" {
		return nil, fmt.Errorf("no schema defaults: set schema in the definition or pass --schema")
	}
	return schema.Load(path)
}

// buildTable constructs a table from a definition over the given adapter,
// rendered into a fresh in-memory mount. CLI tables log to the discard
// handler; problems surface through command output instead.
func buildTable(def *Definition, defaults *schema.Defaults, adapter persist.Adapter) (*table.Table, *render.TreeMount, error) {
	mount := render.NewTreeMount()
	tbl, err := table.New(table.Config{
		TableID:     def.TableID,
		ContainerID: "cli",
		Columns:     def.Columns,
		Options:     def.Options,
		Adapter:     adapter,
		Mount:       mount,
	}, defaults,
		table.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, nil, err
	}
	return tbl, mount, nil
}

// openAdapter selects the storage backend from the --db and --dir flags.
// Exactly one may be set; with neither, snapshots live in process memory
// only. The returned closer is a no-op for non-database backends.
func openAdapter(dbPath, dirPath string) (persist.Adapter, func() error, error) {
	noop := func() error { return nil }
	switch {
	case dbPath != "" && dirPath != "":
		return nil, nil, fmt.Errorf("--db and --dir are mutually exclusive")
	case dbPath != "":
		store, err := persist.OpenSQLite(dbPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case dirPath != "":
		store, err := persist.NewFileStore(dirPath)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return persist.NewMemory(), noop, nil
	}
}

// importSnapshotFile loads a snapshot file into a table and flushes the
// resulting write synchronously.
func importSnapshotFile(tbl *table.Table, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}
	if err := tbl.ImportJSON(data); err != nil {
		return err
	}
	tbl.Flush(context.Background())
	return nil
}
