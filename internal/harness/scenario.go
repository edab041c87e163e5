package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
)

// Scenario is a declarative conformance test: a table definition, a
// sequence of user actions, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the path to the field-type defaults file, resolved
	// relative to the scenario file location.
	Schema string `yaml:"schema"`

	// Table configures the table under test.
	Table TableDef `yaml:"table"`

	// Steps is the action flow, executed in order.
	Steps []Step `yaml:"steps"`

	// Expect validates the final state. Optional for golden-only runs.
	Expect *Expect `yaml:"expect,omitempty"`
}

// TableDef mirrors the construction configuration in scenario form.
type TableDef struct {
	TableID string            `yaml:"tableId"`
	Columns []column.Def      `yaml:"columns"`
	Options column.OptionsDef `yaml:"options,omitempty"`
}

// Step is one user action. Action selects the operation; the remaining
// fields apply per action:
//
//	add      data (row values, may be empty)
//	edit     row, column, value
//	clone    row
//	remove   row
//	select   row, value (true/false)
//	validate -
//	clear    -
//	flush    - (advance the clock past the save window)
//
// Row references are 1-based positions in the current visual order.
type Step struct {
	Action string         `yaml:"action"`
	Row    int            `yaml:"row,omitempty"`
	Column string         `yaml:"column,omitempty"`
	Value  any            `yaml:"value,omitempty"`
	Data   map[string]any `yaml:"data,omitempty"`
}

// Step action constants.
const (
	StepAdd      = "add"
	StepEdit     = "edit"
	StepClone    = "clone"
	StepRemove   = "remove"
	StepSelect   = "select"
	StepValidate = "validate"
	StepClear    = "clear"
	StepFlush    = "flush"
)

// Expect validates the final table state after all steps ran. Every field
// is optional; only set fields are checked.
type Expect struct {
	RowCount *int               `yaml:"rowCount,omitempty"`
	Totals   map[string]float64 `yaml:"totals,omitempty"`
	Cells    []CellExpect       `yaml:"cells,omitempty"`
	Valid    *bool              `yaml:"valid,omitempty"`
	Errors   []string           `yaml:"errors,omitempty"`
	Warnings []string           `yaml:"warnings,omitempty"`
	Saves    *int               `yaml:"saves,omitempty"`
}

// CellExpect checks a single stored cell value. Row is a 1-based position.
type CellExpect struct {
	Row    int    `yaml:"row"`
	Column string `yaml:"column"`
	Value  any    `yaml:"value"`
}

// LoadScenario reads and parses a scenario YAML file. The schema path is
// resolved relative to the scenario file. Unknown fields are rejected so
// that typos fail loudly instead of silently skipping assertions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", s.Schema)
	}
	if s.Table.TableID == "" {
		return fmt.Errorf("table.tableId is required")
	}
	if len(s.Table.Columns) == 0 {
		return fmt.Errorf("table.columns is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	return nil
}

// validateStep validates a single step based on its action.
func validateStep(index int, st *Step) error {
	switch st.Action {
	case StepAdd, StepValidate, StepClear, StepFlush:
		// No required fields; add may carry empty data.
	case StepEdit:
		if st.Row < 1 {
			return fmt.Errorf("steps[%d]: row (1-based) is required for edit", index)
		}
		if st.Column == "" {
			return fmt.Errorf("steps[%d]: column is required for edit", index)
		}
	case StepClone, StepRemove, StepSelect:
		if st.Row < 1 {
			return fmt.Errorf("steps[%d]: row (1-based) is required for %s", index, st.Action)
		}
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, st.Action)
	}
	return nil
}
