// Package column defines the normalized column model and table options for
// the dynamic table engine.
//
// Callers describe columns with Def values (typically decoded from YAML or
// built in code); Normalize merges them with the schema's per-type defaults
// into concrete Column values. Unknown column types and malformed variants
// (calculated without formula, list without options) are construction-time
// failures, never silent defaults.
package column

import (
	"fmt"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/schema"
)

// Type enumerates the supported column types.
type Type string

const (
	TypeText       Type = "text"
	TypeTextarea   Type = "textarea"
	TypeNumber     Type = "number"
	TypeCurrency   Type = "currency"
	TypePercentage Type = "percentage"
	TypeCPF        Type = "cpf"
	TypeCNPJ       Type = "cnpj"
	TypePhone      Type = "phone"
	TypeEmail      Type = "email"
	TypeDate       Type = "date"
	TypeBoolean    Type = "boolean"
	TypeList       Type = "list"
	TypeCalculated Type = "calculated"
)

// Numeric reports whether values of this type participate in formulas and
// totals as numbers.
func (t Type) Numeric() bool {
	switch t {
	case TypeNumber, TypeCurrency, TypePercentage, TypeCalculated:
		return true
	}
	return false
}

// TotalType selects the footer aggregate for a totalizer column.
type TotalType string

const (
	TotalSum     TotalType = "sum"
	TotalAverage TotalType = "average"
	TotalCount   TotalType = "count"
)

// Option is one selectable entry of a list or boolean column.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Def is a caller-supplied column definition. Optional properties are
// pointers so that "unset" is distinguishable from an explicit zero; unset
// properties fall back to the schema's per-type defaults during Normalize.
type Def struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
	Type  string `yaml:"type" json:"type"`

	Required       *bool    `yaml:"required,omitempty" json:"required,omitempty"`
	Readonly       *bool    `yaml:"readonly,omitempty" json:"readonly,omitempty"`
	Disabled       *bool    `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	DefaultValue   any      `yaml:"defaultValue,omitempty" json:"defaultValue,omitempty"`
	Width          string   `yaml:"width,omitempty" json:"width,omitempty"`
	Fixed          *bool    `yaml:"fixed,omitempty" json:"fixed,omitempty"`
	IncludeInTotal *bool    `yaml:"includeInTotal,omitempty" json:"includeInTotal,omitempty"`
	TotalType      string   `yaml:"totalType,omitempty" json:"totalType,omitempty"`
	Formula        string   `yaml:"formula,omitempty" json:"formula,omitempty"`
	Options        []Option `yaml:"options,omitempty" json:"options,omitempty"`
	DecimalPlaces  *int     `yaml:"decimalPlaces,omitempty" json:"decimalPlaces,omitempty"`
	Locale         string   `yaml:"locale,omitempty" json:"locale,omitempty"`
	Currency       string   `yaml:"currency,omitempty" json:"currency,omitempty"`
	Placeholder    string   `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// Column is a fully normalized column. All defaults are resolved; renderers
// and the table core never consult the schema again for per-column values.
type Column struct {
	Name           string
	Label          string
	Type           Type
	Required       bool
	Readonly       bool
	Disabled       bool
	DefaultValue   any
	Width          string
	Fixed          bool
	IncludeInTotal bool
	TotalType      TotalType // empty means inherit the table-wide default
	Formula        string
	Options        []Option
	DecimalPlaces  int
	Locale         string
	Currency       string
	Placeholder    string
	HTMLType       string
}

// UnknownColumnTypeError reports a column whose type is absent from the
// loaded schema's type-default table.
type UnknownColumnTypeError struct {
	Column string
	Type   string
}

func (e *UnknownColumnTypeError) Error() string {
	return fmt.Sprintf("column %q: unknown column type %q", e.Column, e.Type)
}

// DefError reports a column definition that fails variant checks.
type DefError struct {
	Column  string
	Message string
}

func (e *DefError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Message)
}

// Normalize merges user definitions with the schema's per-type defaults.
//
// Merge order: type defaults first, user-supplied properties win for
// overlapping keys. Name, label and type must be present and survive the
// merge unchanged.
func Normalize(defs []Def, defaults *schema.Defaults) ([]Column, error) {
	if len(defs) == 0 {
		return nil, &DefError{Message: "at least one column is required"}
	}

	cols := make([]Column, 0, len(defs))
	seen := make(map[string]bool, len(defs))

	for _, def := range defs {
		if def.Name == "" {
			return nil, &DefError{Message: "name is required"}
		}
		if seen[def.Name] {
			return nil, &DefError{Column: def.Name, Message: "duplicate column name"}
		}
		seen[def.Name] = true
		if def.Label == "" {
			return nil, &DefError{Column: def.Name, Message: "label is required"}
		}
		if def.Type == "" {
			return nil, &DefError{Column: def.Name, Message: "type is required"}
		}

		ft, ok := defaults.FieldType(def.Type)
		if !ok {
			return nil, &UnknownColumnTypeError{Column: def.Name, Type: def.Type}
		}

		col := Column{
			Name:           def.Name,
			Label:          def.Label,
			Type:           Type(def.Type),
			Required:       orBool(def.Required, ft.Required),
			Readonly:       orBool(def.Readonly, false),
			Disabled:       orBool(def.Disabled, false),
			DefaultValue:   def.DefaultValue,
			Width:          def.Width,
			Fixed:          orBool(def.Fixed, false),
			IncludeInTotal: orBool(def.IncludeInTotal, false),
			TotalType:      TotalType(def.TotalType),
			Formula:        def.Formula,
			Options:        def.Options,
			DecimalPlaces:  orInt(def.DecimalPlaces, ft.DecimalPlaces),
			Locale:         orString(def.Locale, ft.Locale),
			Currency:       orString(def.Currency, ft.Currency),
			Placeholder:    orString(def.Placeholder, ft.Placeholder),
			HTMLType:       ft.HTMLType,
		}

		if err := checkVariant(&col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// checkVariant enforces the per-type construction rules the legacy
// implementations deferred to use time.
func checkVariant(col *Column) error {
	switch col.Type {
	case TypeCalculated:
		if col.Formula == "" {
			return &DefError{Column: col.Name, Message: "calculated column requires a formula"}
		}
		col.Readonly = true
	case TypeList:
		if len(col.Options) == 0 {
			return &DefError{Column: col.Name, Message: "list column requires options"}
		}
	default:
		if col.Formula != "" {
			return &DefError{Column: col.Name, Message: "formula is only valid on calculated columns"}
		}
	}

	switch col.TotalType {
	case "", TotalSum, TotalAverage, TotalCount:
	default:
		return &DefError{Column: col.Name, Message: fmt.Sprintf("invalid totalType %q", col.TotalType)}
	}
	return nil
}

func orBool(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func orInt(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
