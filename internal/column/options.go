package column

import (
	"time"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/schema"
)

// MaxRowsUnbounded is the internal sentinel for "no row limit". A user
// maxRows of 0 normalizes to this value.
const MaxRowsUnbounded = int(1<<31 - 1)

// OptionsDef is the caller-supplied table-wide option set. As with column
// Defs, pointers distinguish "unset" from an explicit zero.
type OptionsDef struct {
	MinRows      *int   `yaml:"minRows,omitempty" json:"minRows,omitempty"`
	MaxRows      *int   `yaml:"maxRows,omitempty" json:"maxRows,omitempty"`
	AllowAdd     *bool  `yaml:"allowAdd,omitempty" json:"allowAdd,omitempty"`
	AllowDelete  *bool  `yaml:"allowDelete,omitempty" json:"allowDelete,omitempty"`
	ShowTotal    *bool  `yaml:"showTotal,omitempty" json:"showTotal,omitempty"`
	TotalType    string `yaml:"totalType,omitempty" json:"totalType,omitempty"`
	AutoSave     *bool  `yaml:"autoSave,omitempty" json:"autoSave,omitempty"`
	SaveDelayMS  *int   `yaml:"saveDelay,omitempty" json:"saveDelay,omitempty"`
	Responsive   *bool  `yaml:"responsive,omitempty" json:"responsive,omitempty"`
	Striped      *bool  `yaml:"striped,omitempty" json:"striped,omitempty"`
	FixedColumns *int   `yaml:"fixedColumns,omitempty" json:"fixedColumns,omitempty"`
}

// Options is the resolved table-wide option set.
type Options struct {
	MinRows      int
	MaxRows      int
	AllowAdd     bool
	AllowDelete  bool
	ShowTotal    bool
	TotalType    TotalType
	AutoSave     bool
	SaveDelay    time.Duration
	Responsive   bool
	Striped      bool
	FixedColumns int
}

// NormalizeOptions merges user options over the schema's table-option
// defaults. Invalid combinations (minRows above maxRows, unknown totalType)
// are definition errors.
func NormalizeOptions(def OptionsDef, defaults *schema.Defaults) (Options, error) {
	base := defaults.TableOptions

	opts := Options{
		MinRows:      orInt(def.MinRows, base.MinRows),
		MaxRows:      orInt(def.MaxRows, base.MaxRows),
		AllowAdd:     orBool(def.AllowAdd, base.AllowAdd),
		AllowDelete:  orBool(def.AllowDelete, base.AllowDelete),
		ShowTotal:    orBool(def.ShowTotal, base.ShowTotal),
		TotalType:    TotalType(orString(def.TotalType, base.TotalType)),
		AutoSave:     orBool(def.AutoSave, base.AutoSave),
		SaveDelay:    time.Duration(orInt(def.SaveDelayMS, base.SaveDelayMS)) * time.Millisecond,
		Responsive:   orBool(def.Responsive, base.Responsive),
		Striped:      orBool(def.Striped, base.Striped),
		FixedColumns: orInt(def.FixedColumns, base.FixedColumns),
	}

	if opts.MaxRows <= 0 {
		opts.MaxRows = MaxRowsUnbounded
	}
	if opts.MinRows < 0 {
		return Options{}, &DefError{Message: "minRows must not be negative"}
	}
	if opts.MinRows > opts.MaxRows {
		return Options{}, &DefError{Message: "minRows exceeds maxRows"}
	}
	switch opts.TotalType {
	case TotalSum, TotalAverage, TotalCount:
	default:
		return Options{}, &DefError{Message: "invalid table totalType"}
	}
	return opts, nil
}
