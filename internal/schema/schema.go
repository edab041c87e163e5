// Package schema loads the table-defaults resource consumed by every
// dynamic table instance.
//
// The resource is a JSON document carrying, per column type, the default
// rendering and formatting properties, plus table-wide option defaults and
// the CSS class tokens the renderer attaches to generated nodes. It is
// validated against an embedded CUE definition before use.
//
// The resource is mandatory: there is no embedded fallback. A table whose
// schema cannot be loaded fails at construction time.
package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed defaults.cue
var defaultsCUE string

// FieldType holds the per-type defaults applied to columns during
// normalization. User-supplied column properties always win over these.
type FieldType struct {
	// Placeholder is the input placeholder text.
	Placeholder string `json:"placeholder,omitempty"`

	// HTMLType is the input control kind the renderer emits
	// (e.g. "text", "number", "date", "email", "checkbox").
	HTMLType string `json:"htmlType"`

	// DecimalPlaces applies to number, currency and percentage columns.
	DecimalPlaces int `json:"decimalPlaces,omitempty"`

	// Currency is the ISO 4217 code used for currency columns.
	Currency string `json:"currency,omitempty"`

	// Locale is the BCP 47 tag used for value formatting.
	Locale string `json:"locale,omitempty"`

	// Required marks columns of this type required by default.
	Required bool `json:"required,omitempty"`
}

// TableOptions holds the table-wide option defaults.
type TableOptions struct {
	MinRows      int    `json:"minRows"`
	MaxRows      int    `json:"maxRows"` // 0 means unbounded
	AllowAdd     bool   `json:"allowAdd"`
	AllowDelete  bool   `json:"allowDelete"`
	ShowTotal    bool   `json:"showTotal"`
	TotalType    string `json:"totalType"`
	AutoSave     bool   `json:"autoSave"`
	SaveDelayMS  int    `json:"saveDelay"`
	Responsive   bool   `json:"responsive"`
	Striped      bool   `json:"striped"`
	FixedColumns int    `json:"fixedColumns"`
}

// CSS holds the class-name tokens attached by the renderer.
type CSS struct {
	Wrapper         string `json:"wrapper"`
	Table           string `json:"table"`
	TableResponsive string `json:"tableResponsive"`
	TableStriped    string `json:"tableStriped"`
	FormControl     string `json:"formControl"`
	AddRowBtn       string `json:"addRowBtn"`
	DeleteRowBtn    string `json:"deleteRowBtn"`
	TotalRow        string `json:"totalRow"`
	Warning         string `json:"warning"`
	Error           string `json:"error"`
	ActionsColumn   string `json:"actionsColumn"`
}

// Defaults is the fully parsed schema resource.
type Defaults struct {
	FieldTypes   map[string]FieldType `json:"fieldTypes"`
	TableOptions TableOptions         `json:"tableOptions"`
	CSS          CSS                  `json:"css"`
}

// FieldType looks up the defaults for a column type.
// The second return is false for types absent from the resource.
func (d *Defaults) FieldType(name string) (FieldType, bool) {
	ft, ok := d.FieldTypes[name]
	return ft, ok
}

// LoadError reports a schema resource that could not be fetched or parsed.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("schema %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// cache holds one parsed Defaults per resource path. The resource is loaded
// once per process regardless of how many tables are constructed from it.
var cache sync.Map // path -> *Defaults

// Load reads, validates and caches the schema resource at path.
//
// Repeated calls with the same path return the cached value. A resource
// that failed to load is not negatively cached; callers may retry.
func Load(path string) (*Defaults, error) {
	if v, ok := cache.Load(path); ok {
		return v.(*Defaults), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "resource unavailable", Err: err}
	}

	d, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Reason: "invalid resource", Err: err}
	}

	actual, _ := cache.LoadOrStore(path, d)
	return actual.(*Defaults), nil
}

// Parse validates raw JSON against the embedded CUE definition and decodes
// it. Exposed separately from Load for callers holding the bytes already
// (tests, in-memory resources).
func Parse(data []byte) (*Defaults, error) {
	ctx := cuecontext.New()
	def := ctx.CompileString(defaultsCUE)
	if err := def.Err(); err != nil {
		return nil, &LoadError{Reason: "embedded definition broken", Err: err}
	}

	if err := cuejson.Validate(data, def); err != nil {
		return nil, &LoadError{Reason: "schema validation failed", Err: err}
	}

	var d Defaults
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &LoadError{Reason: "decode failed", Err: err}
	}
	if len(d.FieldTypes) == 0 {
		return nil, &LoadError{Reason: "fieldTypes is empty"}
	}
	return &d, nil
}
