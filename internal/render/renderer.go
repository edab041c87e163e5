package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/format"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/schema"
)

// defaultColumnWidth is assumed for sticky-offset math when a fixed column
// has no explicit width.
const defaultColumnWidth = 120

// Renderer projects columns and rows into Node trees.
type Renderer struct {
	TableID string
	Columns []column.Column
	Opts    column.Options
	CSS     schema.CSS
}

// New creates a renderer for one table.
func New(tableID string, cols []column.Column, opts column.Options, css schema.CSS) *Renderer {
	return &Renderer{TableID: tableID, Columns: cols, Opts: opts, CSS: css}
}

// Skeleton builds the full empty structure: wrapper, table, header, empty
// body, optional totals footer, optional add-row affordance. Rows are
// appended afterwards through the mount, one element per row.
func (r *Renderer) Skeleton() *Node {
	table := NewEl("table").
		Set("id", r.TableID).
		AddClass(r.CSS.Table)
	if r.Opts.Striped {
		table.AddClass(r.CSS.TableStriped)
	}

	table.Append(r.HeaderRow())
	table.Append(NewEl("tbody").Set("data-role", "rows"))
	if r.Opts.ShowTotal {
		table.Append(NewEl("tfoot").Append(r.TotalsRow(nil)))
	}

	wrapper := NewEl("div").
		Set("data-table-id", r.TableID).
		AddClass(r.CSS.Wrapper)
	if r.Opts.Responsive {
		inner := NewEl("div").AddClass(r.CSS.TableResponsive)
		inner.Append(table)
		wrapper.Append(inner)
	} else {
		wrapper.Append(table)
	}

	if r.Opts.AllowAdd {
		wrapper.Append(NewEl("button").
			Set("type", "button").
			Set("data-action", "add-row").
			AddClass(r.CSS.AddRowBtn).
			SetText("Adicionar linha"))
	}
	return wrapper
}

// HeaderRow builds the thead with one cell per column, plus the select-all
// and actions cells when row deletion is enabled.
func (r *Renderer) HeaderRow() *Node {
	tr := NewEl("tr")

	if r.Opts.AllowDelete {
		tr.Append(NewEl("th").Append(
			NewEl("input").
				Set("type", "checkbox").
				Set("data-action", "select-all"),
		))
	}

	for i, col := range r.Columns {
		th := NewEl("th").SetText(col.Label)
		if col.Width != "" {
			th.Set("style", "width:"+cssWidth(col.Width))
		}
		if sticky, left := r.stickyOffset(i); sticky {
			style := th.Attrs["style"]
			if style != "" {
				style += ";"
			}
			th.Set("style", style+fmt.Sprintf("position:sticky;left:%dpx", left))
		}
		tr.Append(th)
	}

	if r.Opts.AllowDelete {
		tr.Append(NewEl("th").AddClass(r.CSS.ActionsColumn).SetText("Ações"))
	}

	return NewEl("thead").Append(tr)
}

// Row builds one body row: one control per column keyed by data-column,
// plus the selection checkbox and delete action when enabled.
func (r *Renderer) Row(rowID string, values map[string]any) *Node {
	tr := NewEl("tr").Set("data-row-id", rowID)

	if r.Opts.AllowDelete {
		tr.Append(NewEl("td").Append(
			NewEl("input").
				Set("type", "checkbox").
				Set("data-action", "select-row"),
		))
	}

	for i, col := range r.Columns {
		td := NewEl("td")
		if sticky, left := r.stickyOffset(i); sticky {
			td.Set("style", fmt.Sprintf("position:sticky;left:%dpx", left))
		}
		td.Append(r.control(col, values[col.Name]))
		tr.Append(td)
	}

	if r.Opts.AllowDelete {
		tr.Append(NewEl("td").Append(
			NewEl("button").
				Set("type", "button").
				Set("data-action", "delete-row").
				AddClass(r.CSS.DeleteRowBtn).
				SetText("Excluir"),
		))
	}
	return tr
}

// TotalsRow builds the footer row. cells maps column name to the formatted
// aggregate; columns without an entry render empty.
func (r *Renderer) TotalsRow(cells map[string]string) *Node {
	tr := NewEl("tr").AddClass(r.CSS.TotalRow)

	if r.Opts.AllowDelete {
		tr.Append(NewEl("td"))
	}
	for _, col := range r.Columns {
		td := NewEl("td").Set("data-total-for", col.Name)
		if v, ok := cells[col.Name]; ok {
			td.SetText(v)
		}
		tr.Append(td)
	}
	if r.Opts.AllowDelete {
		tr.Append(NewEl("td"))
	}
	return tr
}

// control builds the input affordance for one cell. The control kind is
// selected purely by column type; calculated columns are always read-only.
func (r *Renderer) control(col column.Column, value any) *Node {
	var ctl *Node

	switch col.Type {
	case column.TypeTextarea:
		ctl = NewEl("textarea").SetText(format.Plain(value))

	case column.TypeList:
		ctl = NewEl("select")
		selected := format.Plain(value)
		for _, opt := range col.Options {
			o := NewEl("option").Set("value", opt.Value).SetText(opt.Label)
			if opt.Value == selected && selected != "" {
				o.Set("selected", "selected")
			}
			ctl.Append(o)
		}

	case column.TypeBoolean:
		ctl = NewEl("input").Set("type", "checkbox")
		if b, ok := value.(bool); ok && b {
			ctl.Set("checked", "checked")
		}

	default:
		ctl = NewEl("input").
			Set("type", col.HTMLType).
			Set("value", DisplayValue(col, value))
	}

	ctl.Set("data-column", col.Name).AddClass(r.CSS.FormControl)
	if col.Placeholder != "" && col.Type != column.TypeList && col.Type != column.TypeBoolean {
		ctl.Set("placeholder", col.Placeholder)
	}
	if col.Readonly || col.Type == column.TypeCalculated {
		ctl.Set("readonly", "readonly")
	}
	if col.Disabled {
		ctl.Set("disabled", "disabled")
	}
	return ctl
}

// stickyOffset reports whether column i is sticky and its cumulative left
// offset. Only preceding sticky columns contribute to the offset; a
// scrolling column between two sticky ones must not push the second
// one right.
func (r *Renderer) stickyOffset(i int) (bool, int) {
	if !r.stickyAt(i) {
		return false, 0
	}
	left := 0
	for j := 0; j < i; j++ {
		if r.stickyAt(j) {
			left += widthPx(r.Columns[j].Width)
		}
	}
	return true, left
}

// stickyAt reports whether column i is sticky: inside the fixedColumns
// prefix, or explicitly marked fixed regardless of position.
func (r *Renderer) stickyAt(i int) bool {
	if i < len(r.Columns) && r.Columns[i].Fixed {
		return true
	}
	return i < r.Opts.FixedColumns
}

// DisplayValue renders a cell value the way its column displays it.
func DisplayValue(col column.Column, v any) string {
	switch col.Type {
	case column.TypeCurrency:
		f, ok := format.ToFloat(v)
		if !ok {
			return format.Plain(v)
		}
		return format.Currency(f, col.Locale, col.Currency)

	case column.TypePercentage:
		f, ok := format.ToFloat(v)
		if !ok {
			return format.Plain(v)
		}
		return format.Percent(f, col.Locale, col.DecimalPlaces)

	case column.TypeNumber:
		f, ok := format.ToFloat(v)
		if !ok {
			return format.Plain(v)
		}
		return format.Number(f, col.Locale, col.DecimalPlaces)

	case column.TypeCalculated:
		f, ok := format.ToFloat(v)
		if !ok {
			return format.Plain(v)
		}
		if col.Currency != "" {
			return format.Currency(f, col.Locale, col.Currency)
		}
		return format.Number(f, col.Locale, col.DecimalPlaces)

	default:
		return format.Plain(v)
	}
}

func widthPx(w string) int {
	if w == "" {
		return defaultColumnWidth
	}
	n, err := strconv.Atoi(strings.TrimSuffix(w, "px"))
	if err != nil || n <= 0 {
		return defaultColumnWidth
	}
	return n
}

func cssWidth(w string) string {
	if strings.HasSuffix(w, "px") || strings.HasSuffix(w, "%") {
		return w
	}
	return w + "px"
}
