package table

import (
	"fmt"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/format"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/render"
)

// Row is one record of user data. Identity is opaque and never shared:
// cloning copies values under a fresh identifier.
type Row struct {
	ID     string
	values map[string]any
}

// Value returns the row's value for a column name.
func (r *Row) Value(name string) any { return r.values[name] }

// copyValues returns a shallow copy; cell values are scalars.
func (r *Row) copyValues() map[string]any {
	c := make(map[string]any, len(r.values))
	for k, v := range r.values {
		c[k] = v
	}
	return c
}

// AddRow appends a row built from column defaults overridden by data.
// Returns the new row's identifier, or a CapacityError past maxRows.
// Triggers formula recomputation, a totals update, a row-local render
// patch, and a scheduled persistence write.
func (t *Table) AddRow(data map[string]any) (string, error) {
	t.mu.Lock()
	id, err := t.addRowLocked(data, false, "")
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)
	return id, err
}

// addRowLocked is the single row-insertion path. Restore and import supply
// an explicit id; interactive adds pass "".
func (t *Table) addRowLocked(data map[string]any, skipPersist bool, id string) (string, error) {
	if t.destroyed {
		return "", ErrDestroyed
	}
	if len(t.rows) >= t.opts.MaxRows {
		return "", &CapacityError{TableID: t.tableID, Max: t.opts.MaxRows}
	}

	if id == "" {
		id = t.idGen.NewID()
	}
	row := &Row{ID: id, values: map[string]any{}}
	for _, col := range t.cols {
		if v, ok := data[col.Name]; ok && v != nil {
			row.values[col.Name] = v
		} else if col.DefaultValue != nil {
			row.values[col.Name] = col.DefaultValue
		}
	}

	t.rows = append(t.rows, row)
	t.recalcRowLocked(row, false)
	t.mount.AppendRow(t.renderer.Row(row.ID, row.values))
	t.updateTotalsLocked()
	if !skipPersist {
		t.schedulePersistLocked()
	}

	t.queueEvent(EventRowAdded, Payload{Action: "add", RowID: row.ID})
	t.queueEvent(EventChange, Payload{Action: "add", RowID: row.ID})
	return row.ID, nil
}

// RemoveRow removes a row after the configured confirmation step.
//
// Refusals are user-facing, not errors: dropping below minRows or removing
// an unknown row returns ok=false with a message, and the input pipeline
// stays alive.
func (t *Table) RemoveRow(rowID string) (ok bool, msg string) {
	if !t.confirm(rowID) {
		return false, ""
	}

	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return false, ""
	}

	idx := t.rowIndexLocked(rowID)
	if idx < 0 {
		t.logger.Warn("remove for unknown row ignored", "table", t.tableID, "row", rowID)
		t.mu.Unlock()
		return false, "Linha não encontrada."
	}
	if len(t.rows)-1 < t.opts.MinRows {
		msg := fmt.Sprintf("A tabela deve manter pelo menos %d linha(s).", t.opts.MinRows)
		t.queueEvent(EventError, Payload{Action: "remove", RowID: rowID, Message: msg})
		evs := t.drainEvents()
		t.mu.Unlock()
		t.dispatch(evs)
		return false, msg
	}

	t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
	delete(t.selected, rowID)
	t.mount.RemoveRow(rowID)
	t.updateTotalsLocked()
	t.schedulePersistLocked()
	t.queueEvent(EventRowRemoved, Payload{Action: "remove", RowID: rowID})
	t.queueEvent(EventChange, Payload{Action: "remove", RowID: rowID})
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)
	return true, ""
}

// CloneRow duplicates a row's values under a new identifier, routed through
// the normal insertion path (capacity checks included).
func (t *Table) CloneRow(rowID string) (string, error) {
	t.mu.Lock()
	idx := t.rowIndexLocked(rowID)
	if idx < 0 {
		t.mu.Unlock()
		return "", fmt.Errorf("table %s: clone: row %s not found", t.tableID, rowID)
	}
	data := t.rows[idx].copyValues()
	id, err := t.addRowLocked(data, false, "")
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)
	return id, err
}

// SetCell applies one cell edit: store write, formula recomputation,
// totals, render patch, scheduled persistence.
//
// Unknown rows or columns are logged and ignored rather than crashing the
// input pipeline; the returned error is for programmatic callers.
func (t *Table) SetCell(rowID, columnName string, value any) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}

	idx := t.rowIndexLocked(rowID)
	if idx < 0 {
		t.logger.Warn("edit for unknown row ignored", "table", t.tableID, "row", rowID)
		t.mu.Unlock()
		return fmt.Errorf("table %s: row %s not found", t.tableID, rowID)
	}
	col := t.columnLocked(columnName)
	if col == nil {
		t.logger.Warn("edit for unknown column ignored", "table", t.tableID, "column", columnName)
		t.mu.Unlock()
		return fmt.Errorf("table %s: column %s not found", t.tableID, columnName)
	}

	row := t.rows[idx]
	row.values[columnName] = coerce(*col, value)
	t.recalcRowLocked(row, true)
	t.updateTotalsLocked()
	t.schedulePersistLocked()
	t.queueEvent(EventChange, Payload{
		Action: "update", RowID: rowID, Column: columnName, Value: row.values[columnName],
	})
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)
	return nil
}

// coerce normalizes an incoming cell value for storage. Numeric columns
// store parsed numbers when the input parses; otherwise the raw input is
// kept and the validator surfaces a warning.
func coerce(col column.Column, value any) any {
	if value == nil {
		return nil
	}
	if col.Type.Numeric() {
		if s, ok := value.(string); ok {
			if f, ok := format.ParseNumber(s); ok {
				return f
			}
			return s
		}
	}
	if col.Type == column.TypeBoolean {
		switch v := value.(type) {
		case bool:
			return v
		case string:
			return v == "true" || v == "on" || v == "1"
		}
	}
	return value
}

// recalcRowLocked evaluates every calculated column of the row against its
// sibling values and pushes results to both the store and the view.
// Recalculation is row-scoped; formulas cannot reference other rows.
func (t *Table) recalcRowLocked(row *Row, patchView bool) {
	for _, col := range t.cols {
		if col.Type != column.TypeCalculated {
			continue
		}
		compiled := t.formulas[col.Name]
		var result float64
		if compiled != nil {
			result = compiled.Eval(func(name string) (float64, bool) {
				if name == col.Name {
					return 0, false
				}
				return format.ToFloat(row.values[name])
			})
		}
		row.values[col.Name] = result
		if patchView {
			t.mount.UpdateCell(row.ID, col.Name, render.DisplayValue(col, result))
		}
	}
}

// Recalculate re-evaluates calculated columns for one row, e.g. after a
// caller mutated several cells programmatically.
func (t *Table) Recalculate(rowID string) {
	t.mu.Lock()
	if idx := t.rowIndexLocked(rowID); idx >= 0 {
		t.recalcRowLocked(t.rows[idx], true)
		t.updateTotalsLocked()
	}
	t.mu.Unlock()
}

// RowCount returns the current number of rows.
func (t *Table) RowCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// RowIDs returns row identifiers in store order, which always matches the
// visual top-to-bottom order.
func (t *Table) RowIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.ID
	}
	return ids
}

// GetRow returns a copy of a row's values.
func (t *Table) GetRow(rowID string) (map[string]any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.rowIndexLocked(rowID)
	if idx < 0 {
		return nil, false
	}
	return t.rows[idx].copyValues(), true
}

// SetRowSelected toggles a row's selection checkbox state.
// Selection is view-local and never persisted.
func (t *Table) SetRowSelected(rowID string, selected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rowIndexLocked(rowID) < 0 {
		return
	}
	if selected {
		t.selected[rowID] = true
	} else {
		delete(t.selected, rowID)
	}
}

// SelectAll selects or deselects every row.
func (t *Table) SelectAll(selected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = map[string]bool{}
	if selected {
		for _, r := range t.rows {
			t.selected[r.ID] = true
		}
	}
}

// GetSelectedRows returns the selected row identifiers in store order.
func (t *Table) GetSelectedRows() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for _, r := range t.rows {
		if t.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (t *Table) rowIndexLocked(rowID string) int {
	for i, r := range t.rows {
		if r.ID == rowID {
			return i
		}
	}
	return -1
}

func (t *Table) columnLocked(name string) *column.Column {
	for i := range t.cols {
		if t.cols[i].Name == name {
			return &t.cols[i]
		}
	}
	return nil
}
