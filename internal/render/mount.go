package render

// Mount is where the projection lands: the browser DOM in the real product,
// an in-memory tree here. The table drives it with row-local patches; a
// mount never pushes data back into the table.
type Mount interface {
	// Replace installs a freshly built skeleton, dropping prior state.
	// Re-initializing on the same mount point fully replaces what was there.
	Replace(root *Node)

	// AppendRow appends one row element to the body.
	AppendRow(row *Node)

	// RemoveRow removes the row element with the given identifier.
	RemoveRow(rowID string)

	// UpdateCell rewrites the displayed value of one control.
	UpdateCell(rowID, columnName, display string)

	// UpdateTotals rewrites the footer cells from formatted aggregates.
	UpdateTotals(cells map[string]string)

	// SetCellIssue marks one control with a validation class and a
	// tooltip carrying the message. Advisory feedback only; the control
	// stays editable.
	SetCellIssue(rowID, columnName, class, message string)

	// ClearCellIssue removes the given validation classes and the
	// tooltip from one control.
	ClearCellIssue(rowID, columnName string, classes ...string)

	// Clear drops the mounted tree entirely (table teardown).
	Clear()
}

// TreeMount keeps the projected tree in memory. Used by tests, the scenario
// harness, and the CLI's static HTML output.
type TreeMount struct {
	root *Node
}

// NewTreeMount creates an empty mount.
func NewTreeMount() *TreeMount {
	return &TreeMount{}
}

// Root returns the mounted tree, or nil when nothing is mounted.
func (m *TreeMount) Root() *Node { return m.root }

// HTML serializes the mounted tree.
func (m *TreeMount) HTML() string {
	if m.root == nil {
		return ""
	}
	return m.root.HTML()
}

// Replace implements Mount.
func (m *TreeMount) Replace(root *Node) { m.root = root }

// Clear implements Mount.
func (m *TreeMount) Clear() { m.root = nil }

// AppendRow implements Mount.
func (m *TreeMount) AppendRow(row *Node) {
	if body := m.body(); body != nil {
		body.Append(row)
	}
}

// RemoveRow implements Mount.
func (m *TreeMount) RemoveRow(rowID string) {
	body := m.body()
	if body == nil {
		return
	}
	if row := body.FindByAttr("data-row-id", rowID); row != nil {
		body.RemoveChild(row)
	}
}

// UpdateCell implements Mount.
func (m *TreeMount) UpdateCell(rowID, columnName, display string) {
	ctl := m.cell(rowID, columnName)
	if ctl == nil {
		return
	}
	if ctl.Tag == "textarea" {
		ctl.SetText(display)
		return
	}
	ctl.Set("value", display)
}

// SetCellIssue implements Mount.
func (m *TreeMount) SetCellIssue(rowID, columnName, class, message string) {
	if ctl := m.cell(rowID, columnName); ctl != nil {
		ctl.AddClass(class).Set("title", message)
	}
}

// ClearCellIssue implements Mount.
func (m *TreeMount) ClearCellIssue(rowID, columnName string, classes ...string) {
	ctl := m.cell(rowID, columnName)
	if ctl == nil {
		return
	}
	for _, c := range classes {
		ctl.RemoveClass(c)
	}
	ctl.Del("title")
}

// UpdateTotals implements Mount.
func (m *TreeMount) UpdateTotals(cells map[string]string) {
	if m.root == nil {
		return
	}
	for name, display := range cells {
		if td := m.root.FindByAttr("data-total-for", name); td != nil {
			td.SetText(display)
		}
	}
}

func (m *TreeMount) cell(rowID, columnName string) *Node {
	if m.root == nil {
		return nil
	}
	row := m.root.FindByAttr("data-row-id", rowID)
	if row == nil {
		return nil
	}
	return row.FindByAttr("data-column", columnName)
}

func (m *TreeMount) body() *Node {
	if m.root == nil {
		return nil
	}
	return m.root.FindByAttr("data-role", "rows")
}
