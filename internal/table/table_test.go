package table

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/persist"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/render"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/schema"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func testDefaults() *schema.Defaults {
	return &schema.Defaults{
		FieldTypes: map[string]schema.FieldType{
			"text":       {HTMLType: "text"},
			"number":     {HTMLType: "number", DecimalPlaces: 2, Locale: "en"},
			"currency":   {HTMLType: "text", DecimalPlaces: 2, Currency: "BRL", Locale: "pt-BR"},
			"percentage": {HTMLType: "text", DecimalPlaces: 2, Locale: "pt-BR"},
			"cpf":        {HTMLType: "text"},
			"cnpj":       {HTMLType: "text"},
			"phone":      {HTMLType: "tel"},
			"email":      {HTMLType: "email"},
			"date":       {HTMLType: "date"},
			"boolean":    {HTMLType: "checkbox"},
			"list":       {HTMLType: "select"},
			"calculated": {HTMLType: "text", DecimalPlaces: 2, Locale: "en"},
		},
		TableOptions: schema.TableOptions{
			MinRows: 0, MaxRows: 0, AllowAdd: true, AllowDelete: true,
			ShowTotal: false, TotalType: "sum", AutoSave: true,
			SaveDelayMS: 300, Responsive: true, Striped: true,
		},
		CSS: schema.CSS{
			Wrapper: "wrapper", Table: "table", TableResponsive: "resp",
			TableStriped: "striped", FormControl: "ctl", AddRowBtn: "add",
			DeleteRowBtn: "del", TotalRow: "total", Warning: "warn",
			Error: "err", ActionsColumn: "actions",
		},
	}
}

type fixture struct {
	tbl     *Table
	mount   *render.TreeMount
	adapter *persist.Memory
	clock   *testutilClock
}

// testutilClock is a minimal manual clock local to this package; the
// shared implementation lives in internal/testutil, which cannot be
// imported here without a cycle in the other direction for its own tests.
type testutilClock struct {
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
}

func (c *testutilClock) Now() time.Time { return c.now }

func (c *testutilClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *testutilClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
	var due []*fakeTimer
	var rest []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	for _, t := range due {
		t.f()
	}
}

func (t *fakeTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return "row-" + strconv.Itoa(s.n)
}

func newFixture(t *testing.T, cols []column.Def, opts column.OptionsDef) *fixture {
	t.Helper()
	mount := render.NewTreeMount()
	adapter := persist.NewMemory()
	clock := &testutilClock{now: time.Unix(1756000000, 0)}

	tbl, err := New(Config{
		TableID:     "investimentos",
		ContainerID: "container",
		Columns:     cols,
		Options:     opts,
		Adapter:     adapter,
		Mount:       mount,
	}, testDefaults(), WithClock(clock), WithIDGenerator(&seqIDs{}))
	require.NoError(t, err)
	require.NoError(t, tbl.Init(context.Background()))
	return &fixture{tbl: tbl, mount: mount, adapter: adapter, clock: clock}
}

func invCols() []column.Def {
	return []column.Def{
		{Name: "descricao", Label: "Descrição", Type: "text", Required: boolPtr(true)},
		{Name: "quantidade", Label: "Quantidade", Type: "number"},
		{Name: "valor_unitario", Label: "Valor Unitário", Type: "number"},
		{Name: "total", Label: "Total", Type: "calculated", Formula: "quantidade * valor_unitario",
			IncludeInTotal: boolPtr(true)},
	}
}

func TestNew_ConstructionErrors(t *testing.T) {
	defaults := testDefaults()
	mount := render.NewTreeMount()
	cols := []column.Def{{Name: "a", Label: "A", Type: "text"}}

	_, err := New(Config{ContainerID: "c", Columns: cols, Mount: mount}, defaults)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "tableId", ce.Field)

	_, err = New(Config{TableID: "t", Columns: cols, Mount: mount}, defaults)
	require.ErrorAs(t, err, &ce)

	_, err = New(Config{TableID: "t", ContainerID: "c", Mount: mount}, defaults)
	require.ErrorAs(t, err, &ce)

	_, err = New(Config{TableID: "t", ContainerID: "c", Columns: cols}, defaults)
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "mount point")

	_, err = New(Config{
		TableID: "t", ContainerID: "c", Mount: mount,
		Columns: []column.Def{{Name: "a", Label: "A", Type: "wat"}},
	}, defaults)
	var ute *column.UnknownColumnTypeError
	require.ErrorAs(t, err, &ute)
}

func TestNew_MountsSkeletonReplacingPriorState(t *testing.T) {
	mount := render.NewTreeMount()
	mount.Replace(render.NewEl("div").Set("data-table-id", "stale"))

	_, err := New(Config{
		TableID: "fresh", ContainerID: "c",
		Columns: []column.Def{{Name: "a", Label: "A", Type: "text"}},
		Mount:   mount,
	}, testDefaults())
	require.NoError(t, err)
	assert.Equal(t, "fresh", mount.Root().Attrs["data-table-id"])
}

func TestAddRow_DefaultsAndData(t *testing.T) {
	f := newFixture(t, []column.Def{
		{Name: "descricao", Label: "Descrição", Type: "text", DefaultValue: "novo item"},
		{Name: "quantidade", Label: "Qtd", Type: "number"},
	}, column.OptionsDef{})

	id, err := f.tbl.AddRow(nil)
	require.NoError(t, err)
	row, ok := f.tbl.GetRow(id)
	require.True(t, ok)
	assert.Equal(t, "novo item", row["descricao"])

	id2, err := f.tbl.AddRow(map[string]any{"descricao": "obra civil", "quantidade": 2.0})
	require.NoError(t, err)
	row2, _ := f.tbl.GetRow(id2)
	assert.Equal(t, "obra civil", row2["descricao"])
	assert.Equal(t, 2.0, row2["quantidade"])

	assert.Equal(t, []string{id, id2}, f.tbl.RowIDs(), "store order matches insertion order")
}

func TestRowCountInvariant_MaxRowsThrows(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{MaxRows: intPtr(2)})

	_, err := f.tbl.AddRow(nil)
	require.NoError(t, err)
	_, err = f.tbl.AddRow(nil)
	require.NoError(t, err)

	_, err = f.tbl.AddRow(nil)
	require.Error(t, err)
	assert.True(t, IsCapacityError(err))
	assert.Equal(t, 2, f.tbl.RowCount())
}

func TestRowCountInvariant_MinRowsRefuses(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{MinRows: intPtr(1)})

	// Init seeded exactly minRows empty rows.
	require.Equal(t, 1, f.tbl.RowCount())
	id := f.tbl.RowIDs()[0]

	ok, msg := f.tbl.RemoveRow(id)
	assert.False(t, ok, "removal below minRows is refused, not thrown")
	assert.NotEmpty(t, msg)
	assert.Equal(t, 1, f.tbl.RowCount())
}

func TestRemoveRow_ConfirmationStep(t *testing.T) {
	mount := render.NewTreeMount()
	confirmed := false
	tbl, err := New(Config{
		TableID: "t", ContainerID: "c", Columns: invCols(), Mount: mount,
		Adapter: persist.NewMemory(),
	}, testDefaults(), WithConfirm(func(rowID string) bool {
		confirmed = true
		return false // user clicked cancel
	}))
	require.NoError(t, err)
	require.NoError(t, tbl.Init(context.Background()))

	id, err := tbl.AddRow(nil)
	require.NoError(t, err)

	ok, _ := tbl.RemoveRow(id)
	assert.True(t, confirmed, "confirmation step consulted")
	assert.False(t, ok)
	assert.Equal(t, 1, tbl.RowCount())
}

func TestRemoveRow_Succeeds(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	id1, _ := f.tbl.AddRow(map[string]any{"descricao": "um"})
	id2, _ := f.tbl.AddRow(map[string]any{"descricao": "dois"})

	var removed []string
	f.tbl.On(EventRowRemoved, func(p Payload) { removed = append(removed, p.RowID) })

	ok, msg := f.tbl.RemoveRow(id1)
	assert.True(t, ok)
	assert.Empty(t, msg)
	assert.Equal(t, []string{id2}, f.tbl.RowIDs())
	assert.Equal(t, []string{id1}, removed)

	// Row element left the view too.
	assert.Nil(t, f.mount.Root().FindByAttr("data-row-id", id1))
}

func TestFormulaDeterminism(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	id, err := f.tbl.AddRow(map[string]any{"quantidade": 3.0, "valor_unitario": 10.0})
	require.NoError(t, err)
	row, _ := f.tbl.GetRow(id)
	assert.Equal(t, 30.0, row["total"])

	// Empty input is zero, never NaN.
	id2, err := f.tbl.AddRow(map[string]any{"quantidade": "", "valor_unitario": 10.0})
	require.NoError(t, err)
	row2, _ := f.tbl.GetRow(id2)
	assert.Equal(t, 0.0, row2["total"])
}

func TestFormula_RecomputedOnEdit(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	id, _ := f.tbl.AddRow(map[string]any{"quantidade": 2.0, "valor_unitario": 5.0})

	require.NoError(t, f.tbl.SetCell(id, "quantidade", "4"))
	row, _ := f.tbl.GetRow(id)
	assert.Equal(t, 20.0, row["total"])

	// The view got the row-local patch.
	ctl := f.mount.Root().FindByAttr("data-row-id", id).FindByAttr("data-column", "total")
	require.NotNil(t, ctl)
	assert.Equal(t, "20.00", ctl.Attrs["value"])
}

func TestMalformedFormula_EvaluatesToZero(t *testing.T) {
	f := newFixture(t, []column.Def{
		{Name: "a", Label: "A", Type: "number"},
		{Name: "broken", Label: "Broken", Type: "calculated", Formula: "a +"},
	}, column.OptionsDef{})

	id, err := f.tbl.AddRow(map[string]any{"a": 7.0})
	require.NoError(t, err, "a malformed formula never halts the input pipeline")
	row, _ := f.tbl.GetRow(id)
	assert.Equal(t, 0.0, row["broken"])
}

func TestTotals_SumAndAverage(t *testing.T) {
	cols := []column.Def{
		{Name: "valor", Label: "Valor", Type: "currency", IncludeInTotal: boolPtr(true)},
	}

	f := newFixture(t, cols, column.OptionsDef{ShowTotal: boolPtr(true)})
	for _, v := range []float64{10, 20, 30} {
		_, err := f.tbl.AddRow(map[string]any{"valor": v})
		require.NoError(t, err)
	}
	assert.Equal(t, 60.0, f.tbl.GetTotals()["valor"])

	f2 := newFixture(t, cols, column.OptionsDef{ShowTotal: boolPtr(true), TotalType: "average"})
	for _, v := range []float64{10, 20, 30} {
		_, err := f2.tbl.AddRow(map[string]any{"valor": v})
		require.NoError(t, err)
	}
	assert.Equal(t, 20.0, f2.tbl.GetTotals()["valor"])
}

func TestTotals_ExcludesNonNumeric(t *testing.T) {
	f := newFixture(t, []column.Def{
		{Name: "valor", Label: "Valor", Type: "number", IncludeInTotal: boolPtr(true),
			TotalType: "average"},
	}, column.OptionsDef{})

	f.tbl.AddRow(map[string]any{"valor": 10.0})
	f.tbl.AddRow(map[string]any{"valor": "abc"})
	f.tbl.AddRow(map[string]any{"valor": 20.0})

	// Non-numeric cells are excluded from the aggregate, not zeroed:
	// the average divides by two, not three.
	assert.Equal(t, 15.0, f.tbl.GetTotals()["valor"])
}

func TestTotals_PerColumnCount(t *testing.T) {
	f := newFixture(t, []column.Def{
		{Name: "valor", Label: "Valor", Type: "number", IncludeInTotal: boolPtr(true),
			TotalType: "count"},
	}, column.OptionsDef{})

	f.tbl.AddRow(map[string]any{"valor": 10.0})
	f.tbl.AddRow(map[string]any{"valor": nil})
	f.tbl.AddRow(map[string]any{"valor": 20.0})

	assert.Equal(t, 2.0, f.tbl.GetTotals()["valor"])
}

func TestValidationSplit(t *testing.T) {
	f := newFixture(t, []column.Def{
		{Name: "descricao", Label: "Descrição", Type: "text", Required: boolPtr(true)},
		{Name: "cpf", Label: "CPF", Type: "cpf"},
	}, column.OptionsDef{})

	_, err := f.tbl.AddRow(map[string]any{"descricao": "", "cpf": "123"})
	require.NoError(t, err)

	res := f.tbl.Validate()
	assert.False(t, res.Valid, "only the error blocks validity")
	require.Len(t, res.Errors, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "descricao", res.Errors[0].ColumnName)
	assert.Equal(t, "cpf", res.Warnings[0].ColumnName)
	assert.Equal(t, 0, res.Errors[0].RowIndex)
}

func TestValidation_WarningsNeverBlock(t *testing.T) {
	f := newFixture(t, []column.Def{
		{Name: "cnpj", Label: "CNPJ", Type: "cnpj"},
		{Name: "fone", Label: "Telefone", Type: "phone"},
		{Name: "email", Label: "E-mail", Type: "email"},
	}, column.OptionsDef{})

	f.tbl.AddRow(map[string]any{"cnpj": "12.345", "fone": "62 999", "email": "semarroba"})

	res := f.tbl.Validate()
	assert.True(t, res.Valid)
	assert.Len(t, res.Warnings, 3)
	assert.Empty(t, res.Errors)
}

func TestValidation_CustomValidator(t *testing.T) {
	f := newFixture(t, []column.Def{
		{Name: "valor", Label: "Valor", Type: "number"},
	}, column.OptionsDef{})

	f.tbl.RegisterValidator("valor", func(value any, _ map[string]any) (bool, string) {
		v, _ := value.(float64)
		if v < 0 {
			return false, "Valor não pode ser negativo"
		}
		return true, ""
	})

	f.tbl.AddRow(map[string]any{"valor": -5.0})
	res := f.tbl.Validate()
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Valor não pode ser negativo", res.Errors[0].Message)
}

func TestValidation_MarksCellsInView(t *testing.T) {
	f := newFixture(t, []column.Def{
		{Name: "descricao", Label: "Descrição", Type: "text", Required: boolPtr(true)},
		{Name: "cpf", Label: "CPF", Type: "cpf"},
	}, column.OptionsDef{})

	id, err := f.tbl.AddRow(map[string]any{"cpf": "123"})
	require.NoError(t, err)

	res := f.tbl.Validate()
	require.False(t, res.Valid)

	row := f.mount.Root().FindByAttr("data-row-id", id)
	require.NotNil(t, row)
	desc := row.FindByAttr("data-column", "descricao")
	require.NotNil(t, desc)
	assert.Contains(t, desc.Attrs["class"], "err")
	assert.Equal(t, "Descrição é obrigatório", desc.Attrs["title"])

	cpf := row.FindByAttr("data-column", "cpf")
	require.NotNil(t, cpf)
	assert.Contains(t, cpf.Attrs["class"], "warn")
	assert.Equal(t, "CPF deve conter 11 dígitos", cpf.Attrs["title"])

	// Fixing the data clears the marks on the next validation pass.
	require.NoError(t, f.tbl.SetCell(id, "descricao", "obra"))
	require.NoError(t, f.tbl.SetCell(id, "cpf", "52998224725"))
	res = f.tbl.Validate()
	require.True(t, res.Valid)
	assert.NotContains(t, desc.Attrs["class"], "err")
	assert.Empty(t, desc.Attrs["title"])
	assert.NotContains(t, cpf.Attrs["class"], "warn")
	assert.Empty(t, cpf.Attrs["title"])
}

func TestCloneIsolation(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	orig, _ := f.tbl.AddRow(map[string]any{"descricao": "bomba", "quantidade": 2.0, "valor_unitario": 50.0})
	clone, err := f.tbl.CloneRow(orig)
	require.NoError(t, err)
	assert.NotEqual(t, orig, clone, "clone gets a distinct identifier")

	cloneRow, _ := f.tbl.GetRow(clone)
	assert.Equal(t, "bomba", cloneRow["descricao"])
	assert.Equal(t, 100.0, cloneRow["total"])

	// Mutating the clone leaves the original untouched.
	require.NoError(t, f.tbl.SetCell(clone, "descricao", "compressor"))
	origRow, _ := f.tbl.GetRow(orig)
	assert.Equal(t, "bomba", origRow["descricao"])
}

func TestSelection_ViewLocal(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	a, _ := f.tbl.AddRow(map[string]any{"descricao": "a"})
	b, _ := f.tbl.AddRow(map[string]any{"descricao": "b"})
	c, _ := f.tbl.AddRow(map[string]any{"descricao": "c"})

	f.tbl.SetRowSelected(c, true)
	f.tbl.SetRowSelected(a, true)
	assert.Equal(t, []string{a, c}, f.tbl.GetSelectedRows(), "store order, not click order")

	f.tbl.SelectAll(true)
	assert.Equal(t, []string{a, b, c}, f.tbl.GetSelectedRows())
	f.tbl.SelectAll(false)
	assert.Empty(t, f.tbl.GetSelectedRows())

	// Selection never reaches the snapshot.
	f.tbl.SetRowSelected(a, true)
	data, err := f.tbl.ExportJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "selected")
}

func TestEvents_ChangePayloads(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	var actions []string
	f.tbl.On(EventChange, func(p Payload) { actions = append(actions, p.Action) })

	id, _ := f.tbl.AddRow(nil)
	f.tbl.SetCell(id, "descricao", "x")
	f.tbl.AddRow(nil)
	f.tbl.RemoveRow(id)

	assert.Equal(t, []string{"add", "update", "add", "remove"}, actions)
}

func TestSetCell_UnknownRowLoggedAndIgnored(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})
	err := f.tbl.SetCell("ghost", "descricao", "x")
	require.Error(t, err)
	assert.Equal(t, 0, f.tbl.RowCount())

	id, _ := f.tbl.AddRow(nil)
	err = f.tbl.SetCell(id, "ghost_col", "x")
	require.Error(t, err)
}
