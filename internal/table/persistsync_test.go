package table

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/persist"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/render"
)

func TestDebouncedPersistence_CoalescesEdits(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	id, err := f.tbl.AddRow(map[string]any{"descricao": "inicial"})
	require.NoError(t, err)
	f.clock.Advance(time.Second) // flush the add's own write
	saves := f.adapter.Saves()

	// Three edits inside one debounce window produce exactly one save,
	// carrying the state after the third edit.
	require.NoError(t, f.tbl.SetCell(id, "descricao", "um"))
	f.clock.Advance(50 * time.Millisecond)
	require.NoError(t, f.tbl.SetCell(id, "descricao", "dois"))
	f.clock.Advance(50 * time.Millisecond)
	require.NoError(t, f.tbl.SetCell(id, "descricao", "três"))

	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, saves+1, f.adapter.Saves())

	snap, err := f.adapter.Load(context.Background(), "investimentos")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "três", snap.Rows[0].Values["descricao"])
}

func TestDebounce_LateFireKeepsReplacementCancellable(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	id, err := f.tbl.AddRow(map[string]any{"descricao": "inicial"})
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	saves := f.adapter.Saves()

	// The first edit schedules a timer that fires but has not yet taken
	// the table lock when a second edit replaces it.
	require.NoError(t, f.tbl.SetCell(id, "descricao", "um"))
	require.Len(t, f.clock.timers, 1)
	late := f.clock.timers[0]
	late.stopped = true // the replacement's Stop() sees it as already fired

	require.NoError(t, f.tbl.SetCell(id, "descricao", "dois"))
	late.f() // the in-flight save lands after the replacement was scheduled

	// The replacement must still be cancellable: a third edit inside the
	// window coalesces with it instead of stacking a second save.
	require.NoError(t, f.tbl.SetCell(id, "descricao", "três"))
	f.clock.Advance(300 * time.Millisecond)

	assert.Equal(t, saves+2, f.adapter.Saves(), "one late write plus one debounced write")
	snap, err := f.adapter.Load(context.Background(), "investimentos")
	require.NoError(t, err)
	assert.Equal(t, "três", snap.Rows[0].Values["descricao"])
}

func TestDebounce_NoWriteBeforeWindow(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	_, err := f.tbl.AddRow(nil)
	require.NoError(t, err)
	f.clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 0, f.adapter.Saves())
	f.clock.Advance(250 * time.Millisecond)
	assert.Equal(t, 1, f.adapter.Saves())
}

func TestInit_RestoresSnapshotWithoutRewriting(t *testing.T) {
	adapter := persist.NewMemory()
	snap := &persist.Snapshot{
		TableID: "investimentos",
		Rows: []persist.Row{
			{ID: "keep-1", Values: map[string]any{"descricao": "obra", "quantidade": 2.0, "valor_unitario": 5.0}},
		},
		Metadata: persist.Metadata{RowCount: 1, Version: persist.SnapshotVersion},
	}
	require.NoError(t, adapter.Save(context.Background(), "investimentos", snap))
	preSaves := adapter.Saves()

	clock := &testutilClock{now: time.Unix(0, 0)}
	tbl, err := New(Config{
		TableID: "investimentos", ContainerID: "c", Columns: invCols(),
		Adapter: adapter, Mount: render.NewTreeMount(),
	}, testDefaults(), WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, tbl.Init(context.Background()))

	assert.Equal(t, 1, tbl.RowCount())
	assert.Equal(t, []string{"keep-1"}, tbl.RowIDs(), "restored rows keep their identifiers")

	row, _ := tbl.GetRow("keep-1")
	assert.Equal(t, 10.0, row["total"], "formulas recomputed on restore")

	// A restore must not immediately write back what it just read.
	clock.Advance(time.Minute)
	assert.Equal(t, preSaves, adapter.Saves())
}

func TestInit_SeedsMinRowsAndPersistsOnce(t *testing.T) {
	adapter := persist.NewMemory()
	clock := &testutilClock{now: time.Unix(0, 0)}
	tbl, err := New(Config{
		TableID: "investimentos", ContainerID: "c", Columns: invCols(),
		Options: column.OptionsDef{MinRows: intPtr(2)},
		Adapter: adapter, Mount: render.NewTreeMount(),
	}, testDefaults(), WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, tbl.Init(context.Background()))

	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, 1, adapter.Saves(), "seed is persisted exactly once, synchronously")

	clock.Advance(time.Minute)
	assert.Equal(t, 1, adapter.Saves())
}

func TestInit_AdapterFailureIsNonFatal(t *testing.T) {
	tbl, err := New(Config{
		TableID: "t", ContainerID: "c", Columns: invCols(),
		Adapter: failingAdapter{}, Mount: render.NewTreeMount(),
	}, testDefaults())
	require.NoError(t, err)
	require.NoError(t, tbl.Init(context.Background()), "load failure starts empty, does not crash")

	_, err = tbl.AddRow(map[string]any{"descricao": "ok"})
	require.NoError(t, err, "in-memory state stays authoritative")
}

type failingAdapter struct{}

func (failingAdapter) Save(context.Context, string, *persist.Snapshot) error {
	return errors.New("backend offline")
}

func (failingAdapter) Load(context.Context, string) (*persist.Snapshot, error) {
	return nil, errors.New("backend offline")
}

func TestSaveFailure_EmitsErrorEvent(t *testing.T) {
	mount := render.NewTreeMount()
	clock := &testutilClock{now: time.Unix(0, 0)}
	tbl, err := New(Config{
		TableID: "t", ContainerID: "c", Columns: invCols(),
		Adapter: failingAdapter{}, Mount: mount,
	}, testDefaults(), WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, tbl.Init(context.Background()))

	var persistErrors []string
	tbl.On(EventError, func(p Payload) {
		if p.Action == "persist" {
			persistErrors = append(persistErrors, p.Message)
		}
	})

	_, err = tbl.AddRow(nil)
	require.NoError(t, err)
	clock.Advance(time.Second)

	require.Len(t, persistErrors, 1)
	assert.Contains(t, persistErrors[0], "backend offline")
}

func TestRoundTrip_ExportImport(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	f.tbl.AddRow(map[string]any{"descricao": "obra", "quantidade": 2.0, "valor_unitario": 100.0})
	f.tbl.AddRow(map[string]any{"descricao": "maquina", "quantidade": 1.0, "valor_unitario": 50.0})

	data, err := f.tbl.ExportJSON()
	require.NoError(t, err)

	// Import back into a fresh table with the same identity.
	g := newFixture(t, invCols(), column.OptionsDef{})
	require.NoError(t, g.tbl.ImportJSON(data))

	assert.Equal(t, f.tbl.RowIDs(), g.tbl.RowIDs(), "import preserves identifiers")
	assert.Equal(t, f.tbl.GetTotals(), g.tbl.GetTotals())

	origRow, _ := f.tbl.GetRow(f.tbl.RowIDs()[0])
	backRow, _ := g.tbl.GetRow(g.tbl.RowIDs()[0])
	assert.Equal(t, origRow, backRow)
}

func TestImport_RejectsMismatchedTableID(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	snap := &persist.Snapshot{TableID: "outra", Rows: []persist.Row{}}
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	err = f.tbl.ImportJSON(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestImport_RejectsNonArrayRows(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})
	err := f.tbl.ImportJSON([]byte(`{"tableId": "investimentos", "rows": {"0": {}}}`))
	require.Error(t, err)
}

func TestImport_ReplacesPriorRows(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})
	f.tbl.AddRow(map[string]any{"descricao": "antiga"})

	snap := &persist.Snapshot{
		TableID: "investimentos",
		Rows:    []persist.Row{{ID: "n1", Values: map[string]any{"descricao": "nova"}}},
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var actions []string
	f.tbl.On(EventChange, func(p Payload) { actions = append(actions, p.Action) })
	require.NoError(t, f.tbl.ImportJSON(data))

	assert.Equal(t, []string{"n1"}, f.tbl.RowIDs())
	assert.Contains(t, actions, "import")
}

func TestExportJSON_Shape(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})
	f.tbl.AddRow(map[string]any{"descricao": "obra", "quantidade": 3.0, "valor_unitario": 10.0})

	data, err := f.tbl.ExportJSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "investimentos", doc["tableId"])

	rows, ok := doc["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	first := rows[0].(map[string]any)
	assert.Equal(t, "row-1", first["id"])
	assert.Equal(t, 30.0, first["total"])

	meta := doc["metadata"].(map[string]any)
	assert.Equal(t, 1.0, meta["rowCount"])
	assert.Equal(t, persist.SnapshotVersion, meta["version"])
	assert.NotEmpty(t, meta["timestamp"])

	totals := doc["totals"].(map[string]any)
	assert.Equal(t, 30.0, totals["total"])
}

func TestDestroy_CancelsPendingWrite(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{})

	_, err := f.tbl.AddRow(nil)
	require.NoError(t, err)

	f.tbl.Destroy()
	f.clock.Advance(time.Minute)

	assert.Equal(t, 0, f.adapter.Saves(), "stale write never fires against a torn-down view")
	assert.Nil(t, f.mount.Root())

	_, err = f.tbl.AddRow(nil)
	assert.ErrorIs(t, err, ErrDestroyed)
}

func TestClear_ReseedsMinimum(t *testing.T) {
	f := newFixture(t, invCols(), column.OptionsDef{MinRows: intPtr(1)})
	f.tbl.AddRow(map[string]any{"descricao": "extra"})
	require.Equal(t, 2, f.tbl.RowCount())

	f.tbl.Clear()
	assert.Equal(t, 1, f.tbl.RowCount())
	row, _ := f.tbl.GetRow(f.tbl.RowIDs()[0])
	assert.Empty(t, row["descricao"])
}
