package table

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/formula"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/persist"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/render"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/schema"
)

// Config is the caller-supplied construction configuration.
// TableID, ContainerID, Columns and Mount are mandatory; a nil Adapter
// disables persistence for the session.
type Config struct {
	TableID     string
	ContainerID string
	Columns     []column.Def
	Options     column.OptionsDef
	Adapter     persist.Adapter
	Mount       render.Mount
}

// Option configures a Table beyond its Config.
type Option func(*Table)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) { t.logger = l }
}

// WithClock substitutes the debounce clock. Tests use a manual clock.
func WithClock(c Clock) Option {
	return func(t *Table) { t.clock = c }
}

// WithIDGenerator substitutes the row identifier source.
func WithIDGenerator(g IDGenerator) Option {
	return func(t *Table) { t.idGen = g }
}

// WithConfirm sets the user confirmation step consulted before a row is
// removed. The default confirms unconditionally.
func WithConfirm(f func(rowID string) bool) Option {
	return func(t *Table) { t.confirm = f }
}

// Table is the aggregate root. One instance corresponds to one mount point;
// constructing a new table over the same mount fully replaces prior
// rendered state.
type Table struct {
	mu sync.Mutex

	tableID     string
	containerID string
	cols        []column.Column
	opts        column.Options
	css         schema.CSS

	rows     []*Row
	selected map[string]bool
	totals   map[string]float64

	formulas map[string]*formula.Compiled // calculated column -> compiled AST

	adapter  persist.Adapter
	mount    render.Mount
	renderer *render.Renderer

	validators map[string]CellValidator
	handlers   map[Event][]Handler

	pendingEvents []queuedEvent
	pending       Timer  // debounce timer, nil when idle
	pendingGen    uint64 // identifies which scheduled timer t.pending holds

	logger  *slog.Logger
	clock   Clock
	idGen   IDGenerator
	confirm func(rowID string) bool

	initialized bool
	destroyed   bool
}

// New constructs a table, normalizes its configuration against the loaded
// schema defaults, and mounts the empty structure.
//
// Construction errors are fatal and synchronous: missing tableID,
// containerID or columns, an unknown column type, or a missing mount point.
// A calculated column whose formula does not compile is NOT fatal: the
// column evaluates to zero and the problem is logged, keeping the input
// pipeline alive.
func New(cfg Config, defaults *schema.Defaults, opts ...Option) (*Table, error) {
	if cfg.TableID == "" {
		return nil, &ConfigError{Field: "tableId", Message: "is required"}
	}
	if cfg.ContainerID == "" {
		return nil, &ConfigError{Field: "containerId", Message: "is required"}
	}
	if len(cfg.Columns) == 0 {
		return nil, &ConfigError{Field: "columns", Message: "at least one column is required"}
	}
	if cfg.Mount == nil {
		return nil, &ConfigError{Field: "containerId", Message: "mount point not found"}
	}
	if defaults == nil {
		return nil, &ConfigError{Field: "schema", Message: "defaults not loaded"}
	}

	cols, err := column.Normalize(cfg.Columns, defaults)
	if err != nil {
		return nil, err
	}
	topts, err := column.NormalizeOptions(cfg.Options, defaults)
	if err != nil {
		return nil, err
	}

	t := &Table{
		tableID:     cfg.TableID,
		containerID: cfg.ContainerID,
		cols:        cols,
		opts:        topts,
		css:         defaults.CSS,
		selected:    map[string]bool{},
		totals:      map[string]float64{},
		formulas:    map[string]*formula.Compiled{},
		adapter:     cfg.Adapter,
		mount:       cfg.Mount,
		validators:  map[string]CellValidator{},
		handlers:    map[Event][]Handler{},
		logger:      slog.Default(),
		clock:       realClock{},
		idGen:       UUIDv4Generator{},
		confirm:     func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, col := range cols {
		if col.Type != column.TypeCalculated {
			continue
		}
		compiled, err := formula.Compile(col.Formula)
		if err != nil {
			t.logger.Warn("formula does not compile, column will evaluate to zero",
				"table", t.tableID, "column", col.Name, "error", err)
			continue
		}
		t.formulas[col.Name] = compiled
	}

	t.renderer = render.New(t.tableID, cols, topts, defaults.CSS)
	t.mount.Replace(t.renderer.Skeleton())
	return t, nil
}

// Init seeds the row store: restores a prior snapshot when the adapter has
// one, otherwise creates minRows empty rows and persists them once.
// Runs exactly once; later calls are no-ops.
//
// Adapter failures are logged and swallowed; the table starts empty (plus
// minimum rows) and in-memory state is authoritative for the session.
func (t *Table) Init(ctx context.Context) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	if t.initialized {
		t.mu.Unlock()
		return nil
	}
	t.initialized = true
	t.mu.Unlock()

	restored := t.loadFromPersistence(ctx)

	t.mu.Lock()
	if !restored && t.opts.MinRows > 0 {
		for i := 0; i < t.opts.MinRows; i++ {
			if _, err := t.addRowLocked(nil, true, ""); err != nil {
				t.logger.Error("seed row failed", "table", t.tableID, "error", err)
				break
			}
		}
	}
	seeded := !restored && t.opts.MinRows > 0
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)

	if seeded {
		t.persistNow(ctx)
	}
	return nil
}

// loadFromPersistence restores rows from a prior snapshot.
// Returns true when at least one row was restored.
func (t *Table) loadFromPersistence(ctx context.Context) bool {
	if t.adapter == nil {
		return false
	}
	snap, err := t.adapter.Load(ctx, t.tableID)
	if err != nil {
		t.logger.Error("persistence load failed, starting empty",
			"table", t.tableID, "error", err)
		return false
	}
	if snap == nil || snap.TableID != t.tableID {
		return false
	}

	t.mu.Lock()
	restored := 0
	for _, row := range snap.Rows {
		// Restored rows keep their identifiers; skipPersist avoids
		// immediately re-writing what was just read back.
		if _, err := t.addRowLocked(row.Values, true, row.ID); err != nil {
			t.logger.Warn("snapshot row dropped", "table", t.tableID,
				"row", row.ID, "error", err)
			break
		}
		restored++
	}
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)
	return restored > 0
}

// TableID returns the table identifier.
func (t *Table) TableID() string { return t.tableID }

// Columns returns the normalized column list.
func (t *Table) Columns() []column.Column {
	return append([]column.Column(nil), t.cols...)
}

// Options returns the resolved table options.
func (t *Table) Options() column.Options { return t.opts }

// Clear removes every row, reseeds the minimum row count with empty rows,
// and schedules one persistence write.
func (t *Table) Clear() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	for _, row := range t.rows {
		t.mount.RemoveRow(row.ID)
	}
	t.rows = nil
	t.selected = map[string]bool{}
	for i := 0; i < t.opts.MinRows; i++ {
		if _, err := t.addRowLocked(nil, true, ""); err != nil {
			break
		}
	}
	t.updateTotalsLocked()
	t.schedulePersistLocked()
	t.queueEvent(EventChange, Payload{Action: "clear"})
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)
}

// Destroy cancels any pending debounce write, drops handlers and releases
// the mount. A stale timer never fires against a torn-down view.
func (t *Table) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.handlers = map[Event][]Handler{}
	t.mount.Clear()
	t.mu.Unlock()
}

// Destroyed reports whether Destroy has run.
func (t *Table) Destroyed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}
