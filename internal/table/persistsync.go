package table

import (
	"context"
	"fmt"
	"time"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/persist"
)

// saveTimeout bounds a single adapter write. Saves are fire-and-forget with
// respect to user input; a slow backend must not wedge the timer goroutine
// forever.
const saveTimeout = 10 * time.Second

// schedulePersistLocked cancels any pending debounce timer and starts a new
// one. Only the last scheduled snapshot within a window is written;
// persisted state may lag the UI by up to one debounce interval.
func (t *Table) schedulePersistLocked() {
	if !t.opts.AutoSave || t.adapter == nil || t.destroyed {
		return
	}
	if t.pending != nil {
		t.pending.Stop()
	}
	t.pendingGen++
	gen := t.pendingGen
	t.pending = t.clock.AfterFunc(t.opts.SaveDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		t.persistFired(ctx, gen)
	})
}

// persistFired is the debounce callback. The pending reference is cleared
// only when it still belongs to the timer that fired; a save in flight from
// an already-fired timer must not orphan a replacement timer scheduled by a
// newer edit, or that replacement could no longer be cancelled.
func (t *Table) persistFired(ctx context.Context, gen uint64) {
	t.mu.Lock()
	if t.destroyed || t.adapter == nil {
		t.mu.Unlock()
		return
	}
	if gen == t.pendingGen {
		t.pending = nil
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.saveSnapshot(ctx, snap)
}

// persistNow serializes current state and writes it through the adapter,
// bypassing the debounce machinery. Callers that hold a pending timer stop
// it themselves first.
func (t *Table) persistNow(ctx context.Context) {
	t.mu.Lock()
	if t.destroyed || t.adapter == nil {
		t.mu.Unlock()
		return
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.saveSnapshot(ctx, snap)
}

// saveSnapshot writes one snapshot through the adapter. Failures are logged
// and surfaced as an error event, never thrown: the in-memory state stays
// authoritative for the session.
func (t *Table) saveSnapshot(ctx context.Context, snap *persist.Snapshot) {
	if err := t.adapter.Save(ctx, t.tableID, snap); err != nil {
		t.logger.Error("persistence save failed", "table", t.tableID, "error", err)
		t.dispatch([]queuedEvent{{
			event:   EventError,
			payload: Payload{Action: "persist", Message: err.Error()},
		}})
	}
}

// Flush cancels any pending debounce timer and persists synchronously.
// Used at teardown boundaries (wizard navigation, CLI import).
func (t *Table) Flush(ctx context.Context) {
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.mu.Unlock()
	t.persistNow(ctx)
}

// snapshotLocked captures the table's current serialized form.
func (t *Table) snapshotLocked() *persist.Snapshot {
	rows := make([]persist.Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = persist.Row{ID: r.ID, Values: r.copyValues()}
	}
	totals := make(map[string]float64, len(t.totals))
	for k, v := range t.totals {
		totals[k] = v
	}
	return &persist.Snapshot{
		TableID: t.tableID,
		Rows:    rows,
		Totals:  totals,
		Metadata: persist.Metadata{
			RowCount:  len(t.rows),
			Timestamp: t.clock.Now().UTC().Format(time.RFC3339),
			Version:   persist.SnapshotVersion,
		},
	}
}

// ExportJSON serializes the table to the snapshot interchange form.
func (t *Table) ExportJSON() ([]byte, error) {
	t.mu.Lock()
	snap := t.snapshotLocked()
	t.mu.Unlock()
	return snap.Marshal()
}

// ImportJSON replaces the row set from a snapshot document.
//
// The document's tableId must match this table's; rows must be an array;
// an import that would exceed maxRows is rejected whole. Imported rows keep
// their identifiers; fresh identity is only ever minted by CloneRow.
// On success formulas and totals are recomputed, one persistence write is
// scheduled, and a change event with action "import" fires.
func (t *Table) ImportJSON(data []byte) error {
	snap, err := persist.ParseSnapshot(data)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	if snap.TableID != t.tableID {
		t.mu.Unlock()
		return fmt.Errorf("import: snapshot tableId %q does not match %q", snap.TableID, t.tableID)
	}
	if len(snap.Rows) > t.opts.MaxRows {
		t.mu.Unlock()
		return &CapacityError{TableID: t.tableID, Max: t.opts.MaxRows}
	}

	for _, row := range t.rows {
		t.mount.RemoveRow(row.ID)
	}
	t.rows = nil
	t.selected = map[string]bool{}

	for _, row := range snap.Rows {
		if _, err := t.addRowLocked(row.Values, true, row.ID); err != nil {
			break
		}
	}
	t.updateTotalsLocked()
	t.schedulePersistLocked()
	t.queueEvent(EventChange, Payload{Action: "import"})
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)
	return nil
}
