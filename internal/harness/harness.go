package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/persist"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/render"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/schema"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/table"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/testutil"
)

// scenarioEpoch anchors the manual clock so snapshot timestamps are stable
// across runs.
var scenarioEpoch = time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

// Run executes a scenario and returns its result.
//
// Each scenario runs against a fresh in-memory adapter and mount for
// isolation. Engine logs are discarded; refusals and errors surface in
// the trace instead.
func Run(scenario *Scenario) (*Result, error) {
	defaults, err := schema.Load(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema defaults: %w", err)
	}

	adapter := persist.NewMemory()
	mount := render.NewTreeMount()
	clock := testutil.NewManualClock(scenarioEpoch)

	tbl, err := table.New(table.Config{
		TableID:     scenario.Table.TableID,
		ContainerID: "harness",
		Columns:     scenario.Table.Columns,
		Options:     scenario.Table.Options,
		Adapter:     adapter,
		Mount:       mount,
	}, defaults,
		table.WithClock(clock),
		table.WithIDGenerator(testutil.NewSequenceIDs("row")),
		table.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to construct table: %w", err)
	}

	result := NewResult()
	observe(tbl, result)

	if err := tbl.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to init table: %w", err)
	}

	var lastValidation *table.Result
	for i, step := range scenario.Steps {
		if err := executeStep(tbl, clock, &step, result, &lastValidation); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	result.Final = captureFinal(tbl)
	result.Saves = adapter.Saves()

	if scenario.Expect != nil {
		EvaluateExpect(result, scenario.Expect, tbl, lastValidation)
	}
	return result, nil
}

// observe wires the table's event stream into the result trace. Row
// lifecycle events are omitted; the change event already carries the
// action and row identity.
func observe(tbl *table.Table, result *Result) {
	tbl.On(table.EventChange, func(p table.Payload) {
		result.addTrace(TraceEvent{
			Kind:   "change",
			Action: p.Action,
			RowID:  p.RowID,
			Column: p.Column,
			Value:  p.Value,
		})
	})
	tbl.On(table.EventValidate, func(p table.Payload) {
		if p.Result == nil {
			return
		}
		valid := p.Result.Valid
		result.addTrace(TraceEvent{
			Kind:     "validate",
			Valid:    &valid,
			Errors:   len(p.Result.Errors),
			Warnings: len(p.Result.Warnings),
		})
	})
	tbl.On(table.EventError, func(p table.Payload) {
		result.addTrace(TraceEvent{
			Kind:    "error",
			Action:  p.Action,
			RowID:   p.RowID,
			Message: p.Message,
		})
	})
}

// executeStep applies one scenario step to the table.
//
// Guarded refusals are not failures: a capacity rejection lands in the
// trace as a "reject" event and execution continues, mirroring how the
// input pipeline stays alive for an interactive user.
func executeStep(tbl *table.Table, clock *testutil.ManualClock, step *Step, result *Result, lastValidation **table.Result) error {
	switch step.Action {
	case StepAdd:
		if _, err := tbl.AddRow(step.Data); err != nil {
			if !table.IsCapacityError(err) {
				return err
			}
			result.addTrace(TraceEvent{Kind: "reject", Action: "add", Message: err.Error()})
		}
	case StepEdit:
		id, err := rowAt(tbl, step.Row)
		if err != nil {
			return err
		}
		if err := tbl.SetCell(id, step.Column, step.Value); err != nil {
			return err
		}
	case StepClone:
		id, err := rowAt(tbl, step.Row)
		if err != nil {
			return err
		}
		if _, err := tbl.CloneRow(id); err != nil {
			if !table.IsCapacityError(err) {
				return err
			}
			result.addTrace(TraceEvent{Kind: "reject", Action: "clone", Message: err.Error()})
		}
	case StepRemove:
		id, err := rowAt(tbl, step.Row)
		if err != nil {
			return err
		}
		// Refusals below minRows surface through the error event.
		tbl.RemoveRow(id)
	case StepSelect:
		id, err := rowAt(tbl, step.Row)
		if err != nil {
			return err
		}
		selected, _ := step.Value.(bool)
		tbl.SetRowSelected(id, selected)
	case StepValidate:
		res := tbl.Validate()
		*lastValidation = &res
	case StepClear:
		tbl.Clear()
	case StepFlush:
		clock.Advance(tbl.Options().SaveDelay + time.Millisecond)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

// rowAt resolves a 1-based row position to its identifier.
func rowAt(tbl *table.Table, pos int) (string, error) {
	ids := tbl.RowIDs()
	if pos < 1 || pos > len(ids) {
		return "", fmt.Errorf("row %d out of range (table has %d rows)", pos, len(ids))
	}
	return ids[pos-1], nil
}

// captureFinal snapshots the stored rows and totals for assertions and
// golden comparison. Each row map carries its identifier under "id".
func captureFinal(tbl *table.Table) FinalState {
	ids := tbl.RowIDs()
	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		values, ok := tbl.GetRow(id)
		if !ok {
			continue
		}
		values["id"] = id
		rows = append(rows, values)
	}
	return FinalState{
		RowCount: len(ids),
		Totals:   tbl.GetTotals(),
		Rows:     rows,
	}
}
