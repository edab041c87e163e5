package harness

import (
	"fmt"
	"math"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/format"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/table"
)

// totalEpsilon bounds float drift in totals comparisons. Scenario values
// come from YAML and survive one multiply at most, so the bound is tight.
const totalEpsilon = 1e-9

// EvaluateExpect checks an expectation clause against the execution
// result, appending one error per mismatch. Unset fields are skipped.
func EvaluateExpect(result *Result, expect *Expect, tbl *table.Table, lastValidation *table.Result) {
	if expect.RowCount != nil && result.Final.RowCount != *expect.RowCount {
		result.AddError(fmt.Sprintf("rowCount: expected %d, got %d",
			*expect.RowCount, result.Final.RowCount))
	}

	for name, want := range expect.Totals {
		got, ok := result.Final.Totals[name]
		if !ok {
			result.AddError(fmt.Sprintf("totals[%s]: no total computed", name))
			continue
		}
		if math.Abs(got-want) > totalEpsilon {
			result.AddError(fmt.Sprintf("totals[%s]: expected %v, got %v", name, want, got))
		}
	}

	for _, cell := range expect.Cells {
		checkCell(result, tbl, cell)
	}

	if expect.Valid != nil || len(expect.Errors) > 0 || len(expect.Warnings) > 0 {
		if lastValidation == nil {
			result.AddError("expect references validation but no validate step ran")
		} else {
			checkValidation(result, expect, lastValidation)
		}
	}

	if expect.Saves != nil && result.Saves != *expect.Saves {
		result.AddError(fmt.Sprintf("saves: expected %d adapter writes, got %d",
			*expect.Saves, result.Saves))
	}
}

// checkCell compares one stored cell against its expected value. Numeric
// values compare as floats so YAML integers match stored float64 results.
func checkCell(result *Result, tbl *table.Table, cell CellExpect) {
	id, err := rowAt(tbl, cell.Row)
	if err != nil {
		result.AddError(fmt.Sprintf("cells[%d/%s]: %v", cell.Row, cell.Column, err))
		return
	}
	values, _ := tbl.GetRow(id)
	got, ok := values[cell.Column]
	if !ok {
		result.AddError(fmt.Sprintf("cells[%d/%s]: cell is unset", cell.Row, cell.Column))
		return
	}

	wantF, wantNum := format.ToFloat(cell.Value)
	gotF, gotNum := format.ToFloat(got)
	if wantNum && gotNum {
		if math.Abs(gotF-wantF) > totalEpsilon {
			result.AddError(fmt.Sprintf("cells[%d/%s]: expected %v, got %v",
				cell.Row, cell.Column, cell.Value, got))
		}
		return
	}
	if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", cell.Value) {
		result.AddError(fmt.Sprintf("cells[%d/%s]: expected %v, got %v",
			cell.Row, cell.Column, cell.Value, got))
	}
}

// checkValidation compares the last validation result with the expected
// validity and message lists. Message lists are subset matches: every
// expected message must appear, extra findings are tolerated.
func checkValidation(result *Result, expect *Expect, v *table.Result) {
	if expect.Valid != nil && v.Valid != *expect.Valid {
		result.AddError(fmt.Sprintf("valid: expected %v, got %v", *expect.Valid, v.Valid))
	}
	for _, msg := range expect.Errors {
		if !containsMessage(v.Errors, msg) {
			result.AddError(fmt.Sprintf("errors: missing %q", msg))
		}
	}
	for _, msg := range expect.Warnings {
		if !containsMessage(v.Warnings, msg) {
			result.AddError(fmt.Sprintf("warnings: missing %q", msg))
		}
	}
}

func containsMessage(issues []table.Issue, msg string) bool {
	for _, issue := range issues {
		if issue.Message == msg {
			return true
		}
	}
	return false
}
