package harness

// TraceEvent is one observed table event or step refusal, in emission
// order. Seq starts at 1.
type TraceEvent struct {
	Kind     string `json:"kind"` // "change" | "validate" | "error" | "reject"
	Action   string `json:"action,omitempty"`
	RowID    string `json:"rowId,omitempty"`
	Column   string `json:"column,omitempty"`
	Value    any    `json:"value,omitempty"`
	Message  string `json:"message,omitempty"`
	Valid    *bool  `json:"valid,omitempty"`
	Errors   int    `json:"errors,omitempty"`
	Warnings int    `json:"warnings,omitempty"`
	Seq      int    `json:"seq"`
}

// FinalState captures the table's stored data after all steps ran.
type FinalState struct {
	RowCount int                `json:"rowCount"`
	Totals   map[string]float64 `json:"totals"`
	Rows     []map[string]any   `json:"rows"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Trace contains observed events in order, for golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation mismatches. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the table state after the last step.
	Final FinalState `json:"finalState"`

	// Saves is the number of adapter writes observed.
	Saves int `json:"-"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}}
}

// AddError records an expectation mismatch and fails the result.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// addTrace appends an event with the next sequence number.
func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}
