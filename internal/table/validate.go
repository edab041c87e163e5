package table

import (
	"fmt"
	"regexp"

	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/format"
)

// Issue locates one validation finding.
type Issue struct {
	RowIndex   int    `json:"rowIndex"`
	RowID      string `json:"rowId"`
	ColumnName string `json:"columnName"`
	Message    string `json:"message"`
}

// Result is the outcome of a Validate call. Only errors block validity;
// warnings are advisory UI feedback and never gate submission.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// CellValidator is a caller-registered check for one column. Returning
// ok=false makes the issue a blocking error.
type CellValidator func(value any, row map[string]any) (ok bool, message string)

// RegisterValidator installs a custom validator for a column name,
// replacing any previous one.
func (t *Table) RegisterValidator(columnName string, v CellValidator) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v == nil {
		delete(t.validators, columnName)
		return
	}
	t.validators[columnName] = v
}

// emailPattern is deliberately loose: it flags obviously broken addresses
// without rejecting unusual but deliverable ones.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks every cell of every row.
//
// Errors: a required column with an empty value, or a custom validator
// reporting invalid. Warnings: format mismatches on document numbers,
// phones and e-mail. A partially typed phone number must never block data
// entry; only missing mandatory data does.
func (t *Table) Validate() Result {
	t.mu.Lock()

	res := Result{Valid: true, Errors: []Issue{}, Warnings: []Issue{}}
	for i, row := range t.rows {
		for _, col := range t.cols {
			value := row.values[col.Name]

			if col.Required && isEmpty(value) {
				res.Errors = append(res.Errors, Issue{
					RowIndex:   i,
					RowID:      row.ID,
					ColumnName: col.Name,
					Message:    fmt.Sprintf("%s é obrigatório", col.Label),
				})
				continue
			}
			if isEmpty(value) {
				continue
			}

			if v, ok := t.validators[col.Name]; ok {
				if valid, msg := v(value, row.copyValues()); !valid {
					if msg == "" {
						msg = fmt.Sprintf("%s é inválido", col.Label)
					}
					res.Errors = append(res.Errors, Issue{
						RowIndex: i, RowID: row.ID, ColumnName: col.Name, Message: msg,
					})
				}
			}

			if msg := formatWarning(col, value); msg != "" {
				res.Warnings = append(res.Warnings, Issue{
					RowIndex: i, RowID: row.ID, ColumnName: col.Name, Message: msg,
				})
			}
		}
	}
	res.Valid = len(res.Errors) == 0
	t.applyIssueMarksLocked(res)

	t.queueEvent(EventValidate, Payload{Result: &res})
	evs := t.drainEvents()
	t.mu.Unlock()
	t.dispatch(evs)
	return res
}

type cellKey struct {
	rowID  string
	column string
}

// applyIssueMarksLocked projects validation state onto the view: errored
// cells get the error class, warned cells the warning class, clean cells
// lose any prior mark. The issue message becomes the cell's tooltip.
// Errors win when a cell carries both kinds.
func (t *Table) applyIssueMarksLocked(res Result) {
	marks := make(map[cellKey]Issue, len(res.Errors)+len(res.Warnings))
	classes := make(map[cellKey]string, len(res.Errors)+len(res.Warnings))
	for _, w := range res.Warnings {
		k := cellKey{w.RowID, w.ColumnName}
		marks[k] = w
		classes[k] = t.css.Warning
	}
	for _, e := range res.Errors {
		k := cellKey{e.RowID, e.ColumnName}
		marks[k] = e
		classes[k] = t.css.Error
	}

	for _, row := range t.rows {
		for _, col := range t.cols {
			k := cellKey{row.ID, col.Name}
			t.mount.ClearCellIssue(row.ID, col.Name, t.css.Error, t.css.Warning)
			if iss, ok := marks[k]; ok {
				t.mount.SetCellIssue(row.ID, col.Name, classes[k], iss.Message)
			}
		}
	}
}

// formatWarning runs the type-specific format checks. These are advisory:
// the value may simply not be fully typed yet.
func formatWarning(col column.Column, value any) string {
	s, isStr := value.(string)
	if !isStr {
		return ""
	}

	switch col.Type {
	case column.TypeCPF:
		if len(format.Digits(s)) != 11 {
			return "CPF deve conter 11 dígitos"
		}
	case column.TypeCNPJ:
		if len(format.Digits(s)) != 14 {
			return "CNPJ deve conter 14 dígitos"
		}
	case column.TypePhone:
		if n := len(format.Digits(s)); n < 10 || n > 11 {
			return "Telefone deve conter 10 ou 11 dígitos"
		}
	case column.TypeEmail:
		if !emailPattern.MatchString(s) {
			return "E-mail em formato inválido"
		}
	}
	return ""
}

func isEmpty(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return s == ""
	default:
		return false
	}
}
