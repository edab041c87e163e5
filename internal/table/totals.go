package table

import (
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/column"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/format"
	"github.com/ceciliodaher/mapeador-projetos-sub000/internal/render"
)

// updateTotalsLocked recomputes aggregates for every totalizer column and
// pushes the formatted results into the footer.
//
// Non-numeric and empty cells are excluded from the aggregate, not coerced
// to zero: an average over two valid values of three rows divides by two.
func (t *Table) updateTotalsLocked() {
	totals := map[string]float64{}
	display := map[string]string{}

	for _, col := range t.cols {
		if !col.IncludeInTotal {
			continue
		}

		var values []float64
		for _, row := range t.rows {
			if v, ok := format.ToFloat(row.values[col.Name]); ok {
				values = append(values, v)
			}
		}

		totalType := col.TotalType
		if totalType == "" {
			totalType = t.opts.TotalType
		}

		var agg float64
		switch totalType {
		case column.TotalCount:
			agg = float64(len(values))
		case column.TotalAverage:
			if len(values) > 0 {
				for _, v := range values {
					agg += v
				}
				agg /= float64(len(values))
			}
		default: // sum
			for _, v := range values {
				agg += v
			}
		}

		totals[col.Name] = agg
		if totalType == column.TotalCount {
			display[col.Name] = format.Number(agg, col.Locale, 0)
		} else {
			display[col.Name] = render.DisplayValue(col, agg)
		}
	}

	t.totals = totals
	if t.opts.ShowTotal {
		t.mount.UpdateTotals(display)
	}
}

// GetTotals returns the current aggregates keyed by column name, e.g. for
// export. The map is a copy.
func (t *Table) GetTotals() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.totals))
	for k, v := range t.totals {
		out[k] = v
	}
	return out
}
