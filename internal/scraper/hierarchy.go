package scraper

import (
	"errors"
	"fmt"
)

// ErrOrphanRow reports a child row that appears before any parent row.
// Fabricating a parent would corrupt the entity id scheme, so this is the
// one malformation that is surfaced instead of patched over.
var ErrOrphanRow = errors.New("scraper: child row precedes any parent row")

// RowGroup pairs a parent row with the child rows that followed it.
type RowGroup struct {
	Parent   Row
	Children []Row
}

// Group reconstructs the two-level parent/child structure that the source
// renders as a flat row sequence: a row with a non-empty marker column
// starts a new parent, a row with an empty marker column extends the most
// recent parent. Parent and child order match input order. Grouping never
// nests beyond two levels.
func Group(rows []Row, markerCol int) ([]RowGroup, error) {
	var groups []RowGroup
	for i, row := range rows {
		if v, _ := row.Col(markerCol); v != "" {
			groups = append(groups, RowGroup{Parent: row})
			continue
		}
		if len(groups) == 0 {
			return nil, fmt.Errorf("row %d: %w", i, ErrOrphanRow)
		}
		last := &groups[len(groups)-1]
		last.Children = append(last.Children, row)
	}
	return groups, nil
}

// Propagate fills blank values in the designated columns with the nearest
// preceding non-blank value in the same column. It is a separate pass from
// Group on purpose: detection tables need both, applied independently over
// the same rows. Input rows are not modified.
func Propagate(rows []Row, cols ...int) []Row {
	out := make([]Row, len(rows))
	carry := make(map[int]string, len(cols))
	for i, row := range rows {
		cp := Row{Cols: append([]string(nil), row.Cols...)}
		for _, c := range cols {
			if c < 0 || c >= len(cp.Cols) {
				continue
			}
			if cp.Cols[c] != "" {
				carry[c] = cp.Cols[c]
			} else {
				cp.Cols[c] = carry[c]
			}
		}
		out[i] = cp
	}
	return out
}
