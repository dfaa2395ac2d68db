// Package lookup implements the monotone 1-D lookup table used to remap raw
// discharge readings (Q_Zufluss) to planned target values (Q_Entnahme or
// Q_Belassen) before volumes are integrated.
package lookup

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTable is returned when a table cannot be built from its pairs
var ErrInvalidTable = errors.New("invalid lookup table")

// Pair is a single (x, y) row of a lookup table
type Pair struct {
	X float64
	Y float64
}

// Table maps x to y by clamped piecewise-linear interpolation.
// A Table is immutable after Build and safe for concurrent use.
type Table struct {
	xs []float64
	ys []float64
}

// Build sorts pairs by x ascending and returns a queryable table.
// Rows with equal x keep their input order.
func Build(pairs []Pair) (*Table, error) {
	if len(pairs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 pairs, got %d", ErrInvalidTable, len(pairs))
	}

	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	t := &Table{
		xs: make([]float64, len(sorted)),
		ys: make([]float64, len(sorted)),
	}
	for i, p := range sorted {
		t.xs[i] = p.X
		t.ys[i] = p.Y
	}

	return t, nil
}

// Evaluate returns the interpolated y for x. Values outside the table domain
// are clamped to the first or last row.
func (t *Table) Evaluate(x float64) float64 {
	n := len(t.xs)
	if x <= t.xs[0] {
		return t.ys[0]
	}
	if x >= t.xs[n-1] {
		return t.ys[n-1]
	}

	// first index with xs[i] >= x; xs[i-1] < x holds strictly here
	i := sort.SearchFloat64s(t.xs, x)
	if t.xs[i] == x {
		return t.ys[i]
	}

	x0, y0 := t.xs[i-1], t.ys[i-1]
	x1, y1 := t.xs[i], t.ys[i]
	f := (x - x0) / (x1 - x0)
	return y0 + f*(y1-y0)
}

// Len returns the number of rows in the table
func (t *Table) Len() int {
	return len(t.xs)
}

// Domain returns the smallest and largest x of the table
func (t *Table) Domain() (float64, float64) {
	return t.xs[0], t.xs[len(t.xs)-1]
}

// Pairs returns a copy of the sorted rows
func (t *Table) Pairs() []Pair {
	out := make([]Pair, len(t.xs))
	for i := range t.xs {
		out[i] = Pair{X: t.xs[i], Y: t.ys[i]}
	}
	return out
}
