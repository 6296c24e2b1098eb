package flipdot

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// SweepMode selects the order in which changed pixels are flipped.
type SweepMode int

const (
	// RowMajor flips rows top to bottom, columns left to right.
	RowMajor SweepMode = iota
	// ColumnMajor flips column by column; within a column, top to bottom.
	ColumnMajor
	// Random flips in a uniformly shuffled order.
	Random
	// Diagonal is reserved. No diagonal ordering is defined yet and the
	// scheduler keeps row-major order for it.
	Diagonal
)

var sweepNames = map[SweepMode]string{
	RowMajor:    "row",
	ColumnMajor: "column",
	Random:      "random",
	Diagonal:    "diagonal",
}

func (m SweepMode) String() string {
	if s, ok := sweepNames[m]; ok {
		return s
	}
	return fmt.Sprintf("SweepMode(%d)", int(m))
}

// ParseSweepMode accepts the names printed by SweepMode.String.
func ParseSweepMode(s string) (SweepMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "row-major", "":
		return RowMajor, nil
	case "column", "col", "column-major":
		return ColumnMajor, nil
	case "random":
		return Random, nil
	case "diagonal", "diag":
		return Diagonal, nil
	}
	return RowMajor, fmt.Errorf("flipdot: unknown sweep mode %q", s)
}

// Cell addresses one pixel.
type Cell struct {
	Row, Col int
}

// Diff lists, in row-major order, the cells where target differs from
// current. Both grids must have the same size.
func Diff(current, target *Grid) []Cell {
	if !current.SameSize(target) {
		panic(fmt.Sprintf("flipdot: frame is %dx%d, display is %dx%d",
			target.h, target.w, current.h, current.w))
	}
	var cells []Cell
	for r := 0; r < current.h; r++ {
		for c := 0; c < current.w; c++ {
			if current.At(r, c) != target.At(r, c) {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// Order reorders cells in place for mode. cells must be in row-major order
// on entry, as Diff returns them. rng is only used by Random.
func Order(cells []Cell, mode SweepMode, rng *rand.Rand) {
	switch mode {
	case ColumnMajor:
		sort.SliceStable(cells, func(i, j int) bool {
			return cells[i].Col < cells[j].Col
		})
	case Random:
		rng.Shuffle(len(cells), func(i, j int) {
			cells[i], cells[j] = cells[j], cells[i]
		})
	case RowMajor, Diagonal:
	}
}
