package flipdot

import (
	"fmt"
	"strings"
)

// Grid is a Height x Width boolean frame. true means the dot shows its
// "on" face.
type Grid struct {
	h, w  int
	cells []bool
}

// NewGrid returns an all-off grid.
func NewGrid(height, width int) *Grid {
	if height <= 0 || width <= 0 {
		panic(fmt.Sprintf("flipdot: invalid grid size %dx%d", height, width))
	}
	return &Grid{h: height, w: width, cells: make([]bool, height*width)}
}

// Height returns the number of rows.
func (g *Grid) Height() int { return g.h }

// Width returns the number of columns.
func (g *Grid) Width() int { return g.w }

// At returns the value at (row, col).
func (g *Grid) At(row, col int) bool {
	return g.cells[g.index(row, col)]
}

// Set stores v at (row, col).
func (g *Grid) Set(row, col int, v bool) {
	g.cells[g.index(row, col)] = v
}

// Fill sets every cell to v.
func (g *Grid) Fill(v bool) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{h: g.h, w: g.w, cells: make([]bool, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// SameSize reports whether o has the same dimensions as g.
func (g *Grid) SameSize(o *Grid) bool {
	return g.h == o.h && g.w == o.w
}

// Equal reports whether o has the same dimensions and contents.
func (g *Grid) Equal(o *Grid) bool {
	if !g.SameSize(o) {
		return false
	}
	for i, v := range g.cells {
		if o.cells[i] != v {
			return false
		}
	}
	return true
}

// Count returns the number of "on" cells.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.cells {
		if v {
			n++
		}
	}
	return n
}

// String renders the grid with '#' for on and '.' for off, one line per row.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow((g.w + 1) * g.h)
	for r := 0; r < g.h; r++ {
		for c := 0; c < g.w; c++ {
			if g.At(r, c) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (g *Grid) index(row, col int) int {
	if row < 0 || row >= g.h || col < 0 || col >= g.w {
		panic(fmt.Sprintf("flipdot: (%d,%d) outside %dx%d grid", row, col, g.h, g.w))
	}
	return row*g.w + col
}
