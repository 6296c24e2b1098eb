// Package demo generates frames for the display when nothing else is
// driving it, and plays them through a flipdot.Controller.
package demo

import (
	"fmt"
	"math/rand"
	"os"
	"sort"

	"flipdot/internal/flipdot"
)

// Pattern produces the frames of one demo, in display order.
type Pattern interface {
	Name() string
	Frames(height, width int) ([]*flipdot.Grid, error)
}

type patternFunc struct {
	name string
	fn   func(height, width int) ([]*flipdot.Grid, error)
}

func (p patternFunc) Name() string { return p.name }

func (p patternFunc) Frames(height, width int) ([]*flipdot.Grid, error) {
	return p.fn(height, width)
}

// still wraps a generator that cannot fail.
func still(name string, fn func(height, width int) []*flipdot.Grid) Pattern {
	return patternFunc{name: name, fn: func(h, w int) ([]*flipdot.Grid, error) {
		return fn(h, w), nil
	}}
}

// Options parameterize the patterns that need input.
type Options struct {
	Text     string
	IconPath string
	Seed     int64
}

// Library holds the built-in patterns by name.
type Library struct {
	patterns map[string]Pattern
}

// NewLibrary builds the built-in patterns.
func NewLibrary(opts Options) *Library {
	l := &Library{patterns: map[string]Pattern{}}
	for _, p := range []Pattern{
		still("clear", Clear),
		still("fill", Fill),
		still("checkerboard", Checkerboard),
		still("border", Border),
		still("rings", Rings),
		still("wipe", Wipe),
		still("noise", func(h, w int) []*flipdot.Grid {
			return Noise(h, w, 8, rand.New(rand.NewSource(opts.Seed)))
		}),
		patternFunc{name: "text", fn: func(h, w int) ([]*flipdot.Grid, error) {
			return ScrollText(opts.Text, h, w), nil
		}},
		patternFunc{name: "icon", fn: func(h, w int) ([]*flipdot.Grid, error) {
			svg := defaultIcon
			if opts.IconPath != "" {
				data, err := os.ReadFile(opts.IconPath)
				if err != nil {
					return nil, fmt.Errorf("demo: icon: %w", err)
				}
				svg = data
			}
			g, err := Icon(svg, h, w)
			if err != nil {
				return nil, err
			}
			return []*flipdot.Grid{g}, nil
		}},
	} {
		l.patterns[p.Name()] = p
	}
	return l
}

// Get returns the named pattern.
func (l *Library) Get(name string) (Pattern, error) {
	p, ok := l.patterns[name]
	if !ok {
		return nil, fmt.Errorf("demo: unknown pattern %q", name)
	}
	return p, nil
}

// Names lists the available patterns, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.patterns))
	for n := range l.patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clear is a single blank frame.
func Clear(height, width int) []*flipdot.Grid {
	return []*flipdot.Grid{flipdot.NewGrid(height, width)}
}

// Fill is a single all-on frame.
func Fill(height, width int) []*flipdot.Grid {
	g := flipdot.NewGrid(height, width)
	g.Fill(true)
	return []*flipdot.Grid{g}
}

// Checkerboard alternates the two phases of a one-dot checkerboard.
func Checkerboard(height, width int) []*flipdot.Grid {
	frames := make([]*flipdot.Grid, 2)
	for phase := range frames {
		g := flipdot.NewGrid(height, width)
		for r := 0; r < height; r++ {
			for c := 0; c < width; c++ {
				g.Set(r, c, (r+c+phase)%2 == 0)
			}
		}
		frames[phase] = g
	}
	return frames
}

// Border outlines the panel edge.
func Border(height, width int) []*flipdot.Grid {
	g := flipdot.NewGrid(height, width)
	outline(g, 0)
	return []*flipdot.Grid{g}
}

// Rings draws one rectangle outline per frame, growing from the center to
// the edge.
func Rings(height, width int) []*flipdot.Grid {
	short := height
	if width < short {
		short = width
	}
	maxInset := (short - 1) / 2

	var frames []*flipdot.Grid
	for inset := maxInset; inset >= 0; inset-- {
		g := flipdot.NewGrid(height, width)
		outline(g, inset)
		frames = append(frames, g)
	}
	return frames
}

// Wipe turns columns on left to right, then off again left to right.
func Wipe(height, width int) []*flipdot.Grid {
	var frames []*flipdot.Grid
	g := flipdot.NewGrid(height, width)
	for _, v := range []bool{true, false} {
		for c := 0; c < width; c++ {
			for r := 0; r < height; r++ {
				g.Set(r, c, v)
			}
			frames = append(frames, g.Clone())
		}
	}
	return frames
}

// Noise returns n frames of uniformly random dots.
func Noise(height, width, n int, rng *rand.Rand) []*flipdot.Grid {
	frames := make([]*flipdot.Grid, n)
	for i := range frames {
		g := flipdot.NewGrid(height, width)
		for r := 0; r < height; r++ {
			for c := 0; c < width; c++ {
				g.Set(r, c, rng.Intn(2) == 1)
			}
		}
		frames[i] = g
	}
	return frames
}

// outline sets the rectangle inset dots from every edge.
func outline(g *flipdot.Grid, inset int) {
	r0, r1 := inset, g.Height()-1-inset
	c0, c1 := inset, g.Width()-1-inset
	if r0 > r1 || c0 > c1 {
		return
	}
	for c := c0; c <= c1; c++ {
		g.Set(r0, c, true)
		g.Set(r1, c, true)
	}
	for r := r0; r <= r1; r++ {
		g.Set(r, c0, true)
		g.Set(r, c1, true)
	}
}
