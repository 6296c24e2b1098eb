package flipdot

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	appLog "flipdot/internal/log"
)

// GroupSize is the number of rows (or columns) served by one decoder bank.
// Outputs 1-7 and 9-15 of a bank drive the two coil polarities; 0 and 8 are
// idle positions that never select a coil.
const GroupSize = 7

// maxGroups is the number of banks a 2-bit group select can address.
const maxGroups = 4

// Default timing. The pulse and recovery values are lower bounds for a
// reliable flip on the reference panel, not targets.
const (
	DefaultHeight     = 13
	DefaultWidth      = 28
	DefaultFlipPulse  = 2500 * time.Microsecond
	DefaultRecovery   = 5 * time.Millisecond
	DefaultSettleTime = 200 * time.Millisecond
)

// Polarity maps a logical pixel value onto one of the two coil current
// directions. Revisions of the driver board disagree on which output range
// turns a dot on, so the mapping is configuration.
type Polarity int

const (
	// OnLow pulses outputs 1-7 to turn a dot on and 9-15 to turn it off.
	OnLow Polarity = iota
	// OnHigh pulses outputs 9-15 to turn a dot on and 1-7 to turn it off.
	OnHigh
)

func (p Polarity) String() string {
	switch p {
	case OnLow:
		return "on-low"
	case OnHigh:
		return "on-high"
	}
	return fmt.Sprintf("Polarity(%d)", int(p))
}

// ParsePolarity accepts "on-low" and "on-high".
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "on-low", "":
		return OnLow, nil
	case "on-high":
		return OnHigh, nil
	}
	return OnLow, fmt.Errorf("flipdot: unknown polarity %q", s)
}

// Wiring is the set of decoders the controller drives.
type Wiring struct {
	Row    LineDecoder
	Col    LineDecoder
	Enable EnableDecoder
}

// Pins returns every wired line, unused ones excluded.
func (w *Wiring) Pins() []Pin {
	var out []Pin
	for _, group := range [][]Pin{w.Row.pins(), w.Col.pins(), w.Enable.pins()} {
		for _, p := range group {
			if p.Present() {
				out = append(out, p)
			}
		}
	}
	return out
}

func (w *Wiring) validate() error {
	required := map[string]Pin{
		"row.a0": w.Row.A0, "row.a1": w.Row.A1, "row.a2": w.Row.A2,
		"col.a0": w.Col.A0, "col.a1": w.Col.A1, "col.a2": w.Col.A2,
		"enable.1a0": w.Enable.G1A0, "enable.1a1": w.Enable.G1A1,
		"enable.2a0": w.Enable.G2A0, "enable.2a1": w.Enable.G2A1,
		"enable.1e": w.Enable.E1, "enable.2e": w.Enable.E2,
	}
	var errs []error
	for name, p := range required {
		if !p.Present() {
			errs = append(errs, fmt.Errorf("flipdot: pin %s is not wired", name))
		}
	}
	return errors.Join(errs...)
}

// FlipFunc is called after every flip pulse with the pixel that was written.
type FlipFunc func(row, col int, value bool)

// Option configures a Controller.
type Option func(*Controller)

// WithSize sets the panel dimensions.
func WithSize(height, width int) Option {
	return func(c *Controller) { c.height, c.width = height, width }
}

// WithFlipPulse sets how long the column enable line is held per flip.
func WithFlipPulse(d time.Duration) Option {
	return func(c *Controller) { c.flipPulse = d }
}

// WithRecovery sets the pause after each pulse that lets the drive
// capacitor recharge.
func WithRecovery(d time.Duration) Option {
	return func(c *Controller) { c.recovery = d }
}

// WithSettleTime sets the pause between enabling the decoders and the
// first pulse.
func WithSettleTime(d time.Duration) Option {
	return func(c *Controller) { c.settle = d }
}

// WithSweep sets the frame update ordering.
func WithSweep(m SweepMode) Option {
	return func(c *Controller) { c.sweep = m }
}

// WithPolarity sets which output range turns a dot on.
func WithPolarity(p Polarity) Option {
	return func(c *Controller) { c.polarity = p }
}

// WithClearOnInit makes New write every pixel off so the panel matches the
// zeroed belief grid.
func WithClearOnInit(clear bool) Option {
	return func(c *Controller) { c.clearOnInit = clear }
}

// WithRand sets the source used by the Random sweep.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// WithSleep replaces time.Sleep for pulse and delay timing.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// WithFlipObserver registers fn to be told about every flip.
func WithFlipObserver(fn FlipFunc) Option {
	return func(c *Controller) { c.observe = fn }
}

// Controller owns the decoders and the belief grid of one panel. It is not
// safe for concurrent use; callers render from a single goroutine.
type Controller struct {
	w Wiring

	height, width int
	flipPulse     time.Duration
	recovery      time.Duration
	settle        time.Duration
	sweep         SweepMode
	polarity      Polarity
	clearOnInit   bool

	rng     *rand.Rand
	sleep   func(time.Duration)
	observe FlipFunc

	state  *Grid
	pulses uint64
}

// New brings the decoders to a known state and returns a controller for
// them. The lines in w must already be configured as outputs.
func New(w Wiring, opts ...Option) (*Controller, error) {
	c := &Controller{
		w:           w,
		height:      DefaultHeight,
		width:       DefaultWidth,
		flipPulse:   DefaultFlipPulse,
		recovery:    DefaultRecovery,
		settle:      DefaultSettleTime,
		sweep:       RowMajor,
		polarity:    OnLow,
		clearOnInit: true,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := w.validate(); err != nil {
		return nil, err
	}
	if c.height <= 0 || c.width <= 0 {
		return nil, fmt.Errorf("flipdot: invalid display size %dx%d", c.height, c.width)
	}
	if c.height > GroupSize*maxGroups || c.width > GroupSize*maxGroups {
		return nil, fmt.Errorf("flipdot: display %dx%d exceeds %d decoder banks of %d",
			c.height, c.width, maxGroups, GroupSize)
	}
	if c.flipPulse <= 0 {
		return nil, fmt.Errorf("flipdot: flip pulse must be positive, got %s", c.flipPulse)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.sweep == Diagonal {
		appLog.Info("diagonal sweep is not supported yet; flipping in row order")
	}

	c.state = NewGrid(c.height, c.width)

	appLog.Info("initializing flip dot display",
		"height", c.height,
		"width", c.width,
		"flip_pulse", c.flipPulse,
		"recovery", c.recovery,
		"sweep", c.sweep,
		"polarity", c.polarity,
	)

	if err := errors.Join(c.w.Enable.Enable(1), c.w.Enable.Disable(2)); err != nil {
		return nil, fmt.Errorf("flipdot: enable lines: %w", err)
	}
	c.sleep(c.settle)

	if c.clearOnInit {
		appLog.Info("clearing all pixels")
		c.FillRect(0, c.height-1, 0, c.width-1, false)
		c.sleep(c.settle)
	}
	return c, nil
}

// Height returns the number of rows.
func (c *Controller) Height() int { return c.height }

// Width returns the number of columns.
func (c *Controller) Width() int { return c.width }

// Sweep returns the active sweep mode.
func (c *Controller) Sweep() SweepMode { return c.sweep }

// Pulses returns the number of flip pulses issued since New.
func (c *Controller) Pulses() uint64 { return c.pulses }

// Pixel returns what the controller last wrote at (row, col).
func (c *Controller) Pixel(row, col int) bool {
	return c.state.At(row, col)
}

// Snapshot returns a copy of the belief grid.
func (c *Controller) Snapshot() *Grid {
	return c.state.Clone()
}

// NewFrame returns an empty grid sized for this display.
func (c *Controller) NewFrame() *Grid {
	return NewGrid(c.height, c.width)
}

// Address returns the bank group and decoder output position that select
// n (a row or column index) for the given pixel value.
func (c *Controller) Address(n int, value bool) (group, position uint8) {
	group = uint8(n / GroupSize)
	position = uint8(n%GroupSize) + 1
	reset := !value
	if c.polarity == OnHigh {
		reset = value
	}
	if reset {
		position += 8
	}
	return group, position
}

// SetPixel flips the dot at (row, col) to value, unconditionally. It blocks
// for the flip pulse plus the recovery delay. Coordinates outside the
// display are a caller bug.
func (c *Controller) SetPixel(row, col int, value bool) {
	rowGroup, rowPos := c.Address(row, value)
	colGroup, colPos := c.Address(col, value)

	appLog.Debug("set pixel",
		"row", row, "col", col, "value", value,
		"row_group", rowGroup, "row_output", rowPos,
		"col_group", colGroup, "col_output", colPos,
	)

	c.check("row address", c.w.Enable.SetRowOutput(rowGroup, rowPos, &c.w.Row))
	c.check("column address", c.w.Enable.SetColOutput(colGroup, colPos, &c.w.Col))

	c.check("pulse on", c.w.Enable.Enable(2))
	c.sleep(c.flipPulse)
	c.check("pulse off", c.w.Enable.Disable(2))
	c.sleep(c.recovery)

	c.state.Set(row, col, value)
	c.pulses++
	if c.observe != nil {
		c.observe(row, col, value)
	}
}

// UpdateFrame flips exactly the pixels where frame differs from the current
// state, in the order given by the sweep mode. frame must match the display
// size.
func (c *Controller) UpdateFrame(frame *Grid) {
	cells := Diff(c.state, frame)
	if len(cells) == 0 {
		return
	}
	Order(cells, c.sweep, c.rng)

	start := time.Now()
	for _, cell := range cells {
		c.SetPixel(cell.Row, cell.Col, frame.At(cell.Row, cell.Col))
	}
	appLog.Debug("frame updated", "flips", len(cells), "elapsed", time.Since(start))
}

// FillRect writes value to every pixel in rows r0..r1 and columns c0..c1
// (inclusive), whether or not it already holds that value.
func (c *Controller) FillRect(r0, r1, c0, c1 int, value bool) {
	for r := r0; r <= r1; r++ {
		for col := c0; col <= c1; col++ {
			c.SetPixel(r, col, value)
		}
	}
}

// Release parks the decoders: the pulse line is deasserted and the row
// enable dropped.
func (c *Controller) Release() error {
	return errors.Join(c.w.Enable.Disable(2), c.w.Enable.Disable(1))
}

func (c *Controller) check(what string, err error) {
	if err != nil {
		appLog.Error("gpio write failed", err, "stage", what)
	}
}
