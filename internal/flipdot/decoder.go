package flipdot

import (
	"errors"
	"fmt"
)

// LineDecoder models a 74HC4514 4-to-16 line decoder. The row decoder only
// needs 8 outputs and leaves A3 unwired.
type LineDecoder struct {
	A0, A1, A2, A3 Pin
}

// SetOutput selects output position (0-15).
//
// A3 is driven with the complement of the top address bit. The column
// decoder chain is wired that way on the board and the physical output
// numbering depends on it.
func (d *LineDecoder) SetOutput(position uint8) error {
	var errs []error
	write := func(p Pin, v bool) {
		if err := p.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name(), err))
		}
	}

	write(d.A0, position&0x1 != 0)
	write(d.A1, position&0x2 != 0)
	write(d.A2, position&0x4 != 0)
	if d.A3.Present() {
		write(d.A3, position&0x8 == 0)
	}
	return errors.Join(errs...)
}

func (d *LineDecoder) pins() []Pin {
	return []Pin{d.A0, d.A1, d.A2, d.A3}
}

// EnableDecoder models the dual 74HC139 2-to-4 decoder sitting in front of
// the line decoders. Group pair 1 selects the row decoder bank, pair 2 the
// column decoder bank. E1 stays asserted while the display runs; E2 is the
// flip pulse line.
type EnableDecoder struct {
	G1A0, G1A1 Pin
	G2A0, G2A1 Pin
	E1, E2     Pin
}

// SetRowOutput selects row bank group (0-3) and drives position on the row
// decoder.
func (e *EnableDecoder) SetRowOutput(group, position uint8, row *LineDecoder) error {
	return errors.Join(
		e.G1A0.Write(group&0x1 != 0),
		e.G1A1.Write(group&0x2 != 0),
		row.SetOutput(position),
	)
}

// SetColOutput selects column bank group (0-3) and drives position on the
// column decoder.
func (e *EnableDecoder) SetColOutput(group, position uint8, col *LineDecoder) error {
	return errors.Join(
		e.G2A0.Write(group&0x1 != 0),
		e.G2A1.Write(group&0x2 != 0),
		col.SetOutput(position),
	)
}

// Enable asserts enable line 1 or 2. Other channel numbers are ignored.
func (e *EnableDecoder) Enable(channel int) error {
	return e.setEnable(channel, true)
}

// Disable deasserts enable line 1 or 2. Other channel numbers are ignored.
func (e *EnableDecoder) Disable(channel int) error {
	return e.setEnable(channel, false)
}

func (e *EnableDecoder) setEnable(channel int, v bool) error {
	switch channel {
	case 1:
		return e.E1.Write(v)
	case 2:
		return e.E2.Write(v)
	}
	return nil
}

func (e *EnableDecoder) pins() []Pin {
	return []Pin{e.G1A0, e.G1A1, e.G2A0, e.G2A1, e.E1, e.E2}
}
