// Package flipdot addresses the coils of a flip-dot panel through a chain of
// 74HC4514 line decoders gated by a 74HC139 enable decoder, and schedules the
// pixel flips needed to move the panel from one frame to the next.
//
// The hardware gives no read-back. Everything the controller knows about the
// panel is what it last wrote.
package flipdot

import (
	"periph.io/x/conn/v3/gpio"
)

// Pin is one logical output line. Inverted lines are driven with the
// complement of the logical value, so the decoder code never deals with
// board polarity.
type Pin struct {
	Line     gpio.PinOut
	Inverted bool
}

// Present reports whether the pin is wired. A Pin with a nil Line is the
// "unused" sentinel.
func (p Pin) Present() bool {
	return p.Line != nil
}

// Write drives the logical value v onto the line.
func (p Pin) Write(v bool) error {
	if p.Line == nil {
		return nil
	}
	if p.Inverted {
		v = !v
	}
	return p.Line.Out(level(v))
}

func (p Pin) name() string {
	if p.Line == nil {
		return "unused"
	}
	return p.Line.Name()
}

func level(v bool) gpio.Level {
	if v {
		return gpio.High
	}
	return gpio.Low
}
