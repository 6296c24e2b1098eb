// Package hw opens the GPIO lines of the flip-dot driver board and hands
// them to the flipdot package as a Wiring.
//
// Three backends are available: periph.io host drivers, the Linux GPIO
// character device via go-gpiocdev, and an in-memory simulation that never
// touches hardware.
package hw

import (
	"errors"
	"fmt"
	"sort"

	"periph.io/x/conn/v3/gpio"

	"flipdot/internal/config"
	"flipdot/internal/flipdot"
	appLog "flipdot/internal/log"
)

// lineOpener configures one line as an output at the given physical level.
type lineOpener interface {
	open(name string, line int, initial gpio.Level) (gpio.PinOut, error)
	Close() error
}

// Board is an opened set of driver board lines.
type Board struct {
	Wiring flipdot.Wiring

	backend string
	opener  lineOpener
	lines   map[string]gpio.PinOut
}

// Open configures every pin in pins as an output, parked at its logical
// "off" level. Any failure closes what was already opened and is returned;
// the display cannot run on a partial board.
func Open(b config.Backend, pins config.Pins) (*Board, error) {
	var (
		opener lineOpener
		err    error
	)
	switch b.Driver {
	case "periph":
		opener, err = newPeriphOpener()
	case "gpiocdev":
		opener, err = newCdevOpener(b.Chip)
	case "sim":
		opener = newSimOpener()
	default:
		return nil, fmt.Errorf("hw: unknown driver %q", b.Driver)
	}
	if err != nil {
		return nil, err
	}

	board := &Board{
		backend: b.Driver,
		opener:  opener,
		lines:   map[string]gpio.PinOut{},
	}

	all := pins.All()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := all[name]
		initial := gpio.Low
		if p.Inverted {
			initial = gpio.High
		}
		line, err := opener.open(name, p.Line, initial)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("hw: %s (line %d): %w", name, p.Line, err), opener.Close())
		}
		board.lines[name] = line
	}

	board.Wiring = flipdot.Wiring{
		Row:    board.decoder("row", pins.Row),
		Col:    board.decoder("col", pins.Col),
		Enable: board.enable(pins.Enable),
	}

	appLog.Info("gpio lines configured", "driver", b.Driver, "lines", len(board.lines))
	return board, nil
}

// Backend returns the driver name the board was opened with.
func (b *Board) Backend() string { return b.backend }

// Line returns the opened line for a dotted pin name such as "enable.2e".
func (b *Board) Line(name string) (gpio.PinOut, bool) {
	l, ok := b.lines[name]
	return l, ok
}

// Close releases all lines.
func (b *Board) Close() error {
	return b.opener.Close()
}

func (b *Board) pin(name string, p config.Pin) flipdot.Pin {
	return flipdot.Pin{Line: b.lines[name], Inverted: p.Inverted}
}

func (b *Board) decoder(prefix string, d config.DecoderPins) flipdot.LineDecoder {
	dec := flipdot.LineDecoder{
		A0: b.pin(prefix+".a0", d.A0),
		A1: b.pin(prefix+".a1", d.A1),
		A2: b.pin(prefix+".a2", d.A2),
	}
	if d.A3 != nil {
		dec.A3 = b.pin(prefix+".a3", *d.A3)
	}
	return dec
}

func (b *Board) enable(e config.EnablePins) flipdot.EnableDecoder {
	return flipdot.EnableDecoder{
		G1A0: b.pin("enable.1a0", e.G1A0),
		G1A1: b.pin("enable.1a1", e.G1A1),
		G2A0: b.pin("enable.2a0", e.G2A0),
		G2A1: b.pin("enable.2a1", e.G2A1),
		E1:   b.pin("enable.1e", e.E1),
		E2:   b.pin("enable.2e", e.E2),
	}
}
