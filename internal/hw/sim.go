package hw

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// simOpener hands out in-memory lines. It backs the -render-only mode and
// the tests.
type simOpener struct{}

func newSimOpener() *simOpener {
	return &simOpener{}
}

func (o *simOpener) open(name string, line int, initial gpio.Level) (gpio.PinOut, error) {
	p := &gpiotest.Pin{N: fmt.Sprintf("SIM%d(%s)", line, name), Num: line}
	if err := p.Out(initial); err != nil {
		return nil, err
	}
	return p, nil
}

func (o *simOpener) Close() error {
	return nil
}
