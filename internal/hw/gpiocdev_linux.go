//go:build linux

package hw

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const consumer = "flipdot"

// cdevOpener requests lines from a GPIO character device such as
// /dev/gpiochip0. Useful where periph.io has no host driver for the SoC.
type cdevOpener struct {
	chip  string
	lines []*gpiocdev.Line
}

func newCdevOpener(chip string) (*cdevOpener, error) {
	if chip == "" {
		return nil, errors.New("hw: gpiocdev needs a chip name")
	}
	return &cdevOpener{chip: chip}, nil
}

func (o *cdevOpener) open(name string, offset int, initial gpio.Level) (gpio.PinOut, error) {
	v := 0
	if initial == gpio.High {
		v = 1
	}
	l, err := gpiocdev.RequestLine(o.chip, offset, gpiocdev.AsOutput(v), gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("request %s:%d: %w", o.chip, offset, err)
	}
	o.lines = append(o.lines, l)
	return &cdevPin{name: name, offset: offset, line: l}, nil
}

func (o *cdevOpener) Close() error {
	var errs []error
	for _, l := range o.lines {
		errs = append(errs, l.Close())
	}
	o.lines = nil
	return errors.Join(errs...)
}

// cdevPin exposes a requested character-device line as a gpio.PinOut.
type cdevPin struct {
	name   string
	offset int
	line   *gpiocdev.Line
}

func (p *cdevPin) Name() string { return p.name }

func (p *cdevPin) Number() int { return p.offset }

func (p *cdevPin) String() string {
	return fmt.Sprintf("gpiocdev Pin: Name: %s Offset %d", p.name, p.offset)
}

func (p *cdevPin) Function() string { return "Out" }

func (p *cdevPin) Halt() error { return nil }

func (p *cdevPin) Out(l gpio.Level) error {
	if l == gpio.High {
		return p.line.SetValue(1)
	}
	return p.line.SetValue(0)
}

func (p *cdevPin) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("gpiocdev: PWM not supported")
}

var _ gpio.PinOut = &cdevPin{}
