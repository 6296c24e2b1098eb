package hw

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphOpener resolves BCM line numbers through periph.io's registry.
type periphOpener struct{}

func newPeriphOpener() (*periphOpener, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hw: periph host init failed: %w", err)
	}
	return &periphOpener{}, nil
}

func (o *periphOpener) open(_ string, line int, initial gpio.Level) (gpio.PinOut, error) {
	name := fmt.Sprintf("GPIO%d", line)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %s not found", name)
	}
	if err := p.Out(initial); err != nil {
		return nil, fmt.Errorf("gpio %s Out failed: %w", name, err)
	}
	return p, nil
}

// Close is a no-op; periph.io pins don't need explicit release.
func (o *periphOpener) Close() error {
	return nil
}
