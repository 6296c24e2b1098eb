//go:build !linux

package hw

import (
	"errors"

	"periph.io/x/conn/v3/gpio"
)

// cdevOpener is only functional on Linux; elsewhere every request fails.
type cdevOpener struct{}

func newCdevOpener(string) (*cdevOpener, error) {
	return nil, errors.New("hw: gpiocdev is only available on linux")
}

func (o *cdevOpener) open(string, int, gpio.Level) (gpio.PinOut, error) {
	return nil, errors.New("hw: gpiocdev is only available on linux")
}

func (o *cdevOpener) Close() error { return nil }
