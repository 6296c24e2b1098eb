package demo

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpiotest"
)

func newFakeLine(n int) *gpiotest.Pin {
	return &gpiotest.Pin{N: fmt.Sprintf("GPIO%d", n), Num: n}
}
