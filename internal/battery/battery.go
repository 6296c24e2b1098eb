package battery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	appLog "flipdot/internal/log"
)

// Status is one battery sample.
type Status struct {
	// VoltageMv is the pack voltage in millivolts.
	VoltageMv int
	// Percent is a linear estimate between the configured empty and full
	// voltages, clamped to 0-100.
	Percent int
}

// Reader abstracts how we obtain battery information. The mock is used on
// development machines and when the I2C monitor does not answer.
type Reader interface {
	Read(ctx context.Context) (Status, error)
}

// Range is the voltage span mapped onto 0-100%.
type Range struct {
	EmptyMv int
	FullMv  int
}

// Percent maps mv onto the range.
func (r Range) Percent(mv int) int {
	if r.FullMv <= r.EmptyMv {
		return 0
	}
	p := (mv - r.EmptyMv) * 100 / (r.FullMv - r.EmptyMv)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// mockReader returns a pseudo-random voltage inside the range.
type mockReader struct {
	rng *rand.Rand
	rn  Range
}

// NewMockReader constructs a Reader for machines without a battery monitor.
func NewMockReader(rn Range) Reader {
	return &mockReader{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		rn:  rn,
	}
}

func (m *mockReader) Read(_ context.Context) (Status, error) {
	span := m.rn.FullMv - m.rn.EmptyMv
	if span <= 0 {
		span = 1
	}
	mv := m.rn.EmptyMv + m.rng.Intn(span+1)
	return Status{VoltageMv: mv, Percent: m.rn.Percent(mv)}, nil
}

// INA219 bus voltage register: bits 15..3 in units of 4 mV.
const (
	regBusVoltage = 0x02
	busVoltageLSB = 4
)

// i2cReader samples an INA219 current/voltage monitor on the battery rail.
type i2cReader struct {
	busName string
	addr    uint16
	rn      Range

	openBus func(name string) (i2c.BusCloser, error)
}

// NewI2CReader constructs an I2C-backed Reader.
//
//   - busName: I2C bus identifier for periph.io ("" for the default bus)
//   - addr:    7-bit address of the INA219 (0x40 with A0/A1 grounded)
//
// The bus is opened on every Read and closed again.
func NewI2CReader(busName string, addr uint16, rn Range) Reader {
	return &i2cReader{
		busName: busName,
		addr:    addr,
		rn:      rn,
		openBus: func(name string) (i2c.BusCloser, error) {
			if _, err := host.Init(); err != nil {
				return nil, err
			}
			return i2creg.Open(name)
		},
	}
}

// Read implements Reader for the I2C-backed reader.
func (r *i2cReader) Read(_ context.Context) (Status, error) {
	bus, err := r.openBus(r.busName)
	if err != nil {
		return Status{}, fmt.Errorf("battery: open i2c bus: %w", err)
	}
	defer bus.Close()

	dev := &i2c.Dev{Bus: bus, Addr: r.addr}
	buf := make([]byte, 2)
	if err := dev.Tx([]byte{regBusVoltage}, buf); err != nil {
		return Status{}, fmt.Errorf("battery: read bus voltage: %w", err)
	}
	raw := uint16(buf[0])<<8 | uint16(buf[1])
	mv := int(raw>>3) * busVoltageLSB

	return Status{VoltageMv: mv, Percent: r.rn.Percent(mv)}, nil
}

// DefaultReader returns the I2C reader when it answers, and the mock
// otherwise.
func DefaultReader(busName string, addr uint16, rn Range) Reader {
	if runtime.GOOS != "linux" {
		return NewMockReader(rn)
	}
	r := NewI2CReader(busName, addr, rn)
	if _, err := r.Read(context.Background()); err != nil {
		appLog.Info("battery monitor not responding, using mock", "addr", addr, "err", err)
		return NewMockReader(rn)
	}
	return r
}

// LowPercent is the level below which samples are logged as warnings.
const LowPercent = 10

// Monitor samples a Reader and remembers the last good sample.
type Monitor struct {
	reader Reader

	mu   sync.RWMutex
	last Status
	ok   bool
}

// NewMonitor returns a monitor over r.
func NewMonitor(r Reader) *Monitor {
	return &Monitor{reader: r}
}

// Sample reads once and logs the result.
func (m *Monitor) Sample(ctx context.Context) (Status, error) {
	st, err := m.reader.Read(ctx)
	if err != nil {
		appLog.Error("battery read failed", err)
		return Status{}, err
	}

	m.mu.Lock()
	m.last, m.ok = st, true
	m.mu.Unlock()

	if st.Percent < LowPercent {
		appLog.Warn("battery low", "voltage_mv", st.VoltageMv, "percent", st.Percent)
	} else {
		appLog.Info("battery", "voltage_mv", st.VoltageMv, "percent", st.Percent)
	}
	return st, nil
}

// Last returns the most recent successful sample.
func (m *Monitor) Last() (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ok {
		return Status{}, errors.New("battery: no sample yet")
	}
	return m.last, nil
}

// Schedule samples on every tick of spec.
func (m *Monitor) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		_, _ = m.Sample(ctx)
	})
}
