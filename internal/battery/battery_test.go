package battery

import (
	"context"
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestRangePercent(t *testing.T) {
	rn := Range{EmptyMv: 3300, FullMv: 4200}
	tests := []struct {
		mv   int
		want int
	}{
		{3000, 0},
		{3300, 0},
		{3750, 50},
		{4200, 100},
		{4500, 100},
	}
	for _, tt := range tests {
		if got := rn.Percent(tt.mv); got != tt.want {
			t.Errorf("Percent(%d) = %d, want %d", tt.mv, got, tt.want)
		}
	}
	if got := (Range{}).Percent(4000); got != 0 {
		t.Errorf("empty range Percent = %d, want 0", got)
	}
}

func TestI2CReaderINA219(t *testing.T) {
	// 3900 mV = 975 LSB, shifted left 3 = 0x1E78.
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x40, W: []byte{regBusVoltage}, R: []byte{0x1E, 0x78}},
		},
	}
	r := &i2cReader{
		addr: 0x40,
		rn:   Range{EmptyMv: 3300, FullMv: 4200},
		openBus: func(string) (i2c.BusCloser, error) {
			return bus, nil
		},
	}

	st, err := r.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if st.VoltageMv != 3900 {
		t.Errorf("VoltageMv = %d, want 3900", st.VoltageMv)
	}
	if st.Percent != 66 {
		t.Errorf("Percent = %d, want 66", st.Percent)
	}
}

func TestI2CReaderOpenFailure(t *testing.T) {
	r := &i2cReader{openBus: func(string) (i2c.BusCloser, error) {
		return nil, errors.New("no bus")
	}}
	if _, err := r.Read(context.Background()); err == nil {
		t.Error("Read() succeeded without a bus")
	}
}

func TestMockReaderStaysInRange(t *testing.T) {
	rn := Range{EmptyMv: 3300, FullMv: 4200}
	r := NewMockReader(rn)
	for i := 0; i < 100; i++ {
		st, err := r.Read(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if st.VoltageMv < rn.EmptyMv || st.VoltageMv > rn.FullMv {
			t.Fatalf("VoltageMv = %d outside %v", st.VoltageMv, rn)
		}
	}
}

type stubReader struct {
	st  Status
	err error
}

func (s stubReader) Read(context.Context) (Status, error) { return s.st, s.err }

func TestMonitorKeepsLastGoodSample(t *testing.T) {
	m := NewMonitor(stubReader{st: Status{VoltageMv: 3400, Percent: 5}})
	if _, err := m.Last(); err == nil {
		t.Error("Last() before any sample should fail")
	}
	if _, err := m.Sample(context.Background()); err != nil {
		t.Fatalf("Sample() error = %v", err)
	}

	m.reader = stubReader{err: errors.New("nack")}
	if _, err := m.Sample(context.Background()); err == nil {
		t.Error("Sample() hid a read error")
	}
	last, err := m.Last()
	if err != nil || last.VoltageMv != 3400 {
		t.Errorf("Last() = %+v, %v; want the 3400 mV sample", last, err)
	}
}

func TestMonitorSchedule(t *testing.T) {
	c := cron.New()
	m := NewMonitor(stubReader{st: Status{VoltageMv: 4000, Percent: 77}})
	id, err := m.Schedule(context.Background(), c, "@every 5m")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	c.Entry(id).Job.Run()
	if last, err := m.Last(); err != nil || last.Percent != 77 {
		t.Errorf("Last() = %+v, %v after scheduled run", last, err)
	}
}
