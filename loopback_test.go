package microwire_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentam/microwire"
	"github.com/gentam/microwire/sim"
)

// fakeClock drives both the sequencer's sleeps and the device's busy timer.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time        { return c.t }
func (c *fakeClock) sleep(d time.Duration) { c.t = c.t.Add(d) }

type rig struct {
	dev *sim.Device
	clk *fakeClock
	e   *microwire.EEPROM
}

type transportFactory func(t *testing.T, d *sim.Device) microwire.Transport

var transports = map[string]transportFactory{
	"direct": func(t *testing.T, d *sim.Device) microwire.Transport {
		return sim.NewTransport(d)
	},
	"spi": func(t *testing.T, d *sim.Device) microwire.Transport {
		bus := sim.NewBus(d)
		return microwire.NewSPITransport(bus.Conn(), bus.CS(), bus.DO())
	},
	"bitbang": func(t *testing.T, d *sim.Device) microwire.Transport {
		bus := sim.NewBus(d)
		b, err := microwire.NewBitBangTransport(microwire.BitBangPins{
			CS: bus.CS(),
			SK: bus.SK(),
			DI: bus.DI(),
			DO: bus.DO(),
		}, 0)
		require.NoError(t, err)
		return b
	},
}

func newRig(t *testing.T, part microwire.Part, mk transportFactory, opts ...microwire.Option) *rig {
	t.Helper()
	clk := &fakeClock{t: time.Unix(0, 0)}
	dev := sim.New(part.Profile(), sim.WithClock(clk.now))
	e, err := microwire.New(mk(t, dev), part.Profile(), opts...)
	require.NoError(t, err)
	microwire.SetSleep(e, clk.sleep)
	return &rig{dev: dev, clk: clk, e: e}
}

func TestLoopbackWriteThenRead(t *testing.T) {
	for name, mk := range transports {
		for _, part := range microwire.Parts() {
			t.Run(name+"/"+part.String(), func(t *testing.T) {
				r := newRig(t, part, mk)

				require.NoError(t, r.e.WriteWord(0, 0x00D0))
				w, err := r.e.ReadWord(0)
				require.NoError(t, err)
				assert.Equal(t, uint16(0x00D0), w)

				// low byte is the first byte on the wire
				assert.Equal(t, uint16(0xD000), r.dev.Word(0))
				assert.False(t, r.dev.WriteEnabled())
			})
		}
	}
}

func TestLoopbackLastAddress(t *testing.T) {
	for name, mk := range transports {
		for _, part := range microwire.Parts() {
			t.Run(name+"/"+part.String(), func(t *testing.T) {
				r := newRig(t, part, mk)
				last := uint16(part.Profile().Words - 1)

				require.NoError(t, r.e.WriteWord(last, 0xBEEF))
				w, err := r.e.ReadWord(last)
				require.NoError(t, err)
				assert.Equal(t, uint16(0xBEEF), w)

				w, err = r.e.ReadWord(0)
				require.NoError(t, err)
				assert.Equal(t, uint16(0xFFFF), w)
			})
		}
	}
}

func TestPatternRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, mk := range transports {
		t.Run(name, func(t *testing.T) {
			r := newRig(t, microwire.CAT93C46, mk)
			words := microwire.OffsetPattern(64, 0xD0)

			require.NoError(t, r.e.Write(ctx, 0, words))
			require.NoError(t, r.e.Verify(ctx, 0, words))

			got, err := r.e.Dump(ctx)
			require.NoError(t, err)
			assert.Equal(t, words, got)
		})
	}
}

func TestEraseAndWriteAll(t *testing.T) {
	ctx := context.Background()
	for name, mk := range transports {
		t.Run(name, func(t *testing.T) {
			r := newRig(t, microwire.CAT93C57, mk)

			require.NoError(t, r.e.WriteAll(0x1234))
			got, err := r.e.Dump(ctx)
			require.NoError(t, err)
			for i, w := range got {
				require.Equal(t, uint16(0x1234), w, "word %d", i)
			}

			require.NoError(t, r.e.EraseWord(3))
			w, err := r.e.ReadWord(3)
			require.NoError(t, err)
			assert.Equal(t, uint16(0xFFFF), w)

			require.NoError(t, r.e.EraseAll())
			got, err = r.e.Dump(ctx)
			require.NoError(t, err)
			for i, w := range got {
				require.Equal(t, uint16(0xFFFF), w, "word %d", i)
			}
		})
	}
}

func TestFixedDelayShorterThanWriteCycle(t *testing.T) {
	r := newRig(t, microwire.CAT93C46, transports["direct"],
		microwire.WithWriteCycle(microwire.FixedDelay{Delay: time.Millisecond}))

	start := r.clk.now()
	require.NoError(t, r.e.WriteWord(0, 1))
	// the rest of the 5ms write cycle is slept off so EWDS is accepted
	assert.Equal(t, 5*time.Millisecond, r.clk.now().Sub(start))
	assert.False(t, r.dev.WriteEnabled())

	require.NoError(t, r.e.WriteWord(1, 2))
	assert.False(t, r.dev.WriteEnabled())

	for addr, want := range []uint16{1, 2} {
		w, err := r.e.ReadWord(uint16(addr))
		require.NoError(t, err)
		assert.Equal(t, want, w)
	}
}

func TestBusyPollWaitsForDevice(t *testing.T) {
	ctx := context.Background()
	for name, mk := range transports {
		t.Run(name, func(t *testing.T) {
			r := newRig(t, microwire.CAT93C46, mk,
				microwire.WithWriteCycle(microwire.BusyPoll{Interval: time.Millisecond, Retries: 10}))

			words := []uint16{0x0001, 0x0203, 0x0405, 0x0607}
			start := r.clk.now()
			require.NoError(t, r.e.Write(ctx, 8, words))
			require.NoError(t, r.e.Verify(ctx, 8, words))

			// each write waits exactly one programming cycle
			assert.Equal(t, 4*5*time.Millisecond, r.clk.now().Sub(start))
			assert.False(t, r.dev.WriteEnabled())
		})
	}
}

func TestBusyPollTimesOut(t *testing.T) {
	r := newRig(t, microwire.CAT93C57, transports["direct"],
		microwire.WithWriteCycle(microwire.BusyPoll{Interval: time.Millisecond, Retries: 2}))

	start := r.clk.now()
	err := r.e.WriteWord(0, 0x55AA)
	assert.ErrorIs(t, err, microwire.ErrWriteTimeout)

	// EWDS went out after the 10ms write cycle and took effect
	assert.Equal(t, 10*time.Millisecond, r.clk.now().Sub(start))
	assert.False(t, r.dev.WriteEnabled())
	h := r.dev.History()
	require.NotEmpty(t, h)
	assert.Equal(t, sim.Command{Op: sim.OpEWDS, Applied: true}, h[len(h)-1])
	assert.Equal(t, uint16(0xAA55), r.dev.Word(0))
}

func TestDirectTransportKeepsChipSelectContract(t *testing.T) {
	var tr *sim.Transport
	direct := func(t *testing.T, d *sim.Device) microwire.Transport {
		tr = sim.NewTransport(d)
		return tr
	}
	r := newRig(t, microwire.CAT93C66, direct, microwire.WithWriteCycle(microwire.DefaultBusyPoll))

	require.NoError(t, r.e.WriteWord(0x80, 0x0102))
	_, err := r.e.ReadWord(0x80)
	require.NoError(t, err)
	require.NoError(t, r.e.EraseAll())
	require.NoError(t, r.e.WriteAll(0))

	assert.Empty(t, tr.Violations())
}
