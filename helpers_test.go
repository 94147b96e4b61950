package microwire

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

// busCall is one Transport call seen by fakeBus.
type busCall struct {
	Frame    Frame // writes only
	Read     bool
	N        int
	Deassert bool
}

// fakeBus records transport calls and can fail selected ones by index.
type fakeBus struct {
	calls    []busCall
	readData [][]byte
	fail     map[int]error
}

func (b *fakeBus) Write(f Frame) error {
	i := len(b.calls)
	f.Data = bytes.Clone(f.Data)
	b.calls = append(b.calls, busCall{Frame: f})
	return b.fail[i]
}

func (b *fakeBus) Read(buf []byte, deassertCS bool) (int, error) {
	i := len(b.calls)
	b.calls = append(b.calls, busCall{Read: true, N: len(buf), Deassert: deassertCS})
	if err := b.fail[i]; err != nil {
		return 0, err
	}
	if len(b.readData) > 0 {
		copy(buf, b.readData[0])
		b.readData = b.readData[1:]
	}
	return len(buf), nil
}

func (b *fakeBus) writes() []Frame {
	var fs []Frame
	for _, c := range b.calls {
		if !c.Read {
			fs = append(fs, c.Frame)
		}
	}
	return fs
}

// pollBus adds a mocked DO line to fakeBus.
type pollBus struct {
	fakeBus
	mock.Mock
}

func (b *pollBus) Ready() (bool, error) {
	ret := b.Called()
	return ret.Bool(0), ret.Error(1)
}

// newTestEEPROM replaces sleeping with a log of requested delays.
func newTestEEPROM(t *testing.T, tr Transport, p Profile, opts ...Option) (*EEPROM, *[]time.Duration) {
	t.Helper()
	e, err := New(tr, p, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	return e, &slept
}
