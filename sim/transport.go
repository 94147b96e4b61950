package sim

import (
	"fmt"

	"github.com/gentam/microwire"
)

// Transport drives a Device directly, one bit per Clock call. It also
// records misuse of chip-select that real hardware would silently accept.
type Transport struct {
	d          *Device
	violations []string
}

// NewTransport returns a Transport for d.
func NewTransport(d *Device) *Transport {
	return &Transport{d: d}
}

func (t *Transport) Device() *Device { return t.d }

// Violations lists chip-select misuse seen so far.
func (t *Transport) Violations() []string { return t.violations }

func (t *Transport) violate(format string, a ...any) {
	t.violations = append(t.violations, fmt.Sprintf(format, a...))
}

func (t *Transport) Write(f microwire.Frame) error {
	n := f.Bits()
	if n < 0 || n > len(f.Data)*8 {
		return fmt.Errorf("sim write %d bits from %d bytes: %w", n, len(f.Data), microwire.StatusInvalidParameter)
	}
	if f.AssertCS {
		if t.d.cs {
			t.violate("assert while selected")
		}
		t.d.Select(true)
	} else if n > 0 && !t.d.cs {
		t.violate("%d bits written without cs", n)
	}
	for i := range n {
		t.d.Clock(f.Data[i/8]&(0x80>>(i%8)) != 0)
	}
	if f.DeassertCS {
		if !t.d.cs {
			t.violate("deassert while idle")
		}
		t.d.Select(false)
	}
	return nil
}

func (t *Transport) Read(buf []byte, deassertCS bool) (int, error) {
	if !t.d.cs {
		t.violate("read without cs")
		return 0, fmt.Errorf("sim read without cs: %w", microwire.StatusInvalidParameter)
	}
	clear(buf)
	for i := range len(buf) * 8 {
		if t.d.DO() {
			buf[i/8] |= 0x80 >> (i % 8)
		}
		t.d.Clock(false)
	}
	if deassertCS {
		t.d.Select(false)
	}
	return len(buf), nil
}

// Ready samples DO. It is only meaningful with CS held.
func (t *Transport) Ready() (bool, error) {
	if !t.d.cs {
		t.violate("ready poll without cs")
		return false, fmt.Errorf("sim ready without cs: %w", microwire.StatusInvalidParameter)
	}
	return t.d.DO(), nil
}
