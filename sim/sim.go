// Package sim models a 93Cxx microwire EEPROM at the pin level.
//
// The model follows the ×16 instruction set of the Catalyst/onsemi CAT93Cxx
// datasheets: leading zeros before the start bit are ignored, DI is sampled
// on the rising edge of SK, DO changes after the edge, a read is preceded by
// a dummy zero, and programming starts when CS falls after a complete
// WRITE, ERASE, ERAL or WRAL. While CS is held and no command is in
// progress, DO reports ready (high) or busy (low).
package sim

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/gentam/microwire"
)

type phase uint8

const (
	phaseIdle    phase = iota // CS low
	phaseStart                // waiting for the start bit
	phaseOpcode               // two opcode bits
	phaseAddress              // AddressBits
	phaseData                 // 16 data bits for WRITE and WRAL
	phaseRead                 // shifting out data
	phaseDone                 // command complete, waiting for CS to fall
)

// Op names a decoded instruction.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
	OpErase
	OpEWEN
	OpEWDS
	OpERAL
	OpWRAL
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	case OpErase:
		return "ERASE"
	case OpEWEN:
		return "EWEN"
	case OpEWDS:
		return "EWDS"
	case OpERAL:
		return "ERAL"
	case OpWRAL:
		return "WRAL"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Command is one instruction as decoded by the model. Applied is false for
// programming instructions issued while writes were disabled and for
// instructions cut short by CS falling. Start bits are ignored while the
// device is busy, so such instructions do not appear at all.
type Command struct {
	Op      Op
	Addr    uint16
	Data    uint16
	Applied bool
}

const erased = 0xFFFF

// Device is a simulated EEPROM. It is not safe for concurrent use.
type Device struct {
	p   microwire.Profile
	mem []uint16
	wen bool

	cs    bool
	phase phase
	op    uint8
	addr  uint16
	data  uint16
	n     int // bits collected in the current phase

	out    []bool // pending DO bits during a read
	outPos int

	tWC       time.Duration
	now       func() time.Time
	busyUntil time.Time

	history []Command
}

type Option func(*Device)

// WithWriteCycle overrides the profile's programming time.
func WithWriteCycle(d time.Duration) Option {
	return func(dev *Device) { dev.tWC = d }
}

// WithClock replaces time.Now, for tests that step time manually.
func WithClock(now func() time.Time) Option {
	return func(dev *Device) { dev.now = now }
}

// New returns an erased device with writes disabled, as after power-up.
func New(p microwire.Profile, opts ...Option) *Device {
	d := &Device{
		p:   p,
		mem: make([]uint16, p.Words),
		tWC: p.WriteCycle,
		now: time.Now,
	}
	for i := range d.mem {
		d.mem[i] = erased
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Profile() microwire.Profile { return d.p }

// Busy reports whether a programming cycle is in progress.
func (d *Device) Busy() bool {
	return d.now().Before(d.busyUntil)
}

// WriteEnabled reports the state of the EWEN latch.
func (d *Device) WriteEnabled() bool { return d.wen }

// index drops address bits the array does not decode.
func (d *Device) index(addr uint16) int {
	return int(addr) % len(d.mem)
}

// Word returns the stored word in wire order (first bit received is bit 15).
func (d *Device) Word(addr uint16) uint16 {
	return d.mem[d.index(addr)]
}

// SetWord stores w in wire order, bypassing the protocol.
func (d *Device) SetWord(addr, w uint16) {
	d.mem[d.index(addr)] = w
}

// History returns the instructions seen since New or ClearHistory.
func (d *Device) History() []Command { return d.history }

func (d *Device) ClearHistory() { d.history = nil }

// Select drives CS. A falling edge completes any pending instruction.
func (d *Device) Select(on bool) {
	if on == d.cs {
		return
	}
	d.cs = on
	if on {
		d.phase = phaseStart
		d.n = 0
		return
	}
	if d.phase == phaseDone {
		d.execute()
	} else if d.phase == phaseData {
		d.record(d.decode(), false)
	}
	d.phase = phaseIdle
	d.out = nil
}

// DO returns the level of the data output before the next clock edge.
func (d *Device) DO() bool {
	switch {
	case !d.cs:
		return true
	case d.phase == phaseRead:
		return d.out[d.outPos]
	case d.phase == phaseStart:
		return !d.Busy()
	default:
		return true
	}
}

// Clock is one rising edge of SK with di on the data input.
func (d *Device) Clock(di bool) {
	if !d.cs {
		return
	}
	switch d.phase {
	case phaseStart:
		if di && !d.Busy() {
			d.phase = phaseOpcode
			d.op, d.addr, d.data, d.n = 0, 0, 0, 0
		}
	case phaseOpcode:
		d.op = d.op<<1 | bit(di)
		d.n++
		if d.n == 2 {
			d.phase, d.n = phaseAddress, 0
		}
	case phaseAddress:
		d.addr = d.addr<<1 | uint16(bit(di))
		d.n++
		if d.n == d.p.AddressBits {
			d.n = 0
			d.addressed()
		}
	case phaseData:
		d.data = d.data<<1 | uint16(bit(di))
		d.n++
		if d.n == 16 {
			d.phase = phaseDone
		}
	case phaseRead:
		d.outPos++
		if d.outPos == len(d.out) {
			// sequential read continues with the next word, no dummy bit
			d.addr = uint16(d.index(d.addr + 1))
			d.out = wordBits(d.mem[d.addr])
			d.outPos = 0
		}
	}
}

func bit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func wordBits(w uint16) []bool {
	bits := make([]bool, 16)
	for i := range bits {
		bits[i] = w&(0x8000>>i) != 0
	}
	return bits
}

func (d *Device) ext() uint16 {
	return d.addr >> (d.p.AddressBits - 2)
}

func (d *Device) decode() Op {
	switch d.op {
	case 0b10:
		return OpRead
	case 0b01:
		return OpWrite
	case 0b11:
		return OpErase
	}
	switch d.ext() {
	case 0b11:
		return OpEWEN
	case 0b10:
		return OpERAL
	case 0b01:
		return OpWRAL
	default:
		return OpEWDS
	}
}

func (d *Device) addressed() {
	switch op := d.decode(); op {
	case OpRead:
		d.record(op, true)
		d.out = append([]bool{false}, wordBits(d.Word(d.addr))...)
		d.outPos = 0
		d.phase = phaseRead
	case OpWrite, OpWRAL:
		d.phase = phaseData
	default:
		d.phase = phaseDone
	}
}

func (d *Device) execute() {
	op := d.decode()
	switch op {
	case OpEWEN:
		d.wen = true
		d.record(op, true)
		return
	case OpEWDS:
		d.wen = false
		d.record(op, true)
		return
	}
	if !d.wen {
		d.record(op, false)
		return
	}
	switch op {
	case OpWrite:
		d.SetWord(d.addr, d.data)
	case OpErase:
		d.SetWord(d.addr, erased)
	case OpERAL:
		for i := range d.mem {
			d.mem[i] = erased
		}
	case OpWRAL:
		for i := range d.mem {
			d.mem[i] = d.data
		}
	}
	d.busyUntil = d.now().Add(d.tWC)
	d.record(op, true)
}

func (d *Device) record(op Op, applied bool) {
	c := Command{Op: op, Applied: applied}
	switch op {
	case OpRead, OpWrite, OpErase:
		c.Addr = d.addr
	}
	switch op {
	case OpWrite, OpWRAL:
		c.Data = d.data
	}
	d.history = append(d.history, c)
}

// Load fills the array from a raw image in wire order: the first byte of
// each pair is the first byte clocked in. This is the same layout as a host
// image written by microwire.EncodeImage. Words past the image keep their
// contents.
func (d *Device) Load(r io.Reader) error {
	b, err := io.ReadAll(io.LimitReader(r, int64(2*len(d.mem))))
	if err != nil {
		return err
	}
	for i := 0; i+1 < len(b); i += 2 {
		d.mem[i/2] = binary.BigEndian.Uint16(b[i:])
	}
	return nil
}

// Save writes the whole array in the format read by Load.
func (d *Device) Save(w io.Writer) error {
	b := make([]byte, 0, 2*len(d.mem))
	for _, m := range d.mem {
		b = binary.BigEndian.AppendUint16(b, m)
	}
	_, err := w.Write(b)
	return err
}
