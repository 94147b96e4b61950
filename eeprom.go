package microwire

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrAddressRange is returned for addresses that do not fit the profile.
var ErrAddressRange = errors.New("microwire: address out of range")

// EEPROM sequences complete word transactions on one device. It is not safe
// for concurrent use; the transport is borrowed for the session.
type EEPROM struct {
	c     *Codec
	wc    WriteCycle
	log   *slog.Logger
	sleep func(time.Duration)
}

type Option func(*EEPROM)

// WithWriteCycle selects how writes wait for completion. The default is
// FixedDelay{}.
func WithWriteCycle(wc WriteCycle) Option {
	return func(e *EEPROM) { e.wc = wc }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *EEPROM) { e.log = l }
}

// New binds a profile to a transport.
func New(t Transport, p Profile, opts ...Option) (*EEPROM, error) {
	c, err := NewCodec(t, p)
	if err != nil {
		return nil, err
	}
	e := &EEPROM{
		c:     c,
		wc:    FixedDelay{},
		log:   slog.New(slog.DiscardHandler),
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, ok := e.wc.(BusyPoll); ok {
		if _, ok := t.(ReadyChecker); !ok {
			return nil, ErrPollUnsupported
		}
	}
	return e, nil
}

func (e *EEPROM) Profile() Profile { return e.c.p }

func (e *EEPROM) WriteCycle() WriteCycle { return e.wc }

func (e *EEPROM) checkAddr(addr uint16) error {
	if int(addr) >= e.c.p.Words || addr > e.c.p.MaxAddress() {
		return fmt.Errorf("%w: %#x (max %#x)", ErrAddressRange, addr, e.c.p.Words-1)
	}
	return nil
}

// sequence runs every step of a transaction even after a failure, so CS is
// always released and EWDS is always sent. The first failure is kept.
type sequence struct {
	e   *EEPROM
	op  string
	err error
}

func (e *EEPROM) begin(op string) *sequence {
	return &sequence{e: e, op: op}
}

func (s *sequence) do(step string, fn func() error) {
	err := fn()
	if err == nil {
		return
	}
	if s.err == nil {
		s.err = fmt.Errorf("%s: %s: %w", s.op, step, err)
		return
	}
	s.e.log.Warn("step failed after earlier failure", "op", s.op, "step", step, "err", err)
}

// completeWrite re-strobes CS so the device can report its programming
// cycle, waits for it, and releases CS again. A busy device ignores start
// bits, so when the policy returns before the part's write cycle is over
// (a timed out poll or a short FixedDelay) the rest is slept off here and
// the EWDS that follows is not lost.
func (s *sequence) completeWrite() {
	e := s.e
	var remaining time.Duration
	s.do("strobe", func() error { return e.c.Strobe(true) })
	s.do("wait", func() (err error) {
		remaining, err = e.wc.wait(e)
		return err
	})
	s.do("release", func() error { return e.c.Strobe(false) })
	if remaining > 0 {
		e.log.Debug("waiting out write cycle", "remaining", remaining)
		e.sleep(remaining)
	}
}

// WriteWord programs one word. Writes are enabled for the duration of the
// transaction only.
func (e *EEPROM) WriteWord(addr, data uint16) error {
	if err := e.checkAddr(addr); err != nil {
		return err
	}
	s := e.begin("write")
	s.do("ewen", e.c.EnableWrite)
	s.do("opcode", e.c.WriteOpcode)
	s.do("address", func() error { return e.c.Address(addr) })
	s.do("data", func() error { return e.c.Data(data) })
	s.completeWrite()
	s.do("ewds", e.c.DisableWrite)

	e.log.Debug("write word", "addr", addr, "data", data, "err", s.err)
	return s.err
}

// ReadWord reads one word.
func (e *EEPROM) ReadWord(addr uint16) (uint16, error) {
	if err := e.checkAddr(addr); err != nil {
		return 0, err
	}
	var w uint16
	s := e.begin("read")
	s.do("opcode", e.c.ReadOpcode)
	s.do("address", func() error { return e.c.Address(addr) })
	s.do("dummy", e.c.DummyBit)
	s.do("data", func() (err error) {
		w, err = e.c.ReadData()
		return err
	})

	e.log.Debug("read word", "addr", addr, "data", w, "err", s.err)
	return w, s.err
}

// EraseWord sets one word to 0xFFFF.
func (e *EEPROM) EraseWord(addr uint16) error {
	if err := e.checkAddr(addr); err != nil {
		return err
	}
	s := e.begin("erase")
	s.do("ewen", e.c.EnableWrite)
	s.do("erase", func() error { return e.c.EraseCommand(addr) })
	s.completeWrite()
	s.do("ewds", e.c.DisableWrite)

	e.log.Debug("erase word", "addr", addr, "err", s.err)
	return s.err
}

// EraseAll sets every word to 0xFFFF.
func (e *EEPROM) EraseAll() error {
	s := e.begin("erase all")
	s.do("ewen", e.c.EnableWrite)
	s.do("eral", e.c.EraseAllCommand)
	s.completeWrite()
	s.do("ewds", e.c.DisableWrite)

	e.log.Debug("erase all", "err", s.err)
	return s.err
}

// WriteAll programs every word with data.
func (e *EEPROM) WriteAll(data uint16) error {
	s := e.begin("write all")
	s.do("ewen", e.c.EnableWrite)
	s.do("wral", e.c.WriteAllCommand)
	s.do("data", func() error { return e.c.Data(data) })
	s.completeWrite()
	s.do("ewds", e.c.DisableWrite)

	e.log.Debug("write all", "data", data, "err", s.err)
	return s.err
}
