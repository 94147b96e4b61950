package microwire

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// SPITransport adapts a byte oriented periph SPI connection to microwire.
//
// An spi.Conn must be opened with spi.NoCS in mode 0; chip-select is driven
// through a separate pin because microwire selects the device with CS high.
// Bits written while CS is held are queued and sent, together with any read,
// as a single full-duplex Tx when CS is released. The Tx is left-padded with
// zeros to a byte boundary; the device ignores DI until the start bit.
//
// Padding is only harmless at the start of a transaction. Once a Read has
// kept CS asserted, further transfers must be whole bytes.
type SPITransport struct {
	conn   conn.Conn
	cs     gpio.PinOut
	do     gpio.PinIn // optional, for ReadyChecker
	active gpio.Level

	q        bitQueue
	selected bool
	midRead  bool // a Read kept CS asserted
}

// NewSPITransport returns a transport that drives cs active-high. do may be
// nil if the DO line is not also wired to a readable pin.
func NewSPITransport(c conn.Conn, cs gpio.PinOut, do gpio.PinIn) *SPITransport {
	return &SPITransport{
		conn:   c,
		cs:     cs,
		do:     do,
		active: gpio.High,
	}
}

// SetActiveLow inverts CS for boards with an inverting level shifter. CS is
// driven to its new inactive level.
func (s *SPITransport) SetActiveLow(low bool) error {
	s.active = !gpio.Level(low)
	return s.release()
}

func (s *SPITransport) Write(f Frame) error {
	n := f.Bits()
	if n < 0 || n > len(f.Data)*8 {
		return fmt.Errorf("spi write %d bits from %d bytes: %w", n, len(f.Data), StatusInvalidParameter)
	}
	if f.AssertCS && !s.selected {
		if err := s.cs.Out(s.active); err != nil {
			return ioError("assert cs", err)
		}
		s.selected = true
		s.midRead = false
		s.q.reset()
	}
	if s.midRead && n%8 != 0 {
		return fmt.Errorf("spi write of %d bits after a read: %w", n, StatusInvalidParameter)
	}
	s.q.push(f.Data, n)
	if !s.selected || f.DeassertCS {
		if err := s.flush(); err != nil {
			s.release()
			return err
		}
	}
	if f.DeassertCS {
		return s.release()
	}
	return nil
}

func (s *SPITransport) Read(buf []byte, deassertCS bool) (int, error) {
	if !s.selected {
		return 0, fmt.Errorf("spi read without cs: %w", StatusInvalidParameter)
	}
	extra := len(buf) * 8
	w, pad := s.q.padded(extra)
	r := make([]byte, len(w))
	off := pad + s.q.n
	s.q.reset()

	err := s.conn.Tx(w, r)
	if err == nil {
		extractBits(buf, r, off, extra)
	}
	if deassertCS {
		if csErr := s.release(); csErr != nil && err == nil {
			err = csErr
		}
	}
	if err != nil {
		return 0, ioError("spi tx", err)
	}
	s.midRead = !deassertCS
	return len(buf), nil
}

// Ready samples DO. Microwire devices drive DO high once a programming cycle
// has finished and CS is held.
func (s *SPITransport) Ready() (bool, error) {
	if s.do == nil {
		return false, ErrPollUnsupported
	}
	return s.do.Read() == gpio.High, nil
}

func (s *SPITransport) flush() error {
	if s.q.n == 0 {
		return nil
	}
	w, _ := s.q.padded(0)
	s.q.reset()
	if err := s.conn.Tx(w, nil); err != nil {
		return ioError("spi tx", err)
	}
	return nil
}

func (s *SPITransport) release() error {
	s.selected = false
	s.midRead = false
	s.q.reset()
	if err := s.cs.Out(!s.active); err != nil {
		return ioError("release cs", err)
	}
	return nil
}

func ioError(op string, err error) error {
	var st Status
	if errors.As(err, &st) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, StatusIOError, err)
}
