package microwire

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// BitBangPins are the four microwire lines.
type BitBangPins struct {
	CS gpio.PinOut
	SK gpio.PinOut
	DI gpio.PinOut // host to device
	DO gpio.PinIn  // device to host
}

// BitBangTransport clocks microwire one bit at a time on GPIO pins. It works
// on any periph GPIO, including the FTDI D-bus pins, and can sample DO
// directly so it supports BusyPoll.
type BitBangTransport struct {
	pins   BitBangPins
	half   time.Duration
	active gpio.Level
	sleep  func(time.Duration)
}

// NewBitBangTransport configures the pins and returns an idle transport
// (CS and SK low). A zero clock runs as fast as the pins toggle.
func NewBitBangTransport(pins BitBangPins, clock physic.Frequency) (*BitBangTransport, error) {
	if pins.CS == nil || pins.SK == nil || pins.DI == nil || pins.DO == nil {
		return nil, errors.New("microwire: bit-bang needs CS, SK, DI and DO")
	}
	b := &BitBangTransport{
		pins:   pins,
		active: gpio.High,
		sleep:  time.Sleep,
	}
	if clock > 0 {
		b.half = clock.Period() / 2
	}
	if err := pins.DO.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("DO input: %w", err)
	}
	for _, p := range []gpio.PinOut{pins.SK, pins.DI} {
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := pins.CS.Out(!b.active); err != nil {
		return nil, fmt.Errorf("%s: %w", pins.CS, err)
	}
	return b, nil
}

// SetActiveLow inverts CS and drives it to the new inactive level.
func (b *BitBangTransport) SetActiveLow(low bool) error {
	b.active = !gpio.Level(low)
	return b.release()
}

func (b *BitBangTransport) wait() {
	if b.half > 0 {
		b.sleep(b.half)
	}
}

// clock shifts one bit out on DI. DO is sampled just before the rising edge
// of SK; the device moves to the next bit after the edge.
func (b *BitBangTransport) clock(bit bool) (gpio.Level, error) {
	if err := b.pins.DI.Out(gpio.Level(bit)); err != nil {
		return gpio.Low, err
	}
	b.wait()
	in := b.pins.DO.Read()
	if err := b.pins.SK.Out(gpio.High); err != nil {
		return gpio.Low, err
	}
	b.wait()
	return in, b.pins.SK.Out(gpio.Low)
}

func (b *BitBangTransport) Write(f Frame) error {
	n := f.Bits()
	if n < 0 || n > len(f.Data)*8 {
		return fmt.Errorf("bit-bang write %d bits from %d bytes: %w", n, len(f.Data), StatusInvalidParameter)
	}
	if f.AssertCS {
		if err := b.pins.CS.Out(b.active); err != nil {
			return ioError("assert cs", err)
		}
	}
	for i := range n {
		if _, err := b.clock(f.Data[i/8]&(0x80>>(i%8)) != 0); err != nil {
			return ioError("clock", err)
		}
	}
	if f.DeassertCS {
		return b.release()
	}
	return nil
}

func (b *BitBangTransport) Read(buf []byte, deassertCS bool) (int, error) {
	clear(buf)
	for i := range len(buf) * 8 {
		l, err := b.clock(false)
		if err != nil {
			return i / 8, ioError("clock", err)
		}
		if l == gpio.High {
			buf[i/8] |= 0x80 >> (i % 8)
		}
	}
	if deassertCS {
		if err := b.release(); err != nil {
			return len(buf), err
		}
	}
	return len(buf), nil
}

func (b *BitBangTransport) Ready() (bool, error) {
	return b.pins.DO.Read() == gpio.High, nil
}

func (b *BitBangTransport) release() error {
	if err := b.pins.DI.Out(gpio.Low); err != nil {
		return ioError("release di", err)
	}
	if err := b.pins.CS.Out(!b.active); err != nil {
		return ioError("release cs", err)
	}
	return nil
}
