package microwire

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"
)

// ErrNoAdapter is returned when no MPSSE capable FTDI chip is attached.
var ErrNoAdapter = errors.New("microwire: no FT232H/FT2232H found")

// Device is an FTDI MPSSE adapter with a microwire EEPROM on its D bus.
//
//	[FTDI-AN_114|Figure 1] / reference wiring
//	ADBUS0 | SK
//	ADBUS1 | DI (device input)
//	ADBUS2 | DO (device output)
//	ADBUS3 | CS (active high)
type Device struct {
	FTDI *ftdi.FT232H

	clock physic.Frequency
	port  spi.PortCloser
}

var hostInitialized atomic.Bool

// NewDevice finds the first FT232H or FT2232H. clock is the SK frequency;
// the reference wiring runs at 500 kHz, well under the 1 MHz (4.5 V) and
// 250 kHz (1.8 V) limits of the slowest parts.
func NewDevice(clock physic.Frequency) (*Device, error) {
	if hostInitialized.CompareAndSwap(false, true) {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("host initialization failed: %w", err)
		}
	}
	ft, err := findMPSSE()
	if err != nil {
		return nil, err
	}
	return &Device{FTDI: ft, clock: clock}, nil
}

func findMPSSE() (*ftdi.FT232H, error) {
	const vendorID = 0x0403 // FTDI
	productIDs := map[uint16]bool{
		0x6010: true, // FT2232H
		0x6014: true, // FT232H
	}

	info := ftdi.Info{}
	for _, dev := range ftdi.All() {
		dev.Info(&info)
		if info.VenID != vendorID || !productIDs[info.DevID] {
			continue
		}
		if ft, ok := dev.(*ftdi.FT232H); ok {
			return ft, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrNoAdapter, StatusDeviceNotFound)
}

// Info returns the USB descriptor information of the adapter.
func (d *Device) Info() ftdi.Info {
	var i ftdi.Info
	d.FTDI.Info(&i)
	return i
}

// Pin looks up a header pin by its short name ("D3", "C0") or by its
// registered name ("FT232H.D3").
func (d *Device) Pin(name string) (gpio.PinIO, error) {
	for _, p := range d.FTDI.Header() {
		if p.Name() == name || strings.HasSuffix(p.Name(), "."+name) {
			return p, nil
		}
	}
	if p := gpioreg.ByName(name); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("pin %q: %w", name, StatusInvalidParameter)
}

// OpenSPI connects the MPSSE engine in SPI mode 0 and returns a transport
// that drives cs manually. do, if not empty, names a pin wired to the
// device DO line for busy polling; with the reference wiring that is D2,
// the MISO pin itself.
//
// [FTDI-AN_114|1.2]> FTDI device can only support mode 0 and mode 2 due to the limitation of MPSSE engine
// [CAT93C46|Figure 2] DI is latched on the rising edge of SK: mode 0
func (d *Device) OpenSPI(cs, do string, csActiveLow bool) (*SPITransport, error) {
	if d.port != nil {
		return nil, fmt.Errorf("spi port already open: %w", StatusInvalidParameter)
	}
	csPin, err := d.Pin(cs)
	if err != nil {
		return nil, err
	}
	var doPin gpio.PinIn
	if do != "" {
		if doPin, err = d.Pin(do); err != nil {
			return nil, err
		}
	}

	port, err := d.FTDI.SPI()
	if err != nil {
		return nil, fmt.Errorf("failed to get SPI port: %w", err)
	}
	conn, err := port.Connect(d.clock, spi.Mode0|spi.NoCS, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}
	d.port = port

	t := NewSPITransport(conn, csPin, doPin)
	if err := t.SetActiveLow(csActiveLow); err != nil {
		return nil, err
	}
	return t, nil
}

// OpenBitBang drives the four lines as plain GPIO. It is much slower than
// OpenSPI, one USB round trip per edge, but can use any header pins.
func (d *Device) OpenBitBang(cs, sk, di, do string, csActiveLow bool) (*BitBangTransport, error) {
	var pins BitBangPins
	var err error
	if pins.CS, err = d.Pin(cs); err != nil {
		return nil, err
	}
	if pins.SK, err = d.Pin(sk); err != nil {
		return nil, err
	}
	if pins.DI, err = d.Pin(di); err != nil {
		return nil, err
	}
	if pins.DO, err = d.Pin(do); err != nil {
		return nil, err
	}
	b, err := NewBitBangTransport(pins, d.clock)
	if err != nil {
		return nil, err
	}
	if err := b.SetActiveLow(csActiveLow); err != nil {
		return nil, err
	}
	return b, nil
}

// Close releases the SPI port, if open.
func (d *Device) Close() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}
