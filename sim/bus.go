package sim

import (
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Bus exposes a Device as periph pins and a byte-wide SPI connection, so the
// hardware transports can be exercised without an adapter attached. CS is
// active-high, as on the real part.
type Bus struct {
	d  *Device
	cs *csPin
	sk *skPin
	di *gpiotest.Pin
	do *doPin
}

func NewBus(d *Device) *Bus {
	b := &Bus{
		d:  d,
		cs: &csPin{Pin: gpiotest.Pin{N: "CS", Num: 3}, d: d},
		di: &gpiotest.Pin{N: "DI", Num: 1},
		do: &doPin{Pin: gpiotest.Pin{N: "DO", Num: 2}, d: d},
	}
	b.sk = &skPin{Pin: gpiotest.Pin{N: "SK", Num: 0}, d: d, di: b.di}
	return b
}

func (b *Bus) Device() *Device { return b.d }
func (b *Bus) CS() gpio.PinOut { return b.cs }
func (b *Bus) SK() gpio.PinOut { return b.sk }
func (b *Bus) DI() gpio.PinOut { return b.di }
func (b *Bus) DO() gpio.PinIn  { return b.do }
func (b *Bus) Conn() conn.Conn { return &spiConn{d: b.d} }
func (b *Bus) Selected() bool  { return b.d.cs }

type csPin struct {
	gpiotest.Pin
	d *Device
}

func (p *csPin) Out(l gpio.Level) error {
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	p.d.Select(l == gpio.High)
	return nil
}

type skPin struct {
	gpiotest.Pin
	d  *Device
	di gpio.PinIn
}

func (p *skPin) Out(l gpio.Level) error {
	rising := l == gpio.High && p.Read() == gpio.Low
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	if rising {
		p.d.Clock(p.di.Read() == gpio.High)
	}
	return nil
}

type doPin struct {
	gpiotest.Pin
	d *Device
}

func (p *doPin) Read() gpio.Level {
	return gpio.Level(p.d.DO())
}

// spiConn clocks whole bytes in SPI mode 0, sampling DO before each rising
// edge. Chip-select is left to the Bus CS pin.
type spiConn struct {
	d *Device
}

func (c *spiConn) String() string { return "sim" }

func (c *spiConn) Duplex() conn.Duplex { return conn.Full }

func (c *spiConn) Tx(w, r []byte) error {
	clear(r)
	for i := range len(w) * 8 {
		if i/8 < len(r) && c.d.DO() {
			r[i/8] |= 0x80 >> (i % 8)
		}
		c.d.Clock(w[i/8]&(0x80>>(i%8)) != 0)
	}
	return nil
}
