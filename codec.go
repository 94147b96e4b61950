package microwire

// Start bit and opcode, three bits transmitted first in every command.
//
//	[CAT93C46|Instruction Set]
//	READ  1 10 A5-A0
//	WRITE 1 01 A5-A0 D15-D0
//	ERASE 1 11 A5-A0
//	EWEN  1 00 11XXXX
//	EWDS  1 00 00XXXX
//	ERAL  1 00 10XXXX
//	WRAL  1 00 01XXXX D15-D0
const (
	opExtended = 0b100
	opWrite    = 0b101
	opRead     = 0b110
	opErase    = 0b111
)

// Extended opcodes live in the two most significant address bits.
const (
	extEWDS = 0b00
	extWRAL = 0b01
	extERAL = 0b10
	extEWEN = 0b11
)

const opcodeBits = 3

// command packs start bit, opcode and an address-width field into
// CommandBits bits, MSB first. Bits past the command are set when fill is
// true; the device never clocks them.
func (p Profile) command(op uint8, field uint16, fill bool) []byte {
	v := uint16(op)<<p.AddressBits | field&p.MaxAddress()
	pad := 16 - p.CommandBits
	v <<= pad
	if fill {
		v |= 1<<pad - 1
	}
	return []byte{byte(v >> 8), byte(v)}
}

// extended builds one of the 100xx commands. EWEN carries ones in its
// don't-care bits, the others carry zeros.
func (p Profile) extended(ext uint16) Frame {
	field := ext << (p.AddressBits - 2)
	fill := ext == extEWEN
	if fill {
		field |= 1<<(p.AddressBits-2) - 1
	}
	return Frame{
		Data:       p.command(opExtended, field, fill),
		Len:        p.CommandBits,
		Unit:       Bits,
		AssertCS:   true,
		DeassertCS: true,
	}
}

func (p Profile) ewen() Frame { return p.extended(extEWEN) }
func (p Profile) ewds() Frame { return p.extended(extEWDS) }
func (p Profile) eral() Frame { return p.extended(extERAL) }

// wral keeps CS asserted for the data word that follows.
func (p Profile) wral() Frame {
	f := p.extended(extWRAL)
	f.DeassertCS = false
	return f
}

func (p Profile) erase(addr uint16) Frame {
	return Frame{
		Data:       p.command(opErase, addr, false),
		Len:        p.CommandBits,
		Unit:       Bits,
		AssertCS:   true,
		DeassertCS: true,
	}
}

// opcode opens a transaction; the address follows without releasing CS.
func opcode(op uint8) Frame {
	return Frame{
		Data:     []byte{op << (8 - opcodeBits)},
		Len:      opcodeBits,
		Unit:     Bits,
		AssertCS: true,
	}
}

// address left-justifies addr in the first byte. Bits above AddressBits are
// shifted out of the byte and lost.
func (p Profile) address(addr uint16) Frame {
	return Frame{
		Data: []byte{byte(addr << (8 - p.AddressBits))},
		Len:  p.AddressBits,
		Unit: Bits,
	}
}

// data sends the low byte first and ends the transaction.
func data(w uint16) Frame {
	return Frame{
		Data:       []byte{byte(w), byte(w >> 8)},
		Len:        2,
		Unit:       Bytes,
		DeassertCS: true,
	}
}

// dummyBit clocks the zero that precedes read data.
func dummyBit() Frame {
	return Frame{Data: []byte{0}, Len: 1, Unit: Bits}
}

// strobe toggles CS without clocking any data.
func strobe(assert bool) Frame {
	return Frame{
		Data:       []byte{},
		Unit:       Bits,
		AssertCS:   assert,
		DeassertCS: !assert,
	}
}

// Codec emits microwire commands for one Profile over a Transport. Each
// method is exactly one transport call.
type Codec struct {
	t Transport
	p Profile
}

// NewCodec fails with ErrProfile if p does not validate.
func NewCodec(t Transport, p Profile) (*Codec, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Codec{t: t, p: p}, nil
}

func (c *Codec) Profile() Profile { return c.p }

// EnableWrite sends EWEN as a complete transaction.
func (c *Codec) EnableWrite() error { return c.t.Write(c.p.ewen()) }

// DisableWrite sends EWDS as a complete transaction.
func (c *Codec) DisableWrite() error { return c.t.Write(c.p.ewds()) }

// EraseAllCommand sends ERAL as a complete transaction.
func (c *Codec) EraseAllCommand() error { return c.t.Write(c.p.eral()) }

// WriteAllCommand sends WRAL and leaves CS asserted for Data.
func (c *Codec) WriteAllCommand() error { return c.t.Write(c.p.wral()) }

// EraseCommand sends ERASE for addr as a complete transaction.
func (c *Codec) EraseCommand(addr uint16) error { return c.t.Write(c.p.erase(addr)) }

func (c *Codec) WriteOpcode() error { return c.t.Write(opcode(opWrite)) }

func (c *Codec) ReadOpcode() error { return c.t.Write(opcode(opRead)) }

func (c *Codec) Address(addr uint16) error { return c.t.Write(c.p.address(addr)) }

func (c *Codec) DummyBit() error { return c.t.Write(dummyBit()) }

func (c *Codec) Data(w uint16) error { return c.t.Write(data(w)) }

// Strobe asserts or releases CS with a zero-length transfer.
func (c *Codec) Strobe(assert bool) error { return c.t.Write(strobe(assert)) }

// ReadData clocks in one word and releases CS. The first byte on the wire is
// the low byte of the result.
func (c *Codec) ReadData() (uint16, error) {
	var buf [2]byte
	_, err := c.t.Read(buf[:], true)
	return uint16(buf[1])<<8 | uint16(buf[0]), err
}
