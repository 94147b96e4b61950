package microwire

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrVerify is wrapped by VerifyError.
var ErrVerify = errors.New("microwire: verify failed")

// VerifyError reports the first word that did not read back as written.
type VerifyError struct {
	Addr      uint16
	Want, Got uint16
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("microwire: verify failed at %#04x: want %#04x, got %#04x", e.Addr, e.Want, e.Got)
}

func (e *VerifyError) Unwrap() error { return ErrVerify }

func (e *EEPROM) checkRange(start uint16, n int) error {
	if n < 0 || int(start)+n > e.c.p.Words {
		return fmt.Errorf("%w: %d words at %#x exceed %d", ErrAddressRange, n, start, e.c.p.Words)
	}
	return nil
}

// Read returns n words starting at start. ctx is checked between words; a
// word transaction is never interrupted.
func (e *EEPROM) Read(ctx context.Context, start uint16, n int) ([]uint16, error) {
	if err := e.checkRange(start, n); err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		if err := ctx.Err(); err != nil {
			return out[:i], err
		}
		w, err := e.ReadWord(start + uint16(i))
		if err != nil {
			return out[:i], err
		}
		out[i] = w
	}
	return out, nil
}

// Write programs words starting at start, one word transaction each.
func (e *EEPROM) Write(ctx context.Context, start uint16, words []uint16) error {
	if err := e.checkRange(start, len(words)); err != nil {
		return err
	}
	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.WriteWord(start+uint16(i), w); err != nil {
			return err
		}
	}
	e.log.Info("wrote words", "start", start, "count", len(words))
	return nil
}

// Verify reads words back and compares them with want.
func (e *EEPROM) Verify(ctx context.Context, start uint16, want []uint16) error {
	got, err := e.Read(ctx, start, len(want))
	if err != nil {
		return err
	}
	for i := range want {
		if got[i] != want[i] {
			return &VerifyError{Addr: start + uint16(i), Want: want[i], Got: got[i]}
		}
	}
	return nil
}

// Dump reads the whole array.
func (e *EEPROM) Dump(ctx context.Context) ([]uint16, error) {
	return e.Read(ctx, 0, e.c.p.Words)
}

// erasedByte pads odd-length images; it is what an erased cell reads as.
const erasedByte = 0xFF

// DecodeImage converts a raw image to words, two bytes per word, low byte
// first.
func DecodeImage(b []byte) []uint16 {
	if len(b)%2 != 0 {
		b = append(b[:len(b):len(b)], erasedByte)
	}
	words := make([]uint16, len(b)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return words
}

// EncodeImage is the inverse of DecodeImage.
func EncodeImage(words []uint16) []byte {
	b := make([]byte, 0, 2*len(words))
	for _, w := range words {
		b = binary.LittleEndian.AppendUint16(b, w)
	}
	return b
}

// ReadImage reads at most limit words from r.
func ReadImage(r io.Reader, limit int) ([]uint16, error) {
	b, err := io.ReadAll(io.LimitReader(r, int64(2*limit)))
	if err != nil {
		return nil, err
	}
	return DecodeImage(b), nil
}

// OffsetPattern returns n words where word i holds i+offset.
func OffsetPattern(n int, offset uint16) []uint16 {
	words := make([]uint16, n)
	for i := range words {
		words[i] = uint16(i) + offset
	}
	return words
}
