package microwire

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageCodec(t *testing.T) {
	words := []uint16{0x00D0, 0x1234, 0xFFFF}
	b := EncodeImage(words)
	assert.Equal(t, []byte{0xD0, 0x00, 0x34, 0x12, 0xFF, 0xFF}, b)
	assert.Equal(t, words, DecodeImage(b))
}

func TestDecodeImagePadsOddLength(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03}
	assert.Equal(t, []uint16{0x0201, 0xFF03}, DecodeImage(in))
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, in)
}

func TestReadImageLimit(t *testing.T) {
	words, err := ReadImage(bytes.NewReader([]byte{1, 0, 2, 0, 3, 0}), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2}, words)
}

func TestOffsetPattern(t *testing.T) {
	words := OffsetPattern(64, 0xD0)
	require.Len(t, words, 64)
	assert.Equal(t, uint16(0xD0), words[0])
	assert.Equal(t, uint16(0x10F), words[63])
}

func TestReadRangeChecked(t *testing.T) {
	bus := &fakeBus{}
	e, _ := newTestEEPROM(t, bus, CAT93C46.Profile())

	_, err := e.Read(context.Background(), 60, 5)
	assert.ErrorIs(t, err, ErrAddressRange)
	assert.ErrorIs(t, e.Write(context.Background(), 0, make([]uint16, 65)), ErrAddressRange)
	assert.Empty(t, bus.calls)
}

func TestReadStopsOnCancel(t *testing.T) {
	bus := &fakeBus{}
	e, _ := newTestEEPROM(t, bus, CAT93C46.Profile())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	words, err := e.Read(ctx, 0, 4)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, words)
	assert.Empty(t, bus.calls)
}

func TestVerifyReportsFirstMismatch(t *testing.T) {
	bus := &fakeBus{readData: [][]byte{{0x01, 0x00}, {0x05, 0x00}, {0x07, 0x00}}}
	e, _ := newTestEEPROM(t, bus, CAT93C46.Profile())

	err := e.Verify(context.Background(), 10, []uint16{1, 2, 3})
	require.ErrorIs(t, err, ErrVerify)

	var ve *VerifyError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, VerifyError{Addr: 11, Want: 2, Got: 5}, *ve)
}
