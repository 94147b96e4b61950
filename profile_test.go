package microwire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartProfilesAreValid(t *testing.T) {
	parts := Parts()
	require.Len(t, parts, 5)
	for _, part := range parts {
		p := part.Profile()
		assert.NoError(t, p.Validate(), part)
		assert.Equal(t, p.AddressBits+3, p.CommandBits, part)
		assert.LessOrEqual(t, p.Words, 1<<p.AddressBits, part)
		assert.Positive(t, p.WriteCycle, part)
		assert.LessOrEqual(t, p.WriteCycle, DefaultSettle, part)
		assert.Equal(t, part.String(), p.Name)
	}
}

func TestPartTable(t *testing.T) {
	tests := []struct {
		part  Part
		bits  int
		words int
	}{
		{CAT93C46, 6, 64},
		{CAT93C56, 8, 128},
		{CAT93C57, 7, 128},
		{CAT93C66, 8, 256},
		{CAT35C102, 7, 128},
	}
	for _, tt := range tests {
		p := tt.part.Profile()
		assert.Equal(t, tt.bits, p.AddressBits, tt.part)
		assert.Equal(t, tt.words, p.Words, tt.part)
	}
}

func TestLookupPart(t *testing.T) {
	for name, want := range map[string]Part{
		"93c46":     CAT93C46,
		"CAT93C66":  CAT93C66,
		"cat35c102": CAT35C102,
		" 93C57 ":   CAT93C57,
	} {
		got, ok := LookupPart(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := LookupPart("24C02")
	assert.False(t, ok)
}

func TestNewProfile(t *testing.T) {
	p, err := NewProfile(7)
	require.NoError(t, err)
	assert.Equal(t, 10, p.CommandBits)
	assert.Equal(t, 128, p.Words)
	assert.Equal(t, uint16(0x7F), p.MaxAddress())
	assert.Equal(t, 10*time.Millisecond, p.WriteCycle)

	for _, ab := range []int{0, 5, 9, 16} {
		_, err := NewProfile(ab)
		assert.ErrorIs(t, err, ErrProfile, ab)
	}
}

func TestValidateRejectsBrokenInvariants(t *testing.T) {
	p := CAT93C46.Profile()
	p.Words = 65
	assert.ErrorIs(t, p.Validate(), ErrProfile)

	p = CAT93C46.Profile()
	p.Words = 0
	assert.ErrorIs(t, p.Validate(), ErrProfile)

	p = CAT93C46.Profile()
	p.CommandBits = p.AddressBits
	assert.ErrorIs(t, p.Validate(), ErrProfile)
}

func TestUnknownPart(t *testing.T) {
	assert.Equal(t, Profile{}, Part(42).Profile())
	assert.Equal(t, "Part(42)", Part(42).String())
}
