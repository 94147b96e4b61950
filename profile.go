package microwire

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrProfile reports an unsupported address width.
var ErrProfile = errors.New("microwire: unsupported device profile")

// Profile describes how a device frames its commands. CommandBits is always
// AddressBits+3: one start bit and two opcode bits precede the address.
type Profile struct {
	Name        string
	AddressBits int
	CommandBits int
	Words       int           // addressable ×16 words
	WriteCycle  time.Duration // tEW/tWC, internal programming time
}

const (
	minAddressBits  = 6
	maxAddressBits  = 8
	commandOverhead = 3
)

// NewProfile returns a generic profile for a part that is not in the Part
// table. It uses the slowest known write cycle.
func NewProfile(addressBits int) (Profile, error) {
	p := Profile{
		Name:        fmt.Sprintf("%d-bit", addressBits),
		AddressBits: addressBits,
		CommandBits: addressBits + commandOverhead,
		Words:       1 << addressBits,
		WriteCycle:  maxWriteCycle(),
	}
	return p, p.Validate()
}

// Validate checks the invariants every codec call relies on.
func (p Profile) Validate() error {
	if p.AddressBits < minAddressBits || p.AddressBits > maxAddressBits {
		return fmt.Errorf("%w: %d address bits", ErrProfile, p.AddressBits)
	}
	if p.CommandBits != p.AddressBits+commandOverhead {
		return fmt.Errorf("%w: %d command bits for %d address bits", ErrProfile, p.CommandBits, p.AddressBits)
	}
	if p.Words <= 0 || p.Words > 1<<p.AddressBits {
		return fmt.Errorf("%w: %d words for %d address bits", ErrProfile, p.Words, p.AddressBits)
	}
	return nil
}

// MaxAddress is the highest address the profile can encode.
func (p Profile) MaxAddress() uint16 {
	return uint16(1<<p.AddressBits - 1)
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (%d words, %d/%d bits)", p.Name, p.Words, p.AddressBits, p.CommandBits)
}

// Part is one of the supported device variants in ×16 organisation (ORG
// pulled high).
type Part int

const (
	CAT93C46 Part = iota
	CAT93C56
	CAT93C57
	CAT93C66
	CAT35C102
)

type partParams struct {
	name        string
	addressBits int
	words       int
	tWC         time.Duration
}

// Address widths follow the ×16 command tables; the 93C56 sends one
// don't-care bit ahead of A6..A0.
var knownParts = map[Part]partParams{
	// [CAT93C46|Instruction Set (x16)] A5-A0, [A.C. Characteristics] tEW 5ms
	CAT93C46: {name: "CAT93C46", addressBits: 6, words: 64, tWC: 5 * time.Millisecond},
	// [CAT93C56/66|Instruction Set (x16)] A7-A0 (A7 don't care on 56)
	CAT93C56: {name: "CAT93C56", addressBits: 8, words: 128, tWC: 5 * time.Millisecond},
	// [CAT93C57|Instruction Set (x16)] A6-A0, tEW 10ms
	CAT93C57: {name: "CAT93C57", addressBits: 7, words: 128, tWC: 10 * time.Millisecond},
	CAT93C66: {name: "CAT93C66", addressBits: 8, words: 256, tWC: 5 * time.Millisecond},
	// [CAT35C102|Instruction Set] A6-A0, tEW 10ms
	CAT35C102: {name: "CAT35C102", addressBits: 7, words: 128, tWC: 10 * time.Millisecond},
}

// Parts lists the known variants in declaration order.
func Parts() []Part {
	ps := make([]Part, 0, len(knownParts))
	for p := range knownParts {
		ps = append(ps, p)
	}
	slices.Sort(ps)
	return ps
}

// Profile returns the framing parameters of the part.
func (p Part) Profile() Profile {
	pr, ok := knownParts[p]
	if !ok {
		return Profile{}
	}
	return Profile{
		Name:        pr.name,
		AddressBits: pr.addressBits,
		CommandBits: pr.addressBits + commandOverhead,
		Words:       pr.words,
		WriteCycle:  pr.tWC,
	}
}

func (p Part) String() string {
	if pr, ok := knownParts[p]; ok {
		return pr.name
	}
	return fmt.Sprintf("Part(%d)", int(p))
}

// LookupPart resolves a part name such as "93c46" or "CAT35C102".
func LookupPart(name string) (Part, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for p, pr := range knownParts {
		if n == pr.name || "CAT"+n == pr.name {
			return p, true
		}
	}
	return 0, false
}

// maxWriteCycle is used for parts that are not in knownParts.
func maxWriteCycle() time.Duration {
	var tmax time.Duration
	for _, pr := range knownParts {
		tmax = max(tmax, pr.tWC)
	}
	return tmax
}
