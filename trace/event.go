package trace

import "time"

// Event is one transport operation.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID groups the events of one Transport (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Seq numbers events within a session, starting at 1.
	Seq uint64 `cbor:"3,keyasint"`

	Kind Kind `cbor:"4,keyasint"`

	// Data holds the bits written (KindWrite) or read (KindRead), MSB first.
	Data []byte `cbor:"5,keyasint,omitempty"`
	Bits int    `cbor:"6,keyasint,omitempty"`

	AssertCS   bool `cbor:"7,keyasint,omitempty"`
	DeassertCS bool `cbor:"8,keyasint,omitempty"`

	// Ready is the sampled DO level for KindReady.
	Ready bool `cbor:"9,keyasint,omitempty"`

	Err string `cbor:"10,keyasint,omitempty"`
}

// Kind classifies an Event.
type Kind uint8

const (
	KindWrite Kind = 0
	KindRead  Kind = 1
	KindReady Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "WRITE"
	case KindRead:
		return "READ"
	case KindReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// ParseKind is the inverse of Kind.String, case-sensitive.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindWrite, KindRead, KindReady} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
