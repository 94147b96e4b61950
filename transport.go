package microwire

import (
	"errors"
	"fmt"
)

// Unit selects how Frame.Len is counted.
type Unit uint8

const (
	Bits Unit = iota
	Bytes
)

func (u Unit) String() string {
	switch u {
	case Bits:
		return "bits"
	case Bytes:
		return "bytes"
	default:
		return fmt.Sprintf("Unit(%d)", uint8(u))
	}
}

// Frame is one transport write: Data is shifted out MSB first, Len counts
// Bits or Bytes. AssertCS selects the device before the first clock and
// DeassertCS releases it after the last one. A Frame is built for a single
// call and must not be retained by the transport.
type Frame struct {
	Data       []byte
	Len        int
	Unit       Unit
	AssertCS   bool
	DeassertCS bool
}

// Bits returns the number of clocks the frame occupies on the wire.
func (f Frame) Bits() int {
	if f.Unit == Bytes {
		return f.Len * 8
	}
	return f.Len
}

// Transport moves frames over an already opened and configured channel.
//
// Read assumes chip-select was asserted by a previous Write of the same
// transaction; it clocks len(buf) bytes in and optionally releases CS.
type Transport interface {
	Write(f Frame) error
	Read(buf []byte, deassertCS bool) (int, error)
}

// ReadyChecker is implemented by transports that can sample the device's DO
// line while chip-select is held. It is required by BusyPoll.
type ReadyChecker interface {
	Ready() (bool, error)
}

// Status is the result code of a transport call, modelled after the FTDI
// D2XX FT_STATUS values.
type Status uint8

const (
	StatusOK Status = iota
	StatusInvalidHandle
	StatusDeviceNotFound
	StatusDeviceNotOpened
	StatusIOError
	StatusInsufficientResources
	StatusInvalidParameter
	StatusTimeout
	StatusOtherError
)

var statusNames = [...]string{
	StatusOK:                    "ok",
	StatusInvalidHandle:         "invalid handle",
	StatusDeviceNotFound:        "device not found",
	StatusDeviceNotOpened:       "device not opened",
	StatusIOError:               "I/O error",
	StatusInsufficientResources: "insufficient resources",
	StatusInvalidParameter:      "invalid parameter",
	StatusTimeout:               "timeout",
	StatusOtherError:            "other error",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Error implements error so that a Status can be returned directly by a
// Transport. StatusOK should never be returned as an error.
func (s Status) Error() string {
	return "microwire: " + s.String()
}

// StatusOf maps err to a Status. nil is StatusOK and errors that do not wrap
// a Status are StatusOtherError.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusOtherError
}
