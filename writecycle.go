package microwire

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPollUnsupported is returned when BusyPoll is selected for a
	// transport that cannot sample DO. New catches transports without a
	// Ready method; others report it from Ready on the first write.
	ErrPollUnsupported = errors.New("microwire: transport cannot poll ready status")
	// ErrWriteTimeout is returned when BusyPoll runs out of retries.
	ErrWriteTimeout = errors.New("microwire: device still busy after write")
)

// DefaultSettle is the fixed write settle time, the slowest tEW in the Part
// table.
const DefaultSettle = 10 * time.Millisecond

// WriteCycle decides how the sequencer waits for a self-timed programming
// cycle. It runs while CS is strobed high. The set of policies is closed:
// FixedDelay or BusyPoll.
type WriteCycle interface {
	// wait returns how much of the profile's write cycle may still be
	// running when it gives up or finishes early.
	wait(e *EEPROM) (time.Duration, error)
	String() string
}

// unfinished is the part of the write cycle not yet covered by waited.
func (e *EEPROM) unfinished(waited time.Duration) time.Duration {
	return max(e.c.p.WriteCycle-waited, 0)
}

// FixedDelay sleeps for Delay, or DefaultSettle when Delay is zero. A Delay
// shorter than the profile's write cycle is made up before EWDS.
type FixedDelay struct {
	Delay time.Duration
}

func (d FixedDelay) delay() time.Duration {
	if d.Delay <= 0 {
		return DefaultSettle
	}
	return d.Delay
}

func (d FixedDelay) wait(e *EEPROM) (time.Duration, error) {
	e.sleep(d.delay())
	return e.unfinished(d.delay()), nil
}

func (d FixedDelay) String() string {
	return fmt.Sprintf("fixed %s", d.delay())
}

// BusyPoll samples the DO line up to Retries times, Interval apart, and
// fails with ErrWriteTimeout if the device never reports ready.
type BusyPoll struct {
	Interval time.Duration
	Retries  int
}

// DefaultBusyPoll bounds the wait to about the slowest tEW.
var DefaultBusyPoll = BusyPoll{Interval: 2 * time.Millisecond, Retries: 5}

// A ready device needs no further wait. On failure the unpolled part of
// the write cycle is reported as remaining.
func (b BusyPoll) wait(e *EEPROM) (time.Duration, error) {
	rc, ok := e.c.t.(ReadyChecker)
	if !ok {
		return e.unfinished(0), ErrPollUnsupported
	}

	// Fast path
	if ready, err := rc.Ready(); err != nil {
		return e.unfinished(0), err
	} else if ready {
		return 0, nil
	}

	var waited time.Duration
	for retry := range b.Retries {
		e.sleep(b.Interval)
		waited += b.Interval
		ready, err := rc.Ready()
		if err != nil {
			return e.unfinished(waited), err
		}
		if ready {
			return 0, nil
		}
		e.log.Debug("device busy", "retry", retry+1)
	}
	return e.unfinished(waited), ErrWriteTimeout
}

func (b BusyPoll) String() string {
	return fmt.Sprintf("poll %s x%d", b.Interval, b.Retries)
}
