package trace

import (
	"bytes"
	"sync/atomic"
	"time"

	"github.com/gentam/microwire"
	"github.com/google/uuid"
)

// Transport records every operation of the wrapped transport. It implements
// microwire.ReadyChecker only by forwarding; if the inner transport cannot
// poll, Ready returns microwire.ErrPollUnsupported.
type Transport struct {
	inner   microwire.Transport
	tracer  Tracer
	session string
	seq     atomic.Uint64
	now     func() time.Time
}

// NewTransport wraps inner. A nil tracer is treated as NoopTracer.
func NewTransport(inner microwire.Transport, tracer Tracer) *Transport {
	if tracer == nil {
		tracer = NoopTracer{}
	}
	return &Transport{
		inner:   inner,
		tracer:  tracer,
		session: uuid.NewString(),
		now:     time.Now,
	}
}

// SessionID identifies this transport's events.
func (t *Transport) SessionID() string { return t.session }

func (t *Transport) emit(ev Event, err error) {
	ev.Timestamp = t.now()
	ev.SessionID = t.session
	ev.Seq = t.seq.Add(1)
	if err != nil {
		ev.Err = err.Error()
	}
	t.tracer.Trace(ev)
}

func (t *Transport) Write(f microwire.Frame) error {
	err := t.inner.Write(f)
	t.emit(Event{
		Kind:       KindWrite,
		Data:       bytes.Clone(f.Data),
		Bits:       f.Bits(),
		AssertCS:   f.AssertCS,
		DeassertCS: f.DeassertCS,
	}, err)
	return err
}

func (t *Transport) Read(buf []byte, deassertCS bool) (int, error) {
	n, err := t.inner.Read(buf, deassertCS)
	t.emit(Event{
		Kind:       KindRead,
		Data:       bytes.Clone(buf[:n]),
		Bits:       n * 8,
		DeassertCS: deassertCS,
	}, err)
	return n, err
}

func (t *Transport) Ready() (bool, error) {
	rc, ok := t.inner.(microwire.ReadyChecker)
	if !ok {
		return false, microwire.ErrPollUnsupported
	}
	ready, err := rc.Ready()
	t.emit(Event{Kind: KindReady, Ready: ready}, err)
	return ready, err
}

var (
	_ microwire.Transport    = (*Transport)(nil)
	_ microwire.ReadyChecker = (*Transport)(nil)
)
