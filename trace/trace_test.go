package trace

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gentam/microwire"
	"github.com/gentam/microwire/sim"
)

// memTracer records events for testing.
type memTracer struct {
	mu     sync.Mutex
	events []Event
}

func (m *memTracer) Trace(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// writeOnly hides the Ready method of a transport.
type writeOnly struct{ microwire.Transport }

func TestEventRoundTrip(t *testing.T) {
	ev := Event{
		Timestamp:  time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC),
		SessionID:  "s1",
		Seq:        7,
		Kind:       KindWrite,
		Data:       []byte{0x9F, 0xFF},
		Bits:       9,
		AssertCS:   true,
		DeassertCS: true,
	}
	b, err := EncodeEvent(ev)
	require.NoError(t, err)

	got, err := DecodeEvent(b)
	require.NoError(t, err)
	assert.True(t, ev.Timestamp.Equal(got.Timestamp))
	got.Timestamp = ev.Timestamp
	assert.Equal(t, ev, got)
}

func TestTransportRecordsWordWrite(t *testing.T) {
	p := microwire.CAT93C46.Profile()
	rec := &memTracer{}
	// zero programming time: the fast path of BusyPoll always succeeds
	tt := NewTransport(sim.NewTransport(sim.New(p, sim.WithWriteCycle(0))), rec)
	_, err := uuid.Parse(tt.SessionID())
	require.NoError(t, err)

	e, err := microwire.New(tt, p, microwire.WithWriteCycle(microwire.DefaultBusyPoll))
	require.NoError(t, err)
	require.NoError(t, e.WriteWord(0, 0x00D0))

	// ewen, opcode, address, data, strobe, ready, release, ewds
	require.Len(t, rec.events, 8)
	for i, ev := range rec.events {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, tt.SessionID(), ev.SessionID)
		assert.Empty(t, ev.Err)
	}
	assert.Equal(t, []byte{0x9F, 0xFF}, rec.events[0].Data)
	assert.Equal(t, 9, rec.events[0].Bits)
	assert.Equal(t, []byte{0xD0, 0x00}, rec.events[3].Data)
	assert.Equal(t, 16, rec.events[3].Bits)
	assert.Equal(t, KindReady, rec.events[5].Kind)
}

func TestTransportRecordsReadAndErrors(t *testing.T) {
	p := microwire.CAT93C46.Profile()
	d := sim.New(p)
	d.SetWord(2, 0xD000)
	rec := &memTracer{}
	tt := NewTransport(sim.NewTransport(d), rec)

	e, err := microwire.New(tt, p)
	require.NoError(t, err)
	w, err := e.ReadWord(2)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x00D0), w)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, KindRead, last.Kind)
	assert.Equal(t, []byte{0xD0, 0x00}, last.Data)
	assert.True(t, last.DeassertCS)

	// reading without CS fails in the sim and the error is captured
	_, err = tt.Read(make([]byte, 2), true)
	require.Error(t, err)
	assert.NotEmpty(t, rec.events[len(rec.events)-1].Err)
}

func TestTransportReadyUnsupported(t *testing.T) {
	inner := writeOnly{sim.NewTransport(sim.New(microwire.CAT93C46.Profile()))}
	tt := NewTransport(inner, nil)
	_, err := tt.Ready()
	assert.ErrorIs(t, err, microwire.ErrPollUnsupported)
}

func TestFileTracerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.mwtrace")
	ft, err := NewFileTracer(path)
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, SessionID: "a", Seq: 1, Kind: KindWrite, Data: []byte{0x80}, Bits: 3, AssertCS: true},
		{Timestamp: base.Add(time.Millisecond), SessionID: "a", Seq: 2, Kind: KindReady, Ready: true},
		{Timestamp: base.Add(2 * time.Millisecond), SessionID: "b", Seq: 1, Kind: KindRead, Data: []byte{1, 2}, Bits: 16, Err: "boom"},
	}
	for _, ev := range events {
		ft.Trace(ev)
	}
	require.NoError(t, ft.Close())
	require.NoError(t, ft.Close())
	ft.Trace(events[0]) // ignored after close

	all := readAll(t, path, Filter{})
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[2].SessionID)
	assert.Equal(t, []byte{1, 2}, all[2].Data)

	ready := KindReady
	assert.Len(t, readAll(t, path, Filter{Kind: &ready}), 1)
	assert.Len(t, readAll(t, path, Filter{SessionID: "a"}), 2)
	assert.Len(t, readAll(t, path, Filter{ErrorsOnly: true}), 1)

	end := base.Add(time.Millisecond)
	assert.Len(t, readAll(t, path, Filter{TimeEnd: &end}), 1)
	assert.Len(t, readAll(t, path, Filter{TimeStart: &end}), 2)
}

func readAll(t *testing.T, path string, f Filter) []Event {
	t.Helper()
	r, err := NewFilteredReader(path, f)
	require.NoError(t, err)
	defer r.Close()

	var out []Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func TestStreamReader(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode(Event{Seq: 1, Kind: KindRead}))
	require.NoError(t, enc.Encode(Event{Seq: 2, Kind: KindWrite}))

	write := KindWrite
	r := NewStreamReader(&buf, Filter{Kind: &write})
	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), ev.Seq)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, r.Close())
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	NewSlogAdapter(logger).Trace(Event{SessionID: "s", Seq: 3, Kind: KindWrite, Data: []byte{0xA0}, Bits: 3, AssertCS: true})

	out := buf.String()
	assert.Contains(t, out, "msg=bus")
	assert.Contains(t, out, "kind=WRITE")
	assert.Contains(t, out, "data=a0")
	assert.Contains(t, out, "assert_cs=true")
	assert.NotContains(t, out, "deassert_cs")
}

func TestMultiTracer(t *testing.T) {
	a, b := &memTracer{}, &memTracer{}
	m := NewMultiTracer(a, b, NoopTracer{})
	m.Trace(Event{Seq: 1})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("READY")
	assert.True(t, ok)
	assert.Equal(t, KindReady, k)
	_, ok = ParseKind("ready")
	assert.False(t, ok)
	assert.Equal(t, "UNKNOWN", Kind(9).String())
}
