package trace

// Tracer receives transport events. Implementations must be safe for
// concurrent use and should not block.
type Tracer interface {
	Trace(ev Event)
}

// NoopTracer discards all events. It is usable as a zero value.
type NoopTracer struct{}

func (NoopTracer) Trace(Event) {}

var _ Tracer = NoopTracer{}

// MultiTracer fans events out to several tracers.
type MultiTracer struct {
	tracers []Tracer
}

func NewMultiTracer(tracers ...Tracer) *MultiTracer {
	return &MultiTracer{tracers: tracers}
}

func (m *MultiTracer) Trace(ev Event) {
	for _, t := range m.tracers {
		t.Trace(ev)
	}
}

var _ Tracer = (*MultiTracer)(nil)
