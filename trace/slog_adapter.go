package trace

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (a *SlogAdapter) Trace(ev Event) {
	attrs := []slog.Attr{
		slog.String("session", ev.SessionID),
		slog.Uint64("seq", ev.Seq),
		slog.String("kind", ev.Kind.String()),
	}
	switch ev.Kind {
	case KindWrite, KindRead:
		attrs = append(attrs,
			slog.String("data", hex.EncodeToString(ev.Data)),
			slog.Int("bits", ev.Bits),
		)
		if ev.AssertCS {
			attrs = append(attrs, slog.Bool("assert_cs", true))
		}
		if ev.DeassertCS {
			attrs = append(attrs, slog.Bool("deassert_cs", true))
		}
	case KindReady:
		attrs = append(attrs, slog.Bool("ready", ev.Ready))
	}
	if ev.Err != "" {
		attrs = append(attrs, slog.String("error", ev.Err))
	}
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "bus", attrs...)
}

var _ Tracer = (*SlogAdapter)(nil)
