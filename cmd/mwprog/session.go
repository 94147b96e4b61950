package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gentam/microwire"
	"github.com/gentam/microwire/internal/config"
	"github.com/gentam/microwire/sim"
	"github.com/gentam/microwire/trace"
)

type globals struct {
	config    string
	part      string
	transport string
	trace     string
	verbose   bool
}

// session owns everything opened for one command.
type session struct {
	cfg    config.Config
	log    *slog.Logger
	eeprom *microwire.EEPROM

	dev    *microwire.Device // nil for the sim transport
	sim    *sim.Device
	tracer *trace.FileTracer
	busID  string
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(global.config)
	if err != nil {
		return cfg, err
	}
	if global.part != "" {
		cfg.Part = global.part
		cfg.AddressBits = 0
	}
	if global.transport != "" {
		cfg.Transport = global.transport
	}
	if global.trace != "" {
		cfg.Trace = global.trace
	}
	return cfg, cfg.Validate()
}

func newLogger(w *os.File) *slog.Logger {
	level := slog.LevelInfo
	if global.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	p, err := cfg.Profile()
	if err != nil {
		return nil, err
	}
	wc, err := cfg.Cycle()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, log: newLogger(os.Stderr)}

	t, err := s.openTransport(p)
	if err != nil {
		s.Close()
		return nil, err
	}

	var tracers []trace.Tracer
	if cfg.Trace != "" {
		if s.tracer, err = trace.NewFileTracer(cfg.Trace); err != nil {
			s.Close()
			return nil, fmt.Errorf("open trace: %w", err)
		}
		tracers = append(tracers, s.tracer)
	}
	if global.verbose {
		tracers = append(tracers, trace.NewSlogAdapter(s.log))
	}
	if len(tracers) > 0 {
		tt := trace.NewTransport(t, trace.NewMultiTracer(tracers...))
		s.busID = tt.SessionID()
		t = tt
	}

	s.eeprom, err = microwire.New(t, p,
		microwire.WithWriteCycle(wc),
		microwire.WithLogger(s.log),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.log.Debug("session open", "part", p, "transport", cfg.Transport, "write_cycle", wc, "trace_session", s.busID)
	return s, nil
}

func (s *session) openTransport(p microwire.Profile) (microwire.Transport, error) {
	cfg := s.cfg
	if cfg.Transport == config.TransportSim {
		d := sim.New(p)
		if cfg.Sim.Image != "" {
			f, err := os.Open(cfg.Sim.Image)
			switch {
			case errors.Is(err, os.ErrNotExist):
			case err != nil:
				return nil, err
			default:
				err = d.Load(f)
				f.Close()
				if err != nil {
					return nil, fmt.Errorf("load sim image: %w", err)
				}
			}
		}
		// only set once loaded, Close saves s.sim back over the image
		s.sim = d
		return sim.NewTransport(d), nil
	}

	clock, err := cfg.Frequency()
	if err != nil {
		return nil, err
	}
	if s.dev, err = microwire.NewDevice(clock); err != nil {
		return nil, err
	}
	pins := cfg.Pins
	if cfg.Transport == config.TransportBitBang {
		return s.dev.OpenBitBang(pins.CS, pins.SK, pins.DI, pins.DO, cfg.CSActiveLow)
	}
	do := ""
	if cfg.WriteCycle.Mode == config.ModePoll {
		do = pins.DO
	}
	return s.dev.OpenSPI(pins.CS, do, cfg.CSActiveLow)
}

// Close saves the sim image and releases the adapter.
func (s *session) Close() {
	if s.sim != nil && s.cfg.Sim.Image != "" {
		if err := s.saveSim(); err != nil {
			s.log.Error("save sim image", "err", err)
		}
	}
	if s.tracer != nil {
		s.tracer.Close()
	}
	if s.dev != nil {
		if err := s.dev.Close(); err != nil {
			s.log.Error("close adapter", "err", err)
		}
	}
}

func (s *session) saveSim() error {
	f, err := os.Create(s.cfg.Sim.Image)
	if err != nil {
		return err
	}
	if err := s.sim.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func mustOpen() *session {
	s, err := openSession()
	if err != nil {
		fatalf("%v", err)
	}
	return s
}

// fatalf closes the session before exiting so the sim image and trace are
// flushed.
func (s *session) fatalf(format string, a ...any) {
	s.Close()
	fatalf(format, a...)
}
