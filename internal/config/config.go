// Package config loads mwprog settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/gentam/microwire"
)

// Transport names.
const (
	TransportSPI     = "ftdi-spi"
	TransportBitBang = "ftdi-bitbang"
	TransportSim     = "sim"
)

// Write cycle modes.
const (
	ModeFixed = "fixed"
	ModePoll  = "poll"
)

// Config is the on-disk configuration. Zero fields take the values of
// Default when loaded.
type Config struct {
	Part string `yaml:"part"`

	// AddressBits, if set, selects a generic profile and Part is ignored.
	AddressBits int `yaml:"address_bits,omitempty"`

	Transport   string     `yaml:"transport"`
	Clock       string     `yaml:"clock"`
	Pins        Pins       `yaml:"pins"`
	CSActiveLow bool       `yaml:"cs_active_low,omitempty"`
	WriteCycle  WriteCycle `yaml:"write_cycle"`

	// Trace, if set, appends bus events to this file.
	Trace string `yaml:"trace,omitempty"`

	Sim Sim `yaml:"sim,omitempty"`
}

// Pins names the adapter pins wired to each device line.
type Pins struct {
	CS string `yaml:"cs"`
	SK string `yaml:"sk"`
	DI string `yaml:"di"` // adapter output, device input
	DO string `yaml:"do"` // device output, adapter input
}

type WriteCycle struct {
	Mode     string        `yaml:"mode"`
	Delay    time.Duration `yaml:"delay,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
	Retries  int           `yaml:"retries,omitempty"`
}

// Sim configures the simulated device used by TransportSim.
type Sim struct {
	// Image is loaded into the device at start and saved back at exit.
	Image string `yaml:"image,omitempty"`
}

// Default matches the reference wiring: a CAT93C46 on an FT232H at
// 500 kHz with CS on D3 and a fixed 10 ms settle after each write.
func Default() Config {
	return Config{
		Part:      microwire.CAT93C46.String(),
		Transport: TransportSPI,
		Clock:     "500kHz",
		Pins: Pins{
			CS: "D3",
			SK: "D0",
			DI: "D1",
			DO: "D2",
		},
		WriteCycle: WriteCycle{
			Mode:  ModeFixed,
			Delay: microwire.DefaultSettle,
		},
	}
}

// LoadError describes a configuration that could not be loaded.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	s := e.Message
	if e.File != "" {
		s = e.File + ": " + s
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if err := c.Validate(); err != nil {
		return Config{}, &LoadError{Message: "invalid configuration", Cause: err}
	}
	return c, nil
}

// Load reads path. A missing file yields Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	c, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if _, err := c.Profile(); err != nil {
		return err
	}
	switch c.Transport {
	case TransportSPI, TransportBitBang, TransportSim:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if _, err := c.Frequency(); err != nil {
		return err
	}
	if c.Transport != TransportSim {
		if c.Pins.CS == "" {
			return errors.New("pins.cs is required")
		}
		if c.Transport == TransportBitBang && (c.Pins.SK == "" || c.Pins.DI == "" || c.Pins.DO == "") {
			return errors.New("bit-bang needs pins.sk, pins.di and pins.do")
		}
	}
	if _, err := c.Cycle(); err != nil {
		return err
	}
	return nil
}

// Profile resolves AddressBits or Part.
func (c Config) Profile() (microwire.Profile, error) {
	if c.AddressBits != 0 {
		return microwire.NewProfile(c.AddressBits)
	}
	part, ok := microwire.LookupPart(c.Part)
	if !ok {
		return microwire.Profile{}, fmt.Errorf("%w: unknown part %q", microwire.ErrProfile, c.Part)
	}
	return part.Profile(), nil
}

// Frequency parses Clock, for example "500kHz" or "1MHz".
func (c Config) Frequency() (physic.Frequency, error) {
	var f physic.Frequency
	if err := f.Set(c.Clock); err != nil {
		return 0, fmt.Errorf("clock %q: %w", c.Clock, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("clock %q must be positive", c.Clock)
	}
	return f, nil
}

// Cycle returns the write cycle policy.
func (c Config) Cycle() (microwire.WriteCycle, error) {
	wc := c.WriteCycle
	switch wc.Mode {
	case ModeFixed, "":
		if wc.Delay < 0 {
			return nil, fmt.Errorf("write_cycle.delay %s is negative", wc.Delay)
		}
		return microwire.FixedDelay{Delay: wc.Delay}, nil
	case ModePoll:
		p := microwire.DefaultBusyPoll
		if wc.Interval > 0 {
			p.Interval = wc.Interval
		}
		if wc.Retries > 0 {
			p.Retries = wc.Retries
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown write_cycle.mode %q", wc.Mode)
	}
}
