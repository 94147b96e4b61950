// Package trace captures microwire bus traffic below the EEPROM sequencer.
//
// Every Frame written, every read and every ready poll can be recorded as an
// Event. Events are CBOR encoded with integer keys so that long sessions stay
// small on disk, and a Reader streams them back with optional filtering.
//
// Wrap any microwire.Transport with NewTransport to start recording:
//
//	ft, _ := trace.NewFileTracer("session.mwtrace")
//	defer ft.Close()
//	t := trace.NewTransport(spiTransport, ft)
//	e, _ := microwire.New(t, profile)
//
// Tracers must be safe for concurrent use. NoopTracer discards everything.
package trace
