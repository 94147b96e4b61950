package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/gentam/microwire/trace"
)

func traceCommand(args []string) {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	var (
		filter trace.Filter
		kind   string
	)
	fs.StringVar(&filter.SessionID, "session", "", "only events of this session")
	fs.StringVar(&kind, "kind", "", "only events of this kind (WRITE, READ, READY)")
	fs.BoolVar(&filter.ErrorsOnly, "errors", false, "only failed operations")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fatalUsage("usage: mwprog trace [flags] <file>")
	}
	if kind != "" {
		k, ok := trace.ParseKind(kind)
		if !ok {
			fatalUsage("trace: unknown kind %q", kind)
		}
		filter.Kind = &k
	}

	r, err := trace.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		fatalf("%v", err)
	}
	defer r.Close()

	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(formatEvent(ev))
	}
}

func formatEvent(ev trace.Event) string {
	s := fmt.Sprintf("%s %s #%d %-5s", ev.Timestamp.Format("15:04:05.000000"), ev.SessionID[:min(8, len(ev.SessionID))], ev.Seq, ev.Kind)
	switch ev.Kind {
	case trace.KindWrite, trace.KindRead:
		cs := ""
		if ev.AssertCS {
			cs += " cs+"
		}
		if ev.DeassertCS {
			cs += " cs-"
		}
		s += fmt.Sprintf(" %2d bits %s%s", ev.Bits, hex.EncodeToString(ev.Data), cs)
	case trace.KindReady:
		s += fmt.Sprintf(" ready=%t", ev.Ready)
	}
	if ev.Err != "" {
		s += " error: " + ev.Err
	}
	return s
}
