// Command mwprog reads and programs 93Cxx microwire EEPROMs through an FTDI
// MPSSE adapter, or against a simulated part.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
)

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func fatalUsage(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(2)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
	mwprog [flags] <command> [arguments]

Commands:
	info	 print adapter and device profile
	parts	 list known parts
	read	 read words
	write	 write words from a file or a pattern
	verify	 compare the device with a file
	erase	 erase one word or the whole device
	shell	 interactive session
	trace	 print a bus trace file

Flags:
`)
	flag.PrintDefaults()
	os.Exit(2)
}

var global globals

func main() {
	flag.Usage = usage
	flag.StringVar(&global.config, "config", "mwprog.yaml", "configuration file")
	flag.StringVar(&global.part, "part", "", "override part (e.g. 93C46)")
	flag.StringVar(&global.transport, "transport", "", "override transport (ftdi-spi, ftdi-bitbang, sim)")
	flag.StringVar(&global.trace, "trace", "", "append bus events to this file")
	flag.BoolVar(&global.verbose, "v", false, "verbose logging")
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := flag.Args()[1:]
	switch cmd := flag.Arg(0); cmd {
	case "info":
		infoCommand()
	case "parts":
		partsCommand()
	case "read":
		readCommand(ctx, args)
	case "write":
		writeCommand(ctx, args)
	case "verify":
		verifyCommand(ctx, args)
	case "erase":
		eraseCommand(args)
	case "shell":
		shellCommand(ctx)
	case "trace":
		traceCommand(args)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", cmd)
		usage()
	}
}

// parseWord accepts decimal, 0x hex, 0o octal and 0b binary.
func parseWord(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid word %q", s)
	}
	return uint16(v), nil
}

// wordFlag is a flag.Value for a 16-bit number in any base.
type wordFlag uint16

func (w *wordFlag) String() string { return fmt.Sprintf("%#x", uint16(*w)) }

func (w *wordFlag) Set(s string) error {
	v, err := parseWord(s)
	if err != nil {
		return err
	}
	*w = wordFlag(v)
	return nil
}
