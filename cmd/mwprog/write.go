package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gentam/microwire"
)

// The reference test pattern: 64 words, each holding its address plus 0xD0.
const (
	defaultPatternWords  = 64
	defaultPatternOffset = 0xD0
)

func writeCommand(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("write", flag.ExitOnError)
	var (
		start   wordFlag
		inFile  string
		pattern bool
		n       int
		fill    wordFlag
		verify  bool
	)
	offset := wordFlag(defaultPatternOffset)
	fs.Var(&start, "start", "first word address")
	fs.StringVar(&inFile, "f", "", "little-endian image file to write")
	fs.BoolVar(&pattern, "pattern", false, "write the offset pattern instead of a file")
	fs.IntVar(&n, "n", defaultPatternWords, "number of pattern words")
	fs.Var(&offset, "offset", "pattern offset: word i holds i+offset")
	fs.Var(&fill, "fill", "write this word to every address (WRAL)")
	fs.BoolVar(&verify, "verify", true, "read back and compare")
	fs.Parse(args)
	doFill := isSet(fs, "fill")

	sources := 0
	for _, b := range []bool{inFile != "", pattern, doFill} {
		if b {
			sources++
		}
	}
	if sources != 1 {
		fatalUsage("write: exactly one of -f, -pattern or -fill is required")
	}

	s := mustOpen()
	defer s.Close()
	e := s.eeprom

	if doFill {
		if err := e.WriteAll(uint16(fill)); err != nil {
			s.fatalf("write all failed: %v", err)
		}
		if verify {
			want := make([]uint16, e.Profile().Words)
			for i := range want {
				want[i] = uint16(fill)
			}
			if err := e.Verify(ctx, 0, want); err != nil {
				s.fatalf("%v", err)
			}
		}
		fmt.Printf("filled %d words with %#04x\n", e.Profile().Words, uint16(fill))
		return
	}

	var words []uint16
	if pattern {
		words = microwire.OffsetPattern(n, uint16(offset))
	} else {
		f, err := os.Open(inFile)
		if err != nil {
			s.fatalf("%v", err)
		}
		words, err = microwire.ReadImage(f, e.Profile().Words-int(start))
		f.Close()
		if err != nil {
			s.fatalf("read %s: %v", inFile, err)
		}
	}

	if err := e.Write(ctx, uint16(start), words); err != nil {
		s.fatalf("write failed: %v", err)
	}
	if verify {
		if err := e.Verify(ctx, uint16(start), words); err != nil {
			s.fatalf("%v", err)
		}
	}
	fmt.Printf("wrote %d words at %#04x\n", len(words), uint16(start))
}

func verifyCommand(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var (
		start  wordFlag
		inFile string
	)
	fs.Var(&start, "start", "first word address")
	fs.StringVar(&inFile, "f", "", "little-endian image file to compare with")
	fs.Parse(args)
	if inFile == "" {
		fatalUsage("verify: -f is required")
	}

	s := mustOpen()
	defer s.Close()

	f, err := os.Open(inFile)
	if err != nil {
		s.fatalf("%v", err)
	}
	words, err := microwire.ReadImage(f, s.eeprom.Profile().Words-int(start))
	f.Close()
	if err != nil {
		s.fatalf("read %s: %v", inFile, err)
	}
	if err := s.eeprom.Verify(ctx, uint16(start), words); err != nil {
		s.fatalf("%v", err)
	}
	fmt.Printf("verified %d words\n", len(words))
}

func eraseCommand(args []string) {
	fs := flag.NewFlagSet("erase", flag.ExitOnError)
	var (
		all  bool
		addr wordFlag
	)
	fs.BoolVar(&all, "all", false, "erase the whole device (ERAL)")
	fs.Var(&addr, "addr", "word to erase")
	fs.Parse(args)
	if !all && !isSet(fs, "addr") {
		fatalUsage("erase: -addr or -all is required")
	}

	s := mustOpen()
	defer s.Close()

	if all {
		if err := s.eeprom.EraseAll(); err != nil {
			s.fatalf("erase all failed: %v", err)
		}
		return
	}
	if err := s.eeprom.EraseWord(uint16(addr)); err != nil {
		s.fatalf("erase failed: %v", err)
	}
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
