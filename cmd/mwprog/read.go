package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gentam/microwire"
)

func readCommand(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	var (
		start   wordFlag
		n       int
		outFile string
	)
	fs.Var(&start, "start", "first word address")
	fs.IntVar(&n, "n", 0, "number of words to read (default: to the end)")
	fs.StringVar(&outFile, "o", "", "output file, little-endian image (default: hexdump)")
	fs.Parse(args)

	s := mustOpen()
	defer s.Close()

	if n == 0 {
		n = s.eeprom.Profile().Words - int(start)
	}
	words, err := s.eeprom.Read(ctx, uint16(start), n)
	if err != nil {
		s.fatalf("read failed: %v", err)
	}
	if outFile == "" {
		dumpWords(os.Stdout, uint16(start), words)
		return
	}
	if err := saveImage(outFile, words); err != nil {
		s.fatalf("write file failed: %v", err)
	}
}

// saveImage writes words as a little-endian image file.
func saveImage(path string, words []uint16) error {
	return os.WriteFile(path, microwire.EncodeImage(words), 0644)
}

// dumpWords prints eight words per line, prefixed with the word address.
func dumpWords(w io.Writer, start uint16, words []uint16) {
	for i := 0; i < len(words); i += 8 {
		fmt.Fprintf(w, "%04x:", int(start)+i)
		for _, v := range words[i:min(i+8, len(words))] {
			fmt.Fprintf(w, " %04x", v)
		}
		fmt.Fprintln(w)
	}
}
