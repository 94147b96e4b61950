package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/gentam/microwire"
)

const shellHelp = `Commands:
  read <addr> [n]          read n words (default 1)
  write <addr> <word>...   write consecutive words
  erase <addr>|all         erase one word or the whole device
  fill <word>              write every word (WRAL)
  pattern [n] [offset]     write the offset pattern and verify
  dump                     read the whole device
  profile                  show the device profile
  help                     show this help
  exit                     leave the shell
`

// shell is an interactive session on one device.
type shell struct {
	s  *session
	rl *readline.Instance
}

func shellCommand(ctx context.Context) {
	s := mustOpen()
	defer s.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "mwprog> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("read"),
			readline.PcItem("write"),
			readline.PcItem("erase", readline.PcItem("all")),
			readline.PcItem("fill"),
			readline.PcItem("pattern"),
			readline.PcItem("dump"),
			readline.PcItem("profile"),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		s.fatalf("failed to create readline: %v", err)
	}
	sh := &shell{s: s, rl: rl}
	sh.run(ctx)
}

func (sh *shell) run(ctx context.Context) {
	defer sh.rl.Close()
	out := sh.rl.Stdout()
	fmt.Fprintf(out, "%s on %s. Type 'help' for commands.\n", sh.s.eeprom.Profile(), sh.s.cfg.Transport)

	for {
		if ctx.Err() != nil {
			return
		}
		line, err := sh.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			return
		}
		if err := sh.exec(ctx, out, fields[0], fields[1:]); err != nil {
			fmt.Fprintln(sh.rl.Stderr(), "error:", err)
		}
	}
}

func (sh *shell) exec(ctx context.Context, out io.Writer, cmd string, args []string) error {
	e := sh.s.eeprom
	switch cmd {
	case "help":
		fmt.Fprint(out, shellHelp)

	case "profile":
		p := e.Profile()
		fmt.Fprintf(out, "%s: %d address bits, %d command bits, %d words, %s\n",
			p.Name, p.AddressBits, p.CommandBits, p.Words, e.WriteCycle())

	case "read":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: read <addr> [n]")
		}
		addr, err := parseWord(args[0])
		if err != nil {
			return err
		}
		n := uint16(1)
		if len(args) == 2 {
			if n, err = parseWord(args[1]); err != nil {
				return err
			}
		}
		words, err := e.Read(ctx, addr, int(n))
		if err != nil {
			return err
		}
		dumpWords(out, addr, words)

	case "write":
		if len(args) < 2 {
			return errors.New("usage: write <addr> <word>...")
		}
		addr, err := parseWord(args[0])
		if err != nil {
			return err
		}
		words := make([]uint16, len(args)-1)
		for i, a := range args[1:] {
			if words[i], err = parseWord(a); err != nil {
				return err
			}
		}
		return e.Write(ctx, addr, words)

	case "erase":
		if len(args) != 1 {
			return errors.New("usage: erase <addr>|all")
		}
		if args[0] == "all" {
			return e.EraseAll()
		}
		addr, err := parseWord(args[0])
		if err != nil {
			return err
		}
		return e.EraseWord(addr)

	case "fill":
		if len(args) != 1 {
			return errors.New("usage: fill <word>")
		}
		w, err := parseWord(args[0])
		if err != nil {
			return err
		}
		return e.WriteAll(w)

	case "pattern":
		n, offset := uint16(defaultPatternWords), uint16(defaultPatternOffset)
		var err error
		if len(args) > 0 {
			if n, err = parseWord(args[0]); err != nil {
				return err
			}
		}
		if len(args) > 1 {
			if offset, err = parseWord(args[1]); err != nil {
				return err
			}
		}
		words := microwire.OffsetPattern(int(n), offset)
		if err := e.Write(ctx, 0, words); err != nil {
			return err
		}
		if err := e.Verify(ctx, 0, words); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote and verified %d words\n", n)

	case "dump":
		words, err := e.Dump(ctx)
		if err != nil {
			return err
		}
		dumpWords(out, 0, words)

	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return nil
}
