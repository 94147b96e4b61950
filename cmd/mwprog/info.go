package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gentam/microwire"
	"periph.io/x/host/v3/ftdi"
)

func infoCommand() {
	s := mustOpen()
	defer s.Close()

	p := s.eeprom.Profile()
	fmt.Printf("Part:            %s\n", p.Name)
	fmt.Printf("Address bits:    %d\n", p.AddressBits)
	fmt.Printf("Command bits:    %d\n", p.CommandBits)
	fmt.Printf("Words:           %d\n", p.Words)
	fmt.Printf("Write cycle:     %s\n", s.eeprom.WriteCycle())
	fmt.Printf("Transport:       %s\n", s.cfg.Transport)
	if s.busID != "" {
		fmt.Printf("Trace session:   %s\n", s.busID)
	}
	if s.dev == nil {
		return
	}

	// Reference: https://github.com/periph/cmd/tree/main/ftdi-list
	ft := s.dev.FTDI
	i := s.dev.Info()
	fmt.Printf("Type:            %s\n", i.Type)
	fmt.Printf("Vendor ID:       %#04x\n", i.VenID)
	fmt.Printf("Device ID:       %#04x\n", i.DevID)

	ee := ftdi.EEPROM{}
	if err := ft.EEPROM(&ee); err != nil {
		s.fatalf("failed to read adapter EEPROM: %v", err)
	}
	fmt.Printf("Manufacturer:    %s\n", ee.Manufacturer)
	fmt.Printf("Desc:            %s\n", ee.Desc)
	fmt.Printf("Serial:          %s\n", ee.Serial)

	for _, p := range ft.Header() {
		fmt.Printf("%s: %s\n", p, p.Function())
	}
}

func partsCommand() {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "PART\tADDRESS BITS\tWORDS\tWRITE CYCLE")
	for _, part := range microwire.Parts() {
		p := part.Profile()
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", p.Name, p.AddressBits, p.Words, p.WriteCycle)
	}
	w.Flush()
}
