// Package microwire drives 93Cxx-family serial EEPROMs over the three-wire
// microwire bus.
//
// A Codec turns the instruction set into Frames: bit-exact commands tagged
// with chip-select intent. A Transport moves Frames onto the wire; this
// package provides one over a periph SPI connection (SPITransport), one over
// plain GPIO (BitBangTransport) and Device, which opens either on an FTDI
// MPSSE adapter. EEPROM sequences complete word transactions (enable,
// command, address, data, write cycle, disable) on top of a Codec.
//
// All devices use the ×16 organisation. Data words cross the wire low byte
// first, each byte MSB first.
//
// # References:
//
// Catalyst / onsemi
//   - [CAT93C46]: 1 Kb Microwire Serial EEPROM (https://www.onsemi.com/pdf/datasheet/cat93c46-d.pdf)
//   - [CAT93C56]: 2 Kb Microwire Serial EEPROM (https://www.onsemi.com/pdf/datasheet/cat93c56-d.pdf)
//   - [CAT93C57]: 2 Kb Microwire Serial EEPROM (https://www.onsemi.com/pdf/datasheet/cat93c57-d.pdf)
//   - [CAT93C66]: 4 Kb Microwire Serial EEPROM (https://www.onsemi.com/pdf/datasheet/cat93c66-d.pdf)
//   - [CAT35C102]: 2 Kb Microwire Serial EEPROM
//
// FTDI (https://ftdichip.com/document/application-notes/)
//   - [FTDI-AN_108]: Command Processor for MPSSE and MCU Host Bus Emulation Modes (https://ftdichip.com/wp-content/uploads/2020/08/AN_108_Command_Processor_for_MPSSE_and_MCU_Host_Bus_Emulation_Modes.pdf)
//   - [FTDI-AN_114]: Interfacing FT2232H Hi-Speed Devices To SPI Bus (https://ftdichip.com/wp-content/uploads/2020/08/AN_114_FTDI_Hi_Speed_USB_To_SPI_Example.pdf)
//   - [FTDI-AN_135]: FTDI MPSSE Basics (https://ftdichip.com/wp-content/uploads/2020/08/AN_135_MPSSE_Basics.pdf)
//   - [FTDI-AN_178]: User Guide for LibMPSSE-SPI (https://ftdichip.com/wp-content/uploads/2020/08/AN_178_User-Guide-for-LibMPSSE-SPI.pdf)
package microwire
