// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package neck

// Top fret masks in byte 0 of the payload.
const (
	maskGreen  = 0x10
	maskRed    = 0x20
	maskYellow = 0x80
	maskBlue   = 0x40
	maskOrange = 0x01
)

var topMasks = [NumFrets]struct {
	fret Fret
	mask byte
}{
	{Green, maskGreen},
	{Red, maskRed},
	{Yellow, maskYellow},
	{Blue, maskBlue},
	{Orange, maskOrange},
}

// padCodes maps the touch pad byte to the frets it stands for. The pad reports
// a longer frame on the real guitar, but its first byte is already unique for
// every combination of touches.
var padCodes = map[byte]Frets{
	0x00: None,

	0x95: FretsOf(Green),
	0xCD: FretsOf(Red),
	0x1A: FretsOf(Yellow),
	0x49: FretsOf(Blue),
	0x7F: FretsOf(Orange),

	0xB0: FretsOf(Green, Red),
	0x19: FretsOf(Green, Yellow),
	0x47: FretsOf(Green, Blue),
	0x7B: FretsOf(Green, Orange),
	0xE6: FretsOf(Red, Yellow),
	0x48: FretsOf(Red, Blue),
	0x7D: FretsOf(Red, Orange),
	0x2F: FretsOf(Yellow, Blue),
	0x7E: FretsOf(Yellow, Orange),
	0x66: FretsOf(Blue, Orange),

	0x65: FretsOf(Yellow, Blue, Orange),
	0x64: FretsOf(Red, Blue, Orange),
	0x7C: FretsOf(Red, Yellow, Orange),
	0x2E: FretsOf(Red, Yellow, Blue),
	0x62: FretsOf(Green, Blue, Orange),
	0x7A: FretsOf(Green, Yellow, Orange),
	0x2D: FretsOf(Green, Yellow, Blue),
	0x79: FretsOf(Green, Red, Orange),
	0x46: FretsOf(Green, Red, Blue),
	0xE5: FretsOf(Green, Red, Yellow),

	0x63: FretsOf(Red, Yellow, Blue, Orange),
	0x61: FretsOf(Green, Yellow, Blue, Orange),
	0x60: FretsOf(Green, Red, Blue, Orange),
	0x78: FretsOf(Green, Red, Yellow, Orange),
	0x2C: FretsOf(Green, Red, Yellow, Blue),

	0x5F: All,
}

// Table returns a copy of the touch pad code table.
func Table() map[byte]Frets {
	out := make(map[byte]Frets, len(padCodes))
	for code, frets := range padCodes {
		out[code] = frets
	}
	return out
}
