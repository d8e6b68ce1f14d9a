// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package neck

// Frame is one raw poll result from the neck sensor.
type Frame [2]byte

// Top returns the top fret bitmask byte.
func (f Frame) Top() byte { return f[0] }

// Pad returns the touch pad code byte.
func (f Frame) Pad() byte { return f[1] }

// DecodeTop returns the frets set in the byte 0 bitmask.
func DecodeTop(b0 byte) Frets {
	var s Frets
	for _, m := range topMasks {
		if b0&m.mask != 0 {
			s |= 1 << m.fret
		}
	}
	return s
}

// DecodePad looks up a touch pad code. ok is false for codes missing from the
// table, in which case no frets are returned.
func DecodePad(b1 byte) (frets Frets, ok bool) {
	frets, ok = padCodes[b1]
	return frets, ok
}

// Decode combines both payload bytes. The pad frets are layered on top of the
// top frets and never clear them. ok is false when b1 is not a known pad code.
func Decode(b0, b1 byte) (Frets, bool) {
	pad, ok := DecodePad(b1)
	return DecodeTop(b0) | pad, ok
}

// Decoder decodes frames and reports unknown pad codes through a hook so they
// can be logged and added to the table later.
type Decoder struct {
	// OnUnrecognized is called with the raw pad byte of every frame whose
	// code is not in the table. May be nil.
	OnUnrecognized func(code byte)
}

// Decode returns the frets pressed in frame.
func (d *Decoder) Decode(frame Frame) Frets {
	frets, ok := Decode(frame.Top(), frame.Pad())
	if !ok && d.OnUnrecognized != nil {
		d.OnUnrecognized(frame.Pad())
	}
	return frets
}
