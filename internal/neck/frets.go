// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package neck decodes the guitar neck touch sensor payload into fret buttons.
//
// The sensor answers every poll with two bytes. Byte 0 is a bitmask of the
// top fret buttons, byte 1 is an opaque code for the capacitive touch pad.
// Both contribute to the same five frets and are combined with a logical OR.
package neck

import "strings"

// Fret is one of the five colored neck buttons.
type Fret uint8

const (
	Green Fret = iota
	Red
	Yellow
	Blue
	Orange
)

// NumFrets is the number of neck buttons.
const NumFrets = 5

var fretNames = [NumFrets]string{"green", "red", "yellow", "blue", "orange"}

func (f Fret) String() string {
	if int(f) < NumFrets {
		return fretNames[f]
	}
	return "unknown"
}

// Frets is a set of pressed frets, one bit per Fret.
type Frets uint8

// None is the empty fret set.
const None Frets = 0

// All has every fret pressed.
const All Frets = 1<<NumFrets - 1

// FretsOf builds a set from individual frets.
func FretsOf(frets ...Fret) Frets {
	var s Frets
	for _, f := range frets {
		s |= 1 << f
	}
	return s
}

// Has reports whether f is pressed.
func (s Frets) Has(f Fret) bool {
	return s&(1<<f) != 0
}

// Count returns the number of pressed frets.
func (s Frets) Count() int {
	n := 0
	for f := Fret(0); f < NumFrets; f++ {
		if s.Has(f) {
			n++
		}
	}
	return n
}

// Slice returns the pressed state of every fret in color order.
func (s Frets) Slice() [NumFrets]bool {
	var out [NumFrets]bool
	for f := Fret(0); f < NumFrets; f++ {
		out[f] = s.Has(f)
	}
	return out
}

func (s Frets) String() string {
	if s == None {
		return "none"
	}
	names := make([]string, 0, NumFrets)
	for f := Fret(0); f < NumFrets; f++ {
		if s.Has(f) {
			names = append(names, f.String())
		}
	}
	return strings.Join(names, "+")
}
