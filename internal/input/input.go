// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package input merges neck frets, tilt and physical buttons into one button
// state vector and turns frame-to-frame changes into press/release events.
//
// Report indices are fixed:
//
//	0..4  neck frets (green, red, yellow, blue, orange)
//	5     tilt up
//	6     tilt down
//	7..   physical buttons in configured pin order
package input

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/guitar_controller/internal/neck"
)

// Fixed report indices.
const (
	IndexTiltUp   = neck.NumFrets
	IndexTiltDown = neck.NumFrets + 1
	FirstPhysical = neck.NumFrets + 2
)

// States is a button state vector; true means pressed.
type States []bool

// Equal reports whether both vectors have the same length and contents.
func (s States) Equal(o States) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Tilt holds the synthetic tilt buttons.
type Tilt struct {
	Up   bool
	Down bool
}

// TiltFromPitch thresholds a pitch change. Only a change strictly beyond the
// threshold counts.
func TiltFromPitch(delta, threshold float64) Tilt {
	return Tilt{
		Up:   delta > threshold,
		Down: delta < -threshold,
	}
}

// Event is a single button transition. Button is the 1-based HID button
// number.
type Event struct {
	Index   int  `json:"index"`
	Button  int  `json:"button"`
	Pressed bool `json:"pressed"`
}

func (e Event) String() string {
	if e.Pressed {
		return fmt.Sprintf("press %d", e.Button)
	}
	return fmt.Sprintf("release %d", e.Button)
}

// Aggregate fills dst with the combined state. Pins beyond the end of dst
// are ignored. A pin is pressed when it reads gpio.Low.
func Aggregate(dst States, frets neck.Frets, tilt Tilt, pins []gpio.Level) {
	for f := neck.Fret(0); f < neck.NumFrets; f++ {
		dst[f] = frets.Has(f)
	}
	dst[IndexTiltUp] = tilt.Up
	dst[IndexTiltDown] = tilt.Down
	for i, l := range pins {
		if FirstPhysical+i >= len(dst) {
			break
		}
		dst[FirstPhysical+i] = l == gpio.Low
	}
}

// Diff returns one event per index whose state differs, in index order.
func Diff(current, previous States) []Event {
	var events []Event
	for i := range current {
		if i < len(previous) && current[i] == previous[i] {
			continue
		}
		events = append(events, Event{Index: i, Button: i + 1, Pressed: current[i]})
	}
	return events
}

// Aggregator owns the current and previous state vectors. Both start with
// every button released and keep the length given to NewAggregator.
type Aggregator struct {
	current  States
	previous States
}

// NewAggregator returns an aggregator for a report with n buttons. n must
// leave room for the fixed neck and tilt indices.
func NewAggregator(n int) (*Aggregator, error) {
	if n < FirstPhysical {
		return nil, fmt.Errorf("input: %d buttons cannot hold the %d fixed indices", n, FirstPhysical)
	}
	return &Aggregator{
		current:  make(States, n),
		previous: make(States, n),
	}, nil
}

// Len is the number of buttons.
func (a *Aggregator) Len() int { return len(a.current) }

// Step recomputes the current vector and returns the edges against the
// previous one. The previous vector is left alone until Commit, so edges
// that never reached the host are reported again on the next step.
func (a *Aggregator) Step(frets neck.Frets, tilt Tilt, pins []gpio.Level) []Event {
	Aggregate(a.current, frets, tilt, pins)

	// Compare contents. The old firmware compared the addresses of the two
	// arrays, which always differ, so it sent a report every cycle.
	return Diff(a.current, a.previous)
}

// Commit advances the previous vector to the current one. Call it once the
// report carrying the last edges has been sent.
func (a *Aggregator) Commit() {
	copy(a.previous, a.current)
}

// Current returns a copy of the current vector.
func (a *Aggregator) Current() States {
	return append(States(nil), a.current...)
}

// Previous returns a copy of the last committed vector.
func (a *Aggregator) Previous() States {
	return append(States(nil), a.previous...)
}
