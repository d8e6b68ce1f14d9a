// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Buttons reads the discrete fret/strum buttons. They are wired to ground
// with pull-ups, so a pressed button reads gpio.Low.
type Buttons struct {
	pins []gpio.PinIn
}

// NewButtons wraps already configured input pins.
func NewButtons(pins ...gpio.PinIn) *Buttons {
	return &Buttons{pins: pins}
}

// OpenButtons looks up the named pins and configures them as pulled-up
// inputs, in the given order.
func OpenButtons(names []string) (*Buttons, error) {
	pins := make([]gpio.PinIn, 0, len(names))
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("button pin %q not found", name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("button pin %q: %w", name, err)
		}
		pins = append(pins, p)
	}
	return NewButtons(pins...), nil
}

// Read returns the level of every pin in configured order.
func (b *Buttons) Read() []gpio.Level {
	levels := make([]gpio.Level, len(b.pins))
	for i, p := range b.pins {
		levels[i] = p.Read()
	}
	return levels
}

// PressedCount returns how many buttons are held right now.
func (b *Buttons) PressedCount() int {
	n := 0
	for _, l := range b.Read() {
		if l == gpio.Low {
			n++
		}
	}
	return n
}

// TiltSwitch is a mercury/ball tilt switch that pulls its pin low when the
// guitar is raised.
type TiltSwitch struct {
	pin gpio.PinIn
}

// OpenTiltSwitch configures the named pin as a floating input.
func OpenTiltSwitch(name string) (*TiltSwitch, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("tilt pin %q not found", name)
	}
	if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("tilt pin %q: %w", name, err)
	}
	return &TiltSwitch{pin: p}, nil
}

// Pressed reports whether the switch is closed.
func (t *TiltSwitch) Pressed() bool {
	return t.pin.Read() == gpio.Low
}

// LED is the status LED.
type LED struct {
	pin gpio.PinOut
	on  bool
}

// OpenLED configures the named pin as an output, initially off.
func OpenLED(name string) (*LED, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("led pin %q not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("led pin %q: %w", name, err)
	}
	return &LED{pin: p}, nil
}

// Set switches the LED, touching the pin only on change.
func (l *LED) Set(on bool) error {
	if on == l.on {
		return nil
	}
	if err := l.pin.Out(gpio.Level(on)); err != nil {
		return err
	}
	l.on = on
	return nil
}
