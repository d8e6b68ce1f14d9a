// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hid models the gamepad report and talks to the BLE HID bridge that
// advertises it to the host.
package hid

import (
	"fmt"
	"io"
)

// Gamepad is the HID transport the controller drives. Press and Release
// only change the pending report; nothing reaches the host until
// SendReport.
type Gamepad interface {
	IsConnected() bool
	Press(button int)
	Release(button int)
	SetX(x int16)
	SendReport() error
}

// Report is the gamepad state: N buttons, one X axis, no hat switches.
type Report struct {
	Buttons []bool `json:"buttons"`
	X       int16  `json:"x"`
}

// NewReport returns a report with n released buttons.
func NewReport(n int) Report {
	return Report{Buttons: make([]bool, n)}
}

// Set changes a 1-based button. Out of range buttons are ignored.
func (r *Report) Set(button int, pressed bool) {
	if button < 1 || button > len(r.Buttons) {
		return
	}
	r.Buttons[button-1] = pressed
}

// Pressed reports whether a 1-based button is down.
func (r *Report) Pressed(button int) bool {
	if button < 1 || button > len(r.Buttons) {
		return false
	}
	return r.Buttons[button-1]
}

// Clone returns a deep copy.
func (r Report) Clone() Report {
	r.Buttons = append([]bool(nil), r.Buttons...)
	return r
}

func buttonBytes(n int) int { return (n + 7) / 8 }

// MarshalBinary encodes the report.
//
// Layout:
//
//	Bytes 0..k-1: button bitfield, k = ceil(N/8), button 1 = bit 0 of byte 0
//	Bytes k..k+1: X (int16 little-endian)
func (r *Report) MarshalBinary() ([]byte, error) {
	k := buttonBytes(len(r.Buttons))
	b := make([]byte, k+2)
	for i, pressed := range r.Buttons {
		if pressed {
			b[i/8] |= 1 << (i % 8)
		}
	}
	b[k] = byte(r.X)
	b[k+1] = byte(r.X >> 8)
	return b, nil
}

// UnmarshalBinary decodes a report; the receiver's button count selects the
// layout.
func (r *Report) UnmarshalBinary(data []byte) error {
	k := buttonBytes(len(r.Buttons))
	if len(data) < k+2 {
		return io.ErrUnexpectedEOF
	}
	if len(data) > k+2 {
		return fmt.Errorf("hid: report is %d bytes, want %d", len(data), k+2)
	}
	for i := range r.Buttons {
		r.Buttons[i] = data[i/8]&(1<<(i%8)) != 0
	}
	r.X = int16(data[k]) | int16(data[k+1])<<8
	return nil
}
