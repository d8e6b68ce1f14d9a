// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry mirrors the controller's state to MQTT for the console
// and the web dashboard. It only observes; nothing it does feeds back into
// the report loop.
package telemetry

import (
	"time"

	"github.com/relabs-tech/guitar_controller/internal/hid"
	"github.com/relabs-tech/guitar_controller/internal/input"
	"github.com/relabs-tech/guitar_controller/internal/orientation"
)

// State is one snapshot of the controller.
type State struct {
	Time      time.Time        `json:"time"`
	Mode      string           `json:"mode"`
	Connected bool             `json:"connected"`
	Cycle     uint64           `json:"cycle"`
	Raw       string           `json:"raw"`
	Frets     string           `json:"frets"`
	Pose      orientation.Pose `json:"pose"`
	Whammy    int16            `json:"whammy"`
	Buttons   []bool           `json:"buttons"`
	Events    []input.Event    `json:"events,omitempty"`
}

// Report returns the HID report matching the snapshot.
func (s State) Report() hid.Report {
	return hid.Report{Buttons: s.Buttons, X: s.Whammy}
}

// Pressed lists the 1-based numbers of the buttons held in the snapshot.
func (s State) Pressed() []int {
	var out []int
	for i, on := range s.Buttons {
		if on {
			out = append(out, i+1)
		}
	}
	return out
}

// ReportMessage is the payload of the report topic.
type ReportMessage struct {
	Time    time.Time `json:"time"`
	Pressed []int     `json:"pressed"`
	X       int16     `json:"x"`
	Bytes   string    `json:"bytes"`
}
