// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/guitar_controller/internal/input"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type recordingClient struct {
	sent []message
}

func (c *recordingClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, message{topic, retained, payload.([]byte)})
	return doneToken{}
}

func TestObserveStateOnly(t *testing.T) {
	c := &recordingClient{}
	NewPublisher(c, "guitar").Observe(State{Mode: "initializing", Buttons: make([]bool, 13)})

	if len(c.sent) != 1 {
		t.Fatalf("published %d messages, want 1", len(c.sent))
	}
	if c.sent[0].topic != "guitar/state" || !c.sent[0].retained {
		t.Errorf("state published as %+v", c.sent[0])
	}
	var got State
	if err := json.Unmarshal(c.sent[0].payload, &got); err != nil {
		t.Fatalf("state payload: %v", err)
	}
	if got.Mode != "initializing" {
		t.Errorf("Mode = %q", got.Mode)
	}
}

func TestObserveWithEvents(t *testing.T) {
	buttons := make([]bool, 13)
	buttons[0] = true
	buttons[8] = true
	s := State{
		Mode:    "operational",
		Buttons: buttons,
		Whammy:  -1,
		Events:  []input.Event{{Index: 0, Button: 1, Pressed: true}, {Index: 8, Button: 9, Pressed: true}},
	}

	c := &recordingClient{}
	NewPublisher(c, "gtr").Observe(s)

	if len(c.sent) != 3 {
		t.Fatalf("published %d messages, want 3", len(c.sent))
	}
	topics := []string{c.sent[0].topic, c.sent[1].topic, c.sent[2].topic}
	want := []string{"gtr/state", "gtr/events", "gtr/report"}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topic %d = %q, want %q", i, topics[i], want[i])
		}
	}

	var events []input.Event
	if err := json.Unmarshal(c.sent[1].payload, &events); err != nil {
		t.Fatalf("events payload: %v", err)
	}
	if len(events) != 2 || events[1].Button != 9 {
		t.Errorf("events = %+v", events)
	}

	var report ReportMessage
	if err := json.Unmarshal(c.sent[2].payload, &report); err != nil {
		t.Fatalf("report payload: %v", err)
	}
	if report.Bytes != "0101ffff" {
		t.Errorf("report bytes = %q, want 0101ffff", report.Bytes)
	}
	if len(report.Pressed) != 2 || report.Pressed[0] != 1 || report.Pressed[1] != 9 {
		t.Errorf("pressed = %v, want [1 9]", report.Pressed)
	}
}
