// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hid

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"testing"
	"time"
)

// fakePort is the bridge side of a serial link: tests push frames into
// inbound and inspect what the controller wrote.
type fakePort struct {
	in      *io.PipeReader
	inbound *io.PipeWriter

	mu  sync.Mutex
	out bytes.Buffer
}

func newFakePort() *fakePort {
	r, w := io.Pipe()
	return &fakePort{in: r, inbound: w}
}

func (p *fakePort) Read(b []byte) (int, error) { return p.in.Read(b) }

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func (p *fakePort) Close() error { return p.in.Close() }

func (p *fakePort) frames(t *testing.T) [][]byte {
	t.Helper()
	p.mu.Lock()
	data := append([]byte(nil), p.out.Bytes()...)
	p.mu.Unlock()

	var out [][]byte
	r := bufio.NewReader(bytes.NewReader(data))
	for {
		cmd, payload, err := ReadFrame(r)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("controller wrote a bad frame: %v", err)
		}
		out = append(out, append([]byte{cmd}, payload...))
	}
}

func (p *fakePort) sendStatus(t *testing.T, connected bool) {
	t.Helper()
	flag := byte(0)
	if connected {
		flag = 1
	}
	frame, _ := EncodeFrame(CmdStatus, []byte{flag})
	if _, err := p.inbound.Write(frame); err != nil {
		t.Fatalf("send status: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBridgeConfigures(t *testing.T) {
	port := newFakePort()
	b, err := NewBridge(port, DeviceInfo{Name: "g", Manufacturer: "m", Buttons: 13, TxPower: 9})
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	defer b.Close()

	frames := port.frames(t)
	if len(frames) != 1 {
		t.Fatalf("got %d frames after open, want 1", len(frames))
	}
	want := []byte{CmdConfigure, 13, 0, 9, 1, 'g', 1, 'm'}
	if !bytes.Equal(frames[0], want) {
		t.Errorf("configure frame = % X, want % X", frames[0], want)
	}
	if b.IsConnected() {
		t.Error("bridge reports connected before any status frame")
	}
}

func TestBridgeStatus(t *testing.T) {
	port := newFakePort()
	b, err := NewBridge(port, DeviceInfo{Buttons: 13})
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	defer b.Close()

	port.sendStatus(t, true)
	waitFor(t, b.IsConnected)

	port.sendStatus(t, false)
	waitFor(t, func() bool { return !b.IsConnected() })
}

func TestBridgeSurvivesMalformedFrames(t *testing.T) {
	port := newFakePort()
	b, err := NewBridge(port, DeviceInfo{Buttons: 13})
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	defer b.Close()

	port.sendStatus(t, true)
	waitFor(t, b.IsConnected)

	bad, _ := EncodeFrame(CmdStatus, []byte{0x00})
	bad[len(bad)-1] ^= 0xFF
	status, _ := EncodeFrame(CmdStatus, []byte{0x00})
	line := append([]byte{SOF0, SOF1, 0x00}, bad...)
	line = append(line, status...)

	// The write blocks if nothing reads the port any more.
	go port.inbound.Write(line)
	waitFor(t, func() bool { return !b.IsConnected() })

	go port.inbound.Write(mustFrame(t, CmdStatus, 0x01))
	waitFor(t, b.IsConnected)
}

func mustFrame(t *testing.T, cmd byte, payload ...byte) []byte {
	t.Helper()
	frame, err := EncodeFrame(cmd, payload)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	return frame
}

func TestBridgeSendReport(t *testing.T) {
	port := newFakePort()
	b, err := NewBridge(port, DeviceInfo{Buttons: 13})
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	defer b.Close()

	b.Press(1)
	b.Press(9)
	b.SetX(-1)
	b.Press(3)
	b.Release(3)

	// Nothing goes out until SendReport.
	if n := len(port.frames(t)); n != 1 {
		t.Fatalf("got %d frames before SendReport, want 1", n)
	}

	if err := b.SendReport(); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	frames := port.frames(t)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	want := []byte{CmdReport, 0x01, 0x01, 0xFF, 0xFF}
	if !bytes.Equal(frames[1], want) {
		t.Errorf("report frame = % X, want % X", frames[1], want)
	}

	if r := b.Report(); !r.Pressed(9) || r.Pressed(3) || r.X != -1 {
		t.Errorf("Report() = %+v", r)
	}
}

func TestBridgeCloseDisconnects(t *testing.T) {
	port := newFakePort()
	b, err := NewBridge(port, DeviceInfo{Buttons: 13})
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	port.sendStatus(t, true)
	waitFor(t, b.IsConnected)

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.IsConnected() {
		t.Error("bridge still connected after Close")
	}
}
