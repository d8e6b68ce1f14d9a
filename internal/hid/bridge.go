// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	serial "github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"
)

// Bridge drives a BLE HID bridge over a serial link. The bridge owns the
// radio and the HID descriptor; this side only sends reports and listens
// for connection status.
type Bridge struct {
	port io.ReadWriteCloser

	mu     sync.Mutex
	report Report

	connected atomic.Bool
	done      chan struct{}
}

// OpenBridge opens the serial port and configures the bridge.
func OpenBridge(portName string, baud uint, info DeviceInfo) (*Bridge, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("hid: open %s: %w", portName, err)
	}
	log.Printf("HID bridge serial port opened on %s at %d baud", portName, baud)

	b, err := NewBridge(port, info)
	if err != nil {
		port.Close()
		return nil, err
	}
	return b, nil
}

// NewBridge sends the configure frame on an already open link and starts
// listening for status frames.
func NewBridge(port io.ReadWriteCloser, info DeviceInfo) (*Bridge, error) {
	payload, err := info.MarshalBinary()
	if err != nil {
		return nil, err
	}
	frame, err := EncodeFrame(CmdConfigure, payload)
	if err != nil {
		return nil, err
	}
	if _, err := port.Write(frame); err != nil {
		return nil, fmt.Errorf("hid: configure bridge: %w", err)
	}
	log.Printf("HID bridge configured as %q by %q (%d buttons, %d dBm)",
		info.Name, info.Manufacturer, info.Buttons, info.TxPower)

	b := &Bridge{
		port:   port,
		report: NewReport(info.Buttons),
		done:   make(chan struct{}),
	}
	go b.listen()
	return b, nil
}

func (b *Bridge) listen() {
	defer close(b.done)
	r := bufio.NewReader(b.port)
	for {
		cmd, payload, err := ReadFrame(r)
		if errors.Is(err, ErrMalformed) {
			log.Warnf("HID bridge: dropped frame: %v", err)
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				log.Printf("HID bridge read error: %v", err)
			}
			b.connected.Store(false)
			return
		}

		switch cmd {
		case CmdStatus:
			if len(payload) < 1 {
				continue
			}
			up := payload[0] != 0
			if b.connected.Swap(up) != up {
				log.Printf("HID host connected: %v", up)
			}
		default:
			log.Debugf("HID bridge: ignoring command 0x%02X", cmd)
		}
	}
}

// IsConnected reports whether a BLE host is currently connected.
func (b *Bridge) IsConnected() bool { return b.connected.Load() }

func (b *Bridge) Press(button int) {
	b.mu.Lock()
	b.report.Set(button, true)
	b.mu.Unlock()
}

func (b *Bridge) Release(button int) {
	b.mu.Lock()
	b.report.Set(button, false)
	b.mu.Unlock()
}

func (b *Bridge) SetX(x int16) {
	b.mu.Lock()
	b.report.X = x
	b.mu.Unlock()
}

// Report returns a copy of the pending report.
func (b *Bridge) Report() Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.report.Clone()
}

// SendReport transmits the pending report.
func (b *Bridge) SendReport() error {
	b.mu.Lock()
	payload, err := b.report.MarshalBinary()
	b.mu.Unlock()
	if err != nil {
		return err
	}

	frame, err := EncodeFrame(CmdReport, payload)
	if err != nil {
		return err
	}
	if _, err := b.port.Write(frame); err != nil {
		return fmt.Errorf("hid: send report: %w", err)
	}
	return nil
}

// Close closes the link and waits for the status listener to exit.
func (b *Bridge) Close() error {
	err := b.port.Close()
	<-b.done
	return err
}
