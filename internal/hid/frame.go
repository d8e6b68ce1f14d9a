// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Wire framing between the controller and the BLE bridge:
//
//	[SOF0][SOF1][LEN][CMD][payload...][CKS]
//
// LEN counts CMD plus the payload, CKS is LEN ^ CMD ^ every payload byte.
const (
	SOF0 = 0xAA
	SOF1 = 0x55

	CmdConfigure = 0x01
	CmdReport    = 0x10
	CmdStatus    = 0x80

	maxPayload = 0xFE
)

// ErrMalformed marks a frame that was read completely but makes no sense.
// The stream is still usable and the next frame can be read.
var ErrMalformed = errors.New("hid: malformed frame")

// ErrChecksum is returned for a frame whose checksum does not match.
var ErrChecksum = fmt.Errorf("%w: checksum mismatch", ErrMalformed)

// EncodeFrame builds the on-wire representation of one command.
func EncodeFrame(cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > maxPayload {
		return nil, fmt.Errorf("hid: payload of %d bytes does not fit a frame", len(payload))
	}
	length := byte(len(payload) + 1)
	cks := length ^ cmd
	for _, b := range payload {
		cks ^= b
	}

	out := make([]byte, 0, len(payload)+5)
	out = append(out, SOF0, SOF1, length, cmd)
	out = append(out, payload...)
	return append(out, cks), nil
}

// ReadFrame reads the next frame, skipping any bytes before a start marker.
func ReadFrame(r *bufio.Reader) (cmd byte, payload []byte, err error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		if b != SOF0 {
			continue
		}
		b, err = r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		if b == SOF1 {
			break
		}
		if b == SOF0 {
			if err := r.UnreadByte(); err != nil {
				return 0, nil, err
			}
		}
	}

	length, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	if length == 0 {
		return 0, nil, fmt.Errorf("%w: zero length", ErrMalformed)
	}

	body := make([]byte, int(length)+1) // cmd + payload + checksum
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}

	cks := length
	for _, b := range body[:length] {
		cks ^= b
	}
	if cks != body[length] {
		return 0, nil, ErrChecksum
	}
	return body[0], body[1:length], nil
}

// DeviceInfo is sent to the bridge once after the port opens.
type DeviceInfo struct {
	Name         string
	Manufacturer string
	Buttons      int
	HatSwitches  int
	TxPower      int // dBm
}

// MarshalBinary encodes the configure payload:
// buttons, hats, tx power (int8), name length, name, manufacturer length,
// manufacturer.
func (d DeviceInfo) MarshalBinary() ([]byte, error) {
	if len(d.Name) > 0x40 || len(d.Manufacturer) > 0x40 {
		return nil, fmt.Errorf("hid: device name and manufacturer must be at most 64 bytes")
	}
	if d.Buttons < 0 || d.Buttons > 0xFF || d.HatSwitches < 0 || d.HatSwitches > 4 {
		return nil, fmt.Errorf("hid: unsupported layout %d buttons / %d hats", d.Buttons, d.HatSwitches)
	}
	b := []byte{byte(d.Buttons), byte(d.HatSwitches), byte(int8(d.TxPower)), byte(len(d.Name))}
	b = append(b, d.Name...)
	b = append(b, byte(len(d.Manufacturer)))
	return append(b, d.Manufacturer...), nil
}
