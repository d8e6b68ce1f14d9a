// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hid

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEncodeFrame(t *testing.T) {
	got, err := EncodeFrame(CmdStatus, []byte{0x01})
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	// LEN=2, CKS = 0x02 ^ 0x80 ^ 0x01
	want := []byte{0xAA, 0x55, 0x02, 0x80, 0x01, 0x83}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame() = % X, want % X", got, want)
	}

	if _, err := EncodeFrame(CmdReport, make([]byte, 300)); err == nil {
		t.Error("expected error for oversized payload")
	}
}

func TestReadFrame(t *testing.T) {
	report, _ := EncodeFrame(CmdReport, []byte{0x01, 0x00, 0x10, 0x00})
	status, _ := EncodeFrame(CmdStatus, []byte{0x00})

	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0xAA, 0x13}) // noise and a false start
	stream.Write(report)
	stream.Write([]byte{0xAA}) // repeated SOF0 before the real marker
	stream.Write(status)

	r := bufio.NewReader(&stream)

	cmd, payload, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("first ReadFrame: %v", err)
	}
	if cmd != CmdReport || !bytes.Equal(payload, []byte{0x01, 0x00, 0x10, 0x00}) {
		t.Errorf("first frame = 0x%02X % X", cmd, payload)
	}

	cmd, payload, err = ReadFrame(r)
	if err != nil {
		t.Fatalf("second ReadFrame: %v", err)
	}
	if cmd != CmdStatus || !bytes.Equal(payload, []byte{0x00}) {
		t.Errorf("second frame = 0x%02X % X", cmd, payload)
	}

	if _, _, err := ReadFrame(r); !errors.Is(err, io.EOF) {
		t.Errorf("ReadFrame at end = %v, want EOF", err)
	}
}

func TestReadFrameChecksum(t *testing.T) {
	frame, _ := EncodeFrame(CmdStatus, []byte{0x01})
	frame[len(frame)-1] ^= 0xFF

	_, _, err := ReadFrame(bufio.NewReader(bytes.NewReader(frame)))
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("ReadFrame() error = %v, want ErrChecksum", err)
	}
}

func TestReadFrameZeroLength(t *testing.T) {
	status, _ := EncodeFrame(CmdStatus, []byte{0x01})
	r := bufio.NewReader(bytes.NewReader(append([]byte{SOF0, SOF1, 0x00}, status...)))

	_, _, err := ReadFrame(r)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("ReadFrame() error = %v, want ErrMalformed", err)
	}
	cmd, payload, err := ReadFrame(r)
	if err != nil || cmd != CmdStatus || !bytes.Equal(payload, []byte{0x01}) {
		t.Errorf("next frame = 0x%02X % X, %v", cmd, payload, err)
	}
}

func TestReadFrameChecksumIsMalformed(t *testing.T) {
	if !errors.Is(ErrChecksum, ErrMalformed) {
		t.Error("ErrChecksum does not match ErrMalformed")
	}
}

func TestReadFrameTruncated(t *testing.T) {
	frame, _ := EncodeFrame(CmdReport, []byte{1, 2, 3, 4})
	_, _, err := ReadFrame(bufio.NewReader(bytes.NewReader(frame[:5])))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadFrame() error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestDeviceInfoMarshal(t *testing.T) {
	info := DeviceInfo{Name: "gtr", Manufacturer: "TZ", Buttons: 64, TxPower: -3}
	got, err := info.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	want := []byte{64, 0, 0xFD, 3, 'g', 't', 'r', 2, 'T', 'Z'}
	if !bytes.Equal(got, want) {
		t.Errorf("MarshalBinary() = % X, want % X", got, want)
	}

	long := DeviceInfo{Name: string(make([]byte, 65)), Buttons: 13}
	if _, err := long.MarshalBinary(); err == nil {
		t.Error("expected error for a 65 byte name")
	}
}
