// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/relabs-tech/guitar_controller/internal/imu"
	"github.com/relabs-tech/guitar_controller/internal/neck"
)

// fakePeripheral records writes and answers reads from a register map.
type fakePeripheral struct {
	regs     map[byte][]byte
	writes   [][]byte
	reg      byte
	writeErr error
	readErr  error
	short    int // bytes to withhold from every read
}

func (f *fakePeripheral) Write(w []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), w...))
	f.reg = w[0]
	return nil
}

func (f *fakePeripheral) Read(r []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	n := copy(r, f.regs[f.reg])
	if n > len(r)-f.short {
		n = len(r) - f.short
	}
	return n, nil
}

func TestNeckInitHandshake(t *testing.T) {
	dev := &fakePeripheral{regs: map[byte][]byte{0x00: {1, 2, 3, 4, 5, 6, 7}}}
	if err := NewNeck(dev).Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(dev.writes) != 1 || dev.writes[0][0] != 0x00 {
		t.Errorf("writes = %v", dev.writes)
	}
}

func TestNeckInitShortRead(t *testing.T) {
	dev := &fakePeripheral{regs: map[byte][]byte{0x00: {1, 2, 3, 4, 5}}}
	err := NewNeck(dev).Init()

	var bce *ByteCountError
	if !errors.As(err, &bce) {
		t.Fatalf("err = %v, want ByteCountError", err)
	}
	if bce.Want != 7 || bce.Got != 5 {
		t.Errorf("count = %d/%d", bce.Got, bce.Want)
	}
}

func TestNeckPoll(t *testing.T) {
	dev := &fakePeripheral{regs: map[byte][]byte{0x12: {0x10, 0x95}}}
	frame, err := NewNeck(dev).Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if frame != (neck.Frame{0x10, 0x95}) {
		t.Errorf("frame = % X", frame)
	}
	if dev.writes[0][0] != 0x12 {
		t.Errorf("register = 0x%02X", dev.writes[0][0])
	}
}

func TestNeckPollShortReadIsSoftError(t *testing.T) {
	dev := &fakePeripheral{regs: map[byte][]byte{0x12: {0x10, 0x95}}, short: 1}
	_, err := NewNeck(dev).Poll()

	var bce *ByteCountError
	if !errors.As(err, &bce) || bce.Got != 1 {
		t.Fatalf("err = %v, want ByteCountError with 1 byte", err)
	}
}

func TestNeckPollClassifiesBusErrors(t *testing.T) {
	tests := []struct {
		err  error
		want TxKind
	}{
		{unix.EBUSY, TxBusyOnEntry},
		{unix.EAGAIN, TxStartTimeout},
		{unix.ENXIO, TxAddressTimeout},
		{unix.EREMOTEIO, TxAddressTimeout},
		{unix.ETIMEDOUT, TxDataTimeout},
		{unix.EIO, TxBusyAfterData},
		{unix.EPROTO, TxStopTimeout},
		{fmt.Errorf("sysfs-i2c: %v", unix.ETIMEDOUT), TxDataTimeout},
		{errors.New("something else"), TxUnknown},
	}

	for _, tt := range tests {
		dev := &fakePeripheral{writeErr: tt.err}
		_, err := NewNeck(dev).Poll()

		var txe *TxError
		if !errors.As(err, &txe) {
			t.Fatalf("%v: err = %v, want TxError", tt.err, err)
		}
		if txe.Kind != tt.want {
			t.Errorf("%v: kind = %v, want %v", tt.err, txe.Kind, tt.want)
		}
		if txe.Op != "neck poll write" {
			t.Errorf("op = %q", txe.Op)
		}
	}
}

func TestMPU6050(t *testing.T) {
	dev := &fakePeripheral{regs: map[byte][]byte{
		0x3B: {0x40, 0x00, 0xFF, 0xFF, 0x80, 0x00},
		0x43: {0x00, 0x83, 0xFF, 0x7D, 0x00, 0x00},
	}}
	mpu := NewMPU6050(dev)

	if err := mpu.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := dev.writes[0]; len(got) != 2 || got[0] != 0x6B || got[1] != 0x00 {
		t.Errorf("reset write = % X", got)
	}

	s, err := mpu.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := imu.Sample{Ax: 16384, Ay: -1, Az: -32768, Gx: 131, Gy: -131, Gz: 0}
	if s != want {
		t.Errorf("sample = %+v, want %+v", s, want)
	}
}

func TestMPU6050ReadError(t *testing.T) {
	dev := &fakePeripheral{readErr: unix.ETIMEDOUT}
	_, err := NewMPU6050(dev).Read()

	var txe *TxError
	if !errors.As(err, &txe) || txe.Kind != TxDataTimeout {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, unix.ETIMEDOUT) {
		t.Errorf("errno not unwrapped from %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes([]byte{0x10, 0x9a}); got != "Read 2 bytes: 0x10 0x9A" {
		t.Errorf("FormatBytes = %q", got)
	}
}
