// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/i2c"
)

// Peripheral is a device on the I2C bus, addressed implicitly.
//
// Read may return fewer bytes than requested; the count is always reported.
type Peripheral interface {
	Write(w []byte) error
	Read(r []byte) (int, error)
}

// i2cPeripheral adapts a periph i2c.Dev to Peripheral.
type i2cPeripheral struct {
	dev *i2c.Dev
}

// NewI2CPeripheral returns a Peripheral for addr on bus.
func NewI2CPeripheral(bus i2c.Bus, addr uint16) Peripheral {
	return &i2cPeripheral{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

func (p *i2cPeripheral) Write(w []byte) error {
	_, err := p.dev.Write(w)
	return err
}

func (p *i2cPeripheral) Read(r []byte) (int, error) {
	// The Linux driver either fills the whole buffer or fails the message.
	if err := p.dev.Tx(nil, r); err != nil {
		return 0, err
	}
	return len(r), nil
}

// TxKind classifies a failed bus transaction. The kinds only matter for
// diagnostics; callers skip the cycle whatever the kind.
type TxKind int

const (
	TxUnknown TxKind = iota
	TxBusyOnEntry
	TxStartTimeout
	TxAddressTimeout
	TxDataTimeout
	TxBusyAfterData
	TxStopTimeout
)

func (k TxKind) String() string {
	switch k {
	case TxBusyOnEntry:
		return "busy timeout upon entering transaction"
	case TxStartTimeout:
		return "START bit generation timeout"
	case TxAddressTimeout:
		return "end of address transmission timeout"
	case TxDataTimeout:
		return "data byte transfer timeout"
	case TxBusyAfterData:
		return "data byte transfer succeeded, busy timeout immediately after"
	case TxStopTimeout:
		return "timeout waiting for peripheral to clear stop bit"
	default:
		return "unknown transaction error"
	}
}

// TxError is a failed bus transaction.
type TxError struct {
	Op   string
	Kind TxKind
	Err  error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// errnoKinds maps Linux i2c-dev errors to transaction kinds.
var errnoKinds = []struct {
	errno unix.Errno
	kind  TxKind
}{
	{unix.EBUSY, TxBusyOnEntry},
	{unix.EAGAIN, TxStartTimeout},
	{unix.ENXIO, TxAddressTimeout},
	{unix.EREMOTEIO, TxAddressTimeout},
	{unix.ETIMEDOUT, TxDataTimeout},
	{unix.EIO, TxBusyAfterData},
	{unix.EPROTO, TxStopTimeout},
}

// Classify returns the transaction kind of err. periph does not always wrap
// the errno, so the message is matched as a fallback.
func Classify(err error) TxKind {
	var errno unix.Errno
	if errors.As(err, &errno) {
		for _, ek := range errnoKinds {
			if errno == ek.errno {
				return ek.kind
			}
		}
		return TxUnknown
	}
	msg := err.Error()
	for _, ek := range errnoKinds {
		if strings.Contains(msg, ek.errno.Error()) {
			return ek.kind
		}
	}
	return TxUnknown
}

func txError(op string, err error) error {
	return &TxError{Op: op, Kind: Classify(err), Err: err}
}

// ByteCountError reports a read-back shorter than expected.
type ByteCountError struct {
	Op   string
	Want int
	Got  int
}

func (e *ByteCountError) Error() string {
	return fmt.Sprintf("%s: wrong byte count read: want %d, got %d", e.Op, e.Want, e.Got)
}

// request writes reg and reads n bytes back. On a short read the bytes that
// did arrive are returned together with a *ByteCountError.
func request(p Peripheral, op string, reg byte, n int) ([]byte, error) {
	if err := p.Write([]byte{reg}); err != nil {
		return nil, txError(op+" write", err)
	}

	buf := make([]byte, n)
	got, err := p.Read(buf)
	if err != nil {
		return nil, txError(op+" read", err)
	}
	if got > n {
		got = n
	}
	if got != n {
		return buf[:got], &ByteCountError{Op: op, Want: n, Got: got}
	}
	return buf, nil
}

// FormatBytes renders a read-back the way the diagnostics print it:
// "Read 2 bytes: 0x10 0x95".
func FormatBytes(b []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Read %d bytes:", len(b))
	for _, v := range b {
		fmt.Fprintf(&sb, " 0x%02X", v)
	}
	return sb.String()
}
