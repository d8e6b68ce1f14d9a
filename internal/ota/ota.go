// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ota is the network update mode entered with the boot gesture. An
// image is uploaded over HTTP, staged on disk, and the process exits so its
// supervisor restarts it on the new image.
package ota

import (
	"errors"
	"fmt"
)

// ErrReboot is returned by Server.Run when the process must restart, either
// because an update was staged or because the update channel could not come
// up.
var ErrReboot = errors.New("ota: reboot required")

// Command is the kind of image being uploaded.
type Command int

const (
	Sketch Command = iota
	Filesystem
)

func (c Command) String() string {
	if c == Filesystem {
		return "filesystem"
	}
	return "sketch"
}

// FileName is the staged file name for the command.
func (c Command) FileName() string {
	if c == Filesystem {
		return "filesystem.bin"
	}
	return "firmware.bin"
}

// ParseCommand reads the X-Update-Type header value. Empty means sketch.
func ParseCommand(s string) (Command, error) {
	switch s {
	case "", "sketch", "flash":
		return Sketch, nil
	case "filesystem", "spiffs":
		return Filesystem, nil
	}
	return Sketch, fmt.Errorf("ota: unknown update type %q", s)
}

// ErrorKind classifies update failures.
type ErrorKind int

const (
	AuthError ErrorKind = iota
	BeginError
	ConnectError
	ReceiveError
	EndError
)

func (k ErrorKind) String() string {
	switch k {
	case AuthError:
		return "Auth Failed"
	case BeginError:
		return "Begin Failed"
	case ConnectError:
		return "Connect Failed"
	case ReceiveError:
		return "Receive Failed"
	case EndError:
		return "End Failed"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is an update failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "ota: " + e.Kind.String()
	}
	return fmt.Sprintf("ota: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Callbacks observe an update. Any of them may be nil.
type Callbacks struct {
	OnStart    func(Command)
	OnEnd      func()
	OnProgress func(done, total int64)
	OnError    func(*Error)
}

func (cb Callbacks) start(c Command) {
	if cb.OnStart != nil {
		cb.OnStart(c)
	}
}

func (cb Callbacks) end() {
	if cb.OnEnd != nil {
		cb.OnEnd()
	}
}

func (cb Callbacks) progress(done, total int64) {
	if cb.OnProgress != nil {
		cb.OnProgress(done, total)
	}
}

func (cb Callbacks) fail(e *Error) {
	if cb.OnError != nil {
		cb.OnError(e)
	}
}
