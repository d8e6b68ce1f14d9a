// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/guitar_controller/internal/neck"
)

// Neck sensor protocol.
const (
	NeckAddr = 0x0D

	neckRegInit  = 0x00
	neckInitLen  = 7
	neckRegFrets = 0x12
	neckFretsLen = 2
)

// Neck talks to the guitar neck touch sensor.
type Neck struct {
	dev Peripheral
}

// NewNeck returns a neck sensor on dev.
func NewNeck(dev Peripheral) *Neck {
	return &Neck{dev: dev}
}

// Init performs the handshake. It succeeds only when the sensor answers with
// exactly seven bytes.
func (n *Neck) Init() error {
	b, err := request(n.dev, "neck init", neckRegInit, neckInitLen)
	if b != nil {
		log.Debugf("neck: %s", FormatBytes(b))
	}
	if err != nil {
		return err
	}
	log.Println("neck: initialized")
	return nil
}

// Poll reads the current fret frame.
func (n *Neck) Poll() (neck.Frame, error) {
	b, err := request(n.dev, "neck poll", neckRegFrets, neckFretsLen)
	if b != nil {
		log.Debugf("neck: %s", FormatBytes(b))
	}
	if err != nil {
		return neck.Frame{}, err
	}
	return neck.Frame{b[0], b[1]}, nil
}
