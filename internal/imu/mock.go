// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"time"
)

type mockReader struct {
	start time.Time
	now   func() time.Time
}

// NewMockReader creates a mock reader that generates a guitar slowly tilting
// up and down while lying flat, for dry runs without an MPU-6050 attached.
func NewMockReader() Reader {
	return &mockReader{start: time.Now(), now: time.Now}
}

func (m *mockReader) Read() (Sample, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	// 16384 counts per g, 131 counts per deg/s
	tilt := 0.5 * math.Sin(elapsed)
	return Sample{
		Ax: int16(16384 * math.Sin(tilt)),
		Ay: 0,
		Az: int16(16384 * math.Cos(tilt)),
		Gx: 0,
		Gy: int16(131 * 28.6 * math.Cos(elapsed)),
		Gz: 0,
	}, nil
}
