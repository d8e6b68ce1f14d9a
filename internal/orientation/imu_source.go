// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"time"

	"github.com/relabs-tech/guitar_controller/internal/imu"
)

type imuSource struct {
	reader imu.Reader
	filter Filter
	now    func() time.Time
	last   time.Time
}

// NewIMUSource returns a Source that reads raw samples from r and runs them
// through a complementary filter, using the wall-clock time between reads as
// the integration step.
func NewIMUSource(r imu.Reader) Source {
	return newIMUSource(r, time.Now)
}

func newIMUSource(r imu.Reader, now func() time.Time) *imuSource {
	return &imuSource{reader: r, now: now}
}

// Next reads one sample and returns the fused pose. The first sample after
// start has no previous time and integrates nothing.
func (s *imuSource) Next() (Pose, error) {
	sample, err := s.reader.Read()
	if err != nil {
		return Pose{}, fmt.Errorf("orientation: imu read: %w", err)
	}

	t := s.now()
	var elapsed time.Duration
	if !s.last.IsZero() {
		elapsed = t.Sub(s.last)
	}
	s.last = t

	return s.filter.Update(sample, elapsed), nil
}
