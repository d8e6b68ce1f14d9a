// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/guitar_controller/internal/imu"
)

// Pose is the canonical representation of orientation for the controller,
// in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time.
type Source interface {
	Next() (Pose, error)
}

// MPU-6050 scale factors at the power-on ranges (±2g, ±250°/s).
const (
	AccelCountsPerG     = 16384.0
	GyroCountsPerDegSec = 131.0
)

// Mounting offsets measured on the guitar body, in degrees and deg/s.
const (
	accelRollOffset  = -0.58
	accelPitchOffset = 1.58

	gyroXOffset = 0.56
	gyroYOffset = -2.0
	gyroZOffset = 0.79
)

// Complementary filter weights.
const (
	gyroWeight  = 0.96
	accelWeight = 0.04
)

// ComputePoseFromAccel computes roll and pitch from accelerometer data only,
// in g. Yaw is 0, gravity carries no heading.
//
//	roll  = atan(ay / sqrt(ax² + az²))
//	pitch = atan(-ax / sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, math.Sqrt(ax*ax+az*az))
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad*180.0/math.Pi + accelRollOffset,
		Pitch: pitchRad*180.0/math.Pi + accelPitchOffset,
	}
}

// GyroRates converts raw gyro counts to corrected angular rates in deg/s.
func GyroRates(s imu.Sample) (x, y, z float64) {
	x = float64(s.Gx)/GyroCountsPerDegSec + gyroXOffset
	y = float64(s.Gy)/GyroCountsPerDegSec + gyroYOffset
	z = float64(s.Gz)/GyroCountsPerDegSec + gyroZOffset
	return x, y, z
}

// Filter is a discrete complementary filter. Roll and pitch blend the
// integrated gyro rate with the accelerometer tilt; yaw is integrated gyro
// only and drifts over time.
type Filter struct {
	pose Pose
}

// Update feeds one sample taken elapsed after the previous one and returns
// the new pose.
func (f *Filter) Update(s imu.Sample, elapsed time.Duration) Pose {
	dt := elapsed.Seconds()

	acc := ComputePoseFromAccel(
		float64(s.Ax)/AccelCountsPerG,
		float64(s.Ay)/AccelCountsPerG,
		float64(s.Az)/AccelCountsPerG,
	)
	gx, gy, gz := GyroRates(s)

	f.pose.Roll = gyroWeight*(f.pose.Roll+gx*dt) + accelWeight*acc.Roll
	f.pose.Pitch = gyroWeight*(f.pose.Pitch+gy*dt) + accelWeight*acc.Pitch
	f.pose.Yaw += gz * dt

	return f.pose
}

// Pose returns the last computed pose.
func (f *Filter) Pose() Pose { return f.pose }

// Reset clears the accumulated angles.
func (f *Filter) Reset() { f.pose = Pose{} }
