// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/guitar_controller/internal/imu"
)

// MPU-6050 registers.
const (
	MPUAddr = 0x68

	mpuRegPwrMgmt1 = 0x6B
	mpuRegAccelOut = 0x3B
	mpuRegGyroOut  = 0x43
	mpuTripleLen   = 6
)

// MPU6050 reads raw accelerometer and gyroscope samples.
type MPU6050 struct {
	dev Peripheral
}

// NewMPU6050 returns an inertial sensor on dev.
func NewMPU6050(dev Peripheral) *MPU6050 {
	return &MPU6050{dev: dev}
}

// Init wakes the sensor by clearing PWR_MGMT_1, which also selects the
// ±2g / ±250°/s ranges the orientation filter is scaled for.
func (m *MPU6050) Init() error {
	if err := m.dev.Write([]byte{mpuRegPwrMgmt1, 0x00}); err != nil {
		return txError("mpu reset", err)
	}
	log.Println("mpu: initialized")
	return nil
}

// Read reads one accel + gyro sample.
func (m *MPU6050) Read() (imu.Sample, error) {
	acc, err := request(m.dev, "mpu accel", mpuRegAccelOut, mpuTripleLen)
	if err != nil {
		return imu.Sample{}, err
	}
	gyro, err := request(m.dev, "mpu gyro", mpuRegGyroOut, mpuTripleLen)
	if err != nil {
		return imu.Sample{}, err
	}

	ax, ay, az := triple(acc)
	gx, gy, gz := triple(gyro)
	return imu.Sample{Ax: ax, Ay: ay, Az: az, Gx: gx, Gy: gy, Gz: gz}, nil
}

func triple(b []byte) (x, y, z int16) {
	x = int16(binary.BigEndian.Uint16(b[0:2]))
	y = int16(binary.BigEndian.Uint16(b[2:4]))
	z = int16(binary.BigEndian.Uint16(b[4:6]))
	return x, y, z
}
