// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// BitField describes a field inside a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo describes a register (or a block read starting at Addr).
type RegisterInfo struct {
	Addr        byte       `json:"addr"`
	Len         int        `json:"len"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// NeckRegisters lists the two reads the neck sensor answers.
func NeckRegisters() []RegisterInfo {
	return []RegisterInfo{
		{Addr: neckRegInit, Len: neckInitLen, Name: "HANDSHAKE", Description: "Handshake block, must return exactly 7 bytes", Access: "R"},
		{Addr: neckRegFrets, Len: neckFretsLen, Name: "FRETS", Description: "Top fret bitmask and touch pad code", Access: "R",
			BitFields: []BitField{
				{Bits: "0:7", Name: "TOP", Description: "Byte 0, top frets", Values: "0x10=green, 0x20=red, 0x80=yellow, 0x40=blue, 0x01=orange"},
				{Bits: "1:7..0", Name: "PAD", Description: "Byte 1, touch pad code", Values: "see `guitar table`"},
			}},
	}
}

// MPU6050Registers lists the MPU-6050 registers worth looking at on the
// guitar.
func MPU6050Registers() []RegisterInfo {
	return []RegisterInfo{
		{Addr: 0x19, Len: 1, Name: "SMPLRT_DIV", Description: "Sample Rate Divider", Access: "RW",
			BitFields: []BitField{
				{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = Gyro_Output_Rate / (1 + SMPLRT_DIV)", Values: "0-255"},
			}},
		{Addr: 0x1A, Len: 1, Name: "CONFIG", Description: "Configuration (DLPF)", Access: "RW",
			BitFields: []BitField{
				{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "External FSYNC pin sampling", Values: "0=Disabled"},
				{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital Low Pass Filter", Values: "0=260Hz, 1=184Hz, 2=94Hz, 3=44Hz, 4=21Hz, 5=10Hz, 6=5Hz"},
			}},
		{Addr: 0x1B, Len: 1, Name: "GYRO_CONFIG", Description: "Gyroscope Configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "4:3", Name: "FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
			}},
		{Addr: 0x1C, Len: 1, Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW",
			BitFields: []BitField{
				{Bits: "4:3", Name: "AFS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},
		{Addr: 0x3A, Len: 1, Name: "INT_STATUS", Description: "Interrupt Status", Access: "R",
			BitFields: []BitField{
				{Bits: "0", Name: "DATA_RDY_INT", Description: "Data ready interrupt status"},
			}},
		{Addr: mpuRegAccelOut, Len: mpuTripleLen, Name: "ACCEL_OUT", Description: "Accelerometer X/Y/Z, big-endian", Access: "R"},
		{Addr: 0x41, Len: 2, Name: "TEMP_OUT", Description: "Temperature, big-endian", Access: "R"},
		{Addr: mpuRegGyroOut, Len: mpuTripleLen, Name: "GYRO_OUT", Description: "Gyroscope X/Y/Z, big-endian", Access: "R"},
		{Addr: mpuRegPwrMgmt1, Len: 1, Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW",
			BitFields: []BitField{
				{Bits: "7", Name: "DEVICE_RESET", Description: "Device reset", Values: "1=Reset device"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
				{Bits: "5", Name: "CYCLE", Description: "Cycle mode", Values: "0=Disabled, 1=Cycle"},
				{Bits: "3", Name: "TEMP_DIS", Description: "Temperature sensor", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 8MHz, 1=PLL gyro X"},
			}},
		{Addr: 0x6C, Len: 1, Name: "PWR_MGMT_2", Description: "Power Management 2", Access: "RW"},
		{Addr: 0x75, Len: 1, Name: "WHO_AM_I", Description: "Device ID (should be 0x68)", Access: "R"},
	}
}

// RegisterDump is the result of reading one register.
type RegisterDump struct {
	RegisterInfo
	Data []byte `json:"data"`
	Err  string `json:"error,omitempty"`
}

func (d RegisterDump) String() string {
	if d.Err != "" {
		return fmt.Sprintf("0x%02X %-13s error: %s", d.Addr, d.Name, d.Err)
	}
	return fmt.Sprintf("0x%02X %-13s %s", d.Addr, d.Name, FormatBytes(d.Data))
}

// DumpRegisters reads every register in regs. A failed read is recorded in
// its dump and does not stop the others.
func DumpRegisters(p Peripheral, regs []RegisterInfo) []RegisterDump {
	out := make([]RegisterDump, 0, len(regs))
	for _, r := range regs {
		n := r.Len
		if n < 1 {
			n = 1
		}
		d := RegisterDump{RegisterInfo: r}
		data, err := request(p, r.Name, r.Addr, n)
		d.Data = data
		if err != nil {
			d.Err = err.Error()
		}
		out = append(out, d)
	}
	return out
}
