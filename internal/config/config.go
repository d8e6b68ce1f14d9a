// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
)

// Button counts supported by the HID report: the legacy 13-button layout and
// the extended 64-button layout.
const (
	LegacyButtons   = 13
	ExtendedButtons = 64
)

// displayAddr is the only address the ssd1306 driver talks to.
const displayAddr = 0x3C

// ReservedButtons is the number of report indices in front of the physical
// buttons: five neck frets plus tilt up and tilt down.
const ReservedButtons = 7

// Config holds all application configuration values.
type Config struct {
	// Device identity, announced to the BLE bridge
	DeviceName   string
	Manufacturer string

	// Diagnostics
	LogEnabled      bool
	Verbose         bool
	DiagnosticEvery int // dump state every N cycles in verbose mode

	// Features
	EnableAccelerometer    bool
	AccelerometerThreshold float64 // pitch change per cycle, degrees
	EnableTilt             bool

	// HID report
	NumButtons int

	// I2C
	I2CBus      string // "" selects the first bus
	NeckI2CAddr uint16
	MPUI2CAddr  uint16

	// GPIO
	ButtonPins []string
	TiltPin    string
	LEDPin     string

	// Whammy (ADS1015)
	WhammyADCAddr       uint16
	WhammyADCChannel    int
	WhammySamples       int
	WhammySampleDelayMS int
	WhammyRawMax        int

	// BLE HID bridge
	HIDSerialPort string
	HIDBaudRate   uint
	HIDTxPower    int // dBm

	// Timing
	PollIntervalUS        int
	VerbosePollIntervalMS int
	InitRetryIntervalMS   int

	// Update channel
	OTAHostname    string
	OTAListenAddr  string
	OTAPassword    string
	OTAStagingPath string
	RebootDelayMS  int

	// MQTT telemetry, disabled when MQTTBroker is empty
	MQTTBroker   string
	MQTTClientID string
	TopicPrefix  string

	// Web dashboard
	WebServerPort int

	// Display
	DisplayEnabled        bool // SSD1306 at 0x3C on the sensor bus
	DisplayUpdateInterval int  // milliseconds
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the stock configuration of the guitar.
func Default() *Config {
	return &Config{
		DeviceName:   "thatzokay_guitar",
		Manufacturer: "Thatzokay",

		DiagnosticEvery: 25,

		AccelerometerThreshold: 1000,
		EnableTilt:             true,

		NumButtons: ExtendedButtons,

		NeckI2CAddr: 0x0D,
		MPUI2CAddr:  0x68,

		ButtonPins: []string{"GPIO16", "GPIO17", "GPIO18", "GPIO19", "GPIO23", "GPIO26", "GPIO22", "GPIO27"},
		TiltPin:    "GPIO12",
		LEDPin:     "GPIO25",

		WhammyADCAddr:       0x48,
		WhammyADCChannel:    0,
		WhammySamples:       5,
		WhammySampleDelayMS: 4,
		WhammyRawMax:        1920,

		HIDSerialPort: "/dev/serial0",
		HIDBaudRate:   115200,
		HIDTxPower:    9,

		PollIntervalUS:        500,
		VerbosePollIntervalMS: 500,
		InitRetryIntervalMS:   1000,

		OTAHostname:    "thatzokay_guitar",
		OTAListenAddr:  ":3232",
		OTAStagingPath: "./update",
		RebootDelayMS:  5000,

		MQTTClientID: "guitar-controller",
		TopicPrefix:  "guitar",

		WebServerPort: 8080,

		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file on top of Default and returns the result.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value, err := unquote(parts[1])
		if err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// unquote returns a value as written, minus surrounding spaces. Only values
// that start with a quote get shell-style unquoting, which also drops a
// trailing comment, so '#' and inner spaces survive in bare values.
func unquote(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" || (value[0] != '"' && value[0] != '\'') {
		return value, nil
	}
	words, err := shlex.Split(value)
	if err != nil {
		return "", fmt.Errorf("invalid value %q: %w", raw, err)
	}
	return strings.Join(words, " "), nil
}

// splitList splits a comma or space separated list.
func splitList(value string) ([]string, error) {
	words, err := shlex.Split(strings.ReplaceAll(value, ",", " "))
	if err != nil {
		return nil, fmt.Errorf("invalid list %q: %w", value, err)
	}
	return words, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func parseInt(key, value string, min, max int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, n)
	}
	return n, nil
}

func parseAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if addr > 0x7F {
		return 0, fmt.Errorf("%s must be a 7-bit I2C address, got 0x%X", key, addr)
	}
	return uint16(addr), nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Device identity
	case "DEVICE_NAME":
		c.DeviceName = value
	case "MANUFACTURER":
		c.Manufacturer = value

	// Diagnostics
	case "LOG_ENABLED":
		c.LogEnabled, err = parseBool(key, value)
	case "VERBOSE":
		c.Verbose, err = parseBool(key, value)
	case "DIAGNOSTIC_EVERY":
		c.DiagnosticEvery, err = parseInt(key, value, 1, 1_000_000)

	// Features
	case "ENABLE_ACCELEROMETER":
		c.EnableAccelerometer, err = parseBool(key, value)
	case "ACCELEROMETER_THRESHOLD":
		c.AccelerometerThreshold, err = strconv.ParseFloat(value, 64)
		if err != nil {
			err = fmt.Errorf("invalid ACCELEROMETER_THRESHOLD %q: %w", value, err)
		} else if c.AccelerometerThreshold < 0 {
			err = fmt.Errorf("ACCELEROMETER_THRESHOLD must not be negative, got %v", c.AccelerometerThreshold)
		}
	case "ENABLE_TILT":
		c.EnableTilt, err = parseBool(key, value)

	// HID report
	case "NUM_BUTTONS":
		c.NumButtons, err = strconv.Atoi(value)
		if err != nil {
			err = fmt.Errorf("invalid NUM_BUTTONS %q: %w", value, err)
		} else if c.NumButtons != LegacyButtons && c.NumButtons != ExtendedButtons {
			err = fmt.Errorf("NUM_BUTTONS must be %d or %d, got %d", LegacyButtons, ExtendedButtons, c.NumButtons)
		}

	// I2C
	case "I2C_BUS":
		c.I2CBus = value
	case "NECK_I2C_ADDR":
		c.NeckI2CAddr, err = parseAddr(key, value)
	case "MPU_I2C_ADDR":
		c.MPUI2CAddr, err = parseAddr(key, value)

	// GPIO
	case "BUTTON_PINS":
		c.ButtonPins, err = splitList(value)
	case "TILT_PIN":
		c.TiltPin = value
	case "LED_PIN":
		c.LEDPin = value

	// Whammy
	case "WHAMMY_ADC_ADDR":
		c.WhammyADCAddr, err = parseAddr(key, value)
	case "WHAMMY_ADC_CHANNEL":
		c.WhammyADCChannel, err = parseInt(key, value, 0, 3)
	case "WHAMMY_SAMPLES":
		c.WhammySamples, err = parseInt(key, value, 1, 64)
	case "WHAMMY_SAMPLE_DELAY_MS":
		c.WhammySampleDelayMS, err = parseInt(key, value, 0, 1000)
	case "WHAMMY_RAW_MAX":
		c.WhammyRawMax, err = parseInt(key, value, 1, 32767)

	// BLE HID bridge
	case "HID_SERIAL_PORT":
		c.HIDSerialPort = value
	case "HID_BAUD_RATE":
		var rate int
		rate, err = parseInt(key, value, 1, 4_000_000)
		c.HIDBaudRate = uint(rate)
	case "HID_TX_POWER":
		c.HIDTxPower, err = parseInt(key, value, -12, 9)

	// Timing
	case "POLL_INTERVAL_US":
		c.PollIntervalUS, err = parseInt(key, value, 0, 1_000_000)
	case "VERBOSE_POLL_INTERVAL_MS":
		c.VerbosePollIntervalMS, err = parseInt(key, value, 0, 60_000)
	case "INIT_RETRY_INTERVAL_MS":
		c.InitRetryIntervalMS, err = parseInt(key, value, 1, 60_000)

	// Update channel
	case "OTA_HOSTNAME":
		c.OTAHostname = value
	case "OTA_LISTEN_ADDR":
		c.OTAListenAddr = value
	case "OTA_PASSWORD":
		c.OTAPassword = value
	case "OTA_STAGING_PATH":
		c.OTAStagingPath = value
	case "REBOOT_DELAY_MS":
		c.RebootDelayMS, err = parseInt(key, value, 0, 600_000)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_PREFIX":
		c.TopicPrefix = strings.TrimSuffix(value, "/")

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_I2C_ADDR":
		var addr uint16
		if addr, err = parseAddr(key, value); err == nil && addr != displayAddr {
			err = fmt.Errorf("DISPLAY_I2C_ADDR is fixed at 0x%02X by the ssd1306 driver, got 0x%02X", displayAddr, addr)
		}
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value, 10, 60_000)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// Validate checks that the configuration is consistent.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("DEVICE_NAME is required")
	}
	if c.NumButtons != LegacyButtons && c.NumButtons != ExtendedButtons {
		return fmt.Errorf("NUM_BUTTONS must be %d or %d, got %d", LegacyButtons, ExtendedButtons, c.NumButtons)
	}
	if free := c.NumButtons - ReservedButtons; len(c.ButtonPins) > free {
		return fmt.Errorf("BUTTON_PINS has %d pins but only %d report slots are free with NUM_BUTTONS=%d",
			len(c.ButtonPins), free, c.NumButtons)
	}
	if c.EnableTilt && c.TiltPin == "" {
		return fmt.Errorf("TILT_PIN is required when ENABLE_TILT is set")
	}
	if c.HIDSerialPort == "" {
		return fmt.Errorf("HID_SERIAL_PORT is required")
	}
	if c.HIDBaudRate == 0 {
		return fmt.Errorf("HID_BAUD_RATE is required")
	}
	if c.OTAListenAddr == "" {
		return fmt.Errorf("OTA_LISTEN_ADDR is required")
	}
	return nil
}

// PollInterval is the pause between operational cycles.
func (c *Config) PollInterval() time.Duration {
	if c.Verbose {
		return time.Duration(c.VerbosePollIntervalMS) * time.Millisecond
	}
	return time.Duration(c.PollIntervalUS) * time.Microsecond
}

// InitRetryInterval is the pause between boot ticks.
func (c *Config) InitRetryInterval() time.Duration {
	return time.Duration(c.InitRetryIntervalMS) * time.Millisecond
}

// WhammySampleDelay is the pause between whammy samples.
func (c *Config) WhammySampleDelay() time.Duration {
	return time.Duration(c.WhammySampleDelayMS) * time.Millisecond
}

// RebootDelay is how long the update channel waits before asking for a restart.
func (c *Config) RebootDelay() time.Duration {
	return time.Duration(c.RebootDelayMS) * time.Millisecond
}

// DisplayInterval is the pause between display redraws.
func (c *Config) DisplayInterval() time.Duration {
	return time.Duration(c.DisplayUpdateInterval) * time.Millisecond
}

// Topic joins the configured prefix with a topic suffix.
func (c *Config) Topic(suffix string) string {
	return c.TopicPrefix + "/" + suffix
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads the file.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
