// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/guitar_controller/internal/config"
)

// Hardware holds every device attached to the controller. Optional devices
// are nil when disabled in the configuration.
type Hardware struct {
	Bus     i2c.BusCloser
	Neck    *Neck
	MPU     *MPU6050 // nil unless ENABLE_ACCELEROMETER
	Buttons *Buttons
	Tilt    *TiltSwitch // nil unless ENABLE_TILT
	LED     *LED        // nil when LED_PIN is empty
	Whammy  *Whammy
}

// OpenBus initializes periph and opens the named I2C bus. An empty name
// selects the first bus.
func OpenBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	return bus, nil
}

// Open initializes periph and opens all devices described by cfg. Opening
// does not talk to the neck sensor yet; the handshake is retried by the
// controller.
func Open(cfg *config.Config) (*Hardware, error) {
	bus, err := OpenBus(cfg.I2CBus)
	if err != nil {
		return nil, err
	}
	hw := &Hardware{Bus: bus}

	hw.Neck = NewNeck(NewI2CPeripheral(bus, cfg.NeckI2CAddr))
	log.Printf("neck: sensor at 0x%02X on %s", cfg.NeckI2CAddr, bus)

	if cfg.EnableAccelerometer {
		hw.MPU = NewMPU6050(NewI2CPeripheral(bus, cfg.MPUI2CAddr))
		log.Printf("mpu: sensor at 0x%02X", cfg.MPUI2CAddr)
	}

	if hw.Buttons, err = OpenButtons(cfg.ButtonPins); err != nil {
		hw.Close()
		return nil, err
	}
	log.Printf("buttons: %d pins %v", len(cfg.ButtonPins), cfg.ButtonPins)

	if cfg.EnableTilt {
		if hw.Tilt, err = OpenTiltSwitch(cfg.TiltPin); err != nil {
			hw.Close()
			return nil, err
		}
		log.Printf("tilt: switch on %s", cfg.TiltPin)
	}

	if cfg.LEDPin != "" {
		if hw.LED, err = OpenLED(cfg.LEDPin); err != nil {
			hw.Close()
			return nil, err
		}
	}

	if hw.Whammy, err = OpenWhammy(bus, cfg.WhammyADCAddr, cfg.WhammyADCChannel); err != nil {
		hw.Close()
		return nil, err
	}
	log.Printf("whammy: ADS1015 at 0x%02X channel %d", cfg.WhammyADCAddr, cfg.WhammyADCChannel)

	return hw, nil
}

// Close releases the I2C bus.
func (h *Hardware) Close() error {
	if h.LED != nil {
		_ = h.LED.Set(false)
	}
	return h.Bus.Close()
}
