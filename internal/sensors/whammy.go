// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

var adcChannels = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// Whammy reads the whammy bar potentiometer through an ADS1015.
type Whammy struct {
	pin ads1x15.PinADC
}

// OpenWhammy opens the ADC at addr and selects the single-ended channel.
func OpenWhammy(bus i2c.Bus, addr uint16, channel int) (*Whammy, error) {
	if channel < 0 || channel >= len(adcChannels) {
		return nil, fmt.Errorf("whammy: invalid ADC channel %d", channel)
	}

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = addr
	adc, err := ads1x15.NewADS1015(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("whammy: ADS1015 at 0x%02X: %w", addr, err)
	}

	pin, err := adc.PinForChannel(adcChannels[channel], 4096*physic.MilliVolt, 1600*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("whammy: channel %d: %w", channel, err)
	}
	return &Whammy{pin: pin}, nil
}

// Read returns one raw conversion.
func (w *Whammy) Read() (int, error) {
	s, err := w.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("whammy read: %w", err)
	}
	return int(s.Raw), nil
}
