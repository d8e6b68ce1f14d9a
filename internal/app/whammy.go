// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

// WhammyAxisMax is the magnitude of the axis at either end of the bar's
// travel.
const WhammyAxisMax = 32737

// MapWhammy maps an averaged raw ADC reading onto the X axis. The mapping is
// inverted: 0 gives +WhammyAxisMax and rawMax gives -WhammyAxisMax. Readings
// outside [0, rawMax] are clamped.
func MapWhammy(avg, rawMax int) int16 {
	if rawMax <= 0 {
		return 0
	}
	if avg < 0 {
		avg = 0
	}
	if avg > rawMax {
		avg = rawMax
	}
	return int16(WhammyAxisMax - avg*2*WhammyAxisMax/rawMax)
}

// sampleWhammy averages n readings taken delay apart.
func (c *Controller) sampleWhammy() (int16, error) {
	n := c.opts.WhammySamples
	if n < 1 {
		n = 1
	}
	sum := 0
	for i := 0; i < n; i++ {
		if i > 0 {
			c.clock.Sleep(c.opts.WhammySampleDelay)
		}
		raw, err := c.dev.Whammy.Read()
		if err != nil {
			return 0, err
		}
		sum += raw
	}
	return MapWhammy(sum/n, c.opts.WhammyRawMax), nil
}
