// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display renders the controller state on an SSD1306 OLED.
package display

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/guitar_controller/internal/neck"
	"github.com/relabs-tech/guitar_controller/internal/telemetry"
)

const (
	width  = 128
	height = 64
)

// Drawer is the part of the OLED driver the screen uses.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Screen keeps the latest snapshot and redraws it on a ticker.
type Screen struct {
	dev Drawer

	mu    sync.RWMutex
	state telemetry.State
	have  bool
}

// Addr is the bus address of the display. The ssd1306 driver does not
// take another one.
const Addr = 0x3C

// Open initializes the 128x64 display on bus.
func Open(bus i2c.Bus) (*Screen, error) {
	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("display: ssd1306 at 0x%02X: %w", Addr, err)
	}
	log.Printf("display: initialized at 0x%02X", Addr)
	return NewScreen(dev), nil
}

// NewScreen wraps an already initialized display.
func NewScreen(dev Drawer) *Screen {
	return &Screen{dev: dev}
}

// Observe stores a snapshot for the next redraw.
func (s *Screen) Observe(st telemetry.State) {
	s.mu.Lock()
	s.state = st
	s.have = true
	s.mu.Unlock()
}

// Run shows the splash screen and then redraws every interval until ctx is
// done.
func (s *Screen) Run(ctx context.Context, interval time.Duration, name string) error {
	if err := s.dev.Draw(s.dev.Bounds(), Splash(name), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			return s.dev.Draw(s.dev.Bounds(), blank(), image.Point{})
		case <-ticker.C:
			if err := s.Refresh(); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

// Refresh draws the latest snapshot.
func (s *Screen) Refresh() error {
	s.mu.RLock()
	st, have := s.state, s.have
	s.mu.RUnlock()

	return s.dev.Draw(s.dev.Bounds(), Render(st, have), image.Point{})
}

func blank() *image1bit.VerticalLSB {
	return image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))
}

func drawText(img draw.Image, y int, text string) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, y),
	}
	drawer.DrawString(text)
}

// Splash is shown while the controller boots.
func Splash(name string) *image1bit.VerticalLSB {
	img := blank()
	drawText(img, 26, name)
	drawText(img, 43, "Booting...")
	return img
}

// Render draws a snapshot: mode and link on top, one box per fret, then
// whammy and pitch.
func Render(st telemetry.State, have bool) *image1bit.VerticalLSB {
	img := blank()
	if !have {
		drawText(img, 26, "Guitar")
		drawText(img, 39, "Waiting...")
		return img
	}

	link := "no host"
	if st.Connected {
		link = "linked"
	}
	drawText(img, 11, fmt.Sprintf("%-11s %s", st.Mode, link))
	drawFrets(img, st.Buttons)
	drawText(img, 49, fmt.Sprintf("W:%6d", st.Whammy))
	drawText(img, 62, fmt.Sprintf("P:%6.1f R:%6.1f", st.Pose.Pitch, st.Pose.Roll))
	return img
}

// drawFrets draws one box per fret, filled while held.
func drawFrets(img *image1bit.VerticalLSB, buttons []bool) {
	const (
		boxW = 20
		boxH = 18
		top  = 16
		gap  = (width - neck.NumFrets*boxW) / (neck.NumFrets + 1)
	)
	for f := 0; f < neck.NumFrets; f++ {
		x0 := gap + f*(boxW+gap)
		r := image.Rect(x0, top, x0+boxW, top+boxH)
		held := f < len(buttons) && buttons[f]
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				edge := x == r.Min.X || x == r.Max.X-1 || y == r.Min.Y || y == r.Max.Y-1
				if held || edge {
					img.SetBit(x, y, image1bit.On)
				}
			}
		}
	}
}
