// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"context"
	"image"
	"testing"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/guitar_controller/internal/telemetry"
)

type fakeOLED struct {
	frames []image.Image
}

func (f *fakeOLED) Bounds() image.Rectangle { return image.Rect(0, 0, width, height) }

func (f *fakeOLED) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	f.frames = append(f.frames, src)
	return nil
}

func lit(img *image1bit.VerticalLSB) int {
	n := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if img.BitAt(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func TestRenderFillsHeldFrets(t *testing.T) {
	buttons := make([]bool, 13)
	idle := lit(Render(telemetry.State{Mode: "operational", Buttons: buttons}, true))

	buttons[0] = true
	one := lit(Render(telemetry.State{Mode: "operational", Buttons: buttons}, true))
	if one <= idle {
		t.Errorf("holding green lit %d pixels, idle %d", one, idle)
	}
}

func TestRenderWaiting(t *testing.T) {
	if lit(Render(telemetry.State{}, false)) == 0 {
		t.Error("waiting screen is blank")
	}
}

func TestScreenRefreshUsesLatestState(t *testing.T) {
	oled := &fakeOLED{}
	s := NewScreen(oled)
	s.Observe(telemetry.State{Mode: "operational", Buttons: make([]bool, 13)})
	if err := s.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(oled.frames) != 1 {
		t.Fatalf("drew %d frames, want 1", len(oled.frames))
	}
}

func TestRunDrawsSplashAndClears(t *testing.T) {
	oled := &fakeOLED{}
	s := NewScreen(oled)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Hour, "gtr") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
	if len(oled.frames) != 2 {
		t.Fatalf("drew %d frames, want splash and clear", len(oled.frames))
	}
	if lit(oled.frames[1].(*image1bit.VerticalLSB)) != 0 {
		t.Error("display not cleared on exit")
	}
}
