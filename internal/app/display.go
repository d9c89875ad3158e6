// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

const (
	oledWidth  = 128
	oledHeight = 64

	// SSD1306 over I2C tops out around 30 frames per second.
	oledUpdateInterval = 50 * time.Millisecond
)

// screen is the part of *ssd1306.Dev the sink draws to.
type screen interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// OLEDSink shows the current position on a 128x64 SSD1306. ShowLocation
// only stores the latest fix; a ticker goroutine redraws it when it changed,
// so the screen always ends on the last fix however fast they arrive.
type OLEDSink struct {
	dev screen
	bus i2c.BusCloser
	log zerolog.Logger

	mu    sync.Mutex
	pos   Position
	dirty bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewOLEDSink opens the I2C bus (empty name picks the first one), brings
// up the display at its fixed address 0x3C and shows the splash screen.
func NewOLEDSink(busName string, log zerolog.Logger) (*OLEDSink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("display: failed to open I2C bus %q: %w", busName, err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("display: failed to initialize display: %w", err)
	}

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		dev.Halt()
		bus.Close()
		return nil, fmt.Errorf("display: splash: %w", err)
	}

	s := newOLEDSink(dev, oledUpdateInterval, log)
	s.bus = bus
	return s, nil
}

func newOLEDSink(dev screen, interval time.Duration, log zerolog.Logger) *OLEDSink {
	s := &OLEDSink{
		dev:  dev,
		log:  log.With().Str("component", "display").Logger(),
		done: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run(interval)
	return s
}

func (s *OLEDSink) Name() string { return "display" }

func (s *OLEDSink) ShowLocation(p Position) error {
	s.mu.Lock()
	s.pos = p
	s.dirty = true
	s.mu.Unlock()
	return nil
}

func (s *OLEDSink) ShowRaw(telemetry.Raw) error { return nil }

func (s *OLEDSink) ShowDebug(telemetry.DebugMessage) error { return nil }

// Close stops the redraw loop, then blanks the display and releases the bus.
func (s *OLEDSink) Close() error {
	close(s.done)
	s.wg.Wait()

	err := s.dev.Halt()
	if s.bus != nil {
		if cerr := s.bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *OLEDSink) run(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.redraw()
		}
	}
}

func (s *OLEDSink) redraw() {
	s.mu.Lock()
	p, dirty := s.pos, s.dirty
	s.dirty = false
	s.mu.Unlock()

	if !dirty {
		return
	}
	img := renderPosition(p, true)
	if err := s.dev.Draw(img.Bounds(), img, image.Point{}); err != nil {
		s.log.Warn().Err(err).Msg("error updating display")
	}
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// renderPosition draws X, Y and mode on three lines, or a waiting notice
// when there is no fix yet.
func renderPosition(p Position, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("Position")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawString(fmt.Sprintf("X: %9.2f", p.X))

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawString(fmt.Sprintf("Y: %9.2f", p.Y))

	drawer.Dot = fixed.P(0, 39)
	drawer.DrawString("Mode: " + p.Mode)

	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("Telemetry UI")

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawString("Waiting for")

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawString("device")

	return img
}
