// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

type fakeScreen struct {
	mu     sync.Mutex
	frames []*image1bit.VerticalLSB
	halted bool
	err    error
}

func (f *fakeScreen) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, src.(*image1bit.VerticalLSB))
	return f.err
}

func (f *fakeScreen) Halt() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.halted = true
	return nil
}

func (f *fakeScreen) snapshot() (int, *image1bit.VerticalLSB) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return 0, nil
	}
	return len(f.frames), f.frames[len(f.frames)-1]
}

// waitForFrame polls until the last drawn frame equals want.
func waitForFrame(t *testing.T, dev *fakeScreen, want *image1bit.VerticalLSB) int {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n, last := dev.snapshot(); last != nil && bytes.Equal(last.Pix, want.Pix) {
			return n
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("display never showed the expected frame")
	return 0
}

func litPixels(pix []byte) int {
	n := 0
	for _, b := range pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestRenderPosition(t *testing.T) {
	waiting := renderPosition(Position{}, false)
	if got := waiting.Bounds(); got != image.Rect(0, 0, oledWidth, oledHeight) {
		t.Fatalf("unexpected bounds %v", got)
	}
	if litPixels(waiting.Pix) == 0 {
		t.Fatalf("waiting frame is blank")
	}

	a := renderPosition(Position{X: 1, Y: 2, Mode: "IMU"}, true)
	b := renderPosition(Position{X: 1, Y: 2, Mode: "IMU"}, true)
	c := renderPosition(Position{X: -31.5, Y: 2, Mode: "IMU"}, true)

	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("rendering is not deterministic")
	}
	if bytes.Equal(a.Pix, c.Pix) {
		t.Fatalf("different positions rendered identically")
	}
	if bytes.Equal(a.Pix, waiting.Pix) {
		t.Fatalf("position frame equals waiting frame")
	}
}

func TestOLEDSink_ShowsLastFixOfBurst(t *testing.T) {
	dev := &fakeScreen{}
	s := newOLEDSink(dev, time.Millisecond, zerolog.Nop())
	defer s.Close()

	// A burst followed by silence: the last fix must end up on screen.
	for i := 0; i < 50; i++ {
		s.ShowLocation(Position{X: float32(i), Y: 1, Mode: "IMU"})
	}
	last := Position{X: 49, Y: 1, Mode: "IMU"}
	n := waitForFrame(t, dev, renderPosition(last, true))

	if n >= 50 {
		t.Fatalf("expected the burst to be coalesced, got %d frames", n)
	}

	// Nothing changed, so nothing is redrawn.
	time.Sleep(20 * time.Millisecond)
	if got, _ := dev.snapshot(); got != n {
		t.Fatalf("redrew an unchanged position: %d frames, was %d", got, n)
	}

	// A fix arriving after silence is drawn too.
	next := Position{X: -3, Y: 4, Mode: "GPS"}
	s.ShowLocation(next)
	waitForFrame(t, dev, renderPosition(next, true))
}

func TestOLEDSink_DrawErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	dev := &fakeScreen{err: errors.New("i2c nack")}
	s := newOLEDSink(dev, time.Millisecond, zerolog.New(&buf))

	if err := s.ShowLocation(Position{X: 1}); err != nil {
		t.Fatalf("show: %v", err)
	}
	waitForFrame(t, dev, renderPosition(Position{X: 1}, true))

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.Contains(buf.String(), "i2c nack") {
		t.Fatalf("expected draw error in log, got %q", buf.String())
	}
}

func TestOLEDSink_CloseStopsRedraws(t *testing.T) {
	dev := &fakeScreen{}
	s := newOLEDSink(dev, time.Millisecond, zerolog.Nop())

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !dev.halted {
		t.Fatalf("expected display halted on close")
	}

	s.ShowLocation(Position{X: 7})
	time.Sleep(10 * time.Millisecond)
	if n, _ := dev.snapshot(); n != 0 {
		t.Fatalf("drew %d frames after close", n)
	}
}
