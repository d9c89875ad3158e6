// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim generates a synthetic device stream for running the viewer
// without hardware.
package sim

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

// Options control what the simulated device emits. Every counter is in
// location ticks; zero disables that record kind.
type Options struct {
	Modes        []string // cycled one per location, default IMU
	Rate         float64  // location records per second, default 10, at most MaxRate
	Heading      bool     // include h
	RawEvery     int
	DebugEvery   int
	GarbageEvery int
}

// MaxRate is the fastest supported tick rate, one location per millisecond.
const MaxRate = 1000

// Source is deterministic: the same Options always yield the same lines.
// Time is simulated from the tick counter and Rate, never the wall clock.
type Source struct {
	opts Options
	tick int
}

func New(opts Options) *Source {
	if len(opts.Modes) == 0 {
		opts.Modes = []string{"IMU"}
	}
	switch {
	case !(opts.Rate > 0): // also catches NaN
		opts.Rate = 10
	case opts.Rate > MaxRate:
		opts.Rate = MaxRate
	}
	return &Source{opts: opts}
}

// Rate is the effective tick rate after defaults and clamping.
func (s *Source) Rate() float64 { return s.opts.Rate }

// Interval is the time between ticks, never below one millisecond.
func (s *Source) Interval() time.Duration {
	return time.Duration(float64(time.Second) / s.opts.Rate)
}

// Next returns the lines for one tick, without terminators. The location
// always comes first.
func (s *Source) Next() ([]string, error) {
	n := s.tick
	s.tick++
	elapsed := float64(n) / s.opts.Rate

	lines := make([]string, 0, 4)

	loc := s.location(n, elapsed)
	b, err := telemetry.Encode(loc)
	if err != nil {
		return nil, err
	}
	lines = append(lines, string(b))

	if every(n, s.opts.RawEvery) {
		b, err := telemetry.Encode(s.raw(elapsed))
		if err != nil {
			return nil, err
		}
		lines = append(lines, string(b))
	}

	if every(n, s.opts.DebugEvery) {
		b, err := telemetry.Encode(telemetry.DebugMessage{
			Body: "heartbeat",
			Data: map[string]string{
				"tick": strconv.Itoa(n),
				"mode": loc.Mode,
			},
		})
		if err != nil {
			return nil, err
		}
		lines = append(lines, string(b))
	}

	if every(n, s.opts.GarbageEvery) {
		lines = append(lines, garbage(n))
	}

	return lines, nil
}

// location walks the smooth path of the bench mock: an ellipse with a
// slowly drifting phase on y.
func (s *Source) location(n int, elapsed float64) telemetry.Location {
	loc := telemetry.Location{
		X:          float32(20 * math.Sin(elapsed)),
		Y:          float32(15 * math.Cos(elapsed*0.7)),
		Mode:       s.opts.Modes[n%len(s.opts.Modes)],
		UpdateRate: uint64(math.Round(s.opts.Rate)),
	}
	if s.opts.Heading {
		loc.H = telemetry.Float32(float32(math.Mod(elapsed*30, 360)))
	}
	return loc
}

func (s *Source) raw(elapsed float64) telemetry.Raw {
	return telemetry.Raw{
		AccelX: float32(0.2 * math.Sin(elapsed)),
		AccelY: float32(0.1 * math.Cos(elapsed)),
		AccelZ: 9.81,
		GyroX:  float32(math.Cos(elapsed)),
		GyroY:  float32(-0.7 * math.Sin(elapsed*0.7)),
		GyroZ:  30,
		MagX:   float32(25 * math.Cos(elapsed*math.Pi/6)),
		MagY:   float32(-25 * math.Sin(elapsed*math.Pi/6)),
		MagZ:   -40,

		SamplingRate: uint64(math.Round(s.opts.Rate)),
	}
}

func every(n, k int) bool {
	return k > 0 && n%k == k-1
}

// garbage alternates the kinds of noise seen on a shared serial line.
func garbage(n int) string {
	switch n % 3 {
	case 0:
		return `{"type":"LOC","x":1.5,"y`
	case 1:
		return "$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39"
	default:
		return fmt.Sprintf("boot: tick %d", n)
	}
}
