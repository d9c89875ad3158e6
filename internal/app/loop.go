// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

// Position is what the display shows for one location fix.
type Position struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Mode string  `json:"mode"`
}

// Origin is the zero reference subtracted from every location once latched.
type Origin struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// LoopOptions are fixed at startup.
type LoopOptions struct {
	// ModeFilter, when set, drops locations whose mode differs
	// (case-sensitive). A set empty filter passes only empty modes.
	ModeFilter *string
	// Rezero latches the first location that passes the filter as origin.
	Rezero bool
}

// Stats counts what the loop has seen. Counters never influence processing.
type Stats struct {
	Lines    uint64 `json:"lines"`
	Decoded  uint64 `json:"decoded"`
	Skipped  uint64 `json:"skipped"`
	Filtered uint64 `json:"filtered"`
}

// LineSource is the read side of the device connector.
type LineSource interface {
	ReadLine() (string, error)
}

// Loop is the processing state machine. It is driven from a single
// goroutine and needs no locking.
type Loop struct {
	opts  LoopOptions
	sinks []Sink
	log   zerolog.Logger

	zero  *Origin // nil until latched, never changed afterward
	stats Stats
}

func NewLoop(opts LoopOptions, log zerolog.Logger, sinks ...Sink) *Loop {
	return &Loop{
		opts:  opts,
		sinks: sinks,
		log:   log.With().Str("component", "loop").Logger(),
	}
}

// Run reads, decodes and handles lines until src fails. Undecodable lines
// are skipped. io.EOF ends the stream cleanly and yields nil.
func (l *Loop) Run(src LineSource) error {
	for {
		line, err := src.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.log.Info().Msg("end of stream")
				return nil
			}
			return err
		}
		l.HandleLine(line)
	}
}

// HandleLine decodes one raw line and handles the result.
func (l *Loop) HandleLine(line string) {
	defer l.report()
	l.stats.Lines++
	m, ok := telemetry.Decode(line)
	l.observe(line, m)
	if !ok {
		l.stats.Skipped++
		if e := l.log.Debug(); e.Enabled() {
			e.Str("line", line).Str("reason", telemetry.DescribeNoise(line)).Msg("skipping line")
		}
		return
	}
	l.stats.Decoded++
	l.Handle(m)
}

// Handle dispatches one decoded message.
func (l *Loop) Handle(m telemetry.Message) {
	switch m := m.(type) {
	case telemetry.DebugMessage:
		l.log.Info().Interface("data", m.Data).Msgf("Debug: %s", m.Body)
		l.each(func(s Sink) error { return s.ShowDebug(m) })
	case telemetry.Raw:
		l.log.Info().
			Float32("accel_x", m.AccelX).Float32("accel_y", m.AccelY).Float32("accel_z", m.AccelZ).
			Float32("gyro_x", m.GyroX).Float32("gyro_y", m.GyroY).Float32("gyro_z", m.GyroZ).
			Float32("mag_x", m.MagX).Float32("mag_y", m.MagY).Float32("mag_z", m.MagZ).
			Uint64("sampling_rate", m.SamplingRate).
			Msg("Raw")
		l.each(func(s Sink) error { return s.ShowRaw(m) })
	case telemetry.Location:
		l.handleLocation(m)
	default:
		l.log.Warn().Msgf("unhandled message type %T", m)
	}
}

func (l *Loop) handleLocation(loc telemetry.Location) {
	// The filter runs first so a dropped fix can never seed the origin.
	if f := l.opts.ModeFilter; f != nil && *f != loc.Mode {
		l.stats.Filtered++
		return
	}

	if l.opts.Rezero && l.zero == nil {
		l.log.Info().Msgf("Applying new zero position X: %.2f, Y: %.2f", loc.X, loc.Y)
		l.zero = &Origin{X: loc.X, Y: loc.Y}
	}

	pos := Position{X: loc.X, Y: loc.Y, Mode: loc.Mode}
	if l.zero != nil {
		pos.X -= l.zero.X
		pos.Y -= l.zero.Y
	}
	l.each(func(s Sink) error { return s.ShowLocation(pos) })
}

// Zero returns the latched origin, if any.
func (l *Loop) Zero() (Origin, bool) {
	if l.zero == nil {
		return Origin{}, false
	}
	return *l.zero, true
}

func (l *Loop) Stats() Stats {
	return l.stats
}

// Status snapshots the counters and origin.
func (l *Loop) Status() Status {
	st := Status{Stats: l.stats}
	if l.zero != nil {
		z := *l.zero
		st.Zero = &z
	}
	return st
}

func (l *Loop) each(fn func(Sink) error) {
	for _, s := range l.sinks {
		if err := fn(s); err != nil {
			l.log.Warn().Err(err).Str("sink", s.Name()).Msg("sink error")
		}
	}
}

func (l *Loop) observe(line string, m telemetry.Message) {
	for _, s := range l.sinks {
		if o, ok := s.(LineObserver); ok {
			if err := o.ObserveLine(line, m); err != nil {
				l.log.Warn().Err(err).Str("sink", s.Name()).Msg("sink error")
			}
		}
	}
}

func (l *Loop) report() {
	var st *Status
	for _, s := range l.sinks {
		o, ok := s.(StatusObserver)
		if !ok {
			continue
		}
		if st == nil {
			v := l.Status()
			st = &v
		}
		if err := o.ObserveStatus(*st); err != nil {
			l.log.Warn().Err(err).Str("sink", s.Name()).Msg("sink error")
		}
	}
}
