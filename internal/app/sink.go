// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"go.uber.org/multierr"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

// Sink receives everything the loop emits. Calls happen on the loop
// goroutine, one at a time, in wire order. A returned error is logged and
// never stops the loop.
type Sink interface {
	Name() string
	ShowLocation(Position) error
	ShowRaw(telemetry.Raw) error
	ShowDebug(telemetry.DebugMessage) error
}

// LineObserver sinks additionally see every received line, decoded or not.
// m is nil for lines that were not recognized.
type LineObserver interface {
	ObserveLine(line string, m telemetry.Message) error
}

// Status is the loop's counters plus the latched origin.
type Status struct {
	Stats Stats   `json:"stats"`
	Zero  *Origin `json:"zero,omitempty"`
}

// StatusObserver sinks get a status snapshot after every line.
type StatusObserver interface {
	ObserveStatus(Status) error
}

type closer interface {
	Close() error
}

// closeSinks closes every sink that holds resources.
func closeSinks(sinks []Sink) error {
	var err error
	for _, s := range sinks {
		if c, ok := s.(closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
