// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

// ConsoleSink keeps the current position on one terminal line, rewriting it
// in place for every fix. Raw and debug records are left to the logger.
type ConsoleSink struct {
	w       io.Writer
	lastLen int
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (c *ConsoleSink) Name() string { return "console" }

func (c *ConsoleSink) ShowLocation(p Position) error {
	line := fmt.Sprintf(" X: %.2f Y: %.2f Mode: %s", p.X, p.Y, p.Mode)
	pad := ""
	if n := c.lastLen - len(line); n > 0 {
		// blank out the tail of a longer previous line
		pad = strings.Repeat(" ", n)
	}
	c.lastLen = len(line)
	_, err := fmt.Fprint(c.w, "\r"+line+pad)
	return err
}

func (c *ConsoleSink) ShowRaw(telemetry.Raw) error { return nil }

func (c *ConsoleSink) ShowDebug(telemetry.DebugMessage) error { return nil }
