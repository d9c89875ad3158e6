// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// DescribeNoise explains, in a few words, why line was skipped. It is only
// meant for debug logs; an empty result means the line is a valid record.
func DescribeNoise(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "empty line"
	}

	// Some tags forward their GNSS receiver's NMEA output on the same UART.
	if strings.HasPrefix(trimmed, "$") || strings.HasPrefix(trimmed, "!") {
		sentence, err := nmea.Parse(trimmed)
		if err != nil {
			return fmt.Sprintf("bad nmea sentence: %v", err)
		}
		return fmt.Sprintf("nmea %s sentence", sentence.DataType())
	}

	if _, err := DecodeErr(trimmed); err != nil {
		return err.Error()
	}
	return ""
}
