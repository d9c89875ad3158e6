// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"fmt"
)

type locationRecord struct {
	Type string `json:"type"`
	Location
}

type rawRecord struct {
	Type string `json:"type"`
	Raw
}

type debugRecord struct {
	Type string `json:"type"`
	DebugMessage
}

// Encode renders m as a single wire record without the trailing newline.
func Encode(m Message) ([]byte, error) {
	var v any
	switch m := m.(type) {
	case Location:
		v = locationRecord{Type: TypeLocation, Location: m}
	case Raw:
		v = rawRecord{Type: TypeRaw, Raw: m}
	case DebugMessage:
		if m.Data == nil {
			// the decoder requires an object, never null
			m.Data = map[string]string{}
		}
		v = debugRecord{Type: TypeDebug, DebugMessage: m}
	default:
		return nil, fmt.Errorf("telemetry: cannot encode %T", m)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("telemetry: encode %s: %w", m.Type(), err)
	}
	return b, nil
}

// EncodeLine is Encode followed by a newline, ready to write to a port.
func EncodeLine(m Message) ([]byte, error) {
	b, err := Encode(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
