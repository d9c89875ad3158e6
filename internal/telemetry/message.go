// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry defines the messages a tracking device emits on its
// serial line and the line codec for them.
//
// Every record is a single JSON object whose "type" field selects one of
// three shapes:
//
//	{"type":"LOC","x":1.5,"y":2.5,"h":0.3,"mode":"IMU","update_rate":100}
//	{"type":"RAW","accel_x":0.1,...,"mag_z":42.0,"sampling_rate":200}
//	{"type":"MSG","body":"boot","data":{"fw":"1.2.0"}}
package telemetry

// Wire discriminators.
const (
	TypeLocation = "LOC"
	TypeRaw      = "RAW"
	TypeDebug    = "MSG"
)

// Message is one decoded record. The set of implementations is closed:
// Location, Raw and DebugMessage.
type Message interface {
	// Type returns the wire discriminator.
	Type() string
	sealed()
}

// Location is a positioning fix.
type Location struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	// H is heading/elevation, nil when the device did not send it.
	H          *float32 `json:"h,omitempty"`
	Mode       string   `json:"mode"` // free-form, e.g. "IMU", "GPS", "UWB"
	UpdateRate uint64   `json:"update_rate"`
}

// Raw is a 9-axis sensor sample.
type Raw struct {
	AccelX float32 `json:"accel_x"`
	AccelY float32 `json:"accel_y"`
	AccelZ float32 `json:"accel_z"`

	GyroX float32 `json:"gyro_x"`
	GyroY float32 `json:"gyro_y"`
	GyroZ float32 `json:"gyro_z"`

	MagX float32 `json:"mag_x"`
	MagY float32 `json:"mag_y"`
	MagZ float32 `json:"mag_z"`

	SamplingRate uint64 `json:"sampling_rate"`
}

// DebugMessage is free text from the firmware plus key/value attributes.
// A nil and an empty Data are the same record: both encode as {} and {}
// decodes to nil.
type DebugMessage struct {
	Body string            `json:"body"`
	Data map[string]string `json:"data"`
}

func (Location) Type() string     { return TypeLocation }
func (Raw) Type() string          { return TypeRaw }
func (DebugMessage) Type() string { return TypeDebug }

func (Location) sealed()     {}
func (Raw) sealed()          {}
func (DebugMessage) sealed() {}

// Float32 returns a pointer to v, handy for Location.H literals.
func Float32(v float32) *float32 {
	return &v
}
