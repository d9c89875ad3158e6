// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Decode failure kinds, matchable with errors.Is.
var (
	ErrMalformed    = errors.New("malformed record")
	ErrUnknownType  = errors.New("unknown record type")
	ErrMissingField = errors.New("missing field")
	ErrFieldType    = errors.New("field type mismatch")
)

// DecodeError describes why a line is not a recognized record.
type DecodeError struct {
	Kind  error
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := "telemetry: " + e.Kind.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" %q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Decode parses one newline-stripped line. The second result is false when
// the line is not a recognized record; callers skip such lines and keep
// reading. Decode keeps no state between calls.
func Decode(line string) (Message, bool) {
	m, err := DecodeErr(line)
	if err != nil {
		return nil, false
	}
	return m, true
}

// DecodeErr is Decode with the failure reason, for diagnostics.
func DecodeErr(line string) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return nil, &DecodeError{Kind: ErrMalformed, Err: err}
	}
	if fields == nil {
		// literal null
		return nil, &DecodeError{Kind: ErrMalformed, Err: errors.New("record is null")}
	}

	r := record(fields)
	typ, err := r.str("type")
	if err != nil {
		return nil, err
	}

	switch typ {
	case TypeLocation:
		return r.location()
	case TypeRaw:
		return r.raw()
	case TypeDebug:
		return r.debug()
	default:
		return nil, &DecodeError{Kind: ErrUnknownType, Field: typ}
	}
}

// record gives exact-key, null-aware access to a JSON object's members.
// encoding/json struct decoding matches keys case-insensitively and treats
// null as "leave unchanged", neither of which the wire contract allows.
type record map[string]json.RawMessage

func (r record) lookup(name string) (json.RawMessage, bool) {
	raw, ok := r[name]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (r record) decode(name string, dst any) error {
	raw, ok := r.lookup(name)
	if !ok {
		return &DecodeError{Kind: ErrMissingField, Field: name}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &DecodeError{Kind: ErrFieldType, Field: name, Err: err}
	}
	return nil
}

func (r record) str(name string) (string, error) {
	var v string
	err := r.decode(name, &v)
	return v, err
}

func (r record) f32(name string) (float32, error) {
	var v float32
	err := r.decode(name, &v)
	return v, err
}

func (r record) optF32(name string) (*float32, error) {
	if _, ok := r.lookup(name); !ok {
		return nil, nil
	}
	v, err := r.f32(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r record) uint(name string) (uint64, error) {
	var v uint64
	err := r.decode(name, &v)
	return v, err
}

func (r record) strMap(name string) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := r.decode(name, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for k := range raw {
		v, err := record(raw).str(k)
		if err != nil {
			return nil, &DecodeError{Kind: ErrFieldType, Field: name + "." + k, Err: err}
		}
		out[k] = v
	}
	return out, nil
}

func (r record) location() (Message, error) {
	var (
		loc Location
		err error
	)
	if loc.X, err = r.f32("x"); err != nil {
		return nil, err
	}
	if loc.Y, err = r.f32("y"); err != nil {
		return nil, err
	}
	if loc.H, err = r.optF32("h"); err != nil {
		return nil, err
	}
	if loc.Mode, err = r.str("mode"); err != nil {
		return nil, err
	}
	if loc.UpdateRate, err = r.uint("update_rate"); err != nil {
		return nil, err
	}
	return loc, nil
}

func (r record) raw() (Message, error) {
	var raw Raw
	axes := []struct {
		name string
		dst  *float32
	}{
		{"accel_x", &raw.AccelX}, {"accel_y", &raw.AccelY}, {"accel_z", &raw.AccelZ},
		{"gyro_x", &raw.GyroX}, {"gyro_y", &raw.GyroY}, {"gyro_z", &raw.GyroZ},
		{"mag_x", &raw.MagX}, {"mag_y", &raw.MagY}, {"mag_z", &raw.MagZ},
	}
	for _, a := range axes {
		v, err := r.f32(a.name)
		if err != nil {
			return nil, err
		}
		*a.dst = v
	}
	rate, err := r.uint("sampling_rate")
	if err != nil {
		return nil, err
	}
	raw.SamplingRate = rate
	return raw, nil
}

func (r record) debug() (Message, error) {
	body, err := r.str("body")
	if err != nil {
		return nil, err
	}
	data, err := r.strMap("data")
	if err != nil {
		return nil, err
	}
	return DebugMessage{Body: body, Data: data}, nil
}
