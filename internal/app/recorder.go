// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

type captureRecord struct {
	TS         string `json:"ts"`
	Line       string `json:"line"`
	Recognized bool   `json:"recognized"`
	Kind       string `json:"kind,omitempty"`
}

// Recorder captures every received line, decoded or not, as JSONL. Each
// record wraps the wire line, so replaying a session needs it unwrapped
// first: jq -r .line capture.jsonl | telemetry_ui -p -
type Recorder struct {
	enc    *json.Encoder
	closer io.Closer
	now    func() time.Time
}

func NewRecorder(w io.Writer) *Recorder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	r := &Recorder{enc: enc, now: time.Now}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// OpenRecorder writes to path, rotating once the file reaches maxMB.
func OpenRecorder(path string, maxMB int) (*Recorder, error) {
	if path == "" {
		return nil, errors.New("recorder: empty path")
	}
	return NewRecorder(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxMB,
		MaxBackups: 3,
	}), nil
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) ObserveLine(line string, m telemetry.Message) error {
	rec := captureRecord{
		TS:   r.now().UTC().Format(time.RFC3339Nano),
		Line: line,
	}
	if m != nil {
		rec.Recognized = true
		rec.Kind = m.Type()
	}
	return r.enc.Encode(rec)
}

func (r *Recorder) ShowLocation(Position) error { return nil }

func (r *Recorder) ShowRaw(telemetry.Raw) error { return nil }

func (r *Recorder) ShowDebug(telemetry.DebugMessage) error { return nil }

func (r *Recorder) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
