// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

func TestRecorder_CapturesEveryLine(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	rec.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	l := NewLoop(LoopOptions{}, zerolog.Nop(), rec)
	src := &sliceSource{lines: []string{
		locLine(t, 1, 2, "IMU"),
		"garbage <b>",
		`{"type":"MSG","body":"hi","data":{}}`,
	}}
	if err := l.Run(src); err != nil {
		t.Fatalf("run: %v", err)
	}

	var got []captureRecord
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var r captureRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad jsonl line %q: %v", sc.Text(), err)
		}
		got = append(got, r)
	}

	ts := "2026-01-02T03:04:05Z"
	want := []captureRecord{
		{TS: ts, Line: locLine(t, 1, 2, "IMU"), Recognized: true, Kind: "LOC"},
		{TS: ts, Line: "garbage <b>"},
		{TS: ts, Line: `{"type":"MSG","body":"hi","data":{}}`, Recognized: true, Kind: "MSG"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("capture mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenRecorder_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.jsonl")
	rec, err := OpenRecorder(path, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := rec.ObserveLine("hello", nil); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"line":"hello"`) || !strings.Contains(string(data), `"recognized":false`) {
		t.Fatalf("unexpected capture %q", data)
	}
}

func TestOpenRecorder_EmptyPath(t *testing.T) {
	if _, err := OpenRecorder("", 1); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestRecorder_UnwrappedCaptureReplays(t *testing.T) {
	var capture bytes.Buffer
	live := &recordingSink{}
	lines := []string{
		locLine(t, 4, 5, "UWB"),
		"$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39",
		locLine(t, 6, 7, "UWB"),
	}
	if err := NewLoop(LoopOptions{}, zerolog.Nop(), NewRecorder(&capture), live).Run(&sliceSource{lines: lines}); err != nil {
		t.Fatalf("run: %v", err)
	}

	// The wrapped records are not wire lines themselves.
	var unwrapped []string
	sc := bufio.NewScanner(&capture)
	for sc.Scan() {
		if _, ok := telemetry.Decode(sc.Text()); ok {
			t.Fatalf("capture record decoded as telemetry: %s", sc.Text())
		}
		var r captureRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("bad jsonl line %q: %v", sc.Text(), err)
		}
		unwrapped = append(unwrapped, r.Line)
	}

	replayed := &recordingSink{}
	if err := NewLoop(LoopOptions{}, zerolog.Nop(), replayed).Run(&sliceSource{lines: unwrapped}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if diff := cmp.Diff(live.positions, replayed.positions); diff != "" {
		t.Fatalf("replay mismatch (-live +replayed):\n%s", diff)
	}
}
