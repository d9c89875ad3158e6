// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

func TestWebSink_LocationEndpoint(t *testing.T) {
	s := NewWebSink(zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/location")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first fix, got %d", resp.StatusCode)
	}

	want := Position{X: 2, Y: -1, Mode: "IMU"}
	if err := s.ShowLocation(want); err != nil {
		t.Fatalf("show: %v", err)
	}

	resp, err = http.Get(srv.URL + "/api/location")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var got Position
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("position mismatch (-want +got):\n%s", diff)
	}
}

func TestWebSink_StatusEndpoint(t *testing.T) {
	s := NewWebSink(zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	want := Status{Stats: Stats{Lines: 4, Decoded: 3, Skipped: 1}, Zero: &Origin{X: 10, Y: 10}}
	if err := s.ObserveStatus(want); err != nil {
		t.Fatalf("observe: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestWebSink_WebsocketPush(t *testing.T) {
	s := NewWebSink(zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Close()

	first := Position{X: 1, Y: 1, Mode: "GPS"}
	s.ShowLocation(first)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// The current position arrives on connect, after registration.
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if ev.Kind != telemetry.TypeLocation || ev.Position == nil || *ev.Position != first {
		t.Fatalf("unexpected initial event %+v", ev)
	}

	s.ShowDebug(telemetry.DebugMessage{Body: "boot", Data: map[string]string{"fw": "1.2"}})
	ev = Event{}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read debug: %v", err)
	}
	if ev.Kind != telemetry.TypeDebug || ev.Debug == nil || ev.Debug.Data["fw"] != "1.2" {
		t.Fatalf("unexpected debug event %+v", ev)
	}
}
