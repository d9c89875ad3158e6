// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeClient implements only what MQTTSink uses; other methods panic.
type fakeClient struct {
	mqtt.Client
	msgs         []published
	err          error
	disconnected bool
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.msgs = append(f.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{err: f.err}
}

func (f *fakeClient) Disconnect(quiesce uint) { f.disconnected = true }

var testTopics = Topics{Location: "telemetry/location", Raw: "telemetry/raw", Debug: "telemetry/debug"}

func TestMQTTSink_PublishesJSON(t *testing.T) {
	client := &fakeClient{}
	s := NewMQTTSink(client, testTopics, zerolog.Nop())

	if err := s.ShowLocation(Position{X: 1.5, Y: -2, Mode: "IMU"}); err != nil {
		t.Fatalf("location: %v", err)
	}
	if err := s.ShowRaw(telemetry.Raw{AccelZ: 9.5, SamplingRate: 100}); err != nil {
		t.Fatalf("raw: %v", err)
	}
	if err := s.ShowDebug(telemetry.DebugMessage{Body: "hi", Data: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("debug: %v", err)
	}

	if len(client.msgs) != 3 {
		t.Fatalf("expected 3 publishes, got %d", len(client.msgs))
	}
	if client.msgs[0].topic != "telemetry/location" || !client.msgs[0].retained {
		t.Fatalf("unexpected location publish %+v", client.msgs[0])
	}
	var p Position
	if err := json.Unmarshal(client.msgs[0].payload, &p); err != nil {
		t.Fatalf("unmarshal position: %v", err)
	}
	if p != (Position{X: 1.5, Y: -2, Mode: "IMU"}) {
		t.Fatalf("unexpected position payload %+v", p)
	}

	var raw map[string]any
	if err := json.Unmarshal(client.msgs[1].payload, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["accel_z"] != 9.5 || raw["sampling_rate"] != float64(100) {
		t.Fatalf("unexpected raw payload %v", raw)
	}
	if client.msgs[2].topic != "telemetry/debug" {
		t.Fatalf("unexpected debug topic %q", client.msgs[2].topic)
	}
}

func TestMQTTSink_EmptyTopicDisablesKind(t *testing.T) {
	client := &fakeClient{}
	s := NewMQTTSink(client, Topics{Location: "loc"}, zerolog.Nop())

	if err := s.ShowRaw(telemetry.Raw{}); err != nil {
		t.Fatalf("raw: %v", err)
	}
	if len(client.msgs) != 0 {
		t.Fatalf("expected no publish for empty topic, got %d", len(client.msgs))
	}
}

func TestMQTTSink_PublishError(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	s := NewMQTTSink(client, testTopics, zerolog.Nop())

	if err := s.ShowLocation(Position{}); err == nil {
		t.Fatalf("expected publish error")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !client.disconnected {
		t.Fatalf("expected disconnect on close")
	}
}
