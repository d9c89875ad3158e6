// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

// Topics are the MQTT topics the publisher writes to.
type Topics struct {
	Location string
	Raw      string
	Debug    string
}

// MQTTSink republishes everything the loop emits as retained JSON messages,
// so dashboards can subscribe instead of owning the serial port.
type MQTTSink struct {
	client mqtt.Client
	topics Topics
	log    zerolog.Logger
}

// ConnectMQTT connects to broker, e.g. tcp://localhost:1883.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}

func NewMQTTSink(client mqtt.Client, topics Topics, log zerolog.Logger) *MQTTSink {
	return &MQTTSink{
		client: client,
		topics: topics,
		log:    log.With().Str("component", "mqtt").Logger(),
	}
}

func (m *MQTTSink) Name() string { return "mqtt" }

func (m *MQTTSink) ShowLocation(p Position) error {
	return m.publish(m.topics.Location, p)
}

func (m *MQTTSink) ShowRaw(r telemetry.Raw) error {
	return m.publish(m.topics.Raw, r)
}

func (m *MQTTSink) ShowDebug(d telemetry.DebugMessage) error {
	return m.publish(m.topics.Debug, d)
}

func (m *MQTTSink) publish(topic string, v any) error {
	if topic == "" {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mqtt: marshal for %s: %w", topic, err)
	}

	token := m.client.Publish(topic, 0, true, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, token.Error())
	}
	m.log.Trace().Str("topic", topic).RawJSON("payload", payload).Msg("published")
	return nil
}

func (m *MQTTSink) Close() error {
	m.client.Disconnect(250)
	return nil
}
