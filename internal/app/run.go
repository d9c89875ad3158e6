// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/relabs-tech/telemetry_ui/internal/config"
	"github.com/relabs-tech/telemetry_ui/internal/connector"
)

// RunUI opens the device, sends the init command and displays telemetry
// until the stream ends or the transport fails.
func RunUI(cfg *config.Config, log zerolog.Logger) error {
	conn, err := connector.Open(connector.Options{
		Port:     cfg.SerialPort,
		BaudRate: cfg.BaudRate,
	}, log)
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer conn.Close()

	sinks, err := buildSinks(cfg, os.Stdout, log)
	if err != nil {
		return err
	}
	return runSession(cfg, conn, sinks, log)
}

func runSession(cfg *config.Config, conn *connector.Connector, sinks []Sink, log zerolog.Logger) (err error) {
	defer func() {
		err = multierr.Append(err, closeSinks(sinks))
	}()

	if cfg.InitCommand != "" {
		if err := conn.WriteString(cfg.InitCommand); err != nil {
			return fmt.Errorf("send init command: %w", err)
		}
		log.Info().Str("command", cfg.InitCommand).Msg("sent init command")
	}

	loop := NewLoop(LoopOptions{
		ModeFilter: cfg.ModeFilter,
		Rezero:     cfg.Rezero,
	}, log, sinks...)

	if err := loop.Run(conn); err != nil {
		return fmt.Errorf("read device: %w", err)
	}
	return nil
}

// buildSinks always includes the console line on out and adds every
// optional sink the config enables. Any init failure closes what was
// already built.
func buildSinks(cfg *config.Config, out io.Writer, log zerolog.Logger) (sinks []Sink, err error) {
	sinks = []Sink{NewConsoleSink(out)}
	defer func() {
		if err != nil {
			err = multierr.Append(err, closeSinks(sinks))
			sinks = nil
		}
	}()

	if cfg.RecordPath != "" {
		rec, err := OpenRecorder(cfg.RecordPath, cfg.RecordMaxSizeMB)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, rec)
		log.Info().Str("path", cfg.RecordPath).Msg("recording received lines")
	}

	if cfg.MQTTBroker != "" {
		client, err := ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, NewMQTTSink(client, Topics{
			Location: cfg.TopicLocation,
			Raw:      cfg.TopicRaw,
			Debug:    cfg.TopicDebug,
		}, log))
		log.Info().Str("broker", cfg.MQTTBroker).Msg("connected to MQTT broker")
	}

	if cfg.WebServerPort > 0 {
		web := NewWebSink(log)
		if err := web.Serve(fmt.Sprintf(":%d", cfg.WebServerPort)); err != nil {
			return sinks, err
		}
		sinks = append(sinks, web)
	}

	if cfg.DisplayEnabled {
		oled, err := NewOLEDSink(cfg.DisplayI2CBus, log)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, oled)
		log.Info().Msg("display initialized")
	}

	return sinks, nil
}
