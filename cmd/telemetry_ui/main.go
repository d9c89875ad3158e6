// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/telemetry_ui/internal/app"
	"github.com/relabs-tech/telemetry_ui/internal/config"
	"github.com/relabs-tech/telemetry_ui/internal/logging"
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"port":         "SERIAL_PORT",
	"baud":         "BAUD_RATE",
	"rezero":       "REZERO",
	"init-command": "INIT_COMMAND",
	"mode-filter":  "MODE_FILTER",
	"log-level":    "LOG_LEVEL",
	"mqtt-broker":  "MQTT_BROKER",
	"web-port":     "WEB_SERVER_PORT",
	"display":      "DISPLAY_ENABLED",
	"record":       "RECORD_PATH",
}

func main() {
	cliApp := &cli.App{
		Name:  "telemetry-ui",
		Usage: "display position telemetry from a serial device",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE` (KEY=VALUE, or .yaml)",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   "/dev/serial0",
				Usage:   "serial `DEVICE`, or - for stdin/stdout",
			},
			&cli.IntFlag{
				Name:    "baud",
				Aliases: []string{"b"},
				Value:   115200,
				Usage:   "baud rate",
			},
			&cli.BoolFlag{
				Name:    "rezero",
				Aliases: []string{"z"},
				Usage:   "use the first location as the zero reference",
			},
			&cli.StringFlag{
				Name:    "init-command",
				Aliases: []string{"i"},
				Usage:   "send `COMMAND` to the device once at startup",
			},
			&cli.StringFlag{
				Name:    "mode-filter",
				Aliases: []string{"m"},
				Usage:   "only show locations with this `MODE`",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "trace, debug, info, warn, error or off",
			},
			&cli.StringFlag{
				Name:  "mqtt-broker",
				Usage: "republish telemetry to `URL`, e.g. tcp://localhost:1883",
			},
			&cli.IntFlag{
				Name:  "web-port",
				Usage: "serve the live view on `PORT`",
			},
			&cli.BoolFlag{
				Name:  "display",
				Usage: "show the position on an SSD1306 OLED",
			},
			&cli.StringFlag{
				Name:  "record",
				Usage: "capture every received line to `FILE` as JSONL",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if err := config.InitGlobal(c.String("config"), overrides(c)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg := config.Get()

	// The position line owns stdout.
	logger, err := logging.New(os.Stderr, "telemetry-ui", cfg.LogLevel)
	if err != nil {
		return err
	}

	ev := logger.Info().
		Str("port", cfg.SerialPort).
		Int("baud", cfg.BaudRate).
		Bool("rezero", cfg.Rezero)
	if cfg.ModeFilter != nil {
		ev = ev.Str("mode_filter", *cfg.ModeFilter)
	}
	ev.Msg("starting telemetry viewer")

	return app.RunUI(cfg, logger)
}

// overrides collects only the flags given explicitly, so flag defaults
// never mask values from the config file.
func overrides(c *cli.Context) map[string]string {
	out := map[string]string{}
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		switch flag {
		case "baud", "web-port":
			out[key] = strconv.Itoa(c.Int(flag))
		case "rezero", "display":
			out[key] = strconv.FormatBool(c.Bool(flag))
		default:
			out[key] = c.String(flag)
		}
	}
	return out
}
