// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/telemetry_ui/internal/connector"
	"github.com/relabs-tech/telemetry_ui/internal/logging"
	"github.com/relabs-tech/telemetry_ui/internal/sim"
)

func main() {
	cliApp := &cli.App{
		Name:  "telemetry-sim",
		Usage: "emit a synthetic telemetry stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   connector.StdioPort,
				Usage:   "serial `DEVICE` to write to, or - for stdout",
			},
			&cli.IntFlag{
				Name:    "baud",
				Aliases: []string{"b"},
				Value:   115200,
				Usage:   "baud rate",
			},
			&cli.Float64Flag{
				Name:  "rate",
				Value: 10,
				Usage: "location records per second",
			},
			&cli.StringFlag{
				Name:  "modes",
				Value: "IMU",
				Usage: "comma-separated `MODES` cycled one per location",
			},
			&cli.BoolFlag{
				Name:  "heading",
				Usage: "include heading in locations",
			},
			&cli.IntFlag{Name: "raw-every", Usage: "emit a RAW record every `N` locations"},
			&cli.IntFlag{Name: "debug-every", Usage: "emit a MSG record every `N` locations"},
			&cli.IntFlag{Name: "garbage-every", Usage: "emit a noise line every `N` locations"},
			&cli.IntFlag{Name: "count", Usage: "stop after `N` locations, 0 runs forever"},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "trace, debug, info, warn, error or off",
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
	logger, err := logging.New(os.Stderr, "telemetry-sim", c.String("log-level"))
	if err != nil {
		return err
	}

	src := sim.New(sim.Options{
		Modes:        splitModes(c.String("modes")),
		Rate:         c.Float64("rate"),
		Heading:      c.Bool("heading"),
		RawEvery:     c.Int("raw-every"),
		DebugEvery:   c.Int("debug-every"),
		GarbageEvery: c.Int("garbage-every"),
	})

	conn, err := connector.Open(connector.Options{
		Port:     c.String("port"),
		BaudRate: c.Int("baud"),
	}, logger)
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer conn.Close()

	if requested := c.Float64("rate"); requested != src.Rate() {
		logger.Warn().Float64("requested", requested).Float64("rate", src.Rate()).Msg("rate adjusted")
	}

	interval := src.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Str("port", c.String("port")).Dur("interval", interval).Msg("simulating device")

	count := c.Int("count")
	for n := 0; count == 0 || n < count; n++ {
		lines, err := src.Next()
		if err != nil {
			return err
		}
		for _, line := range lines {
			if err := conn.WriteString(line + "\n"); err != nil {
				return fmt.Errorf("write device: %w", err)
			}
		}
		<-ticker.C
	}
	return nil
}

func splitModes(s string) []string {
	var modes []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			modes = append(modes, m)
		}
	}
	return modes
}
