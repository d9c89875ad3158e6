// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package connector moves raw lines between the program and the tracking
// device. It is a pass-through: no retries, no reconnects. Any I/O error is
// returned to the caller, which treats it as fatal.
package connector

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/rs/zerolog"
)

// StdioPort is the port name that selects stdin/stdout instead of a device.
const StdioPort = "-"

// Options selects the serial device.
type Options struct {
	Port     string // e.g. /dev/serial0, /dev/ttyUSB0, or "-"
	BaudRate int
}

// Connector reads newline-terminated lines from, and writes raw bytes to,
// a device stream.
type Connector struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
	log    zerolog.Logger
}

// Open opens the serial port described by opts (8N1, blocking reads).
func Open(opts Options, log zerolog.Logger) (*Connector, error) {
	if opts.Port == StdioPort {
		return New(stdio{}, log), nil
	}
	if opts.Port == "" {
		return nil, errors.New("connector: serial port is required")
	}
	if opts.BaudRate <= 0 {
		return nil, fmt.Errorf("connector: invalid baud rate %d", opts.BaudRate)
	}

	serialOpts := serial.OpenOptions{
		PortName:              opts.Port,
		BaudRate:              uint(opts.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("connector: open %s at %d baud: %w", opts.Port, opts.BaudRate, err)
	}
	log.Debug().Str("port", opts.Port).Int("baud", opts.BaudRate).Msg("serial port opened")
	return New(port, log), nil
}

// New wraps an already open stream.
func New(port io.ReadWriteCloser, log zerolog.Logger) *Connector {
	return &Connector{
		port:   port,
		reader: bufio.NewReader(port),
		log:    log.With().Str("component", "connector").Logger(),
	}
}

// ReadLine blocks until a full line is available and returns it without the
// line terminator. A final unterminated line is returned once before io.EOF.
func (c *Connector) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Write sends p to the device.
func (c *Connector) Write(p []byte) error {
	for len(p) > 0 {
		n, err := c.port.Write(p)
		if err != nil {
			return fmt.Errorf("connector: write: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("connector: write: %w", io.ErrShortWrite)
		}
		p = p[n:]
	}
	return nil
}

// WriteString sends s verbatim.
func (c *Connector) WriteString(s string) error {
	return c.Write([]byte(s))
}

func (c *Connector) Close() error {
	return c.port.Close()
}

// stdio lets a simulator be piped in: telemetry_sim | telemetry_ui -p -
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }
