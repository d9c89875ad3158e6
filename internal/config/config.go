// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/telemetry_ui/internal/logging"
)

// Config holds all application configuration values.
type Config struct {
	// Device
	SerialPort  string // "-" reads stdin and writes stdout
	BaudRate    int
	InitCommand string

	// Processing
	Rezero     bool
	ModeFilter *string // nil means no filter; MODE_FILTER= filters to the empty mode

	LogLevel string

	// MQTT republish, off when MQTTBroker is empty
	MQTTBroker    string
	MQTTClientID  string
	TopicLocation string
	TopicRaw      string
	TopicDebug    string

	// Web Server, off when 0
	WebServerPort int

	// Display
	DisplayEnabled bool
	DisplayI2CBus  string

	// Capture, off when RecordPath is empty
	RecordPath      string
	RecordMaxSizeMB int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when no file or flag says otherwise.
func Default() *Config {
	return &Config{
		SerialPort:      "/dev/serial0",
		BaudRate:        115200,
		LogLevel:        "info",
		MQTTClientID:    "telemetry-ui",
		TopicLocation:   "telemetry/location",
		TopicRaw:        "telemetry/raw",
		TopicDebug:      "telemetry/debug",
		RecordMaxSizeMB: 50,
	}
}

// Load reads a configuration file on top of Default. Files ending in .yaml
// or .yml are YAML mappings of the same keys; anything else is KEY=VALUE
// lines. An empty path yields the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = cfg.loadYAML(file)
	default:
		err = cfg.loadKeyValue(file)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadKeyValue(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func (c *Config) loadYAML(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(b, &values); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	// Sorted so the first bad key reported is stable.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := c.setValue(k, values[k]); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// Apply sets each KEY to its value, the same way a config file line would,
// then validates the result. Used for command-line overrides.
func (c *Config) Apply(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := c.setValue(k, overrides[k]); err != nil {
			return err
		}
	}
	return c.validate()
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Device
	case "SERIAL_PORT":
		c.SerialPort = value
	case "BAUD_RATE":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BAUD_RATE %q: %w", value, err)
		}
		c.BaudRate = baud
	case "INIT_COMMAND":
		c.InitCommand = value

	// Processing
	case "REZERO":
		rezero, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid REZERO %q: %w", value, err)
		}
		c.Rezero = rezero
	case "MODE_FILTER":
		c.ModeFilter = &value
	case "LOG_LEVEL":
		c.LogLevel = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_LOCATION":
		c.TopicLocation = value
	case "TOPIC_RAW":
		c.TopicRaw = value
	case "TOPIC_DEBUG":
		c.TopicDebug = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	// Capture
	case "RECORD_PATH":
		c.RecordPath = value
	case "RECORD_MAX_SIZE_MB":
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RECORD_MAX_SIZE_MB %q: %w", value, err)
		}
		c.RecordMaxSizeMB = size

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set and in range.
func (c *Config) validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("BAUD_RATE must be positive, got %d", c.BaudRate)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.MQTTBroker != "" && c.MQTTClientID == "" {
		return fmt.Errorf("MQTT_CLIENT_ID is required when MQTT_BROKER is set")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
	}
	if c.RecordPath != "" && c.RecordMaxSizeMB <= 0 {
		return fmt.Errorf("RECORD_MAX_SIZE_MB must be positive, got %d", c.RecordMaxSizeMB)
	}
	return nil
}

// InitGlobal loads configPath, applies overrides and publishes the result
// for Get. Only the first call has any effect.
func InitGlobal(configPath string, overrides map[string]string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()

		var cfg *Config
		cfg, err = Load(configPath)
		if err != nil {
			return
		}
		if err = cfg.Apply(overrides); err != nil {
			return
		}
		globalConfig = cfg
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
