// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the settings of the berview command. Settings come
// from built-in defaults, optionally overlaid by a YAML file. Command-line
// flags take precedence over both and are applied by the command itself.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of a berview run.
type Config struct {
	Interactive bool      `yaml:"interactive"`
	Format      string    `yaml:"format"`
	LogLevel    string    `yaml:"log_level"`
	MaxDepth    int       `yaml:"max_depth"`
	NoColor     bool      `yaml:"no_color"`
	Verify      bool      `yaml:"verify"`
	Embedded    Embedded  `yaml:"embedded"`
	Timestamp   Timestamp `yaml:"timestamp"`
}

// Embedded configures which string fields are decoded as nested data values.
// An empty Field disables the convention.
type Embedded struct {
	Field string `yaml:"field"`
	Type  string `yaml:"type"`
}

// Timestamp configures the window in which integers are displayed as epoch
// millisecond timestamps.
type Timestamp struct {
	Future   time.Duration `yaml:"future"`
	Past     time.Duration `yaml:"past"`
	Location string        `yaml:"location"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Format:   "text",
		LogLevel: "warn",
		MaxDepth: 64,
		Embedded: Embedded{
			Field: "cdrData",
			Type:  "XDR-TYPE",
		},
		Timestamp: Timestamp{
			Future:   24 * time.Hour,
			Past:     3 * 365 * 24 * time.Hour,
			Location: "UTC",
		},
	}
}

// Load reads the YAML file at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML data on top of the defaults. Unknown keys are an error.
// An empty document yields the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks all values of c and returns every problem found.
func (c *Config) Validate() error {
	var errs []error
	switch c.Format {
	case "text", "json", "yaml", "cbor":
	default:
		errs = append(errs, ValidationError{"format", fmt.Sprintf("unknown format %q (want text, json, yaml or cbor)", c.Format)})
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, ValidationError{"log_level", err.Error()})
	}
	if c.MaxDepth < 0 {
		errs = append(errs, ValidationError{"max_depth", "must not be negative"})
	}
	if c.Embedded.Field != "" && c.Embedded.Type == "" {
		errs = append(errs, ValidationError{"embedded.type", "required when embedded.field is set"})
	}
	if c.Timestamp.Future < 0 {
		errs = append(errs, ValidationError{"timestamp.future", "must not be negative"})
	}
	if c.Timestamp.Past < 0 {
		errs = append(errs, ValidationError{"timestamp.past", "must not be negative"})
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, ValidationError{"timestamp.location", err.Error()})
	}
	return errors.Join(errs...)
}

// Level returns the parsed LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// Location returns the time zone used to display timestamps.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timestamp.Location)
}

// UseColor reports whether terminal output should be colored. The NO_COLOR
// environment variable disables colors as well.
func (c *Config) UseColor() bool {
	if c.NoColor {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}
