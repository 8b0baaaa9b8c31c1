// Package config loads GoSteg settings from JSON or YAML files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xob0t/GoSteg/pkg/container"
	"github.com/xob0t/GoSteg/pkg/lsb"
	"github.com/xob0t/GoSteg/pkg/stego"
)

const maxFileSize = 1 << 20 // 1MB

// Config is the root configuration. The layout and compression sections
// must match between the side that hides and the side that reveals.
type Config struct {
	Layout      Layout `json:"layout" yaml:"layout"`
	Compression string `json:"compression" yaml:"compression"`
	Output      string `json:"output" yaml:"output"` // png, bmp or tiff
	MaxPixels   int    `json:"max_pixels" yaml:"max_pixels"`
	Server      Server `json:"server" yaml:"server"`
	Log         Log    `json:"log" yaml:"log"`
}

// Layout mirrors lsb.Layout in text form.
type Layout struct {
	Order   string `json:"order" yaml:"order"`     // e.g. "RGB"
	Framing string `json:"framing" yaml:"framing"` // "length" or "sentinel"
	Marker  string `json:"marker" yaml:"marker"`   // hex bytes, sentinel only
}

// Server configures the web UI.
type Server struct {
	Addr           string `json:"addr" yaml:"addr"`
	MaxUploadBytes int64  `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	OpenBrowser    bool   `json:"open_browser" yaml:"open_browser"`
}

// Log configures logrus.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout:    Layout{Order: "RGB", Framing: "length"},
		Output:    "png",
		MaxPixels: 50_000_000,
		Server: Server{
			Addr:           ":8080",
			MaxUploadBytes: 32 << 20,
			OpenBrowser:    true,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads a .json, .yaml or .yml file over the defaults, so partial
// files are fine, and validates the result.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must be .json, .yaml or .yml, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", cleanPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	o, err := c.StegoOptions()
	if err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return err
	}
	if !o.Output.Lossless() {
		return fmt.Errorf("%w: output %s", container.ErrLossyFormat, o.Output)
	}
	if c.MaxPixels < 0 {
		return fmt.Errorf("max_pixels must be >= 0, got %d", c.MaxPixels)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// LSBLayout converts the layout section.
func (c *Config) LSBLayout() (lsb.Layout, error) {
	order, err := lsb.ParseOrder(c.Layout.Order)
	if err != nil {
		return lsb.Layout{}, err
	}
	framing, err := lsb.ParseFraming(c.Layout.Framing)
	if err != nil {
		return lsb.Layout{}, err
	}
	marker, err := lsb.ParseMarker(c.Layout.Marker)
	if err != nil {
		return lsb.Layout{}, err
	}
	l := lsb.Layout{Order: order, Framing: framing, Marker: marker}
	return l, l.Validate()
}

// StegoOptions builds pipeline options from the configuration.
func (c *Config) StegoOptions() (stego.Options, error) {
	l, err := c.LSBLayout()
	if err != nil {
		return stego.Options{}, err
	}
	f, err := container.ParseFormat(c.Output)
	if err != nil {
		return stego.Options{}, err
	}
	return stego.Options{
		Layout:      l,
		Compression: c.Compression,
		Output:      f,
		MaxPixels:   c.MaxPixels,
	}, nil
}
