// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the YAML configuration shared by the qr,
// imgcompress and toolsd commands.
//
// A configuration file is merged over Default: keys that are absent keep
// their default values, unknown keys are an error.
//
//	log:
//	  level: info
//	  format: text
//	qr:
//	  level: m
//	  size: 256
//	  border: 4
//	  foreground: "#000"
//	  background: white
//	compress:
//	  workers: 1
//	  quality: 0.8
//	server:
//	  addr: ":8080"
//	  cache-size: 256
package config // import "github.com/codelithlabs/tools/config"

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/codelithlabs/tools/compress"
	"github.com/codelithlabs/tools/qr"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrConfig is matched by every configuration error.
var ErrConfig = errors.New("config: invalid configuration")

// An Error reports an invalid configuration value.
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
	}
	return "config: " + e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfig, e.Err}
	}
	return []error{ErrConfig}
}

func fieldError(field, format string, a ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, a...)}
}

// Config is the top-level configuration.
type Config struct {
	Log      Log      `yaml:"log"`
	QR       QR       `yaml:"qr"`
	Compress Compress `yaml:"compress"`
	Server   Server   `yaml:"server"`
}

// Log configures the logrus logger built by NewLogger.
type Log struct {
	Level  string `yaml:"level"`  // logrus level name
	Format string `yaml:"format"` // text or json
}

// QR holds QR code defaults.
type QR struct {
	Level      qr.Level `yaml:"level"`
	Size       int      `yaml:"size"`   // image pixels on a side
	Border     int      `yaml:"border"` // quiet zone modules
	Foreground Color    `yaml:"foreground"`
	Background Color    `yaml:"background"`
	Latin1     bool     `yaml:"latin1"`
	Strict     bool     `yaml:"strict"`
	Standard   bool     `yaml:"standard"` // conformant encoder by default
}

// Options returns the encoder options.
func (q QR) Options() qr.Options {
	return qr.Options{Latin1: q.Latin1, Strict: q.Strict}
}

// Render returns the rendering options.
func (q QR) Render() qr.RenderOptions {
	return qr.RenderOptions{
		Size:       q.Size,
		Foreground: q.Foreground.NRGBA,
		Background: q.Background.NRGBA,
		Border:     q.Border,
	}
}

// Compress configures the image compressor.
type Compress struct {
	Workers      int     `yaml:"workers"`
	Queue        int     `yaml:"queue"`
	Quality      float64 `yaml:"quality"` // default quality, 0.0 to 1.0
	MaxFileBytes int64   `yaml:"max-file-bytes"`
	MaxPixels    int64   `yaml:"max-pixels"`
}

// Worker returns the worker configuration.
func (c Compress) Worker() compress.Config {
	return compress.Config{
		Workers: c.Workers,
		Queue:   c.Queue,
		Limits:  c.Limits(),
	}
}

// Limits returns the per-request limits.
func (c Compress) Limits() compress.Limits {
	return compress.Limits{MaxFileBytes: c.MaxFileBytes, MaxPixels: c.MaxPixels}
}

// Server configures the HTTP service.
type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read-timeout"`
	WriteTimeout    time.Duration `yaml:"write-timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
	CacheSize       int           `yaml:"cache-size"` // rendered codes kept; 0 disables
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info", Format: "text"},
		QR: QR{
			Level:      qr.M,
			Size:       qr.DefaultSize,
			Border:     4,
			Foreground: Black,
			Background: White,
		},
		Compress: Compress{
			Workers:      1,
			Queue:        4,
			Quality:      0.8,
			MaxFileBytes: compress.DefaultMaxFileBytes,
			MaxPixels:    compress.DefaultMaxPixels,
		},
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CacheSize:       256,
		},
	}
}

// Load reads a configuration file.  An empty path returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML data over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, &Error{Message: err.Error(), Err: err}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every value.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return &Error{Field: "log.level", Message: err.Error(), Err: err}
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fieldError("log.format", "%q: want text or json", c.Log.Format)
	}

	q := &c.QR
	if !q.Level.IsValid() {
		return fieldError("qr.level", "invalid level %d", int(q.Level))
	}
	if q.Size < 0 || q.Size > qr.MaxSize {
		return fieldError("qr.size", "%d out of range [0, %d]", q.Size, qr.MaxSize)
	}
	if q.Border < 0 || q.Border > MaxBorder {
		return fieldError("qr.border", "%d out of range [0, %d]", q.Border, MaxBorder)
	}

	p := &c.Compress
	if p.Workers < 1 {
		return fieldError("compress.workers", "%d: at least 1 required", p.Workers)
	}
	if p.Queue < 0 {
		return fieldError("compress.queue", "%d: negative", p.Queue)
	}
	if !(p.Quality >= 0 && p.Quality <= 1) {
		return fieldError("compress.quality", "%g out of range [0, 1]", p.Quality)
	}
	if p.MaxFileBytes <= 0 {
		return fieldError("compress.max-file-bytes", "%d: must be positive", p.MaxFileBytes)
	}
	if p.MaxPixels <= 0 {
		return fieldError("compress.max-pixels", "%d: must be positive", p.MaxPixels)
	}

	s := &c.Server
	if s.Addr == "" {
		return fieldError("server.addr", "required field is missing")
	}
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"server.read-timeout", s.ReadTimeout},
		{"server.write-timeout", s.WriteTimeout},
		{"server.shutdown-timeout", s.ShutdownTimeout},
	} {
		if d.v < 0 {
			return fieldError(d.name, "%v: negative", d.v)
		}
	}
	if s.CacheSize < 0 {
		return fieldError("server.cache-size", "%d: negative", s.CacheSize)
	}
	return nil
}

// MaxBorder is the widest quiet zone accepted, in modules.
const MaxBorder = 64

// NewLogger returns a logger writing to standard error.
func NewLogger(l Log) (*logrus.Logger, error) {
	lev, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, &Error{Field: "log.level", Message: err.Error(), Err: err}
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(lev)
	switch l.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fieldError("log.format", "%q: want text or json", l.Format)
	}
	return log, nil
}
