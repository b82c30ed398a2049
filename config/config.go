// Package config reads the server settings from command line flags. Every
// flag takes its default from a STRAND_* environment variable when set.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"
)

const envPrefix = "STRAND_"

var (
	ErrInvalidPort    = errors.New("config: invalid port")
	ErrInvalidBacklog = errors.New("config: backlog must be at least 1")
	ErrInvalidSize    = errors.New("config: sizes must not be negative")
	ErrInvalidTimeout = errors.New("config: timeouts must not be negative")
)

type Config struct {
	Host    string
	Port    string
	Backlog int

	// BufferSize is the per connection buffer size; 0 means the page size.
	BufferSize  int
	MaxLineSize int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	LogLevel slog.Level

	// Telemetry exports traces, metrics and logs over OTLP. The exporters
	// read their endpoint from the OTEL_EXPORTER_OTLP_* variables.
	Telemetry   bool
	ServiceName string
}

func Default() Config {
	return Config{
		Host:        "localhost",
		Port:        "8080",
		Backlog:     10,
		MaxLineSize: 8 * 1024,
		LogLevel:    slog.LevelInfo,
		ServiceName: "strand",
	}
}

// Load parses args (without the program name) over the environment as seen
// through lookup, typically os.LookupEnv.
func Load(args []string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	env := environment{lookup: lookup}

	fs := flagSet(&cfg, &env)

	if env.err != nil {
		return Config{}, env.err
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func flagSet(cfg *Config, env *environment) *flag.FlagSet {
	fs := flag.NewFlagSet("strand", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Host, "host", env.stringOr("HOST", cfg.Host), "host to bind")
	fs.StringVar(&cfg.Port, "port", env.stringOr("PORT", cfg.Port), "port or service name to bind")
	fs.IntVar(&cfg.Backlog, "backlog", env.intOr("BACKLOG", cfg.Backlog), "listen backlog")
	fs.IntVar(&cfg.BufferSize, "buffer-size", env.intOr("BUFFER_SIZE", cfg.BufferSize), "connection buffer size, 0 for the page size")
	fs.IntVar(&cfg.MaxLineSize, "max-line-size", env.intOr("MAX_LINE_SIZE", cfg.MaxLineSize), "longest accepted request or header line")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", env.durationOr("READ_TIMEOUT", cfg.ReadTimeout), "time allowed to receive the request, 0 for none")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", env.durationOr("WRITE_TIMEOUT", cfg.WriteTimeout), "time allowed to write the response, 0 for none")
	fs.TextVar(&cfg.LogLevel, "log-level", env.levelOr("LOG_LEVEL", cfg.LogLevel), "debug, info, warn or error")
	fs.BoolVar(&cfg.Telemetry, "telemetry", env.boolOr("TELEMETRY", cfg.Telemetry), "export telemetry over OTLP")
	fs.StringVar(&cfg.ServiceName, "service-name", env.stringOr("SERVICE_NAME", cfg.ServiceName), "service name reported to telemetry")
	return fs
}

// Usage writes the flag defaults to w.
func Usage(w io.Writer) {
	cfg := Default()
	fs := flagSet(&cfg, &environment{})
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func (c Config) Validate() error {
	if c.Port == "" {
		return ErrInvalidPort
	}
	if n, err := strconv.Atoi(c.Port); err == nil && (n < 0 || n > 65535) {
		return fmt.Errorf("%w: %s", ErrInvalidPort, c.Port)
	}
	if c.Backlog < 1 {
		return ErrInvalidBacklog
	}
	if c.BufferSize < 0 || c.MaxLineSize < 0 {
		return ErrInvalidSize
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// environment turns STRAND_* variables into flag defaults and keeps the first
// parse error.
type environment struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *environment) raw(key string) (string, bool) {
	if e.lookup == nil {
		return "", false
	}
	return e.lookup(envPrefix + key)
}

func (e *environment) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("config: %s%s=%q: %w", envPrefix, key, value, err)
	}
}

func (e *environment) stringOr(key, def string) string {
	if v, ok := e.raw(key); ok {
		return v
	}
	return def
}

func (e *environment) intOr(key string, def int) int {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *environment) boolOr(key string, def bool) bool {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *environment) durationOr(key string, def time.Duration) time.Duration {
	v, ok := e.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *environment) levelOr(key string, def slog.Level) *slog.Level {
	level := def
	v, ok := e.raw(key)
	if !ok {
		return &level
	}
	if err := level.UnmarshalText([]byte(v)); err != nil {
		e.fail(key, v, err)
		return &def
	}
	return &level
}
