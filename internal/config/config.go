// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the runtime configuration of the daemon. User-facing capture
// settings live in package settings; this package only covers process wiring.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/streamshot/internal/cache"
	"github.com/ManuGH/streamshot/internal/telemetry"
	"github.com/rs/zerolog"
)

const (
	SettingsFilename = "settings.yaml"
	LegacyFilename   = "config.json"

	DefaultListen         = "127.0.0.1:8765"
	DefaultResolveTimeout = 45 * time.Second
	DefaultGrabTimeout    = 30 * time.Second
	DefaultKillGrace      = 2 * time.Second
	DefaultStreamTTL      = 5 * time.Minute
	DefaultNotifyInterval = time.Minute
)

// Config is the runtime configuration. Precedence is env > flags > defaults: callers
// pass flag values as the base to Load.
type Config struct {
	DataDir string
	Listen  string

	YTDLPBin       string
	FFmpegBin      string
	ResolveTimeout time.Duration
	GrabTimeout    time.Duration
	KillGrace      time.Duration
	StreamTTL      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AutoLocate     bool
	NotifyCmd      string
	NotifyInterval time.Duration

	TracingEnabled  bool
	TracingExporter string
	TracingEndpoint string
	TracingSampling float64

	LogLevel string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DataDir:         defaultDataDir(),
		Listen:          DefaultListen,
		YTDLPBin:        "yt-dlp",
		FFmpegBin:       "ffmpeg",
		ResolveTimeout:  DefaultResolveTimeout,
		GrabTimeout:     DefaultGrabTimeout,
		KillGrace:       DefaultKillGrace,
		StreamTTL:       DefaultStreamTTL,
		NotifyInterval:  DefaultNotifyInterval,
		TracingExporter: "grpc",
		TracingEndpoint: "localhost:4317",
		TracingSampling: 1.0,
		LogLevel:        "info",
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "streamshot")
	}
	return ".streamshot"
}

// Load overlays environment variables on base and validates the result.
func Load(base Config) (Config, error) {
	cfg := base
	cfg.DataDir = ParseString("STREAMSHOT_DATA", cfg.DataDir)
	cfg.Listen = ParseString("STREAMSHOT_LISTEN", cfg.Listen)
	cfg.YTDLPBin = ParseString("STREAMSHOT_YTDLP_BIN", cfg.YTDLPBin)
	cfg.FFmpegBin = ParseString("STREAMSHOT_FFMPEG_BIN", cfg.FFmpegBin)
	cfg.ResolveTimeout = ParseDuration("STREAMSHOT_RESOLVE_TIMEOUT", cfg.ResolveTimeout)
	cfg.GrabTimeout = ParseDuration("STREAMSHOT_GRAB_TIMEOUT", cfg.GrabTimeout)
	cfg.KillGrace = ParseDuration("STREAMSHOT_KILL_GRACE", cfg.KillGrace)
	cfg.StreamTTL = ParseDuration("STREAMSHOT_STREAM_TTL", cfg.StreamTTL)
	cfg.RedisAddr = ParseString("STREAMSHOT_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = ParseString("STREAMSHOT_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = ParseInt("STREAMSHOT_REDIS_DB", cfg.RedisDB)
	cfg.AutoLocate = ParseBool("STREAMSHOT_AUTO_LOCATE", cfg.AutoLocate)
	cfg.NotifyCmd = ParseString("STREAMSHOT_NOTIFY_CMD", cfg.NotifyCmd)
	cfg.NotifyInterval = ParseDuration("STREAMSHOT_NOTIFY_INTERVAL", cfg.NotifyInterval)
	cfg.TracingEnabled = ParseBool("STREAMSHOT_OTEL_ENABLED", cfg.TracingEnabled)
	cfg.TracingExporter = ParseString("STREAMSHOT_OTEL_EXPORTER", cfg.TracingExporter)
	cfg.TracingEndpoint = ParseString("STREAMSHOT_OTEL_ENDPOINT", cfg.TracingEndpoint)
	cfg.TracingSampling = ParseFloat("STREAMSHOT_OTEL_SAMPLING", cfg.TracingSampling)
	cfg.LogLevel = ParseString("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data dir: %w", ErrEmptyPath)
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidListen, c.Listen, err)
	}
	if strings.TrimSpace(c.YTDLPBin) == "" {
		return fmt.Errorf("yt-dlp binary: %w", ErrEmptyPath)
	}
	if strings.TrimSpace(c.FFmpegBin) == "" {
		return fmt.Errorf("ffmpeg binary: %w", ErrEmptyPath)
	}
	for name, d := range map[string]time.Duration{
		"resolve timeout": c.ResolveTimeout,
		"grab timeout":    c.GrabTimeout,
		"stream ttl":      c.StreamTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive (got %s)", ErrInvalidTimeout, name, d)
		}
	}
	if c.KillGrace < 0 || c.NotifyInterval < 0 {
		return fmt.Errorf("%w: kill grace and notify interval must not be negative", ErrInvalidTimeout)
	}
	if c.TracingEnabled {
		switch c.TracingExporter {
		case "grpc", "http":
		default:
			return fmt.Errorf("%w: %q (supported: grpc, http)", ErrInvalidExporter, c.TracingExporter)
		}
	}
	if c.TracingSampling < 0 || c.TracingSampling > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampling, c.TracingSampling)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return nil
}

// SettingsPath is the user settings file inside the data dir.
func (c Config) SettingsPath() string { return filepath.Join(c.DataDir, SettingsFilename) }

// LegacyPath is where the desktop app kept its config.
func (c Config) LegacyPath() string { return filepath.Join(c.DataDir, LegacyFilename) }

// Redis returns the cache config, or false when no Redis address is set.
func (c Config) Redis() (cache.RedisConfig, bool) {
	if strings.TrimSpace(c.RedisAddr) == "" {
		return cache.RedisConfig{}, false
	}
	return cache.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}, true
}

// Telemetry returns the tracer provider config.
func (c Config) Telemetry(version string) telemetry.Config {
	return telemetry.Config{
		Enabled:        c.TracingEnabled,
		ServiceName:    "streamshot",
		ServiceVersion: version,
		ExporterType:   c.TracingExporter,
		Endpoint:       c.TracingEndpoint,
		SamplingRate:   c.TracingSampling,
	}
}
