// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHelpers(t *testing.T) {
	t.Setenv("SS_TEST_STRING", "from-env")
	t.Setenv("SS_TEST_EMPTY", "")
	t.Setenv("SS_TEST_INT", "42")
	t.Setenv("SS_TEST_BAD_INT", "forty-two")
	t.Setenv("SS_TEST_DUR", "45s")
	t.Setenv("SS_TEST_BOOL", "YES")
	t.Setenv("SS_TEST_BAD_BOOL", "maybe")
	t.Setenv("SS_TEST_FLOAT", "0.25")
	t.Setenv("SS_TEST_PASSWORD", "secret")

	assert.Equal(t, "from-env", ParseString("SS_TEST_STRING", "default"))
	assert.Equal(t, "default", ParseString("SS_TEST_EMPTY", "default"))
	assert.Equal(t, "default", ParseString("SS_TEST_UNSET", "default"))
	assert.Equal(t, "secret", ParseString("SS_TEST_PASSWORD", ""))
	assert.Equal(t, 42, ParseInt("SS_TEST_INT", 1))
	assert.Equal(t, 1, ParseInt("SS_TEST_BAD_INT", 1))
	assert.Equal(t, 45*time.Second, ParseDuration("SS_TEST_DUR", time.Second))
	assert.True(t, ParseBool("SS_TEST_BOOL", false))
	assert.True(t, ParseBool("SS_TEST_BAD_BOOL", true))
	assert.InDelta(t, 0.25, ParseFloat("SS_TEST_FLOAT", 1), 1e-9)
}

func TestLoad_EnvOverridesBase(t *testing.T) {
	dir := t.TempDir()
	base := Defaults()
	base.Listen = "127.0.0.1:9000"
	base.DataDir = "/flag/dir"

	t.Setenv("STREAMSHOT_DATA", dir)
	t.Setenv("STREAMSHOT_GRAB_TIMEOUT", "10s")
	t.Setenv("STREAMSHOT_REDIS_ADDR", "localhost:6379")
	t.Setenv("STREAMSHOT_REDIS_DB", "2")
	t.Setenv("STREAMSHOT_AUTO_LOCATE", "true")

	cfg, err := Load(base)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen, "flag value kept when env is unset")
	assert.Equal(t, 10*time.Second, cfg.GrabTimeout)
	assert.Equal(t, DefaultResolveTimeout, cfg.ResolveTimeout)
	assert.True(t, cfg.AutoLocate)
	assert.Equal(t, filepath.Join(dir, SettingsFilename), cfg.SettingsPath())
	assert.Equal(t, filepath.Join(dir, LegacyFilename), cfg.LegacyPath())

	rc, ok := cfg.Redis()
	require.True(t, ok)
	assert.Equal(t, "localhost:6379", rc.Addr)
	assert.Equal(t, 2, rc.DB)

	tc := cfg.Telemetry("v1.0.0")
	assert.False(t, tc.Enabled)
	assert.Equal(t, "v1.0.0", tc.ServiceVersion)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"bad listen", func(c *Config) { c.Listen = "8765" }, ErrInvalidListen},
		{"zero grab timeout", func(c *Config) { c.GrabTimeout = 0 }, ErrInvalidTimeout},
		{"negative grace", func(c *Config) { c.KillGrace = -time.Second }, ErrInvalidTimeout},
		{"empty ffmpeg", func(c *Config) { c.FFmpegBin = " " }, ErrEmptyPath},
		{"bad exporter", func(c *Config) { c.TracingEnabled, c.TracingExporter = true, "zipkin" }, ErrInvalidExporter},
		{"exporter ignored when disabled", func(c *Config) { c.TracingExporter = "zipkin" }, nil},
		{"sampling above one", func(c *Config) { c.TracingSampling = 1.5 }, ErrInvalidSampling},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, ErrInvalidLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRedisDisabledWithoutAddr(t *testing.T) {
	_, ok := Defaults().Redis()
	assert.False(t, ok)
}
