// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/streamshot/internal/config"
	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/settings"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type stubStreams struct{ calls atomic.Int32 }

func (s *stubStreams) Resolve(_ context.Context, sourceURL string, res domain.Resolution) (domain.ResolvedStream, error) {
	s.calls.Add(1)
	return domain.ResolvedStream{
		SourceURL:      sourceURL,
		DirectMediaURL: "https://media.example/live.m3u8",
		Title:          "Pier Cam",
		Height:         res.Height(),
		ResolvedAt:     time.Now(),
	}, nil
}

type stubGrabber struct{}

func (stubGrabber) Grab(_ context.Context, _ string, outPath string) error {
	return os.WriteFile(outPath, []byte("jpeg"), 0o600)
}

type stubLocator struct{ calls atomic.Int32 }

func (l *stubLocator) Locate(context.Context) (domain.Location, error) {
	l.calls.Add(1)
	return domain.Location{Latitude: 60.17, Longitude: 24.94, Name: "Helsinki, Finland", Timezone: "Europe/Helsinki"}, nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.Listen = "127.0.0.1:0"
	// Default settings use a relative output directory.
	t.Chdir(cfg.DataDir)
	return cfg
}

func bootstrap(t *testing.T, cfg config.Config, opts ...Option) *Runtime {
	t.Helper()
	opts = append([]Option{WithStreamResolver(&stubStreams{}), WithGrabber(stubGrabber{}), WithVersion("v-test")}, opts...)
	rt, err := Bootstrap(context.Background(), cfg, opts...)
	require.NoError(t, err)
	rt.App.reloadSignal = nil
	return rt
}

// release runs a runtime that never served through its shutdown hooks.
func release(t *testing.T, rt *Runtime) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rt.Run(ctx))
}

var testClient = &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}

// call performs one request and returns its status and fully read body.
func call(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := testClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestRuntime_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := testConfig(t)
	cfg.AutoLocate = true
	locator := &stubLocator{}
	rt := bootstrap(t, cfg, WithLocator(locator))

	assert.Equal(t, CacheMemory, rt.CacheBackend)
	assert.Equal(t, int32(1), locator.calls.Load())
	require.NotNil(t, rt.Settings.Snapshot().Location)
	assert.Equal(t, "Helsinki, Finland", rt.Settings.Snapshot().Location.Name)

	errCh := make(chan error, 1)
	go func() { errCh <- rt.Run(context.Background()) }()
	base := "http://" + waitAddr(t, rt.Manager)

	status, _ := call(t, http.MethodGet, base+"/healthz", "")
	assert.Equal(t, http.StatusOK, status)

	outDir := filepath.Join(t.TempDir(), "shots")
	patch := `{"sourceUrl":"https://www.youtube.com/watch?v=live1","outputDirectory":"` + filepath.ToSlash(outDir) + `"}`
	status, _ = call(t, http.MethodPatch, base+"/api/v1/settings", patch)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, http.MethodPost, base+"/api/v1/capture", "")
	require.Equal(t, http.StatusAccepted, status)
	require.Eventually(t, func() bool { return rt.History.Len() > 0 }, 5*time.Second, 10*time.Millisecond)

	status, body := call(t, http.MethodGet, base+"/api/v1/events?limit=1", "")
	require.Equal(t, http.StatusOK, status)
	var events []domain.CaptureEvent
	require.NoError(t, json.Unmarshal(body, &events))
	require.Len(t, events, 1)
	assert.Equal(t, domain.OutcomeCaptured, events[0].Outcome)
	assert.FileExists(t, events[0].FilePath)
	assert.Equal(t, filepath.Join(outDir, "Pier_Cam"), filepath.Dir(events[0].FilePath))

	status, _ = call(t, http.MethodPost, base+"/api/v1/quit", "")
	require.Equal(t, http.StatusAccepted, status)
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runtime did not stop after quit")
	}
}

func TestRuntime_CancelStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rt := bootstrap(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- rt.Run(ctx) }()
	waitAddr(t, rt.Manager)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runtime did not stop after cancel")
	}
	_, err := rt.Settings.SetPaused(true)
	assert.Error(t, err, "settings are closed by the shutdown hooks")
}

func TestBootstrap_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()

	rt := bootstrap(t, cfg)
	assert.Equal(t, CacheRedis, rt.CacheBackend)
	release(t, rt)
	assert.Empty(t, mr.Keys(), "nothing resolved yet")
}

func TestBootstrap_RedisFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.RedisAddr = addr
	rt := bootstrap(t, cfg)
	assert.Equal(t, CacheMemory, rt.CacheBackend)
	release(t, rt)
}

func TestBootstrap_LegacyImport(t *testing.T) {
	cfg := testConfig(t)
	legacy := `{"youtube_urls":["https://youtu.be/abc"],"interval":"30 seconds","preferred_resolution":"720p"}`
	require.NoError(t, os.WriteFile(cfg.LegacyPath(), []byte(legacy), 0o600))

	rt := bootstrap(t, cfg)
	s := rt.Settings.Snapshot()
	assert.Equal(t, "https://youtu.be/abc", s.SourceURL)
	assert.Equal(t, 30, s.IntervalSeconds)
	assert.Equal(t, domain.Resolution720p, s.Resolution)
	assert.FileExists(t, cfg.SettingsPath())
	release(t, rt)
}

func TestBootstrap_BadNotifyCommand(t *testing.T) {
	cfg := testConfig(t)
	cfg.NotifyCmd = "   "
	_, err := Bootstrap(context.Background(), cfg, WithStreamResolver(&stubStreams{}), WithGrabber(stubGrabber{}))
	require.Error(t, err)
}

func TestBootstrap_OutputDirUncreatable(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(cfg.DataDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store, err := settings.Open(settings.NewFile(cfg.SettingsPath()))
	require.NoError(t, err)
	out := filepath.Join(blocker, "shots")
	_, err = store.Apply(settings.Patch{OutputDirectory: &out})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Bootstrap(context.Background(), cfg, WithStreamResolver(&stubStreams{}), WithGrabber(stubGrabber{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create output dir")
}
