// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/platform/httpx"
	"github.com/ManuGH/streamshot/internal/settings"
	"github.com/spf13/cobra"
)

const ctlTimeout = 30 * time.Second

// ctlClient talks to a running daemon.
type ctlClient struct {
	base   string
	client *http.Client
	out    io.Writer
}

func (c ctlClient) do(ctx context.Context, method, path string, in any) error {
	var out json.RawMessage
	err := httpx.DoJSON(ctx, c.client, method, c.base+path, in, &out)
	var se *httpx.StatusError
	if errors.As(err, &se) {
		return fmt.Errorf("daemon answered %d: %s", se.Status, strings.TrimSpace(se.Body))
	}
	if err != nil {
		return fmt.Errorf("cannot reach streamshot at %s: %w", c.base, err)
	}
	return printJSON(c.out, out)
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, werr := w.Write(raw)
		return werr
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newCtlCmd(flags *rootFlags) *cobra.Command {
	ctl := &cobra.Command{
		Use:   "ctl",
		Short: "Control a running streamshot daemon",
	}

	client := func(cmd *cobra.Command) ctlClient {
		return ctlClient{
			base:   "http://" + flags.listen + "/api/v1",
			client: httpx.NewClient(ctlTimeout),
			out:    cmd.OutOrStdout(),
		}
	}
	simple := func(use, short, method, path string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return client(cmd).do(cmd.Context(), method, path, nil)
			},
		}
	}

	ctl.AddCommand(
		simple("status", "Show engine state, settings and sun windows", http.MethodGet, "/status"),
		simple("settings", "Show the current settings", http.MethodGet, "/settings"),
		simple("pause", "Pause capturing", http.MethodPost, "/pause"),
		simple("resume", "Resume capturing", http.MethodPost, "/resume"),
		simple("capture", "Capture one frame now", http.MethodPost, "/capture"),
		simple("quit", "Stop the daemon", http.MethodPost, "/quit"),
	)

	ctl.AddCommand(&cobra.Command{
		Use:   "set key=value...",
		Short: "Change settings",
		Long: `Change one or more settings. Keys:
  url, output, interval, resolution, mode, schedule (on|off|toggle),
  window, location (lat,lon[,name] or "none"), paused`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePatch(args)
			if err != nil {
				return err
			}
			return client(cmd).do(cmd.Context(), http.MethodPatch, "/settings", p)
		},
	})

	var noApply bool
	locate := &cobra.Command{
		Use:   "locate",
		Short: "Detect the location from the public IP address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/location/detect"
			if noApply {
				path += "?apply=false"
			}
			return client(cmd).do(cmd.Context(), http.MethodPost, path, nil)
		},
	}
	locate.Flags().BoolVar(&noApply, "dry-run", false, "show the location without storing it")
	ctl.AddCommand(locate)

	var limit int
	events := &cobra.Command{
		Use:   "events",
		Short: "List recent capture events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{"limit": {strconv.Itoa(limit)}}
			return client(cmd).do(cmd.Context(), http.MethodGet, "/events?"+q.Encode(), nil)
		},
	}
	events.Flags().IntVar(&limit, "limit", 20, "number of events")
	ctl.AddCommand(events)

	return ctl
}

// parsePatch turns key=value arguments into a settings patch.
func parsePatch(args []string) (settings.Patch, error) {
	var p settings.Patch
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return settings.Patch{}, fmt.Errorf("expected key=value, got %q", arg)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "url", "source_url":
			p.SourceURL = &value
		case "output", "output_directory":
			p.OutputDirectory = &value
		case "resolution":
			p.Resolution = &value
		case "mode", "capture_mode":
			p.CaptureMode = &value
		case "interval", "interval_seconds":
			n, err := parseSeconds(value)
			if err != nil {
				return settings.Patch{}, fmt.Errorf("interval: %w", err)
			}
			p.IntervalSeconds = &n
		case "window", "time_window_minutes":
			n, err := strconv.Atoi(value)
			if err != nil {
				return settings.Patch{}, fmt.Errorf("window: %w", err)
			}
			p.TimeWindowMinutes = &n
		case "schedule", "schedule_enabled":
			if strings.EqualFold(value, "toggle") {
				p.ToggleSchedule = true
				continue
			}
			b, err := parseSwitch(value)
			if err != nil {
				return settings.Patch{}, fmt.Errorf("schedule: %w", err)
			}
			p.ScheduleEnabled = &b
		case "paused":
			b, err := parseSwitch(value)
			if err != nil {
				return settings.Patch{}, fmt.Errorf("paused: %w", err)
			}
			p.Paused = &b
		case "location":
			if strings.EqualFold(value, "none") || value == "" {
				p.ClearLocation = true
				continue
			}
			loc, err := parseLocation(value)
			if err != nil {
				return settings.Patch{}, fmt.Errorf("location: %w", err)
			}
			p.Location = &loc
		default:
			return settings.Patch{}, fmt.Errorf("%w: %q", settings.ErrUnknownSettingsField, key)
		}
	}
	return p, nil
}

// parseSeconds accepts "30" or a Go duration such as "45s" or "1m".
func parseSeconds(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", v)
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("%q is not a whole number of seconds", v)
	}
	return int(d / time.Second), nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes", "enabled":
		return true, nil
	case "off", "no", "disabled":
		return false, nil
	}
	return strconv.ParseBool(v)
}

// parseLocation reads "lat,lon" with an optional trailing name, which may itself
// contain commas.
func parseLocation(v string) (domain.Location, error) {
	parts := strings.SplitN(v, ",", 3)
	if len(parts) < 2 {
		return domain.Location{}, fmt.Errorf("expected lat,lon[,name], got %q", v)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Location{}, fmt.Errorf("longitude %q: %w", parts[1], err)
	}
	loc := domain.Location{Latitude: lat, Longitude: lon}
	if len(parts) == 3 {
		loc.Name = strings.TrimSpace(parts[2])
	}
	return loc, nil
}
