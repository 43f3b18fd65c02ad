// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ManuGH/streamshot/internal/config"
	"github.com/ManuGH/streamshot/internal/daemon"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/version"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	dataDir  string
	listen   string
	logLevel string
}

// newRootCmd runs the daemon when called without a subcommand.
func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:           "streamshot",
		Short:         "Capture frames from a YouTube live stream on a schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), flags)
		},
	}

	defaults := config.Defaults()
	root.PersistentFlags().StringVar(&flags.dataDir, "data", defaults.DataDir, "directory holding settings.yaml")
	root.PersistentFlags().StringVar(&flags.listen, "listen", defaults.Listen, "control API address")
	root.Flags().StringVar(&flags.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newCtlCmd(&flags))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func runDaemon(parent context.Context, flags rootFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	xglog.Configure(xglog.Config{Level: "info", Version: version.Version})
	logger := xglog.WithComponent("daemon")

	base := config.Defaults()
	base.DataDir = flags.dataDir
	base.Listen = flags.listen
	base.LogLevel = flags.logLevel
	cfg, err := config.Load(base)
	if err != nil {
		logger.Error().Err(err).Str("event", "config.load_failed").Msg("failed to load configuration")
		return err
	}
	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Version: version.Version})
	logger = xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := daemon.Bootstrap(ctx, cfg, daemon.WithVersion(version.Version))
	if err != nil {
		logger.Error().Err(err).Str("event", "daemon.bootstrap_failed").Msg("failed to start")
		return err
	}
	logger.Info().
		Str("event", "daemon.started").
		Str("version", version.Version).
		Str("settings", cfg.SettingsPath()).
		Msg("streamshot running")
	return rt.Run(ctx)
}
