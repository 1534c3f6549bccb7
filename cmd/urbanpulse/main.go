// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/app"
	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/logging"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "urbanpulse",
	Short: "UrbanPulse energy scanner",
	Long: `UrbanPulse measures ambient vibration and battery heat, estimates how much
energy could be harvested at a location and scores how far the reading can be
trusted.

Each subcommand runs one process of the pipeline: scanner, collector, web
dashboard, GPS producer, console and OLED display, all linked over MQTT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitGlobal(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		var err error
		logger, err = logging.New(config.Get().LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run scans periodically and publish readings to MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunScanner(cmd.Context(), config.Get(), logger)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single scan locally and print the reading",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunOnce(cmd.Context(), config.Get(), rng.Default(), logger, cmd.OutOrStdout())
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Store readings from MQTT and forward verified ones to Kafka",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunCollector(cmd.Context(), config.Get(), logger)
	},
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the JSON API, spectrum charts and live websocket feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunWeb(cmd.Context(), config.Get(), logger)
	},
}

var gpsCmd = &cobra.Command{
	Use:   "gps",
	Short: "Publish NMEA fixes from the serial GPS to MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunGPSProducer(cmd.Context(), config.Get(), logger)
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Print readings, fixes and live samples from MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunConsoleMQTT(cmd.Context(), config.Get(), logger, cmd.OutOrStdout())
	},
}

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Show the latest reading on the SSD1306 OLED",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunDisplay(cmd.Context(), config.Get(), logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "urbanpulse_config.txt", "KEY=VALUE config file (empty for environment only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(scanCmd, onceCmd, collectCmd, webCmd, gpsCmd, consoleCmd, displayCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
