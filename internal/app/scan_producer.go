// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/gps"
	"github.com/mehak2807/urban-pulse-energy/internal/imu"
	"github.com/mehak2807/urban-pulse-energy/internal/mqttbus"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
	"github.com/mehak2807/urban-pulse-energy/internal/store"
)

// liveSample is the payload on the live topic.
type liveSample struct {
	imu.Vector
	Timestamp int64 `json:"timestamp"`
}

// RunScanner runs a scan every SCAN_INTERVAL seconds and publishes each
// reading (retained) to TOPIC_READINGS. Speed comes from fixes on TOPIC_GPS
// and cell history from the reading store.
func RunScanner(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	log.Info("scanner: starting urbanpulse scanner")

	src := rng.Default()
	source, err := newSensorSource(cfg, src, log)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	bus, err := mqttbus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDScanner, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	tracker := gps.NewTracker(gps.DefaultMaxAge)
	if err := mqttbus.SubscribeJSON(bus, cfg.TopicGPS, tracker.Update); err != nil {
		return err
	}

	publishLive := func(v imu.Vector) {
		sample := liveSample{Vector: v, Timestamp: time.Now().UnixMilli()}
		if err := bus.PublishJSON(cfg.TopicLive, false, sample); err != nil {
			log.Debugf("scanner: live publish: %v", err)
		}
	}
	scanner := scan.New(source, src,
		scan.WithSpeedSource(tracker),
		scan.WithGridSource(db),
		scan.WithCellSize(cfg.CellSizeDeg),
		scan.WithPacing(cfg.ScanPacing),
		scan.WithLiveFeed(publishLive, rng.New(uint64(time.Now().UnixNano()))),
		scan.WithProgress(func(p scan.Progress) {
			log.Debugf("scanner: %s %.0f%%", p.Phase, p.Percent)
		}),
		scan.WithLogger(log),
	)

	ticker := time.NewTicker(time.Duration(cfg.ScanInterval) * time.Second)
	defer ticker.Stop()

	log.Infof("scanner: scanning every %ds, publishing to %s", cfg.ScanInterval, cfg.TopicReadings)
	for {
		if err := scanAndPublish(ctx, scanner, bus, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Warnf("scanner: %v", err)
		}

		select {
		case <-ctx.Done():
			log.Info("scanner: shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

type publisher interface {
	PublishJSON(topic string, retained bool, v any) error
}

func scanAndPublish(ctx context.Context, scanner *scan.Scanner, bus publisher, cfg *config.Config) error {
	reading, err := scanner.Run(ctx, scanRequest(cfg))
	if err != nil {
		return err
	}
	if err := bus.PublishJSON(cfg.TopicReadings, true, reading); err != nil {
		return fmt.Errorf("publish reading %s: %w", reading.ID, err)
	}
	return nil
}
