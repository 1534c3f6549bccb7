// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/gps"
	"github.com/mehak2807/urban-pulse-energy/internal/mqttbus"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
)

// RunConsoleMQTT prints readings, GPS fixes and live samples as they arrive
// until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, out io.Writer) error {
	bus, err := mqttbus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	// paho delivers from its own goroutines
	var mu sync.Mutex
	emit := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, line)
	}

	if err := mqttbus.SubscribeJSON(bus, cfg.TopicReadings, func(r scan.Reading) {
		emit(formatReading(r))
	}); err != nil {
		return err
	}
	if err := mqttbus.SubscribeJSON(bus, cfg.TopicGPS, func(f gps.Fix) {
		emit(formatFix(f))
	}); err != nil {
		return err
	}
	if err := mqttbus.SubscribeJSON(bus, cfg.TopicLive, func(s liveSample) {
		emit(formatLive(s))
	}); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("console: shutting down")
	return nil
}

func formatReading(r scan.Reading) string {
	v := r.Verification
	gates := make([]string, 0, 3)
	for _, g := range v.Gates() {
		gates = append(gates, fmt.Sprintf("%s=%s", g.Kind, passMark(g.Passed)))
	}
	return fmt.Sprintf(
		"[SCAN] %s at=%s user=%s cell=%s rms=%.3f f=%.1fHz kinetic=%.3fJ thermal=%.2fJ useful=%.3fJ eff=%.1f%% confidence=%d %s",
		r.ID, r.Time().UTC().Format(time.RFC3339), r.UserID, r.CellID,
		r.SensorData.Accelerometer.RMS, r.Frequency.DominantFrequencyHz,
		r.Energy.KineticJoules, r.Energy.ThermalJoules, r.Energy.UsefulJoules, r.Energy.EfficiencyPercent,
		v.OverallConfidence, strings.Join(gates, " "),
	)
}

func formatFix(f gps.Fix) string {
	return fmt.Sprintf(
		"[GPS ] time=%s date=%s lat=%.6f lon=%.6f speed=%.1fkm/h course=%.1f° validity=%s",
		f.Time, f.Date, f.Latitude, f.Longitude, f.SpeedKmh(), f.CourseDeg, f.Validity,
	)
}

func formatLive(s liveSample) string {
	return fmt.Sprintf("[LIVE] x=%6.3f y=%6.3f z=%6.3f", s.X, s.Y, s.Z)
}

func passMark(ok bool) string {
	if ok {
		return "ok"
	}
	return "--"
}
