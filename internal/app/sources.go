// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
	"github.com/mehak2807/urban-pulse-energy/internal/sensors"
)

// newSensorSource picks the simulated generator or the SPI sensor board.
func newSensorSource(cfg *config.Config, src rng.Source, log *zap.SugaredLogger) (sensors.Source, error) {
	switch cfg.SensorSource {
	case config.SourceHardware:
		hw, err := sensors.NewHardwareSource(sensors.HardwareConfig{
			IMUSPIDevice: cfg.IMUSPIDevice,
			IMUCSPin:     cfg.IMUCSPin,
			BMPSPIDevice: cfg.BMPSPIDevice,
			AccelRange:   cfg.IMUAccelRange,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("hardware sensors: %w", err)
		}
		log.Infof("sensors: using MPU-9250 on %s and BMP280 on %s", cfg.IMUSPIDevice, cfg.BMPSPIDevice)
		return hw, nil
	case config.SourceSimulated, "":
		log.Info("sensors: using simulated readings")
		return sensors.NewGenerator(src), nil
	}
	return nil, fmt.Errorf("unknown sensor source %q", cfg.SensorSource)
}

func scanRequest(cfg *config.Config) scan.Request {
	return scan.Request{
		UserID:          cfg.ScanUserID,
		Lat:             cfg.ScanLat,
		Lng:             cfg.ScanLng,
		DurationSeconds: cfg.ScanDurationSeconds,
	}
}
