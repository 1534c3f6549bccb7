// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"

	"github.com/mehak2807/urban-pulse-energy/internal/env"
	"github.com/mehak2807/urban-pulse-energy/internal/imu"
)

// SensorSample is one accelerometer + thermal reading covering a whole scan.
// It is created once per scan and never modified afterwards.
type SensorSample struct {
	Accelerometer   imu.Accel   `json:"accelerometer"`
	Thermal         env.Thermal `json:"thermal"`
	TimestampMs     int64       `json:"timestamp"`
	DurationSeconds float64     `json:"duration"`
}

// Source produces the sample for one scan of the given duration.
type Source interface {
	Sample(ctx context.Context, durationSeconds float64) (SensorSample, error)
}
