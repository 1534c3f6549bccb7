// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"time"

	"github.com/mehak2807/urban-pulse-energy/internal/env"
	"github.com/mehak2807/urban-pulse-energy/internal/imu"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
)

// Generator produces synthetic phone readings: a small horizontal vibration
// on x/y, gravity plus noise on z, and a warming battery.
type Generator struct {
	src rng.Source
	now func() time.Time
}

// NewGenerator returns a generator drawing from src.
func NewGenerator(src rng.Source) *Generator {
	return &Generator{src: src, now: time.Now}
}

// Generate builds one sample. Draw order is fixed (three bases, three
// jitters, baseline, offset) so a replayed sequence gives the same sample.
func (g *Generator) Generate(durationSeconds float64) SensorSample {
	baseX := rng.Uniform(g.src, 0.3, 1.0)
	baseY := rng.Uniform(g.src, 0.2, 0.7)
	baseZ := rng.Uniform(g.src, 9.8, 10.1)

	x := baseX + (g.src.Float64()-0.5)*0.2
	y := baseY + (g.src.Float64()-0.5)*0.2
	z := baseZ + (g.src.Float64()-0.5)*0.1

	baseline := rng.Uniform(g.src, 25, 35)
	current := baseline + rng.Uniform(g.src, 2, 7)

	return SensorSample{
		Accelerometer:   imu.NewAccel(x, y, z),
		Thermal:         env.NewThermal(baseline, current),
		TimestampMs:     g.now().UnixMilli(),
		DurationSeconds: durationSeconds,
	}
}

// Sample implements Source. It never fails.
func (g *Generator) Sample(_ context.Context, durationSeconds float64) (SensorSample, error) {
	return g.Generate(durationSeconds), nil
}
