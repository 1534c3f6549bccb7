// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehak2807/urban-pulse-energy/internal/imu"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
)

func TestGenerateFromFixedSequence(t *testing.T) {
	seq := rng.NewSequence(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5)
	g := NewGenerator(seq)
	g.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	s := g.Generate(15)

	assert.InDelta(t, 0.65, s.Accelerometer.X, 1e-12)
	assert.InDelta(t, 0.45, s.Accelerometer.Y, 1e-12)
	assert.InDelta(t, 9.95, s.Accelerometer.Z, 1e-12)
	assert.InDelta(t, imu.CalculateRMS(0.65, 0.45, 9.95), s.Accelerometer.RMS, 1e-12)
	assert.InDelta(t, 30.0, s.Thermal.Baseline, 1e-12)
	assert.InDelta(t, 34.5, s.Thermal.Temperature, 1e-12)
	assert.InDelta(t, 4.5, s.Thermal.Delta, 1e-12)
	assert.Equal(t, int64(1_700_000_000_000), s.TimestampMs)
	assert.Equal(t, 15.0, s.DurationSeconds)
	assert.Equal(t, 8, seq.Draws())
}

func TestGenerateStaysInEnvelope(t *testing.T) {
	g := NewGenerator(rng.New(99))
	for i := 0; i < 2000; i++ {
		s := g.Generate(15)
		a := s.Accelerometer

		assert.True(t, a.X >= 0.2 && a.X < 1.1, "x=%v", a.X)
		assert.True(t, a.Y >= 0.1 && a.Y < 0.8, "y=%v", a.Y)
		assert.True(t, a.Z >= 9.75 && a.Z < 10.15, "z=%v", a.Z)
		assert.InDelta(t, imu.CalculateRMS(a.X, a.Y, a.Z), a.RMS, 1e-12)

		th := s.Thermal
		assert.True(t, th.Baseline >= 25 && th.Baseline < 35)
		assert.True(t, th.Delta >= 2 && th.Delta < 7)
		assert.InDelta(t, th.Temperature-th.Baseline, th.Delta, 1e-12)
	}
}

func TestGeneratorSample(t *testing.T) {
	g := NewGenerator(rng.New(3))
	s, err := g.Sample(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 12.0, s.DurationSeconds)
}
