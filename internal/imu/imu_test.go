// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mehak2807/urban-pulse-energy/internal/rng"
)

func TestCalculateRMS(t *testing.T) {
	src := rng.New(1)
	for i := 0; i < 200; i++ {
		x := rng.Uniform(src, -20, 20)
		y := rng.Uniform(src, -20, 20)
		z := rng.Uniform(src, -20, 20)
		assert.InDelta(t, math.Sqrt(x*x+y*y+z*z), CalculateRMS(x, y, z), 1e-12)
	}
	assert.Equal(t, 5.0, CalculateRMS(3, 4, 0))
	assert.Zero(t, CalculateRMS(0, 0, 0))
}

func TestNewAccelKeepsRMSConsistent(t *testing.T) {
	a := NewAccel(0.6, 0.3, 9.9)
	assert.InDelta(t, a.Vector().Magnitude(), a.RMS, 1e-12)
}

func TestRawVectorScaling(t *testing.T) {
	r := Raw{Ax: 16384, Ay: -16384, Az: 0}

	v := r.Vector(0)
	assert.InDelta(t, StandardGravity, v.X, 1e-9)
	assert.InDelta(t, -StandardGravity, v.Y, 1e-9)
	assert.Zero(t, v.Z)

	assert.InDelta(t, 2*StandardGravity, r.Vector(1).X, 1e-9)
	assert.InDelta(t, StandardGravity, r.Vector(9).X, 1e-9, "unknown range falls back to ±2g")
}

func TestLiveFeedShape(t *testing.T) {
	start := time.Unix(0, 0)
	now := start
	f := newLiveFeed(rng.NewSequence(1, 1, 1), func() time.Time { return now })

	v := f.Next()
	assert.InDelta(t, 0.3, v.X, 1e-12)
	assert.InDelta(t, 0.2+0.5, v.Y, 1e-12)
	assert.InDelta(t, 9.8, v.Z, 1e-12)

	now = start.Add(314 * time.Millisecond)
	v = f.Next()
	assert.InDelta(t, 0.3+0.8*math.Sin(314.0/200), v.X, 1e-12)
	assert.InDelta(t, 9.8+0.4*math.Sin(314.0/150), v.Z, 1e-12)
}
