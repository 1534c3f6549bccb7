// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"time"

	"github.com/mehak2807/urban-pulse-energy/internal/rng"
)

// LiveInterval is how often the live feed is sampled while a scan is running.
const LiveInterval = 50 * time.Millisecond

// LiveFeed generates the smoothly varying accelerometer values shown while a
// scan is in its capture phase.
type LiveFeed struct {
	start time.Time
	src   rng.Source
	now   func() time.Time
}

// NewLiveFeed starts a feed at the current time.
func NewLiveFeed(src rng.Source) *LiveFeed {
	return newLiveFeed(src, time.Now)
}

func newLiveFeed(src rng.Source, now func() time.Time) *LiveFeed {
	return &LiveFeed{start: now(), src: src, now: now}
}

// Next returns the value for the current instant.
func (f *LiveFeed) Next() Vector {
	ms := float64(f.now().Sub(f.start).Milliseconds())

	return Vector{
		X: 0.3 + f.src.Float64()*0.8*math.Sin(ms/200),
		Y: 0.2 + f.src.Float64()*0.5*math.Cos(ms/300),
		Z: 9.8 + f.src.Float64()*0.4*math.Sin(ms/150),
	}
}
