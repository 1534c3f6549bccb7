// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rmcLine = "$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*70"

func TestParseSentenceRMC(t *testing.T) {
	fix, ok, err := ParseSentence(rmcLine + "\r\n")
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, fix.Valid())
	assert.Equal(t, 173.8, fix.SpeedKnots)
	assert.Equal(t, 231.8, fix.CourseDeg)
	assert.InDelta(t, 51.5637, fix.Latitude, 1e-4)
	assert.InDelta(t, -0.704, fix.Longitude, 1e-3)
	assert.InDelta(t, 173.8*1.852, fix.SpeedKmh(), 1e-9)
}

func TestParseSentenceSkipsNoise(t *testing.T) {
	for _, line := range []string{"", "   ", "garbage", "\r\n"} {
		_, ok, err := ParseSentence(line)
		assert.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestParseSentenceBadChecksum(t *testing.T) {
	_, ok, err := ParseSentence("$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*00")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestTrackerSpeed(t *testing.T) {
	now := time.Unix(1000, 0)
	tr := NewTracker(5 * time.Second)
	tr.now = func() time.Time { return now }

	assert.Zero(t, tr.SpeedKmh(), "no fix yet")

	tr.Update(Fix{SpeedKnots: 10, Validity: "A"})
	assert.InDelta(t, 18.52, tr.SpeedKmh(), 1e-9)

	now = now.Add(6 * time.Second)
	assert.Zero(t, tr.SpeedKmh(), "stale fix")

	tr.Update(Fix{SpeedKnots: 10, Validity: "V"})
	assert.Zero(t, tr.SpeedKmh(), "void fix")
}
