// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"sync"
	"time"
)

// DefaultMaxAge is how long a fix is trusted before speed falls back to 0.
const DefaultMaxAge = 10 * time.Second

// Tracker keeps the most recent fix. It is safe for concurrent use; MQTT
// callbacks update it while scans read it.
type Tracker struct {
	mu      sync.RWMutex
	last    Fix
	at      time.Time
	haveFix bool

	maxAge time.Duration
	now    func() time.Time
}

// NewTracker creates a tracker. maxAge <= 0 selects DefaultMaxAge.
func NewTracker(maxAge time.Duration) *Tracker {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Tracker{maxAge: maxAge, now: time.Now}
}

// Update records fix as received now.
func (t *Tracker) Update(fix Fix) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = fix
	t.at = t.now()
	t.haveFix = true
}

// Latest returns the last fix if it is valid and fresh.
func (t *Tracker) Latest() (Fix, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.haveFix || !t.last.Valid() || t.now().Sub(t.at) > t.maxAge {
		return Fix{}, false
	}
	return t.last, true
}

// SpeedKmh returns the current ground speed, or 0 without a usable fix.
func (t *Tracker) SpeedKmh() float64 {
	fix, ok := t.Latest()
	if !ok {
		return 0
	}
	return fix.SpeedKmh()
}
