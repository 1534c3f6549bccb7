// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scan

import (
	"fmt"
	"time"
)

// Phase is the user-visible stage of a scan.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseScanning
	PhaseProcessing
	PhaseComplete
)

var phaseNames = [...]string{"idle", "connecting", "scanning", "processing", "complete"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Progress is reported at each step of a scan.
type Progress struct {
	Phase   Phase   `json:"phase"`
	Percent float64 `json:"progress"`
	Message string  `json:"message,omitempty"`
}

// Progress marks and unscaled pacing of each step.
const (
	progressScanned    = 60
	progressProcessing = 70
	progressAnalyzed   = 85
	progressEstimated  = 95
	progressVerified   = 100

	connectDelay  = 1500 * time.Millisecond
	scanDelay     = 4000 * time.Millisecond
	analyzeDelay  = 1000 * time.Millisecond
	estimateDelay = 800 * time.Millisecond
	verifyDelay   = 600 * time.Millisecond

	progressTick = 100 * time.Millisecond
)
