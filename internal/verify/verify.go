// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package verify scores how far a scan can be trusted. Three gates run
// independently over the sample, the frequency result and the grid cell's
// history; the overall confidence is an additive score of named contributions.
package verify

import (
	"fmt"

	"github.com/mehak2807/urban-pulse-energy/internal/analysis"
	"github.com/mehak2807/urban-pulse-energy/internal/rounding"
	"github.com/mehak2807/urban-pulse-energy/internal/sensors"
)

// Gate thresholds.
const (
	MinRMS             = 0.5
	MinFFTConfidence   = 0.5
	MinDurationSeconds = 10
	MaxSpeedKmh        = 15
	MinUniqueUsers     = 3
)

// Score weights.
const (
	PhysicsWeight       = 35
	ContextWeight       = 25
	SocialWeight        = 30
	FrequencyWeight     = 10
	GridActivityBonus   = 5
	GridActivityMinimum = 10 // bonus needs strictly more prior readings than this

	MaxConfidence = 99
)

// Check names.
const (
	CheckRMS         = "rms"
	CheckFFT         = "fft"
	CheckDuration    = "duration"
	CheckSpeed       = "speed"
	CheckUniqueUsers = "uniqueUsers"
)

// GridContext summarises a geographic cell. The zero value is the default
// used when nothing is known about the cell.
type GridContext struct {
	UniqueUsers   int `json:"uniqueUsers"`
	PriorReadings int `json:"priorReadings"`
}

// PhysicsGate checks the signal itself.
type PhysicsGate struct {
	GateOutcome
	RMSCheck     bool    `json:"rmsCheck"`
	FFTCheck     bool    `json:"fftCheck"`
	DominantFreq float64 `json:"dominantFreq"`
}

// ContextGate checks how the scan was taken.
type ContextGate struct {
	GateOutcome
	DurationCheck bool    `json:"durationCheck"`
	SpeedCheck    bool    `json:"speedCheck"`
	Duration      float64 `json:"duration"`
}

// SocialGate checks corroboration from other users in the same cell.
type SocialGate struct {
	GateOutcome
	GridFrequency int `json:"gridFrequency"`
	UniqueUsers   int `json:"uniqueUsers"`
}

// Contribution is one named term of the overall score.
type Contribution struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// Result is the trust evaluation of one scan.
type Result struct {
	PhysicsGate       PhysicsGate    `json:"physicsGate"`
	ContextGate       ContextGate    `json:"contextGate"`
	SocialGate        SocialGate     `json:"socialGate"`
	OverallConfidence int            `json:"overallConfidence"`
	Contributions     []Contribution `json:"contributions"`
}

// Gates returns the three gate outcomes in fixed order.
func (r Result) Gates() []GateOutcome {
	return []GateOutcome{r.PhysicsGate.GateOutcome, r.ContextGate.GateOutcome, r.SocialGate.GateOutcome}
}

// Verify evaluates all gates and the overall confidence. Pass 0 and
// GridContext{} when speed or cell history are unknown.
func Verify(sample sensors.SensorSample, freq analysis.FrequencyResult, speedKmh float64, grid GridContext) Result {
	rms := sample.Accelerometer.RMS
	rmsCheck := Check{
		Name:   CheckRMS,
		Passed: rms >= MinRMS,
		Detail: fmt.Sprintf("rms %.3f m/s² (min %.1f)", rms, MinRMS),
	}
	fftCheck := Check{
		Name:   CheckFFT,
		Passed: freq.IsHarmonic && freq.Confidence > MinFFTConfidence,
		Detail: fmt.Sprintf("harmonic=%t confidence %.2f (min >%.1f)", freq.IsHarmonic, freq.Confidence, MinFFTConfidence),
	}
	physics := PhysicsGate{
		GateOutcome:  evaluate(GatePhysics, rmsCheck, fftCheck),
		RMSCheck:     rmsCheck.Passed,
		FFTCheck:     fftCheck.Passed,
		DominantFreq: freq.DominantFrequencyHz,
	}

	durationCheck := Check{
		Name:   CheckDuration,
		Passed: sample.DurationSeconds >= MinDurationSeconds,
		Detail: fmt.Sprintf("duration %.1fs (min %ds)", sample.DurationSeconds, MinDurationSeconds),
	}
	speedCheck := Check{
		Name:   CheckSpeed,
		Passed: speedKmh <= MaxSpeedKmh,
		Detail: fmt.Sprintf("speed %.1f km/h (max %d)", speedKmh, MaxSpeedKmh),
	}
	context := ContextGate{
		GateOutcome:   evaluate(GateContext, durationCheck, speedCheck),
		DurationCheck: durationCheck.Passed,
		SpeedCheck:    speedCheck.Passed,
		Duration:      sample.DurationSeconds,
	}

	usersCheck := Check{
		Name:   CheckUniqueUsers,
		Passed: grid.UniqueUsers >= MinUniqueUsers,
		Detail: fmt.Sprintf("%d unique users (min %d)", grid.UniqueUsers, MinUniqueUsers),
	}
	social := SocialGate{
		GateOutcome:   evaluate(GateSocial, usersCheck),
		GridFrequency: grid.PriorReadings,
		UniqueUsers:   grid.UniqueUsers,
	}

	contributions := make([]Contribution, 0, 5)
	for _, g := range []GateOutcome{physics.GateOutcome, context.GateOutcome, social.GateOutcome} {
		var pts float64
		if g.Passed {
			pts = g.Kind.Weight()
		}
		contributions = append(contributions, Contribution{Name: g.Kind.String(), Points: pts})
	}
	contributions = append(contributions, Contribution{Name: "frequency", Points: freq.Confidence * FrequencyWeight})
	var bonus float64
	if grid.PriorReadings > GridActivityMinimum {
		bonus = GridActivityBonus
	}
	contributions = append(contributions, Contribution{Name: "gridActivity", Points: bonus})

	return Result{
		PhysicsGate:       physics,
		ContextGate:       context,
		SocialGate:        social,
		OverallConfidence: Score(contributions),
		Contributions:     contributions,
	}
}

// Score sums contributions, rounds half-up and clamps to [0, MaxConfidence].
func Score(contributions []Contribution) int {
	var total float64
	for _, c := range contributions {
		total += c.Points
	}
	score := rounding.Int(total)
	if score < 0 {
		return 0
	}
	if score > MaxConfidence {
		return MaxConfidence
	}
	return score
}
