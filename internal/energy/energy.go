// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package energy converts a scan's sensor sample into harvestable-energy
// estimates. Every figure is rounded at a fixed decimal place; downstream
// dashboards compare the rounded values, so the rounding is part of the output.
package energy

import (
	"math"

	"github.com/mehak2807/urban-pulse-energy/internal/rounding"
	"github.com/mehak2807/urban-pulse-energy/internal/sensors"
)

// Physical constants of the model.
const (
	PiezoEfficiency     = 0.15 // piezo conversion efficiency
	ThermalCoefficient  = 0.04 // share of thermal energy counted as loss
	HumanMassKg         = 70.0
	BatteryMassGrams    = 50.0
	BatterySpecificHeat = 0.9 // J/(g·°C)

	// velocityFactor approximates integrating acceleration over the scan.
	velocityFactor = 0.01
)

// Result holds the energy figures for one sample.
type Result struct {
	KineticJoules     float64 `json:"kineticEnergy"`
	ThermalJoules     float64 `json:"thermalEnergy"`
	UsefulJoules      float64 `json:"usefulEnergy"`
	EfficiencyPercent float64 `json:"efficiency"`
}

// KineticEnergy returns 0.5·m·v² in joules, rounded to 3 places, with
// v = rms·duration·0.01.
func KineticEnergy(rms, durationSeconds float64) float64 {
	velocity := rms * durationSeconds * velocityFactor
	return rounding.HalfUp(0.5*HumanMassKg*velocity*velocity, 3)
}

// ThermalEnergy returns m·c·|ΔT| for the phone battery in joules, rounded to
// 2 places.
func ThermalEnergy(tempDelta float64) float64 {
	return rounding.HalfUp(BatteryMassGrams*BatterySpecificHeat*math.Abs(tempDelta), 2)
}

// UsefulEnergy returns the harvestable share of kinetic energy minus thermal
// losses, rounded to 3 places and never negative.
func UsefulEnergy(kinetic, thermal float64) float64 {
	useful := rounding.HalfUp(kinetic*PiezoEfficiency-thermal*ThermalCoefficient, 3)
	return math.Max(0, useful)
}

// Estimate runs the full calculation for one sample. It has no state; equal
// samples give equal results.
func Estimate(sample sensors.SensorSample) Result {
	kinetic := KineticEnergy(sample.Accelerometer.RMS, sample.DurationSeconds)
	thermal := ThermalEnergy(sample.Thermal.Delta)
	useful := UsefulEnergy(kinetic, thermal)

	var efficiency float64
	if kinetic > 0 {
		efficiency = rounding.HalfUp(useful/kinetic*100, 1)
	}

	return Result{
		KineticJoules:     kinetic,
		ThermalJoules:     thermal,
		UsefulJoules:      useful,
		EfficiencyPercent: efficiency,
	}
}
