// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

// Sample represents a single environmental measurement (BMP).
type Sample struct {
	Source string `json:"source"`

	Temperature float64 `json:"temp_c"`      // °C
	Pressure    float64 `json:"pressure_pa"` // Pa
}

// Thermal is the temperature rise observed over one scan.
type Thermal struct {
	Temperature float64 `json:"temperature"` // °C at the end of the scan
	Baseline    float64 `json:"baseline"`    // °C at the start of the scan
	Delta       float64 `json:"delta"`       // Temperature - Baseline
}

// NewThermal derives Delta from the two readings.
func NewThermal(baseline, current float64) Thermal {
	return Thermal{
		Temperature: current,
		Baseline:    baseline,
		Delta:       current - baseline,
	}
}
