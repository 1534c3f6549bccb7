// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "math"

// StandardGravity in m/s².
const StandardGravity = 9.80665

// Vector is one tri-axis accelerometer sample in m/s².
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Magnitude returns the RMS magnitude of the vector.
func (v Vector) Magnitude() float64 {
	return CalculateRMS(v.X, v.Y, v.Z)
}

// Scale multiplies each axis independently.
func (v Vector) Scale(kx, ky, kz float64) Vector {
	return Vector{X: v.X * kx, Y: v.Y * ky, Z: v.Z * kz}
}

// CalculateRMS returns sqrt(x²+y²+z²).
func CalculateRMS(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}

// Accel is an accelerometer reading together with its RMS magnitude.
type Accel struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	RMS float64 `json:"rms"`
}

// NewAccel builds an Accel, computing RMS from the axes.
func NewAccel(x, y, z float64) Accel {
	return Accel{X: x, Y: y, Z: z, RMS: CalculateRMS(x, y, z)}
}

// Vector drops the magnitude.
func (a Accel) Vector() Vector {
	return Vector{X: a.X, Y: a.Y, Z: a.Z}
}

// Raw is a single raw accelerometer sample as read from an MPU-9250.
type Raw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"`
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`
}

// accelFullScaleG maps the MPU-9250 ACCEL_FS_SEL value to ±g.
var accelFullScaleG = []float64{2, 4, 8, 16}

// Vector converts the raw counts to m/s² for the given accelerometer range
// (0=±2g, 1=±4g, 2=±8g, 3=±16g). Out-of-range values fall back to ±2g.
func (r Raw) Vector(accelRange byte) Vector {
	fs := accelFullScaleG[0]
	if int(accelRange) < len(accelFullScaleG) {
		fs = accelFullScaleG[accelRange]
	}
	scale := fs * StandardGravity / 32768.0
	return Vector{
		X: float64(r.Ax) * scale,
		Y: float64(r.Ay) * scale,
		Z: float64(r.Az) * scale,
	}
}

// RawReader reads one raw sample.
type RawReader interface {
	ReadRaw() (Raw, error)
}
