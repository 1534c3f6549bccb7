// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package rounding implements the half-up rounding used by every published
// energy and confidence figure.
package rounding

import (
	"math"

	"github.com/shopspring/decimal"
)

var half = decimal.New(5, -1)

// HalfUp rounds x to places decimal places, ties toward +Inf.
//
// The value is first converted to its shortest decimal representation, so
// 0.2835 rounds to 0.284 even though the nearest float64 sits just below the tie.
func HalfUp(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	d := decimal.NewFromFloat(x).Shift(places).Add(half).Floor().Shift(-places)
	f, _ := d.Float64()
	return f
}

// Int rounds x half-up to the nearest integer.
func Int(x float64) int {
	return int(HalfUp(x, 0))
}
