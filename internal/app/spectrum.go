// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mehak2807/urban-pulse-energy/internal/scan"
)

// renderSpectrum writes an HTML line chart of a reading's spectrum.
func renderSpectrum(w io.Writer, r scan.Reading) error {
	x := make([]string, len(r.Frequency.Spectrum))
	y := make([]opts.LineData, len(r.Frequency.Spectrum))
	for i, v := range r.Frequency.Spectrum {
		x[i] = strconv.Itoa(i + 1)
		y[i] = opts.LineData{Value: v}
	}

	motion := "transient"
	if r.Frequency.IsHarmonic {
		motion = "harmonic"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "UrbanPulse spectrum", Theme: "dark", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Vibration spectrum",
			Subtitle: fmt.Sprintf("scan=%s dominant=%.1fHz %s confidence=%.2f", r.ID, r.Frequency.DominantFrequencyHz, motion, r.Frequency.Confidence),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hz", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "magnitude", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(x).
		AddSeries("spectrum", y, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return line.Render(w)
}
