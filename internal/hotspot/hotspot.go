// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hotspot groups readings into geographic cells and ranks the cells
// by how suitable they are for energy harvesting.
package hotspot

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mehak2807/urban-pulse-energy/internal/rounding"
)

// DefaultCellSize is the cell edge in degrees (roughly 1 km).
const DefaultCellSize = 0.01

// CellID buckets a coordinate into a cell of sizeDeg degrees. The division
// is done in decimal so coordinates on a cell edge land in the upper cell.
func CellID(lat, lng, sizeDeg float64) string {
	if sizeDeg <= 0 {
		sizeDeg = DefaultCellSize
	}
	size := decimal.NewFromFloat(sizeDeg)
	row := decimal.NewFromFloat(lat).Div(size).Floor().IntPart()
	col := decimal.NewFromFloat(lng).Div(size).Floor().IntPart()
	return fmt.Sprintf("%d_%d", row, col)
}

type Location struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
	Area string  `json:"area,omitempty"`
}

type Metrics struct {
	TotalUsers       int     `json:"totalUsers"`
	AverageEnergy    float64 `json:"averageEnergy"`
	Confidence       int     `json:"confidence"`
	SuitabilityScore int     `json:"suitabilityScore"`
}

// Hotspot is one cell's summary.
type Hotspot struct {
	ID          string    `json:"id"`
	Location    Location  `json:"location"`
	Metrics     Metrics   `json:"metrics"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Aggregate is the raw per-cell tally a store produces.
type Aggregate struct {
	CellID        string
	Lat, Lng      float64 // mean position of the readings
	Users         int
	Readings      int
	EnergySum     float64 // Σ useful joules
	ConfidenceSum float64 // Σ overall confidence
	PhysicsPassed int
	LastUpdated   time.Time
}

// FromAggregate derives the hotspot metrics for a cell. An aggregate with
// no readings yields zero metrics.
func FromAggregate(a Aggregate) Hotspot {
	h := Hotspot{
		ID:          a.CellID,
		Location:    Location{Lat: a.Lat, Lng: a.Lng, Area: a.CellID},
		LastUpdated: a.LastUpdated,
	}
	if a.Readings == 0 {
		return h
	}
	n := float64(a.Readings)
	confidence := rounding.Int(a.ConfidenceSum / n)
	passRate := float64(a.PhysicsPassed) / n

	h.Metrics = Metrics{
		TotalUsers:       a.Users,
		AverageEnergy:    rounding.HalfUp(a.EnergySum/n, 2),
		Confidence:       confidence,
		SuitabilityScore: rounding.Int(0.6*float64(confidence) + 0.4*passRate*100),
	}
	return h
}

// Stats is the network-wide summary shown on the dashboard.
type Stats struct {
	TotalHotspots     int     `json:"totalHotspots"`
	TotalUsers        int     `json:"totalUsers"`
	TotalEnergy       float64 `json:"totalEnergy"`
	AverageConfidence int     `json:"averageConfidence"`
}

// NetworkStats summarises hotspots. Energy is weighted by users.
func NetworkStats(hotspots []Hotspot) Stats {
	if len(hotspots) == 0 {
		return Stats{}
	}
	var (
		users      int
		energy     float64
		confidence float64
	)
	for _, h := range hotspots {
		users += h.Metrics.TotalUsers
		energy += h.Metrics.AverageEnergy * float64(h.Metrics.TotalUsers)
		confidence += float64(h.Metrics.Confidence)
	}
	return Stats{
		TotalHotspots:     len(hotspots),
		TotalUsers:        users,
		TotalEnergy:       rounding.HalfUp(energy, 2),
		AverageConfidence: rounding.Int(confidence / float64(len(hotspots))),
	}
}

// SortBySuitability orders hotspots best first, keeping input order on ties.
func SortBySuitability(hotspots []Hotspot) {
	sort.SliceStable(hotspots, func(i, j int) bool {
		return hotspots[i].Metrics.SuitabilityScore > hotspots[j].Metrics.SuitabilityScore
	})
}

func SuitabilityGrade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	}
	return "D"
}

func ConfidenceTier(confidence int) string {
	switch {
	case confidence >= 90:
		return "high"
	case confidence >= 80:
		return "good"
	case confidence >= 70:
		return "fair"
	}
	return "low"
}

// MarkerSize buckets a user count for map markers.
func MarkerSize(users int) string {
	switch {
	case users >= 200:
		return "xl"
	case users >= 100:
		return "l"
	case users >= 50:
		return "m"
	}
	return "s"
}

// Ranked is a hotspot with its display labels.
type Ranked struct {
	Hotspot
	Grade      string `json:"grade"`
	Tier       string `json:"tier"`
	MarkerSize string `json:"markerSize"`
}

// Rank sorts hotspots by suitability and attaches their labels.
func Rank(hotspots []Hotspot) []Ranked {
	sorted := append([]Hotspot(nil), hotspots...)
	SortBySuitability(sorted)
	out := make([]Ranked, len(sorted))
	for i, h := range sorted {
		out[i] = Ranked{
			Hotspot:    h,
			Grade:      SuitabilityGrade(h.Metrics.SuitabilityScore),
			Tier:       ConfidenceTier(h.Metrics.Confidence),
			MarkerSize: MarkerSize(h.Metrics.TotalUsers),
		}
	}
	return out
}
