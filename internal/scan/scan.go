// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package scan runs one energy scan end to end: capture a sensor sample,
// analyse its frequency content, estimate energy and verify the result.
package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/analysis"
	"github.com/mehak2807/urban-pulse-energy/internal/energy"
	"github.com/mehak2807/urban-pulse-energy/internal/hotspot"
	"github.com/mehak2807/urban-pulse-energy/internal/imu"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
	"github.com/mehak2807/urban-pulse-energy/internal/sensors"
	"github.com/mehak2807/urban-pulse-energy/internal/verify"
)

// DefaultDurationSeconds is the nominal capture length of a scan.
const DefaultDurationSeconds = 15

// SpeedSource reports the device's current ground speed.
type SpeedSource interface {
	SpeedKmh() float64
}

// GridSource looks up the history of a cell.
type GridSource interface {
	GridContext(ctx context.Context, cellID string) (verify.GridContext, error)
}

// windowSource is implemented by sensor sources that keep the raw samples
// of their last capture.
type windowSource interface {
	LastWindow() []imu.Vector
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Reading is a completed scan.
type Reading struct {
	ID           string                   `json:"id"`
	UserID       string                   `json:"userId"`
	CellID       string                   `json:"cellId"`
	Location     Location                 `json:"location"`
	Timestamp    int64                    `json:"timestamp"`
	SensorData   sensors.SensorSample     `json:"sensorData"`
	Frequency    analysis.FrequencyResult `json:"frequency"`
	Energy       energy.Result            `json:"energy"`
	Verification verify.Result            `json:"verification"`
}

// Time returns the reading timestamp.
func (r Reading) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Request describes who is scanning and where.
type Request struct {
	UserID          string
	Lat, Lng        float64
	DurationSeconds float64 // DefaultDurationSeconds when zero
}

// Window expands a single averaged reading into the three-point window the
// analyzer expects.
func Window(sample sensors.SensorSample) []imu.Vector {
	v := sample.Accelerometer.Vector()
	return []imu.Vector{
		v,
		v.Scale(0.9, 1.1, 1),
		v.Scale(1.1, 0.95, 1.02),
	}
}

// Scanner sequences the scan pipeline. It is safe for concurrent use if its
// sources are.
type Scanner struct {
	source   sensors.Source
	analyzer *analysis.Analyzer
	speed    SpeedSource
	grid     GridSource
	cellSize float64
	pacing   float64

	onProgress func(Progress)
	live       func(imu.Vector)
	liveSrc    rng.Source

	log   *zap.SugaredLogger
	newID func() string
	now   func() time.Time
}

type Option func(*Scanner)

func WithSpeedSource(s SpeedSource) Option { return func(sc *Scanner) { sc.speed = s } }

func WithGridSource(g GridSource) Option { return func(sc *Scanner) { sc.grid = g } }

// WithCellSize sets the cell edge in degrees.
func WithCellSize(deg float64) Option { return func(sc *Scanner) { sc.cellSize = deg } }

// WithPacing scales the presentation delays between steps. 1 reproduces the
// interactive timing, 0 runs the pipeline back to back.
func WithPacing(factor float64) Option { return func(sc *Scanner) { sc.pacing = factor } }

func WithProgress(fn func(Progress)) Option { return func(sc *Scanner) { sc.onProgress = fn } }

// WithLiveFeed emits a live accelerometer value every imu.LiveInterval while
// the scan is capturing. The feed draws from src so it does not disturb the
// pipeline's sequence.
func WithLiveFeed(fn func(imu.Vector), src rng.Source) Option {
	return func(sc *Scanner) {
		sc.live = fn
		sc.liveSrc = src
	}
}

func WithLogger(log *zap.SugaredLogger) Option { return func(sc *Scanner) { sc.log = log } }

// New builds a scanner reading from source and drawing analysis randomness
// from src.
func New(source sensors.Source, src rng.Source, opts ...Option) *Scanner {
	s := &Scanner{
		source:   source,
		analyzer: analysis.NewAnalyzer(src),
		cellSize: hotspot.DefaultCellSize,
		pacing:   1,
		log:      zap.NewNop().Sugar(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.liveSrc == nil {
		s.liveSrc = rng.Default()
	}
	return s
}

// Run performs one scan. Cancelling ctx aborts it between steps.
func (s *Scanner) Run(ctx context.Context, req Request) (Reading, error) {
	duration := req.DurationSeconds
	if duration <= 0 {
		duration = DefaultDurationSeconds
	}
	cellID := hotspot.CellID(req.Lat, req.Lng, s.cellSize)

	s.report(PhaseConnecting, 0, "initializing device sensors")
	if err := s.pause(ctx, connectDelay); err != nil {
		return Reading{}, err
	}

	s.report(PhaseScanning, 0, "capturing vibration data")
	stopLive := s.startLive()
	err := s.capture(ctx)
	stopLive()
	if err != nil {
		return Reading{}, err
	}
	sample, err := s.source.Sample(ctx, duration)
	if err != nil {
		return Reading{}, fmt.Errorf("scan: sample: %w", err)
	}
	s.report(PhaseScanning, progressScanned, "")

	s.report(PhaseProcessing, progressProcessing, "analyzing frequency spectrum")
	if err := s.pause(ctx, analyzeDelay); err != nil {
		return Reading{}, err
	}
	window := Window(sample)
	if ws, ok := s.source.(windowSource); ok {
		if w := ws.LastWindow(); len(w) > 0 {
			window = w
		}
	}
	freq, err := s.analyzer.Analyze(window)
	if err != nil {
		return Reading{}, fmt.Errorf("scan: analyze: %w", err)
	}
	s.report(PhaseProcessing, progressAnalyzed, "calculating energy")

	if err := s.pause(ctx, estimateDelay); err != nil {
		return Reading{}, err
	}
	est := energy.Estimate(sample)
	s.report(PhaseProcessing, progressEstimated, "verifying reading")

	if err := s.pause(ctx, verifyDelay); err != nil {
		return Reading{}, err
	}
	var speed float64
	if s.speed != nil {
		speed = s.speed.SpeedKmh()
	}
	var grid verify.GridContext
	if s.grid != nil {
		grid, err = s.grid.GridContext(ctx, cellID)
		if err != nil {
			return Reading{}, fmt.Errorf("scan: grid context for %s: %w", cellID, err)
		}
	}
	result := verify.Verify(sample, freq, speed, grid)

	reading := Reading{
		ID:           s.newID(),
		UserID:       req.UserID,
		CellID:       cellID,
		Location:     Location{Lat: req.Lat, Lng: req.Lng},
		Timestamp:    s.now().UnixMilli(),
		SensorData:   sample,
		Frequency:    freq,
		Energy:       est,
		Verification: result,
	}
	s.report(PhaseComplete, progressVerified, "")
	s.log.Debugf("scan: %s cell=%s useful=%.3fJ confidence=%d",
		reading.ID, cellID, est.UsefulJoules, result.OverallConfidence)
	return reading, nil
}

// capture waits out the scanning delay, ramping progress towards the
// scanned mark.
func (s *Scanner) capture(ctx context.Context) error {
	total := s.scaled(scanDelay)
	if total <= 0 {
		return ctx.Err()
	}
	deadline := time.NewTimer(total)
	defer deadline.Stop()
	ticker := time.NewTicker(progressTick)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-ticker.C:
			p := float64(time.Since(start)) / float64(total) * progressScanned
			s.report(PhaseScanning, min(p, progressScanned), "")
		}
	}
}

// startLive runs the live feed until the returned stop function is called.
func (s *Scanner) startLive() (stop func()) {
	if s.live == nil || s.scaled(scanDelay) <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		feed := imu.NewLiveFeed(s.liveSrc)
		ticker := time.NewTicker(imu.LiveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.live(feed.Next())
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (s *Scanner) scaled(d time.Duration) time.Duration {
	return time.Duration(float64(d) * s.pacing)
}

func (s *Scanner) pause(ctx context.Context, d time.Duration) error {
	d = s.scaled(d)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Scanner) report(phase Phase, percent float64, msg string) {
	if s.onProgress != nil {
		s.onProgress(Progress{Phase: phase, Percent: percent, Message: msg})
	}
}
