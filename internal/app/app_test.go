// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/gps"
	"github.com/mehak2807/urban-pulse-energy/internal/kafkabus"
	"github.com/mehak2807/urban-pulse-energy/internal/logging"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
	"github.com/mehak2807/urban-pulse-energy/internal/sensors"
	"github.com/mehak2807/urban-pulse-energy/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.MQTTBroker = "tcp://localhost:1883"
	cfg.ScanPacing = 0
	cfg.ScanUserID = "tester"
	cfg.DBPath = filepath.Join(t.TempDir(), "urbanpulse.db")
	return cfg
}

func testReading(t *testing.T, userID string) scan.Reading {
	t.Helper()
	src := rng.NewSequence(0.5)
	r, err := scan.New(sensors.NewGenerator(src), src, scan.WithPacing(0)).
		Run(context.Background(), scan.Request{UserID: userID, Lat: 28.6139, Lng: 77.2090})
	require.NoError(t, err)
	return r
}

func TestRunOnce(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := RunOnce(context.Background(), cfg, rng.NewSequence(0.5), logging.Nop(), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "connecting")
	assert.Contains(t, text, "[SCAN]")

	start := strings.Index(text, "{\n")
	require.GreaterOrEqual(t, start, 0)
	var r scan.Reading
	require.NoError(t, json.Unmarshal([]byte(text[start:]), &r))
	assert.Equal(t, "tester", r.UserID)
	assert.Equal(t, "2861_7720", r.CellID)
	assert.Equal(t, 68, r.Verification.OverallConfidence)
}

func TestRunOnceWithoutBroker(t *testing.T) {
	cfg := testConfig(t)
	cfg.MQTTBroker = ""

	var out bytes.Buffer
	require.NoError(t, RunOnce(context.Background(), cfg, rng.NewSequence(0.5), logging.Nop(), &out))
	assert.Contains(t, out.String(), `"cellId": "2861_7720"`)
}

func TestRunOnceRejectsUnknownSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.SensorSource = "sonar"

	err := RunOnce(context.Background(), cfg, rng.NewSequence(0.5), logging.Nop(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown sensor source")
}

type recordingPublisher struct {
	topics []string
	err    error
}

func (p *recordingPublisher) PublishJSON(topic string, _ bool, _ any) error {
	p.topics = append(p.topics, topic)
	return p.err
}

func TestScanAndPublish(t *testing.T) {
	cfg := testConfig(t)
	src := rng.NewSequence(0.5)
	scanner := scan.New(sensors.NewGenerator(src), src, scan.WithPacing(0))

	pub := &recordingPublisher{}
	require.NoError(t, scanAndPublish(context.Background(), scanner, pub, cfg))
	assert.Equal(t, []string{cfg.TopicReadings}, pub.topics)

	pub.err = errors.New("broker gone")
	err := scanAndPublish(context.Background(), scanner, pub, cfg)
	assert.ErrorContains(t, err, "broker gone")
}

type fakeKafka struct{ msgs []kafka.Message }

func (f *fakeKafka) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafka) Close() error { return nil }

func TestCollectorHandle(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer db.Close()

	k := &fakeKafka{}
	c := &collector{store: db, forward: kafkabus.NewForwarder(k, logging.Nop()), log: logging.Nop()}

	r := testReading(t, "u1")
	c.handle(ctx, r)
	c.handle(ctx, r) // retained redelivery
	c.handle(ctx, scan.Reading{})

	g, err := db.GridContext(ctx, r.CellID)
	require.NoError(t, err)
	assert.Equal(t, 1, g.PriorReadings)

	// 68 >= 50, forwarded each time it is seen
	assert.Len(t, k.msgs, 2)
}

func TestPublishFixes(t *testing.T) {
	input := strings.Join([]string{
		"$GPRMC,220516,A,5133.82,N,00042.24,W,173.8,231.8,130694,004.2,W*70",
		"garbage",
		"$GPRMC,broken*00",
		"$GPGGA,172814.0,3723.46587704,N,12202.26957864,W,2,6,1.2,18.893,M,-25.669,M,2.0,0031*4F",
		"",
	}, "\r\n")

	var fixes []gps.Fix
	err := publishFixes(strings.NewReader(input), func(f gps.Fix) error {
		fixes = append(fixes, f)
		return nil
	}, logging.Nop())
	require.NoError(t, err)

	require.Len(t, fixes, 1)
	assert.True(t, fixes[0].Valid())
	assert.InDelta(t, 173.8*gps.KnotsToKmh, fixes[0].SpeedKmh(), 1e-9)
}

func TestFormatReading(t *testing.T) {
	r := testReading(t, "u1")
	line := formatReading(r)
	assert.Contains(t, line, "at="+r.Time().UTC().Format(time.RFC3339))
	assert.Equal(t, r.Timestamp, r.Time().UnixMilli())
	assert.Contains(t, line, "user=u1")
	assert.Contains(t, line, "cell=2861_7720")
	assert.Contains(t, line, "confidence=68")
	assert.Contains(t, line, "physics=ok context=ok social=--")

	assert.Contains(t, formatFix(gps.Fix{SpeedKnots: 10, Validity: "A"}), "speed=18.5km/h")
}

func countOn(img *image1bit.VerticalLSB) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.BitAt(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func TestRenderReading(t *testing.T) {
	waiting := renderReading(displaySnapshot{})
	withReading := renderReading(displaySnapshot{reading: testReading(t, "u1"), haveReading: true})

	assert.Positive(t, countOn(waiting))
	assert.Positive(t, countOn(withReading))
	assert.NotEqual(t, waiting.Pix, withReading.Pix)
	assert.Positive(t, countOn(renderSplash()))
}

func TestGateFlags(t *testing.T) {
	assert.Equal(t, "P+ C+ S-", gateFlags(testReading(t, "u1").Verification))
}
