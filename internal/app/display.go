// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/gps"
	"github.com/mehak2807/urban-pulse-energy/internal/mqttbus"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
	"github.com/mehak2807/urban-pulse-energy/internal/verify"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
)

// displayData holds the latest data for the OLED.
type displayData struct {
	mu sync.RWMutex

	reading     scan.Reading
	haveReading bool

	fix     gps.Fix
	haveFix bool
}

type displaySnapshot struct {
	reading     scan.Reading
	haveReading bool
	fix         gps.Fix
	haveFix     bool
}

func (d *displayData) snapshot() displaySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return displaySnapshot{reading: d.reading, haveReading: d.haveReading, fix: d.fix, haveFix: d.haveFix}
}

// RunDisplay shows the latest reading on an SSD1306 OLED until ctx is
// cancelled.
func RunDisplay(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Infof("display: initialized at 0x%02X", config.SSD1306Addr)

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Warnf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	client, err := mqttbus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, log)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := mqttbus.SubscribeJSON(client, cfg.TopicReadings, func(r scan.Reading) {
		data.mu.Lock()
		data.reading = r
		data.haveReading = true
		data.mu.Unlock()
	}); err != nil {
		return err
	}
	if err := mqttbus.SubscribeJSON(client, cfg.TopicGPS, func(f gps.Fix) {
		data.mu.Lock()
		data.fix = f
		data.haveFix = true
		data.mu.Unlock()
	}); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Info("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			_ = dev.Halt()
			return nil
		case <-ticker.C:
			img := renderReading(data.snapshot())
			if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
				log.Warnf("display: error updating display: %v", err)
			}
		}
	}
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, row int, text string) {
	d.Dot = fixed.P(x, lineHeight*row)
	d.DrawString(text)
}

// renderReading lays out useful energy, confidence and the gate flags, with
// the current speed on the last line when a fix is known.
func renderReading(s displaySnapshot) *image1bit.VerticalLSB {
	img, d := newCanvas()

	if !s.haveReading {
		drawLine(d, 0, 2, "UrbanPulse")
		drawLine(d, 0, 3, "Waiting...")
		return img
	}

	r := s.reading
	v := r.Verification
	drawLine(d, 0, 1, fmt.Sprintf("E:%8.3f J", r.Energy.UsefulJoules))
	drawLine(d, 0, 2, fmt.Sprintf("Conf: %3d%%", v.OverallConfidence))
	drawLine(d, 0, 3, gateFlags(v))

	if s.haveFix && s.fix.Valid() {
		drawLine(d, 0, 4, fmt.Sprintf("%.1f km/h", s.fix.SpeedKmh()))
	} else {
		drawLine(d, 0, 4, fmt.Sprintf("f:%5.1f Hz", r.Frequency.DominantFrequencyHz))
	}
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, d := newCanvas()
	d.Dot = fixed.P(20, 26)
	d.DrawString("UrbanPulse")
	d.Dot = fixed.P(10, 43)
	d.DrawString("Energy scan")
	return img
}

// gateFlags renders each gate as its initial and a pass flag, e.g. "P+ C+ S-".
func gateFlags(v verify.Result) string {
	flags := make([]string, 0, 3)
	for _, g := range v.Gates() {
		flags = append(flags, strings.ToUpper(g.Kind.String()[:1])+gateFlag(g.Passed))
	}
	return strings.Join(flags, " ")
}

func gateFlag(ok bool) string {
	if ok {
		return "+"
	}
	return "-"
}
