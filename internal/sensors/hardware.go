// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/mehak2807/urban-pulse-energy/internal/env"
	"github.com/mehak2807/urban-pulse-energy/internal/imu"
)

// DefaultPollInterval is the accelerometer polling period during a scan.
const DefaultPollInterval = 20 * time.Millisecond

// HardwareConfig selects the SPI devices for a real MPU-9250 + BMP280 board.
type HardwareConfig struct {
	IMUSPIDevice string
	IMUCSPin     string
	BMPSPIDevice string
	AccelRange   byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g
	PollInterval time.Duration
}

type accelerometer interface {
	GetAccelerationX() (int16, error)
	GetAccelerationY() (int16, error)
	GetAccelerationZ() (int16, error)
}

type thermometer interface {
	Sense(e *physic.Env) error
}

type imuDevice interface {
	Init() error
	SetAccelRange(fsSel byte) error
}

var _ imu.RawReader = (*HardwareSource)(nil)

// configureIMU initializes the chip and programs the accelerometer full
// scale. The driver takes the FS_SEL bits in ACCEL_CONFIG position (bits 4:3).
func configureIMU(dev imuDevice, accelRange byte) error {
	if accelRange > 3 {
		return fmt.Errorf("accel range must be 0-3, got %d", accelRange)
	}
	if err := dev.Init(); err != nil {
		return fmt.Errorf("IMU initialization: %w", err)
	}
	if err := dev.SetAccelRange(accelRange << 3); err != nil {
		return fmt.Errorf("IMU set accel range: %w", err)
	}
	return nil
}

// HardwareSource captures a scan from a physical IMU and BMP sensor. The
// accelerometer is averaged over the scan and the temperature is read at the
// start (baseline) and end (current).
type HardwareSource struct {
	name   string
	accel  accelerometer
	thermo thermometer
	cfg    HardwareConfig
	log    *zap.SugaredLogger
	now    func() time.Time

	mu     sync.Mutex
	window []imu.Vector
}

// NewHardwareSource initializes periph, the IMU over SPI and the BMP over SPI.
func NewHardwareSource(cfg HardwareConfig, log *zap.SugaredLogger) (*HardwareSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU SPI transport (%s): %w", cfg.IMUSPIDevice, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("IMU device creation: %w", err)
	}
	if err := configureIMU(dev, cfg.AccelRange); err != nil {
		return nil, err
	}
	log.Infof("sensors: IMU on %s ready (accel range %d, ±%dg)", cfg.IMUSPIDevice, cfg.AccelRange, 2<<cfg.AccelRange)

	bus, err := spireg.Open(cfg.BMPSPIDevice)
	if err != nil {
		return nil, fmt.Errorf("BMP SPI open: %w", err)
	}
	bmp, err := bmxx80.NewSPI(bus, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("BMP init: %w", err)
	}
	log.Infof("sensors: BMP on %s ready", cfg.BMPSPIDevice)

	return newHardwareSource("board", dev, bmp, cfg, log), nil
}

func newHardwareSource(name string, a accelerometer, th thermometer, cfg HardwareConfig, log *zap.SugaredLogger) *HardwareSource {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &HardwareSource{
		name:   name,
		accel:  a,
		thermo: th,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// ReadRaw reads one raw accelerometer sample.
func (s *HardwareSource) ReadRaw() (imu.Raw, error) {
	ax, err := s.accel.GetAccelerationX()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("%s IMU accel X: %w", s.name, err)
	}
	ay, err := s.accel.GetAccelerationY()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("%s IMU accel Y: %w", s.name, err)
	}
	az, err := s.accel.GetAccelerationZ()
	if err != nil {
		return imu.Raw{}, fmt.Errorf("%s IMU accel Z: %w", s.name, err)
	}
	return imu.Raw{Source: s.name, Ax: ax, Ay: ay, Az: az}, nil
}

// ReadEnv reads temperature and pressure from the BMP.
func (s *HardwareSource) ReadEnv() (env.Sample, error) {
	var e physic.Env
	if err := s.thermo.Sense(&e); err != nil {
		return env.Sample{}, fmt.Errorf("%s BMP sense: %w", s.name, err)
	}
	return env.Sample{
		Source:      s.name,
		Temperature: e.Temperature.Celsius(),
		Pressure:    float64(e.Pressure) / float64(physic.Pascal),
	}, nil
}

// Sample polls the accelerometer for durationSeconds and returns the mean
// vector as the scan's reading.
func (s *HardwareSource) Sample(ctx context.Context, durationSeconds float64) (SensorSample, error) {
	start := s.now()
	before, err := s.ReadEnv()
	if err != nil {
		return SensorSample{}, err
	}

	deadline := time.NewTimer(time.Duration(durationSeconds * float64(time.Second)))
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	var (
		window []imu.Vector
		sum    imu.Vector
	)
	read := func() error {
		raw, err := s.ReadRaw()
		if err != nil {
			return err
		}
		v := raw.Vector(s.cfg.AccelRange)
		window = append(window, v)
		sum.X += v.X
		sum.Y += v.Y
		sum.Z += v.Z
		return nil
	}

	if err := read(); err != nil {
		return SensorSample{}, err
	}
poll:
	for {
		select {
		case <-ctx.Done():
			return SensorSample{}, ctx.Err()
		case <-deadline.C:
			break poll
		case <-ticker.C:
			if err := read(); err != nil {
				s.log.Warnf("sensors: %v", err)
			}
		}
	}

	after, err := s.ReadEnv()
	if err != nil {
		return SensorSample{}, err
	}

	n := float64(len(window))
	s.mu.Lock()
	s.window = window
	s.mu.Unlock()

	return SensorSample{
		Accelerometer:   imu.NewAccel(sum.X/n, sum.Y/n, sum.Z/n),
		Thermal:         env.NewThermal(before.Temperature, after.Temperature),
		TimestampMs:     start.UnixMilli(),
		DurationSeconds: durationSeconds,
	}, nil
}

// LastWindow returns the samples polled during the most recent scan.
func (s *HardwareSource) LastWindow() []imu.Vector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]imu.Vector(nil), s.window...)
}
