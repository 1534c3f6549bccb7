// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/gps"
	"github.com/mehak2807/urban-pulse-energy/internal/mqttbus"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes each RMC fix as JSON to TOPIC_GPS.
func RunGPSProducer(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	bus, err := mqttbus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDGPS, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("gps: open %s: %w", cfg.GPSSerialPort, err)
	}
	log.Infof("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	// closing the port unblocks the reader
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	err = publishFixes(port, func(f gps.Fix) error {
		return bus.PublishJSON(cfg.TopicGPS, true, f)
	}, log)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// publishFixes reads NMEA lines from r until EOF. Unparseable sentences and
// failed publishes are logged and skipped.
func publishFixes(r io.Reader, publish func(gps.Fix) error, log *zap.SugaredLogger) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fix, ok, perr := gps.ParseSentence(line)
			switch {
			case perr != nil:
				log.Debugf("gps: %v (line: %q)", perr, line)
			case ok:
				if err := publish(fix); err != nil {
					log.Warnf("gps: publish error: %v", err)
				} else {
					log.Debugf("gps: published fix %+v", fix)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gps: read: %w", err)
		}
	}
}
