// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urbanpulse_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
# broker on the pi
MQTT_BROKER=tcp://localhost:1883
TOPIC_READINGS=city/readings
SENSOR_SOURCE=hardware
IMU_ACCEL_RANGE=2
SCAN_PACING=0
SCAN_LAT=51.5
KAFKA_BROKERS=kafka-1:9092, kafka-2:9092
DISPLAY_I2C_ADDR=0x3c
LOG_LEVEL=DEBUG
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "city/readings", cfg.TopicReadings)
	assert.Equal(t, SourceHardware, cfg.SensorSource)
	assert.Equal(t, byte(2), cfg.IMUAccelRange)
	assert.Equal(t, 0.0, cfg.ScanPacing)
	assert.Equal(t, 51.5, cfg.ScanLat)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, uint16(SSD1306Addr), cfg.DisplayI2CAddr)
	assert.Equal(t, "debug", cfg.LogLevel)

	// untouched keys keep their defaults
	assert.Equal(t, "urbanpulse/gps", cfg.TopicGPS)
	assert.Equal(t, 15.0, cfg.ScanDurationSeconds)
	assert.Equal(t, 8080, cfg.WebServerPort)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "MQTT_BROKER=tcp://file:1883\nWEB_SERVER_PORT=9000\n")
	t.Setenv("WEB_SERVER_PORT", "9100")
	t.Setenv("SCAN_USER_ID", "rider-7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://file:1883", cfg.MQTTBroker)
	assert.Equal(t, 9100, cfg.WebServerPort)
	assert.Equal(t, "rider-7", cfg.ScanUserID)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://env:1883")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tcp://env:1883", cfg.MQTTBroker)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "MQTT_BROKER=b\nIMU_LEFT_SPI_DEVICE=/dev/spidev0.0\n", "unknown config key"},
		{"bad range", "MQTT_BROKER=b\nIMU_ACCEL_RANGE=5\n", "IMU_ACCEL_RANGE must be 0-3"},
		{"bad source", "MQTT_BROKER=b\nSENSOR_SOURCE=lidar\n", "SENSOR_SOURCE must be"},
		{"bad number", "MQTT_BROKER=b\nSCAN_INTERVAL=often\n", "invalid SCAN_INTERVAL"},
		{"latitude out of range", "MQTT_BROKER=b\nSCAN_LAT=91\n", "SCAN_LAT must be"},
		{"negative pacing", "MQTT_BROKER=b\nSCAN_PACING=-1\n", "SCAN_PACING must be"},
		{"hardware without imu", "MQTT_BROKER=b\nSENSOR_SOURCE=hardware\nIMU_SPI_DEVICE=\n", "IMU_SPI_DEVICE is required"},
		{"display address", "MQTT_BROKER=b\nDISPLAY_I2C_ADDR=0x3D\n", "DISPLAY_I2C_ADDR must be 0x3C"},
		{"kafka without topic", "MQTT_BROKER=b\nKAFKA_BROKERS=k:9092\nKAFKA_TOPIC_READINGS=\n", "KAFKA_TOPIC_READINGS is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadWithoutBroker(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")

	cfg, err := Load(writeConfig(t, "SCAN_PACING=0\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Equal(t, SourceSimulated, cfg.SensorSource)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorContains(t, err, "failed to read config file")
}
