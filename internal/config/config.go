// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// SSD1306Addr is the only address the ssd1306 I2C driver talks to.
const SSD1306Addr = 0x3C

// Sensor sources.
const (
	SourceSimulated = "simulated"
	SourceHardware  = "hardware"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDScanner   string
	MQTTClientIDCollector string
	MQTTClientIDWeb       string
	MQTTClientIDGPS       string
	MQTTClientIDConsole   string
	MQTTClientIDDisplay   string

	// Topics
	TopicReadings string
	TopicGPS      string
	TopicLive     string

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Sensors
	SensorSource  string // "simulated" or "hardware"
	IMUSPIDevice  string
	IMUCSPin      string
	BMPSPIDevice  string
	IMUAccelRange byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g

	// Scanning
	ScanDurationSeconds float64
	ScanInterval        int     // seconds between scans in the producer loop
	ScanPacing          float64 // 0 disables the presentation delays
	ScanUserID          string
	ScanLat             float64
	ScanLng             float64
	CellSizeDeg         float64

	// Storage and forwarding
	DBPath             string
	KafkaBrokers       []string // empty disables forwarding
	KafkaTopicReadings string

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Display
	DisplayI2CAddr        uint16 // must be SSD1306Addr
	DisplayUpdateInterval int // milliseconds

	LogLevel string
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through InitGlobal and Get.
//   - configOnce makes InitGlobal run once.
//   - configMu guards reads against the one write.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional key filled in.
func Default() *Config {
	return &Config{
		MQTTClientIDScanner:   "urbanpulse-scanner",
		MQTTClientIDCollector: "urbanpulse-collector",
		MQTTClientIDWeb:       "urbanpulse-web",
		MQTTClientIDGPS:       "urbanpulse-gps",
		MQTTClientIDConsole:   "urbanpulse-console",
		MQTTClientIDDisplay:   "urbanpulse-display",

		TopicReadings: "urbanpulse/readings",
		TopicGPS:      "urbanpulse/gps",
		TopicLive:     "urbanpulse/live",

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,

		SensorSource: SourceSimulated,
		IMUSPIDevice: "/dev/spidev0.0",
		IMUCSPin:     "GPIO8",
		BMPSPIDevice: "/dev/spidev0.1",

		ScanDurationSeconds: 15,
		ScanInterval:        30,
		ScanPacing:          1,
		ScanUserID:          "device",
		ScanLat:             28.6139,
		ScanLng:             77.2090,
		CellSizeDeg:         0.01,

		DBPath:             "urbanpulse.db",
		KafkaTopicReadings: "urbanpulse.readings",

		WebServerPort: 8080,
		WebStaticDir:  "web/static",

		DisplayI2CAddr:        SSD1306Addr,
		DisplayUpdateInterval: 1000,

		LogLevel: "info",
	}
}

// Load reads a KEY=VALUE file over the defaults, then applies environment
// variables with the same keys. An empty path loads defaults and
// environment only.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		values, err := godotenv.Read(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := cfg.setValue(k, strings.TrimSpace(values[k])); err != nil {
				return nil, fmt.Errorf("config %s: %w", configPath, err)
			}
		}
	}

	for _, k := range Keys {
		if v, ok := os.LookupEnv(k); ok {
			if err := cfg.setValue(k, strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("config env: %w", err)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Keys lists every recognised configuration key.
var Keys = []string{
	"MQTT_BROKER",
	"MQTT_CLIENT_ID_SCANNER", "MQTT_CLIENT_ID_COLLECTOR", "MQTT_CLIENT_ID_WEB",
	"MQTT_CLIENT_ID_GPS", "MQTT_CLIENT_ID_CONSOLE", "MQTT_CLIENT_ID_DISPLAY",
	"TOPIC_READINGS", "TOPIC_GPS", "TOPIC_LIVE",
	"GPS_SERIAL_PORT", "GPS_BAUD_RATE",
	"SENSOR_SOURCE", "IMU_SPI_DEVICE", "IMU_CS_PIN", "BMP_SPI_DEVICE", "IMU_ACCEL_RANGE",
	"SCAN_DURATION_SECONDS", "SCAN_INTERVAL", "SCAN_PACING", "SCAN_USER_ID",
	"SCAN_LAT", "SCAN_LNG", "CELL_SIZE_DEG",
	"DB_PATH", "KAFKA_BROKERS", "KAFKA_TOPIC_READINGS",
	"WEB_SERVER_PORT", "WEB_STATIC_DIR",
	"DISPLAY_I2C_ADDR", "DISPLAY_UPDATE_INTERVAL",
	"LOG_LEVEL",
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_SCANNER":
		c.MQTTClientIDScanner = value
	case "MQTT_CLIENT_ID_COLLECTOR":
		c.MQTTClientIDCollector = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_READINGS":
		c.TopicReadings = value
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_LIVE":
		c.TopicLive = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parseInt(key, value, 1, math.MaxInt32)

	// Sensors
	case "SENSOR_SOURCE":
		if value != SourceSimulated && value != SourceHardware {
			return fmt.Errorf("SENSOR_SOURCE must be %q or %q, got %q", SourceSimulated, SourceHardware, value)
		}
		c.SensorSource = value
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "BMP_SPI_DEVICE":
		c.BMPSPIDevice = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)

	// Scanning
	case "SCAN_DURATION_SECONDS":
		c.ScanDurationSeconds, err = parseFloat(key, value, 1, 3600)
	case "SCAN_INTERVAL":
		c.ScanInterval, err = parseInt(key, value, 1, 86400)
	case "SCAN_PACING":
		c.ScanPacing, err = parseFloat(key, value, 0, 10)
	case "SCAN_USER_ID":
		c.ScanUserID = value
	case "SCAN_LAT":
		c.ScanLat, err = parseFloat(key, value, -90, 90)
	case "SCAN_LNG":
		c.ScanLng, err = parseFloat(key, value, -180, 180)
	case "CELL_SIZE_DEG":
		c.CellSizeDeg, err = parseFloat(key, value, 0.0001, 10)

	// Storage and forwarding
	case "DB_PATH":
		c.DBPath = value
	case "KAFKA_BROKERS":
		c.KafkaBrokers = splitList(value)
	case "KAFKA_TOPIC_READINGS":
		c.KafkaTopicReadings = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value, 1, 60000)

	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, lo, hi, v)
	}
	return v, nil
}

func parseFloat(key, value string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s must be %g-%g, got %g", key, lo, hi, v)
	}
	return v, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validate checks that all required fields are set. MQTT_BROKER is only
// needed by the processes that connect, so mqttbus.Connect checks it.
func (c *Config) validate() error {
	if c.SensorSource == SourceHardware {
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for hardware sensors")
		}
		if c.BMPSPIDevice == "" {
			return fmt.Errorf("BMP_SPI_DEVICE is required for hardware sensors")
		}
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.DisplayI2CAddr != SSD1306Addr {
		return fmt.Errorf("DISPLAY_I2C_ADDR must be 0x%02X, got 0x%02X", SSD1306Addr, c.DisplayI2CAddr)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopicReadings == "" {
		return fmt.Errorf("KAFKA_TOPIC_READINGS is required when KAFKA_BROKERS is set")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
