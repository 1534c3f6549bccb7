// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mqttbus wraps the paho client with JSON publish and subscribe
// helpers for the scanner's topics.
package mqttbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Client owns one broker connection.
type Client struct {
	client mqtt.Client
	log    *zap.SugaredLogger
}

// ErrNoBroker is returned by Connect when no broker URL is configured.
var ErrNoBroker = errors.New("mqtt: MQTT_BROKER is required")

// Connect dials broker with auto-reconnect enabled.
func Connect(broker, clientID string, log *zap.SugaredLogger) (*Client, error) {
	if broker == "" {
		return nil, ErrNoBroker
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Infof("mqtt: connected to %s as %s", broker, clientID)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warnf("mqtt: connection lost: %v", err)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", broker, token.Error())
	}
	return New(client, log), nil
}

// New wraps an existing paho client.
func New(client mqtt.Client, log *zap.SugaredLogger) *Client {
	return &Client{client: client, log: log}
}

// PublishJSON marshals v and publishes it at QoS 0.
func (c *Client) PublishJSON(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mqtt: marshal for %s: %w", topic, err)
	}
	if token := c.client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, token.Error())
	}
	return nil
}

// Subscribe registers a raw handler.
func (c *Client) Subscribe(topic string, handler mqtt.MessageHandler) error {
	if token := c.client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, token.Error())
	}
	c.log.Infof("mqtt: subscribed to %s", topic)
	return nil
}

// Close disconnects, allowing 250 ms for in-flight work.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

// SubscribeJSON decodes each message on topic into T before calling fn.
// Messages that do not decode are logged and dropped.
func SubscribeJSON[T any](c *Client, topic string, fn func(T)) error {
	return c.Subscribe(topic, JSONHandler(c.log, fn))
}

// JSONHandler adapts fn to a paho message handler.
func JSONHandler[T any](log *zap.SugaredLogger, fn func(T)) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Warnf("mqtt: bad payload on %s: %v", msg.Topic(), err)
			return
		}
		fn(v)
	}
}
