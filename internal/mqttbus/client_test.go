// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mqttbus

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehak2807/urban-pulse-energy/internal/logging"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	retained bool
	payload  string
}

// fakeClient records publishes; other methods are unused.
type fakeClient struct {
	mqtt.Client
	sent []published
	err  error
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, retained: retained, payload: string(payload.([]byte))})
	return fakeToken{err: c.err}
}

type fix struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func TestPublishJSON(t *testing.T) {
	fc := &fakeClient{}
	c := New(fc, logging.Nop())

	require.NoError(t, c.PublishJSON("urbanpulse/gps", true, fix{Lat: 1.5, Lon: -2}))
	require.Len(t, fc.sent, 1)
	assert.Equal(t, published{topic: "urbanpulse/gps", retained: true, payload: `{"lat":1.5,"lon":-2}`}, fc.sent[0])
}

func TestPublishJSONErrors(t *testing.T) {
	fc := &fakeClient{err: errors.New("not connected")}
	c := New(fc, logging.Nop())

	err := c.PublishJSON("t", false, fix{})
	assert.ErrorContains(t, err, "not connected")

	err = c.PublishJSON("t", false, func() {})
	assert.ErrorContains(t, err, "marshal")
}

func TestJSONHandler(t *testing.T) {
	var got []fix
	h := JSONHandler(logging.Nop(), func(f fix) { got = append(got, f) })

	h(nil, fakeMessage{topic: "gps", payload: []byte(`{"lat":51.5,"lon":-0.7}`)})
	h(nil, fakeMessage{topic: "gps", payload: []byte(`not json`)})

	assert.Equal(t, []fix{{Lat: 51.5, Lon: -0.7}}, got)
}

func TestConnectRequiresBroker(t *testing.T) {
	c, err := Connect("", "urbanpulse-test", logging.Nop())
	assert.ErrorIs(t, err, ErrNoBroker)
	assert.Nil(t, c)
}
