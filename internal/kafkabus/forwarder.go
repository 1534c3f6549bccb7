// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package kafkabus forwards verified readings to a Kafka topic for
// downstream consumers.
package kafkabus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/scan"
)

// MinConfidence is the overall confidence a reading needs to be forwarded.
const MinConfidence = 50

// MessageWriter is the subset of *kafka.Writer the forwarder uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a synchronous writer for topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

type Forwarder struct {
	w   MessageWriter
	log *zap.SugaredLogger
}

func NewForwarder(w MessageWriter, log *zap.SugaredLogger) *Forwarder {
	return &Forwarder{w: w, log: log}
}

// Forward writes r keyed by its cell id. It reports false when the reading
// is below MinConfidence and was skipped.
func (f *Forwarder) Forward(ctx context.Context, r scan.Reading) (bool, error) {
	if r.Verification.OverallConfidence < MinConfidence {
		f.log.Debugf("kafka: skip %s, confidence %d", r.ID, r.Verification.OverallConfidence)
		return false, nil
	}
	value, err := json.Marshal(r)
	if err != nil {
		return false, fmt.Errorf("kafka: marshal reading %s: %w", r.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(r.CellID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "reading-id", Value: []byte(r.ID)},
		},
	}
	if err := f.w.WriteMessages(ctx, msg); err != nil {
		return false, fmt.Errorf("kafka: write reading %s: %w", r.ID, err)
	}
	return true, nil
}

func (f *Forwarder) Close() error {
	return f.w.Close()
}
