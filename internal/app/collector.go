// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/kafkabus"
	"github.com/mehak2807/urban-pulse-energy/internal/mqttbus"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
	"github.com/mehak2807/urban-pulse-energy/internal/store"
)

type readingSaver interface {
	SaveReading(ctx context.Context, r scan.Reading) error
}

// collector persists readings and optionally forwards them to Kafka.
type collector struct {
	store   readingSaver
	forward *kafkabus.Forwarder // nil when Kafka is not configured
	log     *zap.SugaredLogger
}

func (c *collector) handle(ctx context.Context, r scan.Reading) {
	if r.ID == "" {
		c.log.Warn("collector: dropping reading without id")
		return
	}
	if err := c.store.SaveReading(ctx, r); err != nil {
		c.log.Errorf("collector: %v", err)
		return
	}
	c.log.Infof("collector: stored %s cell=%s confidence=%d", r.ID, r.CellID, r.Verification.OverallConfidence)

	if c.forward == nil {
		return
	}
	if _, err := c.forward.Forward(ctx, r); err != nil {
		c.log.Errorf("collector: %v", err)
	}
}

// RunCollector subscribes to TOPIC_READINGS, stores every reading and
// forwards verified ones to KAFKA_TOPIC_READINGS when KAFKA_BROKERS is set.
func RunCollector(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	c := &collector{store: db, log: log}
	if len(cfg.KafkaBrokers) > 0 {
		c.forward = kafkabus.NewForwarder(kafkabus.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicReadings), log)
		defer c.forward.Close()
		log.Infof("collector: forwarding to kafka topic %s", cfg.KafkaTopicReadings)
	}

	bus, err := mqttbus.Connect(cfg.MQTTBroker, cfg.MQTTClientIDCollector, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := mqttbus.SubscribeJSON(bus, cfg.TopicReadings, func(r scan.Reading) {
		c.handle(ctx, r)
	}); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("collector: shutting down")
	return nil
}
