// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Topic suffixes under the configured prefix.
const (
	TopicState  = "state"
	TopicEvents = "events"
	TopicReport = "report"
	TopicOTA    = "ota"
)

// Client is the part of an MQTT client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends snapshots to MQTT. Publishes are fire and forget so the
// report loop never waits on the broker.
type Publisher struct {
	client Client
	prefix string
}

// NewPublisher publishes through an already connected client.
func NewPublisher(client Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

// Connect dials the broker and returns the client and a publisher on it.
func Connect(broker, clientID, prefix string) (mqtt.Client, *Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("telemetry: MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("telemetry: connected to MQTT broker at %s", broker)
	return client, NewPublisher(client, prefix), nil
}

// Topic joins the prefix and a suffix.
func (p *Publisher) Topic(suffix string) string {
	return p.prefix + "/" + suffix
}

// Observe publishes a snapshot. Snapshots carrying events also publish the
// events and the resulting report.
func (p *Publisher) Observe(s State) {
	p.publish(TopicState, true, s)
	if len(s.Events) == 0 {
		return
	}

	p.publish(TopicEvents, false, s.Events)

	report := s.Report()
	raw, err := report.MarshalBinary()
	if err != nil {
		log.Printf("telemetry: report marshal error: %v", err)
		return
	}
	p.publish(TopicReport, true, ReportMessage{
		Time:    s.Time,
		Pressed: s.Pressed(),
		X:       s.Whammy,
		Bytes:   hex.EncodeToString(raw),
	})
}

func (p *Publisher) publish(suffix string, retained bool, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("telemetry: %s marshal error: %v", suffix, err)
		return
	}
	p.client.Publish(p.Topic(suffix), 0, retained, payload)
}
