// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/guitar_controller/internal/config"
	"github.com/relabs-tech/guitar_controller/internal/input"
	"github.com/relabs-tech/guitar_controller/internal/ota"
	"github.com/relabs-tech/guitar_controller/internal/telemetry"
)

func formatEvents(events []input.Event) string {
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = e.String()
	}
	return "[EVNT] " + strings.Join(parts, ", ")
}

func formatReport(r telemetry.ReportMessage) string {
	return fmt.Sprintf("[RPRT] pressed=%v x=%6d bytes=%s", r.Pressed, r.X, r.Bytes)
}

func formatState(s telemetry.State) string {
	return fmt.Sprintf("[STAT] %-12s connected=%-5v raw=%s frets=%-20s pitch=%7.2f whammy=%6d",
		s.Mode, s.Connected, s.Raw, s.Frets, s.Pose.Pitch, s.Whammy)
}

func formatAnnouncement(a ota.Announcement) string {
	return fmt.Sprintf("[OTA ] %s listening on %s (auth=%v)", a.Hostname, a.Addr, a.Auth)
}

// subscribe decodes JSON messages on topic into T and prints them.
func subscribe[T any](client mqtt.Client, topic string, format func(T) string) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("console: %s unmarshal error: %v", topic, err)
			return
		}
		fmt.Println(format(v))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", topic)
	return nil
}

// RunConsoleMQTT prints everything the controller publishes until Ctrl+C.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("console: MQTT_BROKER is not configured")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID + "-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	if err := subscribe(client, cfg.Topic(telemetry.TopicEvents), formatEvents); err != nil {
		return err
	}
	if err := subscribe(client, cfg.Topic(telemetry.TopicReport), formatReport); err != nil {
		return err
	}
	if err := subscribe(client, cfg.Topic(telemetry.TopicState), formatState); err != nil {
		return err
	}
	if err := subscribe(client, cfg.Topic(telemetry.TopicOTA), formatAnnouncement); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
