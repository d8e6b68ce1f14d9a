// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/guitar_controller/internal/config"
	"github.com/relabs-tech/guitar_controller/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the dashboard is served from the device itself
	},
}

type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Dashboard holds the latest controller snapshot and pushes updates to
// websocket clients.
type Dashboard struct {
	mu      sync.RWMutex
	state   telemetry.State
	have    bool
	clients map[*wsClient]struct{}
}

func NewDashboard() *Dashboard {
	return &Dashboard{clients: make(map[*wsClient]struct{})}
}

// Update stores a snapshot and broadcasts it.
func (d *Dashboard) Update(st telemetry.State) {
	d.mu.Lock()
	d.state = st
	d.have = true
	clients := make([]*wsClient, 0, len(d.clients))
	for c := range d.clients {
		clients = append(clients, c)
	}
	d.mu.Unlock()

	for _, c := range clients {
		if err := c.send(st); err != nil {
			log.Printf("web: websocket write error: %v", err)
			d.drop(c)
		}
	}
}

func (d *Dashboard) drop(c *wsClient) {
	d.mu.Lock()
	delete(d.clients, c)
	d.mu.Unlock()
	c.conn.Close()
}

// Handler serves /api/state, /ws and the static files under staticDir.
func (d *Dashboard) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", d.handleState)
	mux.HandleFunc("/ws", d.handleWS)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

func (d *Dashboard) handleState(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(d.state); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (d *Dashboard) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn}

	d.mu.Lock()
	d.clients[c] = struct{}{}
	st, have := d.state, d.have
	d.mu.Unlock()

	if have {
		if err := c.send(st); err != nil {
			d.drop(c)
			return
		}
	}

	// The dashboard never sends anything; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			d.drop(c)
			return
		}
	}
}

// RunWeb subscribes to the controller's state topic and serves the
// dashboard.
func RunWeb() error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("web: MQTT_BROKER is not configured")
	}
	dash := NewDashboard()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID + "-web")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	topic := cfg.Topic(telemetry.TopicState)
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st telemetry.State
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("web: state unmarshal error: %v", err)
			return
		}
		dash.Update(st)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", topic)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: listening on %s", addr)
	return http.ListenAndServe(addr, dash.Handler("web"))
}
