// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/guitar_controller/internal/telemetry"
)

func TestDashboardState(t *testing.T) {
	dash := NewDashboard()
	srv := httptest.NewServer(dash.Handler(""))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status before data = %d, want 503", resp.StatusCode)
	}

	dash.Update(telemetry.State{Mode: "operational", Frets: "green+red"})

	resp, err = http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var st telemetry.State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Mode != "operational" || st.Frets != "green+red" {
		t.Errorf("state = %+v", st)
	}
}

func TestDashboardWebsocketPush(t *testing.T) {
	dash := NewDashboard()
	srv := httptest.NewServer(dash.Handler(""))
	defer srv.Close()

	dash.Update(telemetry.State{Mode: "initializing"})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var st telemetry.State
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read current state: %v", err)
	}
	if st.Mode != "initializing" {
		t.Errorf("first push mode = %q, want initializing", st.Mode)
	}

	dash.Update(telemetry.State{Mode: "operational", Cycle: 7})
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if st.Mode != "operational" || st.Cycle != 7 {
		t.Errorf("pushed state = %+v", st)
	}
}
