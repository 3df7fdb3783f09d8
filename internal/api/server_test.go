package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dinputproxy/internal/config"
	"dinputproxy/internal/dinput"
	"dinputproxy/internal/protocol"
	"dinputproxy/internal/proxy"

	"github.com/gorilla/websocket"
)

type fakeSource struct {
	state dinput.JoyState
}

func (f *fakeSource) Sample() (dinput.JoyState, error) { return f.state, nil }
func (f *fakeSource) Name() string                     { return "simulated" }

func newTestServer(t *testing.T, token string) (*Server, *httptest.Server) {
	t.Helper()

	mgr := config.NewManagerAt(t.TempDir() + "/config.json")
	cfg := config.DefaultConfig()
	cfg.Monitor.APIToken = token
	mgr.Set(cfg)

	s := NewServer(mgr, &fakeSource{}, nil, "test")
	s.token = token
	go s.wsMgr.start()

	ts := httptest.NewServer(s.handler())
	t.Cleanup(func() {
		ts.Close()
		s.Stop()
	})
	return s, ts
}

// TestHealthSkipsAuth verifies /health works without a token.
func TestHealthSkipsAuth(t *testing.T) {
	_, ts := newTestServer(t, "secret")

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
}

// TestAuthRequired verifies API endpoints reject a missing or wrong token.
func TestAuthRequired(t *testing.T) {
	_, ts := newTestServer(t, "secret")

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest("GET", ts.URL+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", resp.StatusCode)
	}
}

// TestStatusEndpoint verifies the status snapshot content.
func TestStatusEndpoint(t *testing.T) {
	proxy.SetSuppression(true)
	_, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var msg struct {
		Type    protocol.MessageType   `json:"type"`
		Payload protocol.StatusPayload `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != protocol.TypeStatus {
		t.Errorf("type = %q", msg.Type)
	}
	if msg.Payload.Version != "test" || msg.Payload.Source != "simulated" {
		t.Errorf("payload = %+v", msg.Payload)
	}
	if !msg.Payload.SuppressionEnabled {
		t.Error("suppression should be reported enabled")
	}
	if msg.Payload.TargetDevType != 0x0218 {
		t.Errorf("target dev type = %#x, want 0x0218", msg.Payload.TargetDevType)
	}
}

// TestSuppressionToggle verifies POST flips the switch and an explicit
// parameter sets it.
func TestSuppressionToggle(t *testing.T) {
	proxy.SetSuppression(true)
	defer proxy.SetSuppression(true)
	_, ts := newTestServer(t, "")

	post := func(query string) protocol.SuppressionPayload {
		t.Helper()
		resp, err := http.Post(ts.URL+"/api/suppression"+query, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var msg struct {
			Payload protocol.SuppressionPayload `json:"payload"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
			t.Fatal(err)
		}
		return msg.Payload
	}

	if got := post(""); got.Enabled {
		t.Error("first POST should flip suppression off")
	}
	if got := post(""); !got.Enabled {
		t.Error("second POST should flip suppression back on")
	}
	if got := post("?enabled=false"); got.Enabled {
		t.Error("enabled=false should force suppression off")
	}
	if got := post("?enabled=true"); !got.Enabled {
		t.Error("enabled=true should force suppression on")
	}
}

// TestDevicesUnavailable verifies the endpoint degrades when no lister is
// wired.
func TestDevicesUnavailable(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/devices")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

// TestDevicesEndpoint verifies the enumerated list is returned.
func TestDevicesEndpoint(t *testing.T) {
	s, ts := newTestServer(t, "")
	s.devices = func() ([]protocol.DevicePayload, error) {
		return []protocol.DevicePayload{
			{VendorID: 0x054C, ProductID: 0x0CE6, Product: "Wireless Controller", SixDOFClass: true},
		}, nil
	}

	resp, err := http.Get(ts.URL + "/api/devices")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var msg struct {
		Type    protocol.MessageType     `json:"type"`
		Payload []protocol.DevicePayload `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != protocol.TypeDevices || len(msg.Payload) != 1 {
		t.Fatalf("message = %+v", msg)
	}
	if !msg.Payload[0].SixDOFClass || msg.Payload[0].VendorID != 0x054C {
		t.Errorf("device = %+v", msg.Payload[0])
	}
}

// TestWebSocketWelcomeAndToggle connects a client, checks the status
// greeting, then toggles suppression over the socket.
func TestWebSocketWelcomeAndToggle(t *testing.T) {
	proxy.SetSuppression(true)
	defer proxy.SetSuppression(true)
	_, ts := newTestServer(t, "")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var welcome struct {
		Type    protocol.MessageType   `json:"type"`
		Payload protocol.StatusPayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &welcome); err != nil {
		t.Fatal(err)
	}
	if welcome.Type != protocol.TypeStatus || !welcome.Payload.SuppressionEnabled {
		t.Fatalf("welcome = %+v", welcome)
	}

	req := protocol.Message{
		Type:    protocol.TypeSuppression,
		Payload: protocol.SuppressionPayload{Enabled: false},
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}

	// The change lands before the confirmation broadcast; wait on the
	// global switch rather than the frame to avoid racing the feed.
	deadline := time.Now().Add(2 * time.Second)
	for proxy.SuppressionEnabled() {
		if time.Now().After(deadline) {
			t.Fatal("suppression was not disabled via websocket")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
