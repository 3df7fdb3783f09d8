// Package api provides the monitor's HTTP and WebSocket server: status and
// suppression control endpoints plus a live device state feed.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"dinputproxy/internal/config"
	"dinputproxy/internal/dinput"
	"dinputproxy/internal/protocol"
	"dinputproxy/internal/proxy"
)

// Source supplies device state samples for the live feed.
type Source interface {
	// Sample reads the current device state.
	Sample() (dinput.JoyState, error)

	// Name identifies the source, e.g. "system" or "simulated".
	Name() string
}

// DeviceLister enumerates attached controllers.
type DeviceLister func() ([]protocol.DevicePayload, error)

// Server provides the monitor HTTP API.
type Server struct {
	configMgr *config.Manager
	source    Source
	devices   DeviceLister
	version   string
	token     string
	wsMgr     *WSManager
	stop      chan struct{}
}

// NewServer creates a monitor API server. devices may be nil when controller
// enumeration is unavailable.
func NewServer(configMgr *config.Manager, source Source, devices DeviceLister, version string) *Server {
	s := &Server{
		configMgr: configMgr,
		source:    source,
		devices:   devices,
		version:   version,
		stop:      make(chan struct{}),
	}
	s.wsMgr = newWSManager(s)
	return s
}

// Start starts the API server on the specified port. This blocks until the
// listener fails or the server is stopped.
func (s *Server) Start(port int) error {
	cfg := s.configMgr.Get()
	s.token = cfg.Monitor.APIToken

	go s.wsMgr.start()
	go s.runFeed(time.Duration(cfg.Monitor.PollIntervalMs) * time.Millisecond)

	// Use "0.0.0.0:port" and explicitly use tcp4 to avoid IPv6-only binding
	// issues on Windows.
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("Starting monitor API server on %s", addr)

	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		log.Printf("ERROR: API server failed to listen on %s: %v", addr, err)
		return err
	}

	server := &http.Server{
		Handler: s.handler(),
	}
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Printf("ERROR: API server stopped: %v", err)
		return err
	}
	return nil
}

// Stop shuts down the feed and the websocket hub.
func (s *Server) Stop() {
	close(s.stop)
	s.wsMgr.close()
}

// handler assembles the route table and middleware chain.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/suppression", s.handleSuppression)
	mux.HandleFunc("/api/devices", s.handleDevices)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// runFeed polls the state source and broadcasts one binary packet per sample
// to all websocket clients.
func (s *Server) runFeed(interval time.Duration) {
	if s.source == nil {
		return
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seq uint32
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			state, err := s.source.Sample()
			if err != nil {
				continue
			}
			seq++
			s.wsMgr.broadcastBinary(protocol.EncodeStatePacket(&protocol.StatePacket{
				Seq:       seq,
				Timestamp: time.Now().UnixMilli(),
				State:     state,
			}))
		}
	}
}

// BroadcastSuppression notifies connected clients of a toggle made outside
// the API, e.g. from the hotkey or tray.
func (s *Server) BroadcastSuppression(enabled bool) {
	if s.wsMgr != nil {
		s.wsMgr.broadcastSuppression(enabled)
	}
}

// recoverMiddleware prevents panics from crashing the whole server.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the API token if one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if s.token != "" {
			authHeader := r.Header.Get("Authorization")
			expectedAuth := "Bearer " + s.token

			if authHeader != expectedAuth {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// statusPayload snapshots the monitor state for /api/status and the
// websocket welcome message.
func (s *Server) statusPayload() protocol.StatusPayload {
	cfg := s.configMgr.Get()
	source := "none"
	if s.source != nil {
		source = s.source.Name()
	}
	return protocol.StatusPayload{
		Version:            s.version,
		SuppressionEnabled: proxy.SuppressionEnabled(),
		TargetDevType:      uint32(cfg.Target.SubCategory)<<8 | uint32(cfg.Target.Category),
		SuppressRotX:       cfg.Suppress.RotX,
		SuppressRotY:       cfg.Suppress.RotY,
		Source:             source,
	}
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(protocol.Message{
		Type:    protocol.TypeStatus,
		Payload: s.statusPayload(),
	})
}

// handleSuppression handles GET (read) and POST (toggle or set) for the
// suppression switch. POST accepts ?enabled=true|false or an empty body to
// flip the current value.
func (s *Server) handleSuppression(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		// Fall through to the common response below.

	case "POST":
		enabled := !proxy.SuppressionEnabled()
		if v := r.URL.Query().Get("enabled"); v != "" {
			switch strings.ToLower(v) {
			case "true", "1", "on":
				enabled = true
			case "false", "0", "off":
				enabled = false
			default:
				http.Error(w, "Invalid enabled parameter", http.StatusBadRequest)
				return
			}
		}
		proxy.SetSuppression(enabled)
		log.Printf("API: Suppression set to %v by %s", enabled, r.RemoteAddr)
		s.wsMgr.broadcastSuppression(enabled)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(protocol.Message{
		Type:    protocol.TypeSuppression,
		Payload: protocol.SuppressionPayload{Enabled: proxy.SuppressionEnabled()},
	})
}

// handleDevices handles GET /api/devices.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.devices == nil {
		http.Error(w, "Device enumeration unavailable", http.StatusServiceUnavailable)
		return
	}
	list, err := s.devices()
	if err != nil {
		log.Printf("API: Device enumeration error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(protocol.Message{
		Type:    protocol.TypeDevices,
		Payload: list,
	})
}

// handleConfig handles GET (read) and POST (update) for configuration.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		cfg := s.configMgr.Get()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)

	case "POST":
		var newCfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			http.Error(w, "Invalid configuration data", http.StatusBadRequest)
			return
		}

		log.Printf("API: Receiving configuration update from %s", r.RemoteAddr)

		s.configMgr.Set(&newCfg)
		if err := s.configMgr.Save(); err != nil {
			log.Printf("API: Failed to save received config: %v", err)
			http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleHealth handles GET /health (for monitoring).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
