package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"dinputproxy/internal/protocol"
	"dinputproxy/internal/proxy"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins; this is a local tool
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsFrame is one outbound websocket message. Control traffic goes out as
// text frames, the state feed as binary frames.
type wsFrame struct {
	messageType int
	data        []byte
}

// WSManager handles WebSocket connections and broadcasting.
type WSManager struct {
	server     *Server
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan wsFrame
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	shutdown   chan struct{}
	closeOnce  sync.Once
}

// WebSocketClient represents a connected viewer.
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan wsFrame
	ip      string
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan wsFrame, 16),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			m.clientsMu.Unlock()
			log.Printf("WS: New client registered from %s. Total clients: %d", client.ip, len(m.clients))

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
				log.Printf("WS: Client unregistered from %s. Total clients: %d", client.ip, len(m.clients))
			}
			m.clientsMu.Unlock()

		case frame := <-m.broadcast:
			m.broadcastFrame(frame)

		case <-m.shutdown:
			return
		}
	}
}

func (m *WSManager) close() {
	m.closeOnce.Do(func() { close(m.shutdown) })
}

func (m *WSManager) broadcastFrame(frame wsFrame) {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()

	for client := range m.clients {
		select {
		case client.send <- frame:
		default:
			// Slow client; drop the frame rather than stall the feed
		}
	}
}

// broadcastBinary queues a binary state packet for all clients.
func (m *WSManager) broadcastBinary(data []byte) {
	select {
	case m.broadcast <- wsFrame{messageType: websocket.BinaryMessage, data: data}:
	case <-m.shutdown:
	default:
	}
}

// broadcastMessage queues a JSON control message for all clients.
func (m *WSManager) broadcastMessage(msg protocol.Message) {
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		log.Printf("WS: Failed to marshal broadcast message: %v", err)
		return
	}
	select {
	case m.broadcast <- wsFrame{messageType: websocket.TextMessage, data: jsonMsg}:
	case <-m.shutdown:
	}
}

// broadcastSuppression notifies all clients of a suppression change.
func (m *WSManager) broadcastSuppression(enabled bool) {
	m.broadcastMessage(protocol.Message{
		Type:    protocol.TypeSuppression,
		Payload: protocol.SuppressionPayload{Enabled: enabled},
	})
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS: Failed to upgrade connection: %v", err)
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan wsFrame, 256),
		ip:      r.RemoteAddr,
	}

	// Greet with a status snapshot before the feed starts flowing
	if welcome, err := json.Marshal(protocol.Message{
		Type:    protocol.TypeStatus,
		Payload: m.server.statusPayload(),
	}); err == nil {
		client.send <- wsFrame{messageType: websocket.TextMessage, data: welcome}
	}

	m.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS: Read error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(frame.messageType, frame.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WS: Invalid message format: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeSuppression:
		var payload protocol.SuppressionPayload
		jsonBytes, _ := json.Marshal(msg.Payload)
		if err := json.Unmarshal(jsonBytes, &payload); err != nil {
			log.Printf("WS: Invalid suppression payload: %v", err)
			return
		}

		log.Printf("WS: Suppression set to %v by %s", payload.Enabled, c.ip)
		proxy.SetSuppression(payload.Enabled)
		c.manager.broadcastSuppression(payload.Enabled)

	case protocol.TypeStatus:
		// Client requested a fresh snapshot
		resp := protocol.Message{
			Type:    protocol.TypeStatus,
			Payload: c.manager.server.statusPayload(),
		}

		respBytes, _ := json.Marshal(resp)
		c.send <- wsFrame{messageType: websocket.TextMessage, data: respBytes}
	}
}
