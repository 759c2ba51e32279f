package transport

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// ClientConnection wraps a WebSocket connection with metadata.
type ClientConnection struct {
	ID           string
	Conn         *websocket.Conn
	LastPong     time.Time
	SupportsGzip bool
	PingTicker   *time.Ticker
	CloseChan    chan struct{}

	// Serializes frame writes; broadcasts reach a connection from many
	// handler goroutines at once and the underlying conn is not safe for
	// concurrent writers.
	writeMux sync.Mutex
}

// Hub manages all active WebSocket connections and their room multicast
// groups. Connections are keyed by the opaque handle issued at upgrade time.
type Hub struct {
	clients      map[string]*ClientConnection
	groups       map[string]map[string]struct{} // roomID -> connIDs
	mux          sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHub creates a new Hub instance and starts its health checker.
func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[string]*ClientConnection),
		groups:       make(map[string]map[string]struct{}),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a client connection with health monitoring.
func (h *Hub) Register(connID string, conn *websocket.Conn, supportsGzip bool) {
	client := &ClientConnection{
		ID:           connID,
		Conn:         conn,
		LastPong:     time.Now(),
		SupportsGzip: supportsGzip,
		PingTicker:   time.NewTicker(h.pingInterval),
		CloseChan:    make(chan struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.mux.Lock()
		if c, exists := h.clients[connID]; exists {
			c.LastPong = time.Now()
		}
		h.mux.Unlock()
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.mux.Lock()
	h.clients[connID] = client
	total := len(h.clients)
	h.mux.Unlock()

	go h.pingRoutine(client)

	log.Printf("Connection %s registered (total: %d, gzip: %v)", connID, total, supportsGzip)
}

// Unregister removes a client connection and drops all of its group
// subscriptions. Safe to call more than once.
func (h *Hub) Unregister(connID string) {
	h.mux.Lock()
	if client, exists := h.clients[connID]; exists {
		if client.PingTicker != nil {
			client.PingTicker.Stop()
		}
		close(client.CloseChan)
	}
	delete(h.clients, connID)
	for roomID, group := range h.groups {
		delete(group, connID)
		if len(group) == 0 {
			delete(h.groups, roomID)
		}
	}
	total := len(h.clients)
	h.mux.Unlock()
	log.Printf("Connection %s unregistered (total: %d)", connID, total)
}

// IsConnected reports whether the handle refers to a live connection.
func (h *Hub) IsConnected(connID string) bool {
	h.mux.RLock()
	defer h.mux.RUnlock()
	_, exists := h.clients[connID]
	return exists
}

// Join subscribes a connection to a room's multicast group. Idempotent, like
// the transport join it replaces.
func (h *Hub) Join(connID, roomID string) {
	if roomID == "" {
		return
	}
	h.mux.Lock()
	defer h.mux.Unlock()
	if _, exists := h.clients[connID]; !exists {
		return
	}
	group, ok := h.groups[roomID]
	if !ok {
		group = make(map[string]struct{})
		h.groups[roomID] = group
	}
	group[connID] = struct{}{}
}

// Leave unsubscribes a connection from a room's multicast group.
func (h *Hub) Leave(connID, roomID string) {
	h.mux.Lock()
	defer h.mux.Unlock()
	group, ok := h.groups[roomID]
	if !ok {
		return
	}
	delete(group, connID)
	if len(group) == 0 {
		delete(h.groups, roomID)
	}
}

// ToConn sends an event to a specific connection with optional compression.
func (h *Hub) ToConn(connID, event string, payload interface{}) error {
	h.mux.RLock()
	client, exists := h.clients[connID]
	h.mux.RUnlock()

	if !exists {
		// Fire-and-forget: a disconnected target drops the event.
		return nil
	}
	return h.write(client, event, payload)
}

// ToRoom sends an event to every connection subscribed to the room.
func (h *Hub) ToRoom(roomID, event string, payload interface{}) {
	h.ToRoomExcept(roomID, "", event, payload)
}

// ToRoomExcept sends an event to the room's group, skipping one connection.
func (h *Hub) ToRoomExcept(roomID, exceptConnID, event string, payload interface{}) {
	h.mux.RLock()
	targets := make([]*ClientConnection, 0, len(h.groups[roomID]))
	for connID := range h.groups[roomID] {
		if connID == exceptConnID {
			continue
		}
		if client, exists := h.clients[connID]; exists {
			targets = append(targets, client)
		}
	}
	h.mux.RUnlock()

	for _, client := range targets {
		if err := h.write(client, event, payload); err != nil {
			log.Printf("Error sending %s to connection %s in room %s: %v", event, client.ID, roomID, err)
		}
	}
}

// ToAll sends an event to every live connection.
func (h *Hub) ToAll(event string, payload interface{}) {
	h.mux.RLock()
	targets := make([]*ClientConnection, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mux.RUnlock()

	for _, client := range targets {
		if err := h.write(client, event, payload); err != nil {
			log.Printf("Error broadcasting %s to connection %s: %v", event, client.ID, err)
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return len(h.clients)
}

func (h *Hub) write(client *ClientConnection, event string, payload interface{}) error {
	jsonData, err := json.Marshal(Envelope{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s for connection %s: %v", event, client.ID, err)
		return err
	}

	// Compress if supported and beneficial (> 512 bytes).
	finalData := jsonData
	frameType := websocket.TextMessage
	if client.SupportsGzip && len(jsonData) > 512 {
		if compressed, err := compressData(jsonData); err == nil && len(compressed) < len(jsonData) {
			finalData = compressed
			frameType = websocket.BinaryMessage
		}
	}

	client.writeMux.Lock()
	err = client.Conn.WriteMessage(frameType, finalData)
	client.writeMux.Unlock()
	if err != nil {
		log.Printf("Error writing %s to connection %s: %v", event, client.ID, err)
		h.Unregister(client.ID)
		return err
	}
	return nil
}

// pingRoutine sends periodic ping frames to keep the connection alive.
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for connection %s: %v", client.ID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			client.writeMux.Lock()
			err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			client.writeMux.Unlock()
			if err != nil {
				log.Printf("Ping failed for connection %s: %v", client.ID, err)
				h.Unregister(client.ID)
				return
			}
		}
	}
}

// connectionHealthChecker reaps connections that stopped answering pings.
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.mux.RLock()
		dead := make([]string, 0)
		now := time.Now()
		for connID, client := range h.clients {
			if now.Sub(client.LastPong) > h.pongTimeout {
				dead = append(dead, connID)
			}
		}
		h.mux.RUnlock()

		for _, connID := range dead {
			log.Printf("Removing dead connection %s (no pong received)", connID)
			h.Unregister(connID)
		}
	}
}

// compressData compresses data using gzip.
func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)

	if _, err := gzipWriter.Write(data); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
