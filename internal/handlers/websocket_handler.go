package handlers

import (
	"log"
	"os"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/call"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/chat"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/handlers/ws"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/presence"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/transport"
)

type WebSocketHandler struct {
	hub      *transport.Hub
	presence *presence.Tracker
	chat     *chat.Service
	audio    *call.Coordinator
	screen   *call.Coordinator
}

func NewWebSocketHandler(hub *transport.Hub, tracker *presence.Tracker, chatService *chat.Service, audio, screen *call.Coordinator) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		presence: tracker,
		chat:     chatService,
		audio:    audio,
		screen:   screen,
	}
}

// GetHub returns the hub instance (useful for sending messages from other handlers)
func (h *WebSocketHandler) GetHub() *transport.Hub {
	return h.hub
}

// HandleWebSocket runs one connection's lifecycle: issue an opaque handle,
// register with the hub, pump inbound events through the type registry, and
// on any exit path tear down call sessions and presence before unregistering.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	connID := uuid.NewString()
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	// Check if client supports gzip compression (via query param or header)
	supportsGzip := c.Query("gzip") == "1" || c.Headers("X-Supports-Gzip") == "1"

	// Large frames carry base64 attachments and raw audio chunks.
	c.SetReadLimit(100 * 1024 * 1024)

	h.hub.Register(connID, c, supportsGzip)

	ctx := &ws.MessageContext{
		ConnID:   connID,
		Emitter:  h.hub,
		Presence: h.presence,
		Chat:     h.chat,
		Audio:    h.audio,
		Screen:   h.screen,
	}

	defer func() {
		if err := h.audio.LeaveAll(connID, ctx.UserID); err != nil {
			log.Printf("Error leaving audio rooms on disconnect of %s: %v", connID, err)
		}
		if err := h.screen.LeaveAll(connID, ctx.UserID); err != nil {
			log.Printf("Error leaving screen share rooms on disconnect of %s: %v", connID, err)
		}
		if err := h.presence.Forget(connID, ctx.UserID); err != nil {
			log.Printf("Error forgetting connection %s of userId %s: %v", connID, ctx.UserID, err)
		}
		h.hub.Unregister(connID)
		log.Printf("Connection %s disconnected", connID)
	}()

	log.Printf("Connection %s established", connID)

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			log.Printf("Error reading message from connection %s: %v", connID, err)
			break
		}

		if wsDebug {
			log.Printf("ws_recv conn_id=%s frame_type=%d size=%d", connID, messageType, len(messageBytes))
		}

		// Decompress if binary message (gzip compressed)
		if messageType == websocket.BinaryMessage {
			decompressed, err := ws.DecompressMessage(messageBytes)
			if err != nil {
				log.Printf("Error decompressing message from connection %s: %v", connID, err)
				ctx.SendError("Failed to decompress message", err.Error())
				continue
			}
			messageBytes = decompressed
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			log.Printf("Error deserializing message from connection %s: %v", connID, err)
			ctx.SendError("Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(ctx); err != nil {
			log.Printf("Error processing message %s from connection %s: %v", msg.GetType(), connID, err)
			ctx.SendError("Failed to process message", err.Error())
		}
	}
}
