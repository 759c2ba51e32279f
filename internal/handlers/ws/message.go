package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/call"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/chat"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/presence"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/transport"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/validation"
)

// MessageContext provides all dependencies needed for message processing.
// UserID and Username start empty and are filled in once the client announces
// itself; later events that carry identity refresh them.
type MessageContext struct {
	ConnID   string
	UserID   string
	Username string

	Emitter  transport.Emitter
	Presence *presence.Tracker
	Chat     *chat.Service
	Audio    *call.Coordinator
	Screen   *call.Coordinator
}

// attachIdentity refreshes the connection's identity from an event payload.
// Events may legitimately omit identity; empty values never clear what a
// previous event established.
func (ctx *MessageContext) attachIdentity(userID, username string) {
	validation.CheckIdentity(ctx.ConnID, userID, username)
	if userID != "" {
		ctx.UserID = userID
	}
	if username != "" {
		ctx.Username = username
	}
}

// SendError reports a processing failure to this connection only.
func (ctx *MessageContext) SendError(message, details string) {
	err := ctx.Emitter.ToConn(ctx.ConnID, "error_message", map[string]string{
		"error":   message,
		"details": details,
	})
	if err != nil {
		log.Printf("Error sending error_message to connection %s: %v", ctx.ConnID, err)
	}
}

// Message interface for all WebSocket message types
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire format wrapper
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func ToJson(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func FromJson(jsonBytes []byte, msg Message) error {
	return json.Unmarshal(jsonBytes, msg)
}

func CreateMessage(msgType string, typeRegistry map[string]reflect.Type) (Message, error) {
	msgTypeReflect, ok := typeRegistry[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}

	instance := reflect.New(msgTypeReflect).Interface()
	return instance.(Message), nil
}
