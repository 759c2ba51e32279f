package transport

// Envelope is the wire format for every server-to-client event.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Emitter is the transport seam the engine emits through. The Hub implements
// it for real WebSocket connections; tests substitute a recording fake.
// Delivery is fire-and-forget: a disconnected target simply drops the event.
type Emitter interface {
	// ToConn unicasts to a single connection handle.
	ToConn(connID, event string, payload interface{}) error
	// ToRoom multicasts to every connection subscribed to the room's group.
	ToRoom(roomID, event string, payload interface{})
	// ToRoomExcept multicasts to the room's group, skipping one connection.
	ToRoomExcept(roomID, exceptConnID, event string, payload interface{})
	// ToAll emits to every live connection.
	ToAll(event string, payload interface{})
	// Join subscribes a connection to a room's multicast group. Idempotent.
	Join(connID, roomID string)
	// Leave unsubscribes a connection from a room's multicast group.
	Leave(connID, roomID string)
	// IsConnected reports whether the handle refers to a live connection.
	IsConnected(connID string) bool
}
