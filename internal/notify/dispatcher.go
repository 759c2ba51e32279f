// Package notify fans events out to room members. Two delivery paths exist
// on purpose: the multicast group reaches connections that currently have the
// room open, and per-member unicast reaches every live connection of every
// member regardless, which is how backgrounded clients get their badges.
package notify

import (
	"fmt"
	"log"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/presence"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/transport"
)

func roomUsersKey(roomID string) string {
	return fmt.Sprintf("room:%s:users", roomID)
}

type Dispatcher struct {
	store    store.Store
	emitter  transport.Emitter
	presence *presence.Tracker
}

func NewDispatcher(s store.Store, emitter transport.Emitter, tracker *presence.Tracker) *Dispatcher {
	return &Dispatcher{store: s, emitter: emitter, presence: tracker}
}

// BroadcastToRoom emits to the room's multicast group. No durable fan-out
// list is consulted.
func (d *Dispatcher) BroadcastToRoom(roomID, event string, payload interface{}) {
	d.emitter.ToRoom(roomID, event, payload)
}

// NotifyRoomMembers unicasts to every live connection of every room member,
// skipping excludeUserID (typically the author). Fire-and-forget; per-member
// lookup failures are logged and the fan-out continues.
func (d *Dispatcher) NotifyRoomMembers(roomID, event string, payload interface{}, excludeUserID string) {
	d.fanOut(roomID, excludeUserID, func(string) interface{} { return payload }, event)
}

// NotifyRoomMembersTagged behaves like NotifyRoomMembers but stamps each
// member's copy with a "user" field carrying that member's id, the shape the
// call-notification events use.
func (d *Dispatcher) NotifyRoomMembersTagged(roomID, event string, payload map[string]interface{}) {
	d.fanOut(roomID, "", func(userID string) interface{} {
		tagged := make(map[string]interface{}, len(payload)+1)
		for k, v := range payload {
			tagged[k] = v
		}
		tagged["user"] = userID
		return tagged
	}, event)
}

func (d *Dispatcher) fanOut(roomID, excludeUserID string, build func(userID string) interface{}, event string) {
	userIDs, err := d.store.SetMembers(roomUsersKey(roomID))
	if err != nil {
		log.Printf("Error resolving members of room %s for %s: %v", roomID, event, err)
		return
	}
	for _, userID := range userIDs {
		if userID == excludeUserID {
			continue
		}
		connIDs, err := d.presence.Connections(userID)
		if err != nil {
			log.Printf("Error resolving connections of userId %s for %s: %v", userID, event, err)
			continue
		}
		payload := build(userID)
		for _, connID := range connIDs {
			if err := d.emitter.ToConn(connID, event, payload); err != nil {
				log.Printf("Error sending %s to connection %s of userId %s: %v", event, connID, userID, err)
			}
		}
	}
}
