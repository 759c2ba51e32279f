// Package call manages ephemeral signaling rooms for WebRTC relays. The same
// state machine backs audio calls and screen shares; only key prefixes, event
// names and the sharer role differ per kind. Authoritative session state
// (host, participants, sharer) lives in the durable store keyed by room id;
// nothing session-scoped is held in process memory.
package call

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/models"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/notify"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/presence"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/transport"
)

// Kind describes one relay flavor.
type Kind struct {
	// EventPrefix prefixes every client-facing event name, e.g. "audio"
	// yields "audio-user-joined".
	EventPrefix string
	// roomKeyPrefix namespaces the session keys in the store.
	roomKeyPrefix string
	// connRoomsFormat is the per-connection active-relay-rooms set key.
	connRoomsFormat string
	// TracksSharer marks kinds with a distinguished sharer identity whose
	// stream the others view.
	TracksSharer bool
	// NotifyAll mirrors call notifications to every connection, not only
	// room members (used by embedded clients without room context).
	NotifyAll bool
	// missingRoomError is the error payload for joins without a host.
	missingRoomError string
}

var (
	Audio = Kind{
		EventPrefix:      "audio",
		roomKeyPrefix:    "callRoom",
		connRoomsFormat:  "socket:%s:callRooms",
		NotifyAll:        true,
		missingRoomError: "Room not found",
	}
	ScreenShare = Kind{
		EventPrefix:      "screenshare",
		roomKeyPrefix:    "screenshareRoom",
		connRoomsFormat:  "socket:%s:screenshareRooms",
		TracksSharer:     true,
		missingRoomError: "Screen share room not found",
	}
)

func (k Kind) event(suffix string) string {
	return k.EventPrefix + "-" + suffix
}

func (k Kind) hostKey(roomID string) string {
	return fmt.Sprintf("%s:%s:host", k.roomKeyPrefix, roomID)
}

func (k Kind) participantsKey(roomID string) string {
	return fmt.Sprintf("%s:%s:participants", k.roomKeyPrefix, roomID)
}

func (k Kind) sharerKey(roomID string) string {
	return fmt.Sprintf("%s:%s:sharerUserId", k.roomKeyPrefix, roomID)
}

func (k Kind) connRoomsKey(connID string) string {
	return fmt.Sprintf(k.connRoomsFormat, connID)
}

type Coordinator struct {
	kind       Kind
	store      store.Store
	emitter    transport.Emitter
	dispatcher *notify.Dispatcher
	presence   *presence.Tracker
}

func NewCoordinator(kind Kind, s store.Store, emitter transport.Emitter, dispatcher *notify.Dispatcher, tracker *presence.Tracker) *Coordinator {
	return &Coordinator{
		kind:       kind,
		store:      s,
		emitter:    emitter,
		dispatcher: dispatcher,
		presence:   tracker,
	}
}

// CreateOrJoin makes the caller host when no host exists, otherwise joins it
// as a participant. A non-empty participant set without a host is not
// reachable under correct sequencing; it is normalized to a fresh create.
func (c *Coordinator) CreateOrJoin(connID, roomID, userID string) error {
	if c.kind.TracksSharer {
		if err := c.store.Set(c.kind.sharerKey(roomID), []byte(userID), 0); err != nil {
			return fmt.Errorf("record sharer of %s room %s: %w", c.kind.EventPrefix, roomID, err)
		}
	}

	host, err := c.store.Get(c.kind.hostKey(roomID))
	if err != nil {
		return fmt.Errorf("resolve host of %s room %s: %w", c.kind.EventPrefix, roomID, err)
	}
	if len(host) > 0 {
		if err := c.Join(connID, roomID, userID); err != nil {
			return err
		}
		if c.kind.TracksSharer {
			c.inviteRoomMembers(roomID)
		}
		return nil
	}

	if err := c.store.Set(c.kind.hostKey(roomID), []byte(connID), 0); err != nil {
		return fmt.Errorf("record host of %s room %s: %w", c.kind.EventPrefix, roomID, err)
	}
	if err := c.store.SetAdd(c.kind.participantsKey(roomID), models.EncodeParticipant(connID, userID)); err != nil {
		return fmt.Errorf("add host to %s room %s: %w", c.kind.EventPrefix, roomID, err)
	}
	c.emitter.Join(connID, roomID)

	if !c.kind.TracksSharer {
		// Only the host is present at this point; the list is empty but the
		// client relies on receiving it.
		others, err := c.participantsExcept(roomID, connID)
		if err != nil {
			log.Printf("Error listing participants of %s room %s: %v", c.kind.EventPrefix, roomID, err)
		} else {
			c.emitter.ToConn(connID, c.kind.event("participants"), others)
		}
	}
	c.emitter.ToConn(connID, c.kind.event("room-created"), map[string]interface{}{"roomId": roomID})

	c.notifyCall(roomID, map[string]interface{}{
		"roomId":   roomID,
		"socketId": connID,
		"userId":   userID,
	})

	if err := c.store.SetAdd(c.kind.connRoomsKey(connID), roomID); err != nil {
		log.Printf("Error recording %s room %s for connection %s: %v", c.kind.EventPrefix, roomID, connID, err)
	}
	if c.kind.TracksSharer {
		c.inviteRoomMembers(roomID)
	}
	log.Printf("Connection %s created %s room %s for userId %s", connID, c.kind.EventPrefix, roomID, userID)
	return nil
}

// Join adds the caller to an active session. Without a host the session does
// not exist and the caller gets an explicit error event, never a retry.
func (c *Coordinator) Join(connID, roomID, userID string) error {
	host, err := c.store.Get(c.kind.hostKey(roomID))
	if err != nil {
		return fmt.Errorf("resolve host of %s room %s: %w", c.kind.EventPrefix, roomID, err)
	}
	if len(host) == 0 {
		c.emitter.ToConn(connID, "error", map[string]interface{}{"message": c.kind.missingRoomError})
		return nil
	}

	if err := c.store.SetAdd(c.kind.participantsKey(roomID), models.EncodeParticipant(connID, userID)); err != nil {
		return fmt.Errorf("add participant to %s room %s: %w", c.kind.EventPrefix, roomID, err)
	}
	c.emitter.Join(connID, roomID)

	others, err := c.participantsExcept(roomID, connID)
	if err != nil {
		log.Printf("Error listing participants of %s room %s: %v", c.kind.EventPrefix, roomID, err)
	}

	joined := map[string]interface{}{
		"roomId":   roomID,
		"socketId": connID,
		"userId":   userID,
	}
	joinedOther := map[string]interface{}{
		"socketId": connID,
		"userId":   userID,
	}
	notification := map[string]interface{}{
		"roomId":   roomID,
		"socketId": connID,
		"userId":   userID,
	}

	if c.kind.TracksSharer {
		sharerID := c.sharer(roomID)
		joined["initiatorUserId"] = sharerID
		joinedOther["initiatorUserId"] = sharerID
		notification["initiatorUserId"] = sharerID
		// The sharer drives the peer connections, so it gets the updated
		// participant list rather than the joiner.
		c.sendToUser(sharerID, c.kind.event("participants"), map[string]interface{}{
			"participantIds":  others,
			"initiatorUserId": sharerID,
		})
	} else {
		c.emitter.ToConn(connID, c.kind.event("participants"), others)
	}

	c.emitter.ToConn(connID, c.kind.event("room-joined"), joined)
	c.emitter.ToRoomExcept(roomID, connID, c.kind.event("user-joined"), joinedOther)

	// Re-ring members not yet in the call; late joiners trigger a fresh
	// notification on purpose.
	c.notifyCall(roomID, notification)

	if err := c.store.SetAdd(c.kind.connRoomsKey(connID), roomID); err != nil {
		log.Printf("Error recording %s room %s for connection %s: %v", c.kind.EventPrefix, roomID, connID, err)
	}
	log.Printf("Connection %s joined %s room %s for userId %s", connID, c.kind.EventPrefix, roomID, userID)
	return nil
}

// Leave removes the caller from the session. The session is deleted when no
// participants remain; the caller's relay-room bookkeeping and multicast
// subscription are always cleaned up, even when store steps partially fail.
func (c *Coordinator) Leave(connID, roomID, userID string) error {
	if roomID == "" {
		return nil
	}

	if err := c.store.SetRemove(c.kind.participantsKey(roomID), models.EncodeParticipant(connID, userID)); err != nil {
		log.Printf("Error removing connection %s from %s room %s: %v", connID, c.kind.EventPrefix, roomID, err)
	}
	size, err := c.store.SetCard(c.kind.participantsKey(roomID))
	if err != nil {
		return fmt.Errorf("size of %s room %s: %w", c.kind.EventPrefix, roomID, err)
	}

	c.emitter.ToRoom(roomID, c.kind.event("user-left"), map[string]interface{}{
		"socketId": connID,
		"userId":   userID,
	})

	if size == 0 {
		c.deleteSession(roomID)
		c.notifyEnded(roomID, connID)
	}

	if err := c.store.SetRemove(c.kind.connRoomsKey(connID), roomID); err != nil {
		log.Printf("Error removing %s room %s from connection %s: %v", c.kind.EventPrefix, roomID, connID, err)
	}
	c.emitter.Leave(connID, roomID)
	c.emitter.ToConn(connID, c.kind.event("left-room"), map[string]interface{}{"roomId": roomID})
	log.Printf("Connection %s left %s room %s", connID, c.kind.EventPrefix, roomID)
	return nil
}

// LeaveAll applies Leave to every relay room the connection is part of.
// Invoked on disconnect; idempotent.
func (c *Coordinator) LeaveAll(connID, userID string) error {
	rooms, err := c.store.SetMembers(c.kind.connRoomsKey(connID))
	if err != nil {
		return fmt.Errorf("resolve %s rooms of connection %s: %w", c.kind.EventPrefix, connID, err)
	}
	for _, roomID := range rooms {
		if err := c.Leave(connID, roomID, userID); err != nil {
			log.Printf("Error leaving %s room %s on disconnect of %s: %v", c.kind.EventPrefix, roomID, connID, err)
		}
	}
	return c.store.Delete(c.kind.connRoomsKey(connID))
}

// StopSharing force-leaves every participant and deletes the session. Only
// meaningful for sharer-tracking kinds; an ordinary leave deletes the
// session only when the last participant is gone, whereas the sharer ending
// the share tears it down for everyone at once.
func (c *Coordinator) StopSharing(connID, roomID string) error {
	if !c.kind.TracksSharer {
		return fmt.Errorf("%s sessions have no sharer to stop", c.kind.EventPrefix)
	}
	sharerID := c.sharer(roomID)

	c.dispatcher.NotifyRoomMembersTagged(roomID, c.kind.event("call-disconnected"), map[string]interface{}{
		"roomId":          roomID,
		"socketId":        connID,
		"initiatorUserId": sharerID,
	})

	entries, err := c.store.SetMembers(c.kind.participantsKey(roomID))
	if err != nil {
		return fmt.Errorf("list participants of %s room %s: %w", c.kind.EventPrefix, roomID, err)
	}
	for _, entry := range entries {
		p := models.ParseParticipant(entry)
		if err := c.store.SetRemove(c.kind.participantsKey(roomID), entry); err != nil {
			log.Printf("Error removing participant %s from %s room %s: %v", p.SocketID, c.kind.EventPrefix, roomID, err)
		}
		c.emitter.ToRoom(roomID, c.kind.event("user-left"), map[string]interface{}{
			"socketId": p.SocketID,
			"userId":   p.UserID,
		})
		c.emitter.Leave(p.SocketID, roomID)
		if err := c.store.SetRemove(c.kind.connRoomsKey(p.SocketID), roomID); err != nil {
			log.Printf("Error removing %s room %s from connection %s: %v", c.kind.EventPrefix, roomID, p.SocketID, err)
		}
	}

	c.deleteSession(roomID)
	log.Printf("Sharing stopped for %s room %s", c.kind.EventPrefix, roomID)
	return nil
}

// Participants returns the decoded participant set of a session.
func (c *Coordinator) Participants(roomID string) ([]models.Participant, error) {
	entries, err := c.store.SetMembers(c.kind.participantsKey(roomID))
	if err != nil {
		return nil, err
	}
	participants := make([]models.Participant, 0, len(entries))
	for _, entry := range entries {
		participants = append(participants, models.ParseParticipant(entry))
	}
	return participants, nil
}

func (c *Coordinator) participantsExcept(roomID, exceptConnID string) ([]models.Participant, error) {
	participants, err := c.Participants(roomID)
	if err != nil {
		return nil, err
	}
	others := make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		if p.SocketID != exceptConnID {
			others = append(others, p)
		}
	}
	return others, nil
}

func (c *Coordinator) sharer(roomID string) string {
	raw, err := c.store.Get(c.kind.sharerKey(roomID))
	if err != nil {
		log.Printf("Error resolving sharer of %s room %s: %v", c.kind.EventPrefix, roomID, err)
		return ""
	}
	return string(raw)
}

func (c *Coordinator) deleteSession(roomID string) {
	keys := []string{c.kind.hostKey(roomID), c.kind.participantsKey(roomID)}
	if c.kind.TracksSharer {
		keys = append(keys, c.kind.sharerKey(roomID))
	}
	if err := c.store.Delete(keys...); err != nil {
		log.Printf("Error deleting %s room %s: %v", c.kind.EventPrefix, roomID, err)
	}
}

// notifyCall rings every chat-room member's live connections.
func (c *Coordinator) notifyCall(roomID string, payload map[string]interface{}) {
	c.dispatcher.NotifyRoomMembersTagged(roomID, c.kind.event("call-notification"), payload)
	if c.kind.NotifyAll {
		c.emitter.ToAll(c.kind.event("call-notification-all"), payload)
	}
}

func (c *Coordinator) notifyEnded(roomID, connID string) {
	payload := map[string]interface{}{
		"roomId":   roomID,
		"socketId": connID,
	}
	c.dispatcher.NotifyRoomMembersTagged(roomID, c.kind.event("call-disconnected"), payload)
	if c.kind.NotifyAll {
		c.emitter.ToAll(c.kind.event("call-disconnected-all"), payload)
	}
}

// inviteRoomMembers asks every current chat-room member's connections to
// join the share as viewers.
func (c *Coordinator) inviteRoomMembers(roomID string) {
	userIDs, err := c.store.SetMembers(fmt.Sprintf("room:%s:users", roomID))
	if err != nil {
		log.Printf("Error resolving members of room %s for share invite: %v", roomID, err)
		return
	}
	for _, userID := range userIDs {
		connIDs, err := c.presence.Connections(userID)
		if err != nil {
			log.Printf("Error resolving connections of userId %s for share invite: %v", userID, err)
			continue
		}
		for _, connID := range connIDs {
			c.emitter.ToConn(connID, c.kind.event("ask-user-to-join-room"), map[string]interface{}{
				"roomId":   roomID,
				"socketId": connID,
				"userId":   userID,
			})
		}
	}
}

func (c *Coordinator) sendToUser(userID, event string, payload interface{}) {
	connIDs, err := c.presence.Connections(userID)
	if err != nil {
		log.Printf("Error resolving connections of userId %s for %s: %v", userID, event, err)
		return
	}
	for _, connID := range connIDs {
		c.emitter.ToConn(connID, event, payload)
	}
}

// RelayOffer forwards an SDP offer to the target connection, annotated with
// the sender. Payloads are opaque and never persisted; a missing target is
// dropped silently, signaling a peer that just disconnected is expected.
func (c *Coordinator) RelayOffer(connID, userID, targetID string, offer json.RawMessage) {
	c.relay(connID, userID, targetID, "offer", "offer", offer)
}

// RelayAnswer forwards an SDP answer to the target connection.
func (c *Coordinator) RelayAnswer(connID, userID, targetID string, answer json.RawMessage) {
	c.relay(connID, userID, targetID, "answer", "answer", answer)
}

// RelayCandidate forwards an ICE candidate to the target connection.
func (c *Coordinator) RelayCandidate(connID, userID, targetID string, candidate json.RawMessage) {
	c.relay(connID, userID, targetID, "ice-candidate", "candidate", candidate)
}

func (c *Coordinator) relay(connID, userID, targetID, eventSuffix, field string, body json.RawMessage) {
	if !c.emitter.IsConnected(targetID) {
		log.Printf("Dropping %s relay to missing connection %s", c.kind.event(eventSuffix), targetID)
		return
	}
	c.emitter.ToConn(targetID, c.kind.event(eventSuffix), map[string]interface{}{
		field:      body,
		"socketId": connID,
		"userId":   userID,
	})
}
