// Package presence maps stable user identities to the live connections and
// rooms currently representing them. All state lives in the durable store so
// membership survives disconnects and process restarts.
package presence

import (
	"fmt"
	"log"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
)

func usernameKey(userID string) string {
	return fmt.Sprintf("userId:%s:username", userID)
}

func socketsKey(userID string) string {
	return fmt.Sprintf("userId:%s:sockets", userID)
}

func roomsKey(userID string) string {
	return fmt.Sprintf("userId:%s:rooms", userID)
}

type Tracker struct {
	store store.Store
}

func NewTracker(s store.Store) *Tracker {
	return &Tracker{store: s}
}

// Announce idempotently registers a connection under a user. Other
// connections of the same user stay registered: multi-device is intentional,
// every device receives notifications.
func (t *Tracker) Announce(connID, userID, username string) error {
	if userID == "" {
		return nil
	}
	t.StoreUsername(userID, username)
	if err := t.store.SetAdd(socketsKey(userID), connID); err != nil {
		return fmt.Errorf("register connection %s for user %s: %w", connID, userID, err)
	}
	return nil
}

// StoreUsername records the user's last-announced display name. Best-effort:
// a failure is logged, never escalated, so identity-carrying events keep
// flowing.
func (t *Tracker) StoreUsername(userID, username string) {
	if userID == "" || username == "" {
		return
	}
	if err := t.store.Set(usernameKey(userID), []byte(username), 0); err != nil {
		log.Printf("Error storing username for userId %s: %v", userID, err)
	}
}

// Username resolves a user's last-announced display name, empty if unknown.
func (t *Tracker) Username(userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	val, err := t.store.Get(usernameKey(userID))
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// Forget removes the connection from its user's live set on disconnect.
// No-op for connections that never announced an identity.
func (t *Tracker) Forget(connID, userID string) error {
	if userID == "" {
		return nil
	}
	return t.store.SetRemove(socketsKey(userID), connID)
}

// Connections returns all live connection handles of a user.
func (t *Tracker) Connections(userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	return t.store.SetMembers(socketsKey(userID))
}

// Rooms returns all rooms the user belongs to, used to resubscribe a
// reconnecting user's connection to its multicast groups.
func (t *Tracker) Rooms(userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	return t.store.SetMembers(roomsKey(userID))
}

// AddRoom records room membership on the user side.
func (t *Tracker) AddRoom(userID, roomID string) error {
	if userID == "" {
		return nil
	}
	return t.store.SetAdd(roomsKey(userID), roomID)
}
