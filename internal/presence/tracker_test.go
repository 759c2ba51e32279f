package presence

import (
	"testing"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
)

func TestAnnounceAndForget(t *testing.T) {
	tracker := NewTracker(store.NewMemoryStore())

	if err := tracker.Announce("conn-1", "u1", "alice"); err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if err := tracker.Announce("conn-2", "u1", "alice"); err != nil {
		t.Fatalf("Announce second device: %v", err)
	}
	// Same connection announcing twice must not duplicate.
	if err := tracker.Announce("conn-1", "u1", "alice"); err != nil {
		t.Fatalf("Announce repeat: %v", err)
	}

	conns, err := tracker.Connections("u1")
	if err != nil {
		t.Fatalf("Connections: %v", err)
	}
	if len(conns) != 2 {
		t.Errorf("Connections = %v, want 2 entries", conns)
	}

	username, err := tracker.Username("u1")
	if err != nil || username != "alice" {
		t.Errorf("Username = %q, %v, want alice", username, err)
	}

	if err := tracker.Forget("conn-1", "u1"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	conns, _ = tracker.Connections("u1")
	if len(conns) != 1 || conns[0] != "conn-2" {
		t.Errorf("Connections after Forget = %v, want [conn-2]", conns)
	}

	// Username survives disconnects.
	username, _ = tracker.Username("u1")
	if username != "alice" {
		t.Errorf("Username after Forget = %q, want alice", username)
	}
}

func TestAnonymousIdentityNoOps(t *testing.T) {
	tracker := NewTracker(store.NewMemoryStore())

	if err := tracker.Announce("conn-1", "", ""); err != nil {
		t.Fatalf("Announce anonymous: %v", err)
	}
	if err := tracker.Forget("conn-1", ""); err != nil {
		t.Fatalf("Forget anonymous: %v", err)
	}
	conns, err := tracker.Connections("")
	if err != nil || conns != nil {
		t.Errorf("Connections anonymous = %v, %v, want nil", conns, err)
	}
}

func TestRooms(t *testing.T) {
	tracker := NewTracker(store.NewMemoryStore())

	if err := tracker.AddRoom("u1", "general-abc"); err != nil {
		t.Fatalf("AddRoom: %v", err)
	}
	if err := tracker.AddRoom("u1", "general-abc"); err != nil {
		t.Fatalf("AddRoom repeat: %v", err)
	}
	if err := tracker.AddRoom("u1", "random-def"); err != nil {
		t.Fatalf("AddRoom second: %v", err)
	}

	rooms, err := tracker.Rooms("u1")
	if err != nil {
		t.Fatalf("Rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("Rooms = %v, want 2 entries", rooms)
	}
}
