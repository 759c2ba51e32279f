package notify

import (
	"testing"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/presence"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/testutil"
)

func setup(t *testing.T) (*Dispatcher, *testutil.FakeEmitter, *presence.Tracker, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	emitter := testutil.NewFakeEmitter()
	tracker := presence.NewTracker(s)
	return NewDispatcher(s, emitter, tracker), emitter, tracker, s
}

func TestNotifyRoomMembersReachesEveryDevice(t *testing.T) {
	d, emitter, tracker, s := setup(t)

	s.SetAdd("room:general-abc:users", "u1", "u2")
	tracker.Announce("conn-1", "u1", "alice")
	tracker.Announce("conn-2", "u1", "alice")
	tracker.Announce("conn-3", "u2", "bob")

	d.NotifyRoomMembers("general-abc", "new_message_notification", map[string]string{"room": "general-abc"}, "")

	events := emitter.EventsNamed("new_message_notification")
	if len(events) != 3 {
		t.Fatalf("got %d emits, want 3 (one per device)", len(events))
	}
	seen := make(map[string]bool)
	for _, e := range events {
		seen[e.ConnID] = true
	}
	for _, connID := range []string{"conn-1", "conn-2", "conn-3"} {
		if !seen[connID] {
			t.Errorf("connection %s did not receive the notification", connID)
		}
	}
}

func TestNotifyRoomMembersExcludesAuthor(t *testing.T) {
	d, emitter, tracker, s := setup(t)

	s.SetAdd("room:general-abc:users", "u1", "u2")
	tracker.Announce("conn-1", "u1", "alice")
	tracker.Announce("conn-2", "u2", "bob")

	d.NotifyRoomMembers("general-abc", "new_message_notification", map[string]string{}, "u1")

	events := emitter.EventsNamed("new_message_notification")
	if len(events) != 1 {
		t.Fatalf("got %d emits, want 1", len(events))
	}
	if events[0].ConnID != "conn-2" {
		t.Errorf("notified %s, want conn-2 only", events[0].ConnID)
	}
}

func TestNotifyRoomMembersTaggedStampsEachCopy(t *testing.T) {
	d, emitter, tracker, s := setup(t)

	s.SetAdd("room:general-abc:users", "u1", "u2")
	tracker.Announce("conn-1", "u1", "alice")
	tracker.Announce("conn-2", "u2", "bob")

	base := map[string]interface{}{"roomId": "general-abc"}
	d.NotifyRoomMembersTagged("general-abc", "audio-call-notification", base)

	events := emitter.EventsNamed("audio-call-notification")
	if len(events) != 2 {
		t.Fatalf("got %d emits, want 2", len(events))
	}
	for _, e := range events {
		payload, ok := e.Payload.(map[string]interface{})
		if !ok {
			t.Fatalf("payload type %T, want map", e.Payload)
		}
		if payload["roomId"] != "general-abc" {
			t.Errorf("roomId = %v, want general-abc", payload["roomId"])
		}
		user, _ := payload["user"].(string)
		if user != "u1" && user != "u2" {
			t.Errorf("user = %v, want a member id", payload["user"])
		}
	}
	// The shared base map must stay unmodified.
	if _, ok := base["user"]; ok {
		t.Errorf("base payload was mutated")
	}
}

func TestBroadcastToRoomUsesGroup(t *testing.T) {
	d, emitter, _, _ := setup(t)

	d.BroadcastToRoom("general-abc", "receive_message", map[string]string{"message": "hi"})

	events := emitter.EventsNamed("receive_message")
	if len(events) != 1 || events[0].RoomID != "general-abc" {
		t.Fatalf("events = %+v, want one room emit", events)
	}
}
