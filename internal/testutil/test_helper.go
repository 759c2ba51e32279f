package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestMessage creates a test message with default values
func (h *TestHelper) CreateTestMessage(roomID, userID, body string, at time.Time) models.Message {
	if roomID == "" {
		roomID = "general-abc123"
	}
	if userID == "" {
		userID = "user-1"
	}
	if body == "" {
		body = "Test message"
	}
	if at.IsZero() {
		at = time.Now()
	}

	return models.Message{
		Room:   roomID,
		UserID: userID,
		Author: "tester",
		Body:   body,
		Time:   at,
		Kind:   models.UserMessage,
	}
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// AssertNotNil checks if a value is not nil
func (h *TestHelper) AssertNotNil(value interface{}, testName string) {
	if value == nil {
		h.t.Errorf("%s: expected non-nil value", testName)
	}
}

// RecordedEvent is one emit captured by FakeEmitter.
type RecordedEvent struct {
	ConnID  string // empty for room and broadcast emits
	RoomID  string // empty for unicast and broadcast emits
	Except  string
	Event   string
	Payload interface{}
}

// FakeEmitter records every emit for assertions. Group membership is tracked
// so room emits can be checked; Connected controls IsConnected, and a nil map
// means every handle is live.
type FakeEmitter struct {
	mux       sync.Mutex
	Events    []RecordedEvent
	Groups    map[string]map[string]bool
	Connected map[string]bool
}

func NewFakeEmitter() *FakeEmitter {
	return &FakeEmitter{Groups: make(map[string]map[string]bool)}
}

func (f *FakeEmitter) ToConn(connID, event string, payload interface{}) error {
	f.record(RecordedEvent{ConnID: connID, Event: event, Payload: payload})
	return nil
}

func (f *FakeEmitter) ToRoom(roomID, event string, payload interface{}) {
	f.record(RecordedEvent{RoomID: roomID, Event: event, Payload: payload})
}

func (f *FakeEmitter) ToRoomExcept(roomID, exceptConnID, event string, payload interface{}) {
	f.record(RecordedEvent{RoomID: roomID, Except: exceptConnID, Event: event, Payload: payload})
}

func (f *FakeEmitter) ToAll(event string, payload interface{}) {
	f.record(RecordedEvent{Event: event, Payload: payload})
}

func (f *FakeEmitter) Join(connID, roomID string) {
	f.mux.Lock()
	defer f.mux.Unlock()
	group, ok := f.Groups[roomID]
	if !ok {
		group = make(map[string]bool)
		f.Groups[roomID] = group
	}
	group[connID] = true
}

func (f *FakeEmitter) Leave(connID, roomID string) {
	f.mux.Lock()
	defer f.mux.Unlock()
	delete(f.Groups[roomID], connID)
}

func (f *FakeEmitter) IsConnected(connID string) bool {
	f.mux.Lock()
	defer f.mux.Unlock()
	if f.Connected == nil {
		return true
	}
	return f.Connected[connID]
}

// EventsNamed returns every recorded emit of the given event type.
func (f *FakeEmitter) EventsNamed(event string) []RecordedEvent {
	f.mux.Lock()
	defer f.mux.Unlock()
	var matched []RecordedEvent
	for _, e := range f.Events {
		if e.Event == event {
			matched = append(matched, e)
		}
	}
	return matched
}

// InGroup reports whether the connection is subscribed to the room.
func (f *FakeEmitter) InGroup(connID, roomID string) bool {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.Groups[roomID][connID]
}

func (f *FakeEmitter) record(e RecordedEvent) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.Events = append(f.Events, e)
}
