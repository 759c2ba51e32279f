package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/models"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/presence"
)

func appendN(t *testing.T, svc *Service, roomID string, n int, base time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		msg := models.Message{
			Room:   roomID,
			UserID: "u1",
			Author: "alice",
			Body:   fmt.Sprintf("m%d", i),
			Time:   base.Add(time.Duration(i) * time.Minute),
			Kind:   models.UserMessage,
		}
		if err := svc.Append(msg); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
}

func TestAppendBroadcastsAndNotifies(t *testing.T) {
	svc, emitter, s := newTestService(t)
	tracker := presence.NewTracker(s)

	s.SetAdd("room:general-abc:users", "u1", "u2")
	tracker.Announce("conn-1", "u1", "alice")
	tracker.Announce("conn-2", "u2", "bob")

	msg := models.Message{
		Room:   "general-abc",
		UserID: "u1",
		Author: "alice",
		Body:   "hi",
		Time:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := svc.Append(msg); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if got := emitter.EventsNamed("receive_message"); len(got) != 1 || got[0].RoomID != "general-abc" {
		t.Errorf("receive_message emits = %+v, want one room broadcast", got)
	}
	if got := emitter.EventsNamed("new_message_notification_all"); len(got) != 1 {
		t.Errorf("new_message_notification_all emits = %d, want 1", len(got))
	}
	notified := emitter.EventsNamed("new_message_notification")
	if len(notified) != 1 || notified[0].ConnID != "conn-2" {
		t.Errorf("new_message_notification = %+v, want conn-2 only (author excluded)", notified)
	}
}

func TestAppendSystemMessageSkipsNotifications(t *testing.T) {
	svc, emitter, _ := newTestService(t)

	msg := models.NewSystemMessage("general-abc", "u1", "alice", "alice joined the general", time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	if err := svc.Append(msg); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if got := emitter.EventsNamed("new_message_notification_all"); len(got) != 0 {
		t.Errorf("system message triggered %d notification_all emits, want 0", len(got))
	}
	if got := emitter.EventsNamed("receive_message"); len(got) != 1 {
		t.Errorf("receive_message emits = %d, want 1", len(got))
	}
}

func TestPagePagination(t *testing.T) {
	svc, _, _ := newTestService(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	appendN(t, svc, "general-abc", 10, base)

	// Page 1 is the newest four.
	messages, total, err := svc.Page("general-abc", 1, 4, "")
	if err != nil {
		t.Fatalf("Page 1: %v", err)
	}
	if total != 10 {
		t.Errorf("total = %d, want 10", total)
	}
	if len(messages) != 4 || messages[0].Body != "m6" || messages[3].Body != "m9" {
		t.Errorf("page 1 = %v, want m6..m9", bodies(messages))
	}

	messages, _, _ = svc.Page("general-abc", 2, 4, "")
	if len(messages) != 4 || messages[0].Body != "m2" || messages[3].Body != "m5" {
		t.Errorf("page 2 = %v, want m2..m5", bodies(messages))
	}

	// The last page is short.
	messages, _, _ = svc.Page("general-abc", 3, 4, "")
	if len(messages) != 2 || messages[0].Body != "m0" || messages[1].Body != "m1" {
		t.Errorf("page 3 = %v, want m0..m1", bodies(messages))
	}

	// Past the end.
	messages, _, err = svc.Page("general-abc", 4, 4, "")
	if err != nil {
		t.Fatalf("Page past end: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("page 4 = %v, want empty", bodies(messages))
	}
}

func TestPageFullLog(t *testing.T) {
	svc, _, _ := newTestService(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	appendN(t, svc, "general-abc", 5, base)

	messages, total, err := svc.Page("general-abc", -1, -1, "")
	if err != nil {
		t.Fatalf("Page full: %v", err)
	}
	if total != 5 || len(messages) != 5 {
		t.Errorf("full log = %d of %d, want all 5", len(messages), total)
	}
	if messages[0].Body != "m0" || messages[4].Body != "m4" {
		t.Errorf("full log order = %v, want ascending", bodies(messages))
	}
}

func TestPageEmptyRoom(t *testing.T) {
	svc, _, _ := newTestService(t)

	messages, total, err := svc.Page("ghost-room", 1, 50, "")
	if err != nil {
		t.Fatalf("Page empty: %v", err)
	}
	if total != 0 || len(messages) != 0 {
		t.Errorf("empty room page = %d of %d, want nothing", len(messages), total)
	}
}

func TestPageAdvancesWatermark(t *testing.T) {
	svc, _, _ := newTestService(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	appendN(t, svc, "general-abc", 5, base)

	if _, _, err := svc.Page("general-abc", 1, 3, "u2"); err != nil {
		t.Fatalf("Page: %v", err)
	}

	unread, err := svc.UnreadSince("u2", "general-abc")
	if err != nil {
		t.Fatalf("UnreadSince: %v", err)
	}
	if len(unread) != 0 {
		t.Errorf("unread after reading newest page = %v, want none", bodies(unread))
	}

	// Fetching an older page must not regress the watermark.
	if _, _, err := svc.Page("general-abc", 2, 3, "u2"); err != nil {
		t.Fatalf("Page older: %v", err)
	}
	unread, _ = svc.UnreadSince("u2", "general-abc")
	if len(unread) != 0 {
		t.Errorf("unread after older page fetch = %v, want still none", bodies(unread))
	}
}

func TestUnreadSince(t *testing.T) {
	svc, _, _ := newTestService(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	appendN(t, svc, "general-abc", 3, base)

	// No watermark: nothing is reported unread.
	unread, err := svc.UnreadSince("u2", "general-abc")
	if err != nil {
		t.Fatalf("UnreadSince: %v", err)
	}
	if len(unread) != 0 {
		t.Errorf("unread without watermark = %v, want none", bodies(unread))
	}

	if err := svc.setLastReadTime("u2", "general-abc", base.Add(30*time.Second)); err != nil {
		t.Fatalf("setLastReadTime: %v", err)
	}
	unread, err = svc.UnreadSince("u2", "general-abc")
	if err != nil {
		t.Fatalf("UnreadSince: %v", err)
	}
	if len(unread) != 2 || unread[0].Body != "m1" || unread[1].Body != "m2" {
		t.Errorf("unread = %v, want m1, m2 ascending", bodies(unread))
	}

	// A watermark exactly on a message's timestamp excludes that message.
	if err := svc.setLastReadTime("u2", "general-abc", base.Add(time.Minute)); err != nil {
		t.Fatalf("setLastReadTime: %v", err)
	}
	unread, _ = svc.UnreadSince("u2", "general-abc")
	if len(unread) != 1 || unread[0].Body != "m2" {
		t.Errorf("unread = %v, want m2 only", bodies(unread))
	}
}

func TestMarkRead(t *testing.T) {
	svc, _, _ := newTestService(t)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	appendN(t, svc, "general-abc", 3, base)

	if err := svc.MarkRead("u2", "general-abc"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	unread, err := svc.UnreadSince("u2", "general-abc")
	if err != nil {
		t.Fatalf("UnreadSince: %v", err)
	}
	if len(unread) != 0 {
		t.Errorf("unread after MarkRead = %v, want none", bodies(unread))
	}

	// Anonymous callers no-op.
	if err := svc.MarkRead("", "general-abc"); err != nil {
		t.Fatalf("MarkRead anonymous: %v", err)
	}
}

func TestLastMessage(t *testing.T) {
	svc, _, _ := newTestService(t)

	last, err := svc.LastMessage("ghost-room")
	if err != nil {
		t.Fatalf("LastMessage empty: %v", err)
	}
	if last != nil {
		t.Errorf("LastMessage of empty room = %+v, want nil", last)
	}

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	appendN(t, svc, "general-abc", 3, base)
	last, err = svc.LastMessage("general-abc")
	if err != nil {
		t.Fatalf("LastMessage: %v", err)
	}
	if last == nil || last.Body != "m2" {
		t.Errorf("LastMessage = %+v, want m2", last)
	}
}

func bodies(messages []models.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Body
	}
	return out
}
