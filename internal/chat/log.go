package chat

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/models"
)

const (
	// Retention is a property of the whole log, refreshed on every append:
	// a room silent for the window forgets its history wholesale.
	messageRetention = 7 * 24 * time.Hour

	appendAttempts  = 5
	appendBaseDelay = 100 * time.Millisecond
)

// Append appends a message to its room's ordered log with bounded retry
// against transient store failures, refreshes the log's retention window,
// then broadcasts it to the room group and notifies every other member's
// live connections. Retry exhaustion is a hard failure surfaced to the
// sender; re-executing the push pair after a partial failure can duplicate
// an entry, which at-least-once delivery accepts.
func (s *Service) Append(msg models.Message) error {
	if msg.Kind == "" {
		msg.Kind = models.UserMessage
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message for room %s: %w", msg.Room, err)
	}

	key := roomMessagesKey(msg.Room)
	var lastErr error
	delay := appendBaseDelay
	for attempt := 0; attempt < appendAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		if err := s.store.ListPush(key, data); err != nil {
			lastErr = err
			continue
		}
		if err := s.store.Expire(key, messageRetention); err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return fmt.Errorf("append message to room %s: %w", msg.Room, lastErr)
	}

	log.Printf("Message from userId %s, username %s in room %s", msg.UserID, msg.Author, msg.Room)
	s.dispatcher.BroadcastToRoom(msg.Room, "receive_message", msg)

	if msg.Kind != models.SystemMessage {
		payload := map[string]interface{}{"room": msg.Room, "message": msg}
		s.emitter.ToAll("new_message_notification_all", payload)
		// Reaches members whose connections do not have the room open;
		// members with it open also get the room broadcast above, and that
		// duplication is intentional.
		s.dispatcher.NotifyRoomMembers(msg.Room, "new_message_notification", payload, msg.UserID)
	}
	return nil
}

// appendSystem records an engine-authored announcement. Failures are logged,
// not escalated: a missing system message never blocks the triggering event.
func (s *Service) appendSystem(roomID, affectedUserID, affectedUserName, body string) {
	msg := models.NewSystemMessage(roomID, affectedUserID, affectedUserName, body, s.now())
	if err := s.Append(msg); err != nil {
		log.Printf("Error appending system message to room %s: %v", roomID, err)
	}
}

// Page returns one page of the room's log counted backward from the newest
// message; page 1 is always the newest pageSize messages. page == -1 returns
// the whole log. When userID is set, the caller's read watermark advances to
// the newest message actually returned.
func (s *Service) Page(roomID string, page, pageSize int, userID string) ([]models.Message, int64, error) {
	total, err := s.store.ListLen(roomMessagesKey(roomID))
	if err != nil {
		return nil, 0, fmt.Errorf("length of room %s log: %w", roomID, err)
	}

	var start, end int64
	if page == -1 {
		start, end = 0, total-1
	} else {
		end = total - int64(page-1)*int64(pageSize) - 1
		start = end - int64(pageSize) + 1
		if start < 0 {
			start = 0
		}
	}
	log.Printf("Total messages for room %s is %d, returning %d..%d for page %d size %d", roomID, total, start, end, page, pageSize)
	if start > end || end < 0 {
		return nil, total, nil
	}

	raws, err := s.store.ListRange(roomMessagesKey(roomID), start, end)
	if err != nil {
		return nil, 0, fmt.Errorf("range of room %s log: %w", roomID, err)
	}
	messages := decodeMessages(roomID, raws)

	if userID != "" {
		s.advanceWatermark(userID, roomID, messages)
	}
	return messages, total, nil
}

// UnreadSince scans the log newest to oldest collecting messages strictly
// newer than the user's watermark, stopping at the first message at or
// before it. Assumes no out-of-order timestamps. Results come back in
// ascending time order; no watermark means nothing is reported unread.
func (s *Service) UnreadSince(userID, roomID string) ([]models.Message, error) {
	total, err := s.store.ListLen(roomMessagesKey(roomID))
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	watermark, ok, err := s.lastReadTime(userID, roomID)
	if err != nil || !ok {
		return nil, err
	}

	raws, err := s.store.ListRange(roomMessagesKey(roomID), 0, -1)
	if err != nil {
		return nil, err
	}

	var unread []models.Message
	for i := len(raws) - 1; i >= 0; i-- {
		var msg models.Message
		if err := json.Unmarshal(raws[i], &msg); err != nil {
			log.Printf("Error decoding message %d of room %s: %v", i, roomID, err)
			continue
		}
		if msg.Time.IsZero() {
			continue
		}
		if !msg.Time.After(watermark) {
			break
		}
		// Prepend to keep the final slice in ascending time order.
		unread = append([]models.Message{msg}, unread...)
	}
	return unread, nil
}

// MarkRead moves the user's watermark to now and snapshots the newest
// message in the room.
func (s *Service) MarkRead(userID, roomID string) error {
	if userID == "" {
		return nil
	}
	if err := s.setLastReadTime(userID, roomID, s.now()); err != nil {
		return err
	}
	raw, err := s.store.ListIndex(roomMessagesKey(roomID), -1)
	if err != nil || raw == nil {
		return err
	}
	return s.store.Set(lastReadMessageKey(userID, roomID), raw, 0)
}

// LastMessage returns the newest message of the room, nil when the log is
// empty.
func (s *Service) LastMessage(roomID string) (*models.Message, error) {
	raw, err := s.store.ListIndex(roomMessagesKey(roomID), -1)
	if err != nil || raw == nil {
		return nil, err
	}
	var msg models.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode last message of room %s: %w", roomID, err)
	}
	return &msg, nil
}

func decodeMessages(roomID string, raws [][]byte) []models.Message {
	messages := make([]models.Message, 0, len(raws))
	for i, raw := range raws {
		var msg models.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Error decoding message %d of room %s: %v", i, roomID, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}
