package chat

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/models"
)

func lastReadTimeKey(userID, roomID string) string {
	return fmt.Sprintf("userId:%s:room:%s:lastReadTime", userID, roomID)
}

func lastReadMessageKey(userID, roomID string) string {
	return fmt.Sprintf("userId:%s:room:%s:lastReadMessage", userID, roomID)
}

// lastReadTime loads the user's watermark for a room. ok is false when the
// user has never read the room.
func (s *Service) lastReadTime(userID, roomID string) (time.Time, bool, error) {
	raw, err := s.store.Get(lastReadTimeKey(userID, roomID))
	if err != nil || raw == nil {
		return time.Time{}, false, err
	}
	millis, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse watermark of userId %s in room %s: %w", userID, roomID, err)
	}
	return time.UnixMilli(millis), true, nil
}

func (s *Service) setLastReadTime(userID, roomID string, at time.Time) error {
	value := strconv.FormatInt(at.UnixMilli(), 10)
	return s.store.Set(lastReadTimeKey(userID, roomID), []byte(value), 0)
}

// advanceWatermark moves the watermark to the newest message of a fetched
// page. The move is forward-only: fetching an older page never regresses
// what the user has already seen.
func (s *Service) advanceWatermark(userID, roomID string, fetched []models.Message) {
	if len(fetched) == 0 {
		return
	}
	newest := fetched[len(fetched)-1]
	if newest.Time.IsZero() {
		return
	}

	current, ok, err := s.lastReadTime(userID, roomID)
	if err != nil {
		log.Printf("Error loading watermark of userId %s in room %s: %v", userID, roomID, err)
		return
	}
	if ok && !newest.Time.After(current) {
		return
	}

	if err := s.setLastReadTime(userID, roomID, newest.Time); err != nil {
		log.Printf("Error updating watermark of userId %s in room %s: %v", userID, roomID, err)
		return
	}
	snapshot, err := json.Marshal(newest)
	if err != nil {
		log.Printf("Error encoding last read message of userId %s in room %s: %v", userID, roomID, err)
		return
	}
	if err := s.store.Set(lastReadMessageKey(userID, roomID), snapshot, 0); err != nil {
		log.Printf("Error storing last read message of userId %s in room %s: %v", userID, roomID, err)
	}
}
