// Package chat implements the room registry and the per-room message log:
// room existence and membership, the append-only history with bounded
// retention, pagination, and per-user read watermarks.
//
// Room existence is defined by a non-empty membership set, never a separate
// flag, and every compound mutation is an idempotent set-add so that racing
// creators of the same room converge on identical state. The known anomaly is
// a possible duplicate "created" system message under adversarial timing; it
// is accepted rather than hidden behind distributed locking.
package chat

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/models"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/notify"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/presence"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/transport"
)

func roomUsersKey(roomID string) string {
	return fmt.Sprintf("room:%s:users", roomID)
}

func roomMessagesKey(roomID string) string {
	return fmt.Sprintf("room:%s:messages", roomID)
}

const roomsDirectoryKey = "rooms:set"

type Service struct {
	store      store.Store
	emitter    transport.Emitter
	dispatcher *notify.Dispatcher
	presence   *presence.Tracker

	now func() time.Time
}

func NewService(s store.Store, emitter transport.Emitter, dispatcher *notify.Dispatcher, tracker *presence.Tracker) *Service {
	return &Service{
		store:      s,
		emitter:    emitter,
		dispatcher: dispatcher,
		presence:   tracker,
		now:        time.Now,
	}
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RoomExists reports whether the room has a non-empty membership set.
func (s *Service) RoomExists(roomID string) (bool, error) {
	return s.store.Exists(roomUsersKey(roomID))
}

// EnsureRoom creates the room if absent, otherwise joins the requester.
// Creation adds the requester to membership, records the room in the global
// directory, announces it, appends a "created" system message and any seed
// messages in order. The existence check and the membership add are not
// atomic at the store layer; concurrent calls converge through idempotent
// set-adds. Returns created=true only on the create path.
func (s *Service) EnsureRoom(connID, roomID, userID, username string, seed []models.Message) (bool, error) {
	exists, err := s.RoomExists(roomID)
	if err != nil {
		return false, fmt.Errorf("check room %s: %w", roomID, err)
	}
	if exists {
		_, err := s.AddMember(connID, roomID, userID, username)
		return false, err
	}

	// Subscribe before mutating so the caller sees its own broadcasts.
	s.emitter.Join(connID, roomID)

	if userID != "" {
		if err := s.store.SetAdd(roomUsersKey(roomID), userID); err != nil {
			return false, fmt.Errorf("add creator to room %s: %w", roomID, err)
		}
		if err := s.presence.AddRoom(userID, roomID); err != nil {
			return false, fmt.Errorf("record room %s for userId %s: %w", roomID, userID, err)
		}
	}
	if err := s.store.SetAdd(roomsDirectoryKey, roomID); err != nil {
		return false, fmt.Errorf("add room %s to directory: %w", roomID, err)
	}

	s.emitter.ToAll("room_created", map[string]interface{}{"room": roomID})

	roomName := RoomName(roomID)
	body := roomName + " created"
	if username != "" {
		body = fmt.Sprintf("%s created by %s", roomName, username)
	}
	s.appendSystem(roomID, userID, username, body)

	for _, msg := range seed {
		if err := s.Append(msg); err != nil {
			log.Printf("Error appending initial message to room %s: %v", roomID, err)
		}
	}

	s.pushRoomState(connID, roomID, userID)
	log.Printf("Room %s created by userId %s, username %s", roomID, userID, username)
	return true, nil
}

// AddMember idempotently adds a user to an existing room's membership and
// announces the join. Anonymous callers no-op: membership is durable state
// and needs a stable identity.
func (s *Service) AddMember(connID, roomID, userID, username string) (bool, error) {
	s.emitter.Join(connID, roomID)
	if userID == "" || username == "" {
		return false, nil
	}

	isMember, err := s.store.SetIsMember(roomUsersKey(roomID), userID)
	if err != nil {
		return false, fmt.Errorf("check membership of userId %s in room %s: %w", userID, roomID, err)
	}
	if isMember {
		return false, nil
	}

	log.Printf("UserId %s, username %s is not in room %s. Adding to room", userID, username, roomID)
	if err := s.store.SetAdd(roomUsersKey(roomID), userID); err != nil {
		return false, fmt.Errorf("add userId %s to room %s: %w", userID, roomID, err)
	}
	if err := s.presence.AddRoom(userID, roomID); err != nil {
		return false, fmt.Errorf("record room %s for userId %s: %w", roomID, userID, err)
	}

	s.appendSystem(roomID, userID, username, fmt.Sprintf("%s joined the %s", username, RoomName(roomID)))
	s.pushRoomState(connID, roomID, userID)
	return true, nil
}

// Members returns current membership paired with last-known display names.
func (s *Service) Members(roomID string) ([]models.RoomUser, error) {
	userIDs, err := s.store.SetMembers(roomUsersKey(roomID))
	if err != nil {
		return nil, err
	}
	users := make([]models.RoomUser, 0, len(userIDs))
	for _, userID := range userIDs {
		username, err := s.presence.Username(userID)
		if err != nil {
			log.Printf("Error resolving username for userId %s: %v", userID, err)
		}
		users = append(users, models.RoomUser{UserID: userID, Username: username})
	}
	return users, nil
}

// AllRooms returns the directory of all known room ids.
func (s *Service) AllRooms() ([]string, error) {
	return s.store.SetMembers(roomsDirectoryKey)
}

// RoomSummary is one entry of a user's personal room list.
type RoomSummary struct {
	Room           string           `json:"room"`
	LatestMessages []models.Message `json:"latestMessages"`
	LastMessage    *models.Message  `json:"lastMessage"`
}

// UserRooms returns each room the user belongs to with its unread messages
// and its most recent message. Per-room failures degrade to an empty summary
// so one broken room never hides the rest.
func (s *Service) UserRooms(userID string) ([]RoomSummary, error) {
	rooms, err := s.presence.Rooms(userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, roomID := range rooms {
		summary := RoomSummary{Room: roomID}
		unread, err := s.UnreadSince(userID, roomID)
		if err != nil {
			log.Printf("Could not get room details of %s: %v", roomID, err)
			summaries = append(summaries, summary)
			continue
		}
		last, err := s.LastMessage(roomID)
		if err != nil {
			log.Printf("Could not get last message of %s: %v", roomID, err)
			summaries = append(summaries, summary)
			continue
		}
		summary.LatestMessages = unread
		summary.LastMessage = last
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// pushRoomState broadcasts the updated member list to the room and refreshes
// the caller's directory and personal room list.
func (s *Service) pushRoomState(connID, roomID, userID string) {
	users, err := s.Members(roomID)
	if err != nil {
		log.Printf("Error listing members of room %s: %v", roomID, err)
	} else {
		s.dispatcher.BroadcastToRoom(roomID, "user_list", map[string]interface{}{"room": roomID, "users": users})
	}

	if rooms, err := s.AllRooms(); err != nil {
		log.Printf("Error getting all room list: %v", err)
	} else {
		s.emitter.ToConn(connID, "room_list", rooms)
	}

	if userID == "" {
		return
	}
	if summaries, err := s.UserRooms(userID); err != nil {
		log.Printf("Error getting user rooms for userId %s: %v", userID, err)
	} else {
		s.emitter.ToConn(connID, "user_rooms", summaries)
	}
}

// RoomName derives a display name from a room id by dropping the trailing
// "-suffix" token clients append for uniqueness.
func RoomName(roomID string) string {
	const delimiter = "-"
	if strings.Contains(roomID, delimiter) {
		parts := strings.Split(roomID, delimiter)
		return strings.Join(parts[:len(parts)-1], delimiter)
	}
	return roomID
}
