package models

import (
	"encoding/json"
	"strings"
	"time"
)

type MessageKind string

const (
	UserMessage   MessageKind = "user"
	SystemMessage MessageKind = "system"
)

// SystemAuthor is the identity recorded on engine-generated messages.
const SystemAuthor = "Blackbox"

// Message is one entry of a room's append-only log. Clients send whatever
// payload fields they want alongside the well-known ones; unknown fields are
// preserved verbatim in Extra and flattened back out on marshal, so a message
// survives a store round trip byte-for-byte in content.
type Message struct {
	Room             string
	UserID           string
	Author           string
	Body             string
	Time             time.Time
	Kind             MessageKind
	AffectedUserID   string
	AffectedUserName string
	Extra            map[string]json.RawMessage
}

// NewSystemMessage builds an engine-authored message, e.g. "room created" or
// "user joined" announcements.
func NewSystemMessage(room, affectedUserID, affectedUserName, body string, at time.Time) Message {
	id, _ := json.Marshal(at.UnixMilli())
	return Message{
		Room:             room,
		UserID:           SystemAuthor,
		Author:           SystemAuthor,
		Body:             body,
		Time:             at,
		Kind:             SystemMessage,
		AffectedUserID:   affectedUserID,
		AffectedUserName: affectedUserName,
		Extra:            map[string]json.RawMessage{"id": id},
	}
}

func (m Message) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(m.Extra)+8)
	for k, v := range m.Extra {
		fields[k] = v
	}
	setString := func(key, value string) error {
		if value == "" {
			return nil
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		fields[key] = raw
		return nil
	}
	if err := setString("room", m.Room); err != nil {
		return nil, err
	}
	if err := setString("userId", m.UserID); err != nil {
		return nil, err
	}
	if err := setString("author", m.Author); err != nil {
		return nil, err
	}
	if err := setString("message", m.Body); err != nil {
		return nil, err
	}
	if err := setString("messageType", string(m.Kind)); err != nil {
		return nil, err
	}
	if err := setString("affectedUserId", m.AffectedUserID); err != nil {
		return nil, err
	}
	if err := setString("affectedUserName", m.AffectedUserName); err != nil {
		return nil, err
	}
	if !m.Time.IsZero() {
		if err := setString("time", m.Time.UTC().Format(time.RFC3339Nano)); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	takeString := func(key string) string {
		raw, ok := fields[key]
		if !ok {
			return ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			// Leave malformed values in Extra untouched.
			return ""
		}
		delete(fields, key)
		return s
	}
	m.Room = takeString("room")
	m.UserID = takeString("userId")
	m.Author = takeString("author")
	m.Body = takeString("message")
	m.Kind = MessageKind(takeString("messageType"))
	m.AffectedUserID = takeString("affectedUserId")
	m.AffectedUserName = takeString("affectedUserName")
	m.Time = time.Time{}
	if ts := takeString("time"); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			m.Time = t
		}
	}
	if len(fields) > 0 {
		m.Extra = fields
	} else {
		m.Extra = nil
	}
	return nil
}

// RoomUser pairs a member's stable identity with its last-announced
// display name.
type RoomUser struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Participant is one connection inside a call session.
type Participant struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
}

const participantSep = "||"

// EncodeParticipant produces the set-member encoding used in the durable
// store for call participants.
func EncodeParticipant(socketID, userID string) string {
	return socketID + participantSep + userID
}

// ParseParticipant decodes a stored participant entry. Entries written
// without a user id decode with an empty UserID.
func ParseParticipant(entry string) Participant {
	socketID, userID, _ := strings.Cut(entry, participantSep)
	return Participant{SocketID: socketID, UserID: userID}
}
