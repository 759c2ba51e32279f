package ws

import (
	"log"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/models"
)

// MessageUserConnected announces the connection's identity and re-subscribes
// it to every room the user already belongs to, so a reconnecting device
// resumes room broadcasts without re-joining each room.
type MessageUserConnected struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (msg *MessageUserConnected) GetType() string {
	return "user_connected"
}

func (msg *MessageUserConnected) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, msg.Username)
	if msg.UserID == "" {
		return nil
	}

	if err := ctx.Presence.Announce(ctx.ConnID, msg.UserID, msg.Username); err != nil {
		return err
	}

	rooms, err := ctx.Presence.Rooms(msg.UserID)
	if err != nil {
		return err
	}
	for _, roomID := range rooms {
		ctx.Emitter.Join(ctx.ConnID, roomID)
	}
	log.Printf("Connection %s announced as userId %s, username %s with %d rooms", ctx.ConnID, msg.UserID, msg.Username, len(rooms))
	return nil
}

// MessageCreateRoom creates a room, or joins it when another client created
// it first. Optional seed messages are appended after the creation
// announcement.
type MessageCreateRoom struct {
	Room     string           `json:"room"`
	UserID   string           `json:"userId"`
	Username string           `json:"username"`
	Messages []models.Message `json:"messages"`
}

func (msg *MessageCreateRoom) GetType() string {
	return "create_room"
}

func (msg *MessageCreateRoom) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, msg.Username)

	if _, err := ctx.Chat.EnsureRoom(ctx.ConnID, msg.Room, msg.UserID, msg.Username, msg.Messages); err != nil {
		return err
	}
	return ctx.Emitter.ToConn(ctx.ConnID, "joined_room", map[string]string{"room": msg.Room})
}

// MessageJoinRoom joins an existing room. Unlike create_room it refuses to
// bring a room into existence: an unknown room id gets room_not_valid.
type MessageJoinRoom struct {
	Room     string `json:"room"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (msg *MessageJoinRoom) GetType() string {
	return "join_room"
}

func (msg *MessageJoinRoom) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, msg.Username)

	exists, err := ctx.Chat.RoomExists(msg.Room)
	if err != nil {
		return err
	}
	if !exists {
		return ctx.Emitter.ToConn(ctx.ConnID, "room_not_valid", map[string]string{"room": msg.Room})
	}

	if _, err := ctx.Chat.AddMember(ctx.ConnID, msg.Room, msg.UserID, msg.Username); err != nil {
		return err
	}
	return ctx.Emitter.ToConn(ctx.ConnID, "joined_room", map[string]string{"room": msg.Room})
}

// MessageSendMessage appends a chat message. Sending implies membership:
// the room is created or joined first when the author is not yet in it.
type MessageSendMessage struct {
	models.Message
}

func (msg *MessageSendMessage) GetType() string {
	return "send_message"
}

func (msg *MessageSendMessage) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, msg.Author)

	if _, err := ctx.Chat.EnsureRoom(ctx.ConnID, msg.Room, msg.UserID, msg.Author, nil); err != nil {
		return err
	}
	return ctx.Chat.Append(msg.Message)
}

// MessageGetUserRooms returns the user's personal room list with unread
// messages and the latest message per room.
type MessageGetUserRooms struct {
	UserID string `json:"userId"`
}

func (msg *MessageGetUserRooms) GetType() string {
	return "get_user_rooms"
}

func (msg *MessageGetUserRooms) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")

	summaries, err := ctx.Chat.UserRooms(msg.UserID)
	if err != nil {
		return err
	}
	return ctx.Emitter.ToConn(ctx.ConnID, "user_rooms", summaries)
}

// MessageGetUsersInRoom returns a room's membership with display names.
type MessageGetUsersInRoom struct {
	Room string `json:"room"`
}

func (msg *MessageGetUsersInRoom) GetType() string {
	return "get_user_in_rooms"
}

func (msg *MessageGetUsersInRoom) Process(ctx *MessageContext) error {
	users, err := ctx.Chat.Members(msg.Room)
	if err != nil {
		return err
	}
	return ctx.Emitter.ToConn(ctx.ConnID, "users_in_room", map[string]interface{}{
		"room":  msg.Room,
		"users": users,
	})
}

// MessageGetRoomMessages returns the full history of a room and advances the
// caller's read watermark to its newest message. Fetching history subscribes
// the connection to the room's broadcasts, like every other room-carrying
// event.
type MessageGetRoomMessages struct {
	Room   string `json:"room"`
	UserID string `json:"userId"`
}

func (msg *MessageGetRoomMessages) GetType() string {
	return "get_room_messages"
}

func (msg *MessageGetRoomMessages) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	ctx.Emitter.Join(ctx.ConnID, msg.Room)

	messages, _, err := ctx.Chat.Page(msg.Room, -1, -1, msg.UserID)
	if err != nil {
		return err
	}
	return ctx.Emitter.ToConn(ctx.ConnID, "message_history", map[string]interface{}{
		"room":     msg.Room,
		"messages": messages,
	})
}

// MessageGetRoomMessagesPages returns one page of history counted backward
// from the newest message.
type MessageGetRoomMessagesPages struct {
	Room     string `json:"room"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	UserID   string `json:"userId"`
}

func (msg *MessageGetRoomMessagesPages) GetType() string {
	return "get_room_messages_pages"
}

func (msg *MessageGetRoomMessagesPages) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	ctx.Emitter.Join(ctx.ConnID, msg.Room)

	page, pageSize := msg.Page, msg.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	messages, total, err := ctx.Chat.Page(msg.Room, page, pageSize, msg.UserID)
	if err != nil {
		return err
	}
	return ctx.Emitter.ToConn(ctx.ConnID, "message_history_pages", map[string]interface{}{
		"room":          msg.Room,
		"messages":      messages,
		"totalMessages": total,
		"page":          page,
		"pageSize":      pageSize,
	})
}

// MessageGetAllRooms returns the global room directory.
type MessageGetAllRooms struct {
}

func (msg *MessageGetAllRooms) GetType() string {
	return "get_all_rooms"
}

func (msg *MessageGetAllRooms) Process(ctx *MessageContext) error {
	rooms, err := ctx.Chat.AllRooms()
	if err != nil {
		return err
	}
	return ctx.Emitter.ToConn(ctx.ConnID, "room_list", rooms)
}

// MessageUpdateLastRead moves the user's read watermark of a room to now.
type MessageUpdateLastRead struct {
	Room   string `json:"room"`
	UserID string `json:"userId"`
}

func (msg *MessageUpdateLastRead) GetType() string {
	return "update_last_read_message"
}

func (msg *MessageUpdateLastRead) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Chat.MarkRead(msg.UserID, msg.Room)
}
