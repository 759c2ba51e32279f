package ws

import "encoding/json"

// MessageAudioCreateRoom starts an audio call, or joins one that another
// device already started for the same room id.
type MessageAudioCreateRoom struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (msg *MessageAudioCreateRoom) GetType() string {
	return "audio-create-room"
}

func (msg *MessageAudioCreateRoom) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Audio.CreateOrJoin(ctx.ConnID, msg.RoomID, msg.UserID)
}

// MessageAudioJoinRoom joins an active audio call.
type MessageAudioJoinRoom struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (msg *MessageAudioJoinRoom) GetType() string {
	return "audio-join-room"
}

func (msg *MessageAudioJoinRoom) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Audio.Join(ctx.ConnID, msg.RoomID, msg.UserID)
}

// MessageAudioSendOffer relays an SDP offer to one peer.
type MessageAudioSendOffer struct {
	SocketID string          `json:"socketId"`
	Offer    json.RawMessage `json:"offer"`
}

func (msg *MessageAudioSendOffer) GetType() string {
	return "audio-send-offer"
}

func (msg *MessageAudioSendOffer) Process(ctx *MessageContext) error {
	ctx.Audio.RelayOffer(ctx.ConnID, ctx.UserID, msg.SocketID, msg.Offer)
	return nil
}

// MessageAudioSendAnswer relays an SDP answer to one peer.
type MessageAudioSendAnswer struct {
	SocketID string          `json:"socketId"`
	Answer   json.RawMessage `json:"answer"`
}

func (msg *MessageAudioSendAnswer) GetType() string {
	return "audio-send-answer"
}

func (msg *MessageAudioSendAnswer) Process(ctx *MessageContext) error {
	ctx.Audio.RelayAnswer(ctx.ConnID, ctx.UserID, msg.SocketID, msg.Answer)
	return nil
}

// MessageAudioSendCandidate relays an ICE candidate to one peer.
type MessageAudioSendCandidate struct {
	SocketID  string          `json:"socketId"`
	Candidate json.RawMessage `json:"candidate"`
}

func (msg *MessageAudioSendCandidate) GetType() string {
	return "audio-send-ice-candidate"
}

func (msg *MessageAudioSendCandidate) Process(ctx *MessageContext) error {
	ctx.Audio.RelayCandidate(ctx.ConnID, ctx.UserID, msg.SocketID, msg.Candidate)
	return nil
}

// MessageAudioLeaveRoom leaves an audio call.
type MessageAudioLeaveRoom struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (msg *MessageAudioLeaveRoom) GetType() string {
	return "audio-leave-room"
}

func (msg *MessageAudioLeaveRoom) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Audio.Leave(ctx.ConnID, msg.RoomID, msg.UserID)
}

// MessageLeaveAllAudioRooms leaves every audio call this connection is in.
// Clients send it before navigating away; disconnect triggers the same
// cleanup server-side.
type MessageLeaveAllAudioRooms struct {
	UserID string `json:"userId"`
}

func (msg *MessageLeaveAllAudioRooms) GetType() string {
	return "leave-all-audio-rooms"
}

func (msg *MessageLeaveAllAudioRooms) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Audio.LeaveAll(ctx.ConnID, ctx.UserID)
}

// MessageAudioRawData fans raw audio frames out to the whole call room,
// sender included; receivers filter their own frames by socketId. The engine
// never inspects or stores the data.
type MessageAudioRawData struct {
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

func (msg *MessageAudioRawData) GetType() string {
	return "audio-raw-data-transmitted"
}

func (msg *MessageAudioRawData) Process(ctx *MessageContext) error {
	ctx.Emitter.ToRoom(msg.RoomID, "audio-raw-data-received", map[string]interface{}{
		"roomId":   msg.RoomID,
		"data":     msg.Data,
		"socketId": ctx.ConnID,
		"userId":   ctx.UserID,
	})
	return nil
}
