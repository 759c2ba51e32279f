package ws

import "encoding/json"

// MessageScreenShareCreateRoom starts a screen share. The caller becomes the
// sharer and every member of the matching chat room is invited to view.
type MessageScreenShareCreateRoom struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (msg *MessageScreenShareCreateRoom) GetType() string {
	return "screenshare-create-room"
}

func (msg *MessageScreenShareCreateRoom) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Screen.CreateOrJoin(ctx.ConnID, msg.RoomID, msg.UserID)
}

// MessageScreenShareJoinRoom joins an active screen share as a viewer.
type MessageScreenShareJoinRoom struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (msg *MessageScreenShareJoinRoom) GetType() string {
	return "screenshare-join-room"
}

func (msg *MessageScreenShareJoinRoom) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Screen.Join(ctx.ConnID, msg.RoomID, msg.UserID)
}

// MessageScreenShareSendOffer relays an SDP offer to one viewer.
type MessageScreenShareSendOffer struct {
	SocketID string          `json:"socketId"`
	Offer    json.RawMessage `json:"offer"`
}

func (msg *MessageScreenShareSendOffer) GetType() string {
	return "screenshare-send-offer"
}

func (msg *MessageScreenShareSendOffer) Process(ctx *MessageContext) error {
	ctx.Screen.RelayOffer(ctx.ConnID, ctx.UserID, msg.SocketID, msg.Offer)
	return nil
}

// MessageScreenShareSendAnswer relays an SDP answer to the sharer.
type MessageScreenShareSendAnswer struct {
	SocketID string          `json:"socketId"`
	Answer   json.RawMessage `json:"answer"`
}

func (msg *MessageScreenShareSendAnswer) GetType() string {
	return "screenshare-send-answer"
}

func (msg *MessageScreenShareSendAnswer) Process(ctx *MessageContext) error {
	ctx.Screen.RelayAnswer(ctx.ConnID, ctx.UserID, msg.SocketID, msg.Answer)
	return nil
}

// MessageScreenShareSendCandidate relays an ICE candidate to one peer.
type MessageScreenShareSendCandidate struct {
	SocketID  string          `json:"socketId"`
	Candidate json.RawMessage `json:"candidate"`
}

func (msg *MessageScreenShareSendCandidate) GetType() string {
	return "screenshare-send-ice-candidate"
}

func (msg *MessageScreenShareSendCandidate) Process(ctx *MessageContext) error {
	ctx.Screen.RelayCandidate(ctx.ConnID, ctx.UserID, msg.SocketID, msg.Candidate)
	return nil
}

// MessageScreenShareLeaveRoom leaves a screen share.
type MessageScreenShareLeaveRoom struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (msg *MessageScreenShareLeaveRoom) GetType() string {
	return "screenshare-leave-room"
}

func (msg *MessageScreenShareLeaveRoom) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Screen.Leave(ctx.ConnID, msg.RoomID, msg.UserID)
}

// MessageScreenShareLeaveAll leaves every screen share this connection is in.
// Clients send it before navigating away; disconnect triggers the same
// cleanup server-side.
type MessageScreenShareLeaveAll struct {
	UserID string `json:"userId"`
}

func (msg *MessageScreenShareLeaveAll) GetType() string {
	return "screenshare-leave-all-rooms"
}

func (msg *MessageScreenShareLeaveAll) Process(ctx *MessageContext) error {
	ctx.attachIdentity(msg.UserID, "")
	return ctx.Screen.LeaveAll(ctx.ConnID, ctx.UserID)
}

// MessageScreenShareStopSharing ends the share for everyone at once.
type MessageScreenShareStopSharing struct {
	RoomID string `json:"roomId"`
}

func (msg *MessageScreenShareStopSharing) GetType() string {
	return "screenshare-stop-sharing"
}

func (msg *MessageScreenShareStopSharing) Process(ctx *MessageContext) error {
	return ctx.Screen.StopSharing(ctx.ConnID, msg.RoomID)
}
