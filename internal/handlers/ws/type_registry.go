package ws

import (
	"reflect"
)

var typeRegistry = map[string]reflect.Type{}

func init() {
	// Register all message types
	RegisterType(&MessageUserConnected{})
	RegisterType(&MessageCreateRoom{})
	RegisterType(&MessageJoinRoom{})
	RegisterType(&MessageSendMessage{})
	RegisterType(&MessageGetUserRooms{})
	RegisterType(&MessageGetUsersInRoom{})
	RegisterType(&MessageGetRoomMessages{})
	RegisterType(&MessageGetRoomMessagesPages{})
	RegisterType(&MessageGetAllRooms{})
	RegisterType(&MessageUpdateLastRead{})
	RegisterType(&MessageAudioCreateRoom{})
	RegisterType(&MessageAudioJoinRoom{})
	RegisterType(&MessageAudioSendOffer{})
	RegisterType(&MessageAudioSendAnswer{})
	RegisterType(&MessageAudioSendCandidate{})
	RegisterType(&MessageAudioLeaveRoom{})
	RegisterType(&MessageLeaveAllAudioRooms{})
	RegisterType(&MessageAudioRawData{})
	RegisterType(&MessageScreenShareCreateRoom{})
	RegisterType(&MessageScreenShareJoinRoom{})
	RegisterType(&MessageScreenShareSendOffer{})
	RegisterType(&MessageScreenShareSendAnswer{})
	RegisterType(&MessageScreenShareSendCandidate{})
	RegisterType(&MessageScreenShareLeaveRoom{})
	RegisterType(&MessageScreenShareLeaveAll{})
	RegisterType(&MessageScreenShareStopSharing{})
	RegisterType(&MessagePing{})
	RegisterType(&MessagePong{})
}

func RegisterType(msg Message) {
	typeRegistry[msg.GetType()] = reflect.TypeOf(msg).Elem()
}

// GetTypeRegistry returns the type registry for testing
func GetTypeRegistry() map[string]reflect.Type {
	return typeRegistry
}
