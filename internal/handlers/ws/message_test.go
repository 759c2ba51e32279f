package ws

import (
	"bytes"
	"compress/gzip"
	"testing"
)

func TestTypeRegistryCoversAllEvents(t *testing.T) {
	events := []string{
		"user_connected",
		"create_room",
		"join_room",
		"send_message",
		"get_user_rooms",
		"get_user_in_rooms",
		"get_room_messages",
		"get_room_messages_pages",
		"get_all_rooms",
		"update_last_read_message",
		"audio-create-room",
		"audio-join-room",
		"audio-send-offer",
		"audio-send-answer",
		"audio-send-ice-candidate",
		"audio-leave-room",
		"leave-all-audio-rooms",
		"audio-raw-data-transmitted",
		"screenshare-create-room",
		"screenshare-join-room",
		"screenshare-send-offer",
		"screenshare-send-answer",
		"screenshare-send-ice-candidate",
		"screenshare-leave-room",
		"screenshare-leave-all-rooms",
		"screenshare-stop-sharing",
		"ping",
		"pong",
	}
	registry := GetTypeRegistry()
	for _, event := range events {
		if _, ok := registry[event]; !ok {
			t.Errorf("type registry missing %q", event)
		}
	}
}

func TestDeserializeJoinRoom(t *testing.T) {
	wire := []byte(`{"type":"join_room","payload":{"room":"general-abc","userId":"u1","username":"alice"}}`)

	msg, err := Deserialize(wire)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	join, ok := msg.(*MessageJoinRoom)
	if !ok {
		t.Fatalf("message type = %T, want *MessageJoinRoom", msg)
	}
	if join.Room != "general-abc" || join.UserID != "u1" || join.Username != "alice" {
		t.Errorf("decoded = %+v, want general-abc/u1/alice", join)
	}
}

func TestDeserializeSendMessageKeepsExtraFields(t *testing.T) {
	wire := []byte(`{"type":"send_message","payload":{"room":"general-abc","userId":"u1","author":"alice","message":"hi","id":123,"attachmentUrl":"https://cdn.example.com/f.png"}}`)

	msg, err := Deserialize(wire)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	send, ok := msg.(*MessageSendMessage)
	if !ok {
		t.Fatalf("message type = %T, want *MessageSendMessage", msg)
	}
	if send.Room != "general-abc" || send.Body != "hi" {
		t.Errorf("decoded = %+v, want room and body filled", send.Message)
	}
	if _, ok := send.Extra["attachmentUrl"]; !ok {
		t.Errorf("Extra missing attachmentUrl")
	}
}

func TestDeserializeUnknownType(t *testing.T) {
	if _, err := Deserialize([]byte(`{"type":"no_such_event","payload":{}}`)); err == nil {
		t.Errorf("Deserialize of unknown type succeeded, want error")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	original := &MessageGetRoomMessagesPages{Room: "general-abc", Page: 2, PageSize: 25, UserID: "u1"}

	wire, err := Serialize(original)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	decoded, err := Deserialize(wire)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	paged, ok := decoded.(*MessageGetRoomMessagesPages)
	if !ok {
		t.Fatalf("round trip type = %T", decoded)
	}
	if *paged != *original {
		t.Errorf("round trip = %+v, want %+v", paged, original)
	}
}

func TestDecompressMessage(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write([]byte(`{"type":"ping","payload":{}}`))
	w.Close()

	plain, err := DecompressMessage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecompressMessage: %v", err)
	}
	if string(plain) != `{"type":"ping","payload":{}}` {
		t.Errorf("decompressed = %q", plain)
	}

	if _, err := DecompressMessage([]byte("not gzip")); err == nil {
		t.Errorf("DecompressMessage of garbage succeeded, want error")
	}
}
