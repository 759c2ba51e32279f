package validation

import "testing"

func TestValidateRoomID(t *testing.T) {
	valid := []string{"general-abc123", "dev chat", "Room_1.a", "x"}
	for _, roomID := range valid {
		if !ValidateRoomID(roomID) {
			t.Errorf("ValidateRoomID(%q) = false, want true", roomID)
		}
	}

	invalid := []string{"", "room/../../etc", "room\nid", string(make([]byte, 200))}
	for _, roomID := range invalid {
		if ValidateRoomID(roomID) {
			t.Errorf("ValidateRoomID(%q) = true, want false", roomID)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{"https://example.com", "http://example.com/path?x=1"}
	for _, raw := range valid {
		if !ValidateURL(raw) {
			t.Errorf("ValidateURL(%q) = false, want true", raw)
		}
	}

	invalid := []string{"", "ftp://example.com", "javascript:alert(1)", "example.com", "https://"}
	for _, raw := range invalid {
		if ValidateURL(raw) {
			t.Errorf("ValidateURL(%q) = true, want false", raw)
		}
	}
}

func TestTrimAndLimit(t *testing.T) {
	if got := TrimAndLimit("  hello  ", 10); got != "hello" {
		t.Errorf("TrimAndLimit = %q, want hello", got)
	}
	if got := TrimAndLimit("abcdefgh", 3); got != "abc" {
		t.Errorf("TrimAndLimit = %q, want abc", got)
	}
	if got := TrimAndLimit("abc", 0); got != "abc" {
		t.Errorf("TrimAndLimit with no limit = %q, want abc", got)
	}
}
