package validation

import (
	"log"
	"net/url"
	"regexp"
	"strings"
)

var roomIDRe = regexp.MustCompile(`^[a-zA-Z0-9 _.-]{1,128}$`)

// CheckIdentity logs missing identity fields without rejecting the event.
// Anonymous traffic is tolerated so embedded clients keep working; durable
// state paths no-op on empty ids instead.
func CheckIdentity(connID, userID, username string) {
	if strings.TrimSpace(userID) == "" {
		log.Printf("Connection %s sent an event without a userId", connID)
	}
	if strings.TrimSpace(username) == "" {
		log.Printf("Connection %s sent an event without a username", connID)
	}
}

func NormalizeRoomID(roomID string) string {
	return strings.TrimSpace(roomID)
}

func ValidateRoomID(roomID string) bool {
	return roomIDRe.MatchString(NormalizeRoomID(roomID))
}

// ValidateURL accepts absolute http or https URLs only.
func ValidateURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
