package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const titleWordLimit = 8

// NewSessionID mints a session id owned by username. Usernames cannot
// contain underscores, so the first underscore always splits owner from the
// unix-nano mint time.
func NewSessionID(username string) string {
	return fmt.Sprintf("%s_%d", username, time.Now().UnixNano())
}

// OwnedBy reports whether sessionID belongs to username.
func OwnedBy(sessionID, username string) bool {
	return username != "" && sessionOwner(sessionID) == username
}

func sessionOwner(sessionID string) string {
	idx := strings.IndexByte(sessionID, '_')
	if idx <= 0 {
		return ""
	}
	return sessionID[:idx]
}

// sessionCreatedAt recovers the mint time from the id suffix.
func sessionCreatedAt(sessionID string) (time.Time, bool) {
	idx := strings.LastIndexByte(sessionID, '_')
	if idx < 0 || idx == len(sessionID)-1 {
		return time.Time{}, false
	}
	nanos, err := strconv.ParseInt(sessionID[idx+1:], 10, 64)
	if err != nil || nanos <= 0 {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

// TitleFor derives a session title from the first user message, truncated
// to a few words. Sessions with no user text yet fall back to a timestamp
// title.
func TitleFor(sessionID string, messages []Message) string {
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		words := strings.Fields(text)
		if len(words) > titleWordLimit {
			return strings.Join(words[:titleWordLimit], " ") + "..."
		}
		return strings.Join(words, " ")
	}

	if created, ok := sessionCreatedAt(sessionID); ok {
		return created.Format("Chat 2006-01-02 15:04")
	}
	return "New Chat"
}
