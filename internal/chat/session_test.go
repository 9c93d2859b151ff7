package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNewSessionID(t *testing.T) {
	id := NewSessionID("jsmith")

	if !strings.HasPrefix(id, "jsmith_") {
		t.Fatalf("expected the owner prefix, got %q", id)
	}
	if !ValidSessionID(id) {
		t.Fatalf("minted id %q is not filesystem safe", id)
	}

	created, ok := sessionCreatedAt(id)
	if !ok {
		t.Fatalf("expected a creation time embedded in %q", id)
	}
	if time.Since(created) > time.Minute {
		t.Errorf("creation time %s is not recent", created)
	}
}

func TestOwnedBy(t *testing.T) {
	tests := []struct {
		sessionID string
		username  string
		want      bool
	}{
		{"jsmith_123", "jsmith", true},
		{"jsmith-2_123", "jsmith-2", true},
		{"jsmith_123", "j", false},
		{"jsmith_123", "jsmith_123", false},
		{"jsmith_123", "", false},
		{"nounderscore", "nounderscore", false},
		{"_123", "", false},
	}
	for _, tc := range tests {
		if got := OwnedBy(tc.sessionID, tc.username); got != tc.want {
			t.Errorf("OwnedBy(%q, %q) = %v, want %v", tc.sessionID, tc.username, got, tc.want)
		}
	}
}

func TestTitleFor_FirstUserMessage(t *testing.T) {
	messages := []Message{
		{Role: RoleAssistant, Content: "Welcome to the questionnaire."},
		{Role: RoleUser, Content: "  We are installing two units  "},
		{Role: RoleUser, Content: "second message should not matter"},
	}

	if got := TitleFor("jsmith_1", messages); got != "We are installing two units" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestTitleFor_TruncatesLongMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "one two three four five six seven eight nine ten"},
	}

	want := "one two three four five six seven eight..."
	if got := TitleFor("jsmith_1", messages); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTitleFor_TimestampFallback(t *testing.T) {
	created := time.Date(2025, time.March, 14, 9, 26, 0, 0, time.Local)
	id := fmt.Sprintf("jsmith_%d", created.UnixNano())

	want := "Chat 2025-03-14 09:26"
	if got := TitleFor(id, nil); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	blankOnly := []Message{{Role: RoleUser, Content: "   "}}
	if got := TitleFor(id, blankOnly); got != want {
		t.Fatalf("expected whitespace-only messages to fall back, got %q", got)
	}
}

func TestTitleFor_LastResort(t *testing.T) {
	if got := TitleFor("not-a-minted-id", nil); got != "New Chat" {
		t.Fatalf("expected the generic title, got %q", got)
	}
}
