package identity

import (
	"context"
	"testing"
)

func TestWithUserAndFromContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithUser(ctx, User{Username: "jsmith", Name: "John Smith"})

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatalf("expected user to be present")
	}
	if got.Username != "jsmith" {
		t.Fatalf("expected jsmith, got %s", got.Username)
	}
	if got.Name != "John Smith" {
		t.Fatalf("expected display name to be carried, got %s", got.Name)
	}
}

func TestFromContext_EmptyOrMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := FromContext(ctx); ok {
		t.Fatalf("expected missing user to return false")
	}

	ctx = context.WithValue(ctx, userKey, 42)
	if _, ok := FromContext(ctx); ok {
		t.Fatalf("expected non-user value to return false")
	}

	ctx = WithUser(context.Background(), User{})
	if _, ok := FromContext(ctx); ok {
		t.Fatalf("expected empty username to return false")
	}
}
