package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/pwalczak/cv-optimizer/internal/domain"
)

func TestGenerateAnonID(t *testing.T) {
	id, err := generateAnonID()
	if err != nil {
		t.Fatalf("generateAnonID failed: %v", err)
	}
	if !strings.HasPrefix(id, "anon_") {
		t.Errorf("Expected anon_ prefix, got %q", id)
	}
	if !userIDPattern.MatchString(id) {
		t.Errorf("Generated id %q does not match the accepted pattern", id)
	}

	other, err := generateAnonID()
	if err != nil {
		t.Fatalf("generateAnonID failed: %v", err)
	}
	if id == other {
		t.Error("Expected unique ids")
	}
}

func TestUserIDPattern(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"anon_0123456789abcdef0123456789abcdef", true},
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"anon_short", false},
		{"", false},
		{"anon_0123456789ABCDEF0123456789ABCDEF", false},
		{"../../etc/passwd", false},
		{"id with spaces", false},
	}
	for _, tt := range tests {
		if got := userIDPattern.MatchString(tt.id); got != tt.want {
			t.Errorf("userIDPattern(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestDeriveUsername(t *testing.T) {
	id := "anon_0123456789abcdef0123456789abcdef"
	got := deriveUsername(id)
	if got != "anon-89abcdef" {
		t.Errorf("deriveUsername = %q, want anon-89abcdef", got)
	}

	if got := deriveUsername("short"); got != "anon-user" {
		t.Errorf("deriveUsername(short) = %q, want anon-user", got)
	}
}

func TestActorContextRoundTrip(t *testing.T) {
	actor := &domain.Actor{ID: "u1"}
	ctx := WithActor(context.Background(), actor)

	if got := ActorFromContext(ctx); got != actor {
		t.Errorf("Expected actor from context, got %v", got)
	}
	if got := ActorFromContext(context.Background()); got != nil {
		t.Errorf("Expected nil actor from empty context, got %v", got)
	}
}
