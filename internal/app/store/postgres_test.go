package store

import (
	"context"
	"os"
	"testing"

	"neoslink/internal/app/user"
)

// TestPostgresStore_RoundTrip runs only when TEST_PG_DSN points at a disposable database.
func TestPostgresStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer s.Close()

	first := map[string]user.User{
		"U-erin":  {DiscordID: "1", DisplayName: "Erin"},
		"U-frank": {DiscordID: "2", DisplayName: "Frank", AvatarURL: "https://cdn.example/f.png"},
	}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := map[string]user.User{
		"U-erin": {DiscordID: "1", DisplayName: "Erin Renamed"},
	}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load returned %d users, want 1: %+v", len(got), got)
	}
	if got["U-erin"].DisplayName != "Erin Renamed" {
		t.Errorf("U-erin = %+v", got["U-erin"])
	}
}
