package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/podiumlab/racenight/src/domain/session"
	"github.com/podiumlab/racenight/src/domain/shared"
	infra "github.com/podiumlab/racenight/src/infra/session"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := infra.NewMemoryStore()

	bookmark, err := session.NewPlayerSession("t-1", "p-1", "Alice", time.Now())
	if err != nil {
		t.Fatalf("NewPlayerSession() failed: %v", err)
	}
	if err := store.Save(ctx, bookmark); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Get(ctx, "t-1", "p-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Nickname != "Alice" {
		t.Errorf("Nickname = %s, want Alice", got.Nickname)
	}

	// Same player id under a different tournament is a different bookmark.
	if _, err := store.Get(ctx, "t-2", "p-1"); err != shared.ErrNotFound {
		t.Errorf("Get(other tournament) = %v, want ErrNotFound", err)
	}

	if err := store.Delete(ctx, "t-1", "p-1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "t-1", "p-1"); err != shared.ErrNotFound {
		t.Errorf("Get(after delete) = %v, want ErrNotFound", err)
	}
}

func TestNewPlayerSession_Validation(t *testing.T) {
	if _, err := session.NewPlayerSession("", "p-1", "Alice", time.Now()); err == nil {
		t.Error("expected error for empty tournament id")
	}
	if _, err := session.NewPlayerSession("t-1", "", "Alice", time.Now()); err == nil {
		t.Error("expected error for empty player id")
	}
}
