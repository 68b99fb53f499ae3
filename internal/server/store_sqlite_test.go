package server

import (
	"context"
	"errors"
	"testing"

	"github.com/thiercelieux/narrator/internal/database"
	"github.com/thiercelieux/narrator/internal/migrations"
)

func newTestStore(t *testing.T, maxSessions int) *SQLiteStore {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return NewSQLiteStore(db, maxSessions)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	doc, err := store.CreateSession(ctx, SessionDoc{
		Name:    "friday game",
		Players: []string{"Alice", "Bob"},
		Roles:   []string{"werewolf", "villager"},
	})
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if doc.ID == 0 || doc.CreatedAt == "" {
		t.Fatalf("expected assigned id and timestamp, got %+v", doc)
	}

	got, err := store.GetSession(ctx, doc.ID)
	if err != nil {
		t.Fatalf("getting: %v", err)
	}
	if got.Name != "friday game" || len(got.Players) != 2 {
		t.Fatalf("unexpected doc: %+v", got)
	}

	got.Name = "saturday game"
	if err := store.SaveSession(ctx, got); err != nil {
		t.Fatalf("saving: %v", err)
	}
	got, _ = store.GetSession(ctx, doc.ID)
	if got.Name != "saturday game" {
		t.Errorf("expected updated name, got %q", got.Name)
	}

	if err := store.DeleteSession(ctx, doc.ID); err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if _, err := store.GetSession(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteSession(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestSessionStoreCapsAtNewest(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"one", "two", "three"} {
		doc, err := store.CreateSession(ctx, SessionDoc{Name: name, Players: []string{"A"}, Roles: []string{"villager"}})
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		ids = append(ids, doc.ID)
	}

	list, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions after cap, got %d", len(list))
	}
	// Newest first.
	if list[0].ID != ids[2] || list[1].ID != ids[1] {
		t.Errorf("unexpected order: %+v", list)
	}
	if _, err := store.GetSession(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest session should be pruned, got %v", err)
	}
}

func TestSessionStoreBumpsCollidingIDs(t *testing.T) {
	store := newTestStore(t, 10)
	ctx := context.Background()

	a, err := store.CreateSession(ctx, SessionDoc{Name: "a"})
	if err != nil {
		t.Fatalf("creating a: %v", err)
	}
	b, err := store.CreateSession(ctx, SessionDoc{Name: "b"})
	if err != nil {
		t.Fatalf("creating b: %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("ids must be unique, both are %d", a.ID)
	}
}
