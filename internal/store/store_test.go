package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hexchat/chat-sync/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveIsIdempotent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	msgs := []model.Message{
		{Role: model.RoleUser, Text: "hi"},
		{Role: model.RoleBot, Text: "hello"},
	}
	if err := s.Save(ctx, "1712000000000", msgs, SaveOptions{Title: "Greetings", Timestamp: 100}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "1712000000000", msgs, SaveOptions{Timestamp: 200}); err != nil {
		t.Fatalf("Save again: %v", err)
	}

	th, err := s.Get(ctx, "1712000000000")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if th == nil {
		t.Fatalf("thread missing")
	}
	if len(th.Messages) != 2 || th.Messages[0].Text != "hi" || th.Messages[1].Text != "hello" {
		t.Fatalf("messages = %+v, want original two in order", th.Messages)
	}
	if th.Title != "Greetings" {
		t.Fatalf("Title=%q, want frozen %q", th.Title, "Greetings")
	}
	if th.Timestamp != 200 {
		t.Fatalf("Timestamp=%d, want 200", th.Timestamp)
	}
}

func TestStore_SavePreservesFlagsAndUUID(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "a", []model.Message{{Role: model.RoleUser, Text: "x"}}, SaveOptions{Title: "T", Timestamp: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.SetFavorite(ctx, "a", true); err != nil {
		t.Fatalf("SetFavorite: %v", err)
	}
	if err := s.SetPinned(ctx, "a", true); err != nil {
		t.Fatalf("SetPinned: %v", err)
	}
	if err := s.SetUUID(ctx, "a", "u-1"); err != nil {
		t.Fatalf("SetUUID: %v", err)
	}

	// A later save carrying a different uuid must not replace the existing one.
	if err := s.Save(ctx, "a", []model.Message{{Role: model.RoleUser, Text: "x"}, {Role: model.RoleBot, Text: "y"}}, SaveOptions{UUID: "u-2", Timestamp: 2}); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	if err := s.SetUUID(ctx, "a", "u-3"); err != nil {
		t.Fatalf("SetUUID again: %v", err)
	}

	th, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !th.Favorite || !th.Pinned {
		t.Fatalf("flags = favorite:%v pinned:%v, want both true", th.Favorite, th.Pinned)
	}
	if th.UUID != "u-1" {
		t.Fatalf("UUID=%q, want stable u-1", th.UUID)
	}
}

func TestStore_FavoriteAndPinAreIndependent(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "a", []model.Message{{Role: model.RoleUser, Text: "x"}}, SaveOptions{Timestamp: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.SetFavorite(ctx, "a", true); err != nil {
		t.Fatalf("SetFavorite: %v", err)
	}

	th, _ := s.Get(ctx, "a")
	if th.Pinned {
		t.Fatalf("SetFavorite changed pinned")
	}
	if len(th.Messages) != 1 {
		t.Fatalf("SetFavorite changed messages")
	}

	if err := s.SetPinned(ctx, "a", true); err != nil {
		t.Fatalf("SetPinned: %v", err)
	}
	th, _ = s.Get(ctx, "a")
	if !th.Favorite {
		t.Fatalf("SetPinned changed favorite")
	}
}

func TestStore_MetadataOnAbsentIDIsNoop(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SetTitle(ctx, "ghost", "New"); err != nil {
		t.Fatalf("SetTitle on absent id: %v", err)
	}
	if err := s.SetFavorite(ctx, "ghost", true); err != nil {
		t.Fatalf("SetFavorite on absent id: %v", err)
	}
	m, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("store gained %d rows from metadata no-ops", len(m))
	}
}

func TestStore_DeleteRemovesFromEnumeration(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := s.Save(ctx, id, []model.Message{{Role: model.RoleUser, Text: id}}, SaveOptions{Timestamp: 1}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	rest, err := s.Delete(ctx, "a")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := rest["a"]; ok {
		t.Fatalf("deleted id still present in Delete result")
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded["a"]; ok {
		t.Fatalf("deleted id still present in Load")
	}
	if len(loaded) != len(rest) {
		t.Fatalf("Delete result (%d) disagrees with Load (%d)", len(rest), len(loaded))
	}
}

func TestStore_LoadEmptyIsEmptyMapping(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	m, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m == nil || len(m) != 0 {
		t.Fatalf("Load on empty store = %v, want empty non-nil mapping", m)
	}
}

func TestStore_ReplaceIsWholesale(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "old", []model.Message{{Role: model.RoleUser, Text: "gone"}}, SaveOptions{Timestamp: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	next := map[string]model.Thread{
		"new": {
			ID:        "new",
			Title:     "Merged",
			Timestamp: 5,
			UUID:      "u-9",
			Pinned:    true,
			Messages:  []model.Message{{Role: model.RoleBot, Text: "merged"}},
		},
	}
	if err := s.Replace(ctx, next); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	m, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := m["old"]; ok {
		t.Fatalf("Replace kept a stale row")
	}
	got := m["new"]
	if got.Title != "Merged" || got.UUID != "u-9" || !got.Pinned || len(got.Messages) != 1 {
		t.Fatalf("Replace wrote %+v", got)
	}
}

func TestStore_ClearAll(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "a", nil, SaveOptions{Timestamp: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	m, _ := s.Load(ctx)
	if len(m) != 0 {
		t.Fatalf("store not empty after ClearAll")
	}
}
