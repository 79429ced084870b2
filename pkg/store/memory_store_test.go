package store

import (
	"errors"
	"testing"
	"time"

	"shelfsync/pkg/domain"
)

func TestMemoryStoreBookmarkUpsertNeverDuplicates(t *testing.T) {
	s := NewMemoryStore()

	first, err := s.UpsertBookmark(domain.Bookmark{
		UserID:          "user-1",
		BookID:          "book-1",
		CurrentPage:     150,
		TotalPages:      600,
		ReadingProgress: 25.0,
		LastReadAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("expected generated id")
	}

	second, err := s.UpsertBookmark(domain.Bookmark{
		UserID:          "user-1",
		BookID:          "book-1",
		CurrentPage:     300,
		TotalPages:      600,
		ReadingProgress: 50.0,
		LastReadAt:      time.Now().UTC().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a second row: %q vs %q", second.ID, first.ID)
	}
	if second.ReadingProgress != 50.0 {
		t.Fatalf("progress not updated: %v", second.ReadingProgress)
	}

	all, err := s.ListBookmarksByOwner("user-1")
	if err != nil {
		t.Fatalf("list bookmarks: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one bookmark, got %d", len(all))
	}
}

func TestMemoryStoreBookmarkScopedByUser(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.UpsertBookmark(domain.Bookmark{UserID: "user-1", BookID: "book-1", CurrentPage: 10}); err != nil {
		t.Fatalf("upsert user-1: %v", err)
	}
	if _, err := s.UpsertBookmark(domain.Bookmark{UserID: "user-2", BookID: "book-1", CurrentPage: 20}); err != nil {
		t.Fatalf("upsert user-2: %v", err)
	}

	one, _ := s.ListBookmarksByOwner("user-1")
	two, _ := s.ListBookmarksByOwner("user-2")
	if len(one) != 1 || len(two) != 1 {
		t.Fatalf("expected one bookmark per user, got %d and %d", len(one), len(two))
	}
	if one[0].CurrentPage != 10 || two[0].CurrentPage != 20 {
		t.Fatalf("rows leaked across users: %+v %+v", one[0], two[0])
	}
}

func TestMemoryStoreBooksOrderedByRecency(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now().UTC()

	for i, id := range []string{"old", "mid", "new"} {
		_, err := s.InsertBook(domain.Book{
			ID:        id,
			UserID:    "user-1",
			Title:     id,
			FilePath:  "user-1/" + id + ".pdf",
			Status:    domain.StatusToRead,
			CreatedAt: base,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	books, err := s.ListBooksByOwner("user-1")
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("expected 3 books, got %d", len(books))
	}
	if books[0].ID != "new" || books[2].ID != "old" {
		t.Fatalf("wrong order: %s, %s, %s", books[0].ID, books[1].ID, books[2].ID)
	}
}

func TestMemoryStoreRejectsDuplicatePath(t *testing.T) {
	s := NewMemoryStore()
	book := domain.Book{UserID: "user-1", Title: "Dune", FilePath: "user-1/abc-Dune.pdf", Status: domain.StatusToRead}
	if _, err := s.InsertBook(book); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := s.InsertBook(book); !errors.Is(err, ErrDuplicatePath) {
		t.Fatalf("expected duplicate path error, got: %v", err)
	}
	// Same path under another user is fine.
	other := domain.Book{UserID: "user-2", Title: "Dune", FilePath: "user-1/abc-Dune.pdf", Status: domain.StatusToRead}
	if _, err := s.InsertBook(other); err != nil {
		t.Fatalf("insert for other user: %v", err)
	}
}

func TestMemoryStoreUpdateBookBumpsUpdatedAt(t *testing.T) {
	s := NewMemoryStore()
	created := time.Now().UTC().Add(-time.Hour)
	inserted, err := s.InsertBook(domain.Book{
		UserID:    "user-1",
		Title:     "Dune",
		FilePath:  "user-1/abc-Dune.pdf",
		Status:    domain.StatusToRead,
		CreatedAt: created,
		UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	title := "Dune (revised)"
	status := domain.StatusReading
	updated, ok, err := s.UpdateBook("user-1", inserted.ID, BookUpdate{Title: &title, Status: &status})
	if err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	if updated.Title != title || updated.Status != domain.StatusReading {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !updated.UpdatedAt.After(created) {
		t.Fatalf("updated_at not bumped")
	}
	if !updated.CreatedAt.Equal(created) {
		t.Fatalf("created_at must be immutable")
	}

	if _, ok, _ := s.UpdateBook("user-2", inserted.ID, BookUpdate{Title: &title}); ok {
		t.Fatalf("update must be scoped by owner")
	}
}

func TestMemoryStorePreferencesUpsert(t *testing.T) {
	s := NewMemoryStore()

	if _, ok, err := s.GetPreferences("user-1"); err != nil || ok {
		t.Fatalf("expected no preferences yet: ok=%v err=%v", ok, err)
	}

	first, err := s.UpsertPreferences(domain.Preferences{UserID: "user-1", Theme: "dark", DefaultZoom: 100})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := s.UpsertPreferences(domain.Preferences{UserID: "user-1", Theme: "light", DefaultZoom: 120})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.Theme != "light" || second.DefaultZoom != 120 {
		t.Fatalf("settings not replaced: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at must survive upsert")
	}
}
