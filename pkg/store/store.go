package store

import (
	"shelfsync/pkg/domain"
)

// RecordStore defines persistence operations over the user-scoped tables.
// Every call is scoped by an explicit owner id supplied by the caller; the
// store never infers identity. Failures are surfaced once, with no retry.
type RecordStore interface {
	// users
	CreateUser(u domain.User) error
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// books, ordered most-recently-updated first
	InsertBook(b domain.Book) (domain.Book, error)
	UpdateBook(userID, bookID string, update BookUpdate) (domain.Book, bool, error)
	ListBooksByOwner(userID string) ([]domain.Book, error)
	GetBookByOwner(userID, bookID string) (domain.Book, bool, error)

	// bookmarks, upsert keyed on (user_id, book_id)
	UpsertBookmark(bm domain.Bookmark) (domain.Bookmark, error)
	ListBookmarksByOwner(userID string) ([]domain.Bookmark, error)

	// preferences, one row per user
	GetPreferences(userID string) (domain.Preferences, bool, error)
	UpsertPreferences(p domain.Preferences) (domain.Preferences, error)
}

// BookUpdate carries a partial metadata edit. Nil fields are left untouched.
// The store bumps updated_at on every applied edit.
type BookUpdate struct {
	Title        *string
	Author       *string
	Series       *string
	SeriesNumber *int
	Language     *domain.Language
	Status       *domain.BookStatus
	PageCount    *int
	CoverURL     *string
}

// Empty reports whether the update would change nothing.
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.Series == nil &&
		u.SeriesNumber == nil && u.Language == nil && u.Status == nil &&
		u.PageCount == nil && u.CoverURL == nil
}
