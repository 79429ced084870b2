package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"shelfsync/internal/util"
	"shelfsync/pkg/domain"
)

// ErrDuplicateEmail is returned when a user email is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicatePath is returned when a (user, file_path) pair already exists.
var ErrDuplicatePath = errors.New("file path already exists for user")

// MemoryStore keeps records in-process. It mirrors the Postgres store's
// constraints (unique email, unique (user, path), unique (user, book)
// bookmark) so tests exercise the same contract.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	email     map[string]string // email -> user ID
	books     map[string]domain.Book
	bookmarks map[string]domain.Bookmark // key: userID + "\x00" + bookID
	prefs     map[string]domain.Preferences
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		email:     make(map[string]string),
		books:     make(map[string]domain.Book),
		bookmarks: make(map[string]domain.Bookmark),
		prefs:     make(map[string]domain.Preferences),
	}
}

// CreateUser registers a user, rejecting duplicate emails.
func (m *MemoryStore) CreateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.email[u.Email]; exists {
		return ErrDuplicateEmail
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// InsertBook stores a new book row, rejecting duplicate (user, path) pairs.
func (m *MemoryStore) InsertBook(b domain.Book) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.books {
		if existing.UserID == b.UserID && existing.FilePath == b.FilePath {
			return domain.Book{}, ErrDuplicatePath
		}
	}
	if b.ID == "" {
		b.ID = util.NewID()
	}
	m.books[b.ID] = b
	return b, nil
}

// UpdateBook applies a partial edit and bumps updated_at.
func (m *MemoryStore) UpdateBook(userID, bookID string, update BookUpdate) (domain.Book, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok || b.UserID != userID {
		return domain.Book{}, false, nil
	}
	if update.Title != nil {
		b.Title = *update.Title
	}
	if update.Author != nil {
		b.Author = *update.Author
	}
	if update.Series != nil {
		b.Series = *update.Series
	}
	if update.SeriesNumber != nil {
		b.SeriesNumber = *update.SeriesNumber
	}
	if update.Language != nil {
		b.Language = *update.Language
	}
	if update.Status != nil {
		b.Status = *update.Status
	}
	if update.PageCount != nil {
		b.PageCount = *update.PageCount
	}
	if update.CoverURL != nil {
		b.CoverURL = *update.CoverURL
	}
	b.UpdatedAt = time.Now().UTC()
	m.books[bookID] = b
	return b, true, nil
}

// ListBooksByOwner returns books most recently updated first.
func (m *MemoryStore) ListBooksByOwner(userID string) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0)
	for _, b := range m.books {
		if b.UserID == userID {
			res = append(res, b)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].UpdatedAt.Equal(res[j].UpdatedAt) {
			return res[i].UpdatedAt.After(res[j].UpdatedAt)
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

// GetBookByOwner retrieves one book scoped by owner.
func (m *MemoryStore) GetBookByOwner(userID, bookID string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[bookID]
	if !ok || b.UserID != userID {
		return domain.Book{}, false, nil
	}
	return b, true, nil
}

// DeleteBook removes a book row. Used to simulate the out-of-band deletion
// flow the cache has to tolerate.
func (m *MemoryStore) DeleteBook(bookID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, bookID)
}

// UpsertBookmark writes progress keyed on (user_id, book_id).
func (m *MemoryStore) UpsertBookmark(bm domain.Bookmark) (domain.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := bm.UserID + "\x00" + bm.BookID
	if existing, ok := m.bookmarks[key]; ok {
		existing.CurrentPage = bm.CurrentPage
		existing.TotalPages = bm.TotalPages
		existing.ReadingProgress = bm.ReadingProgress
		existing.LastReadAt = bm.LastReadAt
		m.bookmarks[key] = existing
		return existing, nil
	}
	if bm.ID == "" {
		bm.ID = util.NewID()
	}
	m.bookmarks[key] = bm
	return bm, nil
}

// ListBookmarksByOwner returns the owner's bookmarks.
func (m *MemoryStore) ListBookmarksByOwner(userID string) ([]domain.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Bookmark, 0)
	for _, bm := range m.bookmarks {
		if bm.UserID == userID {
			res = append(res, bm)
		}
	}
	return res, nil
}

// GetPreferences returns the user's reader settings.
func (m *MemoryStore) GetPreferences(userID string) (domain.Preferences, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prefs[userID]
	return p, ok, nil
}

// UpsertPreferences writes settings keyed on user_id.
func (m *MemoryStore) UpsertPreferences(p domain.Preferences) (domain.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.prefs[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.prefs[p.UserID] = p
	return p, nil
}
