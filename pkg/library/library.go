// Package library is the client-side state and synchronization core: it
// keeps per-user snapshots of books and bookmarks consistent with the remote
// record store, coordinates the multi-step upload and progress mutations, and
// serves reads stale-while-revalidate.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shelfsync/pkg/domain"
	"shelfsync/pkg/pdfmeta"
	"shelfsync/pkg/storage"
	"shelfsync/pkg/store"
)

// signedURLTTL is how long a read URL stays valid.
const signedURLTTL = time.Hour

// Config wires the library's collaborators.
type Config struct {
	Records store.RecordStore
	Blobs   storage.ObjectStore
	Logger  *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Library owns the in-memory snapshot of every signed-in user's books and
// bookmarks. It is the sole mutator of those snapshots; everything else goes
// through its entry points. Identity is always passed in explicitly, never
// read from ambient state.
type Library struct {
	records store.RecordStore
	blobs   storage.ObjectStore
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	books     map[string]*entry[domain.Book]
	bookmarks map[string]*entry[domain.Bookmark]
}

// New constructs the library cache.
func New(cfg Config) (*Library, error) {
	if cfg.Records == nil {
		return nil, errors.New("record store required")
	}
	if cfg.Blobs == nil {
		return nil, errors.New("object store required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Library{
		records:   cfg.Records,
		blobs:     cfg.Blobs,
		logger:    logger,
		now:       now,
		books:     make(map[string]*entry[domain.Book]),
		bookmarks: make(map[string]*entry[domain.Bookmark]),
	}, nil
}

// Books returns the user's books, most recently updated first. An absent
// user yields an empty slice, not an error. When no snapshot exists the call
// blocks on the fetch; when a stale snapshot exists it is served immediately
// and a revalidation runs in the background.
func (l *Library) Books(ctx context.Context, userID string) ([]domain.Book, error) {
	if userID == "" {
		return nil, nil
	}
	return fetch(l, l.books, userID, func() ([]domain.Book, error) {
		return l.listBooks(userID)
	})
}

// Bookmarks returns the user's bookmarks, same contract as Books but
// unordered.
func (l *Library) Bookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	if userID == "" {
		return nil, nil
	}
	return fetch(l, l.bookmarks, userID, func() ([]domain.Bookmark, error) {
		return l.listBookmarks(userID)
	})
}

// RefreshBooks forces a fetch and blocks until its result is resolved
// against the snapshot ordering.
func (l *Library) RefreshBooks(ctx context.Context, userID string) ([]domain.Book, error) {
	if userID == "" {
		return nil, nil
	}
	return refresh(l, l.books, userID, func() ([]domain.Book, error) {
		return l.listBooks(userID)
	})
}

// RefreshBookmarks forces a fetch of the bookmarks collection.
func (l *Library) RefreshBookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	if userID == "" {
		return nil, nil
	}
	return refresh(l, l.bookmarks, userID, func() ([]domain.Bookmark, error) {
		return l.listBookmarks(userID)
	})
}

// Warm fetches both collections concurrently, for sign-in and the stats
// surface.
func (l *Library) Warm(ctx context.Context, userID string) ([]domain.Book, []domain.Bookmark, error) {
	var (
		books     []domain.Book
		bookmarks []domain.Bookmark
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = l.Books(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		bookmarks, err = l.Bookmarks(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return books, bookmarks, nil
}

// BooksState exposes the books snapshot lifecycle state for a user.
func (l *Library) BooksState(userID string) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.books[userID]; ok {
		return e.state
	}
	return StateEmpty
}

// BookmarksState exposes the bookmarks snapshot lifecycle state for a user.
func (l *Library) BookmarksState(userID string) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.bookmarks[userID]; ok {
		return e.state
	}
	return StateEmpty
}

// InvalidateBooks marks the user's books snapshot stale.
func (l *Library) InvalidateBooks(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.books[userID]; ok {
		e.invalidate()
	}
}

// InvalidateBookmarks marks the user's bookmarks snapshot stale.
func (l *Library) InvalidateBookmarks(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.bookmarks[userID]; ok {
		e.invalidate()
	}
}

// Forget drops every snapshot held for the user. Called on sign-out. Results
// of fetches still in flight are discarded when they arrive: their cache slot
// is no longer reachable, so they can never repopulate a session that ended.
func (l *Library) Forget(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.books, userID)
	delete(l.bookmarks, userID)
}

func (l *Library) listBooks(userID string) ([]domain.Book, error) {
	rows, err := l.records.ListBooksByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}
	return rows, nil
}

func (l *Library) listBookmarks(userID string) ([]domain.Bookmark, error) {
	rows, err := l.records.ListBookmarksByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}
	return rows, nil
}

// fetch serves a collection stale-while-revalidate.
func fetch[T any](l *Library, entries map[string]*entry[T], userID string, list func() ([]T, error)) ([]T, error) {
	l.mu.Lock()
	e, ok := entries[userID]
	if !ok {
		e = &entry[T]{}
		entries[userID] = e
	}
	switch e.state {
	case StateReady:
		items := e.snapshot()
		l.mu.Unlock()
		return items, nil
	case StateStale:
		items := e.snapshot()
		seq := e.beginFetch()
		l.mu.Unlock()
		go func() {
			if _, err := resolve(l, entries, userID, e, seq, list); err != nil {
				l.logger.Warn("background revalidation failed", "user_id", userID, "err", err)
			}
		}()
		return items, nil
	default:
		// No snapshot yet: the caller suspends on the fetch.
		seq := e.beginFetch()
		l.mu.Unlock()
		return resolve(l, entries, userID, e, seq, list)
	}
}

// refresh always issues a fetch, regardless of snapshot freshness.
func refresh[T any](l *Library, entries map[string]*entry[T], userID string, list func() ([]T, error)) ([]T, error) {
	l.mu.Lock()
	e, ok := entries[userID]
	if !ok {
		e = &entry[T]{}
		entries[userID] = e
	}
	seq := e.beginFetch()
	l.mu.Unlock()
	return resolve(l, entries, userID, e, seq, list)
}

// resolve runs the fetch and installs its result against the entry's
// sequence ordering: older results never overwrite newer snapshots, and
// results for a slot dropped by Forget are discarded entirely.
func resolve[T any](l *Library, entries map[string]*entry[T], userID string, e *entry[T], seq uint64, list func() ([]T, error)) ([]T, error) {
	items, err := list()

	l.mu.Lock()
	defer l.mu.Unlock()
	if current, ok := entries[userID]; !ok || current != e {
		// The user signed out (or a new session replaced the slot) while
		// this fetch was outstanding.
		return nil, nil
	}
	if err != nil {
		e.fail()
		return nil, err
	}
	e.apply(seq, items)
	return e.snapshot(), nil
}

// UploadRequest carries one file upload. File must stay readable for the
// duration of the call; multipart form files satisfy io.ReaderAt.
type UploadRequest struct {
	File     io.ReaderAt
	Size     int64
	Filename string
	Title    string
	Author   string
	Series   string
}

// UploadBook transfers the file to blob storage under a collision-resistant
// user-scoped path, then inserts the metadata row with status to_read.
// Validation failures reject before any network call. A transfer failure
// aborts the whole operation; a metadata failure after a successful transfer
// leaves the orphaned blob in place and is logged distinctly so operators
// can find those objects.
func (l *Library) UploadBook(ctx context.Context, userID string, req UploadRequest) (domain.Book, error) {
	if userID == "" {
		return domain.Book{}, ErrUnauthenticated
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Book{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if req.File == nil || req.Size <= 0 {
		return domain.Book{}, &ValidationError{Field: "file", Reason: "missing or empty"}
	}
	if strings.TrimSpace(req.Filename) == "" {
		return domain.Book{}, &ValidationError{Field: "filename", Reason: "must not be empty"}
	}

	blobPath := buildBlobPath(userID, req.Filename)

	// Best-effort page count; a malformed PDF never blocks the upload.
	pageCount := 0
	if meta, err := pdfmeta.Sniff(req.File, req.Size); err == nil {
		pageCount = meta.PageCount
	} else {
		l.logger.Debug("page count sniff failed", "filename", req.Filename, "err", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(req.Filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := l.blobs.Put(ctx, blobPath, io.NewSectionReader(req.File, 0, req.Size), req.Size, contentType); err != nil {
		return domain.Book{}, &UploadError{Stage: StageTransfer, Err: fmt.Errorf("%w: %w", ErrBlob, err)}
	}

	now := l.now().UTC()
	stored, err := l.records.InsertBook(domain.Book{
		UserID:    userID,
		Title:     title,
		Author:    strings.TrimSpace(req.Author),
		Series:    strings.TrimSpace(req.Series),
		Language:  domain.DefaultLanguage,
		PageCount: pageCount,
		FilePath:  blobPath,
		FileSize:  req.Size,
		Status:    domain.StatusToRead,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		// The blob already transferred and is not retracted.
		l.logger.Error("metadata write failed after blob transfer, orphaned blob left behind",
			"user_id", userID, "blob_path", blobPath, "err", err)
		return domain.Book{}, &UploadError{Stage: StageMetadata, Err: fmt.Errorf("%w: %w", ErrRemoteWrite, err)}
	}

	l.InvalidateBooks(userID)
	if _, err := l.RefreshBooks(ctx, userID); err != nil {
		l.logger.Warn("books refetch after upload failed", "user_id", userID, "err", err)
	}
	return stored, nil
}

// UpdateBookmark upserts reading progress for (userID, bookID). Out-of-range
// pages are rejected, not clamped. The progress percentage is computed here,
// at write time, and stored; readers must not recompute it. The Book row is
// deliberately left untouched: status and progress are independent.
func (l *Library) UpdateBookmark(ctx context.Context, userID, bookID string, currentPage, totalPages int) (domain.Bookmark, error) {
	if userID == "" {
		return domain.Bookmark{}, ErrUnauthenticated
	}
	if bookID == "" {
		return domain.Bookmark{}, &ValidationError{Field: "bookId", Reason: "must not be empty"}
	}
	if currentPage < 0 {
		return domain.Bookmark{}, fmt.Errorf("%w: current page %d is negative", ErrInvalidProgress, currentPage)
	}
	if totalPages < 0 {
		return domain.Bookmark{}, fmt.Errorf("%w: total pages %d is negative", ErrInvalidProgress, totalPages)
	}
	if totalPages > 0 && currentPage > totalPages {
		return domain.Bookmark{}, fmt.Errorf("%w: current page %d exceeds total pages %d", ErrInvalidProgress, currentPage, totalPages)
	}

	progress := 0.0
	if totalPages > 0 {
		progress = float64(currentPage) / float64(totalPages) * 100
	}
	stored, err := l.records.UpsertBookmark(domain.Bookmark{
		UserID:          userID,
		BookID:          bookID,
		CurrentPage:     currentPage,
		TotalPages:      totalPages,
		ReadingProgress: progress,
		LastReadAt:      l.now().UTC(),
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}

	l.InvalidateBookmarks(userID)
	if _, err := l.RefreshBookmarks(ctx, userID); err != nil {
		l.logger.Warn("bookmarks refetch after update failed", "user_id", userID, "err", err)
	}
	return stored, nil
}

// UpdateBook applies a metadata edit, including explicit status changes.
func (l *Library) UpdateBook(ctx context.Context, userID, bookID string, update store.BookUpdate) (domain.Book, error) {
	if userID == "" {
		return domain.Book{}, ErrUnauthenticated
	}
	if bookID == "" {
		return domain.Book{}, &ValidationError{Field: "bookId", Reason: "must not be empty"}
	}
	if update.Empty() {
		return domain.Book{}, &ValidationError{Field: "update", Reason: "no fields to change"}
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return domain.Book{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if update.Status != nil && !update.Status.Valid() {
		return domain.Book{}, &ValidationError{Field: "status", Reason: "unknown status"}
	}
	if update.Language != nil && !update.Language.Valid() {
		return domain.Book{}, &ValidationError{Field: "language", Reason: "unknown language"}
	}
	if update.SeriesNumber != nil && *update.SeriesNumber < 0 {
		return domain.Book{}, &ValidationError{Field: "seriesNumber", Reason: "must not be negative"}
	}
	if update.PageCount != nil && *update.PageCount < 0 {
		return domain.Book{}, &ValidationError{Field: "pageCount", Reason: "must not be negative"}
	}

	stored, ok, err := l.records.UpdateBook(userID, bookID, update)
	if err != nil {
		return domain.Book{}, fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	if !ok {
		return domain.Book{}, ErrBookNotFound
	}

	l.InvalidateBooks(userID)
	if _, err := l.RefreshBooks(ctx, userID); err != nil {
		l.logger.Warn("books refetch after edit failed", "user_id", userID, "err", err)
	}
	return stored, nil
}

// ReadURL mints a one-hour signed URL for the user's book blob. URLs are
// generated on demand and never persisted.
func (l *Library) ReadURL(ctx context.Context, userID, bookID string) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}
	book, ok, err := l.records.GetBookByOwner(userID, bookID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}
	if !ok {
		return "", ErrBookNotFound
	}
	url, err := l.blobs.PresignGet(ctx, book.FilePath, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBlob, err)
	}
	return url, nil
}

// Preferences returns the user's reader settings, zero-valued when none are
// stored yet.
func (l *Library) Preferences(ctx context.Context, userID string) (domain.Preferences, error) {
	if userID == "" {
		return domain.Preferences{}, ErrUnauthenticated
	}
	prefs, ok, err := l.records.GetPreferences(userID)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}
	if !ok {
		return domain.Preferences{UserID: userID}, nil
	}
	return prefs, nil
}

// SavePreferences upserts the user's reader settings.
func (l *Library) SavePreferences(ctx context.Context, userID string, prefs domain.Preferences) (domain.Preferences, error) {
	if userID == "" {
		return domain.Preferences{}, ErrUnauthenticated
	}
	prefs.UserID = userID
	stored, err := l.records.UpsertPreferences(prefs)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	return stored, nil
}

// buildBlobPath builds `<user_id>/<token>-<filename>`. The random token
// keeps repeated uploads of the same filename from colliding.
func buildBlobPath(userID, filename string) string {
	return userID + "/" + uuid.NewString() + "-" + safeFilename(filename)
}

func safeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.TrimSpace(name)
	if name == "" || name == "." {
		return "document.pdf"
	}
	return name
}
