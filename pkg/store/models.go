package store

import (
	"time"

	"shelfsync/pkg/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type BookModel struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"not null;index;uniqueIndex:idx_books_user_path,priority:1"`
	Title        string `gorm:"not null"`
	Author       string
	Series       string
	SeriesNumber int
	Language     string `gorm:"not null"`
	PageCount    int
	FilePath     string `gorm:"not null;uniqueIndex:idx_books_user_path,priority:2"`
	FileSize     int64
	CoverURL     string
	Status       string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null;index"`
}

// BookmarkModel enforces the one-row-per-(user, book) invariant at the
// database level; application code must always write through the upsert.
type BookmarkModel struct {
	ID              string `gorm:"primaryKey"`
	UserID          string `gorm:"not null;index;uniqueIndex:idx_bookmarks_user_book,priority:1"`
	BookID          string `gorm:"not null;uniqueIndex:idx_bookmarks_user_book,priority:2"`
	CurrentPage     int    `gorm:"not null"`
	TotalPages      int
	ReadingProgress float64   `gorm:"not null"`
	LastReadAt      time.Time `gorm:"not null"`
}

type PreferencesModel struct {
	ID                 string `gorm:"primaryKey"`
	UserID             string `gorm:"uniqueIndex;not null"`
	Theme              string
	DefaultZoom        int
	AutoTranslate      bool
	TranslationService string
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:           b.ID,
		UserID:       b.UserID,
		Title:        b.Title,
		Author:       b.Author,
		Series:       b.Series,
		SeriesNumber: b.SeriesNumber,
		Language:     string(b.Language),
		PageCount:    b.PageCount,
		FilePath:     b.FilePath,
		FileSize:     b.FileSize,
		CoverURL:     b.CoverURL,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:           m.ID,
		UserID:       m.UserID,
		Title:        m.Title,
		Author:       m.Author,
		Series:       m.Series,
		SeriesNumber: m.SeriesNumber,
		Language:     domain.Language(m.Language),
		PageCount:    m.PageCount,
		FilePath:     m.FilePath,
		FileSize:     m.FileSize,
		CoverURL:     m.CoverURL,
		Status:       domain.BookStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func bookmarkToModel(b domain.Bookmark) BookmarkModel {
	return BookmarkModel{
		ID:              b.ID,
		UserID:          b.UserID,
		BookID:          b.BookID,
		CurrentPage:     b.CurrentPage,
		TotalPages:      b.TotalPages,
		ReadingProgress: b.ReadingProgress,
		LastReadAt:      b.LastReadAt,
	}
}

func bookmarkFromModel(m BookmarkModel) domain.Bookmark {
	return domain.Bookmark{
		ID:              m.ID,
		UserID:          m.UserID,
		BookID:          m.BookID,
		CurrentPage:     m.CurrentPage,
		TotalPages:      m.TotalPages,
		ReadingProgress: m.ReadingProgress,
		LastReadAt:      m.LastReadAt,
	}
}

func preferencesToModel(p domain.Preferences) PreferencesModel {
	return PreferencesModel{
		UserID:             p.UserID,
		Theme:              p.Theme,
		DefaultZoom:        p.DefaultZoom,
		AutoTranslate:      p.AutoTranslate,
		TranslationService: p.TranslationService,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func preferencesFromModel(m PreferencesModel) domain.Preferences {
	return domain.Preferences{
		UserID:             m.UserID,
		Theme:              m.Theme,
		DefaultZoom:        m.DefaultZoom,
		AutoTranslate:      m.AutoTranslate,
		TranslationService: m.TranslationService,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
