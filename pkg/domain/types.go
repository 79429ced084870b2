package domain

import "time"

type BookStatus string

const (
	StatusToRead    BookStatus = "to_read"
	StatusReading   BookStatus = "reading"
	StatusCompleted BookStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusCompleted:
		return true
	}
	return false
}

type Language string

const (
	LanguageFrench  Language = "fr"
	LanguageEnglish Language = "en"
	LanguageSpanish Language = "es"
	LanguageGerman  Language = "de"
	LanguageItalian Language = "it"
	LanguageOther   Language = "other"
)

// DefaultLanguage is applied when an upload does not specify one.
const DefaultLanguage = LanguageFrench

// Valid reports whether l is one of the known language tags.
func (l Language) Valid() bool {
	switch l {
	case LanguageFrench, LanguageEnglish, LanguageSpanish, LanguageGerman, LanguageItalian, LanguageOther:
		return true
	}
	return false
}

// Book is one uploaded document owned by a user. Status is an explicit,
// user-managed field; it is never derived from bookmark progress.
type Book struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Title        string     `json:"title"`
	Author       string     `json:"author,omitempty"`
	Series       string     `json:"series,omitempty"`
	SeriesNumber int        `json:"seriesNumber,omitempty"`
	Language     Language   `json:"language"`
	PageCount    int        `json:"pageCount,omitempty"`
	FilePath     string     `json:"-"`
	FileSize     int64      `json:"fileSize,omitempty"`
	CoverURL     string     `json:"coverUrl,omitempty"`
	Status       BookStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Bookmark tracks reading progress for one (user, book) pair. At most one
// row exists per pair. ReadingProgress is computed at write time and is
// never recomputed from CurrentPage/TotalPages on read.
type Bookmark struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	BookID          string    `json:"bookId"`
	CurrentPage     int       `json:"currentPage"`
	TotalPages      int       `json:"totalPages,omitempty"`
	ReadingProgress float64   `json:"readingProgress"`
	LastReadAt      time.Time `json:"lastReadAt"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Preferences holds per-user reader settings.
type Preferences struct {
	UserID             string    `json:"userId"`
	Theme              string    `json:"theme"`
	DefaultZoom        int       `json:"defaultZoom"`
	AutoTranslate      bool      `json:"autoTranslate"`
	TranslationService string    `json:"translationService,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
