package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"shelfsync/internal/util"
	"shelfsync/pkg/domain"
)

const migrateLockID int64 = 52480771

// GormStore implements RecordStore using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &BookModel{}, &BookmarkModel{}, &PreferencesModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// CreateUser registers a new user.
func (s *GormStore) CreateUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Create(&model).Error
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// InsertBook stores a new book row. The (user_id, file_path) unique index
// rejects a second row for the same blob path.
func (s *GormStore) InsertBook(b domain.Book) (domain.Book, error) {
	model := bookToModel(b)
	if model.ID == "" {
		model.ID = util.NewID()
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Book{}, err
	}
	return bookFromModel(model), nil
}

// UpdateBook applies a partial metadata edit scoped by owner and bumps
// updated_at. Returns false when the book does not exist for that owner.
func (s *GormStore) UpdateBook(userID, bookID string, update BookUpdate) (domain.Book, bool, error) {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Author != nil {
		updates["author"] = *update.Author
	}
	if update.Series != nil {
		updates["series"] = *update.Series
	}
	if update.SeriesNumber != nil {
		updates["series_number"] = *update.SeriesNumber
	}
	if update.Language != nil {
		updates["language"] = string(*update.Language)
	}
	if update.Status != nil {
		updates["status"] = string(*update.Status)
	}
	if update.PageCount != nil {
		updates["page_count"] = *update.PageCount
	}
	if update.CoverURL != nil {
		updates["cover_url"] = *update.CoverURL
	}
	res := s.db.Model(&BookModel{}).
		Where("user_id = ? AND id = ?", userID, bookID).
		Updates(updates)
	if res.Error != nil {
		return domain.Book{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Book{}, false, nil
	}
	return s.GetBookByOwner(userID, bookID)
}

// ListBooksByOwner returns the owner's books, most recently updated first.
func (s *GormStore) ListBooksByOwner(userID string) ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, bookFromModel(m))
	}
	return res, nil
}

// GetBookByOwner retrieves one book scoped by owner.
func (s *GormStore) GetBookByOwner(userID, bookID string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.Where("user_id = ? AND id = ?", userID, bookID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// UpsertBookmark writes progress keyed on (user_id, book_id). The conflict
// clause updates the existing row in place so a pair can never hold two rows.
func (s *GormStore) UpsertBookmark(bm domain.Bookmark) (domain.Bookmark, error) {
	model := bookmarkToModel(bm)
	if model.ID == "" {
		model.ID = util.NewID()
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_page", "total_pages", "reading_progress", "last_read_at"}),
	}).Create(&model).Error; err != nil {
		return domain.Bookmark{}, err
	}
	// Re-read so the caller sees the stored row, not the candidate insert
	// (conflict keeps the original id).
	var stored BookmarkModel
	if err := s.db.Where("user_id = ? AND book_id = ?", bm.UserID, bm.BookID).First(&stored).Error; err != nil {
		return domain.Bookmark{}, err
	}
	return bookmarkFromModel(stored), nil
}

// ListBookmarksByOwner returns the owner's bookmarks.
func (s *GormStore) ListBookmarksByOwner(userID string) ([]domain.Bookmark, error) {
	var models []BookmarkModel
	if err := s.db.Where("user_id = ?", userID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Bookmark, 0, len(models))
	for _, m := range models {
		res = append(res, bookmarkFromModel(m))
	}
	return res, nil
}

// GetPreferences returns the user's reader settings.
func (s *GormStore) GetPreferences(userID string) (domain.Preferences, bool, error) {
	var model PreferencesModel
	if err := s.db.Where("user_id = ?", userID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Preferences{}, false, nil
		}
		return domain.Preferences{}, false, err
	}
	return preferencesFromModel(model), true, nil
}

// UpsertPreferences writes settings keyed on user_id.
func (s *GormStore) UpsertPreferences(p domain.Preferences) (domain.Preferences, error) {
	model := preferencesToModel(p)
	model.ID = util.NewID()
	now := time.Now().UTC()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"theme", "default_zoom", "auto_translate", "translation_service", "updated_at"}),
	}).Create(&model).Error; err != nil {
		return domain.Preferences{}, err
	}
	var stored PreferencesModel
	if err := s.db.Where("user_id = ?", p.UserID).First(&stored).Error; err != nil {
		return domain.Preferences{}, err
	}
	return preferencesFromModel(stored), nil
}
