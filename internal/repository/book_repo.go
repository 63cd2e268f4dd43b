// internal/repository/book_repo.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
)

// ErrRunInProgress is returned by BeginGeneration when another generation run
// currently holds the book.
var ErrRunInProgress = errors.New("a generation run is already in progress for this book")

// BookRepo is the content-store surface for books, summaries and chapters.
type BookRepo interface {
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	GetBySlug(ctx context.Context, slug string) (*models.Book, error)
	GetWithContent(ctx context.Context, id uint) (*models.Book, error)
	List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error)

	// Generation-run support.
	BeginGeneration(ctx context.Context, bookID uint, status models.GenerationStatus) error
	EndGeneration(ctx context.Context, bookID uint) error
	ReplaceSummary(ctx context.Context, bookID uint, mainSummary string, outline []models.OutlineEntry, chapters []models.BookChapter) error
	GetChapters(ctx context.Context, bookID uint) ([]models.BookChapter, error)
	UpdateChapterNarration(ctx context.Context, chapterID uint, audioURL string, durationSeconds int) error
	SetAudioGenerated(ctx context.Context, bookID uint) error
}

// BookFilter narrows and pages List results.
type BookFilter struct {
	CategoryID    uint
	Search        string
	PublishedOnly bool
	FeaturedOnly  bool
	Page          int
	PageSize      int
}

type bookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookRepo(db *gorm.DB, baseLog *logger.Logger) BookRepo {
	return &bookRepo{db: db, log: baseLog.With("repo", "BookRepo")}
}

func (r *bookRepo) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepo) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *bookRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&models.BookChapter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&models.BookSummary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Book{}, id).Error
	})
}

func (r *bookRepo) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Preload("Category").First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("book not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) GetBySlug(ctx context.Context, slug string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Preload("Category").Where("slug = ?", slug).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("book not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetWithContent loads a book together with its summary and ordered chapters.
func (r *bookRepo) GetWithContent(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Summary").
		Preload("Chapters", func(db *gorm.DB) *gorm.DB {
			return db.Order("chapter_number ASC")
		}).
		First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("book not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Book{})

	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if filter.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var books []models.Book
	err := query.
		Preload("Category").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&books).Error
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// BeginGeneration claims the per-book run guard with a compare-and-set on the
// generation_status column. The guard is persistent, so it survives process
// restarts and serializes runs across replicas.
func (r *bookRepo) BeginGeneration(ctx context.Context, bookID uint, status models.GenerationStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND generation_status = ?", bookID, models.GenerationIdle).
		Update("generation_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.NewNotFoundError("book not found", nil)
		}
		return apperrors.NewConflictError("a generation run is already in progress for this book", ErrRunInProgress)
	}
	return nil
}

// EndGeneration releases the run guard regardless of run outcome.
func (r *bookRepo) EndGeneration(ctx context.Context, bookID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("generation_status", models.GenerationIdle).Error
}

// ReplaceSummary atomically swaps a book's generated content: prior summary
// and chapter rows are removed in the same transaction that writes the new
// ones and flips summary_generated. A rerun therefore replaces, never
// appends, and a failed transaction leaves no partial rows behind.
func (r *bookRepo) ReplaceSummary(ctx context.Context, bookID uint, mainSummary string, outline []models.OutlineEntry, chapters []models.BookChapter) error {
	if len(chapters) == 0 {
		return fmt.Errorf("refusing to persist a summary with no chapters")
	}

	outlineJSON, err := json.Marshal(outline)
	if err != nil {
		return fmt.Errorf("failed to encode outline: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", bookID).Delete(&models.BookSummary{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", bookID).Delete(&models.BookChapter{}).Error; err != nil {
			return err
		}

		summary := models.BookSummary{
			BookID:      bookID,
			MainSummary: mainSummary,
			OutlineJSON: string(outlineJSON),
		}
		if err := tx.Create(&summary).Error; err != nil {
			return err
		}

		for i := range chapters {
			chapters[i].BookID = bookID
		}
		if err := tx.Create(&chapters).Error; err != nil {
			return err
		}

		// Replacing the summary invalidates any previously generated audio.
		return tx.Model(&models.Book{}).
			Where("id = ?", bookID).
			Updates(map[string]interface{}{
				"summary_generated": true,
				"audio_generated":   false,
			}).Error
	})
}

func (r *bookRepo) GetChapters(ctx context.Context, bookID uint) ([]models.BookChapter, error) {
	var chapters []models.BookChapter
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("chapter_number ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, err
	}
	return chapters, nil
}

func (r *bookRepo) UpdateChapterNarration(ctx context.Context, chapterID uint, audioURL string, durationSeconds int) error {
	return r.db.WithContext(ctx).
		Model(&models.BookChapter{}).
		Where("id = ?", chapterID).
		Updates(map[string]interface{}{
			"audio_url":        audioURL,
			"duration_seconds": durationSeconds,
		}).Error
}

func (r *bookRepo) SetAudioGenerated(ctx context.Context, bookID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("audio_generated", true).Error
}
