// internal/models/book.go
package models

import (
	"time"
)

// GenerationStatus is the persistent per-book run guard. A generation run may
// only start while the book is idle; the status survives process restarts.
type GenerationStatus string

const (
	GenerationIdle    GenerationStatus = "IDLE"
	GenerationSummary GenerationStatus = "GENERATING_SUMMARY"
	GenerationAudio   GenerationStatus = "GENERATING_AUDIO"
)

// Book represents one title in the catalog.
type Book struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	Title           string           `json:"title" gorm:"not null"`
	Slug            string           `json:"slug" gorm:"uniqueIndex;not null"`
	Author          string           `json:"author" gorm:"not null"`
	Description     string           `json:"description" gorm:"type:text"`
	CategoryID      uint             `json:"category_id" gorm:"index"`
	Category        *Category        `json:"category,omitempty"`
	PublicationYear *int             `json:"publication_year,omitempty"`
	ISBN            string           `json:"isbn,omitempty"`
	Tags            string           `json:"tags,omitempty"`
	CoverImageURL   string           `json:"cover_image_url,omitempty"`
	OriginalPDFURL  string           `json:"original_pdf_url,omitempty"` // source document, may be empty
	IsFeatured      bool             `json:"is_featured"`
	IsPublished     bool             `json:"is_published"`

	// Completion flags, flipped only after a fully successful run.
	SummaryGenerated bool             `json:"summary_generated"`
	AudioGenerated   bool             `json:"audio_generated"`
	GenerationStatus GenerationStatus `json:"generation_status" gorm:"default:IDLE"`

	Summary  *BookSummary  `json:"summary,omitempty"`
	Chapters []BookChapter `json:"chapters,omitempty"`

	CreatedByID uint      `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Book) TableName() string { return "books" }

// BookSummary holds the AI-generated main summary, one row per book. The
// structured outline lives in the BookChapter rows; OutlineJSON keeps a raw
// copy of what the model returned for export and debugging.
type BookSummary struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	BookID      uint      `json:"book_id" gorm:"uniqueIndex;not null"`
	MainSummary string    `json:"main_summary" gorm:"type:text;not null"`
	OutlineJSON string    `json:"outline_json,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (BookSummary) TableName() string { return "book_summaries" }

// BookChapter is one outline entry with its detailed summary. Narration
// fields stay zero until the audio path fills them in.
type BookChapter struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	BookID          uint      `json:"book_id" gorm:"index;not null"`
	ChapterNumber   int       `json:"chapter_number" gorm:"not null"` // 1-based, contiguous
	Title           string    `json:"title" gorm:"not null"`
	Description     string    `json:"description" gorm:"type:text"` // short outline stub
	Summary         string    `json:"summary" gorm:"type:text"`     // ~150-word detail
	AudioURL        string    `json:"audio_url,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (BookChapter) TableName() string { return "book_chapters" }

// OutlineEntry is one chapter stub produced by the outline step before the
// detailed per-chapter summaries are generated.
type OutlineEntry struct {
	ChapterNumber int    `json:"chapterNumber"`
	Title         string `json:"title"`
	Description   string `json:"description"`
}
