// internal/services/book_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/utils"
)

// BookService manages the catalog.
type BookService struct {
	books      repository.BookRepo
	categories repository.CategoryRepo
	log        *logger.Logger
}

func NewBookService(books repository.BookRepo, categories repository.CategoryRepo, baseLog *logger.Logger) *BookService {
	return &BookService{
		books:      books,
		categories: categories,
		log:        baseLog.With("service", "BookService"),
	}
}

// BookInput carries the editable catalog fields of a book.
type BookInput struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	Description     string `json:"description"`
	CategoryID      uint   `json:"category_id"`
	PublicationYear *int   `json:"publication_year"`
	ISBN            string `json:"isbn"`
	Tags            string `json:"tags"`
	CoverImageURL   string `json:"cover_image_url"`
	OriginalPDFURL  string `json:"original_pdf_url"`
	IsFeatured      bool   `json:"is_featured"`
	IsPublished     bool   `json:"is_published"`
}

func (s *BookService) Create(ctx context.Context, input BookInput, createdBy uint) (*models.Book, error) {
	if input.Title == "" || input.Author == "" {
		return nil, apperrors.NewValidationError("title and author are required", nil)
	}
	if input.CategoryID != 0 {
		if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
			return nil, err
		}
	}

	book := &models.Book{
		Title:           input.Title,
		Slug:            utils.Slugify(input.Title),
		Author:          input.Author,
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		PublicationYear: input.PublicationYear,
		ISBN:            input.ISBN,
		Tags:            input.Tags,
		CoverImageURL:   input.CoverImageURL,
		OriginalPDFURL:  input.OriginalPDFURL,
		IsFeatured:      input.IsFeatured,
		IsPublished:     input.IsPublished,
		CreatedByID:     createdBy,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	s.log.Info("book created", "book_id", book.ID, "slug", book.Slug)
	return book, nil
}

func (s *BookService) Update(ctx context.Context, id uint, input BookInput) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title == "" || input.Author == "" {
		return nil, apperrors.NewValidationError("title and author are required", nil)
	}
	if input.CategoryID != 0 && input.CategoryID != book.CategoryID {
		if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
			return nil, err
		}
	}

	if input.Title != book.Title {
		book.Slug = utils.Slugify(input.Title)
	}
	book.Title = input.Title
	book.Author = input.Author
	book.Description = input.Description
	book.CategoryID = input.CategoryID
	book.PublicationYear = input.PublicationYear
	book.ISBN = input.ISBN
	book.Tags = input.Tags
	book.CoverImageURL = input.CoverImageURL
	book.OriginalPDFURL = input.OriginalPDFURL
	book.IsFeatured = input.IsFeatured
	book.IsPublished = input.IsPublished

	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *BookService) Delete(ctx context.Context, id uint) error {
	if _, err := s.books.GetByID(ctx, id); err != nil {
		return err
	}
	return s.books.Delete(ctx, id)
}

func (s *BookService) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	return s.books.GetByID(ctx, id)
}

func (s *BookService) GetBySlug(ctx context.Context, slug string) (*models.Book, error) {
	return s.books.GetBySlug(ctx, slug)
}

// BookDetail is a book together with its generated content, the outline
// decoded for clients.
type BookDetail struct {
	models.Book
	Outline []models.OutlineEntry `json:"outline,omitempty"`
}

// GetDetail loads a book with its summary and ordered chapters.
func (s *BookService) GetDetail(ctx context.Context, id uint) (*BookDetail, error) {
	book, err := s.books.GetWithContent(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &BookDetail{Book: *book}
	if book.Summary != nil && book.Summary.OutlineJSON != "" {
		if err := json.Unmarshal([]byte(book.Summary.OutlineJSON), &detail.Outline); err != nil {
			s.log.Warn("stored outline is not valid JSON", "book_id", id, "error", err)
		}
	}
	return detail, nil
}

func (s *BookService) List(ctx context.Context, filter repository.BookFilter) ([]models.Book, int64, error) {
	return s.books.List(ctx, filter)
}

// SetPublished flips a book's catalog visibility.
func (s *BookService) SetPublished(ctx context.Context, id uint, published bool) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if published && !book.SummaryGenerated {
		return nil, apperrors.NewPreconditionError(
			fmt.Sprintf("book %d has no generated summary yet", id), nil)
	}
	book.IsPublished = published
	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}
