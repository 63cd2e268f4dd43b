// internal/services/review_service.go
package services

import (
	"context"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
)

// ReviewService handles reader reviews and ratings. Reviews go through admin
// approval before appearing publicly.
type ReviewService struct {
	reviews repository.ReviewRepo
	books   repository.BookRepo
	log     *logger.Logger
}

func NewReviewService(reviews repository.ReviewRepo, books repository.BookRepo, baseLog *logger.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		books:   books,
		log:     baseLog.With("service", "ReviewService"),
	}
}

// Submit records a user's review of a book. Resubmitting replaces the
// earlier review and sends it back through moderation.
func (s *ReviewService) Submit(ctx context.Context, userID, bookID uint, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:     userID,
		BookID:     bookID,
		Rating:     rating,
		Comment:    comment,
		IsApproved: false,
	}
	if err := s.reviews.Upsert(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ListForBook returns a book's approved reviews.
func (s *ReviewService) ListForBook(ctx context.Context, bookID uint) ([]models.Review, error) {
	return s.reviews.ListForBook(ctx, bookID, true)
}

// ListPending returns reviews waiting for moderation.
func (s *ReviewService) ListPending(ctx context.Context) ([]models.Review, error) {
	return s.reviews.ListPending(ctx)
}

func (s *ReviewService) Approve(ctx context.Context, id uint) error {
	return s.reviews.SetApproved(ctx, id, true)
}

func (s *ReviewService) Reject(ctx context.Context, id uint) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.reviews.Delete(ctx, review.ID)
}

// Rating returns a book's approved average rating and review count.
func (s *ReviewService) Rating(ctx context.Context, bookID uint) (float64, int64, error) {
	return s.reviews.AverageRating(ctx, bookID)
}
