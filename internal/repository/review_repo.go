// internal/repository/review_repo.go
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
)

type ReviewRepo interface {
	// Upsert creates the review or, when the user already reviewed the book,
	// overwrites rating and comment and resets approval.
	Upsert(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	ListForBook(ctx context.Context, bookID uint, approvedOnly bool) ([]models.Review, error)
	ListPending(ctx context.Context) ([]models.Review, error)
	SetApproved(ctx context.Context, id uint, approved bool) error
	AverageRating(ctx context.Context, bookID uint) (float64, int64, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (r *reviewRepo) Upsert(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "is_approved", "updated_at"}),
	}).Create(review).Error
}

func (r *reviewRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, id).Error
}

func (r *reviewRepo) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("review not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) ListForBook(ctx context.Context, bookID uint, approvedOnly bool) ([]models.Review, error) {
	query := r.db.WithContext(ctx).Where("book_id = ?", bookID)
	if approvedOnly {
		query = query.Where("is_approved = ?", true)
	}
	var reviews []models.Review
	if err := query.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepo) ListPending(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("is_approved = ?", false).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepo) SetApproved(ctx context.Context, id uint, approved bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Update("is_approved", approved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("review not found", nil)
	}
	return nil
}

func (r *reviewRepo) AverageRating(ctx context.Context, bookID uint) (float64, int64, error) {
	type aggregate struct {
		Avg   float64
		Count int64
	}
	var agg aggregate
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("book_id = ? AND is_approved = ?", bookID, true).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, err
	}
	return agg.Avg, agg.Count, nil
}
