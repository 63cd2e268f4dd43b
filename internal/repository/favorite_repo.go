// internal/repository/favorite_repo.go
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
)

type FavoriteRepo interface {
	Add(ctx context.Context, userID, bookID uint) error
	Remove(ctx context.Context, userID, bookID uint) error
	Exists(ctx context.Context, userID, bookID uint) (bool, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Book, error)
}

type favoriteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
	return &favoriteRepo{db: db, log: baseLog.With("repo", "FavoriteRepo")}
}

func (r *favoriteRepo) Add(ctx context.Context, userID, bookID uint) error {
	fav := models.Favorite{UserID: userID, BookID: bookID}
	// Favoriting twice is a no-op.
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
}

func (r *favoriteRepo) Remove(ctx context.Context, userID, bookID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.Favorite{}).Error
}

func (r *favoriteRepo) Exists(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *favoriteRepo) ListForUser(ctx context.Context, userID uint) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.book_id = books.id").
		Where("favorites.user_id = ?", userID).
		Preload("Category").
		Order("favorites.created_at DESC").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}
