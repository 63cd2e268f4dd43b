// internal/services/favorite_service.go
package services

import (
	"context"

	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
)

type FavoriteService struct {
	favorites repository.FavoriteRepo
	books     repository.BookRepo
	log       *logger.Logger
}

func NewFavoriteService(favorites repository.FavoriteRepo, books repository.BookRepo, baseLog *logger.Logger) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		books:     books,
		log:       baseLog.With("service", "FavoriteService"),
	}
}

func (s *FavoriteService) Add(ctx context.Context, userID, bookID uint) error {
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, userID, bookID)
}

func (s *FavoriteService) Remove(ctx context.Context, userID, bookID uint) error {
	return s.favorites.Remove(ctx, userID, bookID)
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID, bookID uint) (bool, error) {
	return s.favorites.Exists(ctx, userID, bookID)
}

func (s *FavoriteService) List(ctx context.Context, userID uint) ([]models.Book, error) {
	return s.favorites.ListForUser(ctx, userID)
}
