// internal/services/category_service.go
package services

import (
	"context"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/utils"
)

type CategoryService struct {
	categories repository.CategoryRepo
	log        *logger.Logger
}

func NewCategoryService(categories repository.CategoryRepo, baseLog *logger.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		log:        baseLog.With("service", "CategoryService"),
	}
}

type CategoryInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"display_order"`
}

func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if input.Name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	slug := utils.Slugify(input.Name)
	if existing, _ := s.categories.GetBySlug(ctx, slug); existing != nil {
		return nil, apperrors.NewConflictError("a category with this name already exists", nil)
	}

	category := &models.Category{
		Name:         input.Name,
		Slug:         slug,
		Description:  input.Description,
		Icon:         input.Icon,
		DisplayOrder: input.DisplayOrder,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, input CategoryInput) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if input.Name != category.Name {
		category.Slug = utils.Slugify(input.Name)
	}
	category.Name = input.Name
	category.Description = input.Description
	category.Icon = input.Icon
	category.DisplayOrder = input.DisplayOrder

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	return s.categories.Delete(ctx, id)
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.categories.GetBySlug(ctx, slug)
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}
