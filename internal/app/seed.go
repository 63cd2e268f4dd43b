// internal/app/seed.go
package app

import (
	"context"
	"os"

	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/utils"
)

var defaultCategories = []models.Category{
	{Name: "Business", Icon: "briefcase", DisplayOrder: 1},
	{Name: "Self Improvement", Icon: "trending-up", DisplayOrder: 2},
	{Name: "Psychology", Icon: "brain", DisplayOrder: 3},
	{Name: "Science", Icon: "flask", DisplayOrder: 4},
	{Name: "History", Icon: "landmark", DisplayOrder: 5},
	{Name: "Biography", Icon: "user", DisplayOrder: 6},
	{Name: "Technology", Icon: "cpu", DisplayOrder: 7},
	{Name: "Health", Icon: "heart", DisplayOrder: 8},
}

// Bootstrap seeds the default categories on first run and, when
// ADMIN_EMAIL and ADMIN_PASSWORD are set, ensures an administrator account
// exists.
func Bootstrap(ctx context.Context, categories repository.CategoryRepo, users repository.UserRepo, log *logger.Logger) error {
	existing, err := categories.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, c := range defaultCategories {
			c.Slug = utils.Slugify(c.Name)
			if err := categories.Create(ctx, &c); err != nil {
				return err
			}
		}
		log.Info("seeded default categories", "count", len(defaultCategories))
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Info("created administrator account", "email", email)
	return nil
}
