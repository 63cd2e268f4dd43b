// internal/repository/subscription_repo.go
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
)

type SubscriptionOrderRepo interface {
	Create(ctx context.Context, order *models.SubscriptionOrder) error
	GetByID(ctx context.Context, id uint) (*models.SubscriptionOrder, error)
	ListForUser(ctx context.Context, userID uint) ([]models.SubscriptionOrder, error)
	ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.SubscriptionOrder, error)
	// Resolve persists an approval or rejection together with the resulting
	// user subscription change in one transaction.
	Resolve(ctx context.Context, order *models.SubscriptionOrder, user *models.User) error
}

type subscriptionOrderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionOrderRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionOrderRepo {
	return &subscriptionOrderRepo{db: db, log: baseLog.With("repo", "SubscriptionOrderRepo")}
}

func (r *subscriptionOrderRepo) Create(ctx context.Context, order *models.SubscriptionOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *subscriptionOrderRepo) GetByID(ctx context.Context, id uint) (*models.SubscriptionOrder, error) {
	var order models.SubscriptionOrder
	err := r.db.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("subscription order not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *subscriptionOrderRepo) ListForUser(ctx context.Context, userID uint) ([]models.SubscriptionOrder, error) {
	var orders []models.SubscriptionOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *subscriptionOrderRepo) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.SubscriptionOrder, error) {
	var orders []models.SubscriptionOrder
	err := r.db.WithContext(ctx).
		Where("order_status = ?", status).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *subscriptionOrderRepo) Resolve(ctx context.Context, order *models.SubscriptionOrder, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return err
		}
		if user != nil {
			return tx.Save(user).Error
		}
		return nil
	})
}
