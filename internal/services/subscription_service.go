// internal/services/subscription_service.go
package services

import (
	"context"
	"time"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
)

// defaultRejectReason is recorded when an admin rejects an order without
// giving a reason.
const defaultRejectReason = "Payment verification failed"

// SubscriptionService handles the manual-payment subscription workflow:
// users submit orders with a payment reference, admins approve or reject
// them, and approval activates the plan on the account.
type SubscriptionService struct {
	orders repository.SubscriptionOrderRepo
	users  repository.UserRepo
	now    func() time.Time
	log    *logger.Logger
}

func NewSubscriptionService(orders repository.SubscriptionOrderRepo, users repository.UserRepo, baseLog *logger.Logger) *SubscriptionService {
	return &SubscriptionService{
		orders: orders,
		users:  users,
		now:    time.Now,
		log:    baseLog.With("service", "SubscriptionService"),
	}
}

// SubmitOrder records a pending subscription order for the user.
func (s *SubscriptionService) SubmitOrder(ctx context.Context, userID uint, plan models.SubscriptionTier, amount float64, paymentReference, notes string) (*models.SubscriptionOrder, error) {
	if plan != models.TierMonthly && plan != models.TierYearly {
		return nil, apperrors.NewValidationError("plan must be MONTHLY or YEARLY", nil)
	}
	if paymentReference == "" {
		return nil, apperrors.NewValidationError("payment reference is required", nil)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	order := &models.SubscriptionOrder{
		UserID:           userID,
		PlanType:         plan,
		Amount:           amount,
		PaymentReference: paymentReference,
		Notes:            notes,
		OrderStatus:      models.OrderPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("subscription order submitted", "order_id", order.ID, "user_id", userID, "plan", plan)
	return order, nil
}

func (s *SubscriptionService) ListForUser(ctx context.Context, userID uint) ([]models.SubscriptionOrder, error) {
	return s.orders.ListForUser(ctx, userID)
}

func (s *SubscriptionService) ListPending(ctx context.Context) ([]models.SubscriptionOrder, error) {
	return s.orders.ListByStatus(ctx, models.OrderPending)
}

// Approve marks a pending order approved and activates the plan on the
// user's account: a monthly plan runs one calendar month from approval, a
// yearly plan one year. Orders that were already resolved cannot change.
func (s *SubscriptionService) Approve(ctx context.Context, orderID, adminID uint) (*models.SubscriptionOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != models.OrderPending {
		return nil, apperrors.NewConflictError("order has already been processed", nil)
	}

	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	end := now.AddDate(0, 1, 0)
	if order.PlanType == models.TierYearly {
		end = now.AddDate(1, 0, 0)
	}

	order.OrderStatus = models.OrderApproved
	order.ApprovedByID = &adminID
	order.ApprovedAt = &now

	user.SubscriptionTier = order.PlanType
	user.SubscriptionStatus = models.SubscriptionActive
	user.SubscriptionStartDate = &now
	user.SubscriptionEndDate = &end

	if err := s.orders.Resolve(ctx, order, user); err != nil {
		return nil, err
	}
	s.log.Info("subscription order approved", "order_id", order.ID, "user_id", user.ID, "ends", end)
	return order, nil
}

// Reject marks a pending order rejected. The user's subscription is left
// untouched.
func (s *SubscriptionService) Reject(ctx context.Context, orderID, adminID uint, reason string) (*models.SubscriptionOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != models.OrderPending {
		return nil, apperrors.NewConflictError("order has already been processed", nil)
	}
	if reason == "" {
		reason = defaultRejectReason
	}

	now := s.now()
	order.OrderStatus = models.OrderRejected
	order.ApprovedByID = &adminID
	order.ApprovedAt = &now
	order.RejectedReason = reason

	if err := s.orders.Resolve(ctx, order, nil); err != nil {
		return nil, err
	}
	return order, nil
}

// ExpireLapsed downgrades accounts whose paid period has ended. Intended to
// run periodically.
func (s *SubscriptionService) ExpireLapsed(ctx context.Context) (int, error) {
	page := 1
	expired := 0
	now := s.now()
	for {
		users, _, err := s.users.List(ctx, page, 100)
		if err != nil {
			return expired, err
		}
		if len(users) == 0 {
			return expired, nil
		}
		for i := range users {
			u := &users[i]
			if u.SubscriptionStatus != models.SubscriptionActive {
				continue
			}
			if u.SubscriptionEndDate != nil && u.SubscriptionEndDate.Before(now) {
				u.SubscriptionStatus = models.SubscriptionExpired
				if err := s.users.Update(ctx, u); err != nil {
					return expired, err
				}
				expired++
			}
		}
		page++
	}
}
