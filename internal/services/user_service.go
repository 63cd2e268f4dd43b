// internal/services/user_service.go
package services

import (
	"context"
	"strings"

	"github.com/bookwise-app/bookwise-server/internal/auth"
	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/utils"
)

// UserService handles registration, login and account administration.
type UserService struct {
	users  repository.UserRepo
	tokens *auth.TokenManager
	log    *logger.Logger
}

func NewUserService(users repository.UserRepo, tokens *auth.TokenManager, baseLog *logger.Logger) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		log:    baseLog.With("service", "UserService"),
	}
}

// Register creates an account and returns the user with a signed token.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, "", apperrors.NewValidationError("name and email are required", nil)
	}
	if len(password) < 8 {
		return nil, "", apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if existing, _ := s.users.GetByEmail(ctx, email); existing != nil {
		return nil, "", apperrors.NewConflictError("an account with this email already exists", nil)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", apperrors.NewProcessingError("failed to hash password", err)
	}

	user := &models.User{
		Name:               name,
		Email:              email,
		PasswordHash:       hash,
		Role:               models.RoleUser,
		SubscriptionTier:   models.TierFree,
		SubscriptionStatus: models.SubscriptionInactive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", apperrors.NewProcessingError("failed to issue token", err)
	}
	s.log.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil || !utils.CheckPassword(user.PasswordHash, password) {
		// Same answer for unknown email and wrong password.
		return nil, "", apperrors.NewUnauthorizedError("invalid email or password", nil)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", apperrors.NewProcessingError("failed to issue token", err)
	}
	return user, token, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	return s.users.List(ctx, page, pageSize)
}

// SetRole changes a user's role. Used by the admin console.
func (s *UserService) SetRole(ctx context.Context, id uint, role models.UserRole) (*models.User, error) {
	return s.UpdateAccount(ctx, id, AccountUpdate{Role: &role})
}

// AccountUpdate carries the fields an administrator may change on an
// account. Nil fields are left untouched.
type AccountUpdate struct {
	Role               *models.UserRole
	SubscriptionTier   *models.SubscriptionTier
	SubscriptionStatus *models.SubscriptionState
}

// UpdateAccount applies an admin edit to a user's role and plan.
func (s *UserService) UpdateAccount(ctx context.Context, id uint, update AccountUpdate) (*models.User, error) {
	if update.Role != nil && *update.Role != models.RoleAdmin && *update.Role != models.RoleUser {
		return nil, apperrors.NewValidationError("unknown role", nil)
	}
	if update.SubscriptionTier != nil {
		switch *update.SubscriptionTier {
		case models.TierFree, models.TierMonthly, models.TierYearly:
		default:
			return nil, apperrors.NewValidationError("unknown subscription tier", nil)
		}
	}
	if update.SubscriptionStatus != nil {
		switch *update.SubscriptionStatus {
		case models.SubscriptionInactive, models.SubscriptionActive, models.SubscriptionExpired:
		default:
			return nil, apperrors.NewValidationError("unknown subscription status", nil)
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.SubscriptionTier != nil {
		user.SubscriptionTier = *update.SubscriptionTier
	}
	if update.SubscriptionStatus != nil {
		user.SubscriptionStatus = *update.SubscriptionStatus
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("account updated", "user_id", user.ID, "role", user.Role, "tier", user.SubscriptionTier)
	return user, nil
}

// Delete removes an account along with its reviews, favorites and orders.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("account deleted", "user_id", id)
	return nil
}
