// internal/services/review_service_test.go
package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise-app/bookwise-server/internal/db"
	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
)

func newReviewEnv(t *testing.T) (*ReviewService, *models.Book) {
	t.Helper()
	log := logger.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := db.New(dsn, log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())

	bookRepo := repository.NewBookRepo(database.DB(), log)
	svc := NewReviewService(repository.NewReviewRepo(database.DB(), log), bookRepo, log)

	book := &models.Book{Title: "Reviewed", Slug: "reviewed", Author: "A"}
	require.NoError(t, bookRepo.Create(context.Background(), book))
	return svc, book
}

func TestSubmitReviewGoesThroughModeration(t *testing.T) {
	svc, book := newReviewEnv(t)
	ctx := context.Background()

	review, err := svc.Submit(ctx, 1, book.ID, 5, "excellent")
	require.NoError(t, err)
	assert.False(t, review.IsApproved)

	// Invisible until approved.
	visible, err := svc.ListForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, svc.Approve(ctx, pending[0].ID))
	visible, err = svc.ListForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	avg, count, err := svc.Rating(ctx, book.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.InDelta(t, 5.0, avg, 0.001)
}

func TestResubmitReplacesReviewAndResetsApproval(t *testing.T) {
	svc, book := newReviewEnv(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, 1, book.ID, 5, "great")
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, first.ID))

	_, err = svc.Submit(ctx, 1, book.ID, 2, "changed my mind")
	require.NoError(t, err)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "resubmission must go back to moderation")
	assert.Equal(t, 2, pending[0].Rating)
	assert.Equal(t, "changed my mind", pending[0].Comment)

	visible, err := svc.ListForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestSubmitReviewValidation(t *testing.T) {
	svc, book := newReviewEnv(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, book.ID, 0, "")
	assert.True(t, apperrors.IsValidationError(err))
	_, err = svc.Submit(ctx, 1, book.ID, 6, "")
	assert.True(t, apperrors.IsValidationError(err))
	_, err = svc.Submit(ctx, 1, 9999, 3, "")
	assert.True(t, apperrors.IsNotFoundError(err))
}
