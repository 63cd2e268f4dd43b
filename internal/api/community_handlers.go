// internal/api/community_handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubmitReview records or replaces the caller's review of a book.
// POST /api/books/:id/reviews
func (h *Handlers) SubmitReview(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "rating is required")
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), currentUserID(c), bookID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, review)
}

// ListReviews returns a book's approved reviews with the aggregate rating.
// GET /api/books/:id/reviews
func (h *Handlers) ListReviews(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.reviews.ListForBook(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	avg, count, err := h.reviews.Rating(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"reviews":        reviews,
		"average_rating": avg,
		"review_count":   count,
	})
}

// ListPendingReviews returns reviews awaiting moderation.
// GET /api/admin/reviews/pending
func (h *Handlers) ListPendingReviews(c *gin.Context) {
	reviews, err := h.reviews.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, reviews)
}

// ApproveReview publishes a pending review.
// POST /api/admin/reviews/:id/approve
func (h *Handlers) ApproveReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Approve(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RejectReview removes a pending review.
// POST /api/admin/reviews/:id/reject
func (h *Handlers) RejectReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Reject(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddFavorite saves a book to the caller's list.
// POST /api/books/:id/favorite
func (h *Handlers) AddFavorite(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.favorites.Add(c.Request.Context(), currentUserID(c), bookID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveFavorite drops a book from the caller's list.
// DELETE /api/books/:id/favorite
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), currentUserID(c), bookID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFavorites returns the caller's saved books.
// GET /api/me/favorites
func (h *Handlers) ListFavorites(c *gin.Context) {
	books, err := h.favorites.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, books)
}
