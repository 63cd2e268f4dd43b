// internal/api/subscription_handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/services"
)

// SubmitSubscriptionOrder files a manual-payment upgrade request.
// POST /api/subscription-orders
func (h *Handlers) SubmitSubscriptionOrder(c *gin.Context) {
	var req struct {
		PlanType         models.SubscriptionTier `json:"plan_type" binding:"required"`
		Amount           float64                 `json:"amount"`
		PaymentReference string                  `json:"payment_reference" binding:"required"`
		Notes            string                  `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "plan_type and payment_reference are required")
		return
	}

	order, err := h.subscriptions.SubmitOrder(c.Request.Context(), currentUserID(c), req.PlanType, req.Amount, req.PaymentReference, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, order)
}

// ListMySubscriptionOrders returns the caller's order history.
// GET /api/me/subscription-orders
func (h *Handlers) ListMySubscriptionOrders(c *gin.Context) {
	orders, err := h.subscriptions.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, orders)
}

// ListPendingSubscriptionOrders returns orders awaiting resolution.
// GET /api/admin/subscription-orders/pending
func (h *Handlers) ListPendingSubscriptionOrders(c *gin.Context) {
	orders, err := h.subscriptions.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, orders)
}

// ApproveSubscriptionOrder approves a pending order and activates the plan.
// POST /api/admin/subscription-orders/:id/approve
func (h *Handlers) ApproveSubscriptionOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.subscriptions.Approve(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, order)
}

// RejectSubscriptionOrder rejects a pending order.
// POST /api/admin/subscription-orders/:id/reject
func (h *Handlers) RejectSubscriptionOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := h.subscriptions.Reject(c.Request.Context(), id, currentUserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, order)
}

// ListUsers returns accounts for the admin console.
// GET /api/admin/users
func (h *Handlers) ListUsers(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	users, total, err := h.users.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, users, total, page, pageSize)
}

// GetUser returns one account for the admin console.
// GET /api/admin/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// UpdateUser edits an account's role and plan. Absent fields are left alone.
// PUT /api/admin/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role               *models.UserRole          `json:"role"`
		SubscriptionTier   *models.SubscriptionTier  `json:"subscription_tier"`
		SubscriptionStatus *models.SubscriptionState `json:"subscription_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	user, err := h.users.UpdateAccount(c.Request.Context(), id, services.AccountUpdate{
		Role:               req.Role,
		SubscriptionTier:   req.SubscriptionTier,
		SubscriptionStatus: req.SubscriptionStatus,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// SetUserRole promotes or demotes an account.
// PUT /api/admin/users/:id/role
func (h *Handlers) SetUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role models.UserRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "role is required")
		return
	}

	user, err := h.users.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// DeleteUser removes an account and everything it owns. Admins cannot
// delete themselves.
// DELETE /api/admin/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id == currentUserID(c) {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "you cannot delete your own account")
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}
