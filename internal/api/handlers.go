// internal/api/handlers.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/services"
	"github.com/bookwise-app/bookwise-server/internal/storage"
	"github.com/bookwise-app/bookwise-server/internal/utils"
)

// Handlers bundles the HTTP surface's service dependencies.
type Handlers struct {
	users         *services.UserService
	books         *services.BookService
	categories    *services.CategoryService
	reviews       *services.ReviewService
	favorites     *services.FavoriteService
	subscriptions *services.SubscriptionService
	generation    *services.GenerationService
	progress      *services.ProgressService
	storage       *storage.FileStorage
	log           *logger.Logger
}

func NewHandlers(
	users *services.UserService,
	books *services.BookService,
	categories *services.CategoryService,
	reviews *services.ReviewService,
	favorites *services.FavoriteService,
	subscriptions *services.SubscriptionService,
	generation *services.GenerationService,
	progress *services.ProgressService,
	fileStorage *storage.FileStorage,
	baseLog *logger.Logger,
) *Handlers {
	return &Handlers{
		users:         users,
		books:         books,
		categories:    categories,
		reviews:       reviews,
		favorites:     favorites,
		subscriptions: subscriptions,
		generation:    generation,
		progress:      progress,
		storage:       fileStorage,
		log:           baseLog.With("component", "api"),
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account.
// POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "name, email and password are required")
		return
	}

	user, token, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login exchanges credentials for a token.
// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the authenticated user's profile.
// GET /api/me
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// Health reports process liveness.
// GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Metrics exposes generation counters.
// GET /api/admin/metrics
func (h *Handlers) Metrics(c *gin.Context) {
	respondSuccess(c, http.StatusOK, utils.GetMetrics().Snapshot())
}

// pathID parses a numeric :id style path parameter.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondErrorMessage(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
