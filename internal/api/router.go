// internal/api/router.go
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bookwise-app/bookwise-server/internal/auth"
)

// SetupRouter wires every route group: public catalog and auth, member
// endpoints behind the token middleware, premium content behind the
// subscriber gate, and the admin console including the generation streams.
func SetupRouter(h *Handlers, tokens *auth.TokenManager, uploadDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Generated audio, covers and uploaded documents.
	r.Static("/uploads", uploadDir)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
		}

		api.GET("/books", h.ListBooks)
		api.GET("/books/:id", h.GetBook)
		api.GET("/books/:id/reviews", h.ListReviews)
		api.GET("/categories", h.ListCategories)

		member := api.Group("")
		member.Use(AuthMiddleware(tokens))
		{
			member.GET("/me", h.Me)
			member.GET("/me/favorites", h.ListFavorites)
			member.GET("/me/subscription-orders", h.ListMySubscriptionOrders)
			member.POST("/subscription-orders", h.SubmitSubscriptionOrder)
			member.POST("/books/:id/reviews", h.SubmitReview)
			member.POST("/books/:id/favorite", h.AddFavorite)
			member.DELETE("/books/:id/favorite", h.RemoveFavorite)

			premium := member.Group("")
			premium.Use(RequireSubscriber(h))
			{
				premium.GET("/books/:id/content", h.GetBookContent)
			}
		}

		admin := api.Group("/admin")
		admin.Use(AuthMiddleware(tokens), RequireAdmin())
		{
			admin.GET("/books", h.ListAllBooks)
			admin.POST("/books", h.CreateBook)
			admin.PUT("/books/:id", h.UpdateBook)
			admin.DELETE("/books/:id", h.DeleteBook)
			admin.POST("/books/:id/publish", h.PublishBook)

			admin.POST("/books/generate-summary", h.GenerateSummary)
			admin.POST("/books/generate-audio", h.GenerateAudio)

			admin.POST("/uploads", h.UploadFile)

			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.GET("/reviews/pending", h.ListPendingReviews)
			admin.POST("/reviews/:id/approve", h.ApproveReview)
			admin.POST("/reviews/:id/reject", h.RejectReview)

			admin.GET("/subscription-orders/pending", h.ListPendingSubscriptionOrders)
			admin.POST("/subscription-orders/:id/approve", h.ApproveSubscriptionOrder)
			admin.POST("/subscription-orders/:id/reject", h.RejectSubscriptionOrder)

			admin.GET("/users", h.ListUsers)
			admin.GET("/users/:id", h.GetUser)
			admin.PUT("/users/:id", h.UpdateUser)
			admin.PUT("/users/:id/role", h.SetUserRole)
			admin.DELETE("/users/:id", h.DeleteUser)

			admin.GET("/metrics", h.Metrics)
		}
	}

	ws := r.Group("/ws/admin")
	ws.Use(AuthMiddleware(tokens), RequireAdmin())
	{
		ws.GET("/generation/:id", h.WatchGeneration)
	}

	return r
}
