// internal/app/app.go
package app

import (
	"context"
	"fmt"

	"github.com/bookwise-app/bookwise-server/internal/api"
	"github.com/bookwise-app/bookwise-server/internal/auth"
	"github.com/bookwise-app/bookwise-server/internal/config"
	"github.com/bookwise-app/bookwise-server/internal/db"
	"github.com/bookwise-app/bookwise-server/internal/di"
	"github.com/bookwise-app/bookwise-server/internal/llm"
	_ "github.com/bookwise-app/bookwise-server/internal/llm/providers/openai"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/services"
	"github.com/bookwise-app/bookwise-server/internal/storage"
	"github.com/bookwise-app/bookwise-server/internal/tts"
	_ "github.com/bookwise-app/bookwise-server/internal/tts/providers/openai"
)

// App holds the assembled application.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Handlers *api.Handlers
	Tokens   *auth.TokenManager
}

// InitServices builds every service in dependency order and registers them
// in the container.
func InitServices(cfg *config.Config, log *logger.Logger) (*App, error) {
	container := di.GetContainer()

	database, err := db.New(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	container.Register("db", database)

	fileStorage, err := storage.NewFileStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}
	container.Register("storage", fileStorage)

	provider, err := llm.GetProvider(cfg.LLMProvider, cfg.LLMConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	synthesizer, err := tts.GetSynthesizer(cfg.TTSProvider, cfg.TTSConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize TTS provider: %w", err)
	}

	bookRepo := repository.NewBookRepo(database.DB(), log)
	userRepo := repository.NewUserRepo(database.DB(), log)
	categoryRepo := repository.NewCategoryRepo(database.DB(), log)
	reviewRepo := repository.NewReviewRepo(database.DB(), log)
	favoriteRepo := repository.NewFavoriteRepo(database.DB(), log)
	orderRepo := repository.NewSubscriptionOrderRepo(database.DB(), log)

	tokens := auth.NewTokenManager(cfg.JWTSecret)

	progressService := services.NewProgressService(log)
	extractService := services.NewExtractService(log)
	generationService := services.NewGenerationService(
		bookRepo, extractService, progressService, fileStorage,
		provider, synthesizer,
		services.GenerationConfig{
			LLMModel: cfg.LLMConfig["default_model"],
			TTSModel: cfg.TTSConfig["default_model"],
			TTSVoice: cfg.TTSConfig["voice"],
		},
		log,
	)

	userService := services.NewUserService(userRepo, tokens, log)
	bookService := services.NewBookService(bookRepo, categoryRepo, log)
	categoryService := services.NewCategoryService(categoryRepo, log)
	reviewService := services.NewReviewService(reviewRepo, bookRepo, log)
	favoriteService := services.NewFavoriteService(favoriteRepo, bookRepo, log)
	subscriptionService := services.NewSubscriptionService(orderRepo, userRepo, log)

	if err := Bootstrap(context.Background(), categoryRepo, userRepo, log); err != nil {
		return nil, fmt.Errorf("failed to bootstrap data: %w", err)
	}

	container.Register("progress", progressService)
	container.Register("generation", generationService)
	container.Register("users", userService)
	container.Register("books", bookService)

	handlers := api.NewHandlers(
		userService, bookService, categoryService,
		reviewService, favoriteService, subscriptionService,
		generationService, progressService, fileStorage, log,
	)

	return &App{
		Config:   cfg,
		Log:      log,
		Handlers: handlers,
		Tokens:   tokens,
	}, nil
}
