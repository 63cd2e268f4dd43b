// internal/api/generation_handlers_test.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise-app/bookwise-server/internal/auth"
	"github.com/bookwise-app/bookwise-server/internal/db"
	"github.com/bookwise-app/bookwise-server/internal/llm"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/services"
	"github.com/bookwise-app/bookwise-server/internal/storage"
	"github.com/bookwise-app/bookwise-server/internal/tts"
)

type apiLLM struct{}

func (apiLLM) Initialize(map[string]string) error { return nil }
func (apiLLM) GetName() string                    { return "fake" }

func (apiLLM) CompleteText(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if strings.Contains(req.Prompt, "JSON array") {
		return &llm.CompletionResponse{Text: `[` +
			`{"chapterNumber":1,"title":"Begin","description":"start"},` +
			`{"chapterNumber":2,"title":"End","description":"finish"}]`}, nil
	}
	return &llm.CompletionResponse{Text: "generated text"}, nil
}

type apiTTS struct{}

func (apiTTS) Initialize(map[string]string) error { return nil }
func (apiTTS) GetName() string                    { return "fake" }

func (apiTTS) Synthesize(context.Context, tts.SpeechRequest) ([]byte, error) {
	return []byte("audio"), nil
}

type apiEnv struct {
	router     *gin.Engine
	books      repository.BookRepo
	users      repository.UserRepo
	admin      *models.User
	user       *models.User
	adminToken string
	userToken  string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := db.New(dsn, log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	bookRepo := repository.NewBookRepo(database.DB(), log)
	userRepo := repository.NewUserRepo(database.DB(), log)
	categoryRepo := repository.NewCategoryRepo(database.DB(), log)
	reviewRepo := repository.NewReviewRepo(database.DB(), log)
	favoriteRepo := repository.NewFavoriteRepo(database.DB(), log)
	orderRepo := repository.NewSubscriptionOrderRepo(database.DB(), log)

	tokens := auth.NewTokenManager("api-test-secret")
	progress := services.NewProgressService(log)
	generation := services.NewGenerationService(
		bookRepo, services.NewExtractService(log), progress, store,
		apiLLM{}, apiTTS{},
		services.GenerationConfig{LLMModel: "m", TTSModel: "t", TTSVoice: "v"},
		log,
	)

	handlers := NewHandlers(
		services.NewUserService(userRepo, tokens, log),
		services.NewBookService(bookRepo, categoryRepo, log),
		services.NewCategoryService(categoryRepo, log),
		services.NewReviewService(reviewRepo, bookRepo, log),
		services.NewFavoriteService(favoriteRepo, bookRepo, log),
		services.NewSubscriptionService(orderRepo, userRepo, log),
		generation, progress, store, log,
	)

	ctx := context.Background()
	admin := &models.User{Name: "Admin", Email: "admin@test.local", PasswordHash: "x", Role: models.RoleAdmin}
	user := &models.User{Name: "User", Email: "user@test.local", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, userRepo.Create(ctx, admin))
	require.NoError(t, userRepo.Create(ctx, user))

	adminToken, err := tokens.Issue(admin)
	require.NoError(t, err)
	userToken, err := tokens.Issue(user)
	require.NoError(t, err)

	return &apiEnv{
		router:     SetupRouter(handlers, tokens, t.TempDir()),
		books:      bookRepo,
		users:      userRepo,
		admin:      admin,
		user:       user,
		adminToken: adminToken,
		userToken:  userToken,
	}
}

func (e *apiEnv) post(t *testing.T, token, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// parseSSE splits an event-stream body into its decoded data payloads.
func parseSSE(t *testing.T, body string) []services.ProgressEvent {
	t.Helper()
	var events []services.ProgressEvent
	for _, frame := range strings.Split(body, "\n\n") {
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}
		require.True(t, strings.HasPrefix(frame, "data: "), "unexpected frame %q", frame)
		var event services.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &event))
		events = append(events, event)
	}
	return events
}

func TestGenerateSummaryStreamsSSE(t *testing.T) {
	env := newAPIEnv(t)
	book := &models.Book{Title: "Streamed", Slug: "streamed", Author: "A", Description: "d"}
	require.NoError(t, env.books.Create(context.Background(), book))

	w := env.post(t, env.adminToken, "/api/admin/books/generate-summary",
		fmt.Sprintf(`{"bookId":%d}`, book.ID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := parseSSE(t, w.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, last.Completed)
	assert.Equal(t, "Summary generation completed!", last.Message)
	for _, event := range events[:len(events)-1] {
		assert.False(t, event.Completed)
		assert.NotEmpty(t, event.Message)
	}

	updated, err := env.books.GetWithContent(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, updated.SummaryGenerated)
	assert.Len(t, updated.Chapters, 2)
}

func TestGenerateSummaryRequiresAdmin(t *testing.T) {
	env := newAPIEnv(t)

	w := env.post(t, env.userToken, "/api/admin/books/generate-summary", `{"bookId":1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.post(t, "", "/api/admin/books/generate-summary", `{"bookId":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateSummaryUnknownBook(t *testing.T) {
	env := newAPIEnv(t)
	w := env.post(t, env.adminToken, "/api/admin/books/generate-summary", `{"bookId":9999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateAudioPreconditionRejectedBeforeStreaming(t *testing.T) {
	env := newAPIEnv(t)
	book := &models.Book{Title: "No Summary Yet", Slug: "no-summary-yet", Author: "A", Description: "d"}
	require.NoError(t, env.books.Create(context.Background(), book))

	w := env.post(t, env.adminToken, "/api/admin/books/generate-audio",
		fmt.Sprintf(`{"bookId":%d}`, book.ID))

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Contains(t, w.Body.String(), "Please generate summary first")
	assert.NotEqual(t, "text/event-stream", w.Header().Get("Content-Type"))
}

func TestGenerateAudioStreamsAfterSummary(t *testing.T) {
	env := newAPIEnv(t)
	book := &models.Book{Title: "Voiced", Slug: "voiced", Author: "A", Description: "d"}
	require.NoError(t, env.books.Create(context.Background(), book))

	w := env.post(t, env.adminToken, "/api/admin/books/generate-summary",
		fmt.Sprintf(`{"bookId":%d}`, book.ID))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.post(t, env.adminToken, "/api/admin/books/generate-audio",
		fmt.Sprintf(`{"bookId":%d}`, book.ID))
	require.Equal(t, http.StatusOK, w.Code)

	events := parseSSE(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.True(t, events[len(events)-1].Completed)

	updated, err := env.books.GetWithContent(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, updated.AudioGenerated)
	for _, chapter := range updated.Chapters {
		assert.NotEmpty(t, chapter.AudioURL)
	}
}

func TestGenerateSummaryMissingBody(t *testing.T) {
	env := newAPIEnv(t)
	w := env.post(t, env.adminToken, "/api/admin/books/generate-summary", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
