// internal/services/generation_service_test.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise-app/bookwise-server/internal/db"
	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/llm"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/storage"
	"github.com/bookwise-app/bookwise-server/internal/tts"
)

const testOutlineJSON = `[` +
	`{"chapterNumber":1,"title":"The Setup","description":"How it begins."},` +
	`{"chapterNumber":2,"title":"The Turn","description":"Where it changes."},` +
	`{"chapterNumber":3,"title":"The Payoff","description":"What it means."}]`

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   func(req llm.CompletionRequest) (string, error)
}

func (f *fakeLLM) Initialize(map[string]string) error { return nil }
func (f *fakeLLM) GetName() string                    { return "fake" }

func (f *fakeLLM) CompleteText(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()

	text, err := f.reply(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Text: text, ProviderName: "fake"}, nil
}

// scriptedReply answers each pipeline stage by recognizing its prompt.
func scriptedReply(req llm.CompletionRequest) (string, error) {
	switch {
	case strings.Contains(req.Prompt, "JSON array"):
		return testOutlineJSON, nil
	case strings.Contains(req.Prompt, "detailed summary"):
		return "Detail for " + chapterTitleFromPrompt(req.Prompt), nil
	default:
		return "A tight overview of the book.", nil
	}
}

func chapterTitleFromPrompt(prompt string) string {
	const marker = `the chapter "`
	start := strings.Index(prompt, marker)
	if start == -1 {
		return "?"
	}
	rest := prompt[start+len(marker):]
	end := strings.Index(rest, `"`)
	if end == -1 {
		return "?"
	}
	return rest[:end]
}

type fakeTTS struct {
	mu    sync.Mutex
	texts []string
	audio []byte
	fail  func(text string) error
}

func (f *fakeTTS) Initialize(map[string]string) error { return nil }
func (f *fakeTTS) GetName() string                    { return "fake" }

func (f *fakeTTS) Synthesize(_ context.Context, req tts.SpeechRequest) ([]byte, error) {
	f.mu.Lock()
	f.texts = append(f.texts, req.Text)
	f.mu.Unlock()

	if f.fail != nil {
		if err := f.fail(req.Text); err != nil {
			return nil, err
		}
	}
	return f.audio, nil
}

type fakeExtractor struct {
	text  string
	err   error
	paths []string
}

func (f *fakeExtractor) ExtractText(path string) (string, error) {
	f.paths = append(f.paths, path)
	return f.text, f.err
}

type genEnv struct {
	svc      *GenerationService
	books    repository.BookRepo
	store    *storage.FileStorage
	llm      *fakeLLM
	tts      *fakeTTS
	progress *ProgressService
	database *db.Service
}

func newGenEnv(t *testing.T) *genEnv {
	t.Helper()
	log := logger.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := db.New(dsn, log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	env := &genEnv{
		books:    repository.NewBookRepo(database.DB(), log),
		store:    store,
		llm:      &fakeLLM{reply: scriptedReply},
		tts:      &fakeTTS{audio: []byte("mp3 bytes")},
		progress: NewProgressService(log),
		database: database,
	}
	env.svc = NewGenerationService(
		env.books, NewExtractService(log), env.progress, store,
		env.llm, env.tts,
		GenerationConfig{LLMModel: "test-model", TTSModel: "test-tts", TTSVoice: "test-voice"},
		log,
	)
	return env
}

func (e *genEnv) createBook(t *testing.T, book *models.Book) *models.Book {
	t.Helper()
	require.NoError(t, e.books.Create(context.Background(), book))
	return book
}

// drainRun reads the run's stream to the end, in order.
func drainRun(run *ProgressRun) []ProgressEvent {
	var events []ProgressEvent
	for event := range run.Events() {
		events = append(events, event)
	}
	return events
}

func messages(events []ProgressEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Message
	}
	return out
}

func hasWarning(events []ProgressEvent) bool {
	for _, e := range events {
		if strings.HasPrefix(e.Message, "Warning:") {
			return true
		}
	}
	return false
}

func TestSummaryRunHappyPath(t *testing.T) {
	env := newGenEnv(t)
	book := env.createBook(t, &models.Book{
		Title:       "Deep Focus",
		Slug:        "deep-focus",
		Author:      "R. Calder",
		Description: "A study of sustained attention.",
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)

	events := drainRun(run)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.True(t, last.Completed, "run must end with a completed event")
	assert.Equal(t, "Summary generation completed!", last.Message)
	assert.False(t, hasWarning(events))

	msgs := messages(events)
	assert.Contains(t, msgs[0], "Starting summary generation")
	assert.Contains(t, msgs, "Generating main summary...")
	assert.Contains(t, msgs, "Creating chapter outline...")
	assert.Contains(t, msgs, "Summarizing chapter 2 of 3: The Turn")

	updated, err := env.books.GetWithContent(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, updated.SummaryGenerated)
	assert.Equal(t, models.GenerationIdle, updated.GenerationStatus)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, "A tight overview of the book.", updated.Summary.MainSummary)
	require.Len(t, updated.Chapters, 3)
	assert.Equal(t, 1, updated.Chapters[0].ChapterNumber)
	assert.Equal(t, "The Setup", updated.Chapters[0].Title)
	assert.Equal(t, "Detail for The Turn", updated.Chapters[1].Summary)
}

func TestSummaryRunMissingDocumentUsesDescription(t *testing.T) {
	env := newGenEnv(t)
	book := env.createBook(t, &models.Book{
		Title:       "No Document",
		Slug:        "no-document",
		Author:      "A. Author",
		Description: "Only a catalog description exists.",
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	// A book with no document goes straight to its description, silently.
	assert.False(t, hasWarning(events))
	assert.True(t, events[len(events)-1].Completed)

	for _, prompt := range env.llm.prompts {
		assert.Contains(t, prompt, "Only a catalog description exists.")
	}
}

func TestSummaryRunUnreadableDocumentWarnsAndFallsBack(t *testing.T) {
	env := newGenEnv(t)

	// Store something that is not a PDF where the pipeline expects one.
	url, err := env.store.SaveUpload("pdf", "broken.pdf", []byte("not a pdf at all"))
	require.NoError(t, err)

	book := env.createBook(t, &models.Book{
		Title:          "Broken Upload",
		Slug:           "broken-upload",
		Author:         "A. Author",
		Description:    "Fallback description text.",
		OriginalPDFURL: url,
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	assert.True(t, events[len(events)-1].Completed)
	assert.True(t, hasWarning(events), "extraction failure must surface a warning")
	assert.Contains(t, strings.Join(messages(events), "\n"), "could not extract text")
}

func TestSummaryRunReportsExtractedTextSize(t *testing.T) {
	env := newGenEnv(t)

	extracted := "The document's full text, pulled out page by page."
	extractor := &fakeExtractor{text: extracted}
	env.svc = NewGenerationService(
		env.books, extractor, env.progress, env.store,
		env.llm, env.tts,
		GenerationConfig{LLMModel: "test-model", TTSModel: "test-tts", TTSVoice: "test-voice"},
		logger.NewNop(),
	)

	url, err := env.store.SaveUpload("pdf", "readable.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	book := env.createBook(t, &models.Book{
		Title:          "Readable Upload",
		Slug:           "readable-upload",
		Author:         "A. Author",
		Description:    "Catalog description, not the source.",
		OriginalPDFURL: url,
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	assert.True(t, events[len(events)-1].Completed)
	assert.False(t, hasWarning(events), "a readable document must not warn")

	msgs := messages(events)
	assert.Contains(t, msgs, "Extracting text from document...")
	assert.Contains(t, msgs, fmt.Sprintf("Extracted %d characters from the document", len(extracted)))

	require.Len(t, extractor.paths, 1)
	assert.Equal(t, env.store.LocalPath(url), extractor.paths[0])
	for _, prompt := range env.llm.prompts {
		assert.Contains(t, prompt, extracted, "prompts must carry the extracted text, not the description")
	}
}

func TestSummaryRunOutlineParseFallback(t *testing.T) {
	env := newGenEnv(t)
	env.llm.reply = func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "JSON array") {
			return "I would rather chat about the weather.", nil
		}
		return scriptedReply(req)
	}

	book := env.createBook(t, &models.Book{
		Title: "Odd Model", Slug: "odd-model", Author: "A. Author",
		Description: "desc",
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	assert.True(t, events[len(events)-1].Completed)
	assert.Contains(t, strings.Join(messages(events), "\n"), "could not parse the chapter outline")

	updated, err := env.books.GetWithContent(context.Background(), book.ID)
	require.NoError(t, err)
	require.Len(t, updated.Chapters, 3)
	assert.Equal(t, "Introduction", updated.Chapters[0].Title)
	assert.Equal(t, "Main Content", updated.Chapters[1].Title)
	assert.Equal(t, "Conclusion", updated.Chapters[2].Title)
}

func TestSummaryRunOutlineWithMarkdownFenceParses(t *testing.T) {
	env := newGenEnv(t)
	env.llm.reply = func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "JSON array") {
			return "Here you go:\n```json\n" + testOutlineJSON + "\n```", nil
		}
		return scriptedReply(req)
	}

	book := env.createBook(t, &models.Book{
		Title: "Fenced", Slug: "fenced", Author: "A. Author", Description: "desc",
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	assert.False(t, hasWarning(events))
	updated, err := env.books.GetWithContent(context.Background(), book.ID)
	require.NoError(t, err)
	require.Len(t, updated.Chapters, 3)
	assert.Equal(t, "The Setup", updated.Chapters[0].Title)
}

func TestSummaryRunChapterFailureFallsBackToOutline(t *testing.T) {
	env := newGenEnv(t)
	env.llm.reply = func(req llm.CompletionRequest) (string, error) {
		if strings.Contains(req.Prompt, "detailed summary") &&
			strings.Contains(req.Prompt, `the chapter "The Turn"`) {
			return "", fmt.Errorf("model overloaded")
		}
		return scriptedReply(req)
	}

	book := env.createBook(t, &models.Book{
		Title: "Flaky", Slug: "flaky", Author: "A. Author", Description: "desc",
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	assert.True(t, events[len(events)-1].Completed, "one bad chapter must not kill the run")
	assert.Contains(t, strings.Join(messages(events), "\n"), "could not generate a summary for chapter 2")

	updated, err := env.books.GetWithContent(context.Background(), book.ID)
	require.NoError(t, err)
	require.Len(t, updated.Chapters, 3)
	assert.Equal(t, "Where it changes.", updated.Chapters[1].Summary)
	assert.Equal(t, "Detail for The Setup", updated.Chapters[0].Summary)
}

func TestSummaryRunFatalLLMFailure(t *testing.T) {
	env := newGenEnv(t)
	env.llm.reply = func(req llm.CompletionRequest) (string, error) {
		return "", fmt.Errorf("connection refused")
	}

	book := env.createBook(t, &models.Book{
		Title: "Down", Slug: "down", Author: "A. Author", Description: "desc",
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.False(t, last.Completed, "a failed run closes without a completed event")
	assert.Contains(t, last.Message, "Error:")

	updated, err := env.books.GetByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.False(t, updated.SummaryGenerated)
	assert.Equal(t, models.GenerationIdle, updated.GenerationStatus, "guard must be released after failure")

	chapters, err := env.books.GetChapters(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Empty(t, chapters, "no partial content may be persisted")
}

func TestSummaryRunReplacesPriorContent(t *testing.T) {
	env := newGenEnv(t)
	book := env.createBook(t, &models.Book{
		Title: "Rerun", Slug: "rerun", Author: "A. Author", Description: "desc",
	})

	ctx := context.Background()
	stale := []models.BookChapter{
		{ChapterNumber: 1, Title: "Old One", Description: "old", Summary: "old detail"},
		{ChapterNumber: 2, Title: "Old Two", Description: "old", Summary: "old detail"},
		{ChapterNumber: 3, Title: "Old Three", Description: "old", Summary: "old detail"},
		{ChapterNumber: 4, Title: "Old Four", Description: "old", Summary: "old detail"},
	}
	staleOutline := []models.OutlineEntry{{ChapterNumber: 1, Title: "Old One", Description: "old"}}
	require.NoError(t, env.books.ReplaceSummary(ctx, book.ID, "old summary", staleOutline, stale))

	// Audio from the stale content must not survive a summary rerun.
	require.NoError(t, env.books.SetAudioGenerated(ctx, book.ID))

	run, err := env.svc.StartSummaryRun(ctx, book.ID)
	require.NoError(t, err)
	events := drainRun(run)
	require.True(t, events[len(events)-1].Completed)

	updated, err := env.books.GetWithContent(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, "A tight overview of the book.", updated.Summary.MainSummary)
	require.Len(t, updated.Chapters, 3, "old chapter rows must be gone")
	assert.Equal(t, "The Setup", updated.Chapters[0].Title)
	assert.False(t, updated.AudioGenerated, "regenerating the summary invalidates old audio")
}

func TestSummaryRunGuardRejectsConcurrentRun(t *testing.T) {
	env := newGenEnv(t)
	book := env.createBook(t, &models.Book{
		Title: "Busy", Slug: "busy", Author: "A. Author", Description: "desc",
	})

	ctx := context.Background()
	require.NoError(t, env.books.BeginGeneration(ctx, book.ID, models.GenerationSummary))

	_, err := env.svc.StartSummaryRun(ctx, book.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))

	// Releasing the guard makes the book runnable again.
	require.NoError(t, env.books.EndGeneration(ctx, book.ID))
	run, err := env.svc.StartSummaryRun(ctx, book.ID)
	require.NoError(t, err)
	events := drainRun(run)
	assert.True(t, events[len(events)-1].Completed)
}

type releaseCountingRepo struct {
	repository.BookRepo
	mu       sync.Mutex
	released int
}

func (r *releaseCountingRepo) EndGeneration(ctx context.Context, bookID uint) error {
	r.mu.Lock()
	r.released++
	r.mu.Unlock()
	return r.BookRepo.EndGeneration(ctx, bookID)
}

func (r *releaseCountingRepo) releases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

func TestSummaryRunReleasesGuardExactlyOnce(t *testing.T) {
	env := newGenEnv(t)
	counting := &releaseCountingRepo{BookRepo: env.books}
	env.svc = NewGenerationService(
		counting, NewExtractService(logger.NewNop()), env.progress, env.store,
		env.llm, env.tts,
		GenerationConfig{LLMModel: "test-model", TTSModel: "test-tts", TTSVoice: "test-voice"},
		logger.NewNop(),
	)

	book := env.createBook(t, &models.Book{
		Title: "Counted", Slug: "counted", Author: "A. Author", Description: "desc",
	})

	run, err := env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	drainRun(run)
	assert.Equal(t, 1, counting.releases())

	// A failed run releases once as well.
	env.llm.reply = func(req llm.CompletionRequest) (string, error) {
		return "", fmt.Errorf("connection refused")
	}
	run, err = env.svc.StartSummaryRun(context.Background(), book.ID)
	require.NoError(t, err)
	drainRun(run)
	assert.Equal(t, 2, counting.releases())
}

func TestSummaryRunUnknownBook(t *testing.T) {
	env := newGenEnv(t)
	_, err := env.svc.StartSummaryRun(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestAudioRunRequiresSummary(t *testing.T) {
	env := newGenEnv(t)
	book := env.createBook(t, &models.Book{
		Title: "Silent", Slug: "silent", Author: "A. Author", Description: "desc",
	})

	_, err := env.svc.StartAudioRun(context.Background(), book.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsPreconditionError(err))
	assert.Contains(t, err.Error(), "Please generate summary first")
}

func TestAudioRunHappyPath(t *testing.T) {
	env := newGenEnv(t)
	book := env.createBook(t, &models.Book{
		Title: "Narrated", Slug: "narrated", Author: "A. Author", Description: "desc",
	})

	ctx := context.Background()
	run, err := env.svc.StartSummaryRun(ctx, book.ID)
	require.NoError(t, err)
	drainRun(run)

	run, err = env.svc.StartAudioRun(ctx, book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	last := events[len(events)-1]
	assert.True(t, last.Completed)
	assert.Equal(t, "Audio generation completed!", last.Message)
	assert.Contains(t, messages(events), "Generating audio for chapter 1 of 3...")

	require.Len(t, env.tts.texts, 3)
	assert.Equal(t, "Chapter 1: The Setup. Detail for The Setup", env.tts.texts[0])

	updated, err := env.books.GetWithContent(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, updated.AudioGenerated)
	assert.Equal(t, models.GenerationIdle, updated.GenerationStatus)
	for i, chapter := range updated.Chapters {
		assert.NotEmpty(t, chapter.AudioURL, "chapter %d has no audio", i+1)
		assert.True(t, env.store.FileExists(chapter.AudioURL), "chapter %d audio file missing", i+1)
		assert.Equal(t, estimateDurationSeconds(env.tts.texts[i]), chapter.DurationSeconds)
	}
}

func TestAudioRunSynthesisFailureIsFatal(t *testing.T) {
	env := newGenEnv(t)
	book := env.createBook(t, &models.Book{
		Title: "Half Voiced", Slug: "half-voiced", Author: "A. Author", Description: "desc",
	})

	ctx := context.Background()
	run, err := env.svc.StartSummaryRun(ctx, book.ID)
	require.NoError(t, err)
	drainRun(run)

	env.tts.fail = func(text string) error {
		if strings.HasPrefix(text, "Chapter 2:") {
			return fmt.Errorf("voice service unavailable")
		}
		return nil
	}

	run, err = env.svc.StartAudioRun(ctx, book.ID)
	require.NoError(t, err)
	events := drainRun(run)

	last := events[len(events)-1]
	assert.False(t, last.Completed)
	assert.Contains(t, last.Message, "Error:")

	updated, err := env.books.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, updated.AudioGenerated, "a partial narration must not be marked complete")
	assert.Equal(t, models.GenerationIdle, updated.GenerationStatus)
}

func TestEstimateDurationSeconds(t *testing.T) {
	// 750 characters is 150 words, one minute at the assumed pace.
	text := strings.Repeat("x", 750)
	assert.Equal(t, 60, estimateDurationSeconds(text))
	assert.Equal(t, 0, estimateDurationSeconds("tiny"))
}

func TestParseOutlineNumbersMissingChapters(t *testing.T) {
	raw := `[{"title":"Alpha","description":"a"},{"title":"Beta","description":"b"}]`
	outline, err := parseOutline(raw)
	require.NoError(t, err)
	require.Len(t, outline, 2)
	assert.Equal(t, 1, outline[0].ChapterNumber)
	assert.Equal(t, 2, outline[1].ChapterNumber)
}
