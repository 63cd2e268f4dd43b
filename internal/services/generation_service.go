// internal/services/generation_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/bookwise-app/bookwise-server/internal/errors"
	"github.com/bookwise-app/bookwise-server/internal/llm"
	"github.com/bookwise-app/bookwise-server/internal/logger"
	"github.com/bookwise-app/bookwise-server/internal/models"
	"github.com/bookwise-app/bookwise-server/internal/repository"
	"github.com/bookwise-app/bookwise-server/internal/storage"
	"github.com/bookwise-app/bookwise-server/internal/tts"
	"github.com/bookwise-app/bookwise-server/internal/utils"
)

const (
	summarizerSystemPrompt = "You are a professional book summarizer."

	// Words-per-minute pacing used to estimate narration length when the
	// synthesizer does not report a duration.
	narrationWordsPerMinute = 150
)

// TextExtractor pulls plain text out of an uploaded document.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// GenerationService runs the AI content pipelines: summary generation
// (extract, summarize, outline, per-chapter detail, persist) and audio
// narration. Each run streams ordered progress events through a ProgressRun.
type GenerationService struct {
	books    repository.BookRepo
	extract  TextExtractor
	progress *ProgressService
	storage  *storage.FileStorage
	llm      llm.Provider
	llmModel string
	tts      tts.Synthesizer
	ttsModel string
	ttsVoice string
	log      *logger.Logger
}

type GenerationConfig struct {
	LLMModel string
	TTSModel string
	TTSVoice string
}

func NewGenerationService(
	books repository.BookRepo,
	extract TextExtractor,
	progress *ProgressService,
	fileStorage *storage.FileStorage,
	provider llm.Provider,
	synthesizer tts.Synthesizer,
	cfg GenerationConfig,
	baseLog *logger.Logger,
) *GenerationService {
	return &GenerationService{
		books:    books,
		extract:  extract,
		progress: progress,
		storage:  fileStorage,
		llm:      provider,
		llmModel: cfg.LLMModel,
		tts:      synthesizer,
		ttsModel: cfg.TTSModel,
		ttsVoice: cfg.TTSVoice,
		log:      baseLog.With("service", "GenerationService"),
	}
}

// StartSummaryRun claims the book's run guard and begins summary generation.
// The pipeline runs on the calling goroutine's behalf in the background; the
// returned run carries its progress stream. Guard conflicts and missing books
// are reported synchronously.
func (s *GenerationService) StartSummaryRun(ctx context.Context, bookID uint) (*ProgressRun, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := s.books.BeginGeneration(ctx, bookID, models.GenerationSummary); err != nil {
		return nil, err
	}

	run := s.progress.StartRun(bookID)
	utils.GetMetrics().SummaryRunStarted()

	go s.runSummaryPipeline(book, run)
	return run, nil
}

func (s *GenerationService) runSummaryPipeline(book *models.Book, run *ProgressRun) {
	ctx := context.Background()
	defer s.progress.EndRun(run.ID)

	// Every exit path below releases the guard exactly once, before the
	// terminal event, so observers of the closed stream see an idle book.
	fail := func(stage string, err error) {
		s.log.Error("summary generation failed", "book_id", book.ID, "stage", stage, "error", err)
		utils.GetMetrics().SummaryRunFailed()
		run.Publish("Error: %v", err)
		s.releaseGuard(ctx, book.ID)
		run.Fail()
	}

	run.Publish("Starting summary generation for \"%s\"...", book.Title)

	source := s.gatherSourceText(book, run)

	run.Publish("Generating main summary...")
	mainSummary, err := s.completeText(ctx, summarizerSystemPrompt, fmt.Sprintf(
		"Write a compelling overview summary of the book \"%s\" by %s in 150-200 words. "+
			"Focus on the core ideas and why they matter.\n\nSource material:\n%s",
		book.Title, book.Author, source))
	if err != nil {
		fail("summarize", err)
		return
	}

	run.Publish("Creating chapter outline...")
	outline, usedDefault, err := s.generateOutline(ctx, book, source)
	if err != nil {
		fail("outline", err)
		return
	}
	if usedDefault {
		run.Publish("Warning: could not parse the chapter outline, using a default structure")
	}

	chapters := make([]models.BookChapter, 0, len(outline))
	for i, entry := range outline {
		run.Publish("Summarizing chapter %d of %d: %s", i+1, len(outline), entry.Title)
		detail, err := s.completeText(ctx, summarizerSystemPrompt, fmt.Sprintf(
			"Write a detailed summary of roughly 150 words for the chapter \"%s\" of the book \"%s\" by %s. "+
				"The chapter covers: %s\n\nSource material:\n%s",
			entry.Title, book.Title, book.Author, entry.Description, source))
		if err != nil {
			// A single chapter failure does not abort the run; the outline
			// description stands in for the missing detail.
			s.log.Warn("chapter summary failed, falling back to outline description",
				"book_id", book.ID, "chapter", entry.ChapterNumber, "error", err)
			run.Publish("Warning: could not generate a summary for chapter %d, using the outline description", i+1)
			detail = entry.Description
		}
		chapters = append(chapters, models.BookChapter{
			ChapterNumber: entry.ChapterNumber,
			Title:         entry.Title,
			Description:   entry.Description,
			Summary:       detail,
		})
	}

	run.Publish("Saving summary...")
	if err := s.books.ReplaceSummary(ctx, book.ID, mainSummary, outline, chapters); err != nil {
		fail("persist", err)
		return
	}

	utils.GetMetrics().SummaryRunCompleted()
	s.releaseGuard(ctx, book.ID)
	run.Complete("Summary generation completed!")
}

// gatherSourceText extracts the book's PDF text, falling back to the catalog
// description when the document is missing or yields nothing. The fallback
// warning is only emitted when a document existed and failed; a book with no
// document at all goes straight to its description.
func (s *GenerationService) gatherSourceText(book *models.Book, run *ProgressRun) string {
	if book.OriginalPDFURL == "" {
		return book.Description
	}

	run.Publish("Extracting text from document...")
	path := s.storage.LocalPath(book.OriginalPDFURL)
	text, err := s.extract.ExtractText(path)
	if err == nil && text != "" {
		run.Publish("Extracted %d characters from the document", len(text))
		return text
	}
	s.log.Warn("pdf extraction failed, using description", "book_id", book.ID, "error", err)
	run.Publish("Warning: could not extract text from the document, using the book description instead")
	return book.Description
}

func (s *GenerationService) completeText(ctx context.Context, system, prompt string) (string, error) {
	utils.GetMetrics().LLMCall()
	resp, err := s.llm.CompleteText(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Prompt:       prompt,
		Model:        s.llmModel,
	})
	if err != nil {
		utils.GetMetrics().LLMFailure()
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// generateOutline asks the model for a chapter outline as JSON. A transport
// failure is fatal; a response that cannot be parsed degrades to a fixed
// three-part outline so the run can continue.
func (s *GenerationService) generateOutline(ctx context.Context, book *models.Book, source string) ([]models.OutlineEntry, bool, error) {
	raw, err := s.completeText(ctx, summarizerSystemPrompt, fmt.Sprintf(
		"Create a chapter outline for the book \"%s\" by %s with 8 to 12 chapters. "+
			"Respond with ONLY a JSON array, no other text, where each element has the fields "+
			"\"chapterNumber\" (integer starting at 1), \"title\" (string) and \"description\" "+
			"(one or two sentences).\n\nSource material:\n%s",
		book.Title, book.Author, source))
	if err != nil {
		return nil, false, err
	}

	outline, err := parseOutline(raw)
	if err != nil || len(outline) == 0 {
		s.log.Warn("outline parse failed, using default structure", "book_id", book.ID, "error", err)
		return defaultOutline(book), true, nil
	}
	return outline, false, nil
}

// jsonNoiseReplacer strips the decorations models like to wrap JSON in.
var jsonNoiseReplacer = strings.NewReplacer(
	"```json", "",
	"```", "",
	"“", `"`,
	"”", `"`,
)

// parseOutline decodes a model response into outline entries, tolerating
// markdown fences and leading prose around the JSON array.
func parseOutline(raw string) ([]models.OutlineEntry, error) {
	cleaned := strings.TrimSpace(jsonNoiseReplacer.Replace(raw))
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var outline []models.OutlineEntry
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &outline); err != nil {
		return nil, fmt.Errorf("failed to decode outline: %w", err)
	}
	for i := range outline {
		if outline[i].ChapterNumber == 0 {
			outline[i].ChapterNumber = i + 1
		}
	}
	return outline, nil
}

func defaultOutline(book *models.Book) []models.OutlineEntry {
	return []models.OutlineEntry{
		{ChapterNumber: 1, Title: "Introduction", Description: fmt.Sprintf("An introduction to the key themes of %s.", book.Title)},
		{ChapterNumber: 2, Title: "Main Content", Description: fmt.Sprintf("The core ideas and arguments of %s.", book.Title)},
		{ChapterNumber: 3, Title: "Conclusion", Description: fmt.Sprintf("Closing thoughts and takeaways from %s.", book.Title)},
	}
}

// StartAudioRun claims the run guard and begins audio narration for a book
// whose summary has already been generated. The summary precondition and
// guard conflicts are reported synchronously.
func (s *GenerationService) StartAudioRun(ctx context.Context, bookID uint) (*ProgressRun, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.SummaryGenerated {
		return nil, apperrors.NewPreconditionError("Please generate summary first", nil)
	}
	if err := s.books.BeginGeneration(ctx, bookID, models.GenerationAudio); err != nil {
		return nil, err
	}

	run := s.progress.StartRun(bookID)
	utils.GetMetrics().AudioRunStarted()

	go s.runAudioPipeline(book, run)
	return run, nil
}

func (s *GenerationService) runAudioPipeline(book *models.Book, run *ProgressRun) {
	ctx := context.Background()
	defer s.progress.EndRun(run.ID)

	fail := func(stage string, err error) {
		s.log.Error("audio generation failed", "book_id", book.ID, "stage", stage, "error", err)
		utils.GetMetrics().AudioRunFailed()
		run.Publish("Error: %v", err)
		s.releaseGuard(ctx, book.ID)
		run.Fail()
	}

	run.Publish("Starting audio generation for \"%s\"...", book.Title)

	chapters, err := s.books.GetChapters(ctx, book.ID)
	if err != nil {
		fail("load", err)
		return
	}
	if len(chapters) == 0 {
		fail("load", fmt.Errorf("book has no chapters to narrate"))
		return
	}

	for i, chapter := range chapters {
		run.Publish("Generating audio for chapter %d of %d...", i+1, len(chapters))

		text := fmt.Sprintf("Chapter %d: %s. %s", chapter.ChapterNumber, chapter.Title, chapter.Summary)
		utils.GetMetrics().TTSCall()
		audio, err := s.tts.Synthesize(ctx, tts.SpeechRequest{
			Text:  text,
			Model: s.ttsModel,
			Voice: s.ttsVoice,
		})
		if err != nil {
			// Unlike chapter summaries, a half narrated book is not useful;
			// any synthesis failure aborts the run.
			utils.GetMetrics().TTSFailure()
			fail("synthesize", err)
			return
		}

		url, err := s.storage.SaveChapterAudio(book.ID, chapter.ChapterNumber, audio)
		if err != nil {
			fail("store", err)
			return
		}

		if err := s.books.UpdateChapterNarration(ctx, chapter.ID, url, estimateDurationSeconds(text)); err != nil {
			fail("persist", err)
			return
		}
	}

	if err := s.books.SetAudioGenerated(ctx, book.ID); err != nil {
		fail("finalize", err)
		return
	}

	utils.GetMetrics().AudioRunCompleted()
	s.releaseGuard(ctx, book.ID)
	run.Complete("Audio generation completed!")
}

// estimateDurationSeconds approximates narration length from text size,
// assuming five characters per word at a steady reading pace.
func estimateDurationSeconds(text string) int {
	words := len(text) / 5
	return words * 60 / narrationWordsPerMinute
}

// releaseGuard resets the run guard.
func (s *GenerationService) releaseGuard(ctx context.Context, bookID uint) {
	if err := s.books.EndGeneration(ctx, bookID); err != nil {
		s.log.Error("failed to release generation guard", "book_id", bookID, "error", err)
	}
}
