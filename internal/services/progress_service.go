// internal/services/progress_service.go
package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bookwise-app/bookwise-server/internal/logger"
)

// eventBuffer bounds the per-run event channel. Producers block once the
// consumer falls this far behind, so generation work never outruns delivery.
const eventBuffer = 16

// ProgressEvent is one line of a generation run's progress stream. Completed
// is set only on the terminal event of a successful run.
type ProgressEvent struct {
	Message   string `json:"message"`
	Completed bool   `json:"completed,omitempty"`
}

// ProgressRun is a single generation run's ordered event stream. Events are
// delivered strictly in publish order. A channel that closes without a
// Completed event means the run failed.
type ProgressRun struct {
	ID     string
	BookID uint

	ch      chan ProgressEvent
	mu      sync.Mutex
	mirrors []chan ProgressEvent
	closed  bool
}

// Events exposes the run's stream to consumers. The channel closes when the
// run ends, successfully or not.
func (r *ProgressRun) Events() <-chan ProgressEvent {
	return r.ch
}

// Mirror attaches a secondary observer to the run. Mirror delivery is best
// effort: a slow mirror drops events instead of stalling the pipeline, and
// the returned channel closes when the run ends.
func (r *ProgressRun) Mirror() <-chan ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan ProgressEvent, eventBuffer)
	if r.closed {
		close(ch)
		return ch
	}
	r.mirrors = append(r.mirrors, ch)
	return ch
}

// Publish emits a progress message. It blocks when the buffer is full and is
// a no-op after the run has ended.
func (r *ProgressRun) Publish(format string, args ...interface{}) {
	event := ProgressEvent{Message: fmt.Sprintf(format, args...)}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.fanOut(event)
	r.mu.Unlock()
	r.ch <- event
}

// Complete emits the terminal event and closes the stream.
func (r *ProgressRun) Complete(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	event := ProgressEvent{Message: message, Completed: true}
	r.fanOut(event)
	r.ch <- event
	r.end()
}

// Fail closes the stream without a terminal Completed event.
func (r *ProgressRun) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.end()
}

// fanOut delivers to mirrors without blocking. Callers hold r.mu.
func (r *ProgressRun) fanOut(event ProgressEvent) {
	for _, mirror := range r.mirrors {
		select {
		case mirror <- event:
		default:
		}
	}
}

// end closes all channels. Callers hold r.mu.
func (r *ProgressRun) end() {
	r.closed = true
	close(r.ch)
	for _, mirror := range r.mirrors {
		close(mirror)
	}
	r.mirrors = nil
}

// ProgressService tracks active generation runs so observers other than the
// originating request (the websocket mirror) can attach to a run's stream.
type ProgressService struct {
	mu   sync.RWMutex
	runs map[string]*ProgressRun
	log  *logger.Logger
}

func NewProgressService(baseLog *logger.Logger) *ProgressService {
	return &ProgressService{
		runs: make(map[string]*ProgressRun),
		log:  baseLog.With("service", "ProgressService"),
	}
}

// StartRun registers a new run for the given book and returns it.
func (s *ProgressService) StartRun(bookID uint) *ProgressRun {
	run := &ProgressRun{
		ID:     uuid.New().String(),
		BookID: bookID,
		ch:     make(chan ProgressEvent, eventBuffer),
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	s.log.Debug("generation run started", "run_id", run.ID, "book_id", bookID)
	return run
}

// GetRun returns the run with the given ID, or nil if it is not active.
func (s *ProgressService) GetRun(runID string) *ProgressRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[runID]
}

// ActiveRunForBook returns the book's in-flight run, if any.
func (s *ProgressService) ActiveRunForBook(bookID uint) *ProgressRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, run := range s.runs {
		if run.BookID == bookID {
			return run
		}
	}
	return nil
}

// EndRun removes a finished run from the registry.
func (s *ProgressService) EndRun(runID string) {
	s.mu.Lock()
	delete(s.runs, runID)
	s.mu.Unlock()
}
