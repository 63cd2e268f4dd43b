// internal/utils/metrics.go
package utils

import (
	"sync/atomic"
	"time"
)

// Metrics keeps process-wide counters for generation activity. Counters are
// atomics so services can bump them without coordination.
type Metrics struct {
	startedAt time.Time

	summaryRunsStarted   int64
	summaryRunsCompleted int64
	summaryRunsFailed    int64
	audioRunsStarted     int64
	audioRunsCompleted   int64
	audioRunsFailed      int64
	llmCalls             int64
	llmFailures          int64
	ttsCalls             int64
	ttsFailures          int64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	UptimeSeconds        int64 `json:"uptime_seconds"`
	SummaryRunsStarted   int64 `json:"summary_runs_started"`
	SummaryRunsCompleted int64 `json:"summary_runs_completed"`
	SummaryRunsFailed    int64 `json:"summary_runs_failed"`
	AudioRunsStarted     int64 `json:"audio_runs_started"`
	AudioRunsCompleted   int64 `json:"audio_runs_completed"`
	AudioRunsFailed      int64 `json:"audio_runs_failed"`
	LLMCalls             int64 `json:"llm_calls"`
	LLMFailures          int64 `json:"llm_failures"`
	TTSCalls             int64 `json:"tts_calls"`
	TTSFailures          int64 `json:"tts_failures"`
}

var globalMetrics = &Metrics{startedAt: time.Now()}

// GetMetrics returns the process-wide metrics instance.
func GetMetrics() *Metrics {
	return globalMetrics
}

func (m *Metrics) SummaryRunStarted()   { atomic.AddInt64(&m.summaryRunsStarted, 1) }
func (m *Metrics) SummaryRunCompleted() { atomic.AddInt64(&m.summaryRunsCompleted, 1) }
func (m *Metrics) SummaryRunFailed()    { atomic.AddInt64(&m.summaryRunsFailed, 1) }
func (m *Metrics) AudioRunStarted()     { atomic.AddInt64(&m.audioRunsStarted, 1) }
func (m *Metrics) AudioRunCompleted()   { atomic.AddInt64(&m.audioRunsCompleted, 1) }
func (m *Metrics) AudioRunFailed()      { atomic.AddInt64(&m.audioRunsFailed, 1) }
func (m *Metrics) LLMCall()             { atomic.AddInt64(&m.llmCalls, 1) }
func (m *Metrics) LLMFailure()          { atomic.AddInt64(&m.llmFailures, 1) }
func (m *Metrics) TTSCall()             { atomic.AddInt64(&m.ttsCalls, 1) }
func (m *Metrics) TTSFailure()          { atomic.AddInt64(&m.ttsFailures, 1) }

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		UptimeSeconds:        int64(time.Since(m.startedAt).Seconds()),
		SummaryRunsStarted:   atomic.LoadInt64(&m.summaryRunsStarted),
		SummaryRunsCompleted: atomic.LoadInt64(&m.summaryRunsCompleted),
		SummaryRunsFailed:    atomic.LoadInt64(&m.summaryRunsFailed),
		AudioRunsStarted:     atomic.LoadInt64(&m.audioRunsStarted),
		AudioRunsCompleted:   atomic.LoadInt64(&m.audioRunsCompleted),
		AudioRunsFailed:      atomic.LoadInt64(&m.audioRunsFailed),
		LLMCalls:             atomic.LoadInt64(&m.llmCalls),
		LLMFailures:          atomic.LoadInt64(&m.llmFailures),
		TTSCalls:             atomic.LoadInt64(&m.ttsCalls),
		TTSFailures:          atomic.LoadInt64(&m.ttsFailures),
	}
}
