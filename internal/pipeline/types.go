package pipeline

import (
	"time"

	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/pipeline/restock"
)

// HistorySourceName labels the order history fetch in results and metrics.
const HistorySourceName = "order_history"

// Recorder receives fetch outcomes for monitoring.
type Recorder interface {
	UpstreamFailure(source string)
	ObserveFetch(source string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) UpstreamFailure(string)             {}
func (nopRecorder) ObserveFetch(string, time.Duration) {}

// CollectConfig holds configuration for a collection run
type CollectConfig struct {
	WorkerCount   int           // Number of concurrent fetches
	FetchTimeout  time.Duration // Per attempt; zero means no timeout
	RetryAttempts int           // Attempts per source, including the first
	RetryBackoff  time.Duration // Backoff duration between retries
	HistoryWindow time.Duration // How far back order history is read
}

// DefaultCollectConfig returns sensible defaults
func DefaultCollectConfig() CollectConfig {
	return CollectConfig{
		WorkerCount:   4,
		FetchTimeout:  2 * time.Minute,
		RetryAttempts: 2,
		RetryBackoff:  2 * time.Second,
		HistoryWindow: 30 * 24 * time.Hour,
	}
}

// FetchStatus represents the outcome of a single source fetch
type FetchStatus string

const (
	StatusCompleted FetchStatus = "completed"
	StatusFailed    FetchStatus = "failed"
)

// FetchResult tracks the fetch of a single source
type FetchResult struct {
	Source   string
	Status   FetchStatus
	Attempts int
	Duration time.Duration
	Err      error
}

// Snapshot is everything one restock computation reads. Failed sources contribute nothing
// and are listed in Unavailable.
type Snapshot struct {
	Payloads    []restock.RawPayload
	History     []domain.OrderLine
	Unavailable []string
	Results     []FetchResult
	CollectedAt time.Time
}

// Degraded reports whether any source failed.
func (s Snapshot) Degraded() bool {
	return len(s.Unavailable) > 0
}
