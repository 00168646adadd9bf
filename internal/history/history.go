// Package history keeps an append-only log of recent fill runs.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/javajack/diaryfill"
)

// Entry is one recorded run.
type Entry struct {
	RequestID string             `json:"request_id"`
	Endpoint  string             `json:"endpoint"`
	Filename  string             `json:"filename"`
	Status    int                `json:"status"`
	Error     string             `json:"error,omitempty"`
	Summary   *diaryfill.Summary `json:"summary,omitempty"`
	At        time.Time          `json:"at"`
}

// Recorder stores run entries. Implementations are safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
}

// MemoryRecorder keeps the latest entries in a bounded in-process buffer.
type MemoryRecorder struct {
	mu      sync.Mutex
	limit   int
	entries []Entry // oldest first
}

// NewMemoryRecorder creates a recorder that keeps at most limit entries.
func NewMemoryRecorder(limit int) *MemoryRecorder {
	if limit <= 0 {
		limit = 1
	}
	return &MemoryRecorder{limit: limit}
}

func (m *MemoryRecorder) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.limit; over > 0 {
		m.entries = append(m.entries[:0], m.entries[over:]...)
	}
	return nil
}

func (m *MemoryRecorder) Recent(_ context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}
