package usage

import (
	"sync"
	"time"
)

// DefaultWindowSize is the number of recent requests kept in memory
const DefaultWindowSize = 1000

// RequestRecord is one completed request kept in the rolling window
type RequestRecord struct {
	RequestID    string    `json:"request_id"`
	Provider     string    `json:"provider"`
	Units        int64     `json:"units"`
	Cost         float64   `json:"cost"`
	LatencyMs    int64     `json:"latency_ms"`
	UsedFallback bool      `json:"used_fallback"`
	CompletedAt  time.Time `json:"completed_at"`
}

// window is a fixed-size ring of the most recent records
type window struct {
	mu      sync.RWMutex
	records []RequestRecord
	next    int
	full    bool
}

func newWindow(size int) *window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &window{records: make([]RequestRecord, size)}
}

func (w *window) push(rec RequestRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.records[w.next] = rec
	w.next++
	if w.next == len(w.records) {
		w.next = 0
		w.full = true
	}
}

// recent returns up to n records, oldest first
func (w *window) recent(n int) []RequestRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()

	size := w.lenLocked()
	if n <= 0 || n > size {
		n = size
	}

	out := make([]RequestRecord, 0, n)
	start := w.next - n
	if start < 0 {
		start += len(w.records)
	}
	for i := 0; i < n; i++ {
		out = append(out, w.records[(start+i)%len(w.records)])
	}
	return out
}

// averageLatency returns the mean latency per provider over the window
func (w *window) averageLatency() map[string]int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	sums := make(map[string]int64)
	counts := make(map[string]int64)
	for i := 0; i < w.lenLocked(); i++ {
		rec := w.records[i]
		sums[rec.Provider] += rec.LatencyMs
		counts[rec.Provider]++
	}

	avg := make(map[string]int64, len(sums))
	for name, sum := range sums {
		avg[name] = sum / counts[name]
	}
	return avg
}

func (w *window) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.records = make([]RequestRecord, len(w.records))
	w.next = 0
	w.full = false
}

// Must be called with mu held
func (w *window) lenLocked() int {
	if w.full {
		return len(w.records)
	}
	return w.next
}
