package ecf

import (
	"sync"
	"time"
)

// BatchEntry is the outcome of one batch input, at its input position.
type BatchEntry struct {
	Index  int
	Result *Result
	Err    error
}

// ResultAggregator collects worker results back into input order.
type ResultAggregator struct {
	mu             sync.Mutex
	entries        []BatchEntry
	received       []bool
	startTime      time.Time
	totalDocuments int
	processedCount int
	failedCount    int
}

// NewResultAggregator creates an aggregator for totalDocuments entries.
func NewResultAggregator(totalDocuments int) *ResultAggregator {
	entries := make([]BatchEntry, totalDocuments)
	for i := range entries {
		entries[i].Index = i
	}
	return &ResultAggregator{
		entries:        entries,
		received:       make([]bool, totalDocuments),
		startTime:      time.Now(),
		totalDocuments: totalDocuments,
	}
}

// Add stores a result at its index. Out-of-range and duplicate results are ignored.
func (a *ResultAggregator) Add(r GenerationResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Index < 0 || r.Index >= a.totalDocuments || a.received[r.Index] {
		return
	}
	a.received[r.Index] = true
	a.entries[r.Index] = BatchEntry{Index: r.Index, Result: r.Result, Err: r.Err}

	if r.Err != nil || r.Result.Invalid() {
		a.failedCount++
	} else {
		a.processedCount++
	}
}

// Collect drains results until the channel is closed.
func (a *ResultAggregator) Collect(results <-chan GenerationResult) {
	for r := range results {
		a.Add(r)
	}
}

// Entries returns the entries in input order. Entries that never produced a
// result carry missingErr.
func (a *ResultAggregator) Entries(missingErr error) []BatchEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]BatchEntry, len(a.entries))
	copy(out, a.entries)
	for i := range out {
		if !a.received[i] {
			out[i].Err = missingErr
		}
	}
	return out
}

// GetStats returns processing statistics
func (a *ResultAggregator) GetStats() ProcessingStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	duration := time.Since(a.startTime)
	var throughput float64
	if duration.Seconds() > 0 {
		throughput = float64(a.processedCount) / duration.Seconds()
	}
	var successRate float64
	if a.totalDocuments > 0 {
		successRate = float64(a.processedCount) / float64(a.totalDocuments) * 100
	}

	return ProcessingStats{
		TotalDocuments: a.totalDocuments,
		ProcessedCount: a.processedCount,
		FailedCount:    a.failedCount,
		Duration:       duration,
		Throughput:     throughput,
		SuccessRate:    successRate,
	}
}

// ProcessingStats contains processing statistics
type ProcessingStats struct {
	TotalDocuments int
	ProcessedCount int
	FailedCount    int
	Duration       time.Duration
	Throughput     float64 // Documents per second
	SuccessRate    float64 // Percentage
}
