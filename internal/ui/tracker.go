package ui

import (
	"math"
	"sync"
	"time"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
)

// etaSmoothingFactor weights a new ETA against the previous one.
const etaSmoothingFactor = 0.3

// Tracker keeps the latest progress record plus derived speed and ETA.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	latest    progress.Progress
	level     Level
	errors    []progress.IndexingError
	startTime time.Time
	lastETA   time.Duration

	lastChunks    int
	lastSpeedCalc time.Time
	currentSpeed  float64
	avgSpeed      float64
	speedSamples  int
}

// TrackerStats is a snapshot of a Tracker.
type TrackerStats struct {
	Progress   progress.Progress
	Level      Level
	Fraction   float64 // 0.0-1.0
	Elapsed    time.Duration
	ETA        time.Duration
	Speed      float64 // chunks/sec, smoothed
	ErrorCount int
}

// NewTracker creates a tracker starting now.
func NewTracker() *Tracker {
	now := time.Now()
	return &Tracker{startTime: now, lastSpeedCalc: now}
}

// Update records p and returns the level it refers to.
func (t *Tracker) Update(p progress.Progress) Level {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.level = classify(t.latest, p)
	t.latest = p

	now := time.Now()
	if elapsed := now.Sub(t.lastSpeedCalc); elapsed >= 500*time.Millisecond {
		if delta := p.ProcessedChunks - t.lastChunks; delta > 0 {
			speed := float64(delta) / elapsed.Seconds()
			t.currentSpeed = speed
			t.speedSamples++
			if t.speedSamples == 1 {
				t.avgSpeed = speed
			} else {
				t.avgSpeed = 0.2*speed + 0.8*t.avgSpeed
			}
		}
		t.lastChunks = p.ProcessedChunks
		t.lastSpeedCalc = now
	}
	return t.level
}

// AddError records a unit failure.
func (t *Tracker) AddError(e progress.IndexingError) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, e)
}

// Errors returns the recorded failures.
func (t *Tracker) Errors() []progress.IndexingError {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]progress.IndexingError, len(t.errors))
	copy(out, t.errors)
	return out
}

// Stats returns the current snapshot. It takes the write lock because the
// ETA is smoothed against the previous value.
func (t *Tracker) Stats() TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	fraction := math.Min(t.latest.Percentage/100, 1)
	return TrackerStats{
		Progress:   t.latest,
		Level:      t.level,
		Fraction:   fraction,
		Elapsed:    time.Since(t.startTime),
		ETA:        t.calculateETA(fraction),
		Speed:      t.avgSpeed,
		ErrorCount: len(t.errors),
	}
}

// calculateETA must be called with the lock held.
func (t *Tracker) calculateETA(fraction float64) time.Duration {
	if fraction <= 0 || fraction >= 1 {
		return 0
	}

	elapsed := time.Since(t.startTime)
	remaining := time.Duration(float64(elapsed)/fraction) - elapsed
	if remaining < 0 {
		return 0
	}

	if t.lastETA == 0 {
		t.lastETA = remaining
		return remaining
	}
	smoothed := time.Duration(etaSmoothingFactor*float64(remaining) + (1-etaSmoothingFactor)*float64(t.lastETA))
	t.lastETA = smoothed
	return smoothed
}
