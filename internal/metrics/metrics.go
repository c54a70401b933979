// Package metrics provides a minimal instrumentation interface with a no-op
// default and a Prometheus-backed implementation.
package metrics

import (
	"sync"
	"time"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	// IncSession counts a session reaching status (won, given_up, ...).
	IncSession(status string)
	// IncGuess counts a scored guess by result (correct, wrong, unknown).
	IncGuess(result string)
	ObserveCatalogLoad(seconds float64, success bool)
	SetCatalogSize(entities, attributes int)
}

// Guess results passed to IncGuess.
const (
	GuessCorrect = "correct"
	GuessWrong   = "wrong"
	GuessUnknown = "unknown"
)

type noopRecorder struct{}

func (noopRecorder) IncSession(string)                {}
func (noopRecorder) IncGuess(string)                  {}
func (noopRecorder) ObserveCatalogLoad(float64, bool) {}
func (noopRecorder) SetCatalogSize(int, int)          {}

var (
	recMu    sync.RWMutex
	recorder Recorder = noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation. nil restores the no-op.
func SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	recMu.Lock()
	defer recMu.Unlock()
	recorder = r
}

// TimeCatalogLoad times a catalog (re)load.
func TimeCatalogLoad() func(success bool) {
	start := time.Now()
	return func(success bool) {
		Default().ObserveCatalogLoad(time.Since(start).Seconds(), success)
	}
}
