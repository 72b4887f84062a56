// Package model wraps a single inference-capable classifier behind an
// initialize-once lifecycle and a single in-flight admission guard, so
// at most one prediction executes at a time no matter how many callers
// arrive concurrently.
package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inferd/internal/classifier"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
)

// Config encapsulates tunables for Handle construction.
type Config struct {
	// WeightsPath is the weights file loaded by Initialize.
	WeightsPath string
	// MaxQueueDepth bounds callers waiting for the in-flight slot.
	MaxQueueDepth int
	// MaxWait bounds how long a caller queues before too-busy.
	MaxWait time.Duration
}

// Handle owns exactly one classifier instance and serializes access to it.
type Handle struct {
	mu    sync.RWMutex
	state State
	err   string
	calls uint64

	weightsPath string
	model       *classifier.Model

	// Admission primitives
	genCh   chan struct{} // size 1: single in-flight prediction
	queueCh chan struct{} // buffered: queue slots
	maxWait time.Duration
}

// NewHandle constructs an uninitialized handle. Initialize must be called
// before Predict.
func NewHandle(cfg Config) *Handle {
	depth := cfg.MaxQueueDepth
	if depth <= 0 {
		depth = defaultMaxQueueDepth
	}
	wait := cfg.MaxWait
	if wait <= 0 {
		wait = defaultMaxWait
	}
	return &Handle{
		state:       StateUnloaded,
		weightsPath: cfg.WeightsPath,
		genCh:       make(chan struct{}, 1),
		queueCh:     make(chan struct{}, depth),
		maxWait:     wait,
	}
}

// Initialize loads the underlying classifier exactly once.
// A second call fails; a load failure moves the handle to the error state.
func (h *Handle) Initialize(ctx context.Context) error {
	h.mu.Lock()
	switch h.state {
	case StateReady, StateLoading:
		h.mu.Unlock()
		return ErrAlreadyInitialized()
	}
	h.state = StateLoading
	h.err = ""
	h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		h.setError(err.Error())
		return ErrInitialization(fmt.Sprintf("initialize canceled: %v", err))
	}
	m, err := classifier.Load(h.weightsPath)
	if err != nil {
		h.setError(err.Error())
		return ErrInitialization(fmt.Sprintf("load model: %v", err))
	}
	h.mu.Lock()
	h.model = m
	h.state = StateReady
	h.mu.Unlock()
	return nil
}

// Predict validates the input shape, acquires the in-flight guard and runs
// inference. The guard is released on every exit path.
func (h *Handle) Predict(ctx context.Context, input []float64) ([]float64, error) {
	h.mu.RLock()
	st := h.state
	m := h.model
	h.mu.RUnlock()
	if st != StateReady || m == nil {
		return nil, ErrInitialization("model not initialized")
	}
	if len(input) != m.Dim() {
		return nil, ErrInvalidInput(fmt.Sprintf("input length %d does not match model dimension %d", len(input), m.Dim()))
	}

	release, err := h.beginPredict(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	dist, err := m.Predict(input)
	if err != nil {
		// Shape was checked above; anything surfacing here is a model fault.
		return nil, ErrInvalidInput(err.Error())
	}
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return dist, nil
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Ready reports whether the handle can serve predictions.
func (h *Handle) Ready() bool { return h.State() == StateReady }

// Stats returns served-call count, current queue length and in-flight count.
func (h *Handle) Stats() (calls uint64, queueLen, inflight int) {
	h.mu.RLock()
	calls = h.calls
	h.mu.RUnlock()
	return calls, len(h.queueCh), len(h.genCh)
}

// LastError returns the message recorded on the last failed initialization.
func (h *Handle) LastError() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Dim returns the model input dimension, or 0 when uninitialized.
func (h *Handle) Dim() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.model == nil {
		return 0
	}
	return h.model.Dim()
}

// Classes returns the model class count, or 0 when uninitialized.
func (h *Handle) Classes() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.model == nil {
		return 0
	}
	return h.model.Classes()
}

func (h *Handle) setError(msg string) {
	h.mu.Lock()
	h.state = StateError
	h.err = msg
	h.mu.Unlock()
}
