package model

import (
	"context"
	"time"
)

// beginPredict reserves a queue slot and then the single in-flight slot.
// Returns a release func to be deferred.
func (h *Handle) beginPredict(ctx context.Context) (func(), error) {
	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	// Try to reserve a queue slot with timeout
	timer := time.NewTimer(h.maxWait)
	defer timer.Stop()
	select {
	case h.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{name: "model"}
	}

	// Wait to acquire the single in-flight slot
	acquired := false
	defer func() {
		if !acquired {
			<-h.queueCh
		}
	}()
	// Check for cancellation again before blocking on the in-flight slot
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	timer2 := time.NewTimer(h.maxWait)
	defer timer2.Stop()
	select {
	case h.genCh <- struct{}{}:
		acquired = true
		return func() { <-h.genCh; <-h.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer2.C:
		return func() {}, tooBusyError{name: "model"}
	}
}
