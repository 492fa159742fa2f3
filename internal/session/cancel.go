package session

import (
	"context"
	"sync/atomic"
)

// CancelToken is an advisory cross-thread cancellation flag. The owning side
// sets it; session code only polls it at defined checkpoints. It may be
// reset and reused across calls.
type CancelToken struct {
	cancelled atomic.Bool
}

// Cancel marks the token. Safe to call from any goroutine.
func (t *CancelToken) Cancel() { t.cancelled.Store(true) }

// IsCancelled reports whether the token was set.
func (t *CancelToken) IsCancelled() bool { return t.cancelled.Load() }

// Reset clears the token for reuse.
func (t *CancelToken) Reset() { t.cancelled.Store(false) }

// ProgressFunc receives best-effort progress notifications: a fraction in
// [0,1] plus a stage name. Never required for correctness.
type ProgressFunc func(fraction float64, stage string)

// TokenFunc receives each decoded token fragment as it streams.
type TokenFunc func(piece string)

// cancelled reports whether either the context or the token requests
// cancellation. Both are optional.
func cancelled(ctx context.Context, tok *CancelToken) bool {
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	return tok != nil && tok.IsCancelled()
}

// report invokes a progress callback, swallowing callback panics so a
// misbehaving observer cannot abort the operation it is watching.
func report(cb ProgressFunc, fraction float64, stage string) {
	if cb == nil {
		return
	}
	defer func() { _ = recover() }()
	cb(fraction, stage)
}

// emit invokes a token callback with the same panic shield as report.
func emit(cb TokenFunc, piece string) {
	if cb == nil {
		return
	}
	defer func() { _ = recover() }()
	cb(piece)
}
