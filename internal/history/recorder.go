package history

import (
	"context"
	"fmt"

	"github.com/synka777/shlerp-cmd/internal/rules"
)

// Recorder applies the list limits on top of a Store.
type Recorder struct {
	store  Store
	limits Limits
}

// NewRecorder returns a recorder bound to store.
func NewRecorder(store Store, limits Limits) *Recorder {
	return &Recorder{store: store, limits: limits}
}

// Store returns the underlying store.
func (r *Recorder) Store() Store { return r.store }

// Limits returns the configured list limits.
func (r *Recorder) Limits() Limits { return r.limits }

// Load reads the history and trims it to the current limits. On failure it
// returns an empty history together with the error so callers can go on
// without it.
func (r *Recorder) Load(ctx context.Context) (History, error) {
	h, err := r.store.Load(ctx)
	if err != nil {
		return Empty(), err
	}
	h.EnforceLimits(r.limits)
	return h, nil
}

// Record re-reads the persisted history, moves name to the front of its
// category list and saves the result.
func (r *Recorder) Record(ctx context.Context, name string, cat rules.Category) (History, error) {
	if !cat.Valid() {
		return Empty(), fmt.Errorf("%w: unknown category %q", ErrHistoryUnavailable, cat)
	}
	h, err := r.store.Load(ctx)
	if err != nil {
		// Start over rather than losing the new entry.
		h = Empty()
	}
	h.EnforceLimits(r.limits)
	h.Record(cat, name, r.limits.For(cat))
	if err := r.store.Save(ctx, h); err != nil {
		return h, err
	}
	return h, nil
}

// Reset replaces the persisted history with an empty one.
func (r *Recorder) Reset(ctx context.Context) error {
	return r.store.Save(ctx, Empty())
}
