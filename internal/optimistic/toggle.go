// Package optimistic applies the viewer's mutations to local state before the
// store confirms them, and rolls them back when it does not.
package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/puros/internal/domain"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// ViewerSource reports the signed-in viewer, or nil when nobody is.
type ViewerSource interface {
	Current() *domain.Viewer
}

// ToggleState is a snapshot of a Toggle.
type ToggleState struct {
	On      bool
	Count   int
	Pending bool
}

// CommitFunc performs the authoritative write that moves the toggle to on.
type CommitFunc func(ctx context.Context, viewer domain.Viewer, on bool) error

// ReconcileFunc re-reads the authoritative state after a successful commit.
type ReconcileFunc func(ctx context.Context, viewer domain.Viewer) (on bool, count int, err error)

// Toggle is a binary per-viewer relation with a displayed count, such as a
// like on a review or a follow of a user. A toggle flips local state at once,
// commits in the background of the caller's context and restores the previous
// values if the commit fails. Calls made while a commit is pending are
// ignored.
type Toggle struct {
	viewer    ViewerSource
	commit    CommitFunc
	reconcile ReconcileFunc
	logger    *slog.Logger

	mu       sync.Mutex
	on       bool
	count    int
	pending  bool
	closed   bool
	gen      uint64
	onChange func(ToggleState)
}

// ToggleOption configures a Toggle.
type ToggleOption func(*Toggle)

// WithReconcile re-reads the authoritative state after every successful
// commit. Without it the speculative values are kept.
func WithReconcile(fn ReconcileFunc) ToggleOption {
	return func(t *Toggle) { t.reconcile = fn }
}

// WithToggleChange registers a callback for every state change. It runs
// without the toggle's lock held.
func WithToggleChange(fn func(ToggleState)) ToggleOption {
	return func(t *Toggle) { t.onChange = fn }
}

// WithToggleLogger sets the logger used for failed commits.
func WithToggleLogger(l *slog.Logger) ToggleOption {
	return func(t *Toggle) { t.logger = l }
}

// NewToggle creates an idle toggle with the given initial state.
func NewToggle(viewer ViewerSource, on bool, count int, commit CommitFunc, opts ...ToggleOption) *Toggle {
	t := &Toggle{
		viewer: viewer,
		commit: commit,
		logger: slog.Default(),
		on:     on,
		count:  max(0, count),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns a snapshot.
func (t *Toggle) State() ToggleState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

// Reset replaces the displayed state with freshly loaded values. It is
// ignored while a commit is pending.
func (t *Toggle) Reset(on bool, count int) {
	t.mu.Lock()
	if t.closed || t.pending {
		t.mu.Unlock()
		return
	}
	t.on, t.count = on, max(0, count)
	t.gen++
	t.notifyAndUnlock()
}

// Toggle flips the state and commits it. Without a viewer it returns an
// AuthRequired error and changes nothing. While a previous commit is pending
// it returns nil and does nothing. A failed commit restores the previous
// values and returns the commit's error.
func (t *Toggle) Toggle(ctx context.Context) error {
	v := t.viewer.Current()
	if v == nil {
		return apperrors.AuthRequired("")
	}
	viewer := *v

	t.mu.Lock()
	if t.closed || t.pending {
		t.mu.Unlock()
		return nil
	}
	prevOn, prevCount := t.on, t.count
	t.on = !t.on
	if t.on {
		t.count++
	} else {
		t.count = max(0, t.count-1)
	}
	t.pending = true
	t.gen++
	target := t.on
	t.notifyAndUnlock()

	err := t.commit(ctx, viewer, target)

	t.mu.Lock()
	t.pending = false
	if t.closed {
		t.mu.Unlock()
		return err
	}
	if err != nil {
		t.on, t.count = prevOn, prevCount
	}
	gen := t.gen
	t.notifyAndUnlock()

	if err != nil {
		t.logger.Warn("toggle commit failed, rolled back",
			slog.String("viewer_id", viewer.ID),
			slog.Bool("target", target),
			slog.String("error", err.Error()),
		)
		return err
	}
	if t.reconcile != nil {
		t.reconcileAfter(ctx, viewer, gen)
	}
	return nil
}

// Close detaches the toggle. Results of commits still in flight are ignored.
func (t *Toggle) Close() {
	t.mu.Lock()
	t.closed = true
	t.onChange = nil
	t.mu.Unlock()
}

func (t *Toggle) reconcileAfter(ctx context.Context, viewer domain.Viewer, gen uint64) {
	on, count, err := t.reconcile(ctx, viewer)
	if err != nil {
		t.logger.Warn("toggle reconcile failed",
			slog.String("viewer_id", viewer.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	t.mu.Lock()
	// A newer toggle or reset owns the state now.
	if t.closed || t.pending || t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.on, t.count = on, max(0, count)
	t.notifyAndUnlock()
}

func (t *Toggle) stateLocked() ToggleState {
	return ToggleState{On: t.on, Count: t.count, Pending: t.pending}
}

// notifyAndUnlock releases the lock and then reports the state it held.
func (t *Toggle) notifyAndUnlock() {
	snap, notify := t.stateLocked(), t.onChange
	t.mu.Unlock()
	if notify != nil {
		notify(snap)
	}
}
