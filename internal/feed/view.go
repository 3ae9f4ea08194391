// Package feed is the client-side model of a paginated, filterable review
// feed.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/utafrali/puros/internal/domain"
	"github.com/utafrali/puros/internal/query"
)

// NoticeLoadFailed is shown when a fetch fails; the previous rows stay.
const NoticeLoadFailed = "failed to load reviews"

// Request asks a Source for one page of a feed.
type Request struct {
	Filters       query.FilterState
	SubjectUserID string
	Page          int
	PageSize      int
}

// Result is one page of reviews plus the total matching count.
type Result struct {
	Reviews []domain.Review
	Total   int
}

// Source fetches feed pages.
type Source interface {
	Fetch(ctx context.Context, req Request) (Result, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, req Request) (Result, error)

func (f SourceFunc) Fetch(ctx context.Context, req Request) (Result, error) { return f(ctx, req) }

// State is a snapshot of a View.
type State struct {
	Reviews     []domain.Review
	Page        int
	PageSize    int
	Total       int
	PageCount   int
	HasNext     bool
	HasPrev     bool
	Loading     bool
	Notice      string
	Filters     query.FilterState
	Pending     query.FilterState
	PanelOpen   bool
	FilterCount int
}

// View owns the filters, paginator and rows of one rendered feed. Every
// navigation issues a fetch tagged with a new token; only the response for
// the latest token is applied and superseded fetches are canceled. After
// Close no callback changes state.
type View struct {
	source  Source
	subject string
	logger  *slog.Logger

	mu       sync.Mutex
	filters  *Filters
	pager    *Paginator
	rows     []domain.Review
	loading  bool
	notice   string
	token    uint64
	cancel   context.CancelFunc
	closed   bool
	onChange func(State)

	root     context.Context
	stop     context.CancelFunc
	inflight sync.WaitGroup
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithSubject scopes the feed to one author's reviews.
func WithSubject(userID string) ViewOption {
	return func(v *View) { v.subject = userID }
}

// WithOnChange registers a callback receiving a snapshot after every state
// change. It runs without the view's lock held.
func WithOnChange(fn func(State)) ViewOption {
	return func(v *View) { v.onChange = fn }
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *slog.Logger) ViewOption {
	return func(v *View) { v.logger = l }
}

// NewView creates a view bound to ctx; canceling ctx has the same effect as
// Close on in-flight fetches. No fetch is issued until Refresh.
func NewView(ctx context.Context, source Source, pageSize int, opts ...ViewOption) *View {
	root, stop := context.WithCancel(ctx)
	v := &View{
		source:  source,
		logger:  slog.Default(),
		filters: NewFilters(),
		pager:   NewPaginator(pageSize),
		root:    root,
		stop:    stop,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Refresh refetches the current page.
func (v *View) Refresh() { v.mutate(func() bool { return true }) }

// GoTo moves to page n (clamped) and fetches it if the page changed.
func (v *View) GoTo(n int) { v.mutate(func() bool { return v.pager.GoTo(n) }) }

func (v *View) Next()  { v.mutate(v.pager.Next) }
func (v *View) Prev()  { v.mutate(v.pager.Prev) }
func (v *View) First() { v.mutate(v.pager.First) }
func (v *View) Last()  { v.mutate(v.pager.Last) }

// SetPageSize changes the page size, returns to page 1 and refetches.
func (v *View) SetPageSize(n int) { v.mutate(func() bool { return v.pager.SetPageSize(n) }) }

// OpenPanel copies the active filters into the pending copy.
func (v *View) OpenPanel() { v.edit(v.filters.OpenPanel) }

// ClosePanel hides the filter panel without applying.
func (v *View) ClosePanel() { v.edit(v.filters.ClosePanel) }

// EditPending changes one pending filter field. The feed is not refetched.
func (v *View) EditPending(field Field, value string) {
	v.edit(func() { v.filters.EditPending(field, value) })
}

// ClearPending resets the pending filters.
func (v *View) ClearPending() { v.edit(v.filters.ClearPending) }

// Apply commits the pending filters, returns to page 1 and refetches.
func (v *View) Apply() {
	v.mutate(func() bool {
		v.filters.Apply()
		v.pager.First()
		return true
	})
}

// State returns a snapshot.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Wait blocks until no fetch is in flight.
func (v *View) Wait() { v.inflight.Wait() }

// Close cancels in-flight fetches and waits for them to return. Later calls
// are no-ops.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.onChange = nil
	v.mu.Unlock()

	v.stop()
	v.inflight.Wait()
}

func (v *View) edit(fn func()) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	fn()
	snap, notify := v.snapshotLocked(), v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}

// mutate applies fn under the lock and, when it reports a change, starts a
// fetch for the resulting page.
func (v *View) mutate(fn func() bool) {
	v.mu.Lock()
	if v.closed || !fn() {
		v.mu.Unlock()
		return
	}

	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(v.root)
	v.cancel = cancel
	v.token++
	token := v.token
	req := Request{
		Filters:       v.filters.Active(),
		SubjectUserID: v.subject,
		Page:          v.pager.Page(),
		PageSize:      v.pager.Size(),
	}
	v.loading = true
	v.inflight.Add(1)
	snap, notify := v.snapshotLocked(), v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(snap)
	}

	go v.fetch(ctx, cancel, token, req)
}

func (v *View) fetch(ctx context.Context, cancel context.CancelFunc, token uint64, req Request) {
	defer v.inflight.Done()
	defer cancel()

	res, err := v.source.Fetch(ctx, req)

	v.mu.Lock()
	if v.closed || token != v.token {
		v.mu.Unlock()
		return
	}
	v.loading = false
	v.cancel = nil

	refetch := false
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			v.logger.Warn("feed fetch failed",
				slog.Int("page", req.Page),
				slog.String("error", err.Error()),
			)
		}
		v.notice = NoticeLoadFailed
	} else {
		v.notice = ""
		v.rows = res.Reviews
		// The total can shrink under us; land on the last real page.
		refetch = v.pager.SetTotal(res.Total)
	}
	snap, notify := v.snapshotLocked(), v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
	if refetch {
		v.Refresh()
	}
}

func (v *View) snapshotLocked() State {
	return State{
		Reviews:     append([]domain.Review(nil), v.rows...),
		Page:        v.pager.Page(),
		PageSize:    v.pager.Size(),
		Total:       v.pager.Total(),
		PageCount:   v.pager.PageCount(),
		HasNext:     v.pager.HasNext(),
		HasPrev:     v.pager.HasPrev(),
		Loading:     v.loading,
		Notice:      v.notice,
		Filters:     v.filters.Active(),
		Pending:     v.filters.Pending(),
		PanelOpen:   v.filters.PanelOpen(),
		FilterCount: v.filters.ActiveFilterCount(),
	}
}
