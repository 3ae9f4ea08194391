package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utafrali/puros/internal/domain"
	apperrors "github.com/utafrali/puros/pkg/errors"
)

// CreateFunc inserts an item and returns it as stored.
type CreateFunc[T any] func(ctx context.Context, viewer domain.Viewer) (T, error)

// DeleteFunc deletes an item owned by viewer and returns the affected rows.
type DeleteFunc func(ctx context.Context, viewer domain.Viewer) (int64, error)

// Collection is a locally displayed list of items the viewer can add to and
// remove from. Creation is authoritative first: an item is shown only after
// the store returns it. Removal is shown only after the store reports a row
// was deleted.
type Collection[T any] struct {
	viewer      ViewerSource
	id          func(T) string
	resource    string
	afterCreate func(ctx context.Context, item T) error
	logger      *slog.Logger

	mu       sync.Mutex
	items    []T
	counters []*Counter
	closed   bool

	hooks sync.WaitGroup
}

// CollectionOption configures a Collection.
type CollectionOption[T any] func(*Collection[T])

// WithCounters links counters that follow the collection's creates and
// removes.
func WithCounters[T any](counters ...*Counter) CollectionOption[T] {
	return func(c *Collection[T]) { c.counters = append(c.counters, counters...) }
}

// WithAfterCreate runs fn asynchronously after each successful create, for
// best-effort side effects such as notifying followers. Its failure is
// logged and never undoes the create.
func WithAfterCreate[T any](fn func(ctx context.Context, item T) error) CollectionOption[T] {
	return func(c *Collection[T]) { c.afterCreate = fn }
}

// WithResource names the items in NotFoundOrNotOwned errors.
func WithResource[T any](name string) CollectionOption[T] {
	return func(c *Collection[T]) { c.resource = name }
}

func WithCollectionLogger[T any](l *slog.Logger) CollectionOption[T] {
	return func(c *Collection[T]) { c.logger = l }
}

// NewCollection creates a collection showing items. id extracts the key
// Remove matches on.
func NewCollection[T any](viewer ViewerSource, id func(T) string, items []T, opts ...CollectionOption[T]) *Collection[T] {
	c := &Collection[T]{
		viewer:   viewer,
		id:       id,
		resource: "item",
		logger:   slog.Default(),
		items:    append([]T(nil), items...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Items returns a copy of the displayed items.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Replace swaps in a freshly loaded list.
func (c *Collection[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.items = append([]T(nil), items...)
}

// Create inserts through fn and appends the stored item. Nothing is shown
// until fn succeeds.
func (c *Collection[T]) Create(ctx context.Context, fn CreateFunc[T]) (T, error) {
	var zero T
	v := c.viewer.Current()
	if v == nil {
		return zero, apperrors.AuthRequired("")
	}

	item, err := fn(ctx, *v)
	if err != nil {
		return zero, err
	}

	c.mu.Lock()
	if !c.closed {
		c.items = append(c.items, item)
		for _, counter := range c.counters {
			counter.Add(1)
		}
	}
	c.mu.Unlock()

	if c.afterCreate != nil {
		c.hooks.Add(1)
		go c.runAfterCreate(context.WithoutCancel(ctx), item)
	}
	return item, nil
}

// Remove deletes the item with the given id through fn. When fn affects no
// rows the item stays and a NotFoundOrNotOwned error is returned.
func (c *Collection[T]) Remove(ctx context.Context, id string, fn DeleteFunc) error {
	v := c.viewer.Current()
	if v == nil {
		return apperrors.AuthRequired("")
	}

	affected, err := fn(ctx, *v)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NotFoundOrNotOwned(c.resource, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	for i, item := range c.items {
		if c.id(item) != id {
			continue
		}
		c.items = append(c.items[:i:i], c.items[i+1:]...)
		for _, counter := range c.counters {
			counter.Add(-1)
		}
		break
	}
	return nil
}

// Close detaches the collection; later results no longer change it.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Wait blocks until every after-create hook has returned.
func (c *Collection[T]) Wait() { c.hooks.Wait() }

func (c *Collection[T]) runAfterCreate(ctx context.Context, item T) {
	defer c.hooks.Done()
	if err := c.afterCreate(ctx, item); err != nil {
		c.logger.Warn("after-create hook failed",
			slog.String("resource", c.resource),
			slog.String("id", c.id(item)),
			slog.String("error", err.Error()),
		)
	}
}
