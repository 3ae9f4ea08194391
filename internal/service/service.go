// Package service implements the Puros use cases on top of the repositories,
// the event producer and the notification sink.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/puros/pkg/errors"
)

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "puros_notifications_total",
		Help: "Total number of notification emails attempted, by kind and outcome",
	},
	[]string{"kind", "outcome"},
)

// storeError passes AppErrors through unchanged and wraps anything else as a
// StoreError.
func storeError(op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Store(fmt.Errorf("%s: %w", op, err))
}

func requireViewer(viewerID string) error {
	if viewerID == "" {
		return apperrors.AuthRequired("")
	}
	return nil
}

// background runs best-effort work that must outlive the request that
// started it.
type background struct {
	wg     sync.WaitGroup
	logger *slog.Logger
}

// Go runs fn on a context detached from ctx's cancellation. Failures are
// logged only.
func (b *background) Go(ctx context.Context, what string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := fn(ctx); err != nil {
			b.logger.WarnContext(ctx, what+" failed", slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until all started work is done.
func (b *background) Wait() {
	b.wg.Wait()
}

var now = func() time.Time { return time.Now().UTC() }
