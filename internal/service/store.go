package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/rental-marketplace/internal/repository"
)

// StoreOptions bound every repository call.
type StoreOptions struct {
	Timeout time.Duration // per attempt
	Backoff time.Duration // pause before the single retry
}

// DefaultStoreOptions matches the 5 second budget used across handlers.
var DefaultStoreOptions = StoreOptions{Timeout: 5 * time.Second, Backoff: 100 * time.Millisecond}

type storeRunner struct {
	StoreOptions
	isTransient func(error) bool
}

func newStoreRunner(o StoreOptions) storeRunner {
	if o.Timeout <= 0 {
		o.Timeout = DefaultStoreOptions.Timeout
	}
	if o.Backoff < 0 {
		o.Backoff = 0
	}
	return storeRunner{StoreOptions: o, isTransient: repository.IsTransient}
}

// run executes fn with a per-attempt timeout. A transient failure is
// retried once after Backoff; a second transient failure is reported as
// ErrUnavailable. Other errors are returned unchanged.
func (r storeRunner) run(ctx context.Context, op string, fn func(context.Context) error) error {
	err := r.attempt(ctx, fn)
	if err == nil || !r.isTransient(err) || ctx.Err() != nil {
		return err
	}
	log.Printf("store: %s transient failure, retrying once: %v", op, err)

	t := time.NewTimer(r.Backoff)
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-t.C:
	}

	err = r.attempt(ctx, fn)
	if err != nil && r.isTransient(err) {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	return err
}

func (r storeRunner) attempt(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	return fn(cctx)
}

// fetch is run for calls that produce a value.
func fetch[T any](ctx context.Context, r storeRunner, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := r.run(ctx, op, func(c context.Context) error {
		v, err := fn(c)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}
