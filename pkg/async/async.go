package async

import (
	"context"
	"sync"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	once   sync.Once
	done   chan struct{}
	cancel context.CancelFunc
}

// Go executes fn asynchronously and returns its Future.
func Go[U any](ctx context.Context, fn func(context.Context) (U, error)) *Future[U] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[U]{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer cancel()

		// Early exit when the context is already gone.
		if err := ctx.Err(); err != nil {
			f.complete(*new(U), err)
			return
		}

		res, err := fn(ctx)
		f.complete(res, err)
	}()

	return f
}

func (f *Future[U]) complete(res U, err error) {
	f.once.Do(func() {
		f.result = res
		f.err = err
		close(f.done)
	})
}

// Cancel abandons the computation. The result of fn, if any, is discarded
// and Await returns ErrCancelled. Safe to call multiple times and after
// completion, in which case it has no effect on the stored result.
func (f *Future[U]) Cancel() {
	f.cancel()
	f.complete(*new(U), ErrCancelled)
}

// Done is closed once the future has a result or was cancelled.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the result. If ctx ends first, its error is returned and
// the future keeps running.
func (f *Future[U]) Await(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// IsComplete reports whether the future is resolved without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
