// Package async runs a function in its own goroutine and hands back a Future
// that can be awaited or cancelled.
//
// Each Future owns a context derived from the caller's. Cancel cancels that
// context, so the running function sees ctx.Done and Await returns
// ErrCancelled even if the function ignores cancellation and completes later.
// The account flow uses this to abandon an in-flight identity-provider call
// when the user leaves the step that started it.
//
//	f := async.Go(ctx, func(ctx context.Context) (string, error) {
//	    return client.Call(ctx)
//	})
//	defer f.Cancel()
//	res, err := f.Await(ctx)
package async
