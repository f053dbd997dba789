// Package async provides small generic helpers for running computations
// asynchronously and waiting for their completion.
//
// The package is centred around Future, the eventual result of an operation.
// Async starts the supplied function in its own goroutine and returns a
// *Future immediately. Resolved wraps a value that is already known, which
// lets callers return one result type from both synchronous and asynchronous
// code paths without spawning a goroutine for the synchronous ones.
//
// # Usage
//
//	future := async.Async(ctx, path, func(ctx context.Context, p string) (*resample.Buffer, error) {
//		return resample.Resample(ctx, p, 200)
//	})
//
//	// do other work …
//	buf, err := future.Await()
//
// A caller that must not block longer than its own request uses AwaitContext:
//
//	buf, err := future.AwaitContext(r.Context())
//
// WaitAll collects the results of several futures in order.
//
// # Cancellation
//
// Async always runs the function, even with a context that is already done,
// and leaves the reaction to cancellation to the function itself. This keeps
// "exactly once" semantics for functions that release resources or update
// bookkeeping on every exit path.
package async
