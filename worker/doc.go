// Package worker provides a bounded worker pool with admission control.
//
// Submit never blocks: when the queue is full it fails with ErrQueueFull,
// which carries errors.CodeOverloaded so callers can back off. Do submits
// a task and waits for its result, honoring the caller's context.
//
//	pool := worker.NewPool(worker.DefaultConfig())
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(5 * time.Second)
//
//	err := pool.Do(ctx, func(ctx context.Context) error {
//	    return fetch(ctx)
//	})
//
// Statistics are always tracked. Prometheus metrics are registered when
// WithRegisterer is given.
package worker
