package compile

import (
	"context"
	"sync"
)

// runWorkers fans names out over a bounded pool and waits for all of
// them. The first error cancels the derived context, so in-flight
// workers can bail out; queued names after that are skipped.
func runWorkers(ctx context.Context, workers int, names []string,
	fn func(ctx context.Context, name string) error) error {
	//
	if workers < 1 {
		workers = 1
	}
	if workers > len(names) {
		workers = len(names)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	jobs := make(chan string)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if ctx.Err() != nil {
					continue // drain after cancellation
				}
				if err := fn(ctx, name); err != nil {
					fail(err)
				}
			}
		}()
	}
	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()
	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	return firstErr
}
