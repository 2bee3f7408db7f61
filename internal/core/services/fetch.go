package services

import (
	"context"
	"sync"
	"time"
)

// fetchEach runs fn over items concurrently with bounded fan-out and a
// per-call timeout, returning results in input order. A failed or timed-out
// call leaves the zero value at its slot; callers treat that as "no
// results". Selection from the results stays with the caller so the
// deterministic RNG sequence is untouched by completion order.
func fetchEach[T, R any](ctx context.Context, fanOut int, timeout time.Duration, items []T, fn func(context.Context, T) (R, error)) []R {
	if fanOut < 1 {
		fanOut = 1
	}
	results := make([]R, len(items))
	sem := make(chan struct{}, fanOut)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if r, err := fn(callCtx, item); err == nil {
				results[i] = r
			}
		}(i, item)
	}
	wg.Wait()
	return results
}
