// Package docproc provides bounded-parallel processing helpers used for
// detector fan-out over document parts and for proofreader text chunks.
package docproc

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ErrorFunc is called when processing an item fails. If nil, the error is
// silently skipped; callers that must not lose errors pass a collector.
type ErrorFunc func(name string, err error)

// Map processes items in parallel with at most maxWorkers goroutines and
// returns results in completion order. Individual failures are reported to
// onError and do not stop the batch.
func Map[I any, T any](items []I, maxWorkers int, name func(I) string, fn func(I) (T, error), onError ErrorFunc) []T {
	if len(items) == 0 {
		return nil
	}
	if maxWorkers <= 0 {
		maxWorkers = len(items)
	}

	results := make([]T, 0, len(items))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for _, item := range items {
		p.Go(func() {
			result, err := fn(item)
			if err != nil {
				if onError != nil {
					onError(name(item), err)
				}
				return
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()
	return results
}

// MapOrdered processes items in parallel but returns results in input
// order, with a presence flag per slot for failed items.
func MapOrdered[I any, T any](ctx context.Context, items []I, maxWorkers int, fn func(context.Context, int, I) (T, error), onError ErrorFunc) ([]T, []bool) {
	results := make([]T, len(items))
	ok := make([]bool, len(items))
	if len(items) == 0 {
		return results, ok
	}
	if maxWorkers <= 0 {
		maxWorkers = len(items)
	}

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, item := range items {
		p.Go(func(ctx context.Context) error {
			// A cancelled batch stops spawning work; in-flight calls run
			// to completion and their results are kept or discarded by
			// the caller.
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			result, err := fn(ctx, i, item)
			if err != nil {
				if onError != nil {
					onError("", err)
				}
				return nil
			}
			results[i] = result
			ok[i] = true
			return nil
		})
	}
	_ = p.Wait()
	return results, ok
}
