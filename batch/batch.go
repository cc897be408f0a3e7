// Package batch implements the bounded-parallelism batch driver
// described in spec.md §6: an iterable of items, an operation, a
// parallelism bound (default host CPU count), and a progress sink,
// producing a per-item {success | failure | cancelled} outcome. No
// pack repo imports golang.org/x/sync/errgroup, so this is a plain
// sync.WaitGroup plus a buffered-channel semaphore, the stdlib
// bounded-fan-out idiom spec.md §5's concurrency model describes,
// rather than reached-for tooling nothing in the retrieved pack uses.
package batch

import (
	"context"
	"runtime"
	"sync"
)

// Outcome is the per-item result of running Run's operation, matching
// spec.md §6's {success(value) | failure(error) | cancelled} shape.
type Outcome[T any] struct {
	Index     int
	Value     T
	Err       error
	Cancelled bool
}

// Succeeded reports whether this item completed without error or
// cancellation.
func (o Outcome[T]) Succeeded() bool { return o.Err == nil && !o.Cancelled }

// Progress is called once per completed item, in completion order
// (which may differ from input order under concurrency).
type Progress[T any] func(Outcome[T])

// Options configures a Run call. A zero Options uses the host CPU
// count for Parallelism and a no-op Progress.
type Options[T any] struct {
	Parallelism int
	Progress    Progress[T]
}

// Run applies op to every item in items, bounded to opts.Parallelism
// concurrent operations (defaulting to runtime.NumCPU()), and returns
// one Outcome per item in input order. If ctx is cancelled before an
// item's operation starts, that item (and every item after it that
// hasn't started) is reported Cancelled rather than run.
func Run[T any, I any](ctx context.Context, items []I, op func(context.Context, I) (T, error), opts Options[T]) []Outcome[T] {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(Outcome[T]) {}
	}

	results := make([]Outcome[T], len(items))
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup

	for i, item := range items {
		i, item := i, item
		select {
		case <-ctx.Done():
			results[i] = Outcome[T]{Index: i, Cancelled: true}
			progress(results[i])
			continue
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var out Outcome[T]
			select {
			case <-ctx.Done():
				out = Outcome[T]{Index: i, Cancelled: true}
			default:
				value, err := op(ctx, item)
				out = Outcome[T]{Index: i, Value: value, Err: err}
			}
			results[i] = out
			progress(out)
		}()
	}
	wg.Wait()
	return results
}
