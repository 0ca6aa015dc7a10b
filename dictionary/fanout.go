package dictionary

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// fanOut applies fn to every input, on pool when one is given, and returns
// the kept results in input order. fn reports whether its result is kept.
// The first error cancels the remaining work and is returned.
//
// Tasks running on the pool must not fan out again: a full pool would
// block them on their own children.
func fanOut[T, R any](ctx context.Context, pool *ants.Pool, inputs []T, fn func(context.Context, T) (R, bool, error)) ([]R, error) {
	if pool == nil || len(inputs) < 2 {
		results := make([]R, 0, len(inputs))
		for _, in := range inputs {
			r, ok, err := fn(ctx, in)
			if err != nil {
				return nil, err
			}
			if ok {
				results = append(results, r)
			}
		}
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	slots := make([]R, len(inputs))
	kept := make([]bool, len(inputs))
	for i, in := range inputs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			r, ok, err := fn(ctx, in)
			if err != nil {
				fail(err)
				return
			}
			slots[i], kept[i] = r, ok
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting to worker pool: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]R, 0, len(inputs))
	for i, ok := range kept {
		if ok {
			results = append(results, slots[i])
		}
	}
	return results, nil
}
