// Package recognize defines the recognition-engine contract and the parallel
// fan-out that joins results from every registered adapter.
package recognize

import (
	"context"
	"log"
	"sync"
	"time"

	"homework-check/api/internal/region"
)

// Adapter wraps one external recognition engine. Adapters must not share
// mutable state with each other.
type Adapter interface {
	Name() string
	Extract(ctx context.Context, img []byte, preprocess bool) ([]region.TextRegion, error)
}

// AdapterTimeout bounds a single engine call. Exceeding it counts as that
// adapter returning nothing, not as a fatal error. Variable so tests can
// shorten it.
var AdapterTimeout = 25 * time.Second

type extracted struct {
	regs []region.TextRegion
	err  error
}

// ExtractAll fans out to every adapter in parallel and joins before fusion.
// A failing or timed-out adapter is logged and skipped; the pipeline keeps
// going with whatever succeeded. The caller decides whether zero usable
// results is an error.
//
// The join waits at most AdapterTimeout per adapter even when the engine call
// ignores its context: the blocking call runs in its own goroutine and the
// collector abandons it at the deadline.
func ExtractAll(ctx context.Context, adapters []Adapter, img []byte, preprocess bool) [][]region.TextRegion {
	if len(adapters) == 0 {
		return nil
	}

	results := make([][]region.TextRegion, len(adapters))
	var wg sync.WaitGroup
	for i, a := range adapters {
		wg.Add(1)
		go func(i int, a Adapter) {
			defer wg.Done()
			actx, cancel := context.WithTimeout(ctx, AdapterTimeout)
			defer cancel()

			ch := make(chan extracted, 1)
			go func() {
				regs, err := a.Extract(actx, img, preprocess)
				ch <- extracted{regs: regs, err: err}
			}()

			select {
			case <-actx.Done():
				log.Printf("recognize: adapter %s timed out: %v", a.Name(), actx.Err())
			case r := <-ch:
				if r.err != nil {
					log.Printf("recognize: adapter %s failed: %v", a.Name(), r.err)
					return
				}
				results[i] = r.regs
			}
		}(i, a)
	}
	wg.Wait()

	out := make([][]region.TextRegion, 0, len(results))
	for _, r := range results {
		if len(r) > 0 {
			out = append(out, r)
		}
	}
	return out
}
