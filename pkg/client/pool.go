package client

import (
	"context"
	"sync"

	"inferd/pkg/types"
)

// FetchAll reads every element of the hosted collection using a pool of
// workers, each fetching one element per task. The result preserves element
// order. Each task pays only for the element it reads, not for a copy of
// the whole collection.
func FetchAll(ctx context.Context, col *CollectionProxy, workers int) ([]types.RawValue, error) {
	n, err := col.Length(ctx)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n && n > 0 {
		workers = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]types.RawValue, n)
	indices := make(chan int)
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				v, err := col.Get(ctx, i)
				if err != nil {
					errCh <- err
					cancel()
					return
				}
				out[i] = v
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case indices <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
