package services

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// loadAll runs independent reads concurrently and returns the first error.
func loadAll(ctx context.Context, loads ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, load := range loads {
		g.Go(func() error { return load(gctx) })
	}
	return g.Wait()
}
