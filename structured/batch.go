package structured

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RepairEach runs one repair session per input document. Sessions share no
// mutable state, so they run concurrently, bounded by limit (zero or
// negative means unbounded). Results keep input order. The first failure
// cancels the remaining sessions and is returned wrapped with the document
// index.
func RepairEach[T any](ctx context.Context, m *Mender[T], texts []string, limit int) ([]T, error) {
	results := make([]T, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			value, err := m.Repair(ctx, text)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			results[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
