package payroll

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchItem pairs a shift with the guide it is priced under.
type BatchItem struct {
	Shift Shift
	Guide PayGuide
}

// CalculateBatch prices items concurrently, at most limit at a time
// (limit <= 0 means unbounded). Results keep the order of items. The first
// failure cancels the remaining work and is returned wrapped with the index
// of the failing item.
func CalculateBatch(ctx context.Context, items []BatchItem, limit int, opts ...CalcOption) ([]PayCalculationResult, error) {
	results := make([]PayCalculationResult, len(items))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Calculate(item.Shift, item.Guide, opts...)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
