package compute

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/gridgo/internal/conv"
	"github.com/hupe1980/gridgo/row"
)

// ctxCheckInterval is how many rows a filter scans between context checks.
const ctxCheckInterval = 1024

// Handler computes the response to a request.
type Handler func(ctx context.Context, req Request) (Response, error)

// Process runs one filter and sort pass. It is a Handler.
func Process(ctx context.Context, req Request) (Response, error) {
	if req.Type != TypeSortAndFilter {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownMessage, req.Type)
	}

	filtered, err := Filter(ctx, req.Payload.Data, req.Payload.Filters)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Type:       TypeSortAndFilterComplete,
		Generation: req.Generation,
		Payload: Result{
			FilteredData: filtered,
			SortedData:   Sort(filtered, req.Payload.SortConfig),
		},
	}, nil
}

type activeFilter struct {
	field  string
	needle string
}

// activeFilters returns the non-empty filters in field order.
func activeFilters(filters map[string]string) []activeFilter {
	out := make([]activeFilter, 0, len(filters))
	for field, text := range filters {
		if text == "" {
			continue
		}
		out = append(out, activeFilter{field: field, needle: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].field < out[j].field })
	return out
}

// Filter returns the rows for which row.ContainsFold holds for every
// non-empty filter text. The result
// keeps the input order and is always a fresh slice.
func Filter(ctx context.Context, rows []row.Row, filters map[string]string) ([]row.Row, error) {
	active := activeFilters(filters)
	if len(active) == 0 {
		return slices.Clone(rows), nil
	}
	if _, err := conv.IntToUint32(len(rows)); err != nil {
		return nil, fmt.Errorf("compute: bitmap filter: %w", err)
	}

	bitmaps := make([]*roaring.Bitmap, len(active))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, f := range active {
		g.Go(func() error {
			bm := roaring.New()
			for pos, r := range rows {
				if pos%ctxCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if row.ContainsFold(r[f.field], f.needle) {
					bm.Add(uint32(pos))
				}
			}
			bitmaps[i] = bm
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	matched := bitmaps[0]
	if len(bitmaps) > 1 {
		matched = roaring.FastAnd(bitmaps...)
	}

	out := make([]row.Row, 0, matched.GetCardinality())
	it := matched.Iterator()
	for it.HasNext() {
		out = append(out, rows[it.Next()])
	}
	return out, nil
}

// Sort returns a stably sorted copy of rows. A nil config or empty key
// returns an unsorted copy.
func Sort(rows []row.Row, cfg *SortConfig) []row.Row {
	out := slices.Clone(rows)
	if cfg == nil || cfg.Key == "" {
		return out
	}

	key := cfg.Key
	desc := cfg.Direction == Desc
	slices.SortStableFunc(out, func(a, b row.Row) int {
		c := row.Compare(a[key], b[key])
		if desc {
			return -c
		}
		return c
	})
	return out
}
