// Package compute implements the filter and sort stage of the grid pipeline.
//
// Process is the single implementation of the stage. The grid engine calls it
// inline for small datasets and through a Worker for large ones, so both
// paths produce identical results for identical input.
//
// # Message contract
//
// A Worker is addressed by message passing only:
//
//	w := compute.NewWorker(1)
//	defer w.Terminate()
//
//	_ = w.Post(ctx, compute.Request{
//	    Type:       compute.TypeSortAndFilter,
//	    Generation: 7,
//	    Payload: compute.Payload{
//	        Data:       rows,
//	        SortConfig: &compute.SortConfig{Key: "age", Direction: compute.Asc},
//	        Filters:    map[string]string{"department": "eng"},
//	    },
//	})
//	resp := <-w.Messages() // resp.Type == compute.TypeSortAndFilterComplete
//
// Requests carry a generation tag which is echoed in the response. The worker
// keeps no state between messages; ordering of responses across concurrent
// requests is not guaranteed, callers discard stale generations.
//
// # Filtering
//
// Each active filter column is evaluated concurrently into a Roaring bitmap of
// matching row positions. The bitmaps are intersected and iterated in
// ascending order, so filtered rows keep their arrival order.
package compute
