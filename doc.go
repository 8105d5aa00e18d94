// Package gridgo provides a headless, concurrency-safe data grid engine.
//
// An Engine owns a dataset of rows and derives everything a grid view
// renders from it: the filtered, sorted and paginated slices, the row
// selection, the grouping hierarchy and the cell being edited. Every
// mutation publishes an immutable Snapshot to the subscribers.
//
// # Quick Start
//
//	e := gridgo.New(rows, gridgo.WithPageSize(25))
//	defer e.Close()
//
//	unsubscribe := e.Subscribe(func(s gridgo.Snapshot) {
//	    for _, r := range s.Display() {
//	        fmt.Println(r["name"])
//	    }
//	})
//	defer unsubscribe()
//
//	e.SetFilter("department", "eng") // case-insensitive substring
//	e.SetSort("salary")              // ascending
//	e.SetSort("salary")              // descending
//	e.SetPage(2)
//
// # Background Recompute
//
// Datasets larger than the worker threshold (WithWorkerThreshold, default
// 100 rows) are filtered and sorted on a background worker. While a pass is
// in flight the previous derived data stays published and IsProcessing
// reports true. Results of superseded passes are discarded, so the last
// request always wins.
//
// # Selection
//
// Rows are selected by display index but remembered by row identity (the
// "id" field, or a content digest for rows without one). A selected row
// stays selected when sorting, filtering or paging moves it; Snapshot
// resolves the selection to display indices on every publish.
//
// # Grids
//
// Grid wraps an Engine for a view: it enforces the sortable, filterable and
// editable column flags, fires Events callbacks and can feed the engine
// from a stream source:
//
//	g := gridgo.NewGrid(rows, columns, gridgo.Events{
//	    OnSort: func(column string, dir gridgo.Direction) { ... },
//	}, gridgo.WithEditable(true), gridgo.WithStreaming(2*time.Second, 10))
//	defer g.Close()
//
//	g.StartStreaming(ctx)
//
// # Configuration
//
// Grids can be declared in YAML and loaded with ParseConfig:
//
//	cfg, err := gridgo.ParseConfig(data)
//	if err != nil {
//	    return err
//	}
//	e := gridgo.New(rows, gridgo.WithConfig(cfg))
package gridgo
