package gridgo

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/gridgo/compute"
	"github.com/hupe1980/gridgo/grouping"
	"github.com/hupe1980/gridgo/row"
)

// Listener receives every published snapshot.
//
// Listeners run on the goroutine that caused the publish, one at a time and
// in publish order. They may read the engine (State, IsProcessing,
// SelectedData) and subscribe or unsubscribe, but must not call mutating
// Engine methods synchronously.
type Listener func(Snapshot)

// change describes how much derived state an operation invalidated.
type change uint8

const (
	changeNone   change = iota // nothing to publish
	changeState                // publish only
	changePage                 // re-paginate
	changeGroups               // rebuild groups
	changeData                 // filter, sort and paginate
)

type subscriber struct {
	id uint64
	fn Listener
}

// Engine is the headless grid state engine. It owns the dataset and derives
// the filtered, sorted and paginated views, the selection, the grouping
// hierarchy and the edit cursor from it. Every mutation publishes a new
// Snapshot to the subscribers.
//
// Engine is safe for concurrent use.
type Engine struct {
	id      string
	columns row.Columns
	opts    options
	logger  *Logger
	metrics MetricsCollector

	ctx    context.Context
	cancel context.CancelFunc
	worker *compute.Worker

	// mu guards the mutable state. notifyMu orders deliveries and is taken
	// while mu is held, never the other way round. Readers and subscribers
	// use neither.
	mu       sync.Mutex
	notifyMu sync.Mutex

	data      []row.Row
	filters   map[string]string
	sort      *SortSpec
	filtered  []row.Row
	sorted    []row.Row
	paginated []row.Row

	// sortedKeys caches row.Key of sorted[i], filled lazily.
	sortedKeys []string

	currentPage int
	pageSize    int
	totalPages  int
	pageStart   int

	selected map[string]uint64
	selSeq   uint64

	editing     *CellRef
	mode        SelectionMode
	virtualized bool
	groupBy     grouping.Keys
	groups      []*grouping.Group

	processing  bool
	generation  uint64
	flightStart time.Time
	flightRows  int

	version uint64
	snap    atomic.Pointer[Snapshot]
	closed  atomic.Bool

	subMu       sync.Mutex
	subscribers atomic.Pointer[[]subscriber]
	nextSub     uint64
}

// New creates an engine over rows. The slice is copied; the rows themselves
// are shared and must not be modified afterwards.
//
// Example:
//
//	e := gridgo.New(rows, gridgo.WithPageSize(25), gridgo.WithSelectionMode(gridgo.SelectionSingle))
//	defer e.Close()
//
//	unsubscribe := e.Subscribe(func(s gridgo.Snapshot) {
//	    render(s.Display())
//	})
//	defer unsubscribe()
//
//	e.SetFilter("department", "eng")
//	e.SetSort("salary")
func New(rows []row.Row, optFns ...Option) *Engine {
	opts := applyOptions(optFns)

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		id:          id,
		columns:     opts.columns,
		opts:        opts,
		logger:      opts.logger.WithGrid(id),
		metrics:     opts.metricsCollector,
		ctx:         ctx,
		cancel:      cancel,
		data:        row.Clone(rows),
		filters:     map[string]string{},
		currentPage: 1,
		pageSize:    opts.pageSize,
		selected:    map[string]uint64{},
		mode:        opts.selectionMode,
		virtualized: opts.virtualization,
	}
	if e.data == nil {
		e.data = []row.Row{}
	}
	e.filtered = e.data
	e.sorted = e.data
	e.paginateLocked()
	snap := e.snapshotLocked()
	e.snap.Store(&snap)

	if !opts.noWorker {
		var workerOpts []compute.WorkerOption
		if opts.workerHandler != nil {
			workerOpts = append(workerOpts, compute.WithHandler(opts.workerHandler))
		}
		e.worker = compute.NewWorker(opts.workers, workerOpts...)
		go e.receive(e.worker.Messages())
	}

	return e
}

// ID returns the engine's instance ID, used to tag log records.
func (e *Engine) ID() string {
	return e.id
}

// Columns returns the configured column descriptors.
func (e *Engine) Columns() row.Columns {
	return slices.Clone(e.columns)
}

// State returns the current snapshot.
func (e *Engine) State() Snapshot {
	return *e.snap.Load()
}

// IsProcessing reports whether a background recompute is in flight.
func (e *Engine) IsProcessing() bool {
	return e.snap.Load().IsProcessing
}

// SelectedData returns the selected display rows in display order.
func (e *Engine) SelectedData() []row.Row {
	return e.State().SelectedData()
}

// Subscribe registers l for every subsequent publish. The returned function
// removes the listener; calling it more than once is harmless.
func (e *Engine) Subscribe(l Listener) (unsubscribe func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	if e.closed.Load() || l == nil {
		return func() {}
	}

	e.nextSub++
	id := e.nextSub
	next := append(slices.Clip(e.loadSubscribers()), subscriber{id: id, fn: l})
	e.subscribers.Store(&next)

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		next := slices.DeleteFunc(slices.Clone(e.loadSubscribers()), func(s subscriber) bool {
			return s.id == id
		})
		e.subscribers.Store(&next)
	}
}

func (e *Engine) loadSubscribers() []subscriber {
	if subs := e.subscribers.Load(); subs != nil {
		return *subs
	}
	return nil
}

// SetSort sorts by key. Sorting by the active key flips the direction;
// any other key sorts ascending. An empty key clears the sort.
func (e *Engine) SetSort(key string) {
	e.update(func() change {
		switch {
		case key == "":
			if e.sort == nil {
				return changeNone
			}
			e.sort = nil
		case e.sort != nil && e.sort.Key == key:
			toggled := e.sort.Toggled()
			e.sort = &toggled
		default:
			e.sort = &SortSpec{Key: key, Direction: Asc}
		}
		return changeData
	})
}

// SetFilter sets the filter text of a column and returns to the first page.
// Empty text removes the filter.
func (e *Engine) SetFilter(column, text string) {
	e.update(func() change {
		filters := maps.Clone(e.filters)
		if text == "" {
			delete(filters, column)
		} else {
			filters[column] = text
		}
		e.filters = filters
		e.currentPage = 1
		return changeData
	})
}

// ClearFilters removes every filter and returns to the first page.
func (e *Engine) ClearFilters() {
	e.update(func() change {
		e.filters = map[string]string{}
		e.currentPage = 1
		return changeData
	})
}

// SetPage moves to page n, clamped to the available pages.
func (e *Engine) SetPage(n int) {
	e.update(func() change {
		e.currentPage = n
		return changePage
	})
}

// SetPageSize changes the rows per page. Non-positive sizes are ignored.
func (e *Engine) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	e.update(func() change {
		e.pageSize = n
		return changePage
	})
}

// SelectRow selects or deselects the display row at index. In single mode
// selecting a row deselects every other row. Out-of-range indices are
// ignored.
func (e *Engine) SelectRow(index int, selected bool) {
	e.update(func() change {
		if index < 0 || index >= len(e.displayLocked()) {
			return changeNone
		}
		key := e.displayKeyLocked(index)

		sel := maps.Clone(e.selected)
		switch {
		case e.mode == SelectionSingle && selected:
			clear(sel)
			sel[key] = e.nextSelSeq()
		case e.mode == SelectionSingle:
			clear(sel)
		case selected:
			if _, ok := sel[key]; !ok {
				sel[key] = e.nextSelSeq()
			}
		default:
			delete(sel, key)
		}
		e.selected = sel
		return changeState
	})
}

// SelectAll selects every display row, or clears the selection. It does
// nothing in single mode.
func (e *Engine) SelectAll(selected bool) {
	e.update(func() change {
		if e.mode == SelectionSingle {
			return changeNone
		}
		if !selected {
			e.selected = map[string]uint64{}
			return changeState
		}
		sel := maps.Clone(e.selected)
		for i := range e.displayLocked() {
			key := e.displayKeyLocked(i)
			if _, ok := sel[key]; !ok {
				sel[key] = e.nextSelSeq()
			}
		}
		e.selected = sel
		return changeState
	})
}

// SetSelectionMode switches the selection mode. Switching to single mode
// keeps only the earliest selected row.
func (e *Engine) SetSelectionMode(mode SelectionMode) {
	if !mode.valid() {
		return
	}
	e.update(func() change {
		e.mode = mode
		if mode == SelectionSingle && len(e.selected) > 1 {
			first := e.selectedKeysLocked()[0]
			e.selected = map[string]uint64{first: e.selected[first]}
		}
		return changeState
	})
}

// StartEditing marks a cell as being edited.
func (e *Engine) StartEditing(rowIndex int, columnID string) {
	e.update(func() change {
		e.editing = &CellRef{RowIndex: rowIndex, ColumnID: columnID}
		return changeState
	})
}

// StopEditing clears the edit cursor.
func (e *Engine) StopEditing() {
	e.update(func() change {
		e.editing = nil
		return changeState
	})
}

// UpdateCell writes value into the dataset row behind the display row at
// rowIndex and recomputes. It reports whether the edit was applied: edits
// of unresolvable rows and values rejected by the column's validator are
// dropped.
func (e *Engine) UpdateCell(rowIndex int, columnID string, value any) bool {
	applied := false
	e.update(func() change {
		err := e.updateCellLocked(rowIndex, columnID, value)
		e.metrics.RecordEdit(err)
		e.logger.LogEdit(e.ctx, rowIndex, columnID, err)
		if err != nil {
			return changeNone
		}
		applied = true
		return changeData
	})
	return applied
}

func (e *Engine) updateCellLocked(rowIndex int, columnID string, value any) error {
	display := e.displayLocked()
	if rowIndex < 0 || rowIndex >= len(display) {
		return ErrRowNotFound
	}
	target := display[rowIndex]
	dataIndex := slices.IndexFunc(e.data, func(r row.Row) bool {
		return row.SameID(r, target) || row.Same(r, target)
	})
	if dataIndex < 0 {
		return ErrRowNotFound
	}

	field := columnID
	if col, ok := e.columns.Find(columnID); ok {
		if err := col.Validate(value); err != nil {
			return &ValidationError{ColumnID: columnID, Value: value, cause: err}
		}
		field = col.Field()
	}

	e.replaceRowLocked(dataIndex, e.data[dataIndex].With(field, value))
	return nil
}

// UpdateData replaces the dataset. Selected rows that are no longer part of
// it are deselected.
func (e *Engine) UpdateData(rows []row.Row) {
	data := row.Clone(rows)
	if data == nil {
		data = []row.Row{}
	}
	e.update(func() change {
		e.data = data
		e.pruneSelectionLocked()
		return changeData
	})
}

// AddData appends rows to the dataset.
func (e *Engine) AddData(rows []row.Row) {
	if len(rows) == 0 {
		return
	}
	e.update(func() change {
		e.data = slices.Concat(e.data, rows)
		e.metrics.RecordIngest(len(rows))
		e.logger.LogIngest(e.ctx, len(rows), len(e.data))
		return changeData
	})
}

// UpdateRow merges patch into the dataset row at index. Out-of-range
// indices are ignored.
func (e *Engine) UpdateRow(index int, patch row.Row) {
	e.update(func() change {
		if index < 0 || index >= len(e.data) {
			return changeNone
		}
		e.replaceRowLocked(index, e.data[index].Merge(patch))
		return changeData
	})
}

// RemoveRow removes the dataset row at index. Out-of-range indices are
// ignored.
func (e *Engine) RemoveRow(index int) {
	e.update(func() change {
		if index < 0 || index >= len(e.data) {
			return changeNone
		}
		e.data = slices.Delete(slices.Clone(e.data), index, index+1)
		e.pruneSelectionLocked()
		return changeData
	})
}

// EnableVirtualization switches the display slice between the current page
// and the full sorted data.
func (e *Engine) EnableVirtualization(enabled bool) {
	e.update(func() change {
		e.virtualized = enabled
		return changeState
	})
}

// AddGroupColumn appends key to the grouping key list. Keys already present
// are ignored.
func (e *Engine) AddGroupColumn(key string) {
	e.updateGroups(func(k grouping.Keys) grouping.Keys { return k.Add(key) })
}

// RemoveGroupColumn removes key from the grouping key list.
func (e *Engine) RemoveGroupColumn(key string) {
	e.updateGroups(func(k grouping.Keys) grouping.Keys { return k.Remove(key) })
}

// ReorderGroupColumns moves the grouping key at index from to index to.
func (e *Engine) ReorderGroupColumns(from, to int) {
	e.updateGroups(func(k grouping.Keys) grouping.Keys { return k.Reorder(from, to) })
}

// ClearGroups removes every grouping key.
func (e *Engine) ClearGroups() {
	e.updateGroups(func(grouping.Keys) grouping.Keys { return nil })
}

func (e *Engine) updateGroups(fn func(grouping.Keys) grouping.Keys) {
	e.update(func() change {
		next := fn(e.groupBy)
		if slices.Equal(next, e.groupBy) {
			return changeNone
		}
		e.groupBy = next
		return changeGroups
	})
}

// Destroy terminates the worker, drops in-flight results and removes every
// subscriber. Later operations are no-ops.
func (e *Engine) Destroy() {
	e.destroy()
}

// Close destroys the engine. It returns ErrClosed if the engine was
// already destroyed.
func (e *Engine) Close() error {
	if !e.destroy() {
		return ErrClosed
	}
	return nil
}

func (e *Engine) destroy() bool {
	e.mu.Lock()
	if !e.closed.CompareAndSwap(false, true) {
		e.mu.Unlock()
		return false
	}
	e.processing = false
	snap := e.State()
	snap.IsProcessing = false
	e.snap.Store(&snap)
	e.cancel()
	w := e.worker
	e.mu.Unlock()

	e.subMu.Lock()
	e.subscribers.Store(nil)
	e.subMu.Unlock()

	if w != nil {
		w.Terminate()
	}
	return true
}

// update runs fn under the state lock, refreshes the derived state fn
// invalidated and publishes. A worker request is posted after the state
// lock is released.
func (e *Engine) update(fn func() change) {
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return
	}

	var req *compute.Request
	switch fn() {
	case changeNone:
		e.mu.Unlock()
		return
	case changePage:
		e.paginateLocked()
	case changeGroups:
		e.regroupLocked()
	case changeData:
		req = e.recomputeLocked()
	}
	e.publishLocked()

	if req != nil {
		e.dispatch(*req)
	}
}

// recomputeLocked starts a filter and sort pass. Large datasets are handed
// to the worker: the returned request must be posted by the caller once the
// lock is released. Smaller ones are processed in place.
func (e *Engine) recomputeLocked() *compute.Request {
	e.generation++
	req := compute.Request{
		Type:       compute.TypeSortAndFilter,
		Generation: e.generation,
		Payload:    e.payloadLocked(),
	}

	if e.worker != nil && len(e.data) > e.opts.workerThreshold {
		e.processing = true
		e.flightStart = time.Now()
		e.flightRows = len(e.data)
		e.paginateLocked()
		return &req
	}

	e.processing = false
	e.processLocked(req)
	return nil
}

// payloadLocked translates column IDs to row fields.
func (e *Engine) payloadLocked() compute.Payload {
	p := compute.Payload{
		Data:    e.data,
		Filters: make(map[string]string, len(e.filters)),
	}
	for column, text := range e.filters {
		p.Filters[e.columns.Field(column)] = text
	}
	if e.sort != nil {
		p.SortConfig = &SortSpec{Key: e.columns.Field(e.sort.Key), Direction: e.sort.Direction}
	}
	return p
}

func (e *Engine) processLocked(req compute.Request) {
	start := time.Now()
	resp, err := compute.Process(e.ctx, req)
	e.metrics.RecordRecompute(len(req.Payload.Data), false, time.Since(start), err)
	e.applyLocked(req.Generation, resp.Payload, false, err)
}

// applyLocked installs a filter and sort result. Failed passes keep the
// previous derived data.
func (e *Engine) applyLocked(generation uint64, res compute.Result, offloaded bool, err error) {
	e.logger.LogRecompute(e.ctx, generation, len(e.data), len(res.SortedData), offloaded, err)
	if err != nil {
		return
	}
	e.filtered = res.FilteredData
	e.sorted = res.SortedData
	e.sortedKeys = nil
	e.paginateLocked()
	e.regroupLocked()
}

// dispatch posts req to the worker, recomputing inline if the worker
// refuses it.
func (e *Engine) dispatch(req compute.Request) {
	err := e.worker.Post(e.ctx, req)
	if err == nil {
		return
	}

	e.update(func() change {
		if req.Generation != e.generation || !e.processing {
			return changeNone
		}
		e.logger.LogFallback(e.ctx, req.Generation, err)
		e.processing = false
		e.processLocked(req)
		return changeState
	})
}

// receive applies worker responses until the worker is terminated.
func (e *Engine) receive(msgs <-chan compute.Response) {
	for resp := range msgs {
		e.handleResponse(resp)
	}
}

func (e *Engine) handleResponse(resp compute.Response) {
	e.update(func() change {
		if resp.Generation != e.generation || !e.processing {
			e.metrics.RecordDroppedResult()
			e.logger.LogDroppedResult(e.ctx, resp.Generation, e.generation)
			return changeNone
		}
		e.processing = false
		e.metrics.RecordRecompute(e.flightRows, true, time.Since(e.flightStart), resp.Err)
		e.applyLocked(resp.Generation, resp.Payload, true, resp.Err)
		return changeState
	})
}

func (e *Engine) paginateLocked() {
	total := len(e.sorted)
	e.totalPages = max(1, (total+e.pageSize-1)/e.pageSize)
	e.currentPage = min(max(e.currentPage, 1), e.totalPages)

	start := min((e.currentPage-1)*e.pageSize, total)
	end := min(start+e.pageSize, total)
	e.pageStart = start
	e.paginated = e.sorted[start:end:end]
}

func (e *Engine) regroupLocked() {
	if len(e.groupBy) == 0 {
		e.groups = nil
		return
	}
	fields := make([]string, len(e.groupBy))
	for i, key := range e.groupBy {
		fields[i] = e.columns.Field(key)
	}
	e.groups = grouping.Build(e.sorted, fields)
}

func (e *Engine) displayLocked() []row.Row {
	if e.virtualized {
		return e.sorted
	}
	return e.paginated
}

// displayKeyLocked returns the row key of the display row at index.
func (e *Engine) displayKeyLocked(index int) string {
	if len(e.sortedKeys) != len(e.sorted) {
		e.sortedKeys = make([]string, len(e.sorted))
	}
	i := index
	if !e.virtualized {
		i += e.pageStart
	}
	if e.sortedKeys[i] == "" {
		e.sortedKeys[i] = row.Key(e.sorted[i])
	}
	return e.sortedKeys[i]
}

func (e *Engine) nextSelSeq() uint64 {
	e.selSeq++
	return e.selSeq
}

// selectedKeysLocked returns the selected keys in selection order.
func (e *Engine) selectedKeysLocked() []string {
	keys := slices.Collect(maps.Keys(e.selected))
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Compare(e.selected[a], e.selected[b])
	})
	return keys
}

// selectedRowsLocked resolves the selection to display indices.
func (e *Engine) selectedRowsLocked() []int {
	if len(e.selected) == 0 {
		return nil
	}
	var out []int
	for i := range e.displayLocked() {
		if _, ok := e.selected[e.displayKeyLocked(i)]; !ok {
			continue
		}
		out = append(out, i)
		if e.mode == SelectionSingle {
			break
		}
	}
	return out
}

// replaceRowLocked swaps the dataset row at index, carrying its selection
// over when the replacement changes the row key.
func (e *Engine) replaceRowLocked(index int, next row.Row) {
	if len(e.selected) > 0 {
		oldKey, newKey := row.Key(e.data[index]), row.Key(next)
		if seq, ok := e.selected[oldKey]; ok && oldKey != newKey {
			sel := maps.Clone(e.selected)
			delete(sel, oldKey)
			sel[newKey] = seq
			e.selected = sel
		}
	}
	data := slices.Clone(e.data)
	data[index] = next
	e.data = data
}

// pruneSelectionLocked deselects keys no longer present in the dataset.
func (e *Engine) pruneSelectionLocked() {
	if len(e.selected) == 0 {
		return
	}
	present := make(map[string]struct{}, len(e.data))
	for _, r := range e.data {
		present[row.Key(r)] = struct{}{}
	}
	sel := maps.Clone(e.selected)
	maps.DeleteFunc(sel, func(key string, _ uint64) bool {
		_, ok := present[key]
		return !ok
	})
	e.selected = sel
}

func (e *Engine) snapshotLocked() Snapshot {
	var sortSpec *SortSpec
	if e.sort != nil {
		s := *e.sort
		sortSpec = &s
	}
	var editing *CellRef
	if e.editing != nil {
		c := *e.editing
		editing = &c
	}

	return Snapshot{
		Data:                  e.data,
		Filters:               e.filters,
		Sort:                  sortSpec,
		FilteredData:          e.filtered,
		SortedData:            e.sorted,
		PaginatedData:         e.paginated,
		CurrentPage:           e.currentPage,
		PageSize:              e.pageSize,
		TotalPages:            e.totalPages,
		SelectedRows:          e.selectedRowsLocked(),
		SelectedKeys:          e.selectedKeysLocked(),
		EditingCell:           editing,
		SelectionMode:         e.mode,
		VirtualizationEnabled: e.virtualized,
		GroupBy:               e.groupBy,
		Groups:                e.groups,
		IsProcessing:          e.processing,
		Version:               e.version,
	}
}

// publishLocked stores a new snapshot and delivers it. The notify lock is
// taken before the state lock is released so deliveries keep publish order.
// It returns with the state lock released.
func (e *Engine) publishLocked() {
	e.version++
	snap := e.snapshotLocked()
	e.snap.Store(&snap)
	subs := e.loadSubscribers()

	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
	e.metrics.RecordPublish(len(subs))
}
