package gridgo

import (
	"context"
	"maps"

	"github.com/hupe1980/gridgo/grouping"
	"github.com/hupe1980/gridgo/row"
	"github.com/hupe1980/gridgo/stream"
)

// Events holds the optional callbacks of a Grid. Callbacks run on the
// goroutine of the triggering call, after the engine has applied it.
type Events struct {
	OnRowSelect            func(rows []row.Row, indexes []int)
	OnCellEdit             func(rowIndex int, columnID string, oldValue, newValue any)
	OnSort                 func(column string, direction Direction)
	OnFilter               func(filters map[string]string)
	OnPageChange           func(page, pageSize int)
	OnDataChange           func(data []row.Row)
	OnGroupChange          func(keys []string)
	OnSelectionModeChange  func(mode SelectionMode)
	OnVirtualizationToggle func(enabled bool)
}

// Grid couples an Engine with column permissions, event callbacks and an
// optional stream source. It is the surface a view binds to.
type Grid struct {
	engine *Engine
	events Events
	source *stream.Source

	selectable bool
	editable   bool
}

// NewGrid creates a grid over rows. Streaming is available when
// WithStreaming (or a Config with streaming enabled) is passed.
func NewGrid(rows []row.Row, columns []row.Column, events Events, optFns ...Option) *Grid {
	optFns = append([]Option{WithColumns(columns...)}, optFns...)
	opts := applyOptions(optFns)

	g := &Grid{
		engine:     New(rows, optFns...),
		events:     events,
		selectable: opts.selectable,
		editable:   opts.editable,
	}

	if opts.streaming.Enabled {
		g.source = stream.New(g.ingest,
			stream.WithInterval(opts.streaming.Interval),
			stream.WithBatchSize(opts.streaming.BatchSize),
			stream.WithRowLimit(opts.streaming.RowsPerSecond),
			stream.WithLogger(g.engine.logger.Logger),
		)
	}
	return g
}

// Engine returns the underlying engine.
func (g *Grid) Engine() *Engine {
	return g.engine
}

// State returns the current snapshot.
func (g *Grid) State() Snapshot {
	return g.engine.State()
}

// Subscribe registers a snapshot listener on the underlying engine.
func (g *Grid) Subscribe(l Listener) func() {
	return g.engine.Subscribe(l)
}

// Columns returns the column descriptors.
func (g *Grid) Columns() row.Columns {
	return g.engine.Columns()
}

// FormatCell renders the value of column columnID in r.
func (g *Grid) FormatCell(r row.Row, columnID string) string {
	if col, ok := g.engine.columns.Find(columnID); ok {
		return col.Format(r)
	}
	return row.String(r[columnID])
}

// Sort sorts by a sortable column, flipping the direction when it is
// already the active sort. It reports whether the column is sortable.
func (g *Grid) Sort(columnID string) bool {
	if !g.allowed(columnID, func(c row.Column) bool { return c.Sortable }) {
		return false
	}
	g.engine.SetSort(columnID)

	if fn := g.events.OnSort; fn != nil {
		if s := g.engine.State().Sort; s != nil {
			fn(s.Key, s.Direction)
		}
	}
	return true
}

// Filter sets the filter text of a filterable column. It reports whether
// the column is filterable.
func (g *Grid) Filter(columnID, text string) bool {
	if !g.allowed(columnID, func(c row.Column) bool { return c.Filterable }) {
		return false
	}
	g.engine.SetFilter(columnID, text)

	if fn := g.events.OnFilter; fn != nil {
		fn(maps.Clone(g.engine.State().Filters))
	}
	return true
}

// ClearFilters removes every filter.
func (g *Grid) ClearFilters() {
	g.engine.ClearFilters()

	if fn := g.events.OnFilter; fn != nil {
		fn(map[string]string{})
	}
}

// SetPage moves to page n.
func (g *Grid) SetPage(n int) {
	g.engine.SetPage(n)
	g.emitPage()
}

// SetPageSize changes the rows per page.
func (g *Grid) SetPageSize(n int) {
	g.engine.SetPageSize(n)
	g.emitPage()
}

func (g *Grid) emitPage() {
	if fn := g.events.OnPageChange; fn != nil {
		s := g.engine.State()
		fn(s.CurrentPage, s.PageSize)
	}
}

// SelectRow selects or deselects a display row. It does nothing unless the
// grid is selectable.
func (g *Grid) SelectRow(index int, selected bool) {
	if !g.selectable {
		return
	}
	g.engine.SelectRow(index, selected)
	g.emitSelection()
}

// SelectAll selects or deselects every display row. It does nothing unless
// the grid is selectable.
func (g *Grid) SelectAll(selected bool) {
	if !g.selectable {
		return
	}
	g.engine.SelectAll(selected)
	g.emitSelection()
}

// SetSelectionMode switches between single and multiple selection.
func (g *Grid) SetSelectionMode(mode SelectionMode) {
	g.engine.SetSelectionMode(mode)

	if fn := g.events.OnSelectionModeChange; fn != nil {
		fn(g.engine.State().SelectionMode)
	}
	g.emitSelection()
}

func (g *Grid) emitSelection() {
	if fn := g.events.OnRowSelect; fn != nil {
		s := g.engine.State()
		fn(s.SelectedData(), s.SelectedRows)
	}
}

// SetVirtualization toggles virtualized rendering.
func (g *Grid) SetVirtualization(enabled bool) {
	g.engine.EnableVirtualization(enabled)

	if fn := g.events.OnVirtualizationToggle; fn != nil {
		fn(enabled)
	}
}

// StartEditing opens a cell for editing. It reports whether the cell is
// editable.
func (g *Grid) StartEditing(rowIndex int, columnID string) bool {
	if !g.canEdit(columnID) {
		return false
	}
	g.engine.StartEditing(rowIndex, columnID)
	return true
}

// CancelEditing closes the edit cursor without writing.
func (g *Grid) CancelEditing() {
	g.engine.StopEditing()
}

// CommitEdit writes value into a cell and closes the edit cursor. It
// reports whether the value was written.
func (g *Grid) CommitEdit(rowIndex int, columnID string, value any) bool {
	if !g.canEdit(columnID) {
		return false
	}

	var old any
	if display := g.engine.State().Display(); rowIndex >= 0 && rowIndex < len(display) {
		old = display[rowIndex][g.engine.columns.Field(columnID)]
	}

	applied := g.engine.UpdateCell(rowIndex, columnID, value)
	g.engine.StopEditing()

	if applied {
		if fn := g.events.OnCellEdit; fn != nil {
			fn(rowIndex, columnID, old, value)
		}
		g.emitData()
	}
	return applied
}

// SetData replaces the dataset.
func (g *Grid) SetData(rows []row.Row) {
	g.engine.UpdateData(rows)
	g.emitData()
}

// AddData appends rows to the dataset.
func (g *Grid) AddData(rows []row.Row) {
	if len(rows) == 0 {
		return
	}
	g.engine.AddData(rows)
	g.emitData()
}

func (g *Grid) emitData() {
	if fn := g.events.OnDataChange; fn != nil {
		fn(g.engine.State().Data)
	}
}

// AddGroupColumn groups by columnID after the existing grouping keys.
func (g *Grid) AddGroupColumn(columnID string) {
	g.engine.AddGroupColumn(columnID)
	g.emitGroups()
}

// RemoveGroupColumn stops grouping by columnID.
func (g *Grid) RemoveGroupColumn(columnID string) {
	g.engine.RemoveGroupColumn(columnID)
	g.emitGroups()
}

// ReorderGroupColumns moves a grouping key.
func (g *Grid) ReorderGroupColumns(from, to int) {
	g.engine.ReorderGroupColumns(from, to)
	g.emitGroups()
}

// ClearGroups removes every grouping key.
func (g *Grid) ClearGroups() {
	g.engine.ClearGroups()
	g.emitGroups()
}

func (g *Grid) emitGroups() {
	if fn := g.events.OnGroupChange; fn != nil {
		fn(append(grouping.Keys(nil), g.engine.State().GroupBy...))
	}
}

// StartStreaming starts feeding synthetic rows into the grid. It reports
// false when streaming is not configured or already running.
func (g *Grid) StartStreaming(ctx context.Context) bool {
	if g.source == nil {
		return false
	}
	return g.source.Start(ctx)
}

// StopStreaming stops the stream source.
func (g *Grid) StopStreaming() {
	if g.source != nil {
		g.source.Stop()
	}
}

// IsStreaming reports whether the stream source is running.
func (g *Grid) IsStreaming() bool {
	return g.source != nil && g.source.IsStreaming()
}

func (g *Grid) ingest(rows []row.Row) {
	g.AddData(rows)
}

// Close stops streaming and destroys the engine.
func (g *Grid) Close() error {
	if g.source != nil {
		_ = g.source.Close()
	}
	return g.engine.Close()
}

func (g *Grid) canEdit(columnID string) bool {
	return g.editable && g.allowed(columnID, func(c row.Column) bool { return c.Editable })
}

// allowed reports whether flag permits an action on columnID. Columns that
// are not configured carry no restrictions.
func (g *Grid) allowed(columnID string, flag func(row.Column) bool) bool {
	col, ok := g.engine.columns.Find(columnID)
	return !ok || flag(col)
}
