package gridgo_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridgo"
	"github.com/hupe1980/gridgo/compute"
	"github.com/hupe1980/gridgo/grouping"
	"github.com/hupe1980/gridgo/row"
	"github.com/hupe1980/gridgo/testutil"
)

func ids(rows []row.Row) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r["id"]
	}
	return out
}

func numbered(n int) []row.Row {
	rows := make([]row.Row, n)
	for i := range rows {
		rows[i] = row.Row{"id": i + 1}
	}
	return rows
}

func ageRows() []row.Row {
	return []row.Row{
		{"id": 1, "age": 30},
		{"id": 2, "age": 20},
		{"id": 3, "age": 25},
	}
}

func newSyncEngine(t *testing.T, rows []row.Row, opts ...gridgo.Option) *gridgo.Engine {
	t.Helper()
	e := gridgo.New(rows, append([]gridgo.Option{gridgo.WithoutWorker()}, opts...)...)
	t.Cleanup(e.Destroy)
	return e
}

func waitIdle(t *testing.T, e *gridgo.Engine) {
	t.Helper()
	require.Eventually(t, func() bool { return !e.IsProcessing() }, 5*time.Second, time.Millisecond)
}

func TestNew_InitialState(t *testing.T) {
	e := newSyncEngine(t, numbered(5), gridgo.WithPageSize(2))
	s := e.State()

	assert.Len(t, s.Data, 5)
	assert.Equal(t, ids(s.Data), ids(s.SortedData))
	assert.Equal(t, []any{1, 2}, ids(s.PaginatedData))
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, 2, s.PageSize)
	assert.Equal(t, 3, s.TotalPages)
	assert.Nil(t, s.Sort)
	assert.Empty(t, s.Filters)
	assert.Empty(t, s.SelectedRows)
	assert.Nil(t, s.EditingCell)
	assert.Equal(t, gridgo.SelectionMultiple, s.SelectionMode)
	assert.False(t, s.VirtualizationEnabled)
	assert.False(t, s.IsProcessing)
	assert.NotEmpty(t, e.ID())
}

func TestNew_EmptyData(t *testing.T) {
	e := newSyncEngine(t, nil)
	s := e.State()

	assert.Empty(t, s.Data)
	assert.Empty(t, s.PaginatedData)
	assert.Equal(t, 1, s.TotalPages)
	assert.Equal(t, 1, s.CurrentPage)
}

func TestNew_CopiesInput(t *testing.T) {
	rows := numbered(3)
	e := newSyncEngine(t, rows)

	rows[0] = row.Row{"id": 99}

	assert.Equal(t, []any{1, 2, 3}, ids(e.State().Data))
}

func TestSetSort(t *testing.T) {
	e := newSyncEngine(t, ageRows())

	e.SetSort("age")
	s := e.State()
	assert.Equal(t, []any{2, 3, 1}, ids(s.SortedData))
	require.NotNil(t, s.Sort)
	assert.Equal(t, gridgo.SortSpec{Key: "age", Direction: gridgo.Asc}, *s.Sort)

	e.SetSort("age")
	s = e.State()
	assert.Equal(t, []any{1, 3, 2}, ids(s.SortedData))
	assert.Equal(t, gridgo.Desc, s.Sort.Direction)

	e.SetSort("id")
	s = e.State()
	assert.Equal(t, []any{1, 2, 3}, ids(s.SortedData))
	assert.Equal(t, gridgo.Asc, s.Sort.Direction)

	e.SetSort("")
	assert.Nil(t, e.State().Sort)
	assert.Equal(t, []any{1, 2, 3}, ids(e.State().SortedData))
}

func TestSetSort_Stable(t *testing.T) {
	e := newSyncEngine(t, []row.Row{
		{"id": 1, "group": "b"},
		{"id": 2, "group": "a"},
		{"id": 3, "group": "b"},
		{"id": 4, "group": "a"},
	})

	e.SetSort("group")
	assert.Equal(t, []any{2, 4, 1, 3}, ids(e.State().SortedData))

	e.SetSort("group")
	assert.Equal(t, []any{1, 3, 2, 4}, ids(e.State().SortedData))
}

func TestSetSort_MixedTypesCompareEqual(t *testing.T) {
	e := newSyncEngine(t, []row.Row{
		{"id": 1, "v": "x"},
		{"id": 2, "v": 1},
		{"id": 3},
	})

	e.SetSort("v")
	assert.Equal(t, []any{1, 2, 3}, ids(e.State().SortedData))
}

func TestSetSort_ColumnAccessor(t *testing.T) {
	e := newSyncEngine(t, ageRows(), gridgo.WithColumns(row.Column{ID: "years", Accessor: "age"}))

	e.SetSort("years")
	s := e.State()
	assert.Equal(t, []any{2, 3, 1}, ids(s.SortedData))
	assert.Equal(t, "years", s.Sort.Key)
}

func TestSetFilter(t *testing.T) {
	e := newSyncEngine(t, []row.Row{
		{"id": 1, "name": "Alice", "department": "Engineering"},
		{"id": 2, "name": "Bob", "department": "Marketing"},
		{"id": 3, "name": "alicia", "department": "engineering"},
		{"id": 4, "name": nil, "department": "Sales"},
	})

	e.SetFilter("name", "ALI")
	assert.Equal(t, []any{1, 3}, ids(e.State().FilteredData))

	e.SetFilter("department", "eng")
	assert.Equal(t, []any{1, 3}, ids(e.State().FilteredData))

	e.SetFilter("department", "mark")
	assert.Empty(t, e.State().FilteredData)

	e.SetFilter("name", "")
	s := e.State()
	assert.Equal(t, []any{2}, ids(s.FilteredData))
	assert.Equal(t, map[string]string{"department": "mark"}, s.Filters)

	e.ClearFilters()
	s = e.State()
	assert.Len(t, s.FilteredData, 4)
	assert.Empty(t, s.Filters)
}

func TestSetFilter_Property(t *testing.T) {
	rows := testutil.NewRNG(7).Sparse(60, 1, "status")
	e := newSyncEngine(t, rows)

	e.SetFilter("department", "in")
	e.SetFilter("status", "e")

	s := e.State()
	for _, r := range s.FilteredData {
		assert.True(t, row.ContainsFold(r["department"], "IN"))
		assert.True(t, row.ContainsFold(r["status"], "E"))
	}
	for _, r := range s.Data {
		if row.ContainsFold(r["department"], "in") && row.ContainsFold(r["status"], "e") {
			assert.Contains(t, s.FilteredData, r)
		}
	}
}

func TestSetFilter_Numbers(t *testing.T) {
	e := newSyncEngine(t, []row.Row{
		{"id": 1, "salary": 50000},
		{"id": 2, "salary": 72000},
		{"id": 3, "salary": 0},
	})

	e.SetFilter("salary", "500")
	assert.Equal(t, []any{1}, ids(e.State().FilteredData))

	e.SetFilter("salary", "0")
	assert.Equal(t, []any{1, 2, 3}, ids(e.State().FilteredData))
}

func TestSetFilter_ResetsPage(t *testing.T) {
	e := newSyncEngine(t, numbered(30), gridgo.WithPageSize(5))

	e.SetPage(4)
	require.Equal(t, 4, e.State().CurrentPage)

	e.SetFilter("id", "1")
	s := e.State()
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, []any{1, 10, 11, 12, 13}, ids(s.PaginatedData))
}

func TestSetPage_Clamps(t *testing.T) {
	e := newSyncEngine(t, numbered(5), gridgo.WithPageSize(2))

	e.SetPage(10)
	s := e.State()
	assert.Equal(t, 3, s.CurrentPage)
	assert.Equal(t, []any{5}, ids(s.PaginatedData))

	e.SetPage(-1)
	s = e.State()
	assert.Equal(t, 1, s.CurrentPage)
	assert.Equal(t, []any{1, 2}, ids(s.PaginatedData))

	e.SetPage(2)
	assert.Equal(t, []any{3, 4}, ids(e.State().PaginatedData))
}

func TestSetPage_Bounds(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 35} {
		e := newSyncEngine(t, numbered(n), gridgo.WithPageSize(10))
		for page := -2; page < 8; page++ {
			e.SetPage(page)
			s := e.State()
			assert.GreaterOrEqual(t, s.CurrentPage, 1)
			assert.LessOrEqual(t, s.CurrentPage, max(1, s.TotalPages))
			assert.LessOrEqual(t, len(s.PaginatedData), s.PageSize)
		}
	}
}

func TestSetPageSize(t *testing.T) {
	e := newSyncEngine(t, numbered(5), gridgo.WithPageSize(2))
	e.SetPage(3)

	e.SetPageSize(10)
	s := e.State()
	assert.Equal(t, 10, s.PageSize)
	assert.Equal(t, 1, s.TotalPages)
	assert.Equal(t, 1, s.CurrentPage)
	assert.Len(t, s.PaginatedData, 5)

	version := s.Version
	e.SetPageSize(0)
	assert.Equal(t, version, e.State().Version)
}

func TestSelectRow_Multiple(t *testing.T) {
	e := newSyncEngine(t, numbered(5))

	e.SelectRow(0, true)
	e.SelectRow(3, true)
	assert.Equal(t, []int{0, 3}, e.State().SelectedRows)

	e.SelectRow(0, false)
	s := e.State()
	assert.Equal(t, []int{3}, s.SelectedRows)
	assert.True(t, s.IsSelected(3))
	assert.False(t, s.IsSelected(0))

	version := s.Version
	e.SelectRow(42, true)
	e.SelectRow(-1, true)
	assert.Equal(t, version, e.State().Version)
}

func TestSelectRow_Single(t *testing.T) {
	e := newSyncEngine(t, numbered(5), gridgo.WithSelectionMode(gridgo.SelectionSingle))

	e.SelectRow(0, true)
	e.SelectRow(2, true)
	assert.Equal(t, []int{2}, e.State().SelectedRows)

	e.SelectRow(2, false)
	assert.Empty(t, e.State().SelectedRows)
}

func TestSelectRow_FollowsRowAcrossSort(t *testing.T) {
	e := newSyncEngine(t, ageRows())

	e.SelectRow(0, true)
	e.SetSort("age")

	s := e.State()
	assert.Equal(t, []int{2}, s.SelectedRows)
	assert.Equal(t, []any{1}, ids(e.SelectedData()))
}

func TestSelectRow_HiddenByPage(t *testing.T) {
	e := newSyncEngine(t, numbered(5), gridgo.WithPageSize(2))

	e.SelectRow(1, true)
	e.SetPage(2)
	s := e.State()
	assert.Empty(t, s.SelectedRows)
	assert.Len(t, s.SelectedKeys, 1)

	e.SetPage(1)
	assert.Equal(t, []int{1}, e.State().SelectedRows)
}

func TestSelectAll(t *testing.T) {
	e := newSyncEngine(t, numbered(5), gridgo.WithPageSize(3))

	e.SelectAll(true)
	assert.Equal(t, []int{0, 1, 2}, e.State().SelectedRows)

	e.SelectAll(false)
	assert.Empty(t, e.State().SelectedRows)

	e.SetSelectionMode(gridgo.SelectionSingle)
	version := e.State().Version
	e.SelectAll(true)
	assert.Equal(t, version, e.State().Version)
	assert.Empty(t, e.State().SelectedRows)
}

func TestSetSelectionMode_NarrowsToFirst(t *testing.T) {
	e := newSyncEngine(t, numbered(5))

	e.SelectRow(3, true)
	e.SelectRow(1, true)
	e.SelectRow(4, true)

	e.SetSelectionMode(gridgo.SelectionSingle)
	s := e.State()
	assert.Equal(t, gridgo.SelectionSingle, s.SelectionMode)
	assert.Equal(t, []int{3}, s.SelectedRows)
	assert.Len(t, s.SelectedKeys, 1)

	e.SetSelectionMode(gridgo.SelectionMultiple)
	assert.Equal(t, []int{3}, e.State().SelectedRows)

	e.SetSelectionMode("bogus")
	assert.Equal(t, gridgo.SelectionMultiple, e.State().SelectionMode)
}

func TestSelection_SingleModeProperty(t *testing.T) {
	rng := testutil.NewRNG(3)
	e := newSyncEngine(t, rng.Employees(40, 1), gridgo.WithSelectionMode(gridgo.SelectionSingle))

	for range 200 {
		switch rng.Intn(4) {
		case 0:
			e.SelectRow(rng.Intn(12), rng.Intn(2) == 0)
		case 1:
			e.SetSort(rng.Pick([]string{"name", "salary", "department"}))
		case 2:
			e.SetPage(rng.Intn(5))
		case 3:
			e.EnableVirtualization(rng.Intn(2) == 0)
		}
		s := e.State()
		assert.LessOrEqual(t, len(s.SelectedRows), 1)
		assert.LessOrEqual(t, len(s.SelectedKeys), 1)
	}
}

func TestEditing(t *testing.T) {
	e := newSyncEngine(t, ageRows())

	e.StartEditing(1, "age")
	s := e.State()
	require.NotNil(t, s.EditingCell)
	assert.Equal(t, gridgo.CellRef{RowIndex: 1, ColumnID: "age"}, *s.EditingCell)

	e.StopEditing()
	s = e.State()
	assert.Nil(t, s.EditingCell)
	assert.Equal(t, ageRows(), s.Data)
}

func TestUpdateCell(t *testing.T) {
	e := newSyncEngine(t, ageRows())
	e.SetSort("age")
	before := e.State()

	require.True(t, e.UpdateCell(0, "age", 99))

	s := e.State()
	assert.Equal(t, 99, s.Data[1]["age"])
	assert.Equal(t, []any{3, 1, 2}, ids(s.SortedData))
	assert.Equal(t, 20, before.Data[1]["age"])
}

func TestUpdateCell_RoundTrip(t *testing.T) {
	e := newSyncEngine(t, testutil.NewRNG(11).Employees(25, 1))
	e.SetSort("salary")
	target := e.State().PaginatedData[4]["id"]

	require.True(t, e.UpdateCell(4, "name", "Renamed"))

	for _, r := range e.State().Data {
		if r["id"] == target {
			assert.Equal(t, "Renamed", r["name"])
		} else {
			assert.NotEqual(t, "Renamed", r["name"])
		}
	}
}

func TestUpdateCell_Rejected(t *testing.T) {
	errNegative := errors.New("negative")
	e := newSyncEngine(t, ageRows(), gridgo.WithColumns(row.Column{
		ID:       "age",
		Accessor: "age",
		Validator: func(v any) error {
			if n, ok := v.(int); ok && n < 0 {
				return errNegative
			}
			return nil
		},
	}))
	version := e.State().Version

	assert.False(t, e.UpdateCell(0, "age", -5))
	assert.False(t, e.UpdateCell(10, "age", 5))
	assert.False(t, e.UpdateCell(-1, "age", 5))

	s := e.State()
	assert.Equal(t, version, s.Version)
	assert.Equal(t, ageRows(), s.Data)

	assert.True(t, e.UpdateCell(0, "age", 31))
	assert.Equal(t, 31, e.State().Data[0]["age"])
}

func TestUpdateCell_Accessor(t *testing.T) {
	e := newSyncEngine(t, ageRows(), gridgo.WithColumns(row.Column{ID: "years", Accessor: "age"}))

	require.True(t, e.UpdateCell(2, "years", 26))

	r := e.State().Data[2]
	assert.Equal(t, 26, r["age"])
	assert.NotContains(t, r, "years")
}

func TestUpdateCell_RowsWithoutID(t *testing.T) {
	e := newSyncEngine(t, []row.Row{{"name": "a"}, {"name": "b"}})

	require.True(t, e.UpdateCell(1, "name", "z"))

	s := e.State()
	assert.Equal(t, "a", s.Data[0]["name"])
	assert.Equal(t, "z", s.Data[1]["name"])
}

func TestUpdateCell_KeepsSelection(t *testing.T) {
	e := newSyncEngine(t, []row.Row{{"name": "a"}, {"name": "b"}})
	e.SelectRow(1, true)

	require.True(t, e.UpdateCell(1, "name", "z"))

	assert.Equal(t, []int{1}, e.State().SelectedRows)
}

func TestDataMutations(t *testing.T) {
	e := newSyncEngine(t, ageRows())
	e.SetSort("age")

	e.AddData([]row.Row{{"id": 4, "age": 10}})
	assert.Equal(t, []any{4, 2, 3, 1}, ids(e.State().SortedData))

	e.UpdateRow(0, row.Row{"age": 1})
	s := e.State()
	assert.Equal(t, row.Row{"id": 1, "age": 1}, s.Data[0])
	assert.Equal(t, []any{1, 4, 2, 3}, ids(s.SortedData))

	e.RemoveRow(1)
	assert.Equal(t, []any{1, 3, 4}, ids(e.State().Data))

	version := e.State().Version
	e.UpdateRow(7, row.Row{"age": 1})
	e.RemoveRow(-1)
	e.AddData(nil)
	assert.Equal(t, version, e.State().Version)

	e.UpdateData(numbered(2))
	s = e.State()
	assert.Equal(t, []any{1, 2}, ids(s.Data))
	assert.Equal(t, []any{1, 2}, ids(s.SortedData))
}

func TestDataMutations_SnapshotsStayValid(t *testing.T) {
	e := newSyncEngine(t, ageRows())
	before := e.State()

	e.AddData([]row.Row{{"id": 4, "age": 10}})
	e.UpdateRow(0, row.Row{"age": 1})
	e.RemoveRow(1)

	assert.Equal(t, ageRows(), before.Data)
	assert.Equal(t, ageRows(), before.SortedData)
}

func TestRemoveRow_DeselectsRow(t *testing.T) {
	e := newSyncEngine(t, numbered(3))
	e.SelectRow(1, true)
	e.SelectRow(2, true)

	e.RemoveRow(1)
	s := e.State()
	assert.Equal(t, []int{1}, s.SelectedRows)
	assert.Len(t, s.SelectedKeys, 1)
}

func TestEnableVirtualization(t *testing.T) {
	e := newSyncEngine(t, numbered(25), gridgo.WithPageSize(10))

	e.EnableVirtualization(true)
	s := e.State()
	assert.True(t, s.VirtualizationEnabled)
	assert.Len(t, s.Display(), 25)

	e.SelectRow(20, true)
	assert.Equal(t, []int{20}, e.State().SelectedRows)

	e.EnableVirtualization(false)
	s = e.State()
	assert.Len(t, s.Display(), 10)
	assert.Empty(t, s.SelectedRows)
}

func TestGrouping(t *testing.T) {
	e := newSyncEngine(t, []row.Row{
		{"id": 1, "department": "Engineering", "status": "Active"},
		{"id": 2, "department": "Sales"},
		{"id": 3, "department": "Engineering"},
		{"id": 4, "department": "Engineering", "status": "Active"},
	})

	e.AddGroupColumn("department")
	e.AddGroupColumn("status")
	version := e.State().Version
	e.AddGroupColumn("department")

	s := e.State()
	assert.Equal(t, version, s.Version)
	assert.Equal(t, grouping.Keys{"department", "status"}, s.GroupBy)
	require.Len(t, s.Groups, 2)

	eng, ok := grouping.Find(s.Groups, "Engineering")
	require.True(t, ok)
	assert.Equal(t, 3, eng.Count())

	unknown, ok := eng.Find(grouping.UnknownKey)
	require.True(t, ok)
	assert.Equal(t, []any{3}, ids(unknown.Items))

	e.ReorderGroupColumns(1, 0)
	assert.Equal(t, grouping.Keys{"status", "department"}, e.State().GroupBy)

	e.RemoveGroupColumn("status")
	assert.Equal(t, grouping.Keys{"department"}, e.State().GroupBy)

	e.ClearGroups()
	s = e.State()
	assert.Empty(t, s.GroupBy)
	assert.Nil(t, s.Groups)
}

func TestGrouping_FollowsSortAndFilter(t *testing.T) {
	e := newSyncEngine(t, ageRows())
	e.AddGroupColumn("age")
	e.SetSort("age")

	s := e.State()
	require.Len(t, s.Groups, 3)
	assert.Equal(t, "20", s.Groups[0].Key)

	e.SetFilter("age", "3")
	s = e.State()
	require.Len(t, s.Groups, 1)
	assert.Equal(t, "30", s.Groups[0].Key)
}

func TestSubscribe(t *testing.T) {
	e := newSyncEngine(t, ageRows())

	var a, b []uint64
	unsubA := e.Subscribe(func(s gridgo.Snapshot) { a = append(a, s.Version) })
	unsubB := e.Subscribe(func(s gridgo.Snapshot) { b = append(b, s.Version) })

	e.SetSort("age")
	e.SetPage(1)
	unsubA()
	unsubA()
	e.SelectRow(0, true)
	unsubB()

	assert.Equal(t, []uint64{1, 2}, a)
	assert.Equal(t, []uint64{1, 2, 3}, b)
	assert.Equal(t, uint64(3), e.State().Version)
}

func TestSubscribe_ConcurrentPublishOrder(t *testing.T) {
	e := newSyncEngine(t, numbered(50))

	var (
		mu       sync.Mutex
		versions []uint64
	)
	e.Subscribe(func(s gridgo.Snapshot) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 25 {
				switch (i + j) % 4 {
				case 0:
					e.SetSort("id")
				case 1:
					e.SetPage(j)
				case 2:
					e.SelectRow(j%10, true)
				case 3:
					e.SetFilter("id", "")
				}
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Equal(t, versions[i-1]+1, versions[i])
	}
	assert.Equal(t, e.State().Version, versions[len(versions)-1])
}

func TestSubscribe_ListenerReadsDuringConcurrentPublish(t *testing.T) {
	e := newSyncEngine(t, numbered(50), gridgo.WithPageSize(5))

	var reads atomic.Int64
	unsubscribe := e.Subscribe(func(s gridgo.Snapshot) {
		_ = e.State()
		_ = e.IsProcessing()
		_ = e.SelectedData()
		reads.Add(1)
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range 200 {
					e.SetPage((i+j)%10 + 1)
					if j%20 == 0 {
						e.SelectRow(j%5, true)
					}
				}
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("publishers stalled after %d listener reads", reads.Load())
	}
	assert.Equal(t, int64(e.State().Version), reads.Load())
}

func TestSubscribe_FromListener(t *testing.T) {
	e := newSyncEngine(t, ageRows())

	var nested int
	var once sync.Once
	e.Subscribe(func(gridgo.Snapshot) {
		once.Do(func() {
			e.Subscribe(func(gridgo.Snapshot) { nested++ })
		})
	})

	e.SetSort("age")
	e.SetSort("age")

	assert.Equal(t, 1, nested)
}

func TestDestroy(t *testing.T) {
	e := gridgo.New(ageRows())

	calls := 0
	e.Subscribe(func(gridgo.Snapshot) { calls++ })
	e.Destroy()

	version := e.State().Version
	e.SetSort("age")
	e.SelectRow(0, true)
	e.AddData(numbered(3))
	assert.False(t, e.UpdateCell(0, "age", 1))

	assert.Zero(t, calls)
	assert.Equal(t, version, e.State().Version)

	unsubscribe := e.Subscribe(func(gridgo.Snapshot) { calls++ })
	unsubscribe()
	e.Destroy()

	assert.ErrorIs(t, e.Close(), gridgo.ErrClosed)
}

func TestClose(t *testing.T) {
	e := gridgo.New(ageRows())

	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Close(), gridgo.ErrClosed)
}

func TestWorker_MatchesSyncPath(t *testing.T) {
	rows := testutil.NewRNG(42).Employees(150, 1)

	offloaded := gridgo.New(rows, gridgo.WithWorkerThreshold(100))
	t.Cleanup(offloaded.Destroy)
	inline := newSyncEngine(t, rows)

	var (
		mu         sync.Mutex
		processing bool
	)
	offloaded.Subscribe(func(s gridgo.Snapshot) {
		mu.Lock()
		processing = processing || s.IsProcessing
		mu.Unlock()
	})

	for _, e := range []*gridgo.Engine{offloaded, inline} {
		e.SetFilter("department", "ing")
		e.SetSort("salary")
		e.SetSort("salary")
	}
	waitIdle(t, offloaded)

	want, got := inline.State(), offloaded.State()
	assert.Equal(t, ids(want.FilteredData), ids(got.FilteredData))
	assert.Equal(t, ids(want.SortedData), ids(got.SortedData))
	assert.Equal(t, ids(want.PaginatedData), ids(got.PaginatedData))
	assert.Equal(t, want.TotalPages, got.TotalPages)

	mu.Lock()
	assert.True(t, processing)
	mu.Unlock()
}

func TestWorker_BelowThresholdRunsInline(t *testing.T) {
	metrics := &gridgo.BasicMetricsCollector{}
	e := gridgo.New(testutil.NewRNG(42).Employees(50, 1),
		gridgo.WithWorkerThreshold(100),
		gridgo.WithMetricsCollector(metrics),
	)
	t.Cleanup(e.Destroy)

	e.SetSort("salary")

	s := e.State()
	assert.False(t, s.IsProcessing)
	assert.Len(t, s.SortedData, 50)
	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.RecomputeCount)
	assert.Zero(t, stats.OffloadedCount)
}

func TestWorker_DropsStaleResults(t *testing.T) {
	release := make(chan struct{})
	handler := func(ctx context.Context, req compute.Request) (compute.Response, error) {
		if req.Generation == 1 {
			select {
			case <-release:
			case <-ctx.Done():
				return compute.Response{}, ctx.Err()
			}
		}
		return compute.Process(ctx, req)
	}

	metrics := &gridgo.BasicMetricsCollector{}
	e := gridgo.New(ageRows(),
		gridgo.WithWorkerThreshold(0),
		gridgo.WithWorkers(2),
		gridgo.WithWorkerHandler(handler),
		gridgo.WithMetricsCollector(metrics),
	)
	t.Cleanup(e.Destroy)

	e.SetSort("age")
	assert.True(t, e.IsProcessing())
	assert.Equal(t, []any{1, 2, 3}, ids(e.State().SortedData))

	e.SetSort("age")
	waitIdle(t, e)
	assert.Equal(t, []any{1, 3, 2}, ids(e.State().SortedData))

	close(release)
	require.Eventually(t, func() bool {
		return metrics.GetStats().DroppedResults == 1
	}, 5*time.Second, time.Millisecond)

	s := e.State()
	assert.Equal(t, []any{1, 3, 2}, ids(s.SortedData))
	assert.Equal(t, gridgo.Desc, s.Sort.Direction)
}

func TestWorker_SyncRecomputeSupersedesInFlight(t *testing.T) {
	release := make(chan struct{})
	handler := func(ctx context.Context, req compute.Request) (compute.Response, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return compute.Response{}, ctx.Err()
		}
		return compute.Process(ctx, req)
	}

	metrics := &gridgo.BasicMetricsCollector{}
	e := gridgo.New(numbered(5),
		gridgo.WithWorkerThreshold(3),
		gridgo.WithWorkerHandler(handler),
		gridgo.WithMetricsCollector(metrics),
	)
	t.Cleanup(e.Destroy)

	e.SetSort("id")
	require.True(t, e.IsProcessing())

	e.UpdateData(numbered(2))
	s := e.State()
	assert.False(t, s.IsProcessing)
	assert.Equal(t, []any{1, 2}, ids(s.SortedData))

	close(release)
	require.Eventually(t, func() bool {
		return metrics.GetStats().DroppedResults == 1
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, []any{1, 2}, ids(e.State().SortedData))
}

func TestWorker_ErrorKeepsPreviousData(t *testing.T) {
	errBoom := errors.New("boom")
	metrics := &gridgo.BasicMetricsCollector{}
	e := gridgo.New(ageRows(),
		gridgo.WithWorkerThreshold(0),
		gridgo.WithWorkerHandler(func(context.Context, compute.Request) (compute.Response, error) {
			return compute.Response{}, errBoom
		}),
		gridgo.WithMetricsCollector(metrics),
	)
	t.Cleanup(e.Destroy)

	e.SetSort("age")
	waitIdle(t, e)

	s := e.State()
	assert.Equal(t, []any{1, 2, 3}, ids(s.SortedData))
	assert.Equal(t, "age", s.Sort.Key)
	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.RecomputeErrors)
	assert.Equal(t, int64(1), stats.OffloadedCount)
}

func TestSnapshot_MarshalJSON(t *testing.T) {
	e := newSyncEngine(t, ageRows(), gridgo.WithPageSize(2))
	e.SetSort("age")
	e.SelectRow(1, true)

	data, err := json.Marshal(e.State())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"key": "age", "direction": "asc"}, decoded["sortConfig"])
	assert.Equal(t, []any{float64(1)}, decoded["selectedRows"])
	assert.InDelta(t, 2, decoded["totalPages"], 0)
	assert.Len(t, decoded["paginatedData"], 2)
	assert.Equal(t, "multiple", decoded["selectionMode"])
}

func TestSnapshot_Visible(t *testing.T) {
	e := newSyncEngine(t, numbered(100), gridgo.WithVirtualization(true))
	s := e.State()

	w := gridgo.VirtualWindow(len(s.Display()), 560, 56, 400, 5)
	visible := s.Visible(w)
	require.Len(t, visible, w.Len())
	assert.Equal(t, 6, visible[0]["id"])

	assert.Empty(t, s.Visible(gridgo.Window{Start: 150, End: 200}))
}
