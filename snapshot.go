package gridgo

import (
	"slices"

	"github.com/hupe1980/gridgo/codec"
	"github.com/hupe1980/gridgo/grouping"
	"github.com/hupe1980/gridgo/row"
)

// Snapshot is an immutable view of the grid state. Slices and maps are
// shared between snapshots and must be treated as read-only.
type Snapshot struct {
	Data          []row.Row         `json:"data"`
	Filters       map[string]string `json:"filters"`
	Sort          *SortSpec         `json:"sortConfig"`
	FilteredData  []row.Row         `json:"filteredData"`
	SortedData    []row.Row         `json:"sortedData"`
	PaginatedData []row.Row         `json:"paginatedData"`

	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalPages  int `json:"totalPages"`

	// SelectedRows holds display indices in ascending order.
	SelectedRows []int `json:"selectedRows"`
	// SelectedKeys holds the row keys behind the selection in selection
	// order, including rows that are not displayed.
	SelectedKeys []string `json:"selectedKeys"`

	EditingCell           *CellRef      `json:"editingCell"`
	SelectionMode         SelectionMode `json:"selectionMode"`
	VirtualizationEnabled bool          `json:"virtualizationEnabled"`

	GroupBy grouping.Keys     `json:"groupBy"`
	Groups  []*grouping.Group `json:"groups,omitempty"`

	IsProcessing bool   `json:"isProcessing"`
	Version      uint64 `json:"version"`
}

// Display returns the rows a view renders: SortedData when virtualization is
// enabled, PaginatedData otherwise. Display indices refer to this slice.
func (s Snapshot) Display() []row.Row {
	if s.VirtualizationEnabled {
		return s.SortedData
	}
	return s.PaginatedData
}

// IsSelected reports whether the display row at index is selected.
func (s Snapshot) IsSelected(index int) bool {
	_, found := slices.BinarySearch(s.SelectedRows, index)
	return found
}

// SelectedData returns the selected display rows in display order.
func (s Snapshot) SelectedData() []row.Row {
	display := s.Display()
	out := make([]row.Row, 0, len(s.SelectedRows))
	for _, i := range s.SelectedRows {
		out = append(out, display[i])
	}
	return out
}

// Visible returns the display rows covered by w.
func (s Snapshot) Visible(w Window) []row.Row {
	display := s.Display()
	start := min(max(w.Start, 0), len(display))
	end := min(start+max(w.Len(), 0), len(display))
	return display[start:end:end]
}

type snapshotJSON Snapshot

// MarshalJSON encodes the snapshot with codec.Default.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return codec.Default.Marshal(snapshotJSON(s))
}
