package gridgo

import "github.com/hupe1980/gridgo/compute"

// SelectionMode controls how SelectRow treats existing selections.
type SelectionMode string

const (
	// SelectionSingle keeps at most one row selected.
	SelectionSingle SelectionMode = "single"
	// SelectionMultiple selects rows independently.
	SelectionMultiple SelectionMode = "multiple"
)

func (m SelectionMode) valid() bool {
	return m == SelectionSingle || m == SelectionMultiple
}

// SortSpec is the active sort of a grid.
type SortSpec = compute.SortConfig

// Direction is a sort direction.
type Direction = compute.Direction

const (
	Asc  = compute.Asc
	Desc = compute.Desc
)

// CellRef addresses the cell being edited. RowIndex is a display index.
type CellRef struct {
	RowIndex int    `json:"rowIndex"`
	ColumnID string `json:"columnId"`
}
