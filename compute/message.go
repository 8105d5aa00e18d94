package compute

import (
	"errors"

	"github.com/hupe1980/gridgo/row"
)

// ErrUnknownMessage is returned for requests with an unsupported type.
var ErrUnknownMessage = errors.New("unknown message type")

// MessageType tags worker messages.
type MessageType string

const (
	// TypeSortAndFilter requests a filter and sort pass.
	TypeSortAndFilter MessageType = "SORT_AND_FILTER"
	// TypeSortAndFilterComplete answers a TypeSortAndFilter request.
	TypeSortAndFilterComplete MessageType = "SORT_AND_FILTER_COMPLETE"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortConfig is the single active sort key of a grid.
type SortConfig struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Toggled returns the config with its direction flipped.
func (s SortConfig) Toggled() SortConfig {
	if s.Direction == Asc {
		s.Direction = Desc
	} else {
		s.Direction = Asc
	}
	return s
}

// Payload is the input of a filter and sort pass.
type Payload struct {
	Data       []row.Row         `json:"data"`
	SortConfig *SortConfig       `json:"sortConfig"`
	Filters    map[string]string `json:"filters"`
}

// Request is a message sent to a Worker.
type Request struct {
	Type       MessageType `json:"type"`
	Generation uint64      `json:"generation"`
	Payload    Payload     `json:"payload"`
}

// Result is the output of a filter and sort pass.
type Result struct {
	FilteredData []row.Row `json:"filteredData"`
	SortedData   []row.Row `json:"sortedData"`
}

// Response is a message received from a Worker.
//
// Err is set when the pass failed; Payload is empty in that case.
type Response struct {
	Type       MessageType `json:"type"`
	Generation uint64      `json:"generation"`
	Payload    Result      `json:"payload"`
	Err        error       `json:"-"`
}
