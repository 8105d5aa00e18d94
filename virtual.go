package gridgo

import "math"

const (
	DefaultRowHeight      = 56
	DefaultViewportHeight = 400
	DefaultOverscan       = 5
)

// Window is the range of display rows a virtualized view renders.
type Window struct {
	Start       int     `json:"start"`
	End         int     `json:"end"`
	OffsetY     float64 `json:"offsetY"`
	TotalHeight float64 `json:"totalHeight"`
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// VirtualWindow computes the rows to render for a scroll position. Rows
// outside [Start, End) are off screen; OffsetY is the top of row Start.
//
// Non-positive rowHeight and viewportHeight fall back to DefaultRowHeight
// and DefaultViewportHeight; a negative overscan counts as zero.
func VirtualWindow(total int, scrollTop, rowHeight, viewportHeight float64, overscan int) Window {
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	if viewportHeight <= 0 {
		viewportHeight = DefaultViewportHeight
	}
	total = max(total, 0)
	overscan = max(overscan, 0)
	scrollTop = max(scrollTop, 0)

	start := max(0, int(math.Floor(scrollTop/rowHeight))-overscan)
	start = min(start, total)
	visible := int(math.Ceil(viewportHeight / rowHeight))
	end := min(total, start+visible+2*overscan)

	return Window{
		Start:       start,
		End:         end,
		OffsetY:     float64(start) * rowHeight,
		TotalHeight: float64(total) * rowHeight,
	}
}
