package presenter

import (
	"fmt"

	"github.com/okian/deck/internal/domain/format"
	"github.com/okian/deck/internal/domain/readout"
)

// Frame is a snapshot of the deck for rendering.
type Frame struct {
	Slide    SlideView
	Index    int
	Total    int
	AtStart  bool
	AtEnd    bool
	Counters []string
	Live     *LiveFrame
	Readout  *readout.View
	Hovered  int
	Detail   *RowView
}

// LiveFrame is the ticking readout as currently shown.
type LiveFrame struct {
	Label    string
	Value    string
	Flashing bool
}

// Progress renders the position, e.g. "03 / 06".
func (f Frame) Progress() string {
	return fmt.Sprintf("%02d / %02d", f.Index+1, f.Total)
}

func formatLive(v float64, lv *LiveView) string {
	return format.Value(v, lv.Format)
}
