package readline

import (
	"strconv"

	"github.com/corvidterm/term/cellwidth"
)

const ellipsis = "…"

const defaultViewWidth = 80

// ensureCursorVisible maintains the view_start ≤ cursor_index ≤
// view_start+view_cells invariant: snap the window to the cursor when it
// moved left of it, then slide the window right one grapheme at a time
// until the cursor's cell offset from view_start fits view_width.
func (e *Editor) ensureCursorVisible() {
	width := e.viewWidth
	if width <= 0 {
		width = defaultViewWidth
	}
	if e.viewStart > len(e.buffer) || e.cursor < e.viewStart {
		e.viewStart = e.cursor
	}
	for e.viewStart < e.cursor {
		cells := cellwidth.Width(e.buffer[e.viewStart:e.cursor], cellwidth.DefaultTabWidth)
		if cells <= width {
			break
		}
		e.viewStart = cellwidth.NextGrapheme(e.buffer, e.viewStart)
	}
}

// visibleSlice returns the buffer slice starting at viewStart, clipped to
// viewWidth display cells, plus whether each edge was truncated.
func (e *Editor) visibleSlice() (slice string, truncatedLeft, truncatedRight bool) {
	width := e.viewWidth
	if width <= 0 {
		width = defaultViewWidth
	}
	truncatedLeft = e.viewStart > 0

	end, cells := e.viewStart, 0
	for end < len(e.buffer) {
		next := cellwidth.NextGrapheme(e.buffer, end)
		w := cellwidth.Width(e.buffer[end:next], cellwidth.DefaultTabWidth)
		if cells+w > width {
			break
		}
		cells += w
		end = next
	}
	truncatedRight = end < len(e.buffer)
	return e.buffer[e.viewStart:end], truncatedLeft, truncatedRight
}

// redraw emits the prompt, the visible slice (ellipsized at either edge
// when the buffer overflows the view), and repositions the cursor, all
// inside one WriteAtomic block so no other writer can interleave a
// partial render.
func (e *Editor) redraw() {
	e.ensureCursorVisible()
	slice, left, right := e.visibleSlice()

	rendered := slice
	if left && rendered != "" {
		cut := cellwidth.NextGrapheme(rendered, 0)
		rendered = ellipsis + rendered[cut:]
	}
	if right && rendered != "" {
		cut := cellwidth.PrevGrapheme(rendered, len(rendered))
		rendered = rendered[:cut] + ellipsis
	}
	if e.opts.MarkupRenderer != nil {
		rendered = e.opts.MarkupRenderer(rendered)
	}

	caretCells := cellwidth.Width(e.opts.Prompt, cellwidth.DefaultTabWidth) +
		cellwidth.Width(e.buffer[e.viewStart:e.cursor], cellwidth.DefaultTabWidth)

	_ = e.sink.WriteAtomic(func(w interface{ WriteString(string) (int, error) }) {
		w.WriteString("\r\x1b[2K")
		w.WriteString(e.opts.Prompt)
		w.WriteString(rendered)
		w.WriteString("\r")
		if caretCells > 0 {
			w.WriteString("\x1b[" + strconv.Itoa(caretCells) + "C")
		}
	})
}
