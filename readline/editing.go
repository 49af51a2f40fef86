package readline

import (
	"unicode/utf8"

	"github.com/corvidterm/term/cellwidth"
	"github.com/corvidterm/term/event"
)

// beginEdit records an undo snapshot before a mutation. coalesce keeps the
// current snapshot (rather than pushing a new one) when the editor is
// already mid-batch, so a run of typed characters shares one undo step;
// any non-coalescing edit or cursor move ends the batch via endBatch.
func (e *Editor) beginEdit(coalesce bool) {
	if coalesce && e.batching {
		return
	}
	e.undoStack = append(e.undoStack, undoSnapshot{buffer: e.buffer, cursor: e.cursor})
	e.redoStack = nil
	e.batching = coalesce
}

// endBatch closes the current insert-coalescing batch without recording a
// snapshot, for operations (cursor motion) that never mutate the buffer.
func (e *Editor) endBatch() {
	e.batching = false
}

func (e *Editor) undo() {
	if len(e.undoStack) == 0 {
		e.bell()
		return
	}
	n := len(e.undoStack) - 1
	snap := e.undoStack[n]
	e.undoStack = e.undoStack[:n]
	e.redoStack = append(e.redoStack, undoSnapshot{buffer: e.buffer, cursor: e.cursor})
	e.buffer, e.cursor = snap.buffer, snap.cursor
	e.batching = false
	e.clearSelection()
}

func (e *Editor) redo() {
	if len(e.redoStack) == 0 {
		e.bell()
		return
	}
	n := len(e.redoStack) - 1
	snap := e.redoStack[n]
	e.redoStack = e.redoStack[:n]
	e.undoStack = append(e.undoStack, undoSnapshot{buffer: e.buffer, cursor: e.cursor})
	e.buffer, e.cursor = snap.buffer, snap.cursor
	e.batching = false
	e.clearSelection()
}

func (e *Editor) clearSelection() {
	e.selStart, e.selLen = 0, 0
}

// extendSelection grows or shrinks the active selection in response to a
// Shift+motion key, anchoring at the cursor position the first time a
// selection is started.
func (e *Editor) extendSelection(k event.Key) {
	if e.selLen == 0 {
		e.selAnchor = e.cursor
	}
	switch k {
	case event.KeyLeft:
		e.cursor = cellwidth.PrevGrapheme(e.buffer, e.cursor)
	case event.KeyRight:
		e.cursor = cellwidth.NextGrapheme(e.buffer, e.cursor)
	case event.KeyHome:
		e.cursor = 0
	case event.KeyEnd:
		e.cursor = len(e.buffer)
	}
	if e.cursor < e.selAnchor {
		e.selStart, e.selLen = e.cursor, e.selAnchor-e.cursor
	} else {
		e.selStart, e.selLen = e.selAnchor, e.cursor-e.selAnchor
	}
}

func (e *Editor) fitsMaxLength(added int) bool {
	if e.opts.MaxLength <= 0 {
		return true
	}
	return utf8.RuneCountInString(e.buffer)+added <= e.opts.MaxLength
}

// insertText inserts text at the cursor (replacing the active selection,
// if any), rejecting the whole edit with a bell if it would exceed
// MaxLength. Consecutive calls coalesce into one undo step.
func (e *Editor) insertText(text string) {
	if text == "" {
		return
	}
	if !e.fitsMaxLength(utf8.RuneCountInString(text)) {
		e.bell()
		return
	}
	e.beginEdit(true)
	if e.selLen > 0 {
		e.buffer = e.buffer[:e.selStart] + text + e.buffer[e.selStart+e.selLen:]
		e.cursor = e.selStart + len(text)
		e.clearSelection()
	} else {
		e.buffer = e.buffer[:e.cursor] + text + e.buffer[e.cursor:]
		e.cursor += len(text)
	}
}

// insertPaste is insertText's bulk counterpart: rather than rejecting an
// oversize paste outright, it truncates to what MaxLength allows, and
// always starts its own undo step (pastes never coalesce with typing).
func (e *Editor) insertPaste(text string) {
	if text == "" {
		return
	}
	if e.opts.MaxLength > 0 {
		allowed := e.opts.MaxLength - utf8.RuneCountInString(e.buffer)
		if allowed <= 0 {
			e.bell()
			return
		}
		if n := utf8.RuneCountInString(text); n > allowed {
			text = truncateRunes(text, allowed)
		}
	}
	e.beginEdit(false)
	if e.selLen > 0 {
		e.buffer = e.buffer[:e.selStart] + text + e.buffer[e.selStart+e.selLen:]
		e.cursor = e.selStart + len(text)
		e.clearSelection()
	} else {
		e.buffer = e.buffer[:e.cursor] + text + e.buffer[e.cursor:]
		e.cursor += len(text)
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// deleteSelectionOnly removes the active selection without touching the
// clipboard, used when Backspace/Delete fire while a selection is held.
func (e *Editor) deleteSelectionOnly() {
	e.beginEdit(false)
	e.buffer = e.buffer[:e.selStart] + e.buffer[e.selStart+e.selLen:]
	e.cursor = e.selStart
	e.clearSelection()
}

func (e *Editor) backspaceChar() {
	if e.selLen > 0 {
		e.deleteSelectionOnly()
		return
	}
	if e.cursor == 0 {
		e.bell()
		return
	}
	start := cellwidth.PrevGrapheme(e.buffer, e.cursor)
	e.beginEdit(false)
	e.buffer = e.buffer[:start] + e.buffer[e.cursor:]
	e.cursor = start
}

func (e *Editor) backspaceWord() {
	if e.selLen > 0 {
		e.deleteSelectionOnly()
		return
	}
	start := cellwidth.WordStart(e.buffer, e.cursor)
	if start == e.cursor {
		e.bell()
		return
	}
	e.beginEdit(false)
	e.buffer = e.buffer[:start] + e.buffer[e.cursor:]
	e.cursor = start
}

func (e *Editor) deleteChar() {
	if e.selLen > 0 {
		e.deleteSelectionOnly()
		return
	}
	if e.cursor == len(e.buffer) {
		e.bell()
		return
	}
	end := cellwidth.NextGrapheme(e.buffer, e.cursor)
	e.beginEdit(false)
	e.buffer = e.buffer[:e.cursor] + e.buffer[end:]
}

func (e *Editor) deleteWord() {
	if e.selLen > 0 {
		e.deleteSelectionOnly()
		return
	}
	end := cellwidth.WordEnd(e.buffer, e.cursor)
	if end == e.cursor {
		e.bell()
		return
	}
	e.beginEdit(false)
	e.buffer = e.buffer[:e.cursor] + e.buffer[end:]
}

func (e *Editor) clearLine() {
	if e.buffer == "" {
		return
	}
	e.beginEdit(false)
	e.buffer = ""
	e.cursor = 0
	e.clearSelection()
}

// cutSelection copies the selection to the clipboard (best-effort, silent
// on failure) and removes it from the buffer.
func (e *Editor) cutSelection() {
	if e.selLen == 0 {
		return
	}
	text := e.buffer[e.selStart : e.selStart+e.selLen]
	if e.clip != nil {
		e.clip.SetClipboardText(text)
	}
	e.deleteSelectionOnly()
}

// copySelection copies the selection to the clipboard without modifying
// the buffer.
func (e *Editor) copySelection() {
	if e.selLen == 0 {
		return
	}
	if e.clip == nil {
		return
	}
	e.clip.SetClipboardText(e.buffer[e.selStart : e.selStart+e.selLen])
}

// pasteClipboard inserts the system clipboard's text at the cursor, as a
// bulk (non-coalescing, truncating) insert. Silent (bell only) if the
// clipboard is unavailable or empty.
func (e *Editor) pasteClipboard() {
	if e.clip == nil {
		e.bell()
		return
	}
	text, ok := e.clip.GetClipboardText()
	if !ok {
		e.bell()
		return
	}
	e.insertPaste(text)
}

func (e *Editor) historyPrev() {
	if e.history.Len() == 0 {
		e.bell()
		return
	}
	if e.historyCursor < 0 {
		e.historyStash = e.buffer
		e.historyCursor = e.history.Len()
	}
	if e.historyCursor == 0 {
		e.bell()
		return
	}
	e.historyCursor--
	e.endBatch()
	e.buffer = e.history.At(e.historyCursor)
	e.cursor = len(e.buffer)
	e.clearSelection()
}

func (e *Editor) historyNext() {
	if e.historyCursor < 0 {
		e.bell()
		return
	}
	e.historyCursor++
	e.endBatch()
	if e.historyCursor >= e.history.Len() {
		e.historyCursor = -1
		e.buffer = e.historyStash
	} else {
		e.buffer = e.history.At(e.historyCursor)
	}
	e.cursor = len(e.buffer)
	e.clearSelection()
}

func (e *Editor) enterSearch() {
	e.preSearchBuf = e.buffer
	e.preSearchCur = e.cursor
	e.searchQuery = ""
	e.searchHitIndex = -1
	e.mode = modeReverseSearch
}

func (e *Editor) searchAppend(text string) {
	e.searchQuery += text
	e.runSearch(e.history.Len())
}

func (e *Editor) runSearch(from int) {
	idx, text, found := e.history.SearchBackward(e.searchQuery, from)
	if !found {
		e.bell()
		return
	}
	e.searchHitIndex = idx
	e.buffer = text
	e.cursor = len(text)
}

// handleKeyInSearch interprets keys while ReverseSearch mode is active:
// Ctrl+R repeats the search further back, Backspace edits the query,
// Enter accepts the current hit, Escape/Ctrl+G reverts to the
// pre-search buffer, and any arrow key exits search keeping the hit.
func (e *Editor) handleKeyInSearch(k event.KeyEvent) (changed, done bool, line string, err error) {
	switch {
	case k.Key == event.KeyUnknown && k.Char == 'r' && k.Mods == event.ModCtrl:
		if e.searchHitIndex < 0 {
			e.runSearch(e.history.Len())
		} else {
			e.runSearch(e.searchHitIndex)
		}
		return true, false, "", nil
	case k.Key == event.KeyBackspace || (k.Key == event.KeyUnknown && k.Char == 'h' && k.Mods == event.ModCtrl):
		if e.searchQuery != "" {
			_, size := utf8.DecodeLastRuneInString(e.searchQuery)
			e.searchQuery = e.searchQuery[:len(e.searchQuery)-size]
			e.runSearch(e.history.Len())
		}
		return true, false, "", nil
	case k.Key == event.KeyEnter:
		e.mode = modeNormal
		return e.accept()
	case k.Key == event.KeyEscape || (k.Key == event.KeyUnknown && k.Char == 'g' && k.Mods == event.ModCtrl):
		e.buffer = e.preSearchBuf
		e.cursor = e.preSearchCur
		e.mode = modeNormal
		return true, false, "", nil
	case k.Key == event.KeyUp || k.Key == event.KeyDown || k.Key == event.KeyLeft || k.Key == event.KeyRight:
		e.mode = modeNormal
		return true, false, "", nil
	default:
		return false, false, "", nil
	}
}

// complete runs (or cycles) the completion handler. The first Tab
// computes candidates and applies the first one; each subsequent Tab
// (before any other key) advances to the next candidate, replacing the
// span the previous candidate occupied.
func (e *Editor) complete() {
	if !e.completing {
		candidates := e.opts.CompletionHandler(e.buffer, e.cursor)
		if len(candidates) == 0 {
			e.bell()
			return
		}
		e.completions = candidates
		e.completionIndex = 0
		e.completing = true
		e.completionSpanStart = candidates[0].ReplaceStart
		e.completionSpanLen = candidates[0].ReplaceLength
		e.beginEdit(false)
	} else {
		e.completionIndex = (e.completionIndex + 1) % len(e.completions)
	}
	c := e.completions[e.completionIndex]
	start := e.completionSpanStart
	end := start + e.completionSpanLen
	if end > len(e.buffer) {
		end = len(e.buffer)
	}
	e.buffer = e.buffer[:start] + c.Text + e.buffer[end:]
	e.cursor = start + len(c.Text)
	e.completionSpanLen = len(c.Text)
}

// handleMouse positions the cursor on click and extends a selection while
// the button is dragged, mapping the click's column back to a buffer
// index through the same cell-width arithmetic the renderer uses.
func (e *Editor) handleMouse(m event.MouseEvent) {
	promptCells := cellwidth.Width(e.opts.Prompt, cellwidth.DefaultTabWidth)
	rel := m.X - promptCells
	if rel < 0 {
		rel = 0
	}
	visible := ""
	if e.viewStart <= len(e.buffer) {
		visible = e.buffer[e.viewStart:]
	}
	idx := e.viewStart + cellwidth.IndexAtCell(visible, rel)
	if idx > len(e.buffer) {
		idx = len(e.buffer)
	}

	switch m.Kind {
	case event.MouseDown:
		e.mouseAnchor = idx
		e.cursor = idx
		e.clearSelection()
	case event.MouseDrag:
		e.cursor = idx
		if idx < e.mouseAnchor {
			e.selStart, e.selLen = idx, e.mouseAnchor-idx
		} else {
			e.selStart, e.selLen = e.mouseAnchor, idx-e.mouseAnchor
		}
	}
}
