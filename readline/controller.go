package readline

// The methods in this file are the controller surface handed to
// Options.KeyHandler and Options.MouseHandler: enough to inspect and
// mutate editor state from a pre-dispatch hook without exposing the
// unexported fields driving the state machine itself.

// Buffer returns the current line content.
func (e *Editor) Buffer() string { return e.buffer }

// CursorIndex returns the cursor's byte offset into Buffer().
func (e *Editor) CursorIndex() int { return e.cursor }

// SetCursorIndex moves the cursor to idx, clamped to [0, len(Buffer())].
func (e *Editor) SetCursorIndex(idx int) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(e.buffer) {
		idx = len(e.buffer)
	}
	e.cursor = idx
}

// Selection returns the active selection's start offset and length
// (length 0 means no selection).
func (e *Editor) Selection() (start, length int) { return e.selStart, e.selLen }

// SetSelection replaces the active selection.
func (e *Editor) SetSelection(start, length int) {
	if start < 0 {
		start = 0
	}
	if start > len(e.buffer) {
		start = len(e.buffer)
	}
	if length < 0 {
		length = 0
	}
	if start+length > len(e.buffer) {
		length = len(e.buffer) - start
	}
	e.selStart, e.selLen = start, length
}

// Replace substitutes buffer[start:end] with text as its own undo step
// and moves the cursor to just past the inserted text.
func (e *Editor) Replace(start, end int, text string) {
	if start < 0 {
		start = 0
	}
	if end > len(e.buffer) {
		end = len(e.buffer)
	}
	if end < start {
		end = start
	}
	e.beginEdit(false)
	e.buffer = e.buffer[:start] + text + e.buffer[end:]
	e.cursor = start + len(text)
	e.clearSelection()
}

// InsertText inserts text at the cursor, coalescing with an in-progress
// typing batch exactly like ordinary character input.
func (e *Editor) InsertText(text string) { e.insertText(text) }

// Bell rings the terminal bell, for handlers signalling a rejected input.
func (e *Editor) Bell() { e.bell() }

// IsSearching reports whether the editor is in reverse-incremental
// search mode (Ctrl+R).
func (e *Editor) IsSearching() bool { return e.mode == modeReverseSearch }

// SearchQuery returns the current reverse-search query text.
func (e *Editor) SearchQuery() string { return e.searchQuery }
