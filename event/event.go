// Package event defines the unified input event model the VT decoder,
// Windows console decoder, and virtual backend all produce, and that the
// broadcaster fans out and the ReadLine editor consumes.
package event

import "fmt"

// Modifiers is a bitset of keyboard modifiers held during a key or mouse
// event.
type Modifiers uint8

const (
	ModNone  Modifiers = 0
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

func (m Modifiers) HasShift() bool { return m&ModShift != 0 }
func (m Modifiers) HasCtrl() bool  { return m&ModCtrl != 0 }
func (m Modifiers) HasAlt() bool   { return m&ModAlt != 0 }
func (m Modifiers) HasMeta() bool  { return m&ModMeta != 0 }

// String renders the modifier set as "Ctrl+Alt" style text, or "None".
func (m Modifiers) String() string {
	if m == ModNone {
		return "None"
	}
	s := ""
	add := func(name string) {
		if s != "" {
			s += "+"
		}
		s += name
	}
	if m.HasShift() {
		add("Shift")
	}
	if m.HasCtrl() {
		add("Ctrl")
	}
	if m.HasAlt() {
		add("Alt")
	}
	if m.HasMeta() {
		add("Meta")
	}
	return s
}

// StripShiftForPrintable removes Shift from modifiers when the "shiftness"
// of a key is already encoded in the character it produced (printable text
// and Space), matching Unix terminal behavior where Shift+a arrives as the
// single byte 'A' rather than a and a Shift flag.
func StripShiftForPrintable(m Modifiers) Modifiers {
	return m &^ ModShift
}

// Key identifies a non-printable or named key.
type Key int

const (
	KeyUnknown Key = iota
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeySpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

func (k Key) String() string {
	names := map[Key]string{
		KeyUnknown: "Unknown", KeyEnter: "Enter", KeyEscape: "Escape",
		KeyBackspace: "Backspace", KeyTab: "Tab", KeySpace: "Space",
		KeyUp: "Up", KeyDown: "Down", KeyLeft: "Left", KeyRight: "Right",
		KeyHome: "Home", KeyEnd: "End", KeyPageUp: "PageUp", KeyPageDown: "PageDown",
		KeyInsert: "Insert", KeyDelete: "Delete",
		KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
		KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "Unknown"
}

// KeyEvent is the payload of a Key event: a named key, an optional rune
// (set for KeyUnknown carrying a printable/Ctrl/Alt character), and the
// modifiers held.
type KeyEvent struct {
	Key  Key
	Char rune // 0 if not applicable
	Mods Modifiers
}

// MouseButton identifies which button (if any) a mouse event concerns.
type MouseButton int

const (
	MouseButtonNone MouseButton = iota
	MouseButtonLeft
	MouseButtonMiddle
	MouseButtonRight
	MouseButtonWheelUp
	MouseButtonWheelDown
)

// MouseKind is the action a mouse event represents.
type MouseKind int

const (
	MouseDown MouseKind = iota
	MouseUp
	MouseMove
	MouseDrag
	MouseWheel
)

// MouseEvent is the payload of a Mouse event. X and Y are 0-based.
type MouseEvent struct {
	X, Y       int
	Button     MouseButton
	Kind       MouseKind
	Mods       Modifiers
	WheelDelta int
}

// Size is a terminal size in columns/rows. Zero means "unknown".
type Size struct {
	Cols, Rows uint
}

// Signal identifies an out-of-band process signal delivered as an event
// rather than killing the process (so apps can intercept Ctrl+C/Ctrl+Break).
type Signal int

const (
	SignalInterrupt Signal = iota
	SignalBreak
)

// Kind discriminates which field of Event is populated.
type Kind int

const (
	KindKey Kind = iota
	KindText
	KindPaste
	KindMouse
	KindResize
	KindSignal
	KindCursorPosition
)

// Event is a tagged union of everything the decoder/backends can produce.
// Only the field matching Kind is meaningful.
type Event struct {
	Kind Kind

	Key   KeyEvent
	Text  string
	Paste string
	Mouse MouseEvent
	Size  Size
	Sig   Signal

	// CursorRow/CursorCol hold a 0-based cursor-position report (CSI row;col R).
	CursorRow, CursorCol int
}

func (e Event) String() string {
	switch e.Kind {
	case KindKey:
		return fmt.Sprintf("Key{%s char=%q mods=%s}", e.Key.Key, e.Key.Char, e.Key.Mods)
	case KindText:
		return fmt.Sprintf("Text(%q)", e.Text)
	case KindPaste:
		return fmt.Sprintf("Paste(%q)", e.Paste)
	case KindMouse:
		return fmt.Sprintf("Mouse{x=%d y=%d button=%d kind=%d mods=%s}",
			e.Mouse.X, e.Mouse.Y, e.Mouse.Button, e.Mouse.Kind, e.Mouse.Mods)
	case KindResize:
		return fmt.Sprintf("Resize{%dx%d}", e.Size.Cols, e.Size.Rows)
	case KindSignal:
		return fmt.Sprintf("Signal(%d)", e.Sig)
	case KindCursorPosition:
		return fmt.Sprintf("CursorPosition{%d,%d}", e.CursorRow, e.CursorCol)
	default:
		return "Event{?}"
	}
}

// NewKey builds a Key event.
func NewKey(k Key, char rune, mods Modifiers) Event {
	return Event{Kind: KindKey, Key: KeyEvent{Key: k, Char: char, Mods: mods}}
}

// NewText builds a Text event.
func NewText(s string) Event { return Event{Kind: KindText, Text: s} }

// NewPaste builds a Paste event.
func NewPaste(s string) Event { return Event{Kind: KindPaste, Paste: s} }

// NewMouse builds a Mouse event.
func NewMouse(m MouseEvent) Event { return Event{Kind: KindMouse, Mouse: m} }

// NewResize builds a Resize event.
func NewResize(cols, rows uint) Event { return Event{Kind: KindResize, Size: Size{Cols: cols, Rows: rows}} }

// NewSignal builds a Signal event.
func NewSignal(s Signal) Event { return Event{Kind: KindSignal, Sig: s} }

// NewCursorPosition builds a CursorPosition event.
func NewCursorPosition(row, col int) Event {
	return Event{Kind: KindCursorPosition, CursorRow: row, CursorCol: col}
}
