package readline

import "github.com/corvidterm/term/event"

// Command identifies a built-in ReadLine action, dispatched either from the
// default key bindings or from an Options.KeyBindings override.
type Command int

const (
	CommandIgnore Command = iota
	CommandCursorHome
	CommandCursorEnd
	CommandCursorLeft
	CommandCursorRight
	CommandWordLeft
	CommandWordRight
	CommandBackspaceChar
	CommandBackspaceWord
	CommandDeleteChar
	CommandDeleteWord
	CommandCutSelection
	CommandCopySelection
	CommandPaste
	CommandAccept
	CommandCancel
	CommandUndo
	CommandRedo
	CommandHistoryPrev
	CommandHistoryNext
	CommandReverseSearch
	CommandClearLine
	CommandComplete
)

// Binding is a (key, modifiers) pair a KeyBindings map dispatches on. Char
// is only consulted when Key is event.KeyUnknown (the decoder's shape for
// Ctrl/Alt letter combinations); named keys ignore it.
type Binding struct {
	Key  event.Key
	Char rune
	Mods event.Modifiers
}

// KeyBindings maps a Binding to the Command it triggers. Options.KeyBindings
// overrides DefaultKeyBindings entry-by-entry; a Binding absent from both
// falls through to plain-character insertion (Text/Key{Unknown} events with
// no modifiers) or is otherwise ignored.
type KeyBindings map[Binding]Command

func ctrl(r rune) Binding { return Binding{Key: event.KeyUnknown, Char: r, Mods: event.ModCtrl} }
func alt(r rune) Binding  { return Binding{Key: event.KeyUnknown, Char: r, Mods: event.ModAlt} }
func plain(k event.Key) Binding { return Binding{Key: k} }
func withMods(k event.Key, m event.Modifiers) Binding { return Binding{Key: k, Mods: m} }

// DefaultKeyBindings is the binding set ReadLine uses when
// Options.KeyBindings is nil or does not cover a given Binding. It is not
// a GNU Readline clone: bindings are chosen for a modern terminal (Ctrl+V
// paste, Ctrl+Z/Ctrl+Y undo/redo) rather than bash's C-y/M-y yank/yank-pop,
// since the spec names the commands but not bash compatibility.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		plain(event.KeyHome):                    CommandCursorHome,
		ctrl('a'):                                CommandCursorHome,
		plain(event.KeyEnd):                      CommandCursorEnd,
		ctrl('e'):                                CommandCursorEnd,
		plain(event.KeyLeft):                     CommandCursorLeft,
		ctrl('b'):                                CommandCursorLeft,
		plain(event.KeyRight):                    CommandCursorRight,
		ctrl('f'):                                CommandCursorRight,
		withMods(event.KeyLeft, event.ModCtrl):   CommandWordLeft,
		alt('b'):                                 CommandWordLeft,
		withMods(event.KeyRight, event.ModCtrl):  CommandWordRight,
		alt('f'):                                 CommandWordRight,
		plain(event.KeyBackspace):                CommandBackspaceChar,
		ctrl('h'):                                CommandBackspaceChar,
		withMods(event.KeyBackspace, event.ModAlt): CommandBackspaceWord,
		ctrl('w'):                                CommandBackspaceWord,
		plain(event.KeyDelete):                   CommandDeleteChar,
		ctrl('d'):                                CommandDeleteChar,
		alt('d'):                                 CommandDeleteWord,
		ctrl('x'):                                CommandCutSelection,
		ctrl('v'):                                CommandPaste,
		plain(event.KeyEnter):                    CommandAccept,
		plain(event.KeyEscape):                   CommandCancel,
		ctrl('g'):                                CommandCancel,
		ctrl('z'):                                CommandUndo,
		ctrl('y'):                                CommandRedo,
		plain(event.KeyUp):                       CommandHistoryPrev,
		ctrl('p'):                                CommandHistoryPrev,
		plain(event.KeyDown):                     CommandHistoryNext,
		ctrl('n'):                                CommandHistoryNext,
		ctrl('r'):                                CommandReverseSearch,
		ctrl('u'):                                CommandClearLine,
		plain(event.KeyTab):                      CommandComplete,
	}
}

// lookup resolves ev (a Key event) to a Command via overrides first, then
// DefaultKeyBindings, returning (CommandIgnore, false) if nothing matches
// (the caller then falls back to plain-character insertion).
func (kb KeyBindings) lookup(k event.KeyEvent) (Command, bool) {
	b := Binding{Key: k.Key, Mods: k.Mods}
	if k.Key == event.KeyUnknown {
		b.Char = k.Char
	}
	if cmd, ok := kb[b]; ok {
		return cmd, true
	}
	return CommandIgnore, false
}
