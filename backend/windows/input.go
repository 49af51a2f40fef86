//go:build windows

package windows

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/corvidterm/term/event"
)

const (
	keyEvent              = 0x0001
	mouseEvent            = 0x0002
	windowBufferSizeEvent = 0x0004

	fromLeft1stButtonPressed = 0x0001
	rightmostButtonPressed   = 0x0002
	fromLeft2ndButtonPressed = 0x0004

	mouseMoved  = 0x0001
	mouseWheeled = 0x0004

	vkUp, vkDown, vkLeft, vkRight = 0x26, 0x28, 0x25, 0x27
	vkHome, vkEnd                 = 0x24, 0x23
	vkPrior, vkNext                = 0x21, 0x22
	vkInsert, vkDelete              = 0x2D, 0x2E
	vkF1                          = 0x70

	shiftPressed    = 0x0010
	leftCtrlPressed  = 0x0008
	rightCtrlPressed = 0x0004
	leftAltPressed   = 0x0002
	rightAltPressed  = 0x0001
)

var (
	modkernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procReadConsoleInputW   = modkernel32.NewProc("ReadConsoleInputW")
	procWaitForSingleObject = modkernel32.NewProc("WaitForSingleObject")
)

// coord and the record layouts below mirror the Win32 INPUT_RECORD union
// fields used by ReadConsoleInputW; x/sys/windows does not wrap this API,
// so the raw struct layout is reproduced here.
type coord struct {
	X, Y int16
}

type keyEventRecord struct {
	KeyDown         int32
	RepeatCount     uint16
	VirtualKeyCode  uint16
	VirtualScanCode uint16
	UnicodeChar     uint16
	ControlKeyState uint32
}

type mouseEventRecord struct {
	MousePosition     coord
	ButtonState       uint32
	ControlKeyState   uint32
	EventFlags        uint32
}

type windowBufferSizeRecord struct {
	Size coord
}

type inputRecord struct {
	EventType uint16
	_         uint16
	Event     [16]byte
}

func (r *inputRecord) asKeyEvent() *keyEventRecord {
	return (*keyEventRecord)(unsafe.Pointer(&r.Event[0]))
}

func (r *inputRecord) asMouseEvent() *mouseEventRecord {
	return (*mouseEventRecord)(unsafe.Pointer(&r.Event[0]))
}

func (r *inputRecord) asWindowBufferSizeEvent() *windowBufferSizeRecord {
	return (*windowBufferSizeRecord)(unsafe.Pointer(&r.Event[0]))
}

// readConsoleInput waits up to timeout for at least one record, then reads
// whatever is buffered (up to len(records)) without blocking further.
func readConsoleInput(h windows.Handle, records []inputRecord, timeout time.Duration) (int, error) {
	const waitTimeout = 0x00000102
	const waitFailed = 0xFFFFFFFF

	ms := uint32(timeout / time.Millisecond)
	r, _, _ := procWaitForSingleObject.Call(uintptr(h), uintptr(ms))
	if r == waitTimeout {
		return 0, nil
	}
	if r == waitFailed {
		return 0, fmt.Errorf("WaitForSingleObject failed")
	}

	var read uint32
	r1, _, err := procReadConsoleInputW.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&records[0])),
		uintptr(len(records)),
		uintptr(unsafe.Pointer(&read)),
	)
	if r1 == 0 {
		return 0, err
	}
	return int(read), nil
}

func translateModifiers(state uint32) event.Modifiers {
	m := event.ModNone
	if state&shiftPressed != 0 {
		m |= event.ModShift
	}
	if state&(leftCtrlPressed|rightCtrlPressed) != 0 {
		m |= event.ModCtrl
	}
	if state&(leftAltPressed|rightAltPressed) != 0 {
		m |= event.ModAlt
	}
	return m
}

// translate turns one console input record into zero or more events. When
// VT input routing is active (see VtInputDecoderMode), a key record's raw
// UnicodeChar is fed byte-by-byte through the shared decoder instead of
// being translated directly, so a VT escape sequence arriving as a run of
// single-character key records (bracketed paste, SGR mouse) is reassembled
// exactly the way the Unix backend's byte stream is, rather than being
// reported as a sequence of literal Key events for '\x1b', '[', etc.
func (b *Backend) translate(r inputRecord) []event.Event {
	switch r.EventType {
	case keyEvent:
		k := r.asKeyEvent()
		if k.KeyDown == 0 {
			return nil
		}
		if b.vtActive && k.UnicodeChar != 0 {
			return b.dec.Decode(string(rune(k.UnicodeChar)), false)
		}
		mods := translateModifiers(k.ControlKeyState)
		if named, ok := namedKeyFromVK(k.VirtualKeyCode); ok {
			return []event.Event{event.NewKey(named, 0, mods)}
		}
		if k.UnicodeChar == 0 {
			return nil
		}
		return []event.Event{event.NewKey(event.KeyUnknown, rune(k.UnicodeChar), event.StripShiftForPrintable(mods))}

	case mouseEvent:
		m := r.asMouseEvent()
		return []event.Event{b.translateMouse(m)}

	case windowBufferSizeEvent:
		s := r.asWindowBufferSizeEvent()
		return []event.Event{event.NewResize(uint(s.Size.X), uint(s.Size.Y))}
	}
	return nil
}

func namedKeyFromVK(vk uint16) (event.Key, bool) {
	switch vk {
	case vkUp:
		return event.KeyUp, true
	case vkDown:
		return event.KeyDown, true
	case vkLeft:
		return event.KeyLeft, true
	case vkRight:
		return event.KeyRight, true
	case vkHome:
		return event.KeyHome, true
	case vkEnd:
		return event.KeyEnd, true
	case vkPrior:
		return event.KeyPageUp, true
	case vkNext:
		return event.KeyPageDown, true
	case vkInsert:
		return event.KeyInsert, true
	case vkDelete:
		return event.KeyDelete, true
	}
	if vk >= vkF1 && vk <= vkF1+11 {
		return event.Key(int(event.KeyF1) + int(vk-vkF1)), true
	}
	return event.KeyUnknown, false
}

func (b *Backend) translateMouse(m *mouseEventRecord) event.Event {
	mods := translateModifiers(m.ControlKeyState)
	x, y := int(m.MousePosition.X), int(m.MousePosition.Y)

	if m.EventFlags&mouseWheeled != 0 {
		delta := int16(m.ButtonState >> 16)
		kind := event.MouseWheel
		button := event.MouseButtonWheelUp
		wd := 1
		if delta < 0 {
			button = event.MouseButtonWheelDown
			wd = -1
		}
		return event.NewMouse(event.MouseEvent{X: x, Y: y, Button: button, Kind: kind, Mods: mods, WheelDelta: wd})
	}

	button := event.MouseButtonNone
	switch {
	case m.ButtonState&fromLeft1stButtonPressed != 0:
		button = event.MouseButtonLeft
	case m.ButtonState&rightmostButtonPressed != 0:
		button = event.MouseButtonRight
	case m.ButtonState&fromLeft2ndButtonPressed != 0:
		button = event.MouseButtonMiddle
	}

	var kind event.MouseKind
	switch {
	case m.EventFlags&mouseMoved != 0 && button != event.MouseButtonNone:
		kind = event.MouseDrag
	case m.EventFlags&mouseMoved != 0:
		kind = event.MouseMove
	case button != event.MouseButtonNone && button != b.lastButtonHeld():
		kind = event.MouseDown
	default:
		kind = event.MouseUp
	}

	b.lastMouseButtons = m.ButtonState
	return event.NewMouse(event.MouseEvent{X: x, Y: y, Button: button, Kind: kind, Mods: mods})
}

func (b *Backend) lastButtonHeld() event.MouseButton {
	switch {
	case b.lastMouseButtons&fromLeft1stButtonPressed != 0:
		return event.MouseButtonLeft
	case b.lastMouseButtons&rightmostButtonPressed != 0:
		return event.MouseButtonRight
	case b.lastMouseButtons&fromLeft2ndButtonPressed != 0:
		return event.MouseButtonMiddle
	}
	return event.MouseButtonNone
}
