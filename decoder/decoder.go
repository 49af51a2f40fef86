// Package decoder turns a stream of decoded characters (as delivered by a
// Unix poll+read loop or a Windows VT input mode) into the unified event
// model in package event: keys, text, bracketed paste, SGR mouse reports,
// and cursor-position reports. It never fails; malformed sequences are
// dropped silently, matching real terminal input handling.
package decoder

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/corvidterm/term/event"
)

// Options configures a Decoder.
type Options struct {
	// TreatCtrlCAsInput, when false (the default), makes Ctrl+C also emit
	// a Signal(Interrupt) event alongside the ordinary Key event, so
	// callers that want process-style interrupt semantics can observe it.
	TreatCtrlCAsInput bool

	// OnCursorReport, if set, is invoked synchronously whenever a CSI
	// row;col R cursor-position report is decoded, in addition to the
	// CursorPosition event being returned from Decode. The Unix backend
	// uses this to fulfil a pending single-slot cursor query.
	OnCursorReport func(row, col int)
}

// Decoder is not safe for concurrent use; the spec requires only the
// backend's input thread mutate decoder state.
type Decoder struct {
	opts Options

	pending  string
	inPaste  bool
	pasteBuf strings.Builder
}

// New creates a Decoder with the given options.
func New(opts Options) *Decoder {
	return &Decoder{opts: opts}
}

// Decode feeds chunk (already UTF-8 decoded text) into the decoder and
// returns any events produced. final forces resolution of any pending
// lone-ESC or incomplete sequence (called after the backend's input-idle
// timeout); associativity holds for any chunking of the same byte stream
// fed with final=false between chunks and final=true on the last one.
func (d *Decoder) Decode(chunk string, final bool) []event.Event {
	d.pending += chunk

	var events []event.Event
	for len(d.pending) > 0 {
		consumed, evs, wait := d.step(d.pending, final)
		if wait {
			break
		}
		if consumed <= 0 {
			// Safety valve: never spin forever on a byte we can't classify.
			d.pending = d.pending[1:]
			continue
		}
		d.pending = d.pending[consumed:]
		events = append(events, evs...)
	}
	return events
}

func (d *Decoder) step(buf string, final bool) (int, []event.Event, bool) {
	if d.inPaste {
		return d.stepPaste(buf, final)
	}

	b0 := buf[0]
	switch {
	case b0 == 0x1B:
		return d.stepEscape(buf, final)
	case b0 < 0x20 || b0 == 0x7F:
		return d.stepControl(buf)
	default:
		return d.stepText(buf, final)
	}
}

func (d *Decoder) stepControl(buf string) (int, []event.Event, bool) {
	b := buf[0]
	switch b {
	case 0x09:
		return 1, []event.Event{event.NewKey(event.KeyTab, 0, event.ModNone)}, false
	case 0x08, 0x7F:
		return 1, []event.Event{event.NewKey(event.KeyBackspace, 0, event.ModNone)}, false
	case 0x0D, 0x0A:
		return 1, []event.Event{event.NewKey(event.KeyEnter, 0, event.ModNone)}, false
	case 0x03:
		evs := []event.Event{event.NewKey(event.KeyUnknown, 'c', event.ModCtrl)}
		if !d.opts.TreatCtrlCAsInput {
			evs = append(evs, event.NewSignal(event.SignalInterrupt))
		}
		return 1, evs, false
	}
	if b >= 1 && b <= 0x1A {
		return 1, []event.Event{event.NewKey(event.KeyUnknown, rune('a'+b-1), event.ModCtrl)}, false
	}
	// Unrecognized control byte (e.g. NUL): drop silently.
	return 1, nil, false
}

// stepText consumes a run of printable characters. A trailing multi-byte
// UTF-8 sequence that isn't fully present yet (split across two backend
// reads) stops the run and asks the caller to wait for more bytes instead
// of decoding the truncated prefix into a replacement-character glyph,
// mirroring stepEscape/stepCSI's own wait=true handling of a truncated
// sequence. final forces resolution of a genuinely truncated tail at
// stream end, same as everywhere else in the decoder.
func (d *Decoder) stepText(buf string, final bool) (int, []event.Event, bool) {
	var b strings.Builder
	i := 0
	var keys []event.Event
	for i < len(buf) {
		c := buf[i]
		if c == 0x1B || c < 0x20 || c == 0x7F {
			break
		}
		if !final && !utf8.FullRuneInString(buf[i:]) {
			break
		}
		r, size := utf8.DecodeRuneInString(buf[i:])
		b.WriteRune(r)
		keys = append(keys, event.NewKey(event.KeyUnknown, r, event.StripShiftForPrintable(event.ModNone)))
		i += size
	}
	if i == 0 {
		if !final && len(buf) > 0 && buf[0] != 0x1B && buf[0] >= 0x20 && buf[0] != 0x7F {
			// The whole chunk is one truncated multi-byte lead sequence.
			return 0, nil, true
		}
		return 0, nil, false
	}
	events := make([]event.Event, 0, len(keys)+1)
	events = append(events, event.NewText(b.String()))
	events = append(events, keys...)
	return i, events, false
}

func (d *Decoder) stepEscape(buf string, final bool) (int, []event.Event, bool) {
	if len(buf) == 1 {
		if final {
			return 1, []event.Event{event.NewKey(event.KeyEscape, 0, event.ModNone)}, false
		}
		return 0, nil, true
	}

	switch buf[1] {
	case '[':
		return d.stepCSI(buf, final)
	case 'O':
		return d.stepSS3(buf, final)
	case 0x1B:
		return 1, []event.Event{event.NewKey(event.KeyEscape, 0, event.ModNone)}, false
	}

	b1 := buf[1]
	if b1 < 0x20 || b1 == 0x7F {
		return 1, []event.Event{event.NewKey(event.KeyEscape, 0, event.ModNone)}, false
	}
	r, size := utf8.DecodeRuneInString(buf[1:])
	return 1 + size, []event.Event{event.NewKey(event.KeyUnknown, r, event.ModAlt)}, false
}

func (d *Decoder) stepSS3(buf string, final bool) (int, []event.Event, bool) {
	if len(buf) < 3 {
		if final {
			return len(buf), nil, false
		}
		return 0, nil, true
	}
	var k event.Key
	switch buf[2] {
	case 'A':
		k = event.KeyUp
	case 'B':
		k = event.KeyDown
	case 'C':
		k = event.KeyRight
	case 'D':
		k = event.KeyLeft
	case 'H':
		k = event.KeyHome
	case 'F':
		k = event.KeyEnd
	case 'P':
		k = event.KeyF1
	case 'Q':
		k = event.KeyF2
	case 'R':
		k = event.KeyF3
	case 'S':
		k = event.KeyF4
	default:
		return 3, nil, false
	}
	return 3, []event.Event{event.NewKey(k, 0, event.ModNone)}, false
}

func (d *Decoder) stepCSI(buf string, final bool) (int, []event.Event, bool) {
	finalIdx := -1
	for i := 2; i < len(buf); i++ {
		c := buf[i]
		if c >= 0x40 && c <= 0x7E {
			finalIdx = i
			break
		}
	}
	if finalIdx == -1 {
		if final {
			return len(buf), nil, false
		}
		return 0, nil, true
	}

	body := buf[2:finalIdx]
	finalByte := buf[finalIdx]
	consumed := finalIdx + 1
	return consumed, d.parseCSI(body, finalByte), false
}

func (d *Decoder) parseCSI(body string, finalByte byte) []event.Event {
	switch finalByte {
	case '~':
		return d.parseTilde(body)
	case 'A', 'B', 'C', 'D', 'H', 'F':
		return parseArrowHomeEnd(body, finalByte)
	case 'M', 'm':
		if strings.HasPrefix(body, "<") {
			if ev, ok := parseSGRMouse(body[1:], finalByte); ok {
				return []event.Event{ev}
			}
		}
		return nil
	case 'R':
		return d.parseCursorReport(body)
	default:
		return nil
	}
}

func (d *Decoder) parseTilde(body string) []event.Event {
	params := strings.Split(body, ";")
	num, err := strconv.Atoi(params[0])
	if err != nil {
		return nil
	}

	if num == 200 {
		d.inPaste = true
		d.pasteBuf.Reset()
		return nil
	}
	if num == 201 {
		// Stray end-of-paste with no matching start: ignore.
		return nil
	}

	var k event.Key
	switch num {
	case 1:
		k = event.KeyHome
	case 2:
		k = event.KeyInsert
	case 3:
		k = event.KeyDelete
	case 4:
		k = event.KeyEnd
	case 5:
		k = event.KeyPageUp
	case 6:
		k = event.KeyPageDown
	case 15:
		k = event.KeyF5
	case 17:
		k = event.KeyF6
	case 18:
		k = event.KeyF7
	case 19:
		k = event.KeyF8
	case 20:
		k = event.KeyF9
	case 21:
		k = event.KeyF10
	case 23:
		k = event.KeyF11
	case 24:
		k = event.KeyF12
	default:
		return nil
	}

	mods := event.ModNone
	if len(params) > 1 {
		if mv, err := strconv.Atoi(params[1]); err == nil {
			mods = decodeModBits(mv - 1)
		}
	}
	return []event.Event{event.NewKey(k, 0, mods)}
}

func parseArrowHomeEnd(body string, finalByte byte) []event.Event {
	var k event.Key
	switch finalByte {
	case 'A':
		k = event.KeyUp
	case 'B':
		k = event.KeyDown
	case 'C':
		k = event.KeyRight
	case 'D':
		k = event.KeyLeft
	case 'H':
		k = event.KeyHome
	case 'F':
		k = event.KeyEnd
	}

	mods := event.ModNone
	if body != "" {
		params := strings.Split(body, ";")
		if len(params) >= 2 {
			if mv, err := strconv.Atoi(params[1]); err == nil {
				mods = decodeModBits(mv - 1)
			}
		}
	}
	return []event.Event{event.NewKey(k, 0, mods)}
}

// decodeModBits maps the xterm modifier bitset (Shift=1, Alt=2, Ctrl=4,
// Meta=8) encoded as `1 + bits` in the wire protocol to our Modifiers type.
func decodeModBits(bits int) event.Modifiers {
	m := event.ModNone
	if bits&1 != 0 {
		m |= event.ModShift
	}
	if bits&2 != 0 {
		m |= event.ModAlt
	}
	if bits&4 != 0 {
		m |= event.ModCtrl
	}
	if bits&8 != 0 {
		m |= event.ModMeta
	}
	return m
}

// parseSGRMouse decodes a `<button;x;y` SGR mouse body (the leading '<' is
// already stripped by the caller). button encodes: low 2 bits = button id,
// bit2(4)=Shift, bit3(8)=Alt, bit4(16)=Ctrl, bit5(32)=motion, bit6(64)=wheel.
func parseSGRMouse(body string, finalByte byte) (event.Event, bool) {
	parts := strings.Split(body, ";")
	if len(parts) != 3 {
		return event.Event{}, false
	}
	code, err1 := strconv.Atoi(parts[0])
	x, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return event.Event{}, false
	}
	x--
	y--

	mods := event.ModNone
	if code&4 != 0 {
		mods |= event.ModShift
	}
	if code&8 != 0 {
		mods |= event.ModAlt
	}
	if code&16 != 0 {
		mods |= event.ModCtrl
	}

	wheel := code&64 != 0
	motion := code&32 != 0

	var button event.MouseButton
	var kind event.MouseKind
	var delta int

	if wheel {
		if code&1 != 0 {
			button = event.MouseButtonWheelDown
			delta = -1
		} else {
			button = event.MouseButtonWheelUp
			delta = 1
		}
		kind = event.MouseWheel
	} else {
		switch code & 3 {
		case 0:
			button = event.MouseButtonLeft
		case 1:
			button = event.MouseButtonMiddle
		case 2:
			button = event.MouseButtonRight
		default:
			button = event.MouseButtonNone
		}
		switch {
		case motion && button == event.MouseButtonNone:
			kind = event.MouseMove
		case motion:
			kind = event.MouseDrag
		case finalByte == 'm':
			kind = event.MouseUp
		default:
			kind = event.MouseDown
		}
	}

	return event.NewMouse(event.MouseEvent{
		X: x, Y: y, Button: button, Kind: kind, Mods: mods, WheelDelta: delta,
	}), true
}

func (d *Decoder) parseCursorReport(body string) []event.Event {
	parts := strings.Split(body, ";")
	if len(parts) != 2 {
		return nil
	}
	row, err1 := strconv.Atoi(parts[0])
	col, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return nil
	}
	row--
	col--
	if d.opts.OnCursorReport != nil {
		d.opts.OnCursorReport(row, col)
	}
	return []event.Event{event.NewCursorPosition(row, col)}
}

// stepPaste consumes bytes while a bracketed-paste run is active,
// reconstructing every non-terminating token to its raw textual form in
// the paste buffer, per the spec's "VT reconstruction inside paste" design
// note, and emitting a single Paste event on the CSI 201~ terminator.
func (d *Decoder) stepPaste(buf string, final bool) (int, []event.Event, bool) {
	if buf[0] != 0x1B {
		idx := strings.IndexByte(buf, 0x1B)
		if idx == -1 {
			d.pasteBuf.WriteString(buf)
			return len(buf), nil, false
		}
		d.pasteBuf.WriteString(buf[:idx])
		return idx, nil, false
	}

	if len(buf) >= 2 && buf[1] == '[' {
		finalIdx := -1
		for i := 2; i < len(buf); i++ {
			c := buf[i]
			if c >= 0x40 && c <= 0x7E {
				finalIdx = i
				break
			}
		}
		if finalIdx == -1 {
			if final {
				d.pasteBuf.WriteString(buf)
				return len(buf), nil, false
			}
			return 0, nil, true
		}
		body := buf[2:finalIdx]
		fb := buf[finalIdx]
		consumed := finalIdx + 1
		if fb == '~' && body == "201" {
			d.inPaste = false
			text := d.pasteBuf.String()
			d.pasteBuf.Reset()
			return consumed, []event.Event{event.NewPaste(text)}, false
		}
		d.pasteBuf.WriteString(buf[:consumed])
		return consumed, nil, false
	}

	if len(buf) >= 2 && buf[1] == 'O' {
		if len(buf) < 3 {
			if final {
				d.pasteBuf.WriteString(buf)
				return len(buf), nil, false
			}
			return 0, nil, true
		}
		d.pasteBuf.WriteString(buf[:3])
		return 3, nil, false
	}

	if len(buf) == 1 {
		if final {
			d.pasteBuf.WriteString(buf)
			return 1, nil, false
		}
		return 0, nil, true
	}
	d.pasteBuf.WriteString(buf[:1])
	return 1, nil, false
}
