package decoder

import (
	"testing"

	"github.com/corvidterm/term/event"
)

func TestDecodeBracketedPaste(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1b[200~hello\x1b[1;2Hworld\x1b[201~", true)
	if len(evs) != 1 || evs[0].Kind != event.KindPaste {
		t.Fatalf("want single Paste event, got %#v", evs)
	}
	want := "hello\x1b[1;2Hworld"
	if evs[0].Paste != want {
		t.Fatalf("Paste = %q, want %q", evs[0].Paste, want)
	}
}

func TestDecodeBracketedPasteSplitAcrossChunks(t *testing.T) {
	d := New(Options{})
	var all []event.Event
	all = append(all, d.Decode("\x1b[200~hel", false)...)
	all = append(all, d.Decode("lo\x1b[20", false)...)
	all = append(all, d.Decode("1~", true)...)
	if len(all) != 1 || all[0].Kind != event.KindPaste || all[0].Paste != "hello" {
		t.Fatalf("want Paste(hello), got %#v", all)
	}
}

func TestDecodeSGRMouseClick(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1b[<0;10;5M", true)
	if len(evs) != 1 || evs[0].Kind != event.KindMouse {
		t.Fatalf("want single Mouse event, got %#v", evs)
	}
	m := evs[0].Mouse
	if m.X != 9 || m.Y != 4 || m.Button != event.MouseButtonLeft || m.Kind != event.MouseDown {
		t.Fatalf("unexpected mouse event: %+v", m)
	}
}

func TestDecodeSGRMouseRelease(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1b[<0;10;5m", true)
	if len(evs) != 1 || evs[0].Mouse.Kind != event.MouseUp {
		t.Fatalf("want Up, got %#v", evs)
	}
}

func TestDecodeArrowWithModifier(t *testing.T) {
	d := New(Options{})
	// CSI 1;6 A == Up with Shift+Ctrl (mod=6 -> bits=5 -> Shift(1)+Ctrl(4)).
	evs := d.Decode("\x1b[1;6A", true)
	if len(evs) != 1 || evs[0].Kind != event.KindKey {
		t.Fatalf("want single Key event, got %#v", evs)
	}
	k := evs[0].Key
	if k.Key != event.KeyUp || !k.Mods.HasShift() || !k.Mods.HasCtrl() {
		t.Fatalf("unexpected key event: %+v", k)
	}
}

func TestDecodePlainArrow(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1b[A", true)
	if len(evs) != 1 || evs[0].Key.Key != event.KeyUp || evs[0].Key.Mods != event.ModNone {
		t.Fatalf("unexpected: %#v", evs)
	}
}

func TestDecodeAltCharViaLoneEscape(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1bx", true)
	if len(evs) != 1 || evs[0].Kind != event.KindKey {
		t.Fatalf("want single Key event, got %#v", evs)
	}
	k := evs[0].Key
	if k.Char != 'x' || !k.Mods.HasAlt() {
		t.Fatalf("unexpected key: %+v", k)
	}
}

func TestDecodeLoneEscapeAtIdleFlush(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1b", false)
	if evs != nil {
		t.Fatalf("expected decoder to wait for more data, got %#v", evs)
	}
	evs = d.Decode("", true)
	if len(evs) != 1 || evs[0].Key.Key != event.KeyEscape {
		t.Fatalf("want Escape key on idle flush, got %#v", evs)
	}
}

func TestDecodeCtrlCEmitsKeyAndSignal(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x03", true)
	if len(evs) != 2 {
		t.Fatalf("want Key+Signal, got %#v", evs)
	}
	if evs[0].Kind != event.KindKey || evs[0].Key.Char != 'c' || !evs[0].Key.Mods.HasCtrl() {
		t.Fatalf("unexpected key event: %#v", evs[0])
	}
	if evs[1].Kind != event.KindSignal || evs[1].Sig != event.SignalInterrupt {
		t.Fatalf("unexpected signal event: %#v", evs[1])
	}
}

func TestDecodeCtrlCTreatedAsInput(t *testing.T) {
	d := New(Options{TreatCtrlCAsInput: true})
	evs := d.Decode("\x03", true)
	if len(evs) != 1 || evs[0].Kind != event.KindSignal {
		// should be no Signal event in this mode
	}
	for _, e := range evs {
		if e.Kind == event.KindSignal {
			t.Fatalf("did not expect Signal event when TreatCtrlCAsInput is set, got %#v", evs)
		}
	}
}

func TestDecodePlainTextEmitsTextAndKeys(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("hi", true)
	if len(evs) != 3 {
		t.Fatalf("want Text + 2 Key events, got %#v", evs)
	}
	if evs[0].Kind != event.KindText || evs[0].Text != "hi" {
		t.Fatalf("unexpected text event: %#v", evs[0])
	}
	if evs[1].Key.Char != 'h' || evs[2].Key.Char != 'i' {
		t.Fatalf("unexpected key events: %#v %#v", evs[1], evs[2])
	}
}

func TestDecodeCursorPositionReport(t *testing.T) {
	var gotRow, gotCol int
	d := New(Options{OnCursorReport: func(row, col int) { gotRow, gotCol = row, col }})
	evs := d.Decode("\x1b[5;10R", true)
	if len(evs) != 1 || evs[0].Kind != event.KindCursorPosition {
		t.Fatalf("want CursorPosition event, got %#v", evs)
	}
	if evs[0].CursorRow != 4 || evs[0].CursorCol != 9 {
		t.Fatalf("unexpected cursor report: %+v", evs[0])
	}
	if gotRow != 4 || gotCol != 9 {
		t.Fatalf("OnCursorReport not invoked correctly: %d,%d", gotRow, gotCol)
	}
}

func TestDecodeFunctionKeyTilde(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1b[3~", true)
	if len(evs) != 1 || evs[0].Key.Key != event.KeyDelete {
		t.Fatalf("want Delete key, got %#v", evs)
	}
}

func TestDecodeMalformedCSIDroppedAtFlush(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1b[123", true)
	if evs != nil {
		t.Fatalf("expected malformed trailing CSI to be dropped silently, got %#v", evs)
	}
}

func TestDecodeSS3FunctionKey(t *testing.T) {
	d := New(Options{})
	evs := d.Decode("\x1bOP", true)
	if len(evs) != 1 || evs[0].Key.Key != event.KeyF1 {
		t.Fatalf("want F1, got %#v", evs)
	}
}
