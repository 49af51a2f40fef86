package readline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	term "github.com/corvidterm/term"
	"github.com/corvidterm/term/backend/virtual"
	"github.com/corvidterm/term/capabilities"
	"github.com/corvidterm/term/event"
	"github.com/corvidterm/term/readline"
	"github.com/corvidterm/term/terminal"
)

func newSession(t *testing.T) (*terminal.Session, *virtual.Backend) {
	t.Helper()
	vb := virtual.New(event.Size{Cols: 80, Rows: 24}, capabilities.Capabilities{AnsiEnabled: true})
	s := terminal.New(vb)
	require.NoError(t, s.Start(context.Background()))
	return s, vb
}

func runReadLine(t *testing.T, opts readline.Options, push func(vb *virtual.Backend)) (string, error) {
	t.Helper()
	s, vb := newSession(t)
	// The default subscription is created lazily; create it before pushing
	// so the events below are queued for ReadLine rather than dropped.
	_ = s.Events()
	push(vb)

	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := s.ReadLine(context.Background(), opts)
		done <- result{line, err}
	}()

	select {
	case r := <-done:
		return r.line, r.err
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine did not return in time")
		return "", nil
	}
}

func TestAcceptReturnsTypedText(t *testing.T) {
	line, err := runReadLine(t, readline.Options{Echo: true, EmitNewlineOnAccept: true}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewText("abc"))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", line)
}

func TestCancelOnInterruptSignal(t *testing.T) {
	_, err := runReadLine(t, readline.Options{Echo: true}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewText("abc"))
		vb.PushEvent(event.NewSignal(event.SignalInterrupt))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, term.ErrCancelled)
}

func TestBackspaceEditsBuffer(t *testing.T) {
	line, err := runReadLine(t, readline.Options{Echo: true, EnableEditing: true}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewText("abcd"))
		vb.PushEvent(event.NewKey(event.KeyBackspace, 0, event.ModNone))
		vb.PushEvent(event.NewKey(event.KeyBackspace, 0, event.ModNone))
		vb.PushEvent(event.NewText("X"))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "abX", line)
}

func TestMaxLengthRejectsOversizeInsert(t *testing.T) {
	line, err := runReadLine(t, readline.Options{Echo: true, MaxLength: 3}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewText("abc"))
		vb.PushEvent(event.NewText("d"))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", line)
}

func TestBracketedPasteTruncatesToMaxLength(t *testing.T) {
	line, err := runReadLine(t, readline.Options{Echo: true, MaxLength: 5, EnableBracketedPaste: true}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewPaste("hello world"))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", line)
}

func TestHistoryPrevRecallsEntry(t *testing.T) {
	hist := readline.NewHistory(10)
	hist.Add("first command")
	hist.Add("second command")

	line, err := runReadLine(t, readline.Options{
		Echo: true, EnableHistory: true, AddToHistory: true, History: hist,
	}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewKey(event.KeyUp, 0, event.ModNone))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "second command", line)
	// Accepting a recalled entry unchanged is an immediate repeat of the
	// history's last entry, so Add is a no-op per History.Add's dedup rule.
	assert.Equal(t, 2, hist.Len())
}

func TestReverseSearchFindsEntry(t *testing.T) {
	hist := readline.NewHistory(10)
	hist.Add("git commit")
	hist.Add("git push origin main")

	line, err := runReadLine(t, readline.Options{
		Echo: true, EnableHistory: true, History: hist,
	}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewKey(event.KeyUnknown, 'r', event.ModCtrl))
		vb.PushEvent(event.NewText("push"))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "git push origin main", line)
}

func TestCtrlCWithSelectionCopiesInsteadOfCancelling(t *testing.T) {
	line, err := runReadLine(t, readline.Options{
		Echo: true, EnableEditing: true, EnableHistory: false,
		TreatControlCAsInput: true,
	}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewText("abc"))
		vb.PushEvent(event.NewKey(event.KeyLeft, 0, event.ModShift))
		vb.PushEvent(event.NewKey(event.KeyLeft, 0, event.ModShift))
		vb.PushEvent(event.NewKey(event.KeyUnknown, 'c', event.ModCtrl))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", line)
}

func TestUndoRestoresPriorBuffer(t *testing.T) {
	line, err := runReadLine(t, readline.Options{Echo: true, EnableEditing: true}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewText("abc"))
		vb.PushEvent(event.NewKey(event.KeyBackspace, 0, event.ModNone))
		vb.PushEvent(event.NewKey(event.KeyUnknown, 'z', event.ModCtrl))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", line)
}

func TestCompletionCyclesCandidates(t *testing.T) {
	handler := func(buffer string, cursor int) []readline.Completion {
		return []readline.Completion{
			{Text: "help", ReplaceStart: 0, ReplaceLength: len(buffer)},
			{Text: "history", ReplaceStart: 0, ReplaceLength: len(buffer)},
		}
	}
	line, err := runReadLine(t, readline.Options{
		Echo: true, EnableEditing: true, CompletionHandler: handler,
	}, func(vb *virtual.Backend) {
		vb.PushEvent(event.NewText("he"))
		vb.PushEvent(event.NewKey(event.KeyTab, 0, event.ModNone))
		vb.PushEvent(event.NewKey(event.KeyTab, 0, event.ModNone))
		vb.PushEvent(event.NewKey(event.KeyEnter, 0, event.ModNone))
	})
	require.NoError(t, err)
	assert.Equal(t, "history", line)
}
