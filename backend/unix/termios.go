//go:build !windows

package unix

import (
	"golang.org/x/sys/unix"

	"github.com/corvidterm/term/backend"
)

// setRawMode switches fd to cbreak or raw mode, returning the prior
// termios so the caller can restore it later. Building this on
// golang.org/x/sys/unix directly (rather than golang.org/x/term.MakeRaw,
// which only offers one fixed "raw" mode) is what lets cbreak keep signal
// generation (ISIG) while raw disables it, matching the two RawModeKind
// values the spec distinguishes.
func setRawMode(fd int, kind backend.RawModeKind) (*unix.Termios, error) {
	orig, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}

	raw := *orig
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON

	if kind == backend.RawModeRaw {
		raw.Lflag &^= unix.ISIG | unix.IEXTEN
	}

	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, err
	}
	return orig, nil
}

func restoreTermios(fd int, state *unix.Termios) {
	_ = unix.IoctlSetTermios(fd, ioctlSetTermios, state)
}
