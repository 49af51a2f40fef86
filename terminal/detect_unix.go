//go:build !windows

package terminal

import (
	"os"

	"github.com/corvidterm/term/backend"
	unixbackend "github.com/corvidterm/term/backend/unix"
)

func detectBackend() backend.Backend {
	return unixbackend.New(os.Stdin, os.Stdout, os.Stderr)
}
