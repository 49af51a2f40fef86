//go:build windows

package terminal

import (
	"os"

	"github.com/corvidterm/term/backend"
	winbackend "github.com/corvidterm/term/backend/windows"
)

func detectBackend() backend.Backend {
	return winbackend.New(os.Stdin, os.Stdout, os.Stderr)
}
