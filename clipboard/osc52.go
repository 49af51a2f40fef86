package clipboard

import (
	"encoding/base64"
	"os"
	"strings"
	"time"
)

// OSC52Provider writes the clipboard via the OSC 52 escape sequence, which
// works over SSH since it's carried in the same output stream as the rest
// of the program's rendering. Reading is not supported (real terminals
// overwhelmingly don't answer OSC 52 reads), matching the teacher's
// osc52.Provider.Read behavior.
type OSC52Provider struct {
	Output  *os.File
	Timeout time.Duration
}

// NewOSC52Provider creates a provider writing to out with a sane default
// timeout.
func NewOSC52Provider(out *os.File) *OSC52Provider {
	return &OSC52Provider{Output: out, Timeout: 200 * time.Millisecond}
}

func (p *OSC52Provider) TryGetText() (string, bool) { return "", false }

func (p *OSC52Provider) TrySetText(text string) bool {
	if p.Output == nil {
		return false
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	seq := "\x1b]52;c;" + encoded + "\x1b\\"

	done := make(chan error, 1)
	go func() {
		_, err := p.Output.WriteString(seq)
		done <- err
	}()

	select {
	case err := <-done:
		return err == nil
	case <-time.After(p.Timeout):
		return false
	}
}

func (p *OSC52Provider) IsAvailable() bool {
	if p.Output == nil {
		return false
	}
	info, err := p.Output.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return false
	}
	for _, v := range []string{"SSH_TTY", "SSH_CLIENT", "SSH_CONNECTION"} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	term := os.Getenv("TERM")
	for _, supported := range []string{"xterm", "xterm-256color", "screen", "tmux", "tmux-256color"} {
		if term == supported || strings.HasPrefix(term, supported+"-") {
			return true
		}
	}
	return false
}

func (p *OSC52Provider) Name() string { return "OSC52" }
