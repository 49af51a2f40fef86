//go:build !windows

package clipboard

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/corvidterm/term/internal/environment"
)

// subprocessTimeout bounds every clipboard-tool invocation so a hung
// wl-paste/xclip/xsel/pbpaste never blocks the caller; matches OSC52Provider's
// own timeout-bounded write and the 1s subprocess timeout the spec requires.
const subprocessTimeout = time.Second

// UnixProvider shells out to a system clipboard tool: wl-clipboard on
// Wayland, xclip or xsel on X11, pbcopy/pbpaste on macOS. Mirrors the
// teacher's Linux native provider's tool-detection order.
type UnixProvider struct {
	readCmd  []string
	writeCmd []string
	name     string
}

// NewUnixProvider auto-detects the first available clipboard tool.
func NewUnixProvider() *UnixProvider {
	p := &UnixProvider{}
	if (environment.OS{}).Platform() == "darwin" {
		if _, err := exec.LookPath("pbcopy"); err == nil {
			if _, err := exec.LookPath("pbpaste"); err == nil {
				p.writeCmd = []string{"pbcopy"}
				p.readCmd = []string{"pbpaste"}
				p.name = "pbcopy/pbpaste"
				return p
			}
		}
		return p
	}
	if _, err := exec.LookPath("wl-copy"); err == nil {
		if _, err := exec.LookPath("wl-paste"); err == nil {
			p.writeCmd = []string{"wl-copy"}
			p.readCmd = []string{"wl-paste", "--no-newline"}
			p.name = "wl-clipboard"
			return p
		}
	}
	if _, err := exec.LookPath("xclip"); err == nil {
		p.writeCmd = []string{"xclip", "-selection", "clipboard", "-i"}
		p.readCmd = []string{"xclip", "-selection", "clipboard", "-o"}
		p.name = "xclip"
		return p
	}
	if _, err := exec.LookPath("xsel"); err == nil {
		p.writeCmd = []string{"xsel", "--clipboard", "--input"}
		p.readCmd = []string{"xsel", "--clipboard", "--output"}
		p.name = "xsel"
		return p
	}
	return p
}

func (p *UnixProvider) IsAvailable() bool { return len(p.readCmd) > 0 }

func (p *UnixProvider) TryGetText() (string, bool) {
	if !p.IsAvailable() {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), subprocessTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, p.readCmd[0], p.readCmd[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", false
	}
	return out.String(), true
}

func (p *UnixProvider) TrySetText(text string) bool {
	if !p.IsAvailable() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), subprocessTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, p.writeCmd[0], p.writeCmd[1:]...)
	cmd.Stdin = bytes.NewBufferString(text)
	return cmd.Run() == nil
}

func (p *UnixProvider) Name() string {
	if p.name == "" {
		return "none"
	}
	return p.name
}
