// Package clipboard provides system clipboard access with several
// providers tried in order: a native shell-out tool on Unix, OSC 52 for
// SSH sessions, and the Win32 clipboard API on Windows. Grounded on the
// teacher's clipboard/internal/infrastructure/{native,osc52} providers,
// generalized from the teacher's model.ClipboardContent (which also
// carries image/rich-text payloads) down to the spec's plain-text-only
// surface.
package clipboard

// Provider is a single clipboard backend.
type Provider interface {
	// TryGetText reads the clipboard's text contents. ok is false if the
	// clipboard is empty, holds non-text content, or could not be read.
	TryGetText() (text string, ok bool)
	// TrySetText writes text to the clipboard, reporting success.
	TrySetText(text string) bool
	// IsAvailable reports whether this provider can currently be used.
	IsAvailable() bool
	// Name identifies the provider for diagnostics.
	Name() string
}

// Chain tries each provider that reports IsAvailable(), in order, for both
// reads and writes, stopping at the first one that succeeds.
type Chain struct {
	providers []Provider
}

// NewChain builds a Chain trying providers in the given order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) TryGetText() (string, bool) {
	for _, p := range c.providers {
		if p.IsAvailable() {
			if text, ok := p.TryGetText(); ok {
				return text, true
			}
		}
	}
	return "", false
}

func (c *Chain) TrySetText(text string) bool {
	for _, p := range c.providers {
		if p.IsAvailable() && p.TrySetText(text) {
			return true
		}
	}
	return false
}

func (c *Chain) IsAvailable() bool {
	for _, p := range c.providers {
		if p.IsAvailable() {
			return true
		}
	}
	return false
}

func (c *Chain) Name() string {
	for _, p := range c.providers {
		if p.IsAvailable() {
			return p.Name()
		}
	}
	return "none"
}
