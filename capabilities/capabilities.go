// Package capabilities detects what a terminal actually supports: color
// level, mouse/paste/alt-screen/raw-mode support, clipboard access, and
// stream redirection. Detection follows the teacher's CapabilitiesDetector
// priority chain (NO_COLOR > FORCE_COLOR > platform > COLORTERM/TERM_PROGRAM
// > TERM parsing > conservative default), refined with real capability
// probing from the wider example pack (charmbracelet/colorprofile for
// color-level detection, xo/terminfo for terminal-database lookups,
// mattn/go-isatty for stream redirection) rather than the teacher's bare
// strings.Contains(TERM, "256color") heuristic.
package capabilities

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/mattn/go-isatty"
	"github.com/xo/terminfo"

	"github.com/corvidterm/term/internal/environment"
)

// ColorLevel is how many colors the terminal can render.
type ColorLevel int

const (
	ColorLevelNone      ColorLevel = 0
	ColorLevelBasic     ColorLevel = 16
	ColorLevelExtended  ColorLevel = 256
	ColorLevelTrueColor ColorLevel = 16777216
)

func (c ColorLevel) String() string {
	switch c {
	case ColorLevelNone:
		return "none"
	case ColorLevelBasic:
		return "basic"
	case ColorLevelExtended:
		return "extended"
	case ColorLevelTrueColor:
		return "truecolor"
	default:
		return "unknown"
	}
}

// Capabilities is an immutable snapshot of what a terminal session supports.
type Capabilities struct {
	AnsiEnabled bool
	ColorLevel  ColorLevel

	SupportsOSC8Links        bool
	SupportsAlternateScreen  bool
	SupportsCursorVisibility bool
	SupportsMouse            bool
	SupportsBracketedPaste   bool
	SupportsPrivateModes     bool
	SupportsRawMode          bool
	SupportsCursorPositionGet bool
	SupportsCursorPositionSet bool
	SupportsClipboardGet      bool
	SupportsClipboardSet      bool
	SupportsOSC52Clipboard    bool
	SupportsTitleGet          bool
	SupportsTitleSet          bool
	SupportsWindowSize        bool
	SupportsWindowSizeSet     bool
	SupportsBufferSize        bool
	SupportsBufferSizeSet     bool
	SupportsBeep              bool

	IsOutputRedirected bool
	IsInputRedirected  bool
	TerminalName       string
}

// Detector detects Capabilities from the process environment plus real
// stdio handles used for stream-redirection and color-profile probing.
type Detector struct {
	env    environment.Provider
	stdout *os.File
	stdin  *os.File
}

// NewDetector builds a Detector reading from the real process environment
// and the given stdio handles (normally os.Stdout/os.Stdin).
func NewDetector(stdout, stdin *os.File) *Detector {
	return &Detector{env: environment.OS{}, stdout: stdout, stdin: stdin}
}

// NewDetectorWithEnv builds a Detector against a fake environment.Provider,
// for tests.
func NewDetectorWithEnv(env environment.Provider, stdout, stdin *os.File) *Detector {
	return &Detector{env: env, stdout: stdout, stdin: stdin}
}

// Detect runs the full priority chain and returns the resulting Capabilities.
func (d *Detector) Detect() Capabilities {
	caps := d.detectBase()
	caps.TerminalName = d.env.Get("TERM")
	caps.IsOutputRedirected = !isTerminalFile(d.stdout)
	caps.IsInputRedirected = !isTerminalFile(d.stdin)
	return caps
}

func (d *Detector) detectBase() Capabilities {
	if d.env.Get("NO_COLOR") != "" {
		return disabled()
	}
	if fc := d.env.Get("FORCE_COLOR"); fc != "" {
		return d.parseForceColor(fc)
	}

	switch d.env.Platform() {
	case "windows":
		return d.detectWindows()
	default:
		return d.detectPosix()
	}
}

func disabled() Capabilities {
	return Capabilities{AnsiEnabled: false, ColorLevel: ColorLevelNone}
}

func full(level ColorLevel) Capabilities {
	return Capabilities{
		AnsiEnabled:               true,
		ColorLevel:                level,
		SupportsOSC8Links:         true,
		SupportsAlternateScreen:   true,
		SupportsCursorVisibility:  true,
		SupportsMouse:             true,
		SupportsBracketedPaste:    true,
		SupportsPrivateModes:      true,
		SupportsRawMode:           true,
		SupportsCursorPositionGet: true,
		SupportsCursorPositionSet: true,
		SupportsClipboardGet:      true,
		SupportsClipboardSet:      true,
		SupportsOSC52Clipboard:    true,
		SupportsTitleGet:          true,
		SupportsTitleSet:          true,
		SupportsWindowSize:        true,
		SupportsWindowSizeSet:     true,
		SupportsBufferSize:        true,
		SupportsBufferSizeSet:     true,
		SupportsBeep:              true,
	}
}

func (d *Detector) parseForceColor(fc string) Capabilities {
	switch fc {
	case "0", "false":
		return disabled()
	case "1":
		return full(ColorLevelBasic)
	case "2":
		return full(ColorLevelExtended)
	case "3", "true":
		return full(ColorLevelTrueColor)
	default:
		return full(ColorLevelTrueColor)
	}
}

func (d *Detector) detectPosix() Capabilities {
	term := d.env.Get("TERM")
	if term == "dumb" || term == "" {
		return disabled()
	}
	c := full(d.detectColorLevel(term))
	d.refineFromTerminfo(&c, term)
	return c
}

func (d *Detector) detectWindows() Capabilities {
	if d.env.Get("WT_SESSION") != "" {
		return full(ColorLevelTrueColor)
	}
	if d.env.Get("TERM_PROGRAM") == "vscode" {
		return full(ColorLevelTrueColor)
	}
	// Legacy conhost without VT processing: conservative capability set,
	// no alt screen and no OSC-based clipboard.
	c := full(ColorLevelBasic)
	c.SupportsAlternateScreen = false
	c.SupportsOSC52Clipboard = false
	return c
}

// detectColorLevel mirrors the teacher's COLORTERM/TERM_PROGRAM/TERM
// priority chain, then consults colorprofile.Detect when the TERM
// heuristic was reached: a higher level from colorprofile replaces the
// heuristic's result, a lower one is ignored (colorprofile additionally
// accounts for CI/TERM_PROGRAM_VERSION/known-CI quirks the teacher's chain
// does not).
func (d *Detector) detectColorLevel(term string) ColorLevel {
	ct := strings.ToLower(d.env.Get("COLORTERM"))
	if ct == "truecolor" || ct == "24bit" {
		return ColorLevelTrueColor
	}

	switch d.env.Get("TERM_PROGRAM") {
	case "iTerm.app", "vscode", "Hyper", "WarpTerminal":
		return ColorLevelTrueColor
	case "Apple_Terminal":
		return ColorLevelExtended
	}

	level := ColorLevelBasic
	switch {
	case strings.Contains(term, "256color"):
		level = ColorLevelExtended
	case strings.Contains(term, "color"):
		level = ColorLevelBasic
	}

	if d.stdout != nil {
		if profile := detectProfile(d.stdout); profile > 0 {
			if pl := profileToLevel(profile); pl > level {
				level = pl
			}
		}
	}
	return level
}

func detectProfile(w io.Writer) colorprofile.Profile {
	f, ok := w.(*os.File)
	if !ok {
		return colorprofile.NoTTY
	}
	return colorprofile.Detect(f, os.Environ())
}

func profileToLevel(p colorprofile.Profile) ColorLevel {
	switch p {
	case colorprofile.TrueColor:
		return ColorLevelTrueColor
	case colorprofile.ANSI256:
		return ColorLevelExtended
	case colorprofile.ANSI:
		return ColorLevelBasic
	default:
		return ColorLevelNone
	}
}

// refineFromTerminfo consults the terminal database for capabilities the
// environment-variable chain cannot see (notably true max-colors and
// whether the entry declares itself color-capable at all). Best effort:
// any lookup failure leaves c unchanged.
func (d *Detector) refineFromTerminfo(c *Capabilities, term string) {
	ti, err := terminfo.Load(term)
	if err != nil {
		return
	}
	if mc, ok := ti.Nums[terminfo.MaxColors]; ok {
		switch {
		case mc >= 1<<24:
			if c.ColorLevel < ColorLevelTrueColor {
				c.ColorLevel = ColorLevelTrueColor
			}
		case mc >= 256:
			if c.ColorLevel < ColorLevelExtended {
				c.ColorLevel = ColorLevelExtended
			}
		case mc <= 0:
			c.ColorLevel = ColorLevelNone
			c.AnsiEnabled = false
		}
	}
}

func isTerminalFile(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
