package capabilities

import (
	"testing"

	"github.com/corvidterm/term/internal/environment"
)

func detect(env environment.Provider) Capabilities {
	d := NewDetectorWithEnv(env, nil, nil)
	return d.detectBase()
}

func TestNoColorDisablesEverything(t *testing.T) {
	c := detect(environment.Fake{Vars: map[string]string{"NO_COLOR": "1", "TERM": "xterm-256color"}})
	if c.AnsiEnabled || c.ColorLevel != ColorLevelNone {
		t.Fatalf("NO_COLOR should disable ansi, got %+v", c)
	}
}

func TestForceColorOverrides(t *testing.T) {
	c := detect(environment.Fake{Vars: map[string]string{"FORCE_COLOR": "3"}})
	if !c.AnsiEnabled || c.ColorLevel != ColorLevelTrueColor {
		t.Fatalf("FORCE_COLOR=3 should force truecolor, got %+v", c)
	}
}

func TestDumbTermDisablesAnsi(t *testing.T) {
	c := detect(environment.Fake{Vars: map[string]string{"TERM": "dumb"}, PlatformName: "linux"})
	if c.AnsiEnabled {
		t.Fatalf("TERM=dumb should disable ansi, got %+v", c)
	}
}

func TestColortermTruecolor(t *testing.T) {
	c := detect(environment.Fake{
		Vars:         map[string]string{"TERM": "xterm", "COLORTERM": "truecolor"},
		PlatformName: "linux",
	})
	if c.ColorLevel != ColorLevelTrueColor {
		t.Fatalf("COLORTERM=truecolor should give truecolor, got %s", c.ColorLevel)
	}
}

func TestTerm256Color(t *testing.T) {
	c := detect(environment.Fake{Vars: map[string]string{"TERM": "xterm-256color"}, PlatformName: "linux"})
	if c.ColorLevel != ColorLevelExtended {
		t.Fatalf("expected extended color, got %s", c.ColorLevel)
	}
}

func TestWindowsTerminalDetected(t *testing.T) {
	c := detect(environment.Fake{
		Vars:         map[string]string{"WT_SESSION": "abc"},
		PlatformName: "windows",
	})
	if c.ColorLevel != ColorLevelTrueColor || !c.SupportsAlternateScreen {
		t.Fatalf("Windows Terminal should get full capabilities, got %+v", c)
	}
}

func TestLegacyConhostConservative(t *testing.T) {
	c := detect(environment.Fake{Vars: map[string]string{}, PlatformName: "windows"})
	if c.SupportsAlternateScreen || c.SupportsOSC52Clipboard {
		t.Fatalf("legacy conhost should not claim alt-screen/OSC52, got %+v", c)
	}
}
