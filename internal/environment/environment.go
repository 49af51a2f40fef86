// Package environment abstracts environment-variable and platform-name
// reads behind a small port, so capability detection can be unit tested
// against a fake instead of the real process environment. Mirrors the
// teacher's EnvironmentProvider/OsEnvironmentProvider hexagonal split.
package environment

import "os"

// Provider reads environment variables and the current platform name.
type Provider interface {
	// Get returns the environment variable value, or "" if unset.
	Get(key string) string
	// Platform returns "linux", "darwin", "windows", etc.
	Platform() string
}

// OS is the real Provider backed by os.Getenv and runtime.GOOS.
type OS struct{}

func (OS) Get(key string) string { return os.Getenv(key) }
func (OS) Platform() string      { return platformName }

// Fake is an in-memory Provider for tests.
type Fake struct {
	Vars         map[string]string
	PlatformName string
}

func (f Fake) Get(key string) string { return f.Vars[key] }
func (f Fake) Platform() string      { return f.PlatformName }
