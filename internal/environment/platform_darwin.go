//go:build darwin

package environment

const platformName = "darwin"
