//go:build !windows && !darwin

package environment

const platformName = "linux"
