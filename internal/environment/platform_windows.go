//go:build windows

package environment

const platformName = "windows"
