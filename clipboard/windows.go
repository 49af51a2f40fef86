//go:build windows

package clipboard

import (
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procOpenClipboard       = user32.NewProc("OpenClipboard")
	procCloseClipboard      = user32.NewProc("CloseClipboard")
	procEmptyClipboard      = user32.NewProc("EmptyClipboard")
	procGetClipboardData    = user32.NewProc("GetClipboardData")
	procSetClipboardData    = user32.NewProc("SetClipboardData")
	procGlobalAlloc         = kernel32.NewProc("GlobalAlloc")
	procGlobalLock          = kernel32.NewProc("GlobalLock")
	procGlobalUnlock        = kernel32.NewProc("GlobalUnlock")
	procGlobalSize          = kernel32.NewProc("GlobalSize")
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002
)

// WindowsProvider uses the Win32 clipboard API (CF_UNICODETEXT), matching
// the teacher's Console infrastructure's direct-Win32-call approach rather
// than shelling out to a helper process.
type WindowsProvider struct{}

func NewWindowsProvider() *WindowsProvider { return &WindowsProvider{} }

func (p *WindowsProvider) IsAvailable() bool { return true }
func (p *WindowsProvider) Name() string      { return "Win32" }

func openClipboardRetry() bool {
	for i := 0; i < 5; i++ {
		r, _, _ := procOpenClipboard.Call(0)
		if r != 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func (p *WindowsProvider) TryGetText() (string, bool) {
	if !openClipboardRetry() {
		return "", false
	}
	defer procCloseClipboard.Call()

	h, _, _ := procGetClipboardData.Call(cfUnicodeText)
	if h == 0 {
		return "", false
	}
	ptr, _, _ := procGlobalLock.Call(h)
	if ptr == 0 {
		return "", false
	}
	defer procGlobalUnlock.Call(h)

	text := utf16PtrToString((*uint16)(unsafe.Pointer(ptr)))
	return text, true
}

func (p *WindowsProvider) TrySetText(text string) bool {
	if !openClipboardRetry() {
		return false
	}
	defer procCloseClipboard.Call()

	procEmptyClipboard.Call()

	u16, err := syscall.UTF16FromString(text)
	if err != nil {
		return false
	}
	size := uintptr(len(u16) * 2)

	h, _, _ := procGlobalAlloc.Call(gmemMoveable, size)
	if h == 0 {
		return false
	}
	ptr, _, _ := procGlobalLock.Call(h)
	if ptr == 0 {
		return false
	}
	dst := unsafe.Slice((*uint16)(unsafe.Pointer(ptr)), len(u16))
	copy(dst, u16)
	procGlobalUnlock.Call(h)

	r, _, _ := procSetClipboardData.Call(cfUnicodeText, h)
	return r != 0
}

func utf16PtrToString(p *uint16) string {
	if p == nil {
		return ""
	}
	n := 0
	for ptr := unsafe.Pointer(p); ; n++ {
		c := *(*uint16)(unsafe.Add(ptr, uintptr(n)*2))
		if c == 0 {
			break
		}
	}
	slice := unsafe.Slice(p, n)
	return syscall.UTF16ToString(slice)
}
