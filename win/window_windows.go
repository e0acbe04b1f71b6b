// Package win resolves window handles to screen geometry.
package win

import (
	"errors"
	"image"
	"sync"
	"syscall"

	w32 "github.com/lxn/win"
)

var ErrNoWindow = errors.New("no such window")

// Window is a visible top-level window.
type Window struct {
	Handle uintptr
	Title  string
	Rect   image.Rectangle
}

// WindowRect returns the window's bounding rectangle in desktop coordinates.
// The values are physical pixels only if the calling thread is per-monitor
// DPI aware; see EnableDPIAwareness.
func WindowRect(hwnd uintptr) (image.Rectangle, error) {
	h := w32.HWND(hwnd)
	if hwnd == 0 || !isWindow(hwnd) {
		return image.Rectangle{}, ErrNoWindow
	}
	var r w32.RECT
	if !w32.GetWindowRect(h, &r) {
		return image.Rectangle{}, ErrNoWindow
	}
	return image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom)), nil
}

var (
	enumMu     sync.Mutex
	enumResult []Window

	// created once, callbacks are never freed
	enumWindowsCallback = syscall.NewCallback(func(hwnd w32.HWND, lParam uintptr) uintptr {
		if !w32.IsWindowVisible(hwnd) {
			return 1
		}
		buf := make([]uint16, 256)
		n, _ := getWindowText(uintptr(hwnd), &buf[0], int32(len(buf)))
		if n == 0 {
			return 1
		}
		rect, err := WindowRect(uintptr(hwnd))
		if err != nil {
			return 1
		}
		enumResult = append(enumResult, Window{
			Handle: uintptr(hwnd),
			Title:  syscall.UTF16ToString(buf[:n]),
			Rect:   rect,
		})
		return 1 // continue
	})
)

// VisibleWindows lists visible top-level windows that have a title.
func VisibleWindows() ([]Window, error) {
	enumMu.Lock()
	defer enumMu.Unlock()

	enumResult = nil
	err := enumWindows(enumWindowsCallback, 0)
	windows := enumResult
	enumResult = nil
	if err != nil {
		return nil, err
	}
	return windows, nil
}

// EnableDPIAwareness makes the calling thread per-monitor (v2) DPI aware so
// window rectangles match the duplicated texture's pixels. The caller must
// hold the OS thread locked.
func EnableDPIAwareness() error {
	if procIsValidDpiAwarenessContext.Find() != nil || !IsValidDpiAwarenessContext(DpiAwarenessContextPerMonitorAwareV2) {
		return errors.New("per-monitor v2 DPI awareness is not available")
	}
	_, err := SetThreadDpiAwarenessContext(DpiAwarenessContextPerMonitorAwareV2)
	return err
}
