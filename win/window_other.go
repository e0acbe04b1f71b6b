//go:build !windows

package win

import (
	"errors"
	"image"
)

var (
	ErrNoWindow = errors.New("no such window")

	errNotWindows = errors.New("window lookup requires windows")
)

type Window struct {
	Handle uintptr
	Title  string
	Rect   image.Rectangle
}

func WindowRect(hwnd uintptr) (image.Rectangle, error) {
	return image.Rectangle{}, errNotWindows
}

func VisibleWindows() ([]Window, error) {
	return nil, errNotWindows
}

func EnableDPIAwareness() error {
	return errNotWindows
}
