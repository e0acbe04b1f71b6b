//go:build !windows

package capture

import "image"

func openPlatform() (Backend, error) {
	return nil, ErrUnsupported
}

func platformSupported() bool {
	return false
}

type platformLocator struct{}

func (platformLocator) WindowRect(hwnd uintptr) (image.Rectangle, error) {
	return image.Rectangle{}, ErrUnsupported
}
