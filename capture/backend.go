package capture

import (
	"image"
	"time"
)

// TextureDesc is the part of a GPU texture description the engine needs.
type TextureDesc struct {
	Width  int
	Height int
	Format uint32 // DXGI_FORMAT
}

// Texture is a GPU image owned by the engine.
type Texture interface {
	Desc() TextureDesc
	Release()
}

// Mapped is a CPU view of a staging texture. Rows are Pitch bytes apart,
// which may be more than Width*4.
type Mapped struct {
	Pix   []byte
	Pitch int
}

// Staging is a CPU-readable texture.
type Staging interface {
	Texture
	Map() (Mapped, error)
	Unmap()
}

// Backend is a live duplication session on one output together with the
// device that owns it.
type Backend interface {
	// Bounds is the duplicated output's rectangle in desktop coordinates.
	Bounds() image.Rectangle

	// AcquireFrame returns the next desktop image, or an error wrapping
	// ErrNoFrame when none arrives within timeout. On error no frame is
	// held.
	AcquireFrame(timeout time.Duration) (Texture, error)

	// ReleaseFrame hands the held frame back. It is a no-op when no frame
	// is held.
	ReleaseFrame() error

	CreateStaging(format uint32, width, height int) (Staging, error)

	// CopyRegion copies r of src into dst with r.Min landing on dp.
	CopyRegion(dst Staging, dp image.Point, src Texture, r image.Rectangle)

	// Close releases the duplication session, the device context and the
	// device, in that order.
	Close()
}

// Opener creates a Backend bound to the primary output.
type Opener func() (Backend, error)

// Locator resolves a window handle to its rectangle in desktop coordinates.
type Locator interface {
	WindowRect(hwnd uintptr) (image.Rectangle, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(hwnd uintptr) (image.Rectangle, error)

func (f LocatorFunc) WindowRect(hwnd uintptr) (image.Rectangle, error) {
	return f(hwnd)
}
