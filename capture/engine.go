// Package capture grabs the pixels of a single window from the desktop
// duplication stream of the primary output.
//
// An Engine is not safe for concurrent use. On Windows the goroutine driving
// it should be locked to its OS thread.
package capture

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/kirides/windowcapture/swizzle"
)

// FrameTimeout bounds how long CaptureWindow waits for a desktop frame.
const FrameTimeout = 100 * time.Millisecond

// Result holds packed RGBA pixels, Width*4 bytes per row.
type Result struct {
	Pix    []byte
	Width  int
	Height int
}

// RGBA wraps the result pixels without copying.
func (r *Result) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

type Engine struct {
	open    Opener
	locate  Locator
	log     *slog.Logger
	timeout time.Duration

	backend Backend
	frame   Texture // most recently acquired desktop image
	staging Staging // sized to the first captured window, never resized
}

type Option func(*Engine)

// WithOpener replaces the platform backend.
func WithOpener(open Opener) Option {
	return func(e *Engine) { e.open = open }
}

// WithLocator replaces the platform window lookup.
func WithLocator(l Locator) Option {
	return func(e *Engine) { e.locate = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		open:    openPlatform,
		locate:  platformLocator{},
		timeout: FrameTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default().With("component", "capture")
	}
	return e
}

// Initialize creates the device and the duplication session. It keeps no
// state on failure, and does nothing if the engine is already initialized.
func (e *Engine) Initialize() error {
	if e.backend != nil {
		return nil
	}
	b, err := e.open()
	if err != nil {
		e.log.Warn("desktop duplication setup failed", "error", err)
		return &Error{Kind: KindSetup, Op: "initialize", Err: err}
	}
	e.backend = b
	e.log.Debug("desktop duplication initialized", "output", b.Bounds())
	return nil
}

// CaptureWindow copies the window's current screen area out of the next
// desktop frame. Failures are per call; the engine stays usable afterwards.
func (e *Engine) CaptureWindow(hwnd uintptr) (*Result, error) {
	if e.backend == nil {
		return nil, ErrNotInitialized
	}

	rect, err := e.locate.WindowRect(hwnd)
	if err != nil {
		return nil, &Error{Kind: KindGeometry, Op: "resolve window", Err: err}
	}
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, &Error{Kind: KindGeometry, Op: "resolve window",
			Err: fmt.Errorf("%w: empty rectangle %v", ErrInvalidWindow, rect)}
	}
	bounds := e.backend.Bounds()
	if !rect.Overlaps(bounds) {
		return nil, &Error{Kind: KindGeometry, Op: "resolve window",
			Err: fmt.Errorf("%w: %v is outside output %v", ErrInvalidWindow, rect, bounds)}
	}
	width, height := rect.Dx(), rect.Dy()

	tex, err := e.backend.AcquireFrame(e.timeout)
	if err != nil {
		return nil, &Error{Kind: KindFrame, Op: "acquire frame", Err: err}
	}
	defer e.releaseFrame()

	if e.frame != nil {
		e.frame.Release()
	}
	e.frame = tex
	desc := tex.Desc()

	if e.staging == nil {
		staging, err := e.backend.CreateStaging(desc.Format, width, height)
		if err != nil {
			e.frame.Release()
			e.frame = nil
			return nil, &Error{Kind: KindResource, Op: "create staging texture", Err: err}
		}
		e.staging = staging
		e.log.Debug("created staging texture", "width", width, "height", height, "format", desc.Format)
	}
	sd := e.staging.Desc()
	if sd.Width != width || sd.Height != height {
		e.log.Warn("window size differs from staging texture, output is clipped",
			"window", fmt.Sprintf("%dx%d", width, height),
			"staging", fmt.Sprintf("%dx%d", sd.Width, sd.Height))
	}

	src, dp := regionToCopy(rect, bounds,
		image.Pt(desc.Width, desc.Height), image.Pt(sd.Width, sd.Height))
	if !src.Empty() {
		e.backend.CopyRegion(e.staging, dp, e.frame, src)
	}

	mapped, err := e.staging.Map()
	if err != nil {
		return nil, &Error{Kind: KindResource, Op: "map staging texture", Err: err}
	}
	pix := make([]byte, sd.Width*sd.Height*4)
	swizzle.PackBGRA(pix, mapped.Pix, sd.Width, sd.Height, mapped.Pitch)
	e.staging.Unmap()

	return &Result{Pix: pix, Width: sd.Width, Height: sd.Height}, nil
}

// Fits reports whether hwnd's current size matches the staging texture, so
// that CaptureWindow would return the whole window. It is true before the
// first capture and when the window cannot be resolved.
func (e *Engine) Fits(hwnd uintptr) bool {
	if e.staging == nil {
		return true
	}
	rect, err := e.locate.WindowRect(hwnd)
	if err != nil {
		return true
	}
	sd := e.staging.Desc()
	return rect.Dx() == sd.Width && rect.Dy() == sd.Height
}

func (e *Engine) releaseFrame() {
	if err := e.backend.ReleaseFrame(); err != nil {
		e.log.Warn("release frame failed", "error", err)
	}
}

// Close releases everything the engine holds, in reverse creation order.
// It is safe to call on an engine that never initialized.
func (e *Engine) Close() error {
	if e.staging != nil {
		e.staging.Release()
		e.staging = nil
	}
	if e.frame != nil {
		e.frame.Release()
		e.frame = nil
	}
	if e.backend != nil {
		e.backend.Close()
		e.backend = nil
	}
	return nil
}

// regionToCopy maps window (desktop coordinates) onto the texture of the
// output at bounds. It returns the source rectangle in texture coordinates
// and where its top-left corner lands in the staging texture. Parts of the
// window off the output, or beyond the staging size, are dropped.
func regionToCopy(window, bounds image.Rectangle, texSize, stagingSize image.Point) (image.Rectangle, image.Point) {
	// offset takes texture coordinates to staging coordinates
	offset := bounds.Min.Sub(window.Min)

	src := window.Intersect(bounds).Sub(bounds.Min)
	src = src.Intersect(image.Rectangle{Max: texSize})

	dst := src.Add(offset).Intersect(image.Rectangle{Max: stagingSize})
	src = dst.Sub(offset)
	if src.Empty() {
		return image.Rectangle{}, image.Point{}
	}
	return src, dst.Min
}

// Probe reports whether open can produce a backend. The backend is closed
// before returning.
func Probe(open Opener) bool {
	b, err := open()
	if err != nil {
		return false
	}
	b.Close()
	return true
}

// Supported reports whether desktop duplication works on this machine. It
// does not need or touch an Engine.
func Supported() bool {
	return platformSupported()
}
