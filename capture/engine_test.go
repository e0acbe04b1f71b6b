package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"testing"
	"time"
)

// fakeOutput models the one-session-per-output limit of desktop duplication.
type fakeOutput struct {
	claimed bool
}

type fakeBackend struct {
	t      *testing.T
	out    *fakeOutput
	bounds image.Rectangle

	desktop []byte // BGRA, bounds.Dx()*4 bytes per row
	pad     int    // extra bytes per staging row

	acquireErr error
	createErr  error
	mapErr     error

	held           bool
	acquires       int
	releases       int
	stagingCreated int
	textures       []*fakeTexture
	events         []string
}

func newFakeBackend(t *testing.T, out *fakeOutput, w, h int) *fakeBackend {
	desktop := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			desktop[i+0] = byte(x) // B
			desktop[i+1] = byte(y) // G
			desktop[i+2] = 200     // R
			desktop[i+3] = 255     // A
		}
	}
	return &fakeBackend{t: t, out: out, bounds: image.Rect(0, 0, w, h), desktop: desktop}
}

func (b *fakeBackend) opener() Opener {
	return func() (Backend, error) {
		if b.out.claimed {
			return nil, errors.New("DXGI_ERROR_NOT_CURRENTLY_AVAILABLE")
		}
		b.out.claimed = true
		return b, nil
	}
}

func (b *fakeBackend) setPixel(x, y int, bgra [4]byte) {
	i := ((y-b.bounds.Min.Y)*b.bounds.Dx() + (x - b.bounds.Min.X)) * 4
	copy(b.desktop[i:i+4], bgra[:])
}

func (b *fakeBackend) Bounds() image.Rectangle { return b.bounds }

func (b *fakeBackend) AcquireFrame(timeout time.Duration) (Texture, error) {
	if b.held {
		b.t.Errorf("AcquireFrame called while a frame is held")
	}
	b.acquires++
	if b.acquireErr != nil {
		return nil, b.acquireErr
	}
	b.held = true
	tex := &fakeTexture{name: fmt.Sprintf("frame%d", b.acquires), desc: TextureDesc{
		Width: b.bounds.Dx(), Height: b.bounds.Dy(), Format: 87,
	}, b: b}
	b.textures = append(b.textures, tex)
	return tex, nil
}

func (b *fakeBackend) ReleaseFrame() error {
	if !b.held {
		b.t.Errorf("ReleaseFrame called while no frame is held")
	}
	b.releases++
	b.held = false
	return nil
}

func (b *fakeBackend) CreateStaging(format uint32, width, height int) (Staging, error) {
	b.stagingCreated++
	if b.createErr != nil {
		return nil, b.createErr
	}
	pitch := width*4 + b.pad
	pix := make([]byte, pitch*height)
	for i := range pix {
		pix[i] = 0xEE
	}
	return &fakeStaging{
		fakeTexture: fakeTexture{name: "staging", desc: TextureDesc{Width: width, Height: height, Format: format}, b: b},
		pitch:       pitch,
		pix:         pix,
	}, nil
}

func (b *fakeBackend) CopyRegion(dst Staging, dp image.Point, src Texture, r image.Rectangle) {
	if !b.held {
		b.t.Errorf("CopyRegion without a held frame")
	}
	if src.(*fakeTexture).released {
		b.t.Errorf("CopyRegion from a released texture")
	}
	s := dst.(*fakeStaging)
	w := b.bounds.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		from := b.desktop[(y*w+r.Min.X)*4 : (y*w+r.Max.X)*4]
		at := (dp.Y+y-r.Min.Y)*s.pitch + dp.X*4
		copy(s.pix[at:at+len(from)], from)
	}
}

func (b *fakeBackend) Close() {
	b.events = append(b.events, "close backend")
	b.out.claimed = false
}

type fakeTexture struct {
	name     string
	desc     TextureDesc
	b        *fakeBackend
	released bool
}

func (t *fakeTexture) Desc() TextureDesc { return t.desc }

func (t *fakeTexture) Release() {
	if t.released {
		t.b.t.Errorf("%s released twice", t.name)
	}
	t.released = true
	t.b.events = append(t.b.events, "release "+t.name)
}

type fakeStaging struct {
	fakeTexture
	pitch  int
	pix    []byte
	mapped bool
}

func (s *fakeStaging) Map() (Mapped, error) {
	if s.b.mapErr != nil {
		return Mapped{}, s.b.mapErr
	}
	s.mapped = true
	return Mapped{Pix: s.pix, Pitch: s.pitch}, nil
}

func (s *fakeStaging) Unmap() {
	if !s.mapped {
		s.b.t.Errorf("Unmap without Map")
	}
	s.mapped = false
}

func fixedWindow(r image.Rectangle) Locator {
	return LocatorFunc(func(uintptr) (image.Rectangle, error) { return r, nil })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, b *fakeBackend, loc Locator) *Engine {
	t.Helper()
	e := New(WithOpener(b.opener()), WithLocator(loc), WithLogger(discardLogger()))
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestCaptureWindowSizeAndPixels(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 64, 48)
	window := image.Rect(10, 5, 30, 20)
	e := newTestEngine(t, b, fixedWindow(window))

	res, err := e.CaptureWindow(0x1234)
	if err != nil {
		t.Fatalf("CaptureWindow: %v", err)
	}
	if res.Width != 20 || res.Height != 15 {
		t.Fatalf("size = %dx%d, want 20x15", res.Width, res.Height)
	}
	if len(res.Pix) != 20*15*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(res.Pix), 20*15*4)
	}
	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			i := (y*res.Width + x) * 4
			want := []byte{200, byte(y + 5), byte(x + 10), 255}
			if got := res.Pix[i : i+4]; !bytes.Equal(got, want) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestCaptureWindowSwapsRedAndBlue(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 16, 16)
	b.setPixel(4, 4, [4]byte{10, 20, 30, 40})
	e := newTestEngine(t, b, fixedWindow(image.Rect(4, 4, 8, 8)))

	res, err := e.CaptureWindow(1)
	if err != nil {
		t.Fatalf("CaptureWindow: %v", err)
	}
	if got, want := res.Pix[:4], []byte{30, 20, 10, 40}; !bytes.Equal(got, want) {
		t.Fatalf("first pixel = %v, want %v", got, want)
	}
}

func TestCaptureWindowPackedRowsWithPitchPadding(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 32, 32)
	b.pad = 52
	e := newTestEngine(t, b, fixedWindow(image.Rect(3, 7, 10, 12)))

	res, err := e.CaptureWindow(1)
	if err != nil {
		t.Fatalf("CaptureWindow: %v", err)
	}
	if len(res.Pix) != 7*5*4 {
		t.Fatalf("len(Pix) = %d, want %d", len(res.Pix), 7*5*4)
	}
	if bytes.IndexByte(res.Pix, 0xEE) >= 0 {
		t.Fatalf("padding bytes copied into output")
	}
	// first pixel of the second row comes from desktop (3, 8)
	i := res.Width * 4
	if got, want := res.Pix[i:i+4], []byte{200, 8, 3, 255}; !bytes.Equal(got, want) {
		t.Fatalf("row 1 pixel 0 = %v, want %v", got, want)
	}
}

func TestCaptureWindowReusesStaging(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 64, 48)
	e := newTestEngine(t, b, fixedWindow(image.Rect(0, 0, 16, 16)))

	for i := 0; i < 2; i++ {
		if _, err := e.CaptureWindow(1); err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
		if b.held {
			t.Fatalf("capture %d left a frame held", i)
		}
	}
	if b.stagingCreated != 1 {
		t.Fatalf("staging created %d times, want 1", b.stagingCreated)
	}
	if b.acquires != 2 || b.releases != 2 {
		t.Fatalf("acquires=%d releases=%d, want 2/2", b.acquires, b.releases)
	}
	if !b.textures[0].released {
		t.Fatalf("previous desktop image was not released")
	}
	if b.textures[1].released {
		t.Fatalf("current desktop image released before Close")
	}
}

func TestCaptureWindowTimeout(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 32, 32)
	e := newTestEngine(t, b, fixedWindow(image.Rect(0, 0, 8, 8)))

	b.acquireErr = fmt.Errorf("%w after 100ms", ErrNoFrame)
	res, err := e.CaptureWindow(1)
	if err == nil {
		t.Fatalf("expected error on timeout, got %+v", res)
	}
	if res != nil {
		t.Fatalf("expected no result on timeout")
	}
	if !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
	if KindOf(err) != KindFrame {
		t.Fatalf("KindOf = %v, want %v", KindOf(err), KindFrame)
	}
	if b.releases != 0 || b.held {
		t.Fatalf("timeout must not release or hold a frame: releases=%d held=%v", b.releases, b.held)
	}

	b.acquireErr = nil
	if _, err := e.CaptureWindow(1); err != nil {
		t.Fatalf("session unusable after timeout: %v", err)
	}
}

func TestCaptureWindowGeometryFailsFast(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
	}{
		{"unresolvable", LocatorFunc(func(uintptr) (image.Rectangle, error) {
			return image.Rectangle{}, ErrInvalidWindow
		})},
		{"zero width", fixedWindow(image.Rect(10, 10, 10, 40))},
		{"zero height", fixedWindow(image.Rect(10, 10, 40, 10))},
		{"negative", fixedWindow(image.Rectangle{Min: image.Pt(10, 10), Max: image.Pt(5, 5)})},
		{"off output", fixedWindow(image.Rect(-32000, -32000, -31840, -31973))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend(t, &fakeOutput{}, 64, 48)
			e := newTestEngine(t, b, tt.loc)

			_, err := e.CaptureWindow(1)
			if KindOf(err) != KindGeometry {
				t.Fatalf("expected geometry error, got %v", err)
			}
			if !errors.Is(err, ErrInvalidWindow) {
				t.Fatalf("expected ErrInvalidWindow, got %v", err)
			}
			if b.acquires != 0 || b.releases != 0 || b.stagingCreated != 0 {
				t.Fatalf("GPU touched: acquires=%d releases=%d staging=%d",
					b.acquires, b.releases, b.stagingCreated)
			}
		})
	}
}

func TestCaptureWindowStagingFailure(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 32, 32)
	e := newTestEngine(t, b, fixedWindow(image.Rect(0, 0, 8, 8)))

	b.createErr = errors.New("E_OUTOFMEMORY")
	_, err := e.CaptureWindow(1)
	if KindOf(err) != KindResource {
		t.Fatalf("expected resource error, got %v", err)
	}
	if b.held {
		t.Fatalf("frame left held after staging failure")
	}
	if !b.textures[0].released {
		t.Fatalf("desktop image not released after staging failure")
	}

	b.createErr = nil
	if _, err := e.CaptureWindow(1); err != nil {
		t.Fatalf("capture after staging failure: %v", err)
	}
	if b.stagingCreated != 2 {
		t.Fatalf("staging created %d times, want 2", b.stagingCreated)
	}
}

func TestCaptureWindowMapFailureReleasesFrame(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 32, 32)
	e := newTestEngine(t, b, fixedWindow(image.Rect(0, 0, 8, 8)))

	b.mapErr = errors.New("DXGI_ERROR_DEVICE_REMOVED")
	if _, err := e.CaptureWindow(1); KindOf(err) != KindResource {
		t.Fatalf("expected resource error, got %v", err)
	}
	if b.held || b.releases != 1 {
		t.Fatalf("held=%v releases=%d, want released frame", b.held, b.releases)
	}
}

func TestCaptureWindowKeepsFirstStagingSize(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 64, 64)
	window := image.Rect(0, 0, 10, 10)
	e := newTestEngine(t, b, LocatorFunc(func(uintptr) (image.Rectangle, error) {
		return window, nil
	}))

	if _, err := e.CaptureWindow(1); err != nil {
		t.Fatalf("first capture: %v", err)
	}
	window = image.Rect(0, 0, 20, 30)
	res, err := e.CaptureWindow(1)
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if res.Width != 10 || res.Height != 10 {
		t.Fatalf("size = %dx%d, want the first staging size 10x10", res.Width, res.Height)
	}
	if b.stagingCreated != 1 {
		t.Fatalf("staging created %d times, want 1", b.stagingCreated)
	}
}

func TestFitsTracksStagingSize(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 64, 64)
	sizes := map[uintptr]image.Rectangle{
		1: image.Rect(0, 0, 10, 10),
		2: image.Rect(20, 20, 30, 30),
		3: image.Rect(0, 0, 20, 10),
	}
	e := newTestEngine(t, b, LocatorFunc(func(hwnd uintptr) (image.Rectangle, error) {
		r, ok := sizes[hwnd]
		if !ok {
			return image.Rectangle{}, ErrInvalidWindow
		}
		return r, nil
	}))

	if !e.Fits(3) {
		t.Fatal("every window fits before the staging texture exists")
	}
	if _, err := e.CaptureWindow(1); err != nil {
		t.Fatalf("CaptureWindow: %v", err)
	}
	tests := []struct {
		hwnd uintptr
		want bool
	}{
		{1, true},
		{2, true},
		{3, false},
		{4, true},
	}
	for _, tt := range tests {
		if got := e.Fits(tt.hwnd); got != tt.want {
			t.Errorf("Fits(%d) = %v, want %v", tt.hwnd, got, tt.want)
		}
	}
}

func TestCaptureWindowPartiallyOffOutput(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 32, 32)
	e := newTestEngine(t, b, fixedWindow(image.Rect(-4, 0, 4, 2)))

	res, err := e.CaptureWindow(1)
	if err != nil {
		t.Fatalf("CaptureWindow: %v", err)
	}
	if res.Width != 8 || res.Height != 2 {
		t.Fatalf("size = %dx%d, want 8x2", res.Width, res.Height)
	}
	// columns 4..7 map to desktop x 0..3
	i := 4 * 4
	if got, want := res.Pix[i:i+4], []byte{200, 0, 0, 255}; !bytes.Equal(got, want) {
		t.Fatalf("pixel (4,0) = %v, want %v", got, want)
	}
}

func TestCaptureWindowNotInitialized(t *testing.T) {
	e := New(WithLocator(fixedWindow(image.Rect(0, 0, 8, 8))), WithLogger(discardLogger()))
	if _, err := e.CaptureWindow(1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestInitializeFailureKeepsNoState(t *testing.T) {
	e := New(WithOpener(func() (Backend, error) {
		return nil, errors.New("D3D11CreateDevice: DXGI_ERROR_UNSUPPORTED")
	}), WithLogger(discardLogger()))

	err := e.Initialize()
	if KindOf(err) != KindSetup {
		t.Fatalf("expected setup error, got %v", err)
	}
	if _, err := e.CaptureWindow(1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized after failed init, got %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close after failed init: %v", err)
	}
}

func TestSecondEngineOnSameOutputFails(t *testing.T) {
	out := &fakeOutput{}
	b := newFakeBackend(t, out, 32, 32)
	newTestEngine(t, b, fixedWindow(image.Rect(0, 0, 8, 8)))

	second := New(WithOpener(b.opener()), WithLogger(discardLogger()))
	if err := second.Initialize(); KindOf(err) != KindSetup {
		t.Fatalf("expected second session to fail with setup error, got %v", err)
	}
}

func TestProbeDoesNotLeakSession(t *testing.T) {
	out := &fakeOutput{}
	b := newFakeBackend(t, out, 32, 32)

	for i := 0; i < 5; i++ {
		if !Probe(b.opener()) {
			t.Fatalf("probe %d reported unsupported", i)
		}
	}
	newTestEngine(t, b, fixedWindow(image.Rect(0, 0, 8, 8)))
}

func TestProbeFailure(t *testing.T) {
	if Probe(func() (Backend, error) { return nil, ErrUnsupported }) {
		t.Fatalf("probe should fail when the backend cannot be opened")
	}
}

func TestCloseReleasesInReverseOrder(t *testing.T) {
	b := newFakeBackend(t, &fakeOutput{}, 32, 32)
	e := New(WithOpener(b.opener()), WithLocator(fixedWindow(image.Rect(0, 0, 8, 8))), WithLogger(discardLogger()))
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := e.CaptureWindow(1); err != nil {
		t.Fatalf("CaptureWindow: %v", err)
	}
	b.events = nil
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := []string{"release staging", "release frame1", "close backend"}
	if fmt.Sprint(b.events) != fmt.Sprint(want) {
		t.Fatalf("release order = %v, want %v", b.events, want)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(b.events) != len(want) {
		t.Fatalf("second Close released again: %v", b.events)
	}
}

func TestRegionToCopy(t *testing.T) {
	tests := []struct {
		name    string
		window  image.Rectangle
		bounds  image.Rectangle
		tex     image.Point
		staging image.Point
		wantSrc image.Rectangle
		wantDp  image.Point
	}{
		{
			name:    "inside",
			window:  image.Rect(100, 50, 300, 150),
			bounds:  image.Rect(0, 0, 1920, 1080),
			tex:     image.Pt(1920, 1080),
			staging: image.Pt(200, 100),
			wantSrc: image.Rect(100, 50, 300, 150),
			wantDp:  image.Pt(0, 0),
		},
		{
			name:    "output not at origin",
			window:  image.Rect(2000, 100, 2100, 200),
			bounds:  image.Rect(1920, 0, 3840, 1080),
			tex:     image.Pt(1920, 1080),
			staging: image.Pt(100, 100),
			wantSrc: image.Rect(80, 100, 180, 200),
			wantDp:  image.Pt(0, 0),
		},
		{
			name:    "hangs off the left edge",
			window:  image.Rect(-50, 10, 50, 60),
			bounds:  image.Rect(0, 0, 1920, 1080),
			tex:     image.Pt(1920, 1080),
			staging: image.Pt(100, 50),
			wantSrc: image.Rect(0, 10, 50, 60),
			wantDp:  image.Pt(50, 0),
		},
		{
			name:    "staging smaller than window",
			window:  image.Rect(10, 10, 110, 110),
			bounds:  image.Rect(0, 0, 1920, 1080),
			tex:     image.Pt(1920, 1080),
			staging: image.Pt(40, 30),
			wantSrc: image.Rect(10, 10, 50, 40),
			wantDp:  image.Pt(0, 0),
		},
		{
			name:    "outside",
			window:  image.Rect(-300, -300, -100, -100),
			bounds:  image.Rect(0, 0, 1920, 1080),
			tex:     image.Pt(1920, 1080),
			staging: image.Pt(200, 200),
			wantSrc: image.Rectangle{},
			wantDp:  image.Point{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dp := regionToCopy(tt.window, tt.bounds, tt.tex, tt.staging)
			if src != tt.wantSrc || dp != tt.wantDp {
				t.Fatalf("regionToCopy = %v, %v; want %v, %v", src, dp, tt.wantSrc, tt.wantDp)
			}
		})
	}
}

func TestResultRGBA(t *testing.T) {
	res := &Result{Pix: make([]byte, 3*2*4), Width: 3, Height: 2}
	res.Pix[4*4] = 7 // (1,1) red
	img := res.RGBA()
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("Bounds = %v", img.Bounds())
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r>>8 != 7 {
		t.Fatalf("At(1,1) red = %d, want 7", r>>8)
	}
}
