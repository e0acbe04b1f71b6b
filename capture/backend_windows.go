//go:build windows

package capture

import (
	"errors"
	"fmt"
	"image"
	"time"
	"unsafe"

	"github.com/kirides/windowcapture/d3d"
	"github.com/kirides/windowcapture/win"
)

// d3dBackend drives DXGI desktop duplication on output 0 of the default
// hardware adapter.
type d3dBackend struct {
	device    *d3d.ID3D11Device
	deviceCtx *d3d.ID3D11DeviceContext
	ddup      *d3d.OutputDuplication
}

func openPlatform() (Backend, error) {
	device, deviceCtx, err := d3d.NewD3D11Device()
	if err != nil {
		return nil, err
	}
	ddup, err := d3d.NewOutputDuplication(device, 0)
	if err != nil {
		deviceCtx.Release()
		device.Release()
		return nil, err
	}
	return &d3dBackend{device: device, deviceCtx: deviceCtx, ddup: ddup}, nil
}

func platformSupported() bool {
	return d3d.Supported()
}

func (b *d3dBackend) Bounds() image.Rectangle {
	return b.ddup.Bounds()
}

func (b *d3dBackend) AcquireFrame(timeout time.Duration) (Texture, error) {
	tex, err := b.ddup.AcquireNextFrame(uint32(timeout / time.Millisecond))
	if err != nil {
		if errors.Is(err, d3d.ErrNoImageYet) {
			return nil, fmt.Errorf("%w after %v", ErrNoFrame, timeout)
		}
		return nil, err
	}
	return &texture{tex: tex}, nil
}

func (b *d3dBackend) ReleaseFrame() error {
	return b.ddup.ReleaseFrame()
}

func (b *d3dBackend) CreateStaging(format uint32, width, height int) (Staging, error) {
	desc := d3d.D3D11_TEXTURE2D_DESC{
		Width:          uint32(width),
		Height:         uint32(height),
		MipLevels:      1,
		ArraySize:      1,
		Format:         format,
		SampleDesc:     d3d.DXGI_SAMPLE_DESC{Count: 1},
		Usage:          d3d.D3D11_USAGE_STAGING,
		BindFlags:      0,
		CPUAccessFlags: d3d.D3D11_CPU_ACCESS_READ,
		MiscFlags:      0,
	}
	tex, err := b.device.CreateTexture2D(&desc)
	if err != nil {
		return nil, fmt.Errorf("CreateTexture2D: %w", err)
	}
	return &stagingTexture{texture: texture{tex: tex}, deviceCtx: b.deviceCtx}, nil
}

func (b *d3dBackend) CopyRegion(dst Staging, dp image.Point, src Texture, r image.Rectangle) {
	box := d3d.D3D11_BOX{
		Left:   uint32(r.Min.X),
		Top:    uint32(r.Min.Y),
		Front:  0,
		Right:  uint32(r.Max.X),
		Bottom: uint32(r.Max.Y),
		Back:   1,
	}
	b.deviceCtx.CopySubresourceRegion(dst.(*stagingTexture).tex, uint32(dp.X), uint32(dp.Y), src.(*texture).tex, &box)
}

func (b *d3dBackend) Close() {
	if b.ddup != nil {
		b.ddup.Release()
		b.ddup = nil
	}
	if b.deviceCtx != nil {
		b.deviceCtx.Release()
		b.deviceCtx = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
}

type texture struct {
	tex *d3d.ID3D11Texture2D
}

func (t *texture) Desc() TextureDesc {
	var desc d3d.D3D11_TEXTURE2D_DESC
	t.tex.GetDesc(&desc)
	return TextureDesc{Width: int(desc.Width), Height: int(desc.Height), Format: desc.Format}
}

func (t *texture) Release() {
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

type stagingTexture struct {
	texture
	deviceCtx *d3d.ID3D11DeviceContext
}

func (s *stagingTexture) Map() (Mapped, error) {
	var sub d3d.D3D11_MAPPED_SUBRESOURCE
	if err := s.deviceCtx.Map(s.tex, d3d.D3D11_MAP_READ, &sub); err != nil {
		return Mapped{}, fmt.Errorf("ID3D11DeviceContext.Map: %w", err)
	}
	height := s.Desc().Height
	size := int(sub.RowPitch) * height
	return Mapped{
		Pix:   unsafe.Slice((*byte)(unsafe.Pointer(sub.PData)), size),
		Pitch: int(sub.RowPitch),
	}, nil
}

func (s *stagingTexture) Unmap() {
	s.deviceCtx.Unmap(s.tex)
}

type platformLocator struct{}

func (platformLocator) WindowRect(hwnd uintptr) (image.Rectangle, error) {
	r, err := win.WindowRect(hwnd)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("%w 0x%x: %v", ErrInvalidWindow, hwnd, err)
	}
	return r, nil
}
