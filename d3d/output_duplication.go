//go:build windows

package d3d

import (
	"errors"
	"fmt"
	"image"
	"unsafe"
)

var (
	// ErrNoImageYet is returned by AcquireNextFrame when the desktop did not
	// present a new frame within the timeout.
	ErrNoImageYet = errors.New("no image yet")

	errFrameHeld = errors.New("frame already acquired")
)

// OutputDuplication is a desktop duplication session bound to one output.
// At most one frame is held at a time.
type OutputDuplication struct {
	dup *IDXGIOutputDuplication

	bounds        image.Rectangle // output rect in desktop coordinates
	acquiredFrame bool
}

// NewOutputDuplication walks device -> adapter -> output -> IDXGIOutput1 and
// duplicates the output. Every intermediate object is released before
// returning, on success and failure alike.
func NewOutputDuplication(device *ID3D11Device, output uint) (*OutputDuplication, error) {
	dxgiDevice, err := device.DXGIDevice()
	if err != nil {
		return nil, fmt.Errorf("QueryInterface(IDXGIDevice): %w", err)
	}
	defer dxgiDevice.Release()

	adapter, err := dxgiDevice.GetAdapter()
	if err != nil {
		return nil, fmt.Errorf("IDXGIDevice.GetAdapter: %w", err)
	}
	defer adapter.Release()

	dxgiOutput, err := adapter.EnumOutputs(uint32(output))
	if err != nil {
		return nil, fmt.Errorf("IDXGIAdapter.EnumOutputs(%d): %w", output, err)
	}
	defer dxgiOutput.Release()

	var desc DXGI_OUTPUT_DESC
	if err := dxgiOutput.GetDesc(&desc); err != nil {
		return nil, fmt.Errorf("IDXGIOutput.GetDesc: %w", err)
	}

	output1, err := dxgiOutput.Output1()
	if err != nil {
		return nil, fmt.Errorf("QueryInterface(IDXGIOutput1): %w", err)
	}
	defer output1.Release()

	dup, err := output1.DuplicateOutput(device)
	if err != nil {
		return nil, fmt.Errorf("IDXGIOutput1.DuplicateOutput: %w", err)
	}

	return &OutputDuplication{
		dup:    dup,
		bounds: desc.DesktopCoordinates.Rectangle(),
	}, nil
}

// Bounds is the duplicated output's rectangle in desktop coordinates.
func (d *OutputDuplication) Bounds() image.Rectangle {
	return d.bounds
}

// AcquireNextFrame waits up to timeoutMs for a new desktop frame and returns
// its texture. The texture is owned by the caller; the frame itself must be
// given back with ReleaseFrame. No frame is held when an error is returned.
func (d *OutputDuplication) AcquireNextFrame(timeoutMs uint32) (*ID3D11Texture2D, error) {
	if d.acquiredFrame {
		return nil, errFrameHeld
	}

	var desktop *IDXGIResource
	var frameInfo DXGI_OUTDUPL_FRAME_INFO
	err := d.dup.AcquireNextFrame(timeoutMs, &frameInfo, &desktop)
	if err != nil {
		if errors.Is(err, DXGI_ERROR_WAIT_TIMEOUT) {
			return nil, ErrNoImageYet
		}
		return nil, fmt.Errorf("failed to AcquireNextFrame. %w", err)
	}
	d.acquiredFrame = true

	var desktop2d *ID3D11Texture2D
	err = desktop.QueryInterface(&iid_ID3D11Texture2D, unsafe.Pointer(&desktop2d))
	desktop.Release()
	if err != nil {
		_ = d.ReleaseFrame()
		return nil, fmt.Errorf("failed to QueryInterface(iid_ID3D11Texture2D, ...). %w", err)
	}
	return desktop2d, nil
}

// ReleaseFrame gives the held frame back to the compositor. It does nothing
// when no frame is held.
func (d *OutputDuplication) ReleaseFrame() error {
	if !d.acquiredFrame {
		return nil
	}
	d.acquiredFrame = false
	if err := d.dup.ReleaseFrame(); err != nil {
		return fmt.Errorf("failed to ReleaseFrame. %w", err)
	}
	return nil
}

func (d *OutputDuplication) Release() {
	if d.dup == nil {
		return
	}
	_ = d.ReleaseFrame()
	d.dup.Release()
	d.dup = nil
}

// Supported reports whether a duplication session can be created on the
// primary output of the default hardware adapter. Everything it creates is
// released before it returns.
func Supported() bool {
	device, deviceCtx, err := NewD3D11Device()
	if err != nil {
		return false
	}
	defer device.Release()
	defer deviceCtx.Release()

	dup, err := NewOutputDuplication(device, 0)
	if err != nil {
		return false
	}
	dup.Release()
	return true
}
