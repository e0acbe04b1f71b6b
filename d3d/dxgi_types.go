package d3d

import (
	"image"
	"strconv"
)

type DXGI_SAMPLE_DESC struct {
	Count   uint32
	Quality uint32
}

type POINT struct {
	X int32
	Y int32
}

type RECT struct {
	Left, Top, Right, Bottom int32
}

func (r RECT) Rectangle() image.Rectangle {
	return image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
}

type DXGI_OUTPUT_DESC struct {
	DeviceName         [32]uint16
	DesktopCoordinates RECT
	AttachedToDesktop  uint32 // BOOL
	Rotation           uint32 // DXGI_MODE_ROTATION
	Monitor            uintptr
}

type DXGI_OUTDUPL_POINTER_POSITION struct {
	Position POINT
	Visible  uint32
}

type DXGI_OUTDUPL_FRAME_INFO struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            uint32
	ProtectedContentMaskedOut uint32
	PointerPosition           DXGI_OUTDUPL_POINTER_POSITION
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

// D3D11_TEXTURE2D_DESC
type D3D11_TEXTURE2D_DESC struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32 // DXGI_FORMAT
	SampleDesc     DXGI_SAMPLE_DESC
	Usage          uint32 // D3D11_USAGE
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

type D3D11_BOX struct {
	Left   uint32
	Top    uint32
	Front  uint32
	Right  uint32
	Bottom uint32
	Back   uint32
}

type D3D11_MAPPED_SUBRESOURCE struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

const (
	D3D_DRIVER_TYPE_HARDWARE = 1
	D3D_FEATURE_LEVEL_11_0   = 0xb000
	D3D11_SDK_VERSION        = 7

	D3D11_CREATE_DEVICE_BGRA_SUPPORT = 0x20

	D3D11_USAGE_STAGING = 3

	D3D11_CPU_ACCESS_READ = 0x20000

	D3D11_MAP_READ = 1

	DXGI_FORMAT_B8G8R8A8_UNORM = 87
)

// HRESULT is a failed COM return code.
type HRESULT uint32

const (
	E_NOINTERFACE                      HRESULT = 0x80004002
	E_INVALIDARG                       HRESULT = 0x80070057
	E_ACCESSDENIED                     HRESULT = 0x80070005
	E_OUTOFMEMORY                      HRESULT = 0x8007000E
	DXGI_ERROR_INVALID_CALL            HRESULT = 0x887A0001
	DXGI_ERROR_NOT_FOUND               HRESULT = 0x887A0002
	DXGI_ERROR_UNSUPPORTED             HRESULT = 0x887A0004
	DXGI_ERROR_DEVICE_REMOVED          HRESULT = 0x887A0005
	DXGI_ERROR_DEVICE_HUNG             HRESULT = 0x887A0006
	DXGI_ERROR_DEVICE_RESET            HRESULT = 0x887A0007
	DXGI_ERROR_WAS_STILL_DRAWING       HRESULT = 0x887A000A
	DXGI_ERROR_NOT_CURRENTLY_AVAILABLE HRESULT = 0x887A0022
	DXGI_ERROR_ACCESS_LOST             HRESULT = 0x887A0026
	DXGI_ERROR_WAIT_TIMEOUT            HRESULT = 0x887A0027
	DXGI_ERROR_SESSION_DISCONNECTED    HRESULT = 0x887A0028
	DXGI_ERROR_MODE_CHANGE_IN_PROGRESS HRESULT = 0x887A0025
	DXGI_ERROR_ACCESS_DENIED           HRESULT = 0x887A002B
)

func (e HRESULT) Error() string {
	switch e {
	case E_NOINTERFACE:
		return "E_NOINTERFACE"
	case E_INVALIDARG:
		return "E_INVALIDARG"
	case E_ACCESSDENIED:
		return "E_ACCESSDENIED"
	case E_OUTOFMEMORY:
		return "E_OUTOFMEMORY"
	case DXGI_ERROR_INVALID_CALL:
		return "DXGI_ERROR_INVALID_CALL"
	case DXGI_ERROR_NOT_FOUND:
		return "DXGI_ERROR_NOT_FOUND"
	case DXGI_ERROR_UNSUPPORTED:
		return "DXGI_ERROR_UNSUPPORTED"
	case DXGI_ERROR_DEVICE_REMOVED:
		return "DXGI_ERROR_DEVICE_REMOVED"
	case DXGI_ERROR_DEVICE_HUNG:
		return "DXGI_ERROR_DEVICE_HUNG"
	case DXGI_ERROR_DEVICE_RESET:
		return "DXGI_ERROR_DEVICE_RESET"
	case DXGI_ERROR_WAS_STILL_DRAWING:
		return "DXGI_ERROR_WAS_STILL_DRAWING"
	case DXGI_ERROR_NOT_CURRENTLY_AVAILABLE:
		return "DXGI_ERROR_NOT_CURRENTLY_AVAILABLE"
	case DXGI_ERROR_ACCESS_LOST:
		return "DXGI_ERROR_ACCESS_LOST"
	case DXGI_ERROR_WAIT_TIMEOUT:
		return "DXGI_ERROR_WAIT_TIMEOUT"
	case DXGI_ERROR_SESSION_DISCONNECTED:
		return "DXGI_ERROR_SESSION_DISCONNECTED"
	case DXGI_ERROR_MODE_CHANGE_IN_PROGRESS:
		return "DXGI_ERROR_MODE_CHANGE_IN_PROGRESS"
	case DXGI_ERROR_ACCESS_DENIED:
		return "DXGI_ERROR_ACCESS_DENIED"
	}

	return "0x" + strconv.FormatUint(uint64(e), 16)
}

func failed(hr int32) bool {
	return hr < 0
}

// hresult converts a raw COM return value into an error, nil on success.
func hresult(hr uintptr) error {
	if failed(int32(hr)) {
		return HRESULT(uint32(hr))
	}
	return nil
}
