//go:build windows

package d3d

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modD3D11              = windows.NewLazySystemDLL("d3d11.dll")
	procD3D11CreateDevice = modD3D11.NewProc("D3D11CreateDevice")

	iid_IDXGIDevice, _     = windows.GUIDFromString("{54ec77fa-1377-44e6-8c32-88fd5f44c84c}")
	iid_IDXGIOutput1, _    = windows.GUIDFromString("{00cddea8-939b-4b83-a340-a685226666cc}")
	iid_ID3D11Texture2D, _ = windows.GUIDFromString("{6f15aaf2-d208-4e89-9ab4-489535d34f9c}")
)

type ID3D11Device struct {
	vtbl *iD3D11DeviceVtbl
}

type ID3D11DeviceContext struct {
	vtbl *iD3D11DeviceContextVtbl
}

type ID3D11Texture2D struct {
	vtbl *iD3D11Texture2DVtbl
}

// NewD3D11Device creates a hardware device at feature level 11_0 with BGRA
// support. There is no WARP fallback: desktop duplication needs a real adapter.
func NewD3D11Device() (*ID3D11Device, *ID3D11DeviceContext, error) {
	var device *ID3D11Device
	var deviceCtx *ID3D11DeviceContext
	featureLevel := uint32(D3D_FEATURE_LEVEL_11_0)

	if err := procD3D11CreateDevice.Find(); err != nil {
		return nil, nil, fmt.Errorf("d3d11.dll: %w", err)
	}
	ret, _, _ := syscall.SyscallN(
		procD3D11CreateDevice.Addr(),
		0, // pAdapter, default adapter
		D3D_DRIVER_TYPE_HARDWARE,
		0, // Software
		D3D11_CREATE_DEVICE_BGRA_SUPPORT,
		uintptr(unsafe.Pointer(&featureLevel)),
		1,
		D3D11_SDK_VERSION,
		uintptr(unsafe.Pointer(&device)),
		0, // pFeatureLevel
		uintptr(unsafe.Pointer(&deviceCtx)),
	)
	if err := hresult(ret); err != nil {
		return nil, nil, fmt.Errorf("D3D11CreateDevice: %w", err)
	}
	return device, deviceCtx, nil
}

func (obj *ID3D11Device) QueryInterface(iid *windows.GUID, pp unsafe.Pointer) error {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.QueryInterface,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(pp),
	)
	return hresult(ret)
}

// DXGIDevice returns the IDXGIDevice view of the device.
func (obj *ID3D11Device) DXGIDevice() (*IDXGIDevice, error) {
	var dxgiDevice *IDXGIDevice
	if err := obj.QueryInterface(&iid_IDXGIDevice, unsafe.Pointer(&dxgiDevice)); err != nil {
		return nil, err
	}
	return dxgiDevice, nil
}

func (obj *ID3D11Device) CreateTexture2D(desc *D3D11_TEXTURE2D_DESC) (*ID3D11Texture2D, error) {
	var tex *ID3D11Texture2D
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.CreateTexture2D,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(desc)),
		0, // pInitialData
		uintptr(unsafe.Pointer(&tex)),
	)
	if err := hresult(ret); err != nil {
		return nil, err
	}
	return tex, nil
}

func (obj *ID3D11Device) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}

// CopySubresourceRegion copies box from subresource 0 of src into
// subresource 0 of dst at (dstX, dstY).
func (obj *ID3D11DeviceContext) CopySubresourceRegion(dst *ID3D11Texture2D, dstX, dstY uint32, src *ID3D11Texture2D, box *D3D11_BOX) {
	syscall.SyscallN(
		obj.vtbl.CopySubresourceRegion,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(dst)),
		0, // DstSubresource
		uintptr(dstX),
		uintptr(dstY),
		0, // DstZ
		uintptr(unsafe.Pointer(src)),
		0, // SrcSubresource
		uintptr(unsafe.Pointer(box)),
	)
}

func (obj *ID3D11DeviceContext) Map(resource *ID3D11Texture2D, mapType uint32, mapped *D3D11_MAPPED_SUBRESOURCE) error {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Map,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(resource)),
		0, // Subresource
		uintptr(mapType),
		0, // MapFlags
		uintptr(unsafe.Pointer(mapped)),
	)
	return hresult(ret)
}

func (obj *ID3D11DeviceContext) Unmap(resource *ID3D11Texture2D) {
	syscall.SyscallN(
		obj.vtbl.Unmap,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(resource)),
		0, // Subresource
	)
}

func (obj *ID3D11DeviceContext) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}

func (obj *ID3D11Texture2D) GetDesc(desc *D3D11_TEXTURE2D_DESC) {
	syscall.SyscallN(
		obj.vtbl.GetDesc,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(desc)),
	)
}

func (obj *ID3D11Texture2D) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}
