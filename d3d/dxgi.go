//go:build windows

package d3d

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

type IDXGIDevice struct {
	vtbl *iDXGIDeviceVtbl
}

func (obj *IDXGIDevice) GetAdapter() (*IDXGIAdapter, error) {
	var adapter *IDXGIAdapter
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.GetAdapter,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(&adapter)),
	)
	if err := hresult(ret); err != nil {
		return nil, err
	}
	return adapter, nil
}

func (obj *IDXGIDevice) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}

type IDXGIAdapter struct {
	vtbl *iDXGIAdapterVtbl
}

// EnumOutputs returns DXGI_ERROR_NOT_FOUND when output is past the last one.
func (obj *IDXGIAdapter) EnumOutputs(output uint32) (*IDXGIOutput, error) {
	var out *IDXGIOutput
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.EnumOutputs,
		uintptr(unsafe.Pointer(obj)),
		uintptr(output),
		uintptr(unsafe.Pointer(&out)),
	)
	if err := hresult(ret); err != nil {
		return nil, err
	}
	return out, nil
}

func (obj *IDXGIAdapter) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}

type IDXGIOutput struct {
	vtbl *iDXGIOutputVtbl
}

func (obj *IDXGIOutput) QueryInterface(iid *windows.GUID, pp unsafe.Pointer) error {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.QueryInterface,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(pp),
	)
	return hresult(ret)
}

func (obj *IDXGIOutput) GetDesc(desc *DXGI_OUTPUT_DESC) error {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.GetDesc,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(desc)),
	)
	return hresult(ret)
}

// Output1 returns the IDXGIOutput1 view, which carries DuplicateOutput.
func (obj *IDXGIOutput) Output1() (*IDXGIOutput1, error) {
	var output1 *IDXGIOutput1
	if err := obj.QueryInterface(&iid_IDXGIOutput1, unsafe.Pointer(&output1)); err != nil {
		return nil, err
	}
	return output1, nil
}

func (obj *IDXGIOutput) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}

type IDXGIOutput1 struct {
	vtbl *iDXGIOutput1Vtbl
}

func (obj *IDXGIOutput1) DuplicateOutput(device *ID3D11Device) (*IDXGIOutputDuplication, error) {
	var dup *IDXGIOutputDuplication
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.DuplicateOutput,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(device)),
		uintptr(unsafe.Pointer(&dup)),
	)
	if err := hresult(ret); err != nil {
		return nil, err
	}
	return dup, nil
}

func (obj *IDXGIOutput1) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}

type IDXGIResource struct {
	vtbl *iDXGIResourceVtbl
}

func (obj *IDXGIResource) QueryInterface(iid *windows.GUID, pp unsafe.Pointer) error {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.QueryInterface,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(pp),
	)
	return hresult(ret)
}

func (obj *IDXGIResource) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}

type IDXGIOutputDuplication struct {
	vtbl *iDXGIOutputDuplicationVtbl
}

func (obj *IDXGIOutputDuplication) AcquireNextFrame(timeoutMs uint32, pFrameInfo *DXGI_OUTDUPL_FRAME_INFO, ppDesktopResource **IDXGIResource) error {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.AcquireNextFrame,    // function address
		uintptr(unsafe.Pointer(obj)), // always pass the COM object address first
		uintptr(timeoutMs),           // then all function parameters follow
		uintptr(unsafe.Pointer(pFrameInfo)),
		uintptr(unsafe.Pointer(ppDesktopResource)),
	)
	return hresult(ret)
}

func (obj *IDXGIOutputDuplication) ReleaseFrame() error {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.ReleaseFrame,
		uintptr(unsafe.Pointer(obj)),
	)
	return hresult(ret)
}

func (obj *IDXGIOutputDuplication) Release() int32 {
	ret, _, _ := syscall.SyscallN(
		obj.vtbl.Release,
		uintptr(unsafe.Pointer(obj)),
	)
	return int32(ret)
}
