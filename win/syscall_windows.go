package win

//go:generate mkwinsyscall -output zsyscall_windows.go syscall_windows.go

const DpiAwarenessContextPerMonitorAwareV2 = -4

//sys	enumWindows(enumFunc uintptr, lParam uintptr) (err error) = user32.EnumWindows
//sys	getWindowText(hwnd uintptr, str *uint16, maxCount int32) (n int32, err error) = user32.GetWindowTextW
//sys	isWindow(hwnd uintptr) (ok bool) = user32.IsWindow

// Both DPI procs are missing before Windows 10 1607; check with
// procIsValidDpiAwarenessContext.Find before calling.

//sys	SetThreadDpiAwarenessContext(value int32) (prev uintptr, err error) = user32.SetThreadDpiAwarenessContext
//sys	IsValidDpiAwarenessContext(value int32) (ok bool) = user32.IsValidDpiAwarenessContext
