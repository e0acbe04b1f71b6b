package main

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"runtime"

	"github.com/kbinani/screenshot"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"github.com/kirides/windowcapture/internal/imaging"
	"github.com/kirides/windowcapture/win"
)

var (
	captureHwnd   string
	captureOut    string
	captureMethod string
	captureClip   bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture one window into a PNG or JPEG file",
	Example: `  windowcapture capture --hwnd 0x30512 --out notepad.png
  windowcapture capture --hwnd 197906 --out notepad.jpg --method gdi`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hwnd, err := parseHwnd(captureHwnd)
		if err != nil {
			return err
		}
		format, err := imaging.FormatFromPath(captureOut)
		if err != nil {
			return err
		}

		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := win.EnableDPIAwareness(); err != nil {
			logger().Debug("DPI awareness not enabled", "error", err)
		}

		var img image.Image
		switch captureMethod {
		case "dxgi":
			img, err = captureDXGI(hwnd)
		case "gdi":
			img, err = captureGDI(hwnd)
		default:
			return fmt.Errorf("unknown capture method %q (use dxgi or gdi)", captureMethod)
		}
		if err != nil {
			return err
		}
		img = imaging.Fit(img, cfg.MaxWidth, cfg.MaxHeight)

		f, err := os.Create(captureOut)
		if err != nil {
			return err
		}
		if err := imaging.Encode(f, img, format, cfg.JPEGQuality); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", format, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger().Info("saved capture", "file", captureOut, "method", captureMethod, "size", img.Bounds().Size())

		if captureClip {
			return copyToClipboard(img)
		}
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVar(&captureHwnd, "hwnd", "", "window handle, decimal or 0x-prefixed")
	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "capture.png", "output file (.png, .jpg)")
	captureCmd.Flags().StringVar(&captureMethod, "method", "dxgi", "capture method: dxgi or gdi")
	captureCmd.Flags().BoolVar(&captureClip, "clipboard", false, "also copy the image to the clipboard")
	captureCmd.MarkFlagRequired("hwnd")
}

func captureDXGI(hwnd uintptr) (image.Image, error) {
	engine := newEngine()
	defer engine.Close()
	if err := engine.Initialize(); err != nil {
		return nil, err
	}
	res, err := engine.CaptureWindow(hwnd)
	if err != nil {
		return nil, err
	}
	return res.RGBA(), nil
}

// captureGDI copies the window's screen area with BitBlt. It works where
// duplication is unavailable, e.g. over RDP.
func captureGDI(hwnd uintptr) (image.Image, error) {
	rect, err := win.WindowRect(hwnd)
	if err != nil {
		return nil, fmt.Errorf("window 0x%x: %w", hwnd, err)
	}
	return screenshot.CaptureRect(rect)
}

func copyToClipboard(img image.Image) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, 0); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	logger().Info("copied capture to clipboard", "bytes", buf.Len())
	return nil
}
