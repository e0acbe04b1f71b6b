package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/kirides/windowcapture/capture"
	"github.com/kirides/windowcapture/win"
)

// Method names understood by the plugin.
const (
	MethodIsGpuCaptureSupported = "isGpuCaptureSupported"
	MethodIsCaptureSupported    = "isCaptureSupported"
	MethodCaptureWindow         = "captureWindow"
)

// CaptureMethod is reported in every capture result.
const CaptureMethod = "dxgi_gpu"

// Engine is the part of *capture.Engine the plugin drives.
type Engine interface {
	Initialize() error
	CaptureWindow(hwnd uintptr) (*capture.Result, error)
	Close() error
}

// Capturer captures on an engine it owns, like *stream.Worker.
type Capturer interface {
	Capture(ctx context.Context, hwnd uintptr) (*capture.Result, error)
}

// Plugin serves capture methods. Unless a Capturer is set, every
// captureWindow call runs on a fresh engine that is closed before the call
// returns.
type Plugin struct {
	newEngine   func() Engine
	capturer    Capturer
	supported   func() bool
	threadSetup func() error
	log         *slog.Logger
}

type PluginOption func(*Plugin)

func WithEngineFactory(f func() Engine) PluginOption {
	return func(p *Plugin) { p.newEngine = f }
}

// WithCapturer routes captureWindow through c. Use it when a long-lived
// engine already holds the output's duplication session.
func WithCapturer(c Capturer) PluginOption {
	return func(p *Plugin) { p.capturer = c }
}

func WithProbe(f func() bool) PluginOption {
	return func(p *Plugin) { p.supported = f }
}

// WithThreadSetup replaces the per-call thread preparation, which by
// default makes the locked OS thread per-monitor DPI aware.
func WithThreadSetup(f func() error) PluginOption {
	return func(p *Plugin) { p.threadSetup = f }
}

func WithPluginLogger(l *slog.Logger) PluginOption {
	return func(p *Plugin) { p.log = l }
}

func NewPlugin(opts ...PluginOption) *Plugin {
	p := &Plugin{
		supported:   capture.Supported,
		threadSetup: win.EnableDPIAwareness,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = slog.Default().With("component", "channel")
	}
	if p.newEngine == nil {
		log := p.log
		p.newEngine = func() Engine {
			return capture.New(capture.WithLogger(log.With("component", "capture")))
		}
	}
	return p
}

// Register binds the plugin's methods on d.
func (p *Plugin) Register(d *Dispatcher) {
	d.Register(MethodIsGpuCaptureSupported, p.isSupported)
	d.Register(MethodIsCaptureSupported, p.isSupported)
	d.Register(MethodCaptureWindow, p.captureWindow)
}

func (p *Plugin) isSupported(ctx context.Context, args map[string]any) (any, error) {
	return p.supported(), nil
}

func (p *Plugin) captureWindow(ctx context.Context, args map[string]any) (any, error) {
	if args == nil {
		return nil, &Error{Code: CodeInvalidArguments, Message: "arguments must be a map"}
	}
	raw, ok := args["hwnd"]
	if !ok {
		return nil, &Error{Code: CodeInvalidArguments, Message: "hwnd is required"}
	}
	hwnd, err := parseHandle(raw)
	if err != nil {
		return nil, &Error{Code: CodeInvalidArguments, Message: "hwnd must be an integer", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Code: CodeCaptureFailed, Message: "call cancelled", Err: err}
	}

	var res *capture.Result
	if p.capturer != nil {
		res, err = p.capturer.Capture(ctx, hwnd)
		if err != nil {
			if capture.KindOf(err) == capture.KindSetup {
				return nil, &Error{Code: CodeInitializationFailed, Message: "failed to initialize DXGI capture", Err: err}
			}
			return nil, &Error{Code: CodeCaptureFailed, Message: "failed to capture window with DXGI", Err: err}
		}
	} else {
		res, err = p.captureOnce(hwnd)
		if err != nil {
			return nil, err
		}
	}

	return map[string]any{
		"width":            res.Width,
		"height":           res.Height,
		"bytes":            res.Pix,
		"isGpuAccelerated": true,
		"isDirect":         true,
		"originalWidth":    res.Width,
		"originalHeight":   res.Height,
		"captureMethod":    CaptureMethod,
	}, nil
}

func (p *Plugin) captureOnce(hwnd uintptr) (*capture.Result, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := p.threadSetup(); err != nil {
		p.log.Debug("thread setup failed, window rectangles may be DPI scaled", "error", err)
	}

	engine := p.newEngine()
	defer engine.Close()

	if err := engine.Initialize(); err != nil {
		return nil, &Error{Code: CodeInitializationFailed, Message: "failed to initialize DXGI capture", Err: err}
	}
	res, err := engine.CaptureWindow(hwnd)
	if err != nil {
		return nil, &Error{Code: CodeCaptureFailed, Message: "failed to capture window with DXGI", Err: err}
	}
	return res, nil
}

// parseHandle accepts the integer shapes a handle arrives in after
// decoding: native ints, JSON numbers and whole float64 values.
func parseHandle(v any) (uintptr, error) {
	switch n := v.(type) {
	case int64:
		return uintptr(n), nil
	case int:
		return uintptr(n), nil
	case int32:
		return uintptr(n), nil
	case uint64:
		return uintptr(n), nil
	case uintptr:
		return n, nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return uintptr(int64(n)), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		return uintptr(i), nil
	case nil:
		return 0, fmt.Errorf("hwnd is null")
	}
	return 0, fmt.Errorf("unsupported hwnd type %T", v)
}
