// Package stream runs continuous window captures: a Worker that owns the
// capture engine on a single OS thread, and an MJPEG Hub built on it.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/kirides/windowcapture/capture"
)

var ErrWorkerStopped = errors.New("capture worker stopped")

// Engine is the part of *capture.Engine the worker drives.
type Engine interface {
	Initialize() error
	CaptureWindow(hwnd uintptr) (*capture.Result, error)
	Fits(hwnd uintptr) bool
	Close() error
}

type job struct {
	hwnd  uintptr
	probe bool
	reply chan jobResult
}

type jobResult struct {
	res *capture.Result
	err error
}

// Worker serializes captures onto one locked OS thread and keeps the
// engine alive between them. The duplication session and staging texture
// are shared by every window of the staging texture's size.
type Worker struct {
	newEngine   func() Engine
	threadSetup func() error
	log         *slog.Logger

	jobs chan job
	done chan struct{}
}

// NewWorker creates a worker. threadSetup, if not nil, runs once on the
// worker thread before the first engine is created.
func NewWorker(newEngine func() Engine, threadSetup func() error, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		newEngine:   newEngine,
		threadSetup: threadSetup,
		log:         log,
		jobs:        make(chan job),
		done:        make(chan struct{}),
	}
}

// Run serves Capture calls until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	if w.threadSetup != nil {
		if err := w.threadSetup(); err != nil {
			w.log.Debug("thread setup failed", "error", err)
		}
	}

	var engine Engine
	closeEngine := func() {
		if engine != nil {
			engine.Close()
			engine = nil
		}
	}
	defer closeEngine()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.jobs:
			if j.probe {
				j.reply <- jobResult{err: w.probe(engine)}
				continue
			}
			// the staging texture keeps the first window's size
			if engine != nil && !engine.Fits(j.hwnd) {
				w.log.Debug("window size changed, recreating engine", "hwnd", j.hwnd)
				closeEngine()
			}
			if engine == nil {
				e := w.newEngine()
				if err := e.Initialize(); err != nil {
					e.Close()
					j.reply <- jobResult{err: err}
					continue
				}
				engine = e
			}

			res, err := engine.CaptureWindow(j.hwnd)
			if err != nil && capture.KindOf(err) == capture.KindFrame && !errors.Is(err, capture.ErrNoFrame) {
				// usually DXGI_ERROR_ACCESS_LOST after a mode change
				w.log.Warn("desktop duplication lost, reinitializing", "error", err)
				closeEngine()
			}
			j.reply <- jobResult{res: res, err: err}
		}
	}
}

// probe reports whether a session can be opened. A held session counts,
// a second one on the same output would be refused.
func (w *Worker) probe(engine Engine) error {
	if engine != nil {
		return nil
	}
	e := w.newEngine()
	defer e.Close()
	return e.Initialize()
}

// Supported reports whether the worker can capture, checked on its own
// thread.
func (w *Worker) Supported(ctx context.Context) bool {
	_, err := w.do(ctx, job{probe: true, reply: make(chan jobResult, 1)})
	return err == nil
}

// Capture asks the worker for one capture of hwnd.
func (w *Worker) Capture(ctx context.Context, hwnd uintptr) (*capture.Result, error) {
	return w.do(ctx, job{hwnd: hwnd, reply: make(chan jobResult, 1)})
}

func (w *Worker) do(ctx context.Context, j job) (*capture.Result, error) {
	select {
	case w.jobs <- j:
	case <-w.done:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-j.reply:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
