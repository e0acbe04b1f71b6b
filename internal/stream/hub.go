package stream

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mattn/go-mjpeg"

	"github.com/kirides/windowcapture/capture"
	"github.com/kirides/windowcapture/internal/imaging"
)

// Options control frame pacing and encoding of MJPEG streams.
type Options struct {
	FrameRate   int
	JPEGQuality int
	MaxWidth    int
	MaxHeight   int
}

// Hub lazily starts one MJPEG stream per window handle. Streams run until
// the hub's context is done.
type Hub struct {
	ctx    context.Context
	worker *Worker
	opts   Options
	log    *slog.Logger

	mu      sync.Mutex
	streams map[uintptr]*mjpeg.Stream
	wg      sync.WaitGroup
}

func NewHub(ctx context.Context, worker *Worker, opts Options, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		ctx:     ctx,
		worker:  worker,
		opts:    opts,
		log:     log,
		streams: make(map[uintptr]*mjpeg.Stream),
	}
}

// Stream returns the stream for hwnd, starting its capture loop on first use.
func (h *Hub) Stream(hwnd uintptr) *mjpeg.Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.streams[hwnd]; ok {
		return s
	}
	s := mjpeg.NewStream()
	h.streams[hwnd] = s
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.pump(hwnd, s)
	}()
	h.log.Info("started window stream", "hwnd", hwnd)
	return s
}

func (h *Hub) pump(hwnd uintptr, s *mjpeg.Stream) {
	limiter := NewFrameLimiter(h.opts.FrameRate)
	defer limiter.Stop()

	buf := &bytes.Buffer{}
	var lastErr string
	for {
		if err := limiter.Wait(h.ctx); err != nil {
			return
		}
		res, err := h.worker.Capture(h.ctx, hwnd)
		if err != nil {
			if errors.Is(err, capture.ErrNoFrame) {
				// desktop unchanged, keep the last frame
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrWorkerStopped) {
				return
			}
			if msg := err.Error(); msg != lastErr {
				h.log.Warn("window capture failed", "hwnd", hwnd, "error", err)
				lastErr = msg
			}
			continue
		}
		lastErr = ""

		img := imaging.Fit(res.RGBA(), h.opts.MaxWidth, h.opts.MaxHeight)
		buf.Reset()
		if err := imaging.EncodeJPEG(buf, img, h.opts.JPEGQuality); err != nil {
			h.log.Warn("jpeg encode failed", "hwnd", hwnd, "error", err)
			continue
		}
		// the stream hands the slice to every viewer
		s.Update(bytes.Clone(buf.Bytes()))
	}
}

// Close stops every stream and waits for the capture loops to exit. The
// hub's context must be done before calling Close.
func (h *Hub) Close() {
	h.mu.Lock()
	for hwnd, s := range h.streams {
		s.Close()
		delete(h.streams, hwnd)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
