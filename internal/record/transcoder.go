// Package record pipes captured frames into ffmpeg.
package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/kirides/windowcapture/capture"
	"github.com/kirides/windowcapture/internal/imaging"
	"github.com/kirides/windowcapture/internal/stream"
)

// Transcoder feeds raw RGBA frames of a fixed size to an ffmpeg process.
type Transcoder struct {
	cmd       *exec.Cmd
	in        io.WriteCloser
	frameSize int
}

// Args builds the ffmpeg command line for a raw RGBA input of the given
// size and rate, encoded with libx264 into outPath.
func Args(outPath string, width, height int, framerate float32) []string {
	return []string{
		"-y",
		"-vsync", "0",
		"-f", "rawvideo",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-pixel_format", "rgba",
		"-framerate", fmt.Sprintf("%f", framerate),
		"-i", "-",
		// libx264 needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-c:v", "libx264", "-preset", "ultrafast",
		"-crf", "26",
		"-tune", "zerolatency",
		"-pix_fmt", "yuv420p",
		outPath,
	}
}

func NewTranscoder(ffmpegPath, outPath string, width, height int, framerate float32) (*Transcoder, error) {
	cmd := exec.Command(ffmpegPath, Args(outPath, width, height, framerate)...)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", ffmpegPath, err)
	}
	return &Transcoder{cmd: cmd, in: in, frameSize: width * height * 4}, nil
}

// WriteFrame writes one packed RGBA frame.
func (t *Transcoder) WriteFrame(pix []byte) error {
	if len(pix) != t.frameSize {
		return fmt.Errorf("frame is %d bytes, want %d", len(pix), t.frameSize)
	}
	_, err := t.in.Write(pix)
	return err
}

// Close ends the input and waits for ffmpeg to finish the file.
func (t *Transcoder) Close() error {
	if err := t.in.Close(); err != nil {
		return err
	}
	return t.cmd.Wait()
}

// FrameWriter receives frames of a fixed size.
type FrameWriter interface {
	WriteFrame(pix []byte) error
	Close() error
}

// Capturer is satisfied by *stream.Worker.
type Capturer interface {
	Capture(ctx context.Context, hwnd uintptr) (*capture.Result, error)
}

// Options for Record.
type Options struct {
	FrameRate int
	Duration  time.Duration // 0 records until ctx is done
}

// Record captures hwnd at a fixed rate and writes every tick's frame. The
// writer is opened from the first captured frame's size; ticks without a
// new desktop frame repeat the previous one so the output keeps a constant
// rate. It returns the number of frames written.
func Record(ctx context.Context, c Capturer, hwnd uintptr, opts Options, open func(width, height int) (FrameWriter, error), log *slog.Logger) (int, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	limiter := stream.NewFrameLimiter(opts.FrameRate)
	defer limiter.Stop()

	var (
		out           FrameWriter
		width, height int
		last          []byte
		frames        int
	)
	defer func() {
		if out != nil {
			if err := out.Close(); err != nil {
				log.Warn("closing recording failed", "error", err)
			}
		}
	}()

	t1 := time.Now()
	perSecond := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			return frames, nil
		}
		if time.Since(t1) >= time.Second {
			log.Debug("recording", "fps", perSecond, "frames", frames)
			t1 = time.Now()
			perSecond = 0
		}

		res, err := c.Capture(ctx, hwnd)
		switch {
		case err == nil:
			last = res.Pix
			if out != nil && (res.Width != width || res.Height != height) {
				// the window was resized, keep the recording's size
				last = imaging.Scale(res.RGBA(), width, height).Pix
			}
		case errors.Is(err, capture.ErrNoFrame):
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return frames, nil
		default:
			return frames, err
		}
		if last == nil {
			continue
		}

		if out == nil {
			w, err := open(res.Width, res.Height)
			if err != nil {
				return frames, err
			}
			out, width, height = w, res.Width, res.Height
			log.Info("recording started", "width", res.Width, "height", res.Height, "fps", opts.FrameRate)
		}
		if err := out.WriteFrame(last); err != nil {
			return frames, fmt.Errorf("write frame %d: %w", frames, err)
		}
		frames++
		perSecond++
	}
}
