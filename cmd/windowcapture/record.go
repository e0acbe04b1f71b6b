package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirides/windowcapture/internal/logging"
	"github.com/kirides/windowcapture/internal/record"
	"github.com/kirides/windowcapture/internal/stream"
	"github.com/kirides/windowcapture/win"
)

var (
	recordHwnd     string
	recordOut      string
	recordDuration time.Duration
)

var recordCmd = &cobra.Command{
	Use:     "record",
	Short:   "Record a window to a video file with ffmpeg",
	Example: `  windowcapture record --hwnd 0x30512 --out notepad.mp4 --duration 10s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hwnd, err := parseHwnd(recordHwnd)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		workerCtx, stopWorker := context.WithCancel(ctx)
		defer stopWorker()
		worker := stream.NewWorker(func() stream.Engine { return newEngine() }, win.EnableDPIAwareness, logging.L("worker"))
		go worker.Run(workerCtx)

		open := func(width, height int) (record.FrameWriter, error) {
			t, err := record.NewTranscoder(cfg.FFmpegPath, recordOut, width, height, float32(cfg.FrameRate))
			if err != nil {
				return nil, err
			}
			return t, nil
		}
		frames, err := record.Record(ctx, worker, hwnd, record.Options{
			FrameRate: cfg.FrameRate,
			Duration:  recordDuration,
		}, open, logging.L("record"))
		logger().Info("recording finished", "file", recordOut, "frames", frames)
		return err
	},
}

func init() {
	recordCmd.Flags().StringVar(&recordHwnd, "hwnd", "", "window handle, decimal or 0x-prefixed")
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "capture.mp4", "output video file")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "stop after this long (0 = until interrupted)")
	recordCmd.MarkFlagRequired("hwnd")
}
