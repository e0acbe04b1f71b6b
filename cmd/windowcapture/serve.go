package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirides/windowcapture/channel"
	"github.com/kirides/windowcapture/internal/logging"
	"github.com/kirides/windowcapture/internal/stream"
	"github.com/kirides/windowcapture/win"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve capture calls and live MJPEG window streams over HTTP",
	Long: `Serves:
  POST /rpc             {"method": "captureWindow", "arguments": {"hwnd": 197906}}
  GET  /watch?hwnd=N    page showing the window stream
  GET  /mjpeg?hwnd=N    MJPEG stream of the window`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "", "listen address (overrides listen_addr)")
}

var watchPage = template.Must(template.New("watch").Parse(`<!DOCTYPE html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Window {{printf "0x%x" .}}</title>
</head>
<body style="margin:0">
	<img src="/mjpeg?hwnd={{.}}" style="max-width: 100vw; max-height: 100vh;object-fit: contain;display: block;margin: 0 auto;" />
</body>`))

func serve(ctx context.Context, addr string) error {
	log := logging.L("serve")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker := stream.NewWorker(func() stream.Engine { return newEngine() }, win.EnableDPIAwareness, logging.L("worker"))
	go worker.Run(ctx)

	// rpc calls share the worker's duplication session with the streams
	dispatcher := channel.NewDispatcher(logging.L("channel"))
	channel.NewPlugin(
		channel.WithCapturer(worker),
		channel.WithProbe(func() bool { return worker.Supported(ctx) }),
		channel.WithPluginLogger(logging.L("channel")),
	).Register(dispatcher)
	hub := stream.NewHub(ctx, worker, stream.Options{
		FrameRate:   cfg.FrameRate,
		JPEGQuality: cfg.JPEGQuality,
		MaxWidth:    cfg.MaxWidth,
		MaxHeight:   cfg.MaxHeight,
	}, logging.L("stream"))
	defer func() {
		cancel()
		hub.Close()
	}()

	mux := http.NewServeMux()
	mux.Handle("/rpc", channel.HTTPHandler(dispatcher))
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		hwnd, err := parseHwnd(r.URL.Query().Get("hwnd"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		watchPage.Execute(w, uint64(hwnd))
	})
	mux.HandleFunc("/mjpeg", func(w http.ResponseWriter, r *http.Request) {
		hwnd, err := parseHwnd(r.URL.Query().Get("hwnd"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hub.Stream(hwnd).ServeHTTP(w, r)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "methods", dispatcher.Methods())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	// mjpeg responses only end when their stream closes
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
