package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kirides/windowcapture/capture"
	"github.com/kirides/windowcapture/internal/config"
	"github.com/kirides/windowcapture/internal/logging"
)

var (
	version  = "0.1.0"
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "windowcapture",
	Short: "Capture single windows through DXGI desktop duplication",
	Long: `windowcapture grabs the pixels of one window from the GPU desktop duplication
stream of the primary display. It can save single captures, stream a window
as MJPEG, record it with ffmpeg, or serve capture calls over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		logging.Init(c.LogFormat, c.LogLevel, os.Stderr)
		c.Validate()
		cfg = c
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("windowcapture v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is windowcapture.yaml in the user config dir or .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseHwnd accepts decimal or 0x-prefixed window handles.
func parseHwnd(s string) (uintptr, error) {
	if s == "" {
		return 0, fmt.Errorf("window handle is required")
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window handle %q: %w", s, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("invalid window handle %q", s)
	}
	return uintptr(v), nil
}

func logger() *slog.Logger {
	return logging.L("cli")
}

func newEngine() *capture.Engine {
	return capture.New(capture.WithLogger(logging.L("capture")))
}
