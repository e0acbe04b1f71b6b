package main

import (
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirides/windowcapture/win"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List visible top-level windows and their handles",
	RunE: func(cmd *cobra.Command, args []string) error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		// physical pixels, matching what capture sees
		if err := win.EnableDPIAwareness(); err != nil {
			logger().Debug("DPI awareness not enabled", "error", err)
		}
		windows, err := win.VisibleWindows()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "HWND\tRECT\tTITLE")
		for _, w := range windows {
			fmt.Fprintf(tw, "0x%x\t%v\t%s\n", w.Handle, w.Rect, w.Title)
		}
		return tw.Flush()
	},
}
