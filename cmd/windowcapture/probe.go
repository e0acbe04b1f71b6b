package main

import (
	"fmt"

	"github.com/kbinani/screenshot"
	"github.com/spf13/cobra"

	"github.com/kirides/windowcapture/capture"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report whether GPU window capture works on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		supported := capture.Supported()
		fmt.Printf("desktop duplication supported: %v\n", supported)

		n := screenshot.NumActiveDisplays()
		for i := 0; i < n; i++ {
			marker := ""
			if i == 0 {
				marker = " (duplicated)"
			}
			fmt.Printf("display %d: %v%s\n", i, screenshot.GetDisplayBounds(i), marker)
		}
		if !supported {
			return fmt.Errorf("GPU capture is not available")
		}
		return nil
	},
}
