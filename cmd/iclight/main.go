package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "iclight",
	Short: "IC-Light relighting toolkit",
	Long: `iclight drives the relighting request lifecycle outside a diffusion host:
build a request from raw values, run it through the backend dispatcher with a
preview sampler, and write the composited inputs and detail-restored outputs.

Examples:
  iclight relight -f subject.png --bg-source "Left Light" -o out
  iclight relight -f subject.png -b beach.png --mode FBC --flip-bg -o out
  iclight detail --generated result.png --reference subject.png --radius 5 -o detailed.png
  iclight presets
  iclight models -d ./models/ic-light`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
