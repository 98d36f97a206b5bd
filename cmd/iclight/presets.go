package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the background source presets",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Println("FC background sources:")
		for _, p := range args.FCPresets() {
			kind := "synthesized"
			if !p.Synthesizable() {
				kind = "user-supplied"
			}
			fmt.Printf("  %-16s %s\n", p, kind)
		}
		fmt.Println("FBC background sources:")
		fmt.Printf("  %s\n  %s\n", args.BGSourceFBCUpload, args.BGSourceFBCUploadFlip)
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
