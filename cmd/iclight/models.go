package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/cli"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/config"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/logging"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/models"
)

var modelDirFlag string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List detected IC-Light checkpoints",
	Run: func(cmd *cobra.Command, _ []string) {
		logging.Init()
		dir := modelDirFlag
		if dir == "" {
			dir = config.Load().ModelDir
		}
		dir = cli.ValidateAndResolveDirectory(dir)

		reg, err := models.Detect(dir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("Model detection failed")
		}

		available := reg.Available()
		if len(available) == 0 {
			fmt.Printf("no IC-Light checkpoints found in %s\n", dir)
			return
		}
		for _, mt := range available {
			path, _ := reg.Path(mt)
			fmt.Printf("%-4s %s\n", mt, path)
		}
	},
}

func init() {
	modelsCmd.Flags().StringVarP(&modelDirFlag, "dir", "d", "", "Checkpoint directory (default from ICLIGHT_MODEL_DIR)")
	rootCmd.AddCommand(modelsCmd)
}
