package main

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/backend"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/cli"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/config"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/host"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/imgutil"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/logging"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/pipeline"
)

var (
	fgFlag          string
	bgFlag          string
	initFlag        string
	modeFlag        string
	bgSourceFlag    string
	flipBgFlag      bool
	img2imgFlag     bool
	hiresFlag       bool
	widthFlag       int
	heightFlag      int
	removeBgFlag    bool
	reinforceFgFlag bool
	detailFlag      bool
	rawInputFlag    bool
	radiusFlag      int
	outFlag         string
)

var relightCmd = &cobra.Command{
	Use:   "relight",
	Short: "Run one relighting request through the full backend lifecycle",
	Long: `relight builds a request from the given images and options, routes it through
the backend dispatcher exactly as the diffusion host would, and writes every
output image (primaries, detail-restored variants, background composites).

A preview sampler stands in for the diffusion model: each pass yields the
composited conditioning, which is what you want for checking a setup before
spending GPU time on it.`,
	Run: runRelight,
}

func init() {
	relightCmd.Flags().StringVarP(&fgFlag, "foreground", "f", "", "Foreground subject image (required)")
	relightCmd.Flags().StringVarP(&bgFlag, "background", "b", "", "Background image (FBC mode)")
	relightCmd.Flags().StringVar(&initFlag, "init", "", "Init image for img2img runs")
	relightCmd.Flags().StringVar(&modeFlag, "mode", "FC", "Model type: FC or FBC")
	relightCmd.Flags().StringVar(&bgSourceFlag, "bg-source", string(args.BGSourceFCNone), "FC background source preset")
	relightCmd.Flags().BoolVar(&flipBgFlag, "flip-bg", false, "Mirror the uploaded background (FBC mode)")
	relightCmd.Flags().BoolVar(&img2imgFlag, "img2img", false, "Run in img2img context")
	relightCmd.Flags().BoolVar(&hiresFlag, "hires", false, "Two-pass run (base + high resolution)")
	relightCmd.Flags().IntVar(&widthFlag, "width", 512, "Target width")
	relightCmd.Flags().IntVar(&heightFlag, "height", 512, "Target height")
	relightCmd.Flags().BoolVar(&removeBgFlag, "remove-bg", true, "Matte the subject before conditioning")
	relightCmd.Flags().BoolVar(&reinforceFgFlag, "reinforce-fg", false, "Preserve the subject's base color (img2img)")
	relightCmd.Flags().BoolVar(&detailFlag, "detail-transfer", false, "Restore fine detail after generation")
	relightCmd.Flags().BoolVar(&rawInputFlag, "use-raw-input", false, "Source detail from the raw upload instead of the matted subject")
	relightCmd.Flags().IntVar(&radiusFlag, "radius", 5, "Detail transfer blur radius (odd, 1-9)")
	relightCmd.Flags().StringVarP(&outFlag, "out", "o", "relight", "Output path prefix")
	_ = relightCmd.MarkFlagRequired("foreground")
	rootCmd.AddCommand(relightCmd)
}

func runRelight(cmd *cobra.Command, _ []string) {
	logging.Init()
	cfg := config.Load()

	inputFg, err := imgutil.LoadSubject(cli.ValidateFile(fgFlag))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load foreground")
	}

	var uploadedBg *image.NRGBA
	if bgFlag != "" {
		if uploadedBg, err = imgutil.Load(bgFlag); err != nil {
			log.Fatal().Err(err).Msg("Failed to load background")
		}
	}

	fbcSource := args.BGSourceFBCUpload
	if flipBgFlag {
		fbcSource = args.BGSourceFBCUploadFlip
	}

	rc := host.NewRunContext(host.Txt2Img, widthFlag, heightFlag)
	if img2imgFlag {
		rc.Mode = host.Img2Img
	}
	rc.HiresFix = hiresFlag
	if initFlag != "" {
		if rc.InitImage, err = imgutil.Load(initFlag); err != nil {
			log.Fatal().Err(err).Msg("Failed to load init image")
		}
	}
	rc.RawArgs = []any{
		true,
		modeFlag,
		inputFg,
		imageOrNil(uploadedBg),
		bgSourceFlag,
		string(fbcSource),
		removeBgFlag,
		reinforceFgFlag,
		detailFlag,
		rawInputFlag,
		radiusFlag,
	}

	strategy := backend.Select(host.Capabilities{PerSamplingPassHook: cfg.PerSamplingPassHook})
	p := pipeline.New(backend.NewDispatcher(strategy), host.SamplerFunc(previewSample))

	logging.NewStartupLogger("iclight").
		Backend(strategy.Name()).
		Feature("detailTransfer", detailFlag).
		Config("modelDir", cfg.ModelDir).
		Log()

	result, err := p.Run(context.Background(), rc)
	if err != nil {
		log.Fatal().Err(err).Msg("Run failed")
	}

	for i, img := range result.Images {
		path := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s-%02d.png", outFlag, i))
		if err := imgutil.Save(path, img); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output")
		}
		log.Info().Str("path", path).Msg("Output written")
	}
}

// imageOrNil keeps a typed nil out of the raw value sequence.
func imageOrNil(img *image.NRGBA) any {
	if img == nil {
		return nil
	}
	return img
}

// previewSample stands in for the diffusion model: it renders the current
// conditioning (subject mixed with its lighting background) so runs can be
// inspected end to end without a sampler.
func previewSample(_ context.Context, rc *host.RunContext, pass int) (*image.NRGBA, error) {
	cond := rc.Conditioning
	if cond == nil {
		if rc.InitImage != nil {
			return imgutil.Clone(rc.InitImage), nil
		}
		return image.NewNRGBA(image.Rect(0, 0, rc.Width, rc.Height)), nil
	}
	if cond.Background == nil {
		return imgutil.Clone(cond.Subject), nil
	}
	preview, err := imgutil.BlendMasked(cond.Background, cond.Subject, cond.Subject, 128)
	if err != nil {
		return nil, fmt.Errorf("preview pass %d failed: %w", pass, err)
	}
	return preview, nil
}
