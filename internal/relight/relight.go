// Package relight rewrites a run's generation inputs to reflect the
// requested lighting configuration. The diffusion math itself lives behind
// the host's sampler; this package only prepares its conditioning.
package relight

import (
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/host"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/imgutil"
)

// ErrMissingBackground signals an FBC request without an uploaded background.
var ErrMissingBackground = errors.New("FBC conditioning requires an uploaded background image")

// Apply deterministically rewrites rc's conditioning from req and appends the
// background composite to the run's auxiliary images. Re-applying the same
// request to the same context is a no-op, which makes per-pass re-invocation
// safe for multi-pass runs.
func Apply(rc *host.RunContext, req *args.Request) error {
	if rc.Conditioning != nil && rc.Conditioning.Request == req {
		log.Debug().Stringer("run", rc.ID).Msg("Relight conditioning already applied; skipping")
		return nil
	}

	subject, err := req.FgRGB()
	if err != nil {
		return fmt.Errorf("failed to prepare subject: %w", err)
	}
	subject, err = imgutil.Resize(subject, rc.Width, rc.Height)
	if err != nil {
		return fmt.Errorf("failed to resize subject: %w", err)
	}

	background, err := backgroundFor(rc, req)
	if err != nil {
		return err
	}

	rc.Conditioning = &host.Conditioning{
		ModelType:  req.ModelType,
		Subject:    subject,
		Background: background,
		Request:    req,
	}

	if background != nil {
		rc.ExtraResultImages = append(rc.ExtraResultImages, background)
	}

	log.Debug().
		Stringer("run", rc.ID).
		Stringer("model_type", req.ModelType).
		Bool("has_background", background != nil).
		Msg("Relight conditioning applied")

	return nil
}

// backgroundFor resolves the conditioning background for the request, resized
// to the run dimensions. FC mode with the None source conditions on the
// subject alone and yields no background.
func backgroundFor(rc *host.RunContext, req *args.Request) (*image.NRGBA, error) {
	switch req.ModelType {
	case args.FBC:
		if req.UploadedBg == nil {
			return nil, ErrMissingBackground
		}
		bg := req.UploadedBg
		if req.BgSourceFBC == args.BGSourceFBCUploadFlip {
			bg = imgutil.FlipHorizontal(bg)
		}
		return imgutil.Resize(bg, rc.Width, rc.Height)
	case args.FC:
		if !req.BgSourceFC.Synthesizable() {
			return nil, nil
		}
		return req.BgSourceFC.Background(rc.Width, rc.Height)
	default:
		return nil, fmt.Errorf("unknown model type %q", req.ModelType)
	}
}
