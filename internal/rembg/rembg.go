// Package rembg separates a subject from its background by rewriting the
// alpha channel of the input image.
package rembg

import (
	"fmt"
	"image"

	"github.com/rs/zerolog/log"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/imgutil"
)

// Remover produces a matted copy of the input: subject pixels keep their
// alpha, background pixels become transparent. Implementations must not
// mutate the input and must be deterministic.
type Remover interface {
	Remove(img *image.NRGBA) (*image.NRGBA, error)
}

// FeatheredLuminance is a pure-Go keyer for subjects shot against a bright
// backdrop. Pixels brighter than Upper are treated as background, pixels
// darker than Lower are kept, and the band in between gets a feathered alpha
// to avoid hard matte edges. A central window of the image is protected from
// keying so a bright subject is not punched out.
type FeatheredLuminance struct {
	// Lower and Upper bound the luminance transition band, 0-255.
	Lower uint8
	Upper uint8

	// CenterProtect is the fraction (0.0-1.0) of the central area whose
	// pixels are never keyed out.
	CenterProtect float64
}

// Default returns the stock keyer used when no model-backed remover is
// configured.
func Default() Remover {
	return &FeatheredLuminance{Lower: 180, Upper: 240, CenterProtect: 0.35}
}

// Remove implements Remover.
func (r *FeatheredLuminance) Remove(img *image.NRGBA) (*image.NRGBA, error) {
	if r.Lower >= r.Upper {
		return nil, fmt.Errorf("lower threshold %d must be below upper threshold %d", r.Lower, r.Upper)
	}
	if r.CenterProtect < 0.0 || r.CenterProtect > 1.0 {
		return nil, fmt.Errorf("center protection ratio %f out of range [0,1]", r.CenterProtect)
	}

	img = imgutil.Canonical(img)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	copy(out.Pix, img.Pix)

	pw := int(float64(w) * r.CenterProtect)
	ph := int(float64(h) * r.CenterProtect)
	x0, y0 := (w-pw)/2, (h-ph)/2
	x1, y1 := x0+pw, y0+ph

	band := float64(r.Upper - r.Lower)
	keyed := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				continue
			}
			i := y*out.Stride + x*4
			lum := 0.299*float64(out.Pix[i]) + 0.587*float64(out.Pix[i+1]) + 0.114*float64(out.Pix[i+2])
			switch {
			case lum <= float64(r.Lower):
				// subject, keep as-is
			case lum >= float64(r.Upper):
				out.Pix[i+3] = 0
				keyed++
			default:
				fade := (lum - float64(r.Lower)) / band
				out.Pix[i+3] = uint8(float64(out.Pix[i+3]) * (1.0 - fade))
			}
		}
	}

	log.Debug().
		Int("width", w).
		Int("height", h).
		Int("keyed_pixels", keyed).
		Msg("Background removal complete")

	return out, nil
}
