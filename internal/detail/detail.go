// Package detail reinstates fine surface texture lost during relighting.
//
// RestoreDetail is a difference-of-Gaussians transfer: the generated image
// contributes the low frequencies (overall lighting and color), the reference
// contributes the high frequencies (texture). Everything here is pure,
// deterministic, and safe to run concurrently across images.
package detail

import (
	"errors"
	"fmt"
	"image"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/imgutil"
)

// ErrBlurRadius signals a blur radius outside the supported odd range [1,9].
var ErrBlurRadius = errors.New("blur radius must be an odd integer in [1,9]")

// ValidateBlurRadius checks the difference-of-Gaussians kernel size.
func ValidateBlurRadius(radius int) error {
	if radius < 1 || radius > 9 || radius%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrBlurRadius, radius)
	}
	return nil
}

// RestoreDetail transfers fine texture from reference onto generated.
// The reference is resampled to the generated image's dimensions first.
// Larger radii trade texture fidelity for less noise transfer. The result is
// a new image; neither input is mutated. When reference and generated are the
// same image the blur terms cancel and the output equals the input exactly.
func RestoreDetail(generated, reference *image.NRGBA, blurRadius int) (*image.NRGBA, error) {
	if err := ValidateBlurRadius(blurRadius); err != nil {
		return nil, err
	}
	if generated == nil || reference == nil {
		return nil, fmt.Errorf("nil image passed to detail restoration")
	}
	gb := generated.Bounds()
	if gb.Dx() == 0 || gb.Dy() == 0 {
		return nil, fmt.Errorf("empty generated image %dx%d", gb.Dx(), gb.Dy())
	}
	rb := reference.Bounds()
	if rb.Dx() == 0 || rb.Dy() == 0 {
		return nil, fmt.Errorf("empty reference image %dx%d", rb.Dx(), rb.Dy())
	}

	// The pixel loops below assume a zero origin; SubImage views are re-based.
	generated = imgutil.Canonical(generated)
	ref, err := imgutil.Resize(reference, gb.Dx(), gb.Dy())
	if err != nil {
		return nil, fmt.Errorf("failed to match reference dimensions: %w", err)
	}

	genBlur := gaussianBlur(generated, blurRadius)
	refBlur := gaussianBlur(ref, blurRadius)

	w, h := gb.Dx(), gb.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gi := y*generated.Stride + x*4
			ri := y*ref.Stride + x*4
			bi := y*genBlur.Stride + x*4
			oi := y*out.Stride + x*4
			for c := 0; c < 3; c++ {
				// low freq of generated + high freq of reference
				v := int(genBlur.Pix[bi+c]) + int(ref.Pix[ri+c]) - int(refBlur.Pix[bi+c])
				out.Pix[oi+c] = clampByte(v)
			}
			out.Pix[oi+3] = generated.Pix[gi+3]
		}
	}
	return out, nil
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
