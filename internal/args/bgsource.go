package args

import (
	"fmt"
	"image"
)

// BGSourceFC names the lighting presets available in FC mode. The set is
// closed: presets differ by UI context (txt2img offers None, img2img offers
// the directional presets plus Custom LightMap) and are never user-extensible.
type BGSourceFC string

const (
	BGSourceFCNone    BGSourceFC = "None"
	BGSourceFCCustom  BGSourceFC = "Custom LightMap"
	BGSourceFCLeft    BGSourceFC = "Left Light"
	BGSourceFCRight   BGSourceFC = "Right Light"
	BGSourceFCTop     BGSourceFC = "Top Light"
	BGSourceFCBottom  BGSourceFC = "Bottom Light"
	BGSourceFCAmbient BGSourceFC = "Ambient"
)

// Gradient endpoints for the directional presets and the ambient level.
const (
	gradientBright = 224
	gradientDark   = 32
	ambientLevel   = 132
)

// FCPresets lists every FC background source.
func FCPresets() []BGSourceFC {
	return []BGSourceFC{
		BGSourceFCNone, BGSourceFCCustom,
		BGSourceFCLeft, BGSourceFCRight, BGSourceFCTop, BGSourceFCBottom,
		BGSourceFCAmbient,
	}
}

// ParseBGSourceFC maps a raw UI value onto the closed preset set.
func ParseBGSourceFC(raw string) (BGSourceFC, error) {
	for _, p := range FCPresets() {
		if BGSourceFC(raw) == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown FC background source %q", raw)
}

// Synthesizable reports whether the preset resolves to a generated image.
// None means "no lighting direction" and Custom means the user supplies the
// lightmap themselves; neither is synthesized.
func (s BGSourceFC) Synthesizable() bool {
	return s != BGSourceFCNone && s != BGSourceFCCustom
}

// Background synthesizes the preset's lighting backdrop at the given
// dimensions: a linear bright-to-dark gradient along the lit axis, or a flat
// ambient level. Integer ramp math keeps repeated calls byte-identical.
func (s BGSourceFC) Background(width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid background dimensions %dx%d", width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	switch s {
	case BGSourceFCLeft:
		fillGradient(img, width, height, true, false)
	case BGSourceFCRight:
		fillGradient(img, width, height, true, true)
	case BGSourceFCTop:
		fillGradient(img, width, height, false, false)
	case BGSourceFCBottom:
		fillGradient(img, width, height, false, true)
	case BGSourceFCAmbient:
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = ambientLevel, ambientLevel, ambientLevel, 255
		}
	default:
		return nil, fmt.Errorf("background source %q does not synthesize an image", s)
	}
	return img, nil
}

// fillGradient paints a bright-to-dark ramp. horizontal selects the axis;
// reverse runs dark-to-bright instead.
func fillGradient(img *image.NRGBA, width, height int, horizontal, reverse bool) {
	span := width
	if !horizontal {
		span = height
	}
	ramp := make([]uint8, span)
	for i := range ramp {
		t := 0.0
		if span > 1 {
			t = float64(i) / float64(span-1)
		}
		if reverse {
			t = 1.0 - t
		}
		ramp[i] = uint8(gradientBright - int(t*float64(gradientBright-gradientDark)+0.5))
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := ramp[x]
			if !horizontal {
				v = ramp[y]
			}
			i := y*img.Stride + x*4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
		}
	}
}

// BGSourceFBC selects how the uploaded background is used in FBC mode.
type BGSourceFBC string

const (
	BGSourceFBCUpload     BGSourceFBC = "Background Image"
	BGSourceFBCUploadFlip BGSourceFBC = "Flipped Background Image"
)

// ParseBGSourceFBC maps a raw UI value onto the closed FBC source set.
func ParseBGSourceFBC(raw string) (BGSourceFBC, error) {
	switch BGSourceFBC(raw) {
	case BGSourceFBCUpload:
		return BGSourceFBCUpload, nil
	case BGSourceFBCUploadFlip:
		return BGSourceFBCUploadFlip, nil
	default:
		return "", fmt.Errorf("unknown FBC background source %q", raw)
	}
}
