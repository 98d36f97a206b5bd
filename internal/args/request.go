package args

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/imgutil"
	"github.com/thinkdiffusion/sd-forge-ic-light/internal/rembg"
)

// ErrMissingForeground signals that the feature was enabled but no subject
// image was supplied. Build degrades the request to disabled instead of
// failing the run; callers that care can detect it with errors.Is.
var ErrMissingForeground = errors.New("relighting enabled but no foreground image supplied")

// ErrSchemaMismatch signals raw UI values that do not match the request
// schema in count or type. This is a caller contract violation, not a
// recoverable condition.
var ErrSchemaMismatch = errors.New("raw values do not match the request schema")

// NumRawFields is the length of the ordered raw-value sequence Build accepts.
const NumRawFields = 11

// The neutral backdrop subjects are composited onto after matting.
var neutralGrey = color.NRGBA{R: 127, G: 127, B: 127, A: 255}

// Request captures one relighting request. It is built once per generation
// run, owned exclusively by that run, and discarded at run end.
type Request struct {
	Enabled    bool
	ModelType  ModelType
	InputFg    *image.NRGBA
	UploadedBg *image.NRGBA

	BgSourceFC  BGSourceFC
	BgSourceFBC BGSourceFBC

	RemoveBg    bool
	ReinforceFg bool

	DetailTransfer            bool
	DetailTransferUseRawInput bool
	DetailTransferBlurRadius  int

	remover rembg.Remover

	fgOnce  sync.Once
	fgRGB   *image.NRGBA
	fgErr   error
	lmCache map[[2]int]*image.NRGBA
}

// Disabled returns a request that every downstream stage treats as a no-op.
func Disabled() *Request {
	return &Request{Enabled: false}
}

// Build constructs a Request from the ordered raw values the UI submits.
// The sequence must be exactly: enabled, model type, foreground image,
// uploaded background, FC background source, FBC background source, remove
// background, reinforce foreground, detail transfer, detail transfer uses
// raw input, detail transfer blur radius.
//
// A count or type mismatch returns ErrSchemaMismatch. A missing foreground
// while enabled returns a disabled request together with
// ErrMissingForeground so the run can proceed without relighting.
func Build(raw []any) (*Request, error) {
	if len(raw) != NumRawFields {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrSchemaMismatch, len(raw), NumRawFields)
	}

	enabled, err := boolField(raw[0], "enabled")
	if err != nil {
		return nil, err
	}
	if !enabled {
		return Disabled(), nil
	}

	modelRaw, err := stringField(raw[1], "model_type")
	if err != nil {
		return nil, err
	}
	modelType, err := ParseModelType(modelRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	inputFg, err := imageField(raw[2], "input_fg")
	if err != nil {
		return nil, err
	}
	if inputFg == nil {
		log.Warn().Msg("Relighting enabled without a foreground image; disabling for this run")
		return Disabled(), ErrMissingForeground
	}

	uploadedBg, err := imageField(raw[3], "uploaded_bg")
	if err != nil {
		return nil, err
	}

	fcRaw, err := stringField(raw[4], "bg_source_fc")
	if err != nil {
		return nil, err
	}
	bgSourceFC, err := ParseBGSourceFC(fcRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	fbcRaw, err := stringField(raw[5], "bg_source_fbc")
	if err != nil {
		return nil, err
	}
	bgSourceFBC, err := ParseBGSourceFBC(fbcRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	removeBg, err := boolField(raw[6], "remove_bg")
	if err != nil {
		return nil, err
	}
	reinforceFg, err := boolField(raw[7], "reinforce_fg")
	if err != nil {
		return nil, err
	}
	detailTransfer, err := boolField(raw[8], "detail_transfer")
	if err != nil {
		return nil, err
	}
	useRawInput, err := boolField(raw[9], "detail_transfer_use_raw_input")
	if err != nil {
		return nil, err
	}
	radius, err := intField(raw[10], "detail_transfer_blur_radius")
	if err != nil {
		return nil, err
	}

	return &Request{
		Enabled:                   true,
		ModelType:                 modelType,
		InputFg:                   inputFg,
		UploadedBg:                uploadedBg,
		BgSourceFC:                bgSourceFC,
		BgSourceFBC:               bgSourceFBC,
		RemoveBg:                  removeBg,
		ReinforceFg:               reinforceFg,
		DetailTransfer:            detailTransfer,
		DetailTransferUseRawInput: useRawInput,
		DetailTransferBlurRadius:  ClampBlurRadius(radius),
		remover:                   rembg.Default(),
	}, nil
}

// SetRemover swaps the background-removal implementation; must be called
// before the first FgRGB computation.
func (r *Request) SetRemover(rm rembg.Remover) { r.remover = rm }

// ClampBlurRadius maps any submitted radius onto the valid odd range [1,9]:
// out-of-range values clamp to the nearer bound, even values round down to
// the next odd value.
func ClampBlurRadius(radius int) int {
	if radius < 1 {
		return 1
	}
	if radius > 9 {
		return 9
	}
	if radius%2 == 0 {
		return radius - 1
	}
	return radius
}

// FgRGB returns the subject composited onto a neutral grey backdrop, after
// background removal when requested. Computed once per request and cached;
// safe to call from concurrent postprocessing.
func (r *Request) FgRGB() (*image.NRGBA, error) {
	r.fgOnce.Do(func() {
		subject := r.InputFg
		if r.RemoveBg {
			if r.remover == nil {
				r.remover = rembg.Default()
			}
			matted, err := r.remover.Remove(subject)
			if err != nil {
				r.fgErr = fmt.Errorf("background removal failed: %w", err)
				return
			}
			subject = matted
		}
		r.fgRGB = imgutil.CompositeOver(subject, neutralGrey)
	})
	return r.fgRGB, r.fgErr
}

// Lightmap computes the initial image for an img2img run. For the Custom
// LightMap source the user-supplied init image passes through untouched;
// for synthesized presets the preset backdrop is generated at the target
// size, with the subject's base color blended back in when ReinforceFg is
// set. Results are cached per (width, height); recomputation with identical
// inputs is byte-identical.
func (r *Request) Lightmap(init *image.NRGBA, width, height int) (*image.NRGBA, error) {
	if r.BgSourceFC == BGSourceFCCustom {
		if init == nil {
			return nil, fmt.Errorf("custom lightmap selected but no init image present")
		}
		return init, nil
	}

	key := [2]int{width, height}
	if cached, ok := r.lmCache[key]; ok {
		return cached, nil
	}

	source := r.BgSourceFC
	if !source.Synthesizable() {
		// None carries no lighting direction; an ambient backdrop keeps
		// img2img runs seeded with something sensible.
		source = BGSourceFCAmbient
	}
	lightmap, err := source.Background(width, height)
	if err != nil {
		return nil, err
	}

	if r.ReinforceFg {
		lightmap, err = r.reinforce(lightmap, width, height)
		if err != nil {
			return nil, err
		}
	}

	if r.lmCache == nil {
		r.lmCache = make(map[[2]int]*image.NRGBA)
	}
	r.lmCache[key] = lightmap
	return lightmap, nil
}

// reinforce blends the subject's base color onto the lightmap at half
// strength, restricted to the subject's own silhouette.
func (r *Request) reinforce(lightmap *image.NRGBA, width, height int) (*image.NRGBA, error) {
	fg, err := r.FgRGB()
	if err != nil {
		return nil, err
	}
	fgScaled, err := imgutil.Resize(fg, width, height)
	if err != nil {
		return nil, err
	}
	mask, err := imgutil.Resize(r.InputFg, width, height)
	if err != nil {
		return nil, err
	}
	return imgutil.BlendMasked(lightmap, fgScaled, mask, 128)
}

func boolField(v any, name string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: field %s has type %T, want bool", ErrSchemaMismatch, name, v)
	}
	return b, nil
}

func stringField(v any, name string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %s has type %T, want string", ErrSchemaMismatch, name, v)
	}
	return s, nil
}

func intField(v any, name string) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		// Sliders submit float values.
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: field %s has type %T, want int", ErrSchemaMismatch, name, v)
	}
}

func imageField(v any, name string) (*image.NRGBA, error) {
	if v == nil {
		return nil, nil
	}
	img, ok := v.(*image.NRGBA)
	if !ok {
		return nil, fmt.Errorf("%w: field %s has type %T, want *image.NRGBA", ErrSchemaMismatch, name, v)
	}
	return img, nil
}
