// Package host models the slice of the diffusion pipeline's per-generation
// state that the relighting toolkit reads and writes. The real sampler is an
// external collaborator injected through the Sampler interface.
package host

import (
	"context"
	"image"

	"github.com/google/uuid"

	"github.com/thinkdiffusion/sd-forge-ic-light/internal/args"
)

// Mode distinguishes the two generation contexts the host exposes.
type Mode int

const (
	Txt2Img Mode = iota
	Img2Img
)

func (m Mode) String() string {
	if m == Img2Img {
		return "img2img"
	}
	return "txt2img"
}

// Capabilities describes what the host integration offers. Probed once at
// process start to pick the backend strategy.
type Capabilities struct {
	// PerSamplingPassHook is true when the host can call back before every
	// sampling pass, not just once before the loop.
	PerSamplingPassHook bool
}

// Conditioning is the relighting input the sampler consumes: the matted
// subject, the background it should be lit by, and which model variant to
// run. Request records which request produced it so re-application across
// passes can recognize its own work.
type Conditioning struct {
	ModelType  args.ModelType
	Subject    *image.NRGBA
	Background *image.NRGBA
	Request    *args.Request
}

// RunContext is the mutable per-run state. One run owns its context
// exclusively; contexts are never shared or reused across runs.
type RunContext struct {
	ID     uuid.UUID
	Mode   Mode
	Width  int
	Height int

	// HiresFix marks a two-pass run (base pass plus high-resolution pass).
	HiresFix bool

	Prompt string

	// InitImage seeds img2img sampling; nil for txt2img.
	InitImage *image.NRGBA

	// RawArgs carries the ordered UI values for args.Build.
	RawArgs []any

	// Conditioning is set by the relighting invocation before sampling.
	Conditioning *Conditioning

	// ExtraResultImages collects auxiliary outputs (background composites)
	// appended during the run.
	ExtraResultImages []*image.NRGBA
}

// NewRunContext returns a context for a fresh run.
func NewRunContext(mode Mode, width, height int) *RunContext {
	return &RunContext{
		ID:     uuid.New(),
		Mode:   mode,
		Width:  width,
		Height: height,
	}
}

// Result is the host's final output collection.
type Result struct {
	Images []*image.NRGBA
}

// Append adds images to the output collection in order.
func (r *Result) Append(imgs ...*image.NRGBA) {
	r.Images = append(r.Images, imgs...)
}

// Sampler is the opaque diffusion step. The toolkit never looks inside it;
// it only guarantees the conditioning and init image are in place before
// Sample runs.
type Sampler interface {
	Sample(ctx context.Context, rc *RunContext, pass int) (*image.NRGBA, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context, rc *RunContext, pass int) (*image.NRGBA, error)

func (f SamplerFunc) Sample(ctx context.Context, rc *RunContext, pass int) (*image.NRGBA, error) {
	return f(ctx, rc, pass)
}
